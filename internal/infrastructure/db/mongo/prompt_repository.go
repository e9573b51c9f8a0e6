package mongo

import (
	"context"
	"errors"
	"regexp"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/modd3/ai-prompt-builder/internal/core/domain"
	"github.com/modd3/ai-prompt-builder/internal/core/ports"
)

const collectionPrompts = "prompts"

type PromptRepository struct {
	col *mongo.Collection
}

func NewPromptRepository(db *mongo.Database) *PromptRepository {
	return &PromptRepository{col: db.Collection(collectionPrompts)}
}

// promptDoc is the stored shape of a prompt. It is kept separate from
// domain.Prompt so the BSON layout is not coupled to the domain type.
type promptDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Title        string             `bson:"title"`
	Content      string             `bson:"content"`
	TargetModel  string             `bson:"target_model"`
	Tags         []string           `bson:"tags"`
	IsPublic     bool               `bson:"is_public"`
	Author       string             `bson:"author"`
	Rating       float64            `bson:"rating"`
	RatingsCount int                `bson:"ratings_count"`
	RatedBy      []string           `bson:"rated_by"`
	Views        int64              `bson:"views"`
	CreatedAt    time.Time          `bson:"created_at"`
	UpdatedAt    *time.Time         `bson:"updated_at,omitempty"`
	Version      int64              `bson:"version"`
}

func toDomain(d *promptDoc) *domain.Prompt {
	return &domain.Prompt{
		ID:           d.ID.Hex(),
		Title:        d.Title,
		Content:      d.Content,
		TargetModel:  domain.TargetModel(d.TargetModel),
		Tags:         d.Tags,
		IsPublic:     d.IsPublic,
		AuthorID:     d.Author,
		Rating:       d.Rating,
		RatingsCount: d.RatingsCount,
		RatedBy:      d.RatedBy,
		Views:        d.Views,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
		Version:      d.Version,
	}
}

// Insert persists a new prompt document and writes the generated id back
// into p.
func (r *PromptRepository) Insert(ctx context.Context, p *domain.Prompt) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := promptDoc{
		ID:           primitive.NewObjectID(),
		Title:        p.Title,
		Content:      p.Content,
		TargetModel:  string(p.TargetModel),
		Tags:         p.Tags,
		IsPublic:     p.IsPublic,
		Author:       p.AuthorID,
		Rating:       p.Rating,
		RatingsCount: p.RatingsCount,
		RatedBy:      p.RatedBy,
		Views:        p.Views,
		CreatedAt:    p.CreatedAt,
	}
	if doc.Tags == nil {
		doc.Tags = []string{}
	}
	if doc.RatedBy == nil {
		doc.RatedBy = []string{}
	}

	err := withRetry(ctx, func() error {
		_, err := r.col.InsertOne(ctx, doc)
		return err
	})
	if err != nil {
		return err
	}

	p.ID = doc.ID.Hex()
	return nil
}

// FindByID retrieves a prompt by its hex id. A malformed id reads the same
// as an unknown one.
func (r *PromptRepository) FindByID(ctx context.Context, id string) (*domain.Prompt, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrPromptNotFound
	}

	var doc promptDoc
	err = withRetry(ctx, func() error {
		return r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrPromptNotFound
		}
		return nil, err
	}
	return toDomain(&doc), nil
}

// List returns one page of prompts matching filter plus the total match
// count independent of pagination.
func (r *PromptRepository) List(ctx context.Context, filter ports.ListPromptsFilter) ([]*domain.Prompt, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := buildListQuery(filter)

	var total int64
	err := withRetry(ctx, func() error {
		var err error
		total, err = r.col.CountDocuments(ctx, query)
		return err
	})
	if err != nil {
		return nil, 0, err
	}

	skip := int64(filter.Page-1) * int64(filter.Limit)
	opts := options.Find().
		SetSort(sortSpec(filter.Sort)).
		SetSkip(skip).
		SetLimit(int64(filter.Limit))

	var docs []promptDoc
	err = withRetry(ctx, func() error {
		cur, err := r.col.Find(ctx, query, opts)
		if err != nil {
			return err
		}
		docs = docs[:0]
		return cur.All(ctx, &docs)
	})
	if err != nil {
		return nil, 0, err
	}

	prompts := make([]*domain.Prompt, 0, len(docs))
	for i := range docs {
		prompts = append(prompts, toDomain(&docs[i]))
	}
	return prompts, total, nil
}

// buildListQuery translates the resolved filter into a Mongo query document.
func buildListQuery(f ports.ListPromptsFilter) bson.M {
	query := bson.M{}

	if f.TargetModel != "" && f.TargetModel != ports.TargetModelAll {
		query["target_model"] = f.TargetModel
	}
	if len(f.Tags) > 0 {
		query["tags"] = bson.M{"$in": f.Tags}
	}
	if f.AuthorID != "" {
		query["author"] = f.AuthorID
	}

	switch {
	case f.IsPublic != nil:
		query["is_public"] = *f.IsPublic
	case f.ViewerID != "":
		// No explicit visibility filter: public prompts plus the viewer's own.
		query["$or"] = bson.A{
			bson.M{"is_public": true},
			bson.M{"author": f.ViewerID},
		}
	default:
		query["is_public"] = true
	}

	if f.Search != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		search := bson.A{
			bson.M{"title": re},
			bson.M{"content": re},
			bson.M{"tags": re},
		}
		if visibility, ok := query["$or"]; ok {
			delete(query, "$or")
			query["$and"] = bson.A{
				bson.M{"$or": visibility},
				bson.M{"$or": search},
			}
		} else {
			query["$or"] = search
		}
	}

	return query
}

// sortSpec maps a sort criterion to a Mongo sort document. The trailing _id
// ascending keeps pagination deterministic across ties.
func sortSpec(sortBy string) bson.D {
	switch sortBy {
	case ports.SortOldest:
		return bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}
	case ports.SortTopRated:
		return bson.D{{Key: "rating", Value: -1}, {Key: "_id", Value: 1}}
	case ports.SortMostViewed:
		return bson.D{{Key: "views", Value: -1}, {Key: "_id", Value: 1}}
	case ports.SortTitleAsc:
		return bson.D{{Key: "title", Value: 1}, {Key: "_id", Value: 1}}
	case ports.SortTitleDesc:
		return bson.D{{Key: "title", Value: -1}, {Key: "_id", Value: 1}}
	default:
		return bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}
	}
}

// Update applies the non-nil patch fields, stamps updated_at, and bumps the
// version so concurrent rating swaps retry against fresh state.
func (r *PromptRepository) Update(ctx context.Context, id string, patch ports.PromptPatch, now time.Time) (*domain.Prompt, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrPromptNotFound
	}

	set := bson.M{"updated_at": now}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Content != nil {
		set["content"] = *patch.Content
	}
	if patch.TargetModel != nil {
		set["target_model"] = string(*patch.TargetModel)
	}
	if patch.Tags != nil {
		set["tags"] = *patch.Tags
	}
	if patch.IsPublic != nil {
		set["is_public"] = *patch.IsPublic
	}

	update := bson.M{"$set": set, "$inc": bson.M{"version": 1}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc promptDoc
	err = withRetry(ctx, func() error {
		return r.col.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc)
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrPromptNotFound
		}
		return nil, err
	}
	return toDomain(&doc), nil
}

func (r *PromptRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrPromptNotFound
	}

	var res *mongo.DeleteResult
	err = withRetry(ctx, func() error {
		var err error
		res, err = r.col.DeleteOne(ctx, bson.M{"_id": oid})
		return err
	})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrPromptNotFound
	}
	return nil
}

// DistinctTags returns the sorted union of tags across public prompts.
func (r *PromptRepository) DistinctTags(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var raw []interface{}
	err := withRetry(ctx, func() error {
		var err error
		raw, err = r.col.Distinct(ctx, "tags", bson.M{"is_public": true})
		return err
	})
	if err != nil {
		return nil, err
	}

	tags := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			tags = append(tags, s)
		}
	}
	sort.Strings(tags)
	return tags, nil
}

// ApplyRating performs the version-checked compare-and-swap of the rating
// state. The filter also excludes documents where the rater already appears
// in rated_by or is the author, so a racing duplicate can never slip in
// between the service's read and this write.
func (r *PromptRepository) ApplyRating(ctx context.Context, id string, version int64, raterID string, newAverage float64, newCount int, now time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, domain.ErrPromptNotFound
	}

	filter := bson.M{
		"_id":      oid,
		"version":  version,
		"rated_by": bson.M{"$ne": raterID},
		"author":   bson.M{"$ne": raterID},
	}
	update := bson.M{
		"$set": bson.M{
			"rating":        newAverage,
			"ratings_count": newCount,
			"updated_at":    now,
		},
		"$push": bson.M{"rated_by": raterID},
		"$inc":  bson.M{"version": 1},
	}

	var res *mongo.UpdateResult
	err = withRetry(ctx, func() error {
		var err error
		res, err = r.col.UpdateOne(ctx, filter, update)
		return err
	})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// EnsureIndexes creates the indexes the list and rating paths rely on.
func (r *PromptRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "author", Value: 1}}},
		{Keys: bson.D{{Key: "is_public", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "tags", Value: 1}}},
		{Keys: bson.D{
			{Key: "title", Value: "text"},
			{Key: "content", Value: "text"},
			{Key: "tags", Value: "text"},
		}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
