package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/modd3/ai-prompt-builder/internal/core/domain"
)

const collectionUsers = "users"

type UserRepository struct {
	col *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{col: db.Collection(collectionUsers)}
}

type userDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name"`
	Email     string             `bson:"email"`
	Password  string             `bson:"password"`
	Avatar    string             `bson:"avatar,omitempty"`
	Bio       string             `bson:"bio,omitempty"`
	Prompts   []string           `bson:"prompts"`
	CreatedAt time.Time          `bson:"created_at"`
}

func userToDomain(d *userDoc) *domain.User {
	return &domain.User{
		ID:           d.ID.Hex(),
		Name:         d.Name,
		Email:        d.Email,
		PasswordHash: d.Password,
		Avatar:       d.Avatar,
		Bio:          d.Bio,
		PromptIDs:    d.Prompts,
		CreatedAt:    d.CreatedAt,
	}
}

func (r *UserRepository) Insert(ctx context.Context, u *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := userDoc{
		ID:        primitive.NewObjectID(),
		Name:      u.Name,
		Email:     u.Email,
		Password:  u.PasswordHash,
		Avatar:    u.Avatar,
		Bio:       u.Bio,
		Prompts:   u.PromptIDs,
		CreatedAt: u.CreatedAt,
	}
	if doc.Prompts == nil {
		doc.Prompts = []string{}
	}

	err := withRetry(ctx, func() error {
		_, err := r.col.InsertOne(ctx, doc)
		return err
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	created := *u
	created.ID = doc.ID.Hex()
	if created.PromptIDs == nil {
		created.PromptIDs = []string{}
	}
	return &created, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}

	var doc userDoc
	err = withRetry(ctx, func() error {
		return r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return userToDomain(&doc), nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc userDoc
	err := withRetry(ctx, func() error {
		return r.col.FindOne(ctx, bson.M{"email": email}).Decode(&doc)
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return userToDomain(&doc), nil
}

// AppendPromptID adds promptID to the user's prompts list. $addToSet keeps
// the operation idempotent under reconciler retries while preserving
// insertion order for new entries.
func (r *UserRepository) AppendPromptID(ctx context.Context, userID, promptID string) error {
	return r.updatePrompts(ctx, userID, bson.M{"$addToSet": bson.M{"prompts": promptID}})
}

// RemovePromptID removes promptID from the user's prompts list (idempotent).
func (r *UserRepository) RemovePromptID(ctx context.Context, userID, promptID string) error {
	return r.updatePrompts(ctx, userID, bson.M{"$pull": bson.M{"prompts": promptID}})
}

func (r *UserRepository) updatePrompts(ctx context.Context, userID string, update bson.M) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return domain.ErrUserNotFound
	}

	var res *mongo.UpdateResult
	err = withRetry(ctx, func() error {
		var err error
		res, err = r.col.UpdateOne(ctx, bson.M{"_id": oid}, update)
		return err
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// EnsureIndexes creates the unique email index.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
