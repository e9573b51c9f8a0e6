package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/modd3/ai-prompt-builder/internal/core/domain"
	"github.com/modd3/ai-prompt-builder/internal/core/ports"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// TagCache abstracts the cached tag listing (Redis). Get returns nil on a
// cache miss; all cache failures are non-fatal to the request.
type TagCache interface {
	Get(ctx context.Context) ([]string, error)
	Set(ctx context.Context, tags []string) error
	Invalidate(ctx context.Context) error
}

// CatalogService orchestrates CRUD and listing over the prompt catalog,
// enforcing ownership and visibility rules.
type CatalogService struct {
	prompts    ports.PromptRepository
	users      ports.UserRepository
	reconciler ports.BackrefEnqueuer
	tags       TagCache
	logger     zerolog.Logger
}

func NewCatalogService(
	prompts ports.PromptRepository,
	users ports.UserRepository,
	reconciler ports.BackrefEnqueuer,
	tags TagCache,
	logger zerolog.Logger,
) *CatalogService {
	return &CatalogService{
		prompts:    prompts,
		users:      users,
		reconciler: reconciler,
		tags:       tags,
		logger:     logger,
	}
}

// ListPrompts returns a page of prompts visible to the viewer plus the total
// match count. Requesting private prompts as anyone but their author yields
// an empty page rather than an error.
func (s *CatalogService) ListPrompts(ctx context.Context, input ports.ListPromptsInput) (*ports.ListPromptsResult, error) {
	page := input.Page
	if page < 1 {
		page = 1
	}
	limit := input.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	sort := input.Sort
	switch sort {
	case ports.SortNewest, ports.SortOldest, ports.SortTopRated, ports.SortMostViewed, ports.SortTitleAsc, ports.SortTitleDesc:
	default:
		sort = ports.SortNewest
	}

	filter := ports.ListPromptsFilter{
		TargetModel: input.TargetModel,
		Tags:        domain.NormalizeTags(input.Tags),
		IsPublic:    input.IsPublic,
		AuthorID:    input.AuthorID,
		Search:      strings.TrimSpace(input.Search),
		Sort:        sort,
		Page:        page,
		Limit:       limit,
		ViewerID:    input.ViewerID,
	}

	if input.IsPublic != nil && !*input.IsPublic {
		// Private prompts are only listable by their author. Anonymous or
		// mismatched viewers get an empty page, not an error.
		if input.ViewerID == "" || (input.AuthorID != "" && input.AuthorID != input.ViewerID) {
			return &ports.ListPromptsResult{Items: []*domain.Prompt{}, Page: page, Limit: limit}, nil
		}
		filter.AuthorID = input.ViewerID
	}

	items, total, err := s.prompts.List(ctx, filter)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list prompts")
		return nil, err
	}

	return &ports.ListPromptsResult{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: int(math.Ceil(float64(total) / float64(limit))),
	}, nil
}

// CreatePrompt validates input, persists the prompt, and appends its id to
// the author's prompts list. A failure of the second write never rolls back
// the prompt: it is logged and handed to the reconciler.
func (s *CatalogService) CreatePrompt(ctx context.Context, input ports.CreatePromptInput) (*domain.Prompt, error) {
	if input.AuthorID == "" {
		return nil, fmt.Errorf("%w: author is required", domain.ErrValidation)
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	if input.Content == "" {
		return nil, fmt.Errorf("%w: content is required", domain.ErrValidation)
	}
	model := domain.TargetModel(input.TargetModel)
	if !model.IsSupported() {
		return nil, fmt.Errorf("%w: unsupported target model %q", domain.ErrValidation, input.TargetModel)
	}

	prompt := &domain.Prompt{
		Title:       title,
		Content:     input.Content,
		TargetModel: model,
		Tags:        domain.NormalizeTags(input.Tags),
		IsPublic:    input.IsPublic,
		AuthorID:    input.AuthorID,
		RatedBy:     []string{},
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.prompts.Insert(ctx, prompt); err != nil {
		s.logger.Error().Err(err).Str("author", input.AuthorID).Msg("failed to create prompt")
		return nil, err
	}

	if err := s.users.AppendPromptID(ctx, input.AuthorID, prompt.ID); err != nil {
		// The prompt is already durable; repair the back-reference instead
		// of failing the create.
		task := ports.BackrefTask{
			ID:       uuid.NewString(),
			Op:       ports.BackrefAttach,
			UserID:   input.AuthorID,
			PromptID: prompt.ID,
		}
		s.logger.Error().Err(err).
			Str("task_id", task.ID).
			Str("user_id", input.AuthorID).
			Str("prompt_id", prompt.ID).
			Msg("author back-reference write failed, queued for reconciliation")
		s.reconciler.Enqueue(task)
	}

	s.invalidateTags(ctx)
	s.logger.Info().Str("prompt_id", prompt.ID).Str("author", input.AuthorID).Msg("prompt created")
	return prompt, nil
}

// GetPrompt fetches a single prompt by id. Private prompts are only visible
// to their author; everyone else gets a not-found, so their existence is
// never revealed.
func (s *CatalogService) GetPrompt(ctx context.Context, id, viewerID string) (*domain.Prompt, error) {
	prompt, err := s.prompts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !prompt.IsPublic && prompt.AuthorID != viewerID {
		return nil, domain.ErrPromptNotFound
	}
	return prompt, nil
}

// UpdatePrompt applies a partial update after checking authorship. Fields in
// patch that are nil are left untouched; updated_at is stamped on every
// successful call even when nothing changed.
func (s *CatalogService) UpdatePrompt(ctx context.Context, id, actorID string, input ports.UpdatePromptInput) (*domain.Prompt, error) {
	prompt, err := s.prompts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if prompt.AuthorID != actorID {
		return nil, domain.ErrNotAuthor
	}

	patch := ports.PromptPatch{IsPublic: input.IsPublic}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: title cannot be empty", domain.ErrValidation)
		}
		patch.Title = &title
	}
	if input.Content != nil {
		if *input.Content == "" {
			return nil, fmt.Errorf("%w: content cannot be empty", domain.ErrValidation)
		}
		patch.Content = input.Content
	}
	if input.TargetModel != nil {
		model := domain.TargetModel(*input.TargetModel)
		if !model.IsSupported() {
			return nil, fmt.Errorf("%w: unsupported target model %q", domain.ErrValidation, *input.TargetModel)
		}
		patch.TargetModel = &model
	}
	if input.Tags != nil {
		tags := domain.NormalizeTags(*input.Tags)
		patch.Tags = &tags
	}

	updated, err := s.prompts.Update(ctx, id, patch, time.Now().UTC())
	if err != nil {
		s.logger.Error().Err(err).Str("prompt_id", id).Msg("failed to update prompt")
		return nil, err
	}

	s.invalidateTags(ctx)
	s.logger.Info().Str("prompt_id", id).Str("actor", actorID).Msg("prompt updated")
	return updated, nil
}

// DeletePrompt removes a prompt after checking authorship and detaches its id
// from the author's prompts list. A failed detach is queued for
// reconciliation; the caller still observes a successful delete.
func (s *CatalogService) DeletePrompt(ctx context.Context, id, actorID string) error {
	prompt, err := s.prompts.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if prompt.AuthorID != actorID {
		return domain.ErrNotAuthor
	}

	if err := s.prompts.Delete(ctx, id); err != nil {
		s.logger.Error().Err(err).Str("prompt_id", id).Msg("failed to delete prompt")
		return err
	}

	if err := s.users.RemovePromptID(ctx, prompt.AuthorID, id); err != nil {
		task := ports.BackrefTask{
			ID:       uuid.NewString(),
			Op:       ports.BackrefDetach,
			UserID:   prompt.AuthorID,
			PromptID: id,
		}
		s.logger.Error().Err(err).
			Str("task_id", task.ID).
			Str("user_id", prompt.AuthorID).
			Str("prompt_id", id).
			Msg("author back-reference removal failed, queued for reconciliation")
		s.reconciler.Enqueue(task)
	}

	s.invalidateTags(ctx)
	s.logger.Info().Str("prompt_id", id).Str("actor", actorID).Msg("prompt deleted")
	return nil
}

// ListTags returns the lexicographically sorted union of tags across all
// public prompts, served from the cache when warm.
func (s *CatalogService) ListTags(ctx context.Context) ([]string, error) {
	if cached, err := s.tags.Get(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("tag cache read failed, falling back to store")
	} else if cached != nil {
		return cached, nil
	}

	tags, err := s.prompts.DistinctTags(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.tags.Set(ctx, tags); err != nil {
		s.logger.Warn().Err(err).Msg("tag cache write failed")
	}
	return tags, nil
}

func (s *CatalogService) invalidateTags(ctx context.Context) {
	if err := s.tags.Invalidate(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("tag cache invalidation failed")
	}
}
