package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/modd3/ai-prompt-builder/internal/core/domain"
	"github.com/modd3/ai-prompt-builder/internal/core/ports"
)

// maxRatingAttempts bounds the optimistic-concurrency retry loop before a
// conflict is surfaced to the caller.
const maxRatingAttempts = 3

// RatingService applies a single rating from a user to a prompt and keeps the
// running average consistent under concurrent raters. The read-modify-write
// of rating state is serialized per prompt through a version-checked
// compare-and-swap in the repository.
type RatingService struct {
	prompts ports.PromptRepository
	logger  zerolog.Logger
}

func NewRatingService(prompts ports.PromptRepository, logger zerolog.Logger) *RatingService {
	return &RatingService{prompts: prompts, logger: logger}
}

// RatePrompt records value as raterID's rating of promptID and returns the
// new aggregate. Exactly one rating per user per prompt is enforced: a lost
// CAS race re-reads the document, so a same-user double submit resolves to
// one success and one ErrDuplicateRating.
func (s *RatingService) RatePrompt(ctx context.Context, promptID, raterID string, value int) (*ports.RatingResult, error) {
	if raterID == "" {
		return nil, fmt.Errorf("%w: rater is required", domain.ErrValidation)
	}
	if value < 0 || value > 5 {
		return nil, fmt.Errorf("%w: rating must be an integer between 0 and 5", domain.ErrValidation)
	}

	for attempt := 1; attempt <= maxRatingAttempts; attempt++ {
		prompt, err := s.prompts.FindByID(ctx, promptID)
		if err != nil {
			return nil, err
		}
		if prompt.AuthorID == raterID {
			return nil, domain.ErrSelfRating
		}
		if prompt.RatedByUser(raterID) {
			return nil, domain.ErrDuplicateRating
		}

		newCount := prompt.RatingsCount + 1
		newAverage := (prompt.Rating*float64(prompt.RatingsCount) + float64(value)) / float64(newCount)

		applied, err := s.prompts.ApplyRating(ctx, promptID, prompt.Version, raterID, newAverage, newCount, time.Now().UTC())
		if err != nil {
			return nil, err
		}
		if applied {
			s.logger.Info().
				Str("prompt_id", promptID).
				Str("rater", raterID).
				Int("value", value).
				Float64("average", newAverage).
				Int("count", newCount).
				Msg("rating applied")
			return &ports.RatingResult{Rating: newAverage, RatingsCount: newCount}, nil
		}

		// Lost the race: another rater (or a duplicate submit by the same
		// user) moved the version. Re-read and try again.
		s.logger.Debug().
			Str("prompt_id", promptID).
			Str("rater", raterID).
			Int("attempt", attempt).
			Msg("rating CAS lost, retrying")
	}

	return nil, fmt.Errorf("rate prompt %s: %w", promptID, domain.ErrConflict)
}
