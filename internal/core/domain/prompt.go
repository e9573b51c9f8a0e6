package domain

import (
	"strings"
	"time"
)

// TargetModel identifies which AI model a prompt is written for.
type TargetModel string

const (
	ModelChatGPT     TargetModel = "ChatGPT"
	ModelClaude      TargetModel = "Claude"
	ModelGemini      TargetModel = "Gemini"
	ModelLlama       TargetModel = "Llama"
	ModelMidjourney  TargetModel = "Midjourney"
	ModelHuggingFace TargetModel = "HuggingFace"
	ModelOther       TargetModel = "Other"
)

// supportedModels is the closed set of accepted target models.
var supportedModels = map[TargetModel]struct{}{
	ModelChatGPT:     {},
	ModelClaude:      {},
	ModelGemini:      {},
	ModelLlama:       {},
	ModelMidjourney:  {},
	ModelHuggingFace: {},
	ModelOther:       {},
}

// IsSupported reports whether m is one of the accepted target models.
func (m TargetModel) IsSupported() bool {
	_, ok := supportedModels[m]
	return ok
}

// SupportedModels returns the accepted target models in display order.
func SupportedModels() []TargetModel {
	return []TargetModel{
		ModelChatGPT, ModelClaude, ModelGemini, ModelLlama,
		ModelMidjourney, ModelHuggingFace, ModelOther,
	}
}

// Prompt is the core aggregate root: a stored text template targeting a
// specific AI model, with visibility, authorship, tags, and rating metadata.
//
// Rating invariants maintained by the rating path:
//   - Rating * RatingsCount is the sum of all recorded ratings.
//   - len(RatedBy) == RatingsCount.
//   - AuthorID never appears in RatedBy.
type Prompt struct {
	ID           string      `json:"id"`
	Title        string      `json:"title"`
	Content      string      `json:"content"`
	TargetModel  TargetModel `json:"target_model"`
	Tags         []string    `json:"tags"`
	IsPublic     bool        `json:"is_public"`
	AuthorID     string      `json:"author_id"`
	Rating       float64     `json:"rating"`
	RatingsCount int         `json:"ratings_count"`
	RatedBy      []string    `json:"-"`
	Views        int64       `json:"views"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    *time.Time  `json:"updated_at,omitempty"`

	// Version is the optimistic-concurrency token bumped on every write
	// that touches rating state.
	Version int64 `json:"-"`
}

// RatedByUser reports whether userID has already rated this prompt.
func (p *Prompt) RatedByUser(userID string) bool {
	for _, id := range p.RatedBy {
		if id == userID {
			return true
		}
	}
	return false
}

// HasAnyTag reports whether the prompt carries at least one of the given tags.
func (p *Prompt) HasAnyTag(tags []string) bool {
	for _, want := range tags {
		for _, have := range p.Tags {
			if have == want {
				return true
			}
		}
	}
	return false
}

// NormalizeTags canonicalizes raw tag input: each element is split on commas,
// trimmed, lowercased, empties are dropped, and duplicates collapse while
// preserving first-seen order.
func NormalizeTags(raw []string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, len(raw))
	for _, entry := range raw {
		for _, part := range strings.Split(entry, ",") {
			tag := strings.ToLower(strings.TrimSpace(part))
			if tag == "" {
				continue
			}
			if _, dup := seen[tag]; dup {
				continue
			}
			seen[tag] = struct{}{}
			out = append(out, tag)
		}
	}
	return out
}
