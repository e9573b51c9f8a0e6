package handler

import "time"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Request types ---

type createPromptRequest struct {
	Title       string   `json:"title"        validate:"required"`
	Content     string   `json:"content"      validate:"required"`
	TargetModel string   `json:"target_model" validate:"required"`
	Tags        []string `json:"tags"`
	IsPublic    bool     `json:"is_public"`
}

// updatePromptRequest carries a partial update: absent fields stay untouched.
type updatePromptRequest struct {
	Title       *string   `json:"title,omitempty"`
	Content     *string   `json:"content,omitempty"`
	TargetModel *string   `json:"target_model,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
	IsPublic    *bool     `json:"is_public,omitempty"`
}

// ratePromptRequest binds the rating as a float so a fractional value can be
// rejected with a validation error instead of a bind failure.
type ratePromptRequest struct {
	Rating float64 `json:"rating" validate:"min=0,max=5"`
}

// Response-only types owned by the transport layer.
// These are intentionally separate from ports/domain types so the JSON
// contract is not coupled to internal service changes.

type promptResponse struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Content      string     `json:"content"`
	TargetModel  string     `json:"target_model"`
	Tags         []string   `json:"tags"`
	IsPublic     bool       `json:"is_public"`
	AuthorID     string     `json:"author_id"`
	Rating       float64    `json:"rating"`
	RatingsCount int        `json:"ratings_count"`
	Views        int64      `json:"views"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

type paginationResponse struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}

type listPromptsResponse struct {
	Data       []promptResponse   `json:"data"`
	Pagination paginationResponse `json:"pagination"`
}

type ratePromptResponse struct {
	Rating       float64 `json:"rating"`
	RatingsCount int     `json:"ratings_count"`
}

type tagsResponse struct {
	Tags []string `json:"tags"`
}
