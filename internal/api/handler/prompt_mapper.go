package handler

import (
	"github.com/modd3/ai-prompt-builder/internal/core/domain"
	"github.com/modd3/ai-prompt-builder/internal/core/ports"
)

// --- Service result → HTTP response ---

func toPromptResponse(p *domain.Prompt) promptResponse {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	return promptResponse{
		ID:           p.ID,
		Title:        p.Title,
		Content:      p.Content,
		TargetModel:  string(p.TargetModel),
		Tags:         tags,
		IsPublic:     p.IsPublic,
		AuthorID:     p.AuthorID,
		Rating:       p.Rating,
		RatingsCount: p.RatingsCount,
		Views:        p.Views,
		CreatedAt:    p.CreatedAt.UTC(),
		UpdatedAt:    p.UpdatedAt,
	}
}

func toListResponse(r *ports.ListPromptsResult) listPromptsResponse {
	items := make([]promptResponse, 0, len(r.Items))
	for _, p := range r.Items {
		items = append(items, toPromptResponse(p))
	}
	return listPromptsResponse{
		Data: items,
		Pagination: paginationResponse{
			Total:      r.Total,
			Page:       r.Page,
			Limit:      r.Limit,
			TotalPages: r.TotalPages,
		},
	}
}
