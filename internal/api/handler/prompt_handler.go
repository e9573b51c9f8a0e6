package handler

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/modd3/ai-prompt-builder/internal/api/metrics"
	"github.com/modd3/ai-prompt-builder/internal/core/domain"
	"github.com/modd3/ai-prompt-builder/internal/core/ports"
)

// PromptHandler handles HTTP requests for catalog operations.
type PromptHandler struct {
	catalog ports.CatalogService
	ratings ports.RatingService
}

func NewPromptHandler(catalog ports.CatalogService, ratings ports.RatingService) *PromptHandler {
	return &PromptHandler{catalog: catalog, ratings: ratings}
}

// List handles GET /api/prompts.
//
// @Summary      List prompts with filtering, sorting, search, and pagination
// @Tags         prompts
// @Produce      json
// @Param        target_model  query     string  false  "Filter by target model ('All' = any)"
// @Param        tags          query     string  false  "Comma-separated tags; matches prompts carrying at least one"
// @Param        is_public     query     bool    false  "Filter by visibility"
// @Param        author        query     string  false  "Filter by author id"
// @Param        search        query     string  false  "Case-insensitive match on title, content, or tags"
// @Param        sort          query     string  false  "newest|oldest|rating|views|title_asc|title_desc"
// @Param        page          query     int     false  "1-based page number"
// @Param        limit         query     int     false  "Page size (max 100)"
// @Success      200           {object}  listPromptsResponse
// @Failure      400           {object}  errorResponse
// @Router       /api/prompts [get]
func (h *PromptHandler) List(c echo.Context) error {
	input, err := parseListInput(c)
	if err != nil {
		return err
	}
	input.ViewerID = viewerID(c)

	start := time.Now()
	result, err := h.catalog.ListPrompts(c.Request().Context(), input)
	if err != nil {
		return err
	}
	metrics.ListDuration.Observe(time.Since(start).Seconds())

	return c.JSON(http.StatusOK, toListResponse(result))
}

// Mine handles GET /api/prompts/mine: the caller's own prompts, public and
// private.
//
// @Summary      List the authenticated user's prompts
// @Tags         prompts
// @Produce      json
// @Security     BearerAuth
// @Param        sort   query     string  false  "newest|oldest|rating|views|title_asc|title_desc"
// @Param        page   query     int     false  "1-based page number"
// @Param        limit  query     int     false  "Page size (max 100)"
// @Success      200    {object}  listPromptsResponse
// @Failure      401    {object}  errorResponse
// @Router       /api/prompts/mine [get]
func (h *PromptHandler) Mine(c echo.Context) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}

	input, err := parseListInput(c)
	if err != nil {
		return err
	}
	input.ViewerID = actor
	input.AuthorID = actor
	input.IsPublic = nil

	result, err := h.catalog.ListPrompts(c.Request().Context(), input)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toListResponse(result))
}

// Create handles POST /api/prompts.
//
// @Summary      Create a new prompt
// @Tags         prompts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createPromptRequest  true  "Prompt fields"
// @Success      201   {object}  promptResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /api/prompts [post]
func (h *PromptHandler) Create(c echo.Context) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}

	var req createPromptRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	prompt, err := h.catalog.CreatePrompt(c.Request().Context(), ports.CreatePromptInput{
		AuthorID:    actor,
		Title:       req.Title,
		Content:     req.Content,
		TargetModel: req.TargetModel,
		Tags:        req.Tags,
		IsPublic:    req.IsPublic,
	})
	if err != nil {
		return err
	}

	metrics.PromptsCreatedTotal.WithLabelValues(string(prompt.TargetModel), visibilityLabel(prompt.IsPublic)).Inc()
	return c.JSON(http.StatusCreated, toPromptResponse(prompt))
}

// Get handles GET /api/prompts/:id.
//
// @Summary      Get a single prompt by id
// @Tags         prompts
// @Produce      json
// @Param        id   path      string  true  "Prompt id"
// @Success      200  {object}  promptResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/prompts/{id} [get]
func (h *PromptHandler) Get(c echo.Context) error {
	prompt, err := h.catalog.GetPrompt(c.Request().Context(), c.Param("id"), viewerID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPromptResponse(prompt))
}

// Update handles PUT /api/prompts/:id.
//
// @Summary      Update a prompt (author only, partial)
// @Tags         prompts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string               true  "Prompt id"
// @Param        body  body      updatePromptRequest  true  "Fields to change"
// @Success      200   {object}  promptResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /api/prompts/{id} [put]
func (h *PromptHandler) Update(c echo.Context) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}

	var req updatePromptRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	prompt, err := h.catalog.UpdatePrompt(c.Request().Context(), c.Param("id"), actor, ports.UpdatePromptInput{
		Title:       req.Title,
		Content:     req.Content,
		TargetModel: req.TargetModel,
		Tags:        req.Tags,
		IsPublic:    req.IsPublic,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPromptResponse(prompt))
}

// Delete handles DELETE /api/prompts/:id.
//
// @Summary      Delete a prompt (author only)
// @Tags         prompts
// @Security     BearerAuth
// @Param        id  path  string  true  "Prompt id"
// @Success      204
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/prompts/{id} [delete]
func (h *PromptHandler) Delete(c echo.Context) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}

	if err := h.catalog.DeletePrompt(c.Request().Context(), c.Param("id"), actor); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Rate handles POST /api/prompts/:id/rate.
//
// @Summary      Rate a prompt (one rating per user, not the author)
// @Tags         prompts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "Prompt id"
// @Param        body  body      ratePromptRequest  true  "Rating value (integer 0-5)"
// @Success      200   {object}  ratePromptResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /api/prompts/{id}/rate [post]
func (h *PromptHandler) Rate(c echo.Context) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}

	var req ratePromptRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if req.Rating != math.Trunc(req.Rating) {
		metrics.RatingsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("%w: rating must be a whole number", domain.ErrValidation)
	}

	result, err := h.ratings.RatePrompt(c.Request().Context(), c.Param("id"), actor, int(req.Rating))
	if err != nil {
		metrics.RatingsTotal.WithLabelValues(ratingOutcome(err)).Inc()
		return err
	}

	metrics.RatingsTotal.WithLabelValues("applied").Inc()
	return c.JSON(http.StatusOK, ratePromptResponse{
		Rating:       result.Rating,
		RatingsCount: result.RatingsCount,
	})
}

// Tags handles GET /api/prompts/tags.
//
// @Summary      List all distinct tags across public prompts
// @Tags         prompts
// @Produce      json
// @Success      200  {object}  tagsResponse
// @Router       /api/prompts/tags [get]
func (h *PromptHandler) Tags(c echo.Context) error {
	tags, err := h.catalog.ListTags(c.Request().Context())
	if err != nil {
		return err
	}
	if tags == nil {
		tags = []string{}
	}
	return c.JSON(http.StatusOK, tagsResponse{Tags: tags})
}

// parseListInput reads the list query parameters shared by List and Mine.
func parseListInput(c echo.Context) (ports.ListPromptsInput, error) {
	input := ports.ListPromptsInput{
		TargetModel: c.QueryParam("target_model"),
		AuthorID:    c.QueryParam("author"),
		Search:      c.QueryParam("search"),
		Sort:        c.QueryParam("sort"),
	}

	if raw := c.QueryParam("tags"); raw != "" {
		input.Tags = strings.Split(raw, ",")
	}

	if raw := c.QueryParam("is_public"); raw != "" {
		isPublic, err := strconv.ParseBool(raw)
		if err != nil {
			return input, echo.NewHTTPError(http.StatusBadRequest, "is_public must be true or false")
		}
		input.IsPublic = &isPublic
	}

	if raw := c.QueryParam("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return input, echo.NewHTTPError(http.StatusBadRequest, "page must be a positive integer")
		}
		input.Page = page
	}

	if raw := c.QueryParam("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return input, echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		input.Limit = limit
	}

	return input, nil
}

func visibilityLabel(isPublic bool) string {
	if isPublic {
		return "public"
	}
	return "private"
}

// ratingOutcome maps a rating failure to its metric label.
func ratingOutcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrDuplicateRating):
		return "duplicate"
	case errors.Is(err, domain.ErrSelfRating):
		return "self"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	default:
		return "error"
	}
}
