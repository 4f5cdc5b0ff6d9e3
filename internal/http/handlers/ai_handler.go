// AI recommendation HTTP handlers.
//
// This file exposes REST endpoints for AI-generated game recommendations:
//   - GET    /ai/recommend     (always generate fresh, persist to history)
//   - GET    /ai/history       (serve the cached latest row, or generate)
//   - DELETE /ai/history/{id}  (remove one owned history row)
//
// The history endpoint distinguishes its two outcomes with both the status
// code (200 cached vs 201 generated) and a `source` field, so clients can
// tell a warm cache from a fresh upstream call.
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gamehub/go-game-backend/internal/domain"
	"github.com/gamehub/go-game-backend/internal/genai"
	"github.com/gamehub/go-game-backend/internal/services"
)

//
// DTOs
//

// RecommendationPayload is the data block for recommendation responses.
type RecommendationPayload struct {
	ID              uint          `json:"id" example:"17"`
	Recommendations []domain.Game `json:"recommendations"`
	GameIDs         []uint        `json:"gameIds"`
	// BasedOnFavorites is omitted on cache reads, where the original
	// favorite count was not retained.
	BasedOnFavorites *int      `json:"basedOnFavorites,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}

// HistoryResponse wraps a recommendation with its provenance. Source is
// "cache" or "generated".
type HistoryResponse struct {
	Success bool                  `json:"success"`
	Source  string                `json:"source" example:"cache"`
	Message string                `json:"message"`
	Data    RecommendationPayload `json:"data"`
}

// DeletedAIRequest echoes the removed history row id.
type DeletedAIRequest struct {
	ID uint `json:"id" example:"17"`
}

func toRecommendationPayload(rec *services.Recommendation, withCount bool) RecommendationPayload {
	p := RecommendationPayload{
		ID:              rec.Request.ID,
		Recommendations: rec.Games,
		GameIDs:         rec.GameIDs,
		CreatedAt:       rec.Request.CreatedAt,
	}
	if withCount {
		n := rec.BasedOnFavorites
		p.BasedOnFavorites = &n
	}
	return p
}

// failGeneration maps generation errors to HTTP responses. Upstream API
// failures keep their original status code where one is known so the client
// retry policy can distinguish transient 5xx from permanent 4xx.
func failGeneration(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrAINotConfigured):
		fail(c, http.StatusServiceUnavailable, ErrCodeAIUnavailable, err.Error())
	case errors.Is(err, services.ErrAIResponseParse), errors.Is(err, services.ErrAIResponseFormat):
		// Unusable model output is terminal; never retried server-side.
		fail(c, http.StatusInternalServerError, ErrCodeGenerationFailed, err.Error())
	default:
		if status := genai.UpstreamStatus(err); status >= http.StatusBadRequest {
			fail(c, status, ErrCodeGenerationFailed, err.Error())
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeGenerationFailed, err.Error())
	}
}

//
// Handlers
//

// Recommend godoc
// @ID          recommend
// @Summary     Generate game recommendations
// @Description Builds a prompt from the user's recent favorites, calls the generation backend once, persists the result, and returns the recommended games.
// @Tags        AI
// @Produce     json
// @Security    BearerAuth
//
// @Success     200  {object}  handlers.SuccessResponse{data=handlers.RecommendationPayload}
// @Failure     401  {object}  handlers.ErrorResponse  "Missing token"
// @Failure     500  {object}  handlers.ErrorResponse  "Unusable model output"
// @Failure     503  {object}  handlers.ErrorResponse  "Generation not configured"
// @Router      /ai/recommend [get]
func (h *Handlers) Recommend(c *gin.Context) {
	rec, err := h.recSvc.Generate(c.Request.Context(), userID(c))
	if err != nil {
		failGeneration(c, err)
		return
	}
	ok(c, http.StatusOK, "Game recommendations retrieved successfully", toRecommendationPayload(rec, true))
}

// History godoc
// @ID          aiHistory
// @Summary     Get the latest recommendation, generating if absent
// @Description Serves the newest stored recommendation (200, source=cache). When the user has none, generates and persists one (201, source=generated).
// @Tags        AI
// @Produce     json
// @Security    BearerAuth
//
// @Success     200  {object}  handlers.HistoryResponse  "Cached"
// @Success     201  {object}  handlers.HistoryResponse  "Freshly generated"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing token"
// @Failure     500  {object}  handlers.ErrorResponse  "Unusable model output"
// @Failure     503  {object}  handlers.ErrorResponse  "Generation not configured"
// @Router      /ai/history [get]
func (h *Handlers) History(c *gin.Context) {
	rec, fromCache, err := h.recSvc.History(c.Request.Context(), userID(c))
	if err != nil {
		failGeneration(c, err)
		return
	}

	if fromCache {
		c.JSON(http.StatusOK, HistoryResponse{
			Success: true,
			Source:  "cache",
			Message: "Loaded from previous AI request",
			Data:    toRecommendationPayload(rec, false),
		})
		return
	}
	c.JSON(http.StatusCreated, HistoryResponse{
		Success: true,
		Source:  "generated",
		Message: "No history found. New AI recommendation generated successfully",
		Data:    toRecommendationPayload(rec, true),
	})
}

// DeleteHistory godoc
// @ID          deleteAIHistory
// @Summary     Delete one recommendation history row
// @Tags        AI
// @Produce     json
// @Security    BearerAuth
//
// @Param       id  path  int  true  "AI request ID"  minimum(1)
//
// @Success     200  {object}  handlers.SuccessResponse{data=handlers.DeletedAIRequest}
// @Failure     401  {object}  handlers.ErrorResponse  "Missing token"
// @Failure     403  {object}  handlers.ErrorResponse  "Owned by another user"
// @Failure     404  {object}  handlers.ErrorResponse  "No such history row"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /ai/history/{id} [delete]
func (h *Handlers) DeleteHistory(c *gin.Context) {
	id, valid := parseID(c, "id")
	if !valid {
		return
	}

	if err := h.recSvc.DeleteHistory(c.Request.Context(), userID(c), id); err != nil {
		switch {
		case errors.Is(err, services.ErrRequestNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
		case errors.Is(err, services.ErrNotRequestOwner):
			fail(c, http.StatusForbidden, ErrCodeForbidden, err.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, "AI request successfully deleted", DeletedAIRequest{ID: id})
}
