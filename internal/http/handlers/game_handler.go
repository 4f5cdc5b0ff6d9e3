// Catalog HTTP handlers.
//
// This file exposes REST endpoints for the game catalog:
//   - GET /games       (list, paginated, genre/title filters, ETag support)
//   - GET /games/{id}  (detail)
//   - PUT /games/{id}  (partial update, authenticated)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses (including conditional responses).
package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/gamehub/go-game-backend/internal/domain"
	"github.com/gamehub/go-game-backend/internal/repo"
	"github.com/gamehub/go-game-backend/internal/services"
	"github.com/gamehub/go-game-backend/internal/utils"
)

//
// DTOs
//

// Pagination carries pagination metadata for catalog list responses.
type Pagination struct {
	CurrentPage  int   `json:"currentPage"`
	TotalPages   int   `json:"totalPages"`
	TotalItems   int64 `json:"totalItems"`
	ItemsPerPage int   `json:"itemsPerPage"`
	HasNextPage  bool  `json:"hasNextPage"`
}

// ListGamesResponse wraps a page of games and pagination information.
// Pagination sits beside the envelope fields rather than inside data so
// clients can consume data as a bare array.
type ListGamesResponse struct {
	Success    bool          `json:"success"`
	Message    string        `json:"message"`
	Data       []domain.Game `json:"data"`
	Pagination Pagination    `json:"pagination"`
}

// UpdateGameRequest is the JSON payload for a partial catalog update.
// Absent fields leave the corresponding column untouched.
type UpdateGameRequest struct {
	Title       *string `json:"title" example:"Hollow Knight"`
	Genre       *string `json:"genre" example:"Metroidvania"`
	Platform    *string `json:"platform" example:"PC"`
	Publisher   *string `json:"publisher" example:"Team Cherry"`
	Thumbnail   *string `json:"thumbnail" example:"https://cdn.example.com/hk.jpg"`
	Description *string `json:"description"`
}

//
// Helpers
//

// clampPagination parses and bounds page and limit query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 12
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("limit"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// parseID parses a positive numeric path parameter.
func parseID(c *gin.Context, name string) (uint, bool) {
	n := utils.AtoiDefault(c.Param(name), 0)
	if n <= 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, name+" must be a positive integer")
		return 0, false
	}
	return uint(n), true
}

//
// Handlers
//

// ListGames godoc
// @ID          listGames
// @Summary     List games (paginated)
// @Description Returns a page of the catalog. Supports genre and title filters and weak ETag via If-None-Match.
// @Tags        Games
// @Produce     json
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"abc123\")
// @Param       genre          query   string  false "Filter by exact genre"       example(RPG)
// @Param       q              query   string  false "Search by title substring"   example(zelda)
// @Param       page           query   int     false "Page number"                 minimum(1) default(1)
// @Param       limit          query   int     false "Items per page"              minimum(1) maximum(100) default(12)
//
// @Success     200  {object} handlers.ListGamesResponse
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /games [get]
func (h *Handlers) ListGames(c *gin.Context) {
	ctx := c.Request.Context()
	page, pageSize := clampPagination(c)
	genre := c.Query("genre")
	query := c.Query("q")

	// ETag pre-check (best effort). Filters are folded into the tag so a
	// cached filtered page never answers an unfiltered request.
	var db *gorm.DB
	if svc, isConcrete := h.gameSvc.(*services.GameService); isConcrete {
		db = svc.DB
	}
	if db != nil {
		count, maxTS, err := repo.GamesStats(ctx, db)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"games:%s:%s:%d:%d:%d:%d"`, genre, query, page, pageSize, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	items, total, err := h.gameSvc.ListPage(ctx, genre, query, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	c.JSON(http.StatusOK, ListGamesResponse{
		Success: true,
		Message: "Games successfully retrieved.",
		Data:    items,
		Pagination: Pagination{
			CurrentPage:  page,
			TotalPages:   totalPages,
			TotalItems:   total,
			ItemsPerPage: pageSize,
			HasNextPage:  page < totalPages,
		},
	})
}

// GetGame godoc
// @ID          getGame
// @Summary     Get game details
// @Tags        Games
// @Produce     json
//
// @Param       id  path  int  true  "Game ID"  minimum(1)
//
// @Success     200  {object}  handlers.SuccessResponse{data=domain.Game}
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Game not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /games/{id} [get]
func (h *Handlers) GetGame(c *gin.Context) {
	id, valid := parseID(c, "id")
	if !valid {
		return
	}

	g, err := h.gameSvc.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrGameNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, "Game details successfully retrieved.", g)
}

// UpdateGame godoc
// @ID          updateGame
// @Summary     Update a game
// @Description Applies a partial update to a catalog entry and returns the fresh row.
// @Tags        Games
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       id    path  int                          true  "Game ID"  minimum(1)
// @Param       body  body  handlers.UpdateGameRequest   true  "Fields to update"
//
// @Success     200  {object}  handlers.SuccessResponse{data=domain.Game}
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing token"
// @Failure     404  {object}  handlers.ErrorResponse  "Game not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /games/{id} [put]
func (h *Handlers) UpdateGame(c *gin.Context) {
	id, valid := parseID(c, "id")
	if !valid {
		return
	}

	var req UpdateGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	g, err := h.gameSvc.Update(c.Request.Context(), id, services.GameUpdate{
		Title:       req.Title,
		Genre:       req.Genre,
		Platform:    req.Platform,
		Publisher:   req.Publisher,
		Thumbnail:   req.Thumbnail,
		Description: req.Description,
	})
	if err != nil {
		if errors.Is(err, services.ErrGameNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, "Game updated successfully.", g)
}
