// Favorites HTTP handlers.
//
// This file exposes REST endpoints for the user's favorite list:
//   - GET    /favorites           (list, games preloaded)
//   - POST   /favorites/{gameId}  (add)
//   - DELETE /favorites/{gameId}  (remove)
//
// All routes require authentication; the favorite list is always scoped to
// the token's user.
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
)

// ListFavoritesResponse wraps the favorite list with its length. The total
// sits beside the envelope fields so data stays a bare array.
type ListFavoritesResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    []domain.Favorite `json:"data"`
	Total   int               `json:"total"`
}

// RemovedFavorite echoes the deleted association.
type RemovedFavorite struct {
	GameID uint `json:"gameId" example:"7"`
	UserID uint `json:"userId" example:"42"`
}

// ListFavorites godoc
// @ID          listFavorites
// @Summary     List the user's favorites
// @Tags        Favorites
// @Produce     json
// @Security    BearerAuth
//
// @Success     200  {object}  handlers.ListFavoritesResponse
// @Header      200  {string}  ETag "Weak ETag for the user's current list"
// @Success     304  {string}  string "Not Modified"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing token"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /favorites [get]
func (h *Handlers) ListFavorites(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)

	// ETag pre-check (best effort), keyed per user.
	var db *gorm.DB
	if svc, isConcrete := h.favSvc.(*services.FavoriteService); isConcrete {
		db = svc.DB
	}
	if db != nil {
		count, maxTS, err := repo.FavoritesStats(ctx, db, uid)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"favorites:%d:%d:%d"`, uid, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	favs, err := h.favSvc.List(ctx, uid)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	c.JSON(http.StatusOK, ListFavoritesResponse{
		Success: true,
		Message: "User's favorite list successfully retrieved.",
		Data:    favs,
		Total:   len(favs),
	})
}

// AddFavorite godoc
// @ID          addFavorite
// @Summary     Add a game to favorites
// @Tags        Favorites
// @Produce     json
// @Security    BearerAuth
//
// @Param       gameId  path  int  true  "Game ID"  minimum(1)
//
// @Success     201  {object}  handlers.SuccessResponse{data=domain.Favorite}
// @Failure     400  {object}  handlers.ErrorResponse  "Already favorited"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing token"
// @Failure     404  {object}  handlers.ErrorResponse  "Game not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /favorites/{gameId} [post]
func (h *Handlers) AddFavorite(c *gin.Context) {
	gameID, valid := parseID(c, "gameId")
	if !valid {
		return
	}

	fav, err := h.favSvc.Add(c.Request.Context(), userID(c), gameID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrGameNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
		case errors.Is(err, services.ErrDuplicateFavorite):
			fail(c, http.StatusBadRequest, ErrCodeConflict, err.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusCreated, "Game successfully added to favorites.", fav)
}

// RemoveFavorite godoc
// @ID          removeFavorite
// @Summary     Remove a game from favorites
// @Tags        Favorites
// @Produce     json
// @Security    BearerAuth
//
// @Param       gameId  path  int  true  "Game ID"  minimum(1)
//
// @Success     200  {object}  handlers.SuccessResponse{data=handlers.RemovedFavorite}
// @Failure     401  {object}  handlers.ErrorResponse  "Missing token"
// @Failure     404  {object}  handlers.ErrorResponse  "Favorite not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /favorites/{gameId} [delete]
func (h *Handlers) RemoveFavorite(c *gin.Context) {
	gameID, valid := parseID(c, "gameId")
	if !valid {
		return
	}

	uid := userID(c)
	if err := h.favSvc.Remove(c.Request.Context(), uid, gameID); err != nil {
		if errors.Is(err, services.ErrFavoriteNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, "Game successfully removed from favorites.", RemovedFavorite{GameID: gameID, UserID: uid})
}
