// Handler wiring.
//
// This file declares the service contracts the HTTP layer consumes and the
// Handlers aggregate that binds them. Handlers are transport-thin: they
// validate input, call application services, and translate results into HTTP
// responses. Business rules live behind the interfaces below.
package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/gamehub/go-game-backend/internal/domain"
	"github.com/gamehub/go-game-backend/internal/http/middleware"
	"github.com/gamehub/go-game-backend/internal/services"
)

//
// Service contracts (context-aware)
//

// AuthService defines the account operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type AuthService interface {
	// Register creates an account and returns the user with a signed token.
	Register(ctx context.Context, name, email, password string) (*domain.User, string, error)
	// Login verifies credentials and returns the user with a fresh token.
	Login(ctx context.Context, email, password string) (*domain.User, string, error)
	// Profile returns the account behind an authenticated user id.
	Profile(ctx context.Context, userID uint) (*domain.User, error)
}

// GameService defines catalog operations consumed by HTTP handlers.
type GameService interface {
	// ListPage returns a filtered page of the catalog and the total count.
	ListPage(ctx context.Context, genre, query string, page, pageSize int) ([]domain.Game, int64, error)
	// Get returns a single game by id.
	Get(ctx context.Context, id uint) (*domain.Game, error)
	// Update applies a partial update and returns the fresh row.
	Update(ctx context.Context, id uint, upd services.GameUpdate) (*domain.Game, error)
}

// FavoriteService defines favorites operations consumed by HTTP handlers.
type FavoriteService interface {
	// List returns the user's favorites, newest first, games preloaded.
	List(ctx context.Context, userID uint) ([]domain.Favorite, error)
	// Add favorites a game for the user.
	Add(ctx context.Context, userID, gameID uint) (*domain.Favorite, error)
	// Remove deletes a favorite.
	Remove(ctx context.Context, userID, gameID uint) error
}

// RecommendationService defines recommendation operations consumed by HTTP
// handlers.
type RecommendationService interface {
	// Generate produces and persists a fresh recommendation.
	Generate(ctx context.Context, userID uint) (*services.Recommendation, error)
	// History serves the cached recommendation or generates one.
	History(ctx context.Context, userID uint) (*services.Recommendation, bool, error)
	// DeleteHistory removes one history row owned by the user.
	DeleteHistory(ctx context.Context, userID, requestID uint) error
}

// Handlers groups HTTP endpoints for auth, the catalog, favorites, and
// recommendations. It depends on abstract service interfaces to keep
// transport concerns separate from business logic.
type Handlers struct {
	authSvc AuthService
	gameSvc GameService
	favSvc  FavoriteService
	recSvc  RecommendationService
}

// New constructs and returns a Handlers instance bound to the given services.
func New(authSvc AuthService, gameSvc GameService, favSvc FavoriteService, recSvc RecommendationService) *Handlers {
	return &Handlers{authSvc: authSvc, gameSvc: gameSvc, favSvc: favSvc, recSvc: recSvc}
}

// userID extracts the authenticated user id placed in the Gin context by the
// auth middleware. Routes registered behind middleware.Auth always have it;
// a zero return means the route was wired without authentication by mistake.
func userID(c *gin.Context) uint {
	id, _ := middleware.UserIDFrom(c)
	return id
}
