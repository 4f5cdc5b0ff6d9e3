// Package services – FavoriteService
//
// This file implements the FavoriteService, which manages the user-to-game
// favorite associations. It validates that the game exists, rejects
// duplicates, and exposes the recency-ordered listing the UI renders.
// Favorites mutations are the trigger for the client-side background
// recommendation refresh, but that refresh is deliberately not this
// service's concern: add/remove return as soon as the row is written.
package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/gamehub/go-game-backend/internal/domain"
	"github.com/gamehub/go-game-backend/internal/repo"
)

// FavoriteService implements the use-cases around user favorites.
type FavoriteService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
}

// NewFavoriteService constructs a FavoriteService.
func NewFavoriteService(db *gorm.DB) *FavoriteService {
	return &FavoriteService{DB: db}
}

// List returns all favorites for userID with games preloaded, newest first.
func (s *FavoriteService) List(ctx context.Context, userID uint) ([]domain.Favorite, error) {
	return repo.ListFavorites(ctx, s.DB, userID)
}

// Add favorites gameID for userID.
//
// Semantics and validation:
//   - gameID must exist in the catalog; otherwise ErrGameNotFound.
//   - The pair must not already exist; otherwise ErrDuplicateFavorite.
//
// The existence check and the insert run in one transaction so a concurrent
// duplicate insert surfaces as the unique-constraint violation rather than
// a race on the pre-check.
func (s *FavoriteService) Add(ctx context.Context, userID, gameID uint) (*domain.Favorite, error) {
	var fav *domain.Favorite
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := repo.GetGame(ctx, tx, gameID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrGameNotFound
			}
			return err
		}

		if _, err := repo.GetFavorite(ctx, tx, userID, gameID); err == nil {
			return ErrDuplicateFavorite
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		f, err := repo.CreateFavorite(ctx, tx, userID, gameID)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateFavorite
			}
			return err
		}
		fav = f
		return nil
	})
	if err != nil {
		return nil, err
	}
	return fav, nil
}

// Remove deletes the favorite linking userID to gameID, or returns
// ErrFavoriteNotFound when no such favorite exists.
func (s *FavoriteService) Remove(ctx context.Context, userID, gameID uint) error {
	if err := repo.DeleteFavorite(ctx, s.DB, userID, gameID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrFavoriteNotFound
		}
		return err
	}
	return nil
}

// isUniqueViolation attempts to detect unique-constraint violations across
// drivers that may not map to gorm.ErrDuplicatedKey.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// SQLite typically: "UNIQUE constraint failed"
	// Postgres typically: "duplicate key value violates unique constraint"
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key")
}
