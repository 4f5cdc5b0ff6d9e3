// Package services – GameService
//
// This file implements the GameService, which serves the browsable catalog:
// paginated listings with genre/title filters, detail lookup, and the admin
// update operation. It applies defaults for invalid page/pageSize and keeps
// ordering deterministic so pagination is stable across requests.
package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/gamehub/go-game-backend/internal/domain"
	"github.com/gamehub/go-game-backend/internal/repo"
)

// GameUpdate carries the mutable catalog fields for an admin update.
// Nil pointers leave the corresponding column untouched.
type GameUpdate struct {
	Title       *string
	Genre       *string
	Platform    *string
	Publisher   *string
	Thumbnail   *string
	Description *string
}

// GameService provides read access to the catalog plus the admin update.
type GameService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
}

// NewGameService constructs a GameService.
func NewGameService(db *gorm.DB) *GameService {
	return &GameService{DB: db}
}

// ListPage returns a page of the catalog matching the optional genre and
// title filters, plus the total count for pagination metadata.
func (s *GameService) ListPage(ctx context.Context, genre, query string, page, pageSize int) ([]domain.Game, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 12
	}
	offset := (page - 1) * pageSize

	f := repo.GameFilter{Genre: strings.TrimSpace(genre), Query: strings.TrimSpace(query)}

	total, err := repo.CountGamesFiltered(ctx, s.DB, f)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Game{}, 0, nil
	}

	items, err := repo.ListGamesPage(ctx, s.DB, f, offset, pageSize)
	return items, total, err
}

// Get returns a single game by id, or ErrGameNotFound.
func (s *GameService) Get(ctx context.Context, id uint) (*domain.Game, error) {
	g, err := repo.GetGame(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, err
	}
	return g, nil
}

// Update applies a partial update to a catalog entry and returns the fresh
// row. An update with no fields set is a no-op read.
func (s *GameService) Update(ctx context.Context, id uint, upd GameUpdate) (*domain.Game, error) {
	fields := map[string]any{}
	if upd.Title != nil {
		fields["title"] = strings.TrimSpace(*upd.Title)
	}
	if upd.Genre != nil {
		fields["genre"] = strings.TrimSpace(*upd.Genre)
	}
	if upd.Platform != nil {
		fields["platform"] = strings.TrimSpace(*upd.Platform)
	}
	if upd.Publisher != nil {
		fields["publisher"] = strings.TrimSpace(*upd.Publisher)
	}
	if upd.Thumbnail != nil {
		fields["thumbnail"] = strings.TrimSpace(*upd.Thumbnail)
	}
	if upd.Description != nil {
		fields["description"] = *upd.Description
	}

	if len(fields) > 0 {
		if err := repo.UpdateGame(ctx, s.DB, id, fields); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrGameNotFound
			}
			return nil, err
		}
	}
	return s.Get(ctx, id)
}
