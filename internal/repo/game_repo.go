// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Game model.
//
// Functions:
//
//   - ListGames(ctx, db) -> []domain.Game, error
//     Returns the full catalog ordered by id (prompt grounding).
//
//   - ListGamesByIDs(ctx, db, ids) -> []domain.Game, error
//     Returns the catalog rows matching ids; missing ids are simply absent
//     from the result, never an error.
//
//   - CountGamesFiltered / ListGamesPage
//     Paginated catalog browsing with optional genre and title filters.
//
//   - GetGame(ctx, db, id) -> *domain.Game, error
//     Fetches a single game, or ErrNotFound if missing.
//
//   - UpdateGame(ctx, db, id, fields) -> error
//     Applies a partial update; ErrNotFound when no row matched.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/gamehub/go-game-backend/internal/domain"
)

// GameFilter narrows catalog listings. Zero values mean "no constraint".
type GameFilter struct {
	Genre string // exact match on genre
	Query string // case-insensitive substring match on title
}

func applyGameFilter(q *gorm.DB, f GameFilter) *gorm.DB {
	if f.Genre != "" {
		q = q.Where("genre = ?", f.Genre)
	}
	if f.Query != "" {
		// LIKE is case-insensitive for ASCII in SQLite.
		q = q.Where("title LIKE ?", "%"+f.Query+"%")
	}
	return q
}

// ListGames returns the entire catalog ordered by id ascending. Used by the
// recommendation generator, which needs every (id, title) pair for grounding.
func ListGames(ctx context.Context, db *gorm.DB) ([]domain.Game, error) {
	var out []domain.Game
	err := db.WithContext(ctx).Order("id asc").Find(&out).Error
	return out, err
}

// ListGamesByIDs returns catalog rows whose id is in ids, ordered by id
// ascending. IDs without a matching row are silently absent from the result.
func ListGamesByIDs(ctx context.Context, db *gorm.DB, ids []uint) ([]domain.Game, error) {
	if len(ids) == 0 {
		return []domain.Game{}, nil
	}
	var out []domain.Game
	err := db.WithContext(ctx).Where("id IN ?", ids).Order("id asc").Find(&out).Error
	return out, err
}

// CountGamesFiltered returns the number of catalog rows matching the filter.
func CountGamesFiltered(ctx context.Context, db *gorm.DB, f GameFilter) (int64, error) {
	var total int64
	err := applyGameFilter(db.WithContext(ctx).Model(&domain.Game{}), f).Count(&total).Error
	return total, err
}

// ListGamesPage returns a paginated slice of the catalog matching the filter,
// ordered by id ascending. The caller computes offset and limit.
func ListGamesPage(ctx context.Context, db *gorm.DB, f GameFilter, offset, limit int) ([]domain.Game, error) {
	var out []domain.Game
	err := applyGameFilter(db.WithContext(ctx), f).
		Order("id asc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// GetGame fetches a single game by id, or ErrNotFound if missing.
func GetGame(ctx context.Context, db *gorm.DB, id uint) (*domain.Game, error) {
	var g domain.Game
	if err := db.WithContext(ctx).First(&g, id).Error; err != nil {
		return nil, err
	}
	return &g, nil
}

// UpdateGame applies a partial update to a game row. If no rows are affected
// (game missing), it returns ErrNotFound. On DB error, the raw error is
// returned.
func UpdateGame(ctx context.Context, db *gorm.DB, id uint, fields map[string]any) error {
	res := db.WithContext(ctx).
		Model(&domain.Game{}).
		Where("id = ?", id).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
