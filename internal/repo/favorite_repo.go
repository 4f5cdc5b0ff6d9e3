// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Favorite
// model, including the bounded "recent favorites" window consumed by the
// recommendation generator.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/gamehub/go-game-backend/internal/domain"
)

// CreateFavorite inserts a favorite row linking userID to gameID.
// The unique (user_id, game_id) index rejects duplicates with a DB error.
func CreateFavorite(ctx context.Context, db *gorm.DB, userID, gameID uint) (*domain.Favorite, error) {
	f := &domain.Favorite{
		UserID:    userID,
		GameID:    gameID,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(f).Error; err != nil {
		return nil, err
	}
	return f, nil
}

// ListFavorites returns all favorites for userID with their games preloaded,
// ordered by creation time descending (most recent first).
func ListFavorites(ctx context.Context, db *gorm.DB, userID uint) ([]domain.Favorite, error) {
	var out []domain.Favorite
	err := db.WithContext(ctx).
		Preload("Game").
		Where("user_id = ?", userID).
		Order("created_at desc").
		Order("id desc").
		Find(&out).Error
	return out, err
}

// ListRecentFavorites returns up to limit favorites for userID, newest first,
// with games preloaded. This is the bounded window the recommendation prompt
// is built from.
func ListRecentFavorites(ctx context.Context, db *gorm.DB, userID uint, limit int) ([]domain.Favorite, error) {
	var out []domain.Favorite
	q := db.WithContext(ctx).
		Preload("Game").
		Where("user_id = ?", userID).
		Order("created_at desc").
		Order("id desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

// GetFavorite fetches the favorite linking userID to gameID, or ErrNotFound.
func GetFavorite(ctx context.Context, db *gorm.DB, userID, gameID uint) (*domain.Favorite, error) {
	var f domain.Favorite
	err := db.WithContext(ctx).
		Where("user_id = ? AND game_id = ?", userID, gameID).
		First(&f).Error
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// DeleteFavorite removes the favorite linking userID to gameID. If no rows
// are affected, it returns ErrNotFound.
func DeleteFavorite(ctx context.Context, db *gorm.DB, userID, gameID uint) error {
	res := db.WithContext(ctx).
		Where("user_id = ? AND game_id = ?", userID, gameID).
		Delete(&domain.Favorite{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
