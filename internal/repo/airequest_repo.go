// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the AIRequest
// model, the append-only recommendation history.
//
// Rows are only ever inserted by the generator and deleted by their owner;
// the newest row per user is the de facto recommendation cache. There is no
// update path on purpose: concurrent generations may append duplicate rows
// and "latest wins" reads tolerate that without locking.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/gamehub/go-game-backend/internal/domain"
)

// CreateAIRequest inserts a new recommendation history row for userID.
// Response is the JSON-serialized array of recommended game IDs.
func CreateAIRequest(ctx context.Context, db *gorm.DB, userID uint, prompt, response string) (*domain.AIRequest, error) {
	r := &domain.AIRequest{
		UserID:    userID,
		Prompt:    prompt,
		Response:  response,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(r).Error; err != nil {
		return nil, err
	}
	return r, nil
}

// LatestAIRequest returns the newest history row for userID, or ErrNotFound
// when the user has no history.
func LatestAIRequest(ctx context.Context, db *gorm.DB, userID uint) (*domain.AIRequest, error) {
	var r domain.AIRequest
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc, id desc").
		First(&r).Error
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// GetAIRequest fetches a history row by primary key regardless of owner.
// Ownership checks belong to the service layer, which needs to distinguish
// "missing" (404) from "not yours" (403).
func GetAIRequest(ctx context.Context, db *gorm.DB, id uint) (*domain.AIRequest, error) {
	var r domain.AIRequest
	if err := db.WithContext(ctx).First(&r, id).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

// DeleteAIRequest removes a history row by primary key. If no rows are
// affected, it returns ErrNotFound.
func DeleteAIRequest(ctx context.Context, db *gorm.DB, id uint) error {
	res := db.WithContext(ctx).Delete(&domain.AIRequest{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
