package repository

import (
	"context"
	"fmt"

	"youth-sports-gamification/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BadgeRepository struct {
	db *gorm.DB
}

func NewBadgeRepository(db *gorm.DB) *BadgeRepository {
	return &BadgeRepository{db: db}
}

func (r *BadgeRepository) ListUnlocked(ctx context.Context, userID string) ([]models.UserBadge, error) {
	var badges []models.UserBadge
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("unlocked_at ASC").
		Find(&badges).Error; err != nil {
		return nil, fmt.Errorf("query user badges: %w", err)
	}
	return badges, nil
}

// Insert writes the unlock once. A duplicate (user, badge) is a no-op that reports false.
func (r *BadgeRepository) Insert(ctx context.Context, badge *models.UserBadge) (bool, error) {
	badge.UnlockedAt = badge.UnlockedAt.UTC()
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(badge)
	if res.Error != nil {
		return false, fmt.Errorf("insert user badge: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}
