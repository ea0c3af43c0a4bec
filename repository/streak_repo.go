package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"youth-sports-gamification/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StreakRepository caches derived streak state per (user, activity).
type StreakRepository struct {
	db *gorm.DB
}

func NewStreakRepository(db *gorm.DB) *StreakRepository {
	return &StreakRepository{db: db}
}

func (r *StreakRepository) Get(ctx context.Context, userID, activityType string) (*models.StreakState, error) {
	var state models.StreakState
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND activity_type = ?", userID, activityType).
		First(&state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query streak: %w", err)
	}
	return &state, nil
}

// Upsert overwrites the cached state (last write wins).
func (r *StreakRepository) Upsert(ctx context.Context, state *models.StreakState) error {
	if state.LastActivityDate != nil {
		utc := state.LastActivityDate.UTC()
		state.LastActivityDate = &utc
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "activity_type"}},
			DoUpdates: clause.AssignmentColumns([]string{"current_streak", "longest_streak", "last_activity_date", "is_active", "updated_at"}),
		}).
		Create(state).Error
	if err != nil {
		return fmt.Errorf("upsert streak: %w", err)
	}
	return nil
}

func (r *StreakRepository) ListByUser(ctx context.Context, userID string) ([]models.StreakState, error) {
	var states []models.StreakState
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("activity_type ASC").
		Find(&states).Error; err != nil {
		return nil, fmt.Errorf("query streaks: %w", err)
	}
	return states, nil
}

// DeactivateStale zeroes every active streak whose last day is before cutoff.
func (r *StreakRepository) DeactivateStale(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.StreakState{}).
		Where("is_active = ? AND last_activity_date < ?", true, cutoff.UTC()).
		Updates(map[string]interface{}{"current_streak": 0, "is_active": false})
	if res.Error != nil {
		return 0, fmt.Errorf("deactivate stale streaks: %w", res.Error)
	}
	return res.RowsAffected, nil
}
