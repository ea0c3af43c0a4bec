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

// EventRepository is the append-only action event log.
type EventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Append inserts an event. It reports false when the (user, action, day) key
// already exists, which is how a second log on the same day is detected.
func (r *EventRepository) Append(ctx context.Context, event *models.ActionEvent) (bool, error) {
	event.Timestamp = event.Timestamp.UTC()
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(event)
	if res.Error != nil {
		return false, fmt.Errorf("append event: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Latest returns the most recent event of a type for the user, or nil.
func (r *EventRepository) Latest(ctx context.Context, userID string, actionType models.ActionType) (*models.ActionEvent, error) {
	var event models.ActionEvent
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND action_type = ?", userID, actionType).
		Order("timestamp DESC").
		First(&event).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query latest event: %w", err)
	}
	return &event, nil
}

// CountSince counts every event the user produced at or after since.
func (r *EventRepository) CountSince(ctx context.Context, userID string, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ActionEvent{}).
		Where("user_id = ? AND timestamp >= ?", userID, since.UTC()).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return count, nil
}

// ListByType returns events of one type at or after since, newest first.
func (r *EventRepository) ListByType(ctx context.Context, userID string, actionType models.ActionType, since time.Time, limit int) ([]models.ActionEvent, error) {
	var events []models.ActionEvent
	q := r.db.WithContext(ctx).
		Where("user_id = ? AND action_type = ? AND timestamp >= ?", userID, actionType, since.UTC()).
		Order("timestamp DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&events).Error; err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	return events, nil
}
