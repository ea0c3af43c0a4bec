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

// XPRepository owns XP awards and the per-user progress counter.
type XPRepository struct {
	db *gorm.DB
}

func NewXPRepository(db *gorm.DB) *XPRepository {
	return &XPRepository{db: db}
}

// EnsureProgress ensures a UserProgress row exists (idempotent)
func (r *XPRepository) EnsureProgress(ctx context.Context, userID string) (*models.UserProgress, error) {
	if err := ensureProgressRow(r.db.WithContext(ctx), userID); err != nil {
		return nil, err
	}
	return r.GetProgress(ctx, userID)
}

// GetProgress returns the progress row or nil when the user has none yet.
func (r *XPRepository) GetProgress(ctx context.Context, userID string) (*models.UserProgress, error) {
	var prog models.UserProgress
	err := r.db.WithContext(ctx).Where("external_user_id = ?", userID).First(&prog).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query progress: %w", err)
	}
	return &prog, nil
}

// RecordAward writes the award row, its event-log entry and the counter increment
// as one unit, and returns the new total.
func (r *XPRepository) RecordAward(ctx context.Context, award *models.XPAward, event *models.ActionEvent) (int64, error) {
	if award.Amount <= 0 {
		return 0, fmt.Errorf("refusing non-positive award of %d", award.Amount)
	}
	award.Timestamp = award.Timestamp.UTC()
	if event != nil {
		event.Timestamp = event.Timestamp.UTC()
	}

	var total int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureProgressRow(tx, award.UserID); err != nil {
			return err
		}
		if err := tx.Create(award).Error; err != nil {
			return fmt.Errorf("insert award: %w", err)
		}
		if event != nil {
			if err := tx.Create(event).Error; err != nil {
				return fmt.Errorf("insert award event: %w", err)
			}
		}
		if err := incrementXP(tx, award.UserID, award.Amount); err != nil {
			return err
		}
		return tx.Model(&models.UserProgress{}).
			Select("total_xp").
			Where("external_user_id = ?", award.UserID).
			Scan(&total).Error
	})
	if err != nil {
		return 0, fmt.Errorf("record award: %w", err)
	}
	return total, nil
}

// SumAwardedSince totals XP already awarded for one action type since a point in time.
func (r *XPRepository) SumAwardedSince(ctx context.Context, userID string, actionType models.ActionType, since time.Time) (int64, error) {
	var sum int64
	err := r.db.WithContext(ctx).
		Model(&models.XPAward{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id = ? AND action_type = ? AND timestamp >= ?", userID, actionType, since.UTC()).
		Scan(&sum).Error
	if err != nil {
		return 0, fmt.Errorf("sum awards: %w", err)
	}
	return sum, nil
}

// RaiseLevel moves level and rank forward only; concurrent callers can never lower them.
func (r *XPRepository) RaiseLevel(ctx context.Context, userID string, level, rank int, at time.Time) error {
	db := r.db.WithContext(ctx).Model(&models.UserProgress{})
	if err := db.Where("external_user_id = ? AND level < ?", userID, level).
		Updates(map[string]interface{}{"level": level, "last_level_up_at": at.UTC()}).Error; err != nil {
		return fmt.Errorf("update level: %w", err)
	}
	if err := r.db.WithContext(ctx).Model(&models.UserProgress{}).
		Where("external_user_id = ? AND rank < ?", userID, rank).
		Updates(map[string]interface{}{"rank": rank, "last_rank_up_at": at.UTC()}).Error; err != nil {
		return fmt.Errorf("update rank: %w", err)
	}
	return nil
}

func ensureProgressRow(db *gorm.DB, userID string) error {
	prog := models.UserProgress{ExternalUserID: userID, Level: 1, Rank: 1}
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_user_id"}},
		DoNothing: true,
	}).Create(&prog).Error; err != nil {
		return fmt.Errorf("ensure progress: %w", err)
	}
	return nil
}

func incrementXP(db *gorm.DB, userID string, delta int64) error {
	res := db.Model(&models.UserProgress{}).
		Where("external_user_id = ?", userID).
		UpdateColumn("total_xp", gorm.Expr("total_xp + ?", delta))
	if res.Error != nil {
		return fmt.Errorf("increment xp: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("progress record not found for %s", userID)
	}
	return nil
}
