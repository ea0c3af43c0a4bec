package repository

import (
	"context"
	"fmt"
	"time"

	"youth-sports-gamification/models"

	"gorm.io/gorm"
)

// AuditRepository stores suspicious-activity flags raised by the rate limiter.
type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Flag(ctx context.Context, flag *models.SuspiciousActivity) error {
	flag.FlaggedAt = flag.FlaggedAt.UTC()
	if err := r.db.WithContext(ctx).Create(flag).Error; err != nil {
		return fmt.Errorf("insert audit flag: %w", err)
	}
	return nil
}

// ListBetween returns flags in [from, to), oldest first.
func (r *AuditRepository) ListBetween(ctx context.Context, from, to time.Time) ([]models.SuspiciousActivity, error) {
	var flags []models.SuspiciousActivity
	if err := r.db.WithContext(ctx).
		Where("flagged_at >= ? AND flagged_at < ?", from.UTC(), to.UTC()).
		Order("flagged_at ASC").
		Find(&flags).Error; err != nil {
		return nil, fmt.Errorf("query audit flags: %w", err)
	}
	return flags, nil
}
