package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SuspiciousActivity records a user crossing the audit threshold. It never blocks anything.
type SuspiciousActivity struct {
	ID          string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID      string     `gorm:"index;not null" json:"user_id"`
	ActionType  ActionType `gorm:"type:varchar(64)" json:"action_type"`
	HourlyCount int64      `json:"hourly_count"`
	Threshold   int        `json:"threshold"`
	FlaggedAt   time.Time  `gorm:"index;not null" json:"flagged_at"`
}

func (s *SuspiciousActivity) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
