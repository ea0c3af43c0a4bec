package models

import "time"

// StreakState is a cache of what the event log says about one activity type.
// It is never authoritative and is recomputed on every new log.
type StreakState struct {
	ID               uint       `gorm:"primaryKey" json:"-"`
	UserID           string     `gorm:"uniqueIndex:uniq_streak_user_activity,priority:1;not null" json:"user_id"`
	ActivityType     string     `gorm:"uniqueIndex:uniq_streak_user_activity,priority:2;not null" json:"activity_type"`
	Current          int        `gorm:"column:current_streak" json:"current"`
	Longest          int        `gorm:"column:longest_streak" json:"longest"`
	LastActivityDate *time.Time `json:"last_activity_date,omitempty"`
	IsActive         bool       `gorm:"index" json:"is_active"`
	UpdatedAt        time.Time  `json:"updated_at"`
}
