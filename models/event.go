package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ActionType names a user-facing action that can earn XP or extend a streak.
type ActionType string

const (
	ActionGameLogged          ActionType = "game_logged"
	ActionSkillActivity       ActionType = "skill_activity"
	ActionDailyLogin          ActionType = "daily_login"
	ActionStreakMilestone     ActionType = "streak_milestone"
	ActionAchievementUnlocked ActionType = "achievement_unlocked"
	ActionGoalCompleted       ActionType = "goal_completed"
)

// activityPrefix namespaces day-keyed streak logs inside the shared event log.
const activityPrefix = "activity:"

// ActivityActionType maps a skill activity (e.g. "dribbling") onto its event-log action type.
func ActivityActionType(activityType string) ActionType {
	return ActionType(activityPrefix + activityType)
}

// ActionEvent is one row of the append-only event log. Never updated, never deleted.
// DayKey is only set for per-day activity logs; the unique index on
// (user_id, action_type, day_key) makes "already logged today" a single insert.
type ActionEvent struct {
	ID         string            `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID     string            `gorm:"index:idx_event_user_time,priority:1;uniqueIndex:uniq_event_day,priority:1;not null" json:"user_id"`
	ActionType ActionType        `gorm:"type:varchar(64);index;uniqueIndex:uniq_event_day,priority:2;not null" json:"action_type"`
	Timestamp  time.Time         `gorm:"index:idx_event_user_time,priority:2;not null" json:"timestamp"`
	Amount     *int64            `json:"amount,omitempty"`
	DayKey     *string           `gorm:"type:varchar(10);uniqueIndex:uniq_event_day,priority:3" json:"day_key,omitempty"`
	Metadata   datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
}

func (e *ActionEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

// XPAward is written exactly once per successful award call.
type XPAward struct {
	ID         string            `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID     string            `gorm:"index:idx_award_user_action,priority:1;not null" json:"user_id"`
	ActionType ActionType        `gorm:"type:varchar(64);index:idx_award_user_action,priority:2;not null" json:"action_type"`
	Amount     int64             `gorm:"not null" json:"amount"`
	Timestamp  time.Time         `gorm:"index:idx_award_user_action,priority:3;not null" json:"timestamp"`
	SessionID  string            `gorm:"type:varchar(36)" json:"session_id"`
	Metadata   datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
}

func (a *XPAward) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
