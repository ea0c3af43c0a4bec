package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SeasonGoal is a user-set numeric target for one stat.
type SeasonGoal struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID    string    `gorm:"index;not null" json:"user_id"`
	StatType  string    `gorm:"type:varchar(64);not null" json:"stat_type"`
	Target    float64   `gorm:"not null" json:"target"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (g *SeasonGoal) BeforeCreate(tx *gorm.DB) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	return nil
}

// GoalProgress is derived on demand and never persisted.
type GoalProgress struct {
	Goal        SeasonGoal `json:"goal"`
	Current     float64    `json:"current"`
	Percentage  int        `json:"percentage"`
	IsCompleted bool       `json:"is_completed"`
}
