package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	PositionAll        = "all"
	PositionGoalkeeper = "goalkeeper"
	PositionDefender   = "defender"
	PositionMidfielder = "midfielder"
	PositionForward    = "forward"
)

// Common stat keys recorded on a game.
const (
	StatGoals          = "goals"
	StatAssists        = "assists"
	StatSaves          = "saves"
	StatShotsAgainst   = "shots_against"
	StatShots          = "shots"
	StatTackles        = "tackles"
	StatMinutesPlayed  = "minutes_played"
	StatCleanSheets    = "clean_sheets"
	StatSavePercentage = "save_percentage" // derived: saves / shots_against × 100
)

// GameRecord is a logged game with its per-player stat line. It is written by the
// game logging flow; the gamification engine only reads it.
type GameRecord struct {
	ID        string             `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID    string             `gorm:"index:idx_game_user_played,priority:1;not null" json:"user_id"`
	Position  string             `gorm:"type:varchar(32)" json:"position"`
	Opponent  string             `json:"opponent"`
	PlayedAt  time.Time          `gorm:"index:idx_game_user_played,priority:2;not null" json:"played_at"`
	Stats     map[string]float64 `gorm:"serializer:json" json:"stats"`
	CreatedAt time.Time          `gorm:"autoCreateTime" json:"created_at"`
}

func (g *GameRecord) BeforeCreate(tx *gorm.DB) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	return nil
}

// Stat returns the value of a stat or 0 when it was not recorded.
func (g *GameRecord) Stat(key string) float64 {
	if g == nil || g.Stats == nil {
		return 0
	}
	return g.Stats[key]
}
