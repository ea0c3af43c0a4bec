package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// Rarity is a badge tier; it controls the bonus XP multiplier on unlock.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

type BadgeCategory string

const (
	CategoryMilestone   BadgeCategory = "milestone"
	CategoryPerformance BadgeCategory = "performance"
	CategoryConsistency BadgeCategory = "consistency"
	CategoryGoals       BadgeCategory = "goals"
)

// Badge: static config, versioned with the code. Not a table.
type Badge struct {
	ID            string        `json:"id"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	Category      BadgeCategory `json:"category"`
	PositionScope string        `json:"position_scope"` // "all" or an exact position
	Rarity        Rarity        `json:"rarity"`
	Requirements  []Requirement `json:"requirements"`
}

// AppliesTo reports whether the badge is in scope for a player position.
func (b Badge) AppliesTo(position string) bool {
	if b.PositionScope == "" || b.PositionScope == PositionAll {
		return true
	}
	return strings.EqualFold(b.PositionScope, strings.TrimSpace(position))
}

func (b Badge) MarshalJSON() ([]byte, error) {
	type plain Badge
	out := struct {
		plain
		Requirements []RequirementView `json:"requirements"`
	}{plain: plain(b)}
	out.Requirements = make([]RequirementView, 0, len(b.Requirements))
	for _, r := range b.Requirements {
		out.Requirements = append(out.Requirements, ViewRequirement(r))
	}
	return json.Marshal(out)
}

// UserBadge: unlocked instance. One row per (user, badge), never revoked.
type UserBadge struct {
	ID                string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID            string    `gorm:"uniqueIndex:uniq_user_badge,priority:1;not null" json:"user_id"`
	BadgeID           string    `gorm:"uniqueIndex:uniq_user_badge,priority:2;type:varchar(64);not null" json:"badge_id"`
	UnlockedAt        time.Time `gorm:"not null" json:"unlocked_at"`
	TriggeringEventID *string   `gorm:"type:varchar(36)" json:"triggering_event_id,omitempty"`
}

func (ub *UserBadge) BeforeCreate(tx *gorm.DB) error {
	if ub.ID == "" {
		ub.ID = uuid.NewString()
	}
	return nil
}

func newBadge(title, description string, category BadgeCategory, scope string, rarity Rarity, reqs ...Requirement) Badge {
	return Badge{
		ID:            slug.Make(title),
		Title:         title,
		Description:   description,
		Category:      category,
		PositionScope: scope,
		Rarity:        rarity,
		Requirements:  reqs,
	}
}

// BadgeCatalog is the full set of unlockable badges.
var BadgeCatalog = []Badge{
	newBadge("First Whistle", "Logged your first game", CategoryMilestone, PositionAll, RarityCommon,
		ConsecutiveGames{Target: 1}),
	newBadge("Hat Trick", "Scored 3 goals in a single game", CategoryPerformance, PositionAll, RarityRare,
		StatSingleGame{Stat: StatGoals, Target: 3}),
	newBadge("Playmaker", "Made 3 assists in a single game", CategoryPerformance, PositionMidfielder, RarityRare,
		StatSingleGame{Stat: StatAssists, Target: 3}),
	newBadge("Brick Wall", "Made 10 saves in a single game", CategoryPerformance, PositionGoalkeeper, RarityEpic,
		StatSingleGame{Stat: StatSaves, Target: 10}),
	newBadge("Golden Gloves", "Kept a save percentage of 80% across 10 games", CategoryPerformance, PositionGoalkeeper, RarityLegendary,
		StatPercentage{Stat: StatSavePercentage, Target: 80},
		ConsecutiveGames{Target: 10}),
	newBadge("Sharpshooter", "Scored 20 goals this season", CategoryPerformance, PositionForward, RarityEpic,
		StatTotal{Stat: StatGoals, Target: 20}),
	newBadge("Defensive Anchor", "Made 50 tackles this season", CategoryPerformance, PositionDefender, RarityRare,
		StatTotal{Stat: StatTackles, Target: 50}),
	newBadge("Complete Player", "10 goals and 10 assists this season", CategoryPerformance, PositionAll, RarityEpic,
		StatTotal{Stat: StatGoals, Target: 10},
		StatTotal{Stat: StatAssists, Target: 10}),
	newBadge("Ironman", "Played 10 games in a row", CategoryConsistency, PositionAll, RarityRare,
		ConsecutiveGames{Target: 10}),
	newBadge("Season Veteran", "Played 25 games in a row", CategoryConsistency, PositionAll, RarityEpic,
		ConsecutiveGames{Target: 25}),
	newBadge("Goal Getter", "Completed a season goal", CategoryGoals, PositionAll, RarityRare,
		SeasonGoalsCompleted{Target: 1}),
	newBadge("Overachiever", "Completed 3 season goals", CategoryGoals, PositionAll, RarityLegendary,
		SeasonGoalsCompleted{Target: 3}),
}
