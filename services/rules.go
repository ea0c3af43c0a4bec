package services

import (
	"sync/atomic"
	"time"

	"youth-sports-gamification/models"
)

// XPWeights-style tuning for every awardable action.
type ActionRule struct {
	BaseXP   int64
	Cooldown time.Duration
	DailyCap int64 // max XP per local day for this action, 0 = uncapped
}

type Limits struct {
	HourlyMax        int
	SuspiciousHourly int
	DailyMax         int
}

type Multipliers struct {
	GameBase   float64
	GameMax    float64
	StreakBase float64
	StreakMax  float64
	Rarity     map[models.Rarity]float64
}

// Rules is the full tuning surface of the engine.
type Rules struct {
	Limits             Limits
	Actions            map[models.ActionType]ActionRule
	Multipliers        Multipliers
	BadgeLookbackGames int
	StreakLookbackDays int
	Location           *time.Location
}

func DefaultRules() Rules {
	return Rules{
		Limits: Limits{
			HourlyMax:        50,
			SuspiciousHourly: 100,
			DailyMax:         200,
		},
		Actions: map[models.ActionType]ActionRule{
			models.ActionGameLogged:          {BaseXP: 50, Cooldown: 30 * time.Minute, DailyCap: 300},
			models.ActionSkillActivity:       {BaseXP: 15, Cooldown: 5 * time.Minute, DailyCap: 90},
			models.ActionDailyLogin:          {BaseXP: 10, Cooldown: 24 * time.Hour, DailyCap: 10},
			models.ActionStreakMilestone:     {BaseXP: 100, DailyCap: 500},
			models.ActionAchievementUnlocked: {BaseXP: 100},
			models.ActionGoalCompleted:       {BaseXP: 75, DailyCap: 375},
		},
		Multipliers: Multipliers{
			GameBase:   1.0,
			GameMax:    3.0,
			StreakBase: 1.0,
			StreakMax:  5.0,
			Rarity: map[models.Rarity]float64{
				models.RarityCommon:    1,
				models.RarityRare:      1.5,
				models.RarityEpic:      2,
				models.RarityLegendary: 3,
			},
		},
		BadgeLookbackGames: 50,
		StreakLookbackDays: 365,
		Location:           time.Local,
	}
}

func (r Rules) Action(actionType models.ActionType) ActionRule {
	return r.Actions[actionType]
}

func (r Rules) location() *time.Location {
	if r.Location == nil {
		return time.Local
	}
	return r.Location
}

// RuleBook holds the live rules; config reloads swap them atomically.
type RuleBook struct {
	current atomic.Pointer[Rules]
}

func NewRuleBook(rules Rules) *RuleBook {
	rb := &RuleBook{}
	rb.Store(rules)
	return rb
}

func (rb *RuleBook) Load() Rules {
	if r := rb.current.Load(); r != nil {
		return *r
	}
	return DefaultRules()
}

func (rb *RuleBook) Store(rules Rules) {
	rb.current.Store(&rules)
}
