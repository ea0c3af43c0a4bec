package config

import (
	"time"

	"youth-sports-gamification/models"
	"youth-sports-gamification/services"
)

// Location resolves app.timezone, falling back to the host zone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Rules turns the gamification section into engine rules.
func (c *Config) Rules() services.Rules {
	g := c.Gamification
	rules := services.Rules{
		Limits: services.Limits{
			HourlyMax:        g.HourlyMax,
			SuspiciousHourly: g.SuspiciousHourly,
			DailyMax:         g.DailyMax,
		},
		Actions: make(map[models.ActionType]services.ActionRule, len(g.Actions)),
		Multipliers: services.Multipliers{
			GameBase:   g.Multipliers.GameBase,
			GameMax:    g.Multipliers.GameMax,
			StreakBase: g.Multipliers.StreakBase,
			StreakMax:  g.Multipliers.StreakMax,
			Rarity:     make(map[models.Rarity]float64, len(g.Multipliers.Rarity)),
		},
		BadgeLookbackGames: g.BadgeLookbackGames,
		StreakLookbackDays: g.StreakLookbackDays,
		Location:           c.Location(),
	}
	for name, a := range g.Actions {
		rules.Actions[models.ActionType(name)] = services.ActionRule{
			BaseXP:   a.BaseXP,
			Cooldown: a.Cooldown,
			DailyCap: a.DailyCap,
		}
	}
	for rarity, m := range g.Multipliers.Rarity {
		rules.Multipliers.Rarity[models.Rarity(rarity)] = m
	}
	return rules
}
