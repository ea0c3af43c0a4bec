package services

import (
	"fmt"
	"strconv"
	"strings"

	"youth-sports-gamification/models"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Streak lengths that pay a milestone bonus and get their own message.
var StreakMilestones = []int{7, 30}

func isMilestone(n int) bool {
	for _, m := range StreakMilestones {
		if n == m {
			return true
		}
	}
	return false
}

// displayName turns "shots_against" into "Shots Against". Casers keep state,
// so each call builds its own.
func displayName(key string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(key, "_", " "))
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func badgeNotification(b models.Badge) string {
	return fmt.Sprintf("🏅 Badge unlocked: %s! %s", b.Title, b.Description)
}

func goalNotification(gp models.GoalProgress) string {
	return fmt.Sprintf("🎯 Season goal complete: %s %s!", formatNumber(gp.Goal.Target), displayName(gp.Goal.StatType))
}

func streakNotification(activityType string, days int) string {
	name := displayName(activityType)
	switch {
	case days == 7:
		return fmt.Sprintf("🔥 One week strong! 7 days of %s in a row.", name)
	case days == 30:
		return fmt.Sprintf("🏆 30-day %s streak! A whole month without missing a day.", name)
	case days <= 1:
		return fmt.Sprintf("✅ %s logged. Day 1 of a new streak!", name)
	default:
		return fmt.Sprintf("🔥 %d-day %s streak! Keep it going.", days, name)
	}
}
