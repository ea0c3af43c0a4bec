package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"youth-sports-gamification/logger"
	"youth-sports-gamification/models"

	"github.com/jonboulle/clockwork"
)

type GameLoggedResult struct {
	Game           *models.GameRecord    `json:"game,omitempty"`
	XPAwarded      int64                 `json:"xp_awarded"`
	XPMessage      string                `json:"xp_message,omitempty"`
	NewBadges      []models.Badge        `json:"new_badges"`
	CompletedGoals []models.GoalProgress `json:"completed_goals"`
	Notifications  []string              `json:"notifications"`
}

type SkillActivityResult struct {
	Streak           models.StreakState `json:"streak"`
	XPAwarded        int64              `json:"xp_awarded"`
	XPMessage        string             `json:"xp_message,omitempty"`
	MilestoneReached int                `json:"milestone_reached,omitempty"`
	Notifications    []string           `json:"notifications"`
}

func emptyGameResult() GameLoggedResult {
	return GameLoggedResult{
		NewBadges:      []models.Badge{},
		CompletedGoals: []models.GoalProgress{},
		Notifications:  []string{},
	}
}

func emptySkillResult() SkillActivityResult {
	return SkillActivityResult{Notifications: []string{}}
}

// Coordinator runs the post-action pipeline. Its On* hooks never fail: any
// broken step is logged and the caller gets an empty result, because the
// game or activity itself has already been saved.
type Coordinator struct {
	ledger  Awarder
	streaks *StreakCalculator
	badges  *BadgeEngine
	games   GameStore
	goals   GoalStore
	rules   *RuleBook
	clock   clockwork.Clock
}

func NewCoordinator(ledger Awarder, streaks *StreakCalculator, badges *BadgeEngine, games GameStore, goals GoalStore, rules *RuleBook, clock clockwork.Clock) *Coordinator {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Coordinator{
		ledger:  ledger,
		streaks: streaks,
		badges:  badges,
		games:   games,
		goals:   goals,
		rules:   rules,
		clock:   clock,
	}
}

// RecordGame stores a game and then runs OnGameLogged for it.
func (c *Coordinator) RecordGame(ctx context.Context, userID string, game *models.GameRecord) (GameLoggedResult, error) {
	if userID == "" || game == nil {
		return GameLoggedResult{}, fmt.Errorf("game and user are required")
	}
	game.UserID = userID
	game.Position = strings.ToLower(strings.TrimSpace(game.Position))
	if game.PlayedAt.IsZero() {
		game.PlayedAt = c.clock.Now()
	}
	if err := c.games.Create(ctx, game); err != nil {
		return GameLoggedResult{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	res := c.OnGameLogged(ctx, userID, game)
	res.Game = game
	return res, nil
}

// OnGameLogged awards game XP, evaluates badges and reports season goals that
// this game pushed over the line.
func (c *Coordinator) OnGameLogged(ctx context.Context, userID string, game *models.GameRecord) GameLoggedResult {
	if game == nil || userID == "" {
		return emptyGameResult()
	}
	res, err := c.onGameLogged(ctx, userID, game)
	if err != nil {
		logger.Error().Err(err).Str("user_id", userID).Str("game_id", game.ID).Msg("❌ Game pipeline failed")
		return emptyGameResult()
	}
	return res
}

func (c *Coordinator) onGameLogged(ctx context.Context, userID string, game *models.GameRecord) (GameLoggedResult, error) {
	rules := c.rules.Load()
	goals, err := c.goals.ListByUser(ctx, userID)
	if err != nil {
		return GameLoggedResult{}, fmt.Errorf("load goals: %w", err)
	}
	// one extra game so the window before this game is still full
	limit := rules.BadgeLookbackGames
	fetch := limit
	if limit > 0 {
		fetch = limit + 1
	}
	recent, err := c.games.Recent(ctx, userID, fetch)
	if err != nil {
		return GameLoggedResult{}, fmt.Errorf("load games: %w", err)
	}
	before := Summarize(goals, capGames(excludeGame(recent, game.ID), limit))
	withGame := capGames(includeGame(recent, game, limit), limit)

	res := emptyGameResult()
	award, err := c.ledger.Award(ctx, userID, models.ActionGameLogged, map[string]interface{}{
		"game_id":          game.ID,
		"position":         game.Position,
		MetaGamesInSession: gamesOnSameDay(withGame, game, rules.location()),
	})
	if err != nil {
		return GameLoggedResult{}, err
	}
	res.XPAwarded += award.Amount
	res.XPMessage = award.Message

	newBadges, err := c.badges.Evaluate(ctx, userID, TriggerContext{Game: game, EventID: game.ID})
	if err != nil {
		return GameLoggedResult{}, err
	}
	res.NewBadges = append(res.NewBadges, newBadges...)

	after := Summarize(goals, withGame)
	done := make(map[string]bool, len(before.Goals))
	for _, gp := range before.Goals {
		done[gp.Goal.ID] = gp.IsCompleted
	}
	for _, gp := range after.Goals {
		if !gp.IsCompleted || done[gp.Goal.ID] {
			continue
		}
		res.CompletedGoals = append(res.CompletedGoals, gp)
		goalAward, err := c.ledger.Award(ctx, userID, models.ActionGoalCompleted, map[string]interface{}{
			"goal_id":   gp.Goal.ID,
			"stat_type": gp.Goal.StatType,
		})
		if err != nil {
			logger.Warn().Err(err).Str("goal_id", gp.Goal.ID).Msg("goal XP not awarded")
			continue
		}
		res.XPAwarded += goalAward.Amount
	}

	for _, b := range res.NewBadges {
		res.Notifications = append(res.Notifications, badgeNotification(b))
	}
	for _, gp := range res.CompletedGoals {
		res.Notifications = append(res.Notifications, goalNotification(gp))
	}
	return res, nil
}

// OnSkillActivityLogged extends the activity's streak and pays activity XP
// once per day, plus a bonus on milestone days.
func (c *Coordinator) OnSkillActivityLogged(ctx context.Context, userID, activityType string, duration time.Duration) SkillActivityResult {
	res, err := c.onSkillActivity(ctx, userID, activityType, duration)
	if err != nil {
		logger.Error().Err(err).Str("user_id", userID).Str("activity", activityType).Msg("❌ Activity pipeline failed")
		return emptySkillResult()
	}
	return res
}

func (c *Coordinator) onSkillActivity(ctx context.Context, userID, activityType string, duration time.Duration) (SkillActivityResult, error) {
	var meta map[string]interface{}
	if duration > 0 {
		meta = map[string]interface{}{"duration_minutes": duration.Minutes()}
	}
	state, created, err := c.streaks.logActivity(ctx, userID, activityType, meta)
	if err != nil {
		return SkillActivityResult{}, err
	}

	res := emptySkillResult()
	res.Streak = state
	if created {
		award, err := c.ledger.Award(ctx, userID, models.ActionSkillActivity, map[string]interface{}{
			"activity": state.ActivityType,
		})
		if err != nil {
			return SkillActivityResult{}, err
		}
		res.XPAwarded += award.Amount
		res.XPMessage = award.Message

		if isMilestone(state.Current) {
			res.MilestoneReached = state.Current
			bonus, err := c.ledger.Award(ctx, userID, models.ActionStreakMilestone, map[string]interface{}{
				"activity":       state.ActivityType,
				MetaStreakLength: state.Current,
			})
			if err != nil {
				return SkillActivityResult{}, err
			}
			res.XPAwarded += bonus.Amount
		}
	}
	if created {
		res.Notifications = append(res.Notifications, streakNotification(state.ActivityType, state.Current))
	} else {
		res.Notifications = append(res.Notifications, fmt.Sprintf("👍 %s already logged today. Current streak: %d day(s).", displayName(state.ActivityType), state.Current))
	}
	return res, nil
}

func gamesOnSameDay(games []models.GameRecord, game *models.GameRecord, loc *time.Location) int {
	day := dayNumber(game.PlayedAt, loc)
	n := 0
	for _, g := range games {
		if dayNumber(g.PlayedAt, loc) == day {
			n++
		}
	}
	if n < 1 {
		n = 1
	}
	return n
}
