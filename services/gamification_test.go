package services

import (
	"context"
	"testing"
	"time"

	"youth-sports-gamification/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordGame_FullPipeline(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addGoal(t, "u1", models.StatGoals, 3)

	game := &models.GameRecord{Position: "Forward", Opponent: "Rovers", PlayedAt: env.clock.Now(),
		Stats: map[string]float64{models.StatGoals: 3}}
	res, err := env.coord.RecordGame(ctx, "u1", game)
	require.NoError(t, err)

	assert.Equal(t, models.PositionForward, res.Game.Position)
	assert.Equal(t, []string{"first-whistle", "hat-trick", "goal-getter"}, badgeIDs(res.NewBadges))
	require.Len(t, res.CompletedGoals, 1)
	assert.Equal(t, models.StatGoals, res.CompletedGoals[0].Goal.StatType)
	// 50 game + 75 goal
	assert.Equal(t, int64(125), res.XPAwarded)

	require.Len(t, res.Notifications, 4)
	assert.Contains(t, res.Notifications[0], "First Whistle")
	assert.Equal(t, "🎯 Season goal complete: 3 Goals!", res.Notifications[3])
}

func TestOnGameLogged_GoalCompletesOnlyOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addGoal(t, "u1", models.StatAssists, 2)

	first := env.addGame(t, "u1", models.PositionMidfielder, map[string]float64{models.StatAssists: 2})
	res := env.coord.OnGameLogged(ctx, "u1", first)
	assert.Len(t, res.CompletedGoals, 1)

	env.clock.Advance(time.Hour)
	second := env.addGame(t, "u1", models.PositionMidfielder, map[string]float64{models.StatAssists: 1})
	res = env.coord.OnGameLogged(ctx, "u1", second)
	assert.Empty(t, res.CompletedGoals)
	assert.Empty(t, res.NewBadges)
}

func TestOnGameLogged_FullWindowComparesAgainstPriorWindow(t *testing.T) {
	rules := DefaultRules()
	rules.Location = time.UTC
	rules.BadgeLookbackGames = 2
	env := newTestEnvWithRules(t, rules)
	ctx := context.Background()
	env.addGoal(t, "u1", models.StatGoals, 5)

	logGame := func(goals float64) GameLoggedResult {
		env.clock.Advance(time.Hour)
		g := env.addGame(t, "u1", models.PositionForward, map[string]float64{models.StatGoals: goals})
		return env.coord.OnGameLogged(ctx, "u1", g)
	}

	assert.Len(t, logGame(5).CompletedGoals, 1)
	assert.Empty(t, logGame(0).CompletedGoals)

	// [g2, g1] already summed to 5, so pushing g1 out with another 5 is no transition
	res := logGame(5)
	assert.Empty(t, res.CompletedGoals)
	for _, n := range res.Notifications {
		assert.NotContains(t, n, "Season goal complete")
	}

	assert.Empty(t, logGame(0).CompletedGoals)
	assert.Empty(t, logGame(0).CompletedGoals)
	assert.Len(t, logGame(5).CompletedGoals, 1, "dropped below target and back is a new completion")
}

func TestRecordGame_DefaultsPlayedAtToClock(t *testing.T) {
	env := newTestEnv(t)
	res, err := env.coord.RecordGame(context.Background(), "u1", &models.GameRecord{Position: models.PositionDefender})
	require.NoError(t, err)
	assert.True(t, res.Game.PlayedAt.Equal(testStart))
}

func TestOnGameLogged_CooldownStillEvaluatesBadges(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first := env.addGame(t, "u1", models.PositionForward, nil)
	env.coord.OnGameLogged(ctx, "u1", first)

	env.clock.Advance(5 * time.Minute)
	second := env.addGame(t, "u1", models.PositionForward, map[string]float64{models.StatGoals: 3})
	res := env.coord.OnGameLogged(ctx, "u1", second)
	assert.Zero(t, res.XPAwarded)
	assert.Contains(t, res.XPMessage, "minute(s)")
	assert.Equal(t, []string{"hat-trick"}, badgeIDs(res.NewBadges))
}

func TestOnGameLogged_DegradesToEmptyResult(t *testing.T) {
	env := newTestEnv(t)
	coord := NewCoordinator(failingAwarder{}, env.streaks, env.engine, env.games, env.goals, env.rules, env.clock)

	game := env.addGame(t, "u1", models.PositionForward, map[string]float64{models.StatGoals: 3})
	res := coord.OnGameLogged(context.Background(), "u1", game)
	assert.NotNil(t, res.NewBadges)
	assert.Empty(t, res.NewBadges)
	assert.Empty(t, res.CompletedGoals)
	assert.Empty(t, res.Notifications)
	assert.Zero(t, res.XPAwarded)

	broken := NewCoordinator(env.ledger, env.streaks, env.engine, brokenGames{}, env.goals, env.rules, env.clock)
	res = broken.OnGameLogged(context.Background(), "u1", game)
	assert.Empty(t, res.Notifications)
}

func TestOnSkillActivityLogged(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res := env.coord.OnSkillActivityLogged(ctx, "u1", "dribbling", 20*time.Minute)
	assert.Equal(t, 1, res.Streak.Current)
	assert.Equal(t, int64(15), res.XPAwarded)
	assert.Equal(t, []string{"✅ Dribbling logged. Day 1 of a new streak!"}, res.Notifications)

	env.clock.Advance(time.Hour)
	res = env.coord.OnSkillActivityLogged(ctx, "u1", "dribbling", 0)
	assert.Equal(t, 1, res.Streak.Current)
	assert.Zero(t, res.XPAwarded, "a second log on the same day earns nothing")
	assert.Contains(t, res.Notifications[0], "already logged today")
}

func TestOnSkillActivityLogged_WeekMilestone(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	var res SkillActivityResult
	for day := 0; day < 7; day++ {
		res = env.coord.OnSkillActivityLogged(ctx, "u1", "first_touch", 0)
		env.clock.Advance(24 * time.Hour)
	}

	assert.Equal(t, 7, res.Streak.Current)
	assert.Equal(t, 7, res.MilestoneReached)
	// 15 activity + floor(100 × log10(8))
	assert.Equal(t, int64(15+90), res.XPAwarded)
	assert.Equal(t, []string{"🔥 One week strong! 7 days of First Touch in a row."}, res.Notifications)
}

func TestOnSkillActivityLogged_DegradesToEmptyResult(t *testing.T) {
	env := newTestEnv(t)
	coord := NewCoordinator(failingAwarder{}, env.streaks, env.engine, env.games, env.goals, env.rules, env.clock)

	res := coord.OnSkillActivityLogged(context.Background(), "u1", "passing", 0)
	assert.Zero(t, res.Streak.Current)
	assert.NotNil(t, res.Notifications)
	assert.Empty(t, res.Notifications)

	res = env.coord.OnSkillActivityLogged(context.Background(), "u1", "", 0)
	assert.Empty(t, res.Notifications)
}
