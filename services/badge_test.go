package services

import (
	"context"
	"testing"
	"time"

	"youth-sports-gamification/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func badgeIDs(badges []models.Badge) []string {
	ids := make([]string, 0, len(badges))
	for _, b := range badges {
		ids = append(ids, b.ID)
	}
	return ids
}

func TestEvaluate_UnlocksOnceAndPaysRarityXP(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	game := env.addGame(t, "u1", models.PositionForward, map[string]float64{models.StatGoals: 3})
	got, err := env.engine.Evaluate(ctx, "u1", TriggerContext{Game: game, EventID: game.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{"first-whistle", "hat-trick"}, badgeIDs(got))

	again, err := env.engine.Evaluate(ctx, "u1", TriggerContext{Game: game, EventID: game.ID})
	require.NoError(t, err)
	assert.Empty(t, again)

	owned, err := env.engine.GetUserBadges(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, owned, 2)

	// common 100 × 1 + rare 100 × 1.5
	prog, err := env.xp.GetProgress(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, prog)
	assert.Equal(t, int64(250), prog.TotalXP)
}

func TestEvaluate_RespectsPositionScope(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	forward := env.addGame(t, "fwd", models.PositionForward, map[string]float64{models.StatSaves: 12})
	got, err := env.engine.Evaluate(ctx, "fwd", TriggerContext{Game: forward})
	require.NoError(t, err)
	assert.NotContains(t, badgeIDs(got), "brick-wall")

	keeper := env.addGame(t, "gk", models.PositionGoalkeeper, map[string]float64{models.StatSaves: 12})
	got, err = env.engine.Evaluate(ctx, "gk", TriggerContext{Game: keeper})
	require.NoError(t, err)
	assert.Contains(t, badgeIDs(got), "brick-wall")
}

func TestEvaluate_AllRequirementsMustHold(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	stats := map[string]float64{models.StatSaves: 8, models.StatShotsAgainst: 8}

	var last *models.GameRecord
	for i := 0; i < 9; i++ {
		last = env.addGame(t, "gk", models.PositionGoalkeeper, stats)
		env.clock.Advance(time.Hour)
	}
	got, err := env.engine.Evaluate(ctx, "gk", TriggerContext{Game: last})
	require.NoError(t, err)
	assert.NotContains(t, badgeIDs(got), "golden-gloves")

	// display takes the best requirement, unlocking needs every one
	progress, err := env.engine.Progress(ctx, "gk", models.PositionGoalkeeper)
	require.NoError(t, err)
	for _, bp := range progress {
		if bp.Badge.ID == "golden-gloves" {
			assert.False(t, bp.Unlocked)
			assert.Equal(t, 100, bp.Progress)
		}
	}

	last = env.addGame(t, "gk", models.PositionGoalkeeper, stats)
	got, err = env.engine.Evaluate(ctx, "gk", TriggerContext{Game: last})
	require.NoError(t, err)
	assert.Contains(t, badgeIDs(got), "golden-gloves")
	assert.Contains(t, badgeIDs(got), "ironman")
}

func TestEvaluate_IncludesUnsavedTriggerGame(t *testing.T) {
	env := newTestEnv(t)
	game := &models.GameRecord{ID: "pending", UserID: "u1", Position: models.PositionMidfielder, PlayedAt: env.clock.Now(),
		Stats: map[string]float64{models.StatAssists: 4}}

	got, err := env.engine.Evaluate(context.Background(), "u1", TriggerContext{Game: game})
	require.NoError(t, err)
	assert.Equal(t, []string{"first-whistle", "playmaker"}, badgeIDs(got))
}

func TestEvaluate_SeasonGoalBadges(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addGoal(t, "u1", models.StatGoals, 2)

	game := env.addGame(t, "u1", models.PositionForward, map[string]float64{models.StatGoals: 2})
	got, err := env.engine.Evaluate(ctx, "u1", TriggerContext{Game: game})
	require.NoError(t, err)
	assert.Contains(t, badgeIDs(got), "goal-getter")
	assert.NotContains(t, badgeIDs(got), "overachiever")
}

func TestEvaluate_StoreFailure(t *testing.T) {
	env := newTestEnv(t)
	engine := NewBadgeEngine(env.badgeR, brokenGames{}, env.goals, env.ledger, env.rules, env.clock)

	_, err := engine.Evaluate(context.Background(), "u1", TriggerContext{})
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestGetAvailableBadges(t *testing.T) {
	env := newTestEnv(t)

	all := env.engine.GetAvailableBadges("")
	assert.Len(t, all, len(models.BadgeCatalog))
	assert.Len(t, env.engine.GetAvailableBadges("all"), len(models.BadgeCatalog))

	keeper := badgeIDs(env.engine.GetAvailableBadges("Goalkeeper"))
	assert.Contains(t, keeper, "brick-wall")
	assert.Contains(t, keeper, "first-whistle")
	assert.NotContains(t, keeper, "playmaker")
}

func TestBadgeProgress_UnlockedIsFull(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	game := env.addGame(t, "u1", models.PositionDefender, map[string]float64{models.StatTackles: 5})
	_, err := env.engine.Evaluate(ctx, "u1", TriggerContext{Game: game})
	require.NoError(t, err)

	progress, err := env.engine.Progress(ctx, "u1", models.PositionDefender)
	require.NoError(t, err)
	byID := map[string]BadgeProgress{}
	for _, bp := range progress {
		byID[bp.Badge.ID] = bp
	}
	assert.True(t, byID["first-whistle"].Unlocked)
	assert.Equal(t, 100, byID["first-whistle"].Progress)
	assert.Equal(t, 10, byID["defensive-anchor"].Progress)
	assert.Equal(t, 10, byID["ironman"].Progress)
	_, scoped := byID["brick-wall"]
	assert.False(t, scoped)
}
