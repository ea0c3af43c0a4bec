package repository_test

import (
	"context"
	"testing"
	"time"

	"youth-sports-gamification/models"
	"youth-sports-gamification/repository"
	"youth-sports-gamification/testutil"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)

func TestEventRepository_DayKeyIsUnique(t *testing.T) {
	db := testutil.OpenTestDB(t)
	repo := repository.NewEventRepository(db)
	ctx := context.Background()
	key := "2025-03-15"

	ok, err := repo.Append(ctx, &models.ActionEvent{UserID: "u1", ActionType: models.ActivityActionType("passing"), Timestamp: base, DayKey: &key})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Append(ctx, &models.ActionEvent{UserID: "u1", ActionType: models.ActivityActionType("passing"), Timestamp: base.Add(time.Hour), DayKey: &key})
	require.NoError(t, err)
	assert.False(t, ok)

	// events without a day key never collide
	for i := 0; i < 2; i++ {
		ok, err = repo.Append(ctx, &models.ActionEvent{UserID: "u1", ActionType: models.ActionGameLogged, Timestamp: base})
		require.NoError(t, err)
		assert.True(t, ok)
	}

	n, err := repo.CountSince(ctx, "u1", base.Add(-time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestEventRepository_LatestAndListByType(t *testing.T) {
	db := testutil.OpenTestDB(t)
	repo := repository.NewEventRepository(db)
	ctx := context.Background()

	latest, err := repo.Latest(ctx, "u1", models.ActionGameLogged)
	require.NoError(t, err)
	assert.Nil(t, latest)

	for i := 0; i < 3; i++ {
		_, err := repo.Append(ctx, &models.ActionEvent{UserID: "u1", ActionType: models.ActionGameLogged, Timestamp: base.Add(time.Duration(i) * time.Hour)})
		require.NoError(t, err)
	}
	latest, err = repo.Latest(ctx, "u1", models.ActionGameLogged)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.True(t, latest.Timestamp.Equal(base.Add(2*time.Hour)))

	list, err := repo.ListByType(ctx, "u1", models.ActionGameLogged, base.Add(30*time.Minute), 10)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestXPRepository_RecordAward(t *testing.T) {
	db := testutil.OpenTestDB(t)
	repo := repository.NewXPRepository(db)
	ctx := context.Background()

	amount := int64(40)
	total, err := repo.RecordAward(ctx,
		&models.XPAward{UserID: "u1", ActionType: models.ActionGameLogged, Amount: amount, Timestamp: base},
		&models.ActionEvent{UserID: "u1", ActionType: models.ActionGameLogged, Timestamp: base, Amount: &amount})
	require.NoError(t, err)
	assert.Equal(t, int64(40), total)

	total, err = repo.RecordAward(ctx, &models.XPAward{UserID: "u1", ActionType: models.ActionGameLogged, Amount: 15, Timestamp: base.Add(time.Hour)}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(55), total)

	_, err = repo.RecordAward(ctx, &models.XPAward{UserID: "u1", ActionType: models.ActionGameLogged, Amount: 0, Timestamp: base}, nil)
	assert.Error(t, err)

	sum, err := repo.SumAwardedSince(ctx, "u1", models.ActionGameLogged, base.Add(30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(15), sum)

	sum, err = repo.SumAwardedSince(ctx, "nobody", models.ActionGameLogged, base)
	require.NoError(t, err)
	assert.Zero(t, sum)
}

func TestXPRepository_EnsureProgressIsIdempotent(t *testing.T) {
	db := testutil.OpenTestDB(t)
	repo := repository.NewXPRepository(db)
	ctx := context.Background()

	first, err := repo.EnsureProgress(ctx, "u1")
	require.NoError(t, err)
	second, err := repo.EnsureProgress(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, second.Level)

	missing, err := repo.GetProgress(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestBadgeRepository_InsertOnce(t *testing.T) {
	db := testutil.OpenTestDB(t)
	repo := repository.NewBadgeRepository(db)
	ctx := context.Background()

	ok, err := repo.Insert(ctx, &models.UserBadge{UserID: "u1", BadgeID: "hat-trick", UnlockedAt: base})
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.Insert(ctx, &models.UserBadge{UserID: "u1", BadgeID: "hat-trick", UnlockedAt: base.Add(time.Hour)})
	require.NoError(t, err)
	assert.False(t, ok)

	owned, err := repo.ListUnlocked(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, owned, 1)
	assert.True(t, owned[0].UnlockedAt.Equal(base))
}

func TestStreakRepository_UpsertAndDeactivate(t *testing.T) {
	db := testutil.OpenTestDB(t)
	repo := repository.NewStreakRepository(db)
	ctx := context.Background()

	last := base.Add(-48 * time.Hour)
	require.NoError(t, repo.Upsert(ctx, &models.StreakState{UserID: "u1", ActivityType: "passing", Current: 2, Longest: 2, LastActivityDate: &last, IsActive: true}))
	require.NoError(t, repo.Upsert(ctx, &models.StreakState{UserID: "u1", ActivityType: "passing", Current: 3, Longest: 3, LastActivityDate: &last, IsActive: true}))

	states, err := repo.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, states, 1)
	assert.Equal(t, 3, states[0].Current)

	n, err := repo.DeactivateStale(ctx, base.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := repo.Get(ctx, "u1", "passing")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Zero(t, got.Current)
	assert.Equal(t, 3, got.Longest)
	assert.False(t, got.IsActive)
}

func TestGameAndGoalRepositories(t *testing.T) {
	db := testutil.OpenTestDB(t)
	games := repository.NewGameRepository(db)
	goals := repository.NewGoalRepository(db)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, games.Create(ctx, &models.GameRecord{UserID: "u1", Position: models.PositionForward, PlayedAt: base.Add(time.Duration(i) * time.Hour),
			Stats: map[string]float64{models.StatGoals: float64(i)}}))
	}
	recent, err := games.Recent(ctx, "u1", 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, 2.0, recent[0].Stat(models.StatGoals))

	assert.Equal(t, 1.0, recent[1].Stat(models.StatGoals))

	require.NoError(t, goals.Create(ctx, &models.SeasonGoal{UserID: "u1", StatType: models.StatGoals, Target: 20}))
	list, err := goals.ListByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestRedisCooldownCache_UnreachableIsAMiss(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	cache := repository.NewRedisCooldownCache(client)
	ctx := context.Background()

	cache.MarkAwarded(ctx, "u1", models.ActionGameLogged, base, time.Minute)
	_, ok := cache.LastAwarded(ctx, "u1", models.ActionGameLogged)
	assert.False(t, ok)
}

func TestXPRepository_RaiseLevelOnlyMovesForward(t *testing.T) {
	db := testutil.OpenTestDB(t)
	repo := repository.NewXPRepository(db)
	ctx := context.Background()

	_, err := repo.EnsureProgress(ctx, "u1")
	require.NoError(t, err)
	require.NoError(t, repo.RaiseLevel(ctx, "u1", 5, 2, base))
	require.NoError(t, repo.RaiseLevel(ctx, "u1", 3, 1, base.Add(time.Hour)))

	prog, err := repo.GetProgress(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 5, prog.Level)
	assert.Equal(t, 2, prog.Rank)
	require.NotNil(t, prog.LastLevelUpAt)
	assert.True(t, prog.LastLevelUpAt.Equal(base))
}

func TestAuditRepository_ListBetween(t *testing.T) {
	db := testutil.OpenTestDB(t)
	repo := repository.NewAuditRepository(db)
	ctx := context.Background()

	for _, at := range []time.Time{base.Add(-25 * time.Hour), base, base.Add(time.Hour)} {
		require.NoError(t, repo.Flag(ctx, &models.SuspiciousActivity{UserID: "u1", ActionType: models.ActionGameLogged, HourlyCount: 100, Threshold: 100, FlaggedAt: at}))
	}
	flags, err := repo.ListBetween(ctx, base.Add(-time.Hour), base.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, flags, 1)
	assert.True(t, flags[0].FlaggedAt.Equal(base))
}
