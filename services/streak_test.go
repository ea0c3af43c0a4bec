package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeStreak(t *testing.T) {
	now := time.Date(2025, 3, 15, 18, 0, 0, 0, time.UTC)
	day := func(offset int) time.Time { return now.AddDate(0, 0, -offset) }

	tests := []struct {
		name         string
		days         []time.Time
		wantCurrent  int
		wantLongest  int
		wantIsActive bool
	}{
		{"no activity", nil, 0, 0, false},
		{"today only", []time.Time{day(0)}, 1, 1, true},
		{"yesterday keeps it alive", []time.Time{day(1), day(2)}, 2, 2, true},
		{"two days ago lapses", []time.Time{day(2), day(3), day(4)}, 0, 3, false},
		{"gap breaks current run", []time.Time{day(0), day(1), day(3), day(4), day(5), day(6)}, 2, 4, true},
		{"duplicates on one day count once", []time.Time{day(0), day(0).Add(-time.Hour), day(1)}, 2, 2, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeStreak(tt.days, now, time.UTC)
			assert.Equal(t, tt.wantCurrent, got.Current)
			assert.Equal(t, tt.wantLongest, got.Longest)
			assert.Equal(t, tt.wantIsActive, got.IsActive)
			assert.GreaterOrEqual(t, got.Longest, got.Current)
		})
	}
}

func TestComputeStreak_UsesLocalCalendarDays(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, loc)
	// 02:00 UTC on the 15th is still the 14th locally
	yesterdayLocal := time.Date(2025, 3, 15, 2, 0, 0, 0, time.UTC)

	got := ComputeStreak([]time.Time{yesterdayLocal, now}, now, loc)
	assert.Equal(t, 2, got.Current)
	require.NotNil(t, got.LastActivityDate)
	assert.Equal(t, 15, got.LastActivityDate.Day())
}

func TestLogActivity_IdempotentPerDay(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.streaks.LogActivity(ctx, "u1", "dribbling")
	require.NoError(t, err)
	assert.Equal(t, 1, first.Current)

	env.clock.Advance(3 * time.Hour)
	second, err := env.streaks.LogActivity(ctx, "u1", "Dribbling ")
	require.NoError(t, err)
	assert.Equal(t, first.Current, second.Current)
	assert.Equal(t, first.Longest, second.Longest)
}

func TestLogActivity_ConsecutiveDaysAndLapse(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := env.streaks.LogActivity(ctx, "u1", "juggling")
		require.NoError(t, err)
		env.clock.Advance(24 * time.Hour)
	}

	state, err := env.streaks.GetStreak(ctx, "u1", "juggling")
	require.NoError(t, err)
	assert.Equal(t, 3, state.Current, "last log was yesterday")

	env.clock.Advance(24 * time.Hour)
	state, err = env.streaks.GetStreak(ctx, "u1", "juggling")
	require.NoError(t, err)
	assert.Equal(t, 0, state.Current)
	assert.Equal(t, 3, state.Longest)
	assert.False(t, state.IsActive)

	all, err := env.streaks.GetAllStreaks(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 0, all[0].Current, "cached state must be reported as lapsed")
	assert.Equal(t, 3, all[0].Longest)
}

func TestLogActivity_StreaksAreIndependentPerActivity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.streaks.LogActivity(ctx, "u1", "dribbling")
	require.NoError(t, err)
	env.clock.Advance(24 * time.Hour)
	_, err = env.streaks.LogActivity(ctx, "u1", "dribbling")
	require.NoError(t, err)
	shooting, err := env.streaks.LogActivity(ctx, "u1", "shooting")
	require.NoError(t, err)

	assert.Equal(t, 1, shooting.Current)
	dribbling, err := env.streaks.GetStreak(ctx, "u1", "dribbling")
	require.NoError(t, err)
	assert.Equal(t, 2, dribbling.Current)
}

func TestLogActivity_RejectsEmptyActivity(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.streaks.LogActivity(context.Background(), "u1", "  ")
	assert.ErrorIs(t, err, ErrInvalidActivity)
}

func TestRefreshStaleCaches(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.streaks.LogActivity(ctx, "u1", "passing")
	require.NoError(t, err)

	env.clock.Advance(24 * time.Hour)
	n, err := env.streaks.RefreshStaleCaches(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n, "yesterday's streak is still alive")

	env.clock.Advance(24 * time.Hour)
	n, err = env.streaks.RefreshStaleCaches(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	cached, err := env.streakR.Get(ctx, "u1", "passing")
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, 0, cached.Current)
	assert.Equal(t, 1, cached.Longest)
}
