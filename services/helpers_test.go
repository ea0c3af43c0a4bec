package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"youth-sports-gamification/models"
	"youth-sports-gamification/repository"
	"youth-sports-gamification/testutil"

	"github.com/jonboulle/clockwork"
	"gorm.io/gorm"
)

// Saturday 10:00 UTC
var testStart = time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)

type testEnv struct {
	db      *gorm.DB
	clock   *clockwork.FakeClock
	rules   *RuleBook
	cache   *MemoryCooldownCache
	events  *repository.EventRepository
	xp      *repository.XPRepository
	streakR *repository.StreakRepository
	badgeR  *repository.BadgeRepository
	games   *repository.GameRepository
	goals   *repository.GoalRepository
	audit   *repository.AuditRepository

	limiter  *RateLimiter
	ledger   *XPLedger
	streaks  *StreakCalculator
	engine   *BadgeEngine
	progress *ProgressAggregator
	coord    *Coordinator
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	rules := DefaultRules()
	rules.Location = time.UTC
	return newTestEnvWithRules(t, rules)
}

func newTestEnvWithRules(t *testing.T, rules Rules) *testEnv {
	t.Helper()
	db := testutil.OpenTestDB(t)
	env := &testEnv{
		db:      db,
		clock:   clockwork.NewFakeClockAt(testStart),
		rules:   NewRuleBook(rules),
		cache:   NewMemoryCooldownCache(),
		events:  repository.NewEventRepository(db),
		xp:      repository.NewXPRepository(db),
		streakR: repository.NewStreakRepository(db),
		badgeR:  repository.NewBadgeRepository(db),
		games:   repository.NewGameRepository(db),
		goals:   repository.NewGoalRepository(db),
		audit:   repository.NewAuditRepository(db),
	}
	env.limiter = NewRateLimiter(env.events, env.xp, env.cache, env.audit, env.rules, env.clock)
	env.ledger = NewXPLedger(env.xp, env.limiter, env.rules, env.clock)
	env.streaks = NewStreakCalculator(env.events, env.streakR, env.rules, env.clock)
	env.engine = NewBadgeEngine(env.badgeR, env.games, env.goals, env.ledger, env.rules, env.clock)
	env.progress = NewProgressAggregator(env.goals, env.games, env.rules)
	env.coord = NewCoordinator(env.ledger, env.streaks, env.engine, env.games, env.goals, env.rules, env.clock)
	return env
}

func (e *testEnv) addGame(t *testing.T, userID, position string, stats map[string]float64) *models.GameRecord {
	t.Helper()
	g := &models.GameRecord{UserID: userID, Position: position, PlayedAt: e.clock.Now(), Stats: stats}
	if err := e.games.Create(context.Background(), g); err != nil {
		t.Fatalf("create game: %v", err)
	}
	return g
}

func (e *testEnv) addGoal(t *testing.T, userID, stat string, target float64) *models.SeasonGoal {
	t.Helper()
	g := &models.SeasonGoal{UserID: userID, StatType: stat, Target: target}
	if err := e.goals.Create(context.Background(), g); err != nil {
		t.Fatalf("create goal: %v", err)
	}
	return g
}

// appendEvents writes n plain events directly, bypassing the limiter.
func (e *testEnv) appendEvents(t *testing.T, userID string, action models.ActionType, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		ev := &models.ActionEvent{UserID: userID, ActionType: action, Timestamp: e.clock.Now()}
		if _, err := e.events.Append(context.Background(), ev); err != nil {
			t.Fatalf("append event: %v", err)
		}
	}
}

var errStoreDown = errors.New("connection refused")

// brokenEvents fails every read.
type brokenEvents struct{}

func (brokenEvents) Latest(context.Context, string, models.ActionType) (*models.ActionEvent, error) {
	return nil, errStoreDown
}

func (brokenEvents) CountSince(context.Context, string, time.Time) (int64, error) {
	return 0, errStoreDown
}

type brokenSummer struct{}

func (brokenSummer) SumAwardedSince(context.Context, string, models.ActionType, time.Time) (int64, error) {
	return 0, errStoreDown
}

// brokenGames fails every read and write.
type brokenGames struct{}

func (brokenGames) Create(context.Context, *models.GameRecord) error { return errStoreDown }
func (brokenGames) Recent(context.Context, string, int) ([]models.GameRecord, error) {
	return nil, errStoreDown
}

// failingAwarder stands in for a ledger whose store is down.
type failingAwarder struct{}

func (failingAwarder) Award(context.Context, string, models.ActionType, map[string]interface{}) (AwardResult, error) {
	return AwardResult{}, ErrStoreUnavailable
}
