package services

import (
	"context"
	"errors"
	"time"

	"youth-sports-gamification/models"
)

// ErrStoreUnavailable wraps any failure of the backing store. Read-side checks
// swallow it (fail open); writes return it (fail closed).
var ErrStoreUnavailable = errors.New("store unavailable")

// Minimal store contracts, one per consumer.

type ActionLog interface {
	Latest(ctx context.Context, userID string, actionType models.ActionType) (*models.ActionEvent, error)
	CountSince(ctx context.Context, userID string, since time.Time) (int64, error)
}

type ActivityLog interface {
	Append(ctx context.Context, event *models.ActionEvent) (bool, error)
	ListByType(ctx context.Context, userID string, actionType models.ActionType, since time.Time, limit int) ([]models.ActionEvent, error)
}

type AwardSummer interface {
	SumAwardedSince(ctx context.Context, userID string, actionType models.ActionType, since time.Time) (int64, error)
}

type LedgerStore interface {
	AwardSummer
	RecordAward(ctx context.Context, award *models.XPAward, event *models.ActionEvent) (int64, error)
	EnsureProgress(ctx context.Context, userID string) (*models.UserProgress, error)
	RaiseLevel(ctx context.Context, userID string, level, rank int, at time.Time) error
}

type StreakStore interface {
	Get(ctx context.Context, userID, activityType string) (*models.StreakState, error)
	Upsert(ctx context.Context, state *models.StreakState) error
	ListByUser(ctx context.Context, userID string) ([]models.StreakState, error)
	DeactivateStale(ctx context.Context, cutoff time.Time) (int64, error)
}

type BadgeStore interface {
	ListUnlocked(ctx context.Context, userID string) ([]models.UserBadge, error)
	Insert(ctx context.Context, badge *models.UserBadge) (bool, error)
}

type GameStore interface {
	Create(ctx context.Context, game *models.GameRecord) error
	Recent(ctx context.Context, userID string, limit int) ([]models.GameRecord, error)
}

type GoalStore interface {
	Create(ctx context.Context, goal *models.SeasonGoal) error
	ListByUser(ctx context.Context, userID string) ([]models.SeasonGoal, error)
}

type AuditSink interface {
	Flag(ctx context.Context, flag *models.SuspiciousActivity) error
}

// CooldownCache remembers when an action last earned XP. It only short-circuits
// the store-backed cooldown check and may lose entries at any time.
type CooldownCache interface {
	LastAwarded(ctx context.Context, userID string, action models.ActionType) (time.Time, bool)
	MarkAwarded(ctx context.Context, userID string, action models.ActionType, at time.Time, ttl time.Duration)
}

// Awarder is the XP ledger as seen by the rule engine and coordinator.
type Awarder interface {
	Award(ctx context.Context, userID string, actionType models.ActionType, metadata map[string]interface{}) (AwardResult, error)
}
