package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"youth-sports-gamification/logger"
	"youth-sports-gamification/models"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"gorm.io/datatypes"
)

// Metadata keys the multipliers read.
const (
	MetaGamesInSession = "games_in_session"
	MetaStreakLength   = "streak_length"
	MetaRarity         = "rarity"
	MetaSessionID      = "session_id"
)

const ActionAdminGrant models.ActionType = "admin_grant"

var ErrInvalidAmount = errors.New("amount must be positive")

// AwardResult is what a caller learns about one award attempt. A rejection is
// a normal outcome, not an error.
type AwardResult struct {
	Awarded    bool          `json:"awarded"`
	Amount     int64         `json:"amount"`
	TotalXP    int64         `json:"total_xp,omitempty"`
	Level      int           `json:"level,omitempty"`
	Reason     DenyReason    `json:"reason,omitempty"`
	Message    string        `json:"message,omitempty"`
	RetryAfter time.Duration `json:"-"`
	Suspicious bool          `json:"-"`
}

// ProgressView is the read model behind GET /user/progress.
type ProgressView struct {
	UserID        string     `json:"user_id"`
	TotalXP       int64      `json:"total_xp"`
	Level         int        `json:"level"`
	Rank          int        `json:"rank"`
	RankName      string     `json:"rank_name"`
	XPToNextLevel int64      `json:"xp_to_next_level"`
	LastLevelUpAt *time.Time `json:"last_level_up_at,omitempty"`
	LastRankUpAt  *time.Time `json:"last_rank_up_at,omitempty"`
}

// XPLedger is the only writer of XP.
type XPLedger struct {
	store   LedgerStore
	limiter *RateLimiter
	rules   *RuleBook
	clock   clockwork.Clock
}

func NewXPLedger(store LedgerStore, limiter *RateLimiter, rules *RuleBook, clock clockwork.Clock) *XPLedger {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &XPLedger{store: store, limiter: limiter, rules: rules, clock: clock}
}

// Award runs the rate limiter, applies multipliers and commits award, event
// and counter increment together.
func (x *XPLedger) Award(ctx context.Context, userID string, actionType models.ActionType, metadata map[string]interface{}) (AwardResult, error) {
	if userID == "" || actionType == "" {
		return AwardResult{Reason: ReasonInvalid, Message: "user and action are required"}, nil
	}

	decision := x.limiter.CheckAndReserve(ctx, userID, actionType)
	if !decision.Allowed {
		logger.Debug().Str("user_id", userID).Str("action", string(actionType)).Str("reason", string(decision.Reason)).Msg("award denied")
		return AwardResult{
			Reason:     decision.Reason,
			Message:    decision.Message,
			RetryAfter: decision.RetryAfter,
			Suspicious: decision.Suspicious,
		}, nil
	}

	amount := x.AmountFor(actionType, metadata)
	if amount <= 0 {
		return AwardResult{Reason: ReasonNoReward, Message: "This action doesn't earn XP.", Suspicious: decision.Suspicious}, nil
	}

	now := x.clock.Now()
	meta := datatypes.JSONMap(metadata)
	award := &models.XPAward{
		UserID:     userID,
		ActionType: actionType,
		Amount:     amount,
		Timestamp:  now,
		SessionID:  sessionID(metadata),
		Metadata:   meta,
	}
	event := &models.ActionEvent{
		UserID:     userID,
		ActionType: actionType,
		Timestamp:  now,
		Amount:     &amount,
		Metadata:   meta,
	}
	total, err := x.store.RecordAward(ctx, award, event)
	if err != nil {
		return AwardResult{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	x.limiter.RecordAward(ctx, userID, actionType, now)
	level := x.syncLevel(ctx, userID, total, now)

	logger.Info().
		Str("user_id", userID).
		Str("action", string(actionType)).
		Int64("amount", amount).
		Int64("total_xp", total).
		Int("level", level).
		Msg("🎮 XP Awarded")

	return AwardResult{Awarded: true, Amount: amount, TotalXP: total, Level: level, Suspicious: decision.Suspicious}, nil
}

// Grant is the admin path: no rate limits, no event-log entry.
func (x *XPLedger) Grant(ctx context.Context, userID string, amount int64, reason string) (AwardResult, error) {
	if userID == "" {
		return AwardResult{}, errors.New("user id is required")
	}
	if amount <= 0 {
		return AwardResult{}, ErrInvalidAmount
	}
	now := x.clock.Now()
	award := &models.XPAward{
		UserID:     userID,
		ActionType: ActionAdminGrant,
		Amount:     amount,
		Timestamp:  now,
		SessionID:  uuid.NewString(),
		Metadata:   datatypes.JSONMap{"reason": reason},
	}
	total, err := x.store.RecordAward(ctx, award, nil)
	if err != nil {
		return AwardResult{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	level := x.syncLevel(ctx, userID, total, now)
	logger.Info().Str("user_id", userID).Int64("amount", amount).Str("reason", reason).Msg("🛠️ XP granted")
	return AwardResult{Awarded: true, Amount: amount, TotalXP: total, Level: level}, nil
}

// Progress returns the user's standing, creating an empty row on first read.
func (x *XPLedger) Progress(ctx context.Context, userID string) (ProgressView, error) {
	prog, err := x.store.EnsureProgress(ctx, userID)
	if err != nil {
		return ProgressView{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	level, toNext := LevelForXP(prog.TotalXP)
	if prog.Level > level {
		level = prog.Level
	}
	rank := determineRank(level)
	if prog.Rank > rank {
		rank = prog.Rank
	}
	return ProgressView{
		UserID:        userID,
		TotalXP:       prog.TotalXP,
		Level:         level,
		Rank:          rank,
		RankName:      RankName(rank),
		XPToNextLevel: toNext,
		LastLevelUpAt: prog.LastLevelUpAt,
		LastRankUpAt:  prog.LastRankUpAt,
	}, nil
}

// AmountFor returns floor(base × multiplier) for the action.
func (x *XPLedger) AmountFor(actionType models.ActionType, metadata map[string]interface{}) int64 {
	rules := x.rules.Load()
	base := rules.Action(actionType).BaseXP
	if base <= 0 {
		return 0
	}
	return int64(math.Floor(float64(base) * Multiplier(rules.Multipliers, actionType, metadata)))
}

// Multiplier is 1 for everything except session games, streak milestones and achievements.
func Multiplier(m Multipliers, actionType models.ActionType, metadata map[string]interface{}) float64 {
	switch actionType {
	case models.ActionGameLogged:
		games := metaFloat(metadata, MetaGamesInSession, 1)
		if games < 1 {
			games = 1
		}
		return math.Min(m.GameBase*games, m.GameMax)
	case models.ActionStreakMilestone:
		length := metaFloat(metadata, MetaStreakLength, 0)
		if length < 0 {
			length = 0
		}
		return math.Min(m.StreakBase*math.Log10(length+1), m.StreakMax)
	case models.ActionAchievementUnlocked:
		if v, ok := m.Rarity[models.Rarity(metaString(metadata, MetaRarity))]; ok {
			return v
		}
		return 1
	default:
		return 1
	}
}

// syncLevel raises level and rank to match total. Failures only delay the
// level-up until the next award.
func (x *XPLedger) syncLevel(ctx context.Context, userID string, total int64, now time.Time) int {
	level, _ := LevelForXP(total)
	rank := determineRank(level)
	if err := x.store.RaiseLevel(ctx, userID, level, rank, now); err != nil {
		logger.Warn().Err(err).Str("user_id", userID).Msg("level sync failed")
	}
	return level
}

func sessionID(metadata map[string]interface{}) string {
	if id := metaString(metadata, MetaSessionID); id != "" {
		return id
	}
	return uuid.NewString()
}

func metaFloat(metadata map[string]interface{}, key string, fallback float64) float64 {
	v, ok := metadata[key]
	if !ok || v == nil {
		return fallback
	}
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case json.Number:
		if f, err := n.Float64(); err == nil {
			return f
		}
	case string:
		if f, err := strconv.ParseFloat(n, 64); err == nil {
			return f
		}
	}
	return fallback
}

func metaString(metadata map[string]interface{}, key string) string {
	v, ok := metadata[key]
	if !ok || v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	case fmt.Stringer:
		return s.String()
	case models.Rarity:
		return string(s)
	}
	return fmt.Sprint(v)
}
