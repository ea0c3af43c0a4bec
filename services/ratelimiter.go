package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"youth-sports-gamification/logger"
	"youth-sports-gamification/models"

	"github.com/jonboulle/clockwork"
)

// DenyReason tells the client why an action earned nothing.
type DenyReason string

const (
	ReasonCooldown       DenyReason = "cooldown"
	ReasonDailyActionCap DenyReason = "daily_action_cap"
	ReasonHourlyLimit    DenyReason = "hourly_limit"
	ReasonDailyLimit     DenyReason = "daily_limit"
	ReasonNoReward       DenyReason = "no_reward"
	ReasonInvalid        DenyReason = "invalid_request"
)

// Throttled reports whether the reason came from a limiter window or cap.
func (r DenyReason) Throttled() bool {
	switch r {
	case ReasonCooldown, ReasonDailyActionCap, ReasonHourlyLimit, ReasonDailyLimit:
		return true
	}
	return false
}

type Decision struct {
	Allowed    bool
	Reason     DenyReason
	Message    string
	RetryAfter time.Duration
	Suspicious bool
}

// RateLimiter decides whether an action may earn XP right now. Every check
// reads the store; a failing read is logged and skipped so a degraded store
// never blocks a kid from logging a game.
type RateLimiter struct {
	events ActionLog
	awards AwardSummer
	cache  CooldownCache
	audit  AuditSink
	rules  *RuleBook
	clock  clockwork.Clock
}

func NewRateLimiter(events ActionLog, awards AwardSummer, cache CooldownCache, audit AuditSink, rules *RuleBook, clock clockwork.Clock) *RateLimiter {
	if cache == nil {
		cache = NewMemoryCooldownCache()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &RateLimiter{events: events, awards: awards, cache: cache, audit: audit, rules: rules, clock: clock}
}

// CheckAndReserve runs cooldown → per-action daily cap → hourly → daily.
// The reservation becomes durable when the ledger writes the award event.
func (l *RateLimiter) CheckAndReserve(ctx context.Context, userID string, action models.ActionType) Decision {
	rules := l.rules.Load()
	now := l.clock.Now()
	rule := rules.Action(action)

	if d, denied := l.checkCooldown(ctx, userID, action, rule, now); denied {
		return d
	}
	if d, denied := l.checkDailyCap(ctx, userID, action, rule, rules.location(), now); denied {
		return d
	}

	var suspicious bool
	hourly, err := l.events.CountSince(ctx, userID, now.Add(-time.Hour))
	if err != nil {
		logger.Warn().Err(err).Str("user_id", userID).Msg("hourly limit check skipped")
	} else {
		if rules.Limits.SuspiciousHourly > 0 && hourly >= int64(rules.Limits.SuspiciousHourly) {
			suspicious = true
			l.flag(ctx, userID, action, hourly, rules.Limits.SuspiciousHourly, now)
		}
		if rules.Limits.HourlyMax > 0 && hourly >= int64(rules.Limits.HourlyMax) {
			return Decision{
				Reason:     ReasonHourlyLimit,
				Message:    fmt.Sprintf("You've been busy! Hourly limit of %d actions reached, try again later.", rules.Limits.HourlyMax),
				Suspicious: suspicious,
			}
		}
	}

	daily, err := l.events.CountSince(ctx, userID, now.Add(-24*time.Hour))
	if err != nil {
		logger.Warn().Err(err).Str("user_id", userID).Msg("daily limit check skipped")
	} else if rules.Limits.DailyMax > 0 && daily >= int64(rules.Limits.DailyMax) {
		return Decision{
			Reason:     ReasonDailyLimit,
			Message:    fmt.Sprintf("Daily limit of %d actions reached. Come back tomorrow!", rules.Limits.DailyMax),
			Suspicious: suspicious,
		}
	}

	return Decision{Allowed: true, Suspicious: suspicious}
}

// RecordAward warms the cooldown cache after the ledger committed an award.
func (l *RateLimiter) RecordAward(ctx context.Context, userID string, action models.ActionType, at time.Time) {
	rule := l.rules.Load().Action(action)
	l.cache.MarkAwarded(ctx, userID, action, at, rule.Cooldown)
}

func (l *RateLimiter) checkCooldown(ctx context.Context, userID string, action models.ActionType, rule ActionRule, now time.Time) (Decision, bool) {
	if rule.Cooldown <= 0 {
		return Decision{}, false
	}
	last, ok := l.cache.LastAwarded(ctx, userID, action)
	if !ok {
		ev, err := l.events.Latest(ctx, userID, action)
		if err != nil {
			logger.Warn().Err(err).Str("user_id", userID).Str("action", string(action)).Msg("cooldown check skipped")
			return Decision{}, false
		}
		if ev == nil {
			return Decision{}, false
		}
		last = ev.Timestamp
		l.cache.MarkAwarded(ctx, userID, action, last, rule.Cooldown)
	}

	elapsed := now.Sub(last)
	if elapsed >= rule.Cooldown {
		return Decision{}, false
	}
	remaining := rule.Cooldown - elapsed
	return Decision{
		Reason:     ReasonCooldown,
		Message:    fmt.Sprintf("Please wait %d more minute(s) before %s.", remainingMinutes(remaining), actionVerb(action)),
		RetryAfter: remaining,
	}, true
}

func (l *RateLimiter) checkDailyCap(ctx context.Context, userID string, action models.ActionType, rule ActionRule, loc *time.Location, now time.Time) (Decision, bool) {
	if rule.DailyCap <= 0 {
		return Decision{}, false
	}
	midnight := startOfDay(now, loc)
	earned, err := l.awards.SumAwardedSince(ctx, userID, action, midnight)
	if err != nil {
		logger.Warn().Err(err).Str("user_id", userID).Str("action", string(action)).Msg("daily cap check skipped")
		return Decision{}, false
	}
	if earned < rule.DailyCap {
		return Decision{}, false
	}
	return Decision{
		Reason:     ReasonDailyActionCap,
		Message:    fmt.Sprintf("You've earned the daily max of %d XP for %s. Come back tomorrow!", rule.DailyCap, strings.ReplaceAll(string(action), "_", " ")),
		RetryAfter: midnight.AddDate(0, 0, 1).Sub(now),
	}, true
}

func (l *RateLimiter) flag(ctx context.Context, userID string, action models.ActionType, count int64, threshold int, now time.Time) {
	logger.Warn().
		Str("user_id", userID).
		Str("action", string(action)).
		Int64("hourly_count", count).
		Msg("🚩 Suspicious activity: hourly actions above threshold")
	if l.audit == nil {
		return
	}
	err := l.audit.Flag(ctx, &models.SuspiciousActivity{
		UserID:      userID,
		ActionType:  action,
		HourlyCount: count,
		Threshold:   threshold,
		FlaggedAt:   now,
	})
	if err != nil {
		logger.Error().Err(err).Str("user_id", userID).Msg("failed to persist suspicious activity flag")
	}
}

func remainingMinutes(d time.Duration) int {
	m := int(math.Ceil(d.Minutes()))
	if m < 1 {
		return 1
	}
	return m
}

func actionVerb(action models.ActionType) string {
	switch action {
	case models.ActionGameLogged:
		return "logging another game"
	case models.ActionSkillActivity:
		return "logging another skill session"
	case models.ActionDailyLogin:
		return "claiming your login bonus"
	default:
		return "earning " + strings.ReplaceAll(string(action), "_", " ") + " XP again"
	}
}
