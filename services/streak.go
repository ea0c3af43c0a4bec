package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"youth-sports-gamification/logger"
	"youth-sports-gamification/models"

	"github.com/jonboulle/clockwork"
	"gorm.io/datatypes"
)

var ErrInvalidActivity = errors.New("activity type is required")

// StreakCalculator derives streaks from day-keyed activity events. The cached
// StreakState rows are only a read shortcut; every log recomputes from events.
type StreakCalculator struct {
	events ActivityLog
	cache  StreakStore
	rules  *RuleBook
	clock  clockwork.Clock
}

func NewStreakCalculator(events ActivityLog, cache StreakStore, rules *RuleBook, clock clockwork.Clock) *StreakCalculator {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &StreakCalculator{events: events, cache: cache, rules: rules, clock: clock}
}

// LogActivity records today's activity once; repeat calls on the same local
// day return the existing state untouched.
func (s *StreakCalculator) LogActivity(ctx context.Context, userID, activityType string) (models.StreakState, error) {
	state, _, err := s.logActivity(ctx, userID, activityType, nil)
	return state, err
}

// logActivity also reports whether this call created today's log.
func (s *StreakCalculator) logActivity(ctx context.Context, userID, activityType string, metadata map[string]interface{}) (models.StreakState, bool, error) {
	activityType = normalizeActivity(activityType)
	if userID == "" || activityType == "" {
		return models.StreakState{}, false, ErrInvalidActivity
	}
	loc := s.rules.Load().location()
	now := s.clock.Now()
	key := dayKey(now, loc)

	inserted, err := s.events.Append(ctx, &models.ActionEvent{
		UserID:     userID,
		ActionType: models.ActivityActionType(activityType),
		Timestamp:  now,
		DayKey:     &key,
		Metadata:   datatypes.JSONMap(metadata),
	})
	if err != nil {
		return models.StreakState{}, false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if !inserted {
		cached, err := s.cache.Get(ctx, userID, activityType)
		if err == nil && cached != nil {
			return *cached, false, nil
		}
		state, err := s.recompute(ctx, userID, activityType, now)
		return state, false, err
	}

	state, err := s.recompute(ctx, userID, activityType, now)
	if err != nil {
		return models.StreakState{}, true, err
	}
	if err := s.cache.Upsert(ctx, &state); err != nil {
		logger.Warn().Err(err).Str("user_id", userID).Str("activity", activityType).Msg("streak cache write failed")
	}
	if state.Current > 1 {
		logger.Info().Str("user_id", userID).Str("activity", activityType).Int("streak", state.Current).Msg("🔥 Streak extended")
	}
	return state, true, nil
}

// GetStreak recomputes from the event log without writing anything.
func (s *StreakCalculator) GetStreak(ctx context.Context, userID, activityType string) (models.StreakState, error) {
	activityType = normalizeActivity(activityType)
	if userID == "" || activityType == "" {
		return models.StreakState{}, ErrInvalidActivity
	}
	return s.recompute(ctx, userID, activityType, s.clock.Now())
}

// GetAllStreaks lists cached states, zeroing any that lapsed since they were written.
func (s *StreakCalculator) GetAllStreaks(ctx context.Context, userID string) ([]models.StreakState, error) {
	states, err := s.cache.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	loc := s.rules.Load().location()
	today := dayNumber(s.clock.Now(), loc)
	for i := range states {
		applyLapse(&states[i], today, loc)
	}
	return states, nil
}

// RefreshStaleCaches zeroes cached streaks whose last day is before yesterday.
func (s *StreakCalculator) RefreshStaleCaches(ctx context.Context) (int64, error) {
	loc := s.rules.Load().location()
	yesterday := startOfDay(s.clock.Now(), loc).AddDate(0, 0, -1)
	return s.cache.DeactivateStale(ctx, yesterday)
}

func (s *StreakCalculator) recompute(ctx context.Context, userID, activityType string, now time.Time) (models.StreakState, error) {
	rules := s.rules.Load()
	loc := rules.location()
	lookback := rules.StreakLookbackDays
	if lookback <= 0 {
		lookback = 365
	}
	since := startOfDay(now, loc).AddDate(0, 0, -(lookback - 1))

	events, err := s.events.ListByType(ctx, userID, models.ActivityActionType(activityType), since, lookback)
	if err != nil {
		return models.StreakState{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	days := make([]time.Time, 0, len(events))
	for _, ev := range events {
		days = append(days, ev.Timestamp)
	}
	state := ComputeStreak(days, now, loc)
	state.UserID = userID
	state.ActivityType = activityType
	state.UpdatedAt = now
	return state, nil
}

// ComputeStreak turns activity timestamps into a streak as of now. A streak
// is alive while its last day is today or yesterday.
func ComputeStreak(activity []time.Time, now time.Time, loc *time.Location) models.StreakState {
	if loc == nil {
		loc = time.Local
	}
	seen := make(map[int]struct{}, len(activity))
	days := make([]int, 0, len(activity))
	for _, t := range activity {
		n := dayNumber(t, loc)
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		days = append(days, n)
	}
	if len(days) == 0 {
		return models.StreakState{}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(days)))

	longest, run := 1, 1
	for i := 1; i < len(days); i++ {
		if days[i-1]-days[i] == 1 {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}

	today := dayNumber(now, loc)
	last := dayFromNumber(days[0], loc)
	state := models.StreakState{Longest: longest, LastActivityDate: &last}
	if today-days[0] > 1 {
		return state
	}
	current := 1
	for i := 1; i < len(days) && days[i-1]-days[i] == 1; i++ {
		current++
	}
	state.Current = current
	state.IsActive = true
	return state
}

func applyLapse(state *models.StreakState, today int, loc *time.Location) {
	if state.LastActivityDate == nil || today-dayNumber(*state.LastActivityDate, loc) > 1 {
		state.Current = 0
		state.IsActive = false
	}
}

func normalizeActivity(activityType string) string {
	return strings.ToLower(strings.TrimSpace(activityType))
}
