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

// TriggerContext is what caused an evaluation. Game may be nil for
// evaluations that are not tied to a logged game.
type TriggerContext struct {
	Game     *models.GameRecord
	Position string
	EventID  string
}

// BadgeProgress is a badge as shown on the progress screen.
type BadgeProgress struct {
	Badge    models.Badge `json:"badge"`
	Unlocked bool         `json:"unlocked"`
	Progress int          `json:"progress"`
}

type UnlockedBadge struct {
	Badge      models.Badge `json:"badge"`
	UnlockedAt time.Time    `json:"unlocked_at"`
}

// ruleInput is the data every requirement is measured against.
type ruleInput struct {
	trigger        *models.GameRecord
	games          []models.GameRecord
	goalsCompleted int
}

// BadgeEngine evaluates the static catalog against a user's history.
type BadgeEngine struct {
	Catalog []models.Badge

	badges BadgeStore
	games  GameStore
	goals  GoalStore
	ledger Awarder
	rules  *RuleBook
	clock  clockwork.Clock
}

func NewBadgeEngine(badges BadgeStore, games GameStore, goals GoalStore, ledger Awarder, rules *RuleBook, clock clockwork.Clock) *BadgeEngine {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &BadgeEngine{
		Catalog: models.BadgeCatalog,
		badges:  badges,
		games:   games,
		goals:   goals,
		ledger:  ledger,
		rules:   rules,
		clock:   clock,
	}
}

// Evaluate unlocks every in-scope badge whose requirements all hold and that
// the user does not own yet. Each unlock pays rarity-scaled achievement XP.
func (e *BadgeEngine) Evaluate(ctx context.Context, userID string, trig TriggerContext) ([]models.Badge, error) {
	owned, err := e.ownedSet(ctx, userID)
	if err != nil {
		return nil, err
	}
	position := trig.Position
	if position == "" && trig.Game != nil {
		position = trig.Game.Position
	}
	in, err := e.loadInput(ctx, userID, trig.Game)
	if err != nil {
		return nil, err
	}

	var eventID *string
	if trig.EventID != "" {
		id := trig.EventID
		eventID = &id
	}

	unlocked := make([]models.Badge, 0)
	for _, badge := range e.Catalog {
		if _, ok := owned[badge.ID]; ok || !badge.AppliesTo(position) {
			continue
		}
		ok, err := satisfiesAll(badge.Requirements, in)
		if err != nil {
			logger.Error().Err(err).Str("badge", badge.ID).Msg("badge rule skipped")
			continue
		}
		if !ok {
			continue
		}

		inserted, err := e.badges.Insert(ctx, &models.UserBadge{
			UserID:            userID,
			BadgeID:           badge.ID,
			UnlockedAt:        e.clock.Now(),
			TriggeringEventID: eventID,
		})
		if err != nil {
			return unlocked, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		if !inserted {
			continue
		}
		logger.Info().Str("user_id", userID).Str("badge", badge.ID).Msg("🏅 Badge unlocked")

		if e.ledger != nil {
			res, err := e.ledger.Award(ctx, userID, models.ActionAchievementUnlocked, map[string]interface{}{
				MetaRarity: string(badge.Rarity),
				"badge_id": badge.ID,
			})
			if err != nil {
				logger.Warn().Err(err).Str("badge", badge.ID).Msg("badge XP not awarded")
			} else if !res.Awarded {
				logger.Debug().Str("badge", badge.ID).Str("reason", string(res.Reason)).Msg("badge XP denied")
			}
		}
		unlocked = append(unlocked, badge)
	}
	return unlocked, nil
}

// Progress shows how close the user is to each in-scope badge. Display uses
// the best requirement (MAX) even though unlocking needs all of them.
func (e *BadgeEngine) Progress(ctx context.Context, userID, position string) ([]BadgeProgress, error) {
	owned, err := e.ownedSet(ctx, userID)
	if err != nil {
		return nil, err
	}
	in, err := e.loadInput(ctx, userID, nil)
	if err != nil {
		return nil, err
	}
	if len(in.games) > 0 {
		in.trigger = &in.games[0]
	}

	out := make([]BadgeProgress, 0, len(e.Catalog))
	for _, badge := range e.Catalog {
		if !badge.AppliesTo(position) {
			continue
		}
		bp := BadgeProgress{Badge: badge}
		if _, ok := owned[badge.ID]; ok {
			bp.Unlocked = true
			bp.Progress = 100
			out = append(out, bp)
			continue
		}
		for _, req := range badge.Requirements {
			v, err := measure(req, in)
			if err != nil {
				continue
			}
			if pct := requirementPercent(v, req.Threshold()); pct > bp.Progress {
				bp.Progress = pct
			}
		}
		out = append(out, bp)
	}
	return out, nil
}

func (e *BadgeEngine) GetUserBadges(ctx context.Context, userID string) ([]UnlockedBadge, error) {
	rows, err := e.badges.ListUnlocked(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	out := make([]UnlockedBadge, 0, len(rows))
	for _, row := range rows {
		badge, ok := e.find(row.BadgeID)
		if !ok {
			logger.Debug().Str("badge", row.BadgeID).Msg("unlocked badge no longer in catalog")
			continue
		}
		out = append(out, UnlockedBadge{Badge: badge, UnlockedAt: row.UnlockedAt})
	}
	return out, nil
}

// GetAvailableBadges filters the catalog by position; empty or "all" returns everything.
func (e *BadgeEngine) GetAvailableBadges(position string) []models.Badge {
	position = strings.TrimSpace(position)
	out := make([]models.Badge, 0, len(e.Catalog))
	for _, b := range e.Catalog {
		if position == "" || strings.EqualFold(position, models.PositionAll) || b.AppliesTo(position) {
			out = append(out, b)
		}
	}
	return out
}

func (e *BadgeEngine) find(id string) (models.Badge, bool) {
	for _, b := range e.Catalog {
		if b.ID == id {
			return b, true
		}
	}
	return models.Badge{}, false
}

func (e *BadgeEngine) ownedSet(ctx context.Context, userID string) (map[string]struct{}, error) {
	rows, err := e.badges.ListUnlocked(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	owned := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		owned[r.BadgeID] = struct{}{}
	}
	return owned, nil
}

func (e *BadgeEngine) loadInput(ctx context.Context, userID string, trigger *models.GameRecord) (*ruleInput, error) {
	rules := e.rules.Load()
	games, err := e.games.Recent(ctx, userID, rules.BadgeLookbackGames)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	games = includeGame(games, trigger, rules.BadgeLookbackGames)

	goals, err := e.goals.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	completed := 0
	for _, gp := range Summarize(goals, games).Goals {
		if gp.IsCompleted {
			completed++
		}
	}
	return &ruleInput{trigger: trigger, games: games, goalsCompleted: completed}, nil
}

// includeGame makes sure the triggering game is part of the window even if
// the caller has not persisted it yet.
func includeGame(games []models.GameRecord, game *models.GameRecord, limit int) []models.GameRecord {
	if game == nil {
		return games
	}
	for _, g := range games {
		if g.ID == game.ID {
			return games
		}
	}
	out := append([]models.GameRecord{*game}, games...)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func capGames(games []models.GameRecord, limit int) []models.GameRecord {
	if limit > 0 && len(games) > limit {
		return games[:limit]
	}
	return games
}

func excludeGame(games []models.GameRecord, id string) []models.GameRecord {
	out := make([]models.GameRecord, 0, len(games))
	for _, g := range games {
		if g.ID != id {
			out = append(out, g)
		}
	}
	return out
}

func satisfiesAll(reqs []models.Requirement, in *ruleInput) (bool, error) {
	if len(reqs) == 0 {
		return false, nil
	}
	for _, req := range reqs {
		v, err := measure(req, in)
		if err != nil {
			return false, err
		}
		if v < req.Threshold() {
			return false, nil
		}
	}
	return true, nil
}

// measure dispatches each requirement variant to its own measuring function.
func measure(req models.Requirement, in *ruleInput) (float64, error) {
	switch r := req.(type) {
	case models.StatSingleGame:
		return measureSingleGame(r, in), nil
	case models.StatTotal:
		return measureTotal(r, in), nil
	case models.StatPercentage:
		return measurePercentage(r, in), nil
	case models.ConsecutiveGames:
		return measureGamesPlayed(r, in), nil
	case models.SeasonGoalsCompleted:
		return measureGoalsCompleted(r, in), nil
	default:
		return 0, fmt.Errorf("unknown requirement kind %q", req.Kind())
	}
}

func measureSingleGame(r models.StatSingleGame, in *ruleInput) float64 {
	if in.trigger == nil {
		return 0
	}
	return AggregateStat([]models.GameRecord{*in.trigger}, r.Stat)
}

func measureTotal(r models.StatTotal, in *ruleInput) float64 {
	return AggregateStat(in.games, r.Stat)
}

func measurePercentage(r models.StatPercentage, in *ruleInput) float64 {
	return AggregateStat(in.games, r.Stat)
}

func measureGamesPlayed(_ models.ConsecutiveGames, in *ruleInput) float64 {
	return float64(len(in.games))
}

func measureGoalsCompleted(_ models.SeasonGoalsCompleted, in *ruleInput) float64 {
	return float64(in.goalsCompleted)
}

func requirementPercent(value, threshold float64) int {
	if threshold <= 0 {
		return 100
	}
	return clampPercent(value / threshold * 100)
}
