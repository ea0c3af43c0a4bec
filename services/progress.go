package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"youth-sports-gamification/models"
)

var ErrInvalidGoal = errors.New("goal needs a stat type and a positive target")

// ProgressSummary is every season goal's progress plus their mean.
type ProgressSummary struct {
	Goals           []models.GoalProgress `json:"goals"`
	OverallProgress float64               `json:"overall_progress"`
}

type ProgressAggregator struct {
	goals GoalStore
	games GameStore
	rules *RuleBook
}

func NewProgressAggregator(goals GoalStore, games GameStore, rules *RuleBook) *ProgressAggregator {
	return &ProgressAggregator{goals: goals, games: games, rules: rules}
}

func (p *ProgressAggregator) GetProgress(ctx context.Context, userID string) (ProgressSummary, error) {
	goals, err := p.goals.ListByUser(ctx, userID)
	if err != nil {
		return ProgressSummary{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if len(goals) == 0 {
		return Summarize(nil, nil), nil
	}
	games, err := p.recentGames(ctx, userID)
	if err != nil {
		return ProgressSummary{}, err
	}
	return Summarize(goals, games), nil
}

func (p *ProgressAggregator) CreateGoal(ctx context.Context, userID, statType string, target float64) (*models.SeasonGoal, error) {
	statType = strings.ToLower(strings.TrimSpace(statType))
	if userID == "" || statType == "" || target <= 0 || math.IsNaN(target) || math.IsInf(target, 0) {
		return nil, ErrInvalidGoal
	}
	goal := &models.SeasonGoal{UserID: userID, StatType: statType, Target: target}
	if err := p.goals.Create(ctx, goal); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return goal, nil
}

func (p *ProgressAggregator) ListGoals(ctx context.Context, userID string) ([]models.SeasonGoal, error) {
	goals, err := p.goals.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if goals == nil {
		goals = []models.SeasonGoal{}
	}
	return goals, nil
}

func (p *ProgressAggregator) recentGames(ctx context.Context, userID string) ([]models.GameRecord, error) {
	games, err := p.games.Recent(ctx, userID, p.rules.Load().BadgeLookbackGames)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return games, nil
}

// Summarize computes goal progress over a fixed set of games.
func Summarize(goals []models.SeasonGoal, games []models.GameRecord) ProgressSummary {
	out := ProgressSummary{Goals: make([]models.GoalProgress, 0, len(goals))}
	if len(goals) == 0 {
		return out
	}
	var sum float64
	for _, g := range goals {
		gp := GoalProgressFor(g, games)
		sum += float64(gp.Percentage)
		out.Goals = append(out.Goals, gp)
	}
	out.OverallProgress = sum / float64(len(goals))
	return out
}

// GoalProgressFor rounds percentage into [0, 100]; a non-positive target counts as done.
// Completion is current >= target, so 100 can show just short of done.
func GoalProgressFor(goal models.SeasonGoal, games []models.GameRecord) models.GoalProgress {
	current := AggregateStat(games, goal.StatType)
	gp := models.GoalProgress{Goal: goal, Current: current}
	if goal.Target <= 0 {
		gp.Percentage = 100
		gp.IsCompleted = true
		return gp
	}
	gp.Percentage = clampPercent(current / goal.Target * 100)
	gp.IsCompleted = current >= goal.Target
	return gp
}

func clampPercent(v float64) int {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= 100 {
		return 100
	}
	return int(math.Round(v))
}
