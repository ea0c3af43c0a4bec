package models

// RequirementKind tags a requirement variant on the wire.
type RequirementKind string

const (
	KindStatSingleGame       RequirementKind = "stat_single_game"
	KindStatTotal            RequirementKind = "stat_total"
	KindStatPercentage       RequirementKind = "stat_percentage"
	KindConsecutiveGames     RequirementKind = "consecutive_games"
	KindSeasonGoalsCompleted RequirementKind = "season_goals_completed"
)

// Requirement is a closed sum type: only the variants below implement it.
// Each variant is measured by exactly one function in the rule engine.
type Requirement interface {
	Kind() RequirementKind
	Threshold() float64
	requirement()
}

// StatSingleGame reads a stat straight off the triggering game.
type StatSingleGame struct {
	Stat   string  `json:"stat"`
	Target float64 `json:"target"`
}

// StatTotal sums a stat over the season lookback window.
type StatTotal struct {
	Stat   string  `json:"stat"`
	Target float64 `json:"target"`
}

// StatPercentage evaluates a ratio stat (e.g. save_percentage) over the season lookback window.
type StatPercentage struct {
	Stat   string  `json:"stat"`
	Target float64 `json:"target"`
}

// ConsecutiveGames counts games in the lookback window.
type ConsecutiveGames struct {
	Target int `json:"target"`
}

// SeasonGoalsCompleted counts completed season goals.
type SeasonGoalsCompleted struct {
	Target int `json:"target"`
}

func (StatSingleGame) Kind() RequirementKind       { return KindStatSingleGame }
func (StatTotal) Kind() RequirementKind            { return KindStatTotal }
func (StatPercentage) Kind() RequirementKind       { return KindStatPercentage }
func (ConsecutiveGames) Kind() RequirementKind     { return KindConsecutiveGames }
func (SeasonGoalsCompleted) Kind() RequirementKind { return KindSeasonGoalsCompleted }

func (r StatSingleGame) Threshold() float64       { return r.Target }
func (r StatTotal) Threshold() float64            { return r.Target }
func (r StatPercentage) Threshold() float64       { return r.Target }
func (r ConsecutiveGames) Threshold() float64     { return float64(r.Target) }
func (r SeasonGoalsCompleted) Threshold() float64 { return float64(r.Target) }

func (StatSingleGame) requirement()       {}
func (StatTotal) requirement()            {}
func (StatPercentage) requirement()       {}
func (ConsecutiveGames) requirement()     {}
func (SeasonGoalsCompleted) requirement() {}

// RequirementView is the flat JSON shape of a requirement.
type RequirementView struct {
	Type   RequirementKind `json:"type"`
	Stat   string          `json:"stat,omitempty"`
	Target float64         `json:"target"`
}

func ViewRequirement(r Requirement) RequirementView {
	v := RequirementView{Type: r.Kind(), Target: r.Threshold()}
	switch req := r.(type) {
	case StatSingleGame:
		v.Stat = req.Stat
	case StatTotal:
		v.Stat = req.Stat
	case StatPercentage:
		v.Stat = req.Stat
	}
	return v
}
