package services

import "youth-sports-gamification/models"

type ratio struct {
	numerator   string
	denominator string
}

// ratioStats are derived stats: sum(numerator) / sum(denominator) × 100.
var ratioStats = map[string]ratio{
	models.StatSavePercentage: {numerator: models.StatSaves, denominator: models.StatShotsAgainst},
}

// AggregateStat folds a stat over games. Ratio stats are computed from their
// summed parts (0 when the denominator is 0); everything else is a plain sum.
// Badge rules and season goals both read stats through here.
func AggregateStat(games []models.GameRecord, stat string) float64 {
	if r, ok := ratioStats[stat]; ok {
		num, den := sumStat(games, r.numerator), sumStat(games, r.denominator)
		if den <= 0 {
			return 0
		}
		return num / den * 100
	}
	return sumStat(games, stat)
}

func sumStat(games []models.GameRecord, stat string) float64 {
	var total float64
	for i := range games {
		total += games[i].Stat(stat)
	}
	return total
}
