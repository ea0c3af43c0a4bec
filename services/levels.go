package services

import "math"

// BaseXPPerLevel scales the level curve: level n → n+1 needs floor(100 * n^1.2) XP.
const BaseXPPerLevel = 100

const maxLevel = 500

// xpForNextLevel returns XP required to reach level+1 from current level
func xpForNextLevel(currentLevel int) int64 {
	if currentLevel < 1 {
		currentLevel = 1
	}
	return int64(float64(BaseXPPerLevel) * math.Pow(float64(currentLevel), 1.2))
}

// LevelForXP walks the curve from level 1 and returns the level reached with
// totalXP, plus the XP still missing for the next one.
func LevelForXP(totalXP int64) (level int, toNext int64) {
	level = 1
	remaining := totalXP
	for level < maxLevel {
		need := xpForNextLevel(level)
		if remaining < need {
			return level, need - remaining
		}
		remaining -= need
		level++
	}
	return level, 0
}

// RankThresholds: rank → min level
var RankThresholds = map[int]int{
	1: 1,   // Rookie
	2: 5,   // Bronze
	3: 10,  // Silver
	4: 25,  // Gold
	5: 50,  // Platinum
	6: 100, // Diamond
}

func determineRank(level int) int {
	for rank := len(RankThresholds); rank >= 1; rank-- {
		if level >= RankThresholds[rank] {
			return rank
		}
	}
	return 1
}

func RankName(rank int) string {
	switch rank {
	case 1:
		return "Rookie"
	case 2:
		return "Bronze"
	case 3:
		return "Silver"
	case 4:
		return "Gold"
	case 5:
		return "Platinum"
	case 6:
		return "Diamond"
	default:
		return "Legend"
	}
}
