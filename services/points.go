package services

import (
	"math"
	"time"

	"writing-challenge-api/models"
)

const (
	basePoints          = 50
	shortChallengeBonus = 20
	limitationBonus     = 10
	shortChallengeLimit = 7 * 24 * time.Hour
)

var skillMultiplier = map[models.SkillLevel]float64{
	models.SkillBeginner:     1,
	models.SkillIntermediate: 1.5,
	models.SkillAdvanced:     2,
}

// AvailablePoints computes the prize pool fixed at challenge creation.
func AvailablePoints(level models.SkillLevel, start, end time.Time, limits models.Limitations) int {
	mult, ok := skillMultiplier[level]
	if !ok {
		mult = 1
	}
	points := int(math.Floor(basePoints * mult))
	if end.Sub(start) < shortChallengeLimit {
		points += shortChallengeBonus
	}
	points += limitationBonus * limits.Categories()
	return points
}

// podiumShares are the percentage splits used once three or more people took part.
var podiumShares = [3]int{50, 30, 20}

// DistributePoints splits available points among up to three winners. Every
// share is floored on its own and the remainder is not redistributed.
func DistributePoints(available, participation, winners int) []int {
	if winners <= 0 || available <= 0 {
		return make([]int, max(winners, 0))
	}
	if winners > len(podiumShares) {
		winners = len(podiumShares)
	}

	shares := make([]int, winners)
	switch {
	case participation <= 1:
		shares[0] = available
	case participation == 2:
		for i := 0; i < winners && i < 2; i++ {
			shares[i] = available / 2
		}
	default:
		for i := range shares {
			shares[i] = available * podiumShares[i] / 100
		}
	}
	return shares
}
