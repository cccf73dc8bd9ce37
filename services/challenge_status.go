package services

import (
	"time"

	"writing-challenge-api/models"
)

// ScoringWindow is the period after a challenge ends during which late votes
// still count before results lock.
const ScoringWindow = time.Hour

// ResolveStatus derives a challenge's lifecycle state from wall-clock time.
func ResolveStatus(start, end, now time.Time) models.ChallengeStatus {
	if timeToStart := start.Sub(now); timeToStart > 0 {
		return models.ChallengeUpcoming
	}
	if timeToEnd := end.Sub(now); timeToEnd > 0 {
		return models.ChallengeInProgress
	}
	if timeToScore := end.Sub(now) + ScoringWindow; timeToScore > 0 {
		return models.ChallengeScoring
	}
	return models.ChallengeEnded
}

// ScoringTimeLeft returns how much of the scoring window remains at now.
// The result is negative once the window has closed.
func ScoringTimeLeft(end, now time.Time) time.Duration {
	return end.Sub(now) + ScoringWindow
}
