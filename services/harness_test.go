package services

import (
	"testing"
	"time"

	"writing-challenge-api/models"
)

var testBase = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type harness struct {
	clock         *fixedClock
	challenges    *memChallengeStore
	submissions   *memSubmissionStore
	users         *memUserStore
	notifStore    *memNotificationStore
	publisher     *recordingPublisher
	notifications *NotificationService
	audience      *AudienceResolver
	scoring       *ScoringService
	lifecycle     *ChallengeService
}

func newHarness(t *testing.T, users ...models.User) *harness {
	t.Helper()
	h := &harness{
		clock:       &fixedClock{t: testBase},
		challenges:  newMemChallengeStore(),
		submissions: newMemSubmissionStore(),
		users:       newMemUserStore(users...),
		notifStore:  newMemNotificationStore(),
		publisher:   &recordingPublisher{},
	}
	h.notifications = NewNotificationService(h.notifStore, h.users, h.publisher, nil, NotificationOptions{Now: h.clock.Now})
	h.audience = NewAudienceResolver(h.users)
	h.scoring = NewScoringService(h.challenges, h.submissions, h.users, h.audience, h.notifications, ScoringOptions{
		EligibilityThreshold: DefaultEligibilityThreshold,
	})
	h.lifecycle = NewChallengeService(h.challenges, h.submissions, h.scoring, h.audience, h.notifications, h.clock.Now)
	return h
}

// seedChallenge stores a challenge that ran from start to end.
func (h *harness) seedChallenge(id, author uint, start, end time.Time, status models.ChallengeStatus, points int) models.Challenge {
	c := models.Challenge{
		ChallengeID:     id,
		AuthorID:        author,
		Name:            "The Lighthouse",
		Genre:           models.GenreMystery,
		SkillLevel:      models.SkillBeginner,
		StartTime:       start,
		EndTime:         end,
		Status:          status,
		AvailablePoints: points,
	}
	h.challenges.mu.Lock()
	h.challenges.items[id] = c
	h.challenges.mu.Unlock()
	return c
}

func entry(id, author uint, score *int, upvotes int64, at time.Time) models.RankedSubmission {
	return models.RankedSubmission{
		Submission: models.Submission{SubmissionID: id, AuthorID: author, QualityScore: score, CreateAt: at},
		Upvotes:    upvotes,
	}
}
