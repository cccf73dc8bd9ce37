package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"writing-challenge-api/errs"
	"writing-challenge-api/models"
)

func validInput() CreateChallengeInput {
	lo, hi := 300, 1200
	return CreateChallengeInput{
		AuthorID:    1,
		Name:        "  The Lighthouse ",
		Prompt:      "Write about a light that never goes out.",
		Genre:       models.GenreMystery,
		SkillLevel:  models.SkillBeginner,
		StartTime:   testBase.Add(time.Hour),
		EndTime:     testBase.Add(25 * time.Hour),
		Limitations: models.Limitations{Words: &models.Range{Min: &lo, Max: &hi}},
	}
}

func TestCreateStoresChallengeAndNotifiesAudience(t *testing.T) {
	h := newHarness(t, optedIn(1, models.SkillBeginner), optedIn(2, models.SkillAdvanced))
	h.users.follow(2, 1)

	c, err := h.lifecycle.Create(context.Background(), validInput())
	require.NoError(t, err)

	assert.NotZero(t, c.ChallengeID)
	assert.Equal(t, "The Lighthouse", c.Name)
	assert.Equal(t, models.ChallengeUpcoming, c.Status)
	assert.Equal(t, 80, c.AvailablePoints)
	assert.False(t, c.Scored)

	stored := h.challenges.get(c.ChallengeID)
	assert.Equal(t, 80, stored.AvailablePoints)
	assert.Equal(t, 1, stored.Limitations.Data().Categories())

	require.Len(t, h.notifStore.forUser(1), 1)
	require.Len(t, h.notifStore.forUser(2), 1)
	assert.Equal(t, models.NotificationFollowActivity, h.notifStore.forUser(2)[0].Type)
}

func TestCreateSucceedsWhenFanoutFails(t *testing.T) {
	h := newHarness(t, optedIn(1, models.SkillBeginner))
	h.notifStore.insertErr = errBoom

	c, err := h.lifecycle.Create(context.Background(), validInput())
	require.NoError(t, err)
	assert.NotZero(t, h.challenges.get(c.ChallengeID).ChallengeID)
}

func TestCreateValidation(t *testing.T) {
	cases := map[string]func(in *CreateChallengeInput){
		"missing name":       func(in *CreateChallengeInput) { in.Name = "   " },
		"end before start":   func(in *CreateChallengeInput) { in.EndTime = in.StartTime.Add(-time.Minute) },
		"unknown genre":      func(in *CreateChallengeInput) { in.Genre = "cooking" },
		"unknown skill":      func(in *CreateChallengeInput) { in.SkillLevel = "expert" },
		"negative range":     func(in *CreateChallengeInput) { in.Limitations.Time = &models.Range{Min: intPtr(-1)} },
		"blank phrase":       func(in *CreateChallengeInput) { in.Limitations.RequiredPhrases = []string{"ok", " "} },
		"missing author":     func(in *CreateChallengeInput) { in.AuthorID = 0 },
		"inverted word span": func(in *CreateChallengeInput) { in.Limitations.Words = &models.Range{Min: intPtr(10), Max: intPtr(5)} },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t, optedIn(1, models.SkillBeginner))
			in := validInput()
			mutate(&in)

			_, err := h.lifecycle.Create(context.Background(), in)
			require.ErrorIs(t, err, errs.ErrValidation)
			list, _ := h.challenges.List(context.Background())
			assert.Empty(t, list)
		})
	}
}

func TestChallengeLifecycleFromCreationToScored(t *testing.T) {
	h := newHarness(t,
		optedIn(1, models.SkillBeginner),
		optedIn(11, models.SkillBeginner),
		optedIn(12, models.SkillBeginner),
		optedIn(13, models.SkillBeginner),
	)
	ctx := context.Background()

	in := validInput()
	in.StartTime = testBase.Add(time.Hour)
	in.EndTime = testBase.Add(2 * time.Hour)
	created, err := h.lifecycle.Create(ctx, in)
	require.NoError(t, err)
	id := created.ChallengeID

	steps := []struct {
		at         time.Time
		wantStatus models.ChallengeStatus
		wantScored bool
	}{
		{testBase, models.ChallengeUpcoming, false},
		{in.StartTime.Add(30 * time.Minute), models.ChallengeInProgress, false},
		{in.EndTime.Add(30 * time.Minute), models.ChallengeScoring, false},
		{in.EndTime.Add(65 * time.Minute), models.ChallengeEnded, true},
		{in.EndTime.Add(48 * time.Hour), models.ChallengeEnded, true},
	}

	lastRank := 0
	for i, step := range steps {
		if i == 1 {
			h.submissions.add(id,
				entry(1, 11, intPtr(92), 8, step.at),
				entry(2, 12, intPtr(85), 4, step.at),
				entry(3, 13, intPtr(81), 2, step.at),
			)
		}
		h.clock.Set(step.at)

		got, err := h.lifecycle.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, step.wantStatus, got.Status, "step %d", i)
		assert.Equal(t, step.wantScored, got.Scored, "step %d", i)
		assert.GreaterOrEqual(t, got.Status.Rank(), lastRank, "status moved backwards at step %d", i)
		lastRank = got.Status.Rank()
	}

	final := h.challenges.get(id)
	assert.Equal(t, 3, final.ParticipationCount)
	assert.Equal(t, []uint{11, 12, 13}, final.Winners())
	assert.Equal(t, 1, h.challenges.claims)
	assert.Equal(t, 40, h.users.points(11))
	assert.Equal(t, 24, h.users.points(12))
	assert.Equal(t, 16, h.users.points(13))
}

func TestSweepNeverRegressesStatus(t *testing.T) {
	h := newHarness(t)
	h.seedChallenge(1, 1, testBase.Add(-time.Hour), testBase.Add(time.Hour), models.ChallengeEnded, 50)
	// A stale ended challenge that somehow still reads as in progress.
	c := h.challenges.get(1)
	c.Scored = true
	h.challenges.items[1] = c

	got, err := h.lifecycle.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, models.ChallengeEnded, got.Status)
	assert.Zero(t, h.challenges.updates)
}

func TestSweepContinuesPastFailures(t *testing.T) {
	h := newHarness(t, optedIn(1, models.SkillBeginner))
	h.seedChallenge(1, 1, testBase.Add(-4*time.Hour), testBase.Add(-3*time.Hour), models.ChallengeScoring, 50)
	h.seedChallenge(2, 1, testBase.Add(time.Hour), testBase.Add(2*time.Hour), models.ChallengeUpcoming, 50)
	h.seedChallenge(3, 1, testBase.Add(-time.Hour), testBase.Add(time.Hour), models.ChallengeUpcoming, 50)
	h.challenges.claimErr = errBoom

	items, err := h.challenges.List(context.Background())
	require.NoError(t, err)

	summary, err := h.lifecycle.Sweep(context.Background(), items, "test")
	require.ErrorIs(t, err, errBoom)
	assert.Equal(t, 3, summary.Checked)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, summary.Updated)
	assert.Equal(t, models.ChallengeEnded, h.challenges.get(1).Status)
	assert.Equal(t, models.ChallengeInProgress, h.challenges.get(3).Status)
}

func TestListSweepsEveryChallenge(t *testing.T) {
	h := newHarness(t)
	h.seedChallenge(1, 1, testBase.Add(-time.Hour), testBase.Add(time.Hour), models.ChallengeUpcoming, 50)
	h.seedChallenge(2, 1, testBase.Add(time.Hour), testBase.Add(2*time.Hour), models.ChallengeUpcoming, 50)

	items, err := h.lifecycle.List(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, models.ChallengeInProgress, items[0].Status)
	assert.Equal(t, models.ChallengeUpcoming, items[1].Status)
}

func TestListReturnsChallengesWhenOneSweepFails(t *testing.T) {
	h := newHarness(t, optedIn(1, models.SkillBeginner))
	h.seedChallenge(1, 1, testBase.Add(-4*time.Hour), testBase.Add(-3*time.Hour), models.ChallengeScoring, 50)
	h.seedChallenge(2, 1, testBase.Add(-time.Hour), testBase.Add(time.Hour), models.ChallengeUpcoming, 50)
	h.challenges.claimErr = errBoom

	items, err := h.lifecycle.List(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.False(t, items[0].Scored)
	assert.Equal(t, models.ChallengeInProgress, items[1].Status)
	assert.False(t, h.challenges.get(1).Scored)
}

func TestGetUnknownChallenge(t *testing.T) {
	h := newHarness(t)
	_, err := h.lifecycle.Get(context.Background(), 404)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}
