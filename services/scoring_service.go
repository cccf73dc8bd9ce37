package services

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"writing-challenge-api/models"
)

const (
	// DefaultEligibilityThreshold is the minimum quality score a submission
	// needs to be placed. Submissions without a score are never eligible.
	DefaultEligibilityThreshold = 80
	// DefaultScoringDeferral defers scoring to the final part of the window.
	DefaultScoringDeferral = 10 * time.Minute
)

// Notifier fans messages out to their recipients.
type Notifier interface {
	SendMany(ctx context.Context, msgs []Message) (*DeliveryReport, error)
}

type ScoringOptions struct {
	EligibilityThreshold int
	Deferral             time.Duration
}

// ScoringResult describes one scoring attempt.
type ScoringResult struct {
	// Claimed is true when this attempt, or the in-flight attempt it joined,
	// stored the podium.
	Claimed   bool
	Challenge *models.Challenge
	Shares    []int
}

// ScoringService places winners and pays out a challenge's points exactly once.
type ScoringService struct {
	challenges  ChallengeStore
	submissions SubmissionStore
	users       UserStore
	audience    *AudienceResolver
	notifier    Notifier
	threshold   int
	deferral    time.Duration
	group       singleflight.Group
	log         *logrus.Entry
}

func NewScoringService(challenges ChallengeStore, submissions SubmissionStore, users UserStore, audience *AudienceResolver, notifier Notifier, opts ScoringOptions) *ScoringService {
	if opts.Deferral <= 0 {
		opts.Deferral = DefaultScoringDeferral
	}
	return &ScoringService{
		challenges:  challenges,
		submissions: submissions,
		users:       users,
		audience:    audience,
		notifier:    notifier,
		threshold:   opts.EligibilityThreshold,
		deferral:    opts.Deferral,
		log:         logrus.WithField("component", "scoring"),
	}
}

// Due reports whether c should be scored at now. Scoring waits for the last
// part of the window; a challenge whose window closed unscored is due at once.
func (s *ScoringService) Due(c *models.Challenge, now time.Time) bool {
	if c.Scored {
		return false
	}
	switch ResolveStatus(c.StartTime, c.EndTime, now) {
	case models.ChallengeScoring:
		return ScoringTimeLeft(c.EndTime, now) <= s.deferral
	case models.ChallengeEnded:
		return true
	}
	return false
}

// Score computes and stores the podium for c, then credits points and
// notifies. Concurrent calls for the same challenge in this process share
// one attempt; across processes the store's claim picks a single winner.
func (s *ScoringService) Score(ctx context.Context, c *models.Challenge) (*ScoringResult, error) {
	key := strconv.FormatUint(uint64(c.ChallengeID), 10)
	snapshot := *c
	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		return s.score(ctx, &snapshot)
	})
	if err != nil {
		return nil, err
	}
	return v.(*ScoringResult), nil
}

func (s *ScoringService) score(ctx context.Context, c *models.Challenge) (*ScoringResult, error) {
	log := s.log.WithField("challenge_id", c.ChallengeID)

	ranked, err := s.submissions.RankedForChallenge(ctx, c.ChallengeID)
	if err != nil {
		return nil, fmt.Errorf("load submissions for challenge %d: %w", c.ChallengeID, err)
	}
	winners := PickWinners(ranked, s.threshold)
	podium := podiumOf(winners)

	claimed, err := s.challenges.ClaimScoring(ctx, c.ChallengeID, podium)
	if err != nil {
		return nil, fmt.Errorf("claim scoring for challenge %d: %w", c.ChallengeID, err)
	}
	if !claimed {
		log.Debug("scoring already claimed")
		current, err := s.challenges.FindByID(ctx, c.ChallengeID)
		if err != nil {
			return nil, fmt.Errorf("reload challenge %d: %w", c.ChallengeID, err)
		}
		return &ScoringResult{Challenge: current}, nil
	}

	c.Scored = true
	c.FirstPlaceID, c.SecondPlaceID, c.ThirdPlaceID = podium.First, podium.Second, podium.Third
	challengesScored.Inc()

	// The claim is durable. Nothing below may trigger a second scoring, so
	// failures are logged for manual reconciliation.
	ctx = persistentContext(ctx)
	shares := DistributePoints(c.AvailablePoints, c.ParticipationCount, len(winners))
	for i, w := range winners {
		if shares[i] <= 0 {
			continue
		}
		if err := s.users.CreditPoints(ctx, w.AuthorID, shares[i]); err != nil {
			log.WithFields(logrus.Fields{"user_id": w.AuthorID, "points": shares[i]}).
				Errorf("point credit failed after scoring claim: %v", err)
			continue
		}
		pointsCredited.Add(float64(shares[i]))
	}

	if _, err := s.notifier.SendMany(ctx, s.audience.ForChallengeScored(c)); err != nil {
		log.Errorf("winner notifications failed after scoring claim: %v", err)
	}

	log.WithFields(logrus.Fields{"winners": len(winners), "shares": shares}).Info("challenge scored")
	return &ScoringResult{Claimed: true, Challenge: c, Shares: shares}, nil
}

// PickWinners filters submissions through the eligibility gate and returns up
// to three, ordered by upvotes, then earliest submission, then lowest id.
func PickWinners(ranked []models.RankedSubmission, threshold int) []models.RankedSubmission {
	eligible := make([]models.RankedSubmission, 0, len(ranked))
	for _, r := range ranked {
		if r.QualityScore != nil && *r.QualityScore >= threshold {
			eligible = append(eligible, r)
		}
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		a, b := eligible[i], eligible[j]
		if a.Upvotes != b.Upvotes {
			return a.Upvotes > b.Upvotes
		}
		if !a.CreateAt.Equal(b.CreateAt) {
			return a.CreateAt.Before(b.CreateAt)
		}
		return a.SubmissionID < b.SubmissionID
	})
	if len(eligible) > 3 {
		eligible = eligible[:3]
	}
	return eligible
}

func podiumOf(winners []models.RankedSubmission) models.Podium {
	var p models.Podium
	places := []**uint{&p.First, &p.Second, &p.Third}
	for i, w := range winners {
		id := w.AuthorID
		*places[i] = &id
	}
	return p
}
