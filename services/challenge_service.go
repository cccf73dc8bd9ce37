package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"writing-challenge-api/errs"
	"writing-challenge-api/models"
	"writing-challenge-api/utils"
)

// CreateChallengeInput carries the author-supplied challenge fields.
type CreateChallengeInput struct {
	AuthorID    uint              `validate:"required"`
	Name        string            `validate:"required,max=200"`
	Description string            `validate:"max=5000"`
	Prompt      string            `validate:"required,max=5000"`
	Genre       models.Genre      `validate:"required"`
	SkillLevel  models.SkillLevel `validate:"required"`
	StartTime   time.Time         `validate:"required"`
	EndTime     time.Time         `validate:"required,gtfield=StartTime"`
	Limitations models.Limitations
}

// SweepSummary counts what one sweep over a set of challenges did.
type SweepSummary struct {
	Checked             int   `json:"checked"`
	Updated             int   `json:"updated"`
	Scored              int   `json:"scored"`
	Failed              int   `json:"failed"`
	NotificationsPurged int64 `json:"notifications_purged"`
}

// ChallengeService exposes challenge reads and creation. Every read runs the
// lifecycle sweep over what it returns.
type ChallengeService struct {
	challenges  ChallengeStore
	submissions SubmissionStore
	scoring     *ScoringService
	audience    *AudienceResolver
	notifier    Notifier
	validate    *validator.Validate
	now         func() time.Time
	log         *logrus.Entry
}

func NewChallengeService(challenges ChallengeStore, submissions SubmissionStore, scoring *ScoringService, audience *AudienceResolver, notifier Notifier, now func() time.Time) *ChallengeService {
	if now == nil {
		now = time.Now
	}
	return &ChallengeService{
		challenges:  challenges,
		submissions: submissions,
		scoring:     scoring,
		audience:    audience,
		notifier:    notifier,
		validate:    validator.New(),
		now:         now,
		log:         logrus.WithField("component", "lifecycle"),
	}
}

func (s *ChallengeService) List(ctx context.Context) ([]models.Challenge, error) {
	items, err := s.challenges.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list challenges: %w", err)
	}
	s.sweepForRead(ctx, items)
	return items, nil
}

func (s *ChallengeService) Get(ctx context.Context, id uint) (*models.Challenge, error) {
	c, err := s.challenges.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get challenge %d: %w", id, err)
	}
	items := []models.Challenge{*c}
	s.sweepForRead(ctx, items)
	return &items[0], nil
}

// sweepForRead runs the lifecycle sweep for a read. Failures are logged per
// challenge by Sweep and leave that challenge as stored, so one broken row
// does not fail the whole read.
func (s *ChallengeService) sweepForRead(ctx context.Context, items []models.Challenge) {
	if summary, err := s.Sweep(ctx, items, "read"); err != nil {
		s.log.WithField("failed", summary.Failed).Warn("read returned challenges with a failed sweep")
	}
}

// Create validates input, fixes the prize pool, stores the challenge and
// notifies its audience. Fan-out failures do not undo the creation.
func (s *ChallengeService) Create(ctx context.Context, in CreateChallengeInput) (*models.Challenge, error) {
	in.Name = utils.SanitizeInput(in.Name)
	in.Prompt = utils.SanitizeInput(in.Prompt)
	in.Description = utils.SanitizeInput(in.Description)
	if n := len(in.Limitations.RequiredPhrases); n > 0 {
		phrases := make([]string, n)
		for i, phrase := range in.Limitations.RequiredPhrases {
			phrases[i] = utils.SanitizeInput(phrase)
		}
		in.Limitations.RequiredPhrases = phrases
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrValidation, err)
	}
	if !in.Genre.Valid() {
		return nil, fmt.Errorf("%w: unknown genre %q", errs.ErrValidation, in.Genre)
	}
	if !in.SkillLevel.Valid() {
		return nil, fmt.Errorf("%w: unknown skill level %q", errs.ErrValidation, in.SkillLevel)
	}
	if err := ValidateLimitations(in.Limitations); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	c := &models.Challenge{
		AuthorID:        in.AuthorID,
		Name:            in.Name,
		Description:     in.Description,
		Prompt:          in.Prompt,
		Genre:           in.Genre,
		SkillLevel:      in.SkillLevel,
		StartTime:       in.StartTime.UTC(),
		EndTime:         in.EndTime.UTC(),
		Limitations:     datatypes.NewJSONType(in.Limitations),
		Status:          ResolveStatus(in.StartTime, in.EndTime, now),
		AvailablePoints: AvailablePoints(in.SkillLevel, in.StartTime, in.EndTime, in.Limitations),
		CreateAt:        now,
		UpdateAt:        now,
	}
	if err := s.challenges.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create challenge: %w", err)
	}

	log := s.log.WithField("challenge_id", c.ChallengeID)
	fanoutCtx := persistentContext(ctx)
	msgs, err := s.audience.ForChallengeCreated(fanoutCtx, c)
	if err != nil {
		log.Errorf("resolve audience for new challenge: %v", err)
		return c, nil
	}
	report, err := s.notifier.SendMany(fanoutCtx, msgs)
	if err != nil {
		log.Errorf("notify audience for new challenge: %v", err)
		return c, nil
	}
	log.WithFields(logrus.Fields{"delivered": report.Delivered, "skipped": report.Skipped}).Info("challenge created")
	return c, nil
}

// ValidateLimitations rejects negative or inverted ranges and blank phrases.
func ValidateLimitations(l models.Limitations) error {
	ranges := map[string]*models.Range{"time": l.Time, "words": l.Words, "characters": l.Characters}
	for name, r := range ranges {
		if r == nil {
			continue
		}
		if (r.Min != nil && *r.Min < 0) || (r.Max != nil && *r.Max < 0) {
			return fmt.Errorf("%w: %s limitation must not be negative", errs.ErrValidation, name)
		}
		if r.Min != nil && r.Max != nil && *r.Min > *r.Max {
			return fmt.Errorf("%w: %s limitation min exceeds max", errs.ErrValidation, name)
		}
	}
	for i, phrase := range l.RequiredPhrases {
		if strings.TrimSpace(phrase) == "" {
			return fmt.Errorf("%w: required phrase %d is empty", errs.ErrValidation, i)
		}
	}
	return nil
}

// Sweep recomputes status and participation for every challenge in place,
// persists what changed and scores challenges that are due. It keeps going
// past individual failures and returns them joined.
func (s *ChallengeService) Sweep(ctx context.Context, items []models.Challenge, source string) (*SweepSummary, error) {
	summary := &SweepSummary{}
	now := s.now().UTC()

	var failures []error
	for i := range items {
		summary.Checked++
		updated, scored, err := s.sweepOne(ctx, &items[i], now)
		if err != nil {
			summary.Failed++
			failures = append(failures, err)
			s.log.WithField("challenge_id", items[i].ChallengeID).Errorf("sweep failed: %v", err)
			continue
		}
		if updated {
			summary.Updated++
		}
		if scored {
			summary.Scored++
		}
	}

	outcome := "ok"
	if len(failures) > 0 {
		outcome = "error"
	}
	sweepRuns.WithLabelValues(source, outcome).Inc()
	return summary, errors.Join(failures...)
}

func (s *ChallengeService) sweepOne(ctx context.Context, c *models.Challenge, now time.Time) (updated, scored bool, err error) {
	count, err := s.submissions.CountForChallenge(ctx, c.ChallengeID)
	if err != nil {
		return false, false, fmt.Errorf("count submissions for challenge %d: %w", c.ChallengeID, err)
	}

	status := ResolveStatus(c.StartTime, c.EndTime, now)
	if status.Rank() < c.Status.Rank() {
		status = c.Status
	}

	if status != c.Status || count != c.ParticipationCount {
		applied, err := s.challenges.UpdateProgress(ctx, c.ChallengeID, status, count)
		if err != nil {
			return false, false, fmt.Errorf("update challenge %d: %w", c.ChallengeID, err)
		}
		if applied {
			c.Status, c.ParticipationCount = status, count
			updated = true
		} else {
			fresh, err := s.challenges.FindByID(ctx, c.ChallengeID)
			if err != nil {
				return false, false, fmt.Errorf("reload challenge %d: %w", c.ChallengeID, err)
			}
			*c = *fresh
		}
	}

	if !s.scoring.Due(c, now) {
		return updated, false, nil
	}
	res, err := s.scoring.Score(ctx, c)
	if err != nil {
		return updated, false, err
	}
	if res.Challenge != nil {
		c.Scored = res.Challenge.Scored
		c.FirstPlaceID = res.Challenge.FirstPlaceID
		c.SecondPlaceID = res.Challenge.SecondPlaceID
		c.ThirdPlaceID = res.Challenge.ThirdPlaceID
	}
	return updated, res.Claimed, nil
}
