package services

import (
	"context"
	"time"

	"writing-challenge-api/models"
)

// ChallengeStore persists challenges. Implementations key every write by
// challenge id and must make ClaimScoring a compare-and-set on the scored flag.
type ChallengeStore interface {
	Create(ctx context.Context, challenge *models.Challenge) error
	FindByID(ctx context.Context, id uint) (*models.Challenge, error)
	List(ctx context.Context) ([]models.Challenge, error)
	// ListUnsettled returns challenges that are not ended or not yet scored.
	ListUnsettled(ctx context.Context) ([]models.Challenge, error)
	// UpdateProgress writes status and participation unless the stored status
	// is already further along. It reports whether the row was written.
	UpdateProgress(ctx context.Context, id uint, status models.ChallengeStatus, participation int) (bool, error)
	// ClaimScoring stores the podium and sets scored=true only if the
	// challenge is still unscored. It reports whether this call won the claim.
	ClaimScoring(ctx context.Context, id uint, podium models.Podium) (bool, error)
}

type SubmissionStore interface {
	CountForChallenge(ctx context.Context, challengeID uint) (int, error)
	// RankedForChallenge returns submissions with their non-guest upvote counts.
	RankedForChallenge(ctx context.Context, challengeID uint) ([]models.RankedSubmission, error)
}

type UserStore interface {
	FindByIDs(ctx context.Context, ids []uint) ([]models.User, error)
	FollowersOf(ctx context.Context, userID uint) ([]models.User, error)
	GenreFollowers(ctx context.Context, genre models.Genre) ([]models.User, error)
	BySkillLevel(ctx context.Context, level models.SkillLevel) ([]models.User, error)
	CreditPoints(ctx context.Context, userID uint, points int) error
}

// NotificationStore owns each user's notification collection. Every write
// is serialized per user.
type NotificationStore interface {
	InsertBatch(ctx context.Context, notifications []models.Notification) error
	ListForUser(ctx context.Context, userID uint) ([]models.Notification, error)
	CountUnread(ctx context.Context, userID uint) (int64, error)
	SetStatus(ctx context.Context, userID uint, notificationID string, target models.NotificationStatus, now time.Time) error
	SetAllStatus(ctx context.Context, userID uint, from, to models.NotificationStatus, now time.Time) (int64, error)
	PurgeExpired(ctx context.Context, userID uint, cutoff time.Time) (int64, error)
	PurgeAllExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// Publisher pushes a stored notification to live subscribers. Delivery is
// best-effort.
type Publisher interface {
	Publish(ctx context.Context, event models.NotificationEvent) error
}

type Mailer interface {
	SendMail(to []string, subject, html string) error
}

// SweepLocker grants process-wide exclusivity to the periodic sweep.
type SweepLocker interface {
	TryLock(ctx context.Context, name string) (release func() error, err error)
}
