// Package app wires stores and services for the command binaries.
package app

import (
	"gorm.io/gorm"

	"writing-challenge-api/config"
	"writing-challenge-api/repository"
	"writing-challenge-api/services"
)

type App struct {
	Challenges    *services.ChallengeService
	Scoring       *services.ScoringService
	Notifications *services.NotificationService
	Sweep         *services.SweepJob
}

// New builds the service graph on db. publisher and mailer may be nil.
func New(s *config.Settings, db *gorm.DB, publisher services.Publisher, mailer services.Mailer) *App {
	challengeRepo := repository.NewChallengeRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	userRepo := repository.NewUserRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	notifications := services.NewNotificationService(notificationRepo, userRepo, publisher, mailer, services.NotificationOptions{
		BatchSize: s.FanoutBatchSize,
		Retention: s.RetentionPeriod,
	})
	audience := services.NewAudienceResolver(userRepo)
	scoring := services.NewScoringService(challengeRepo, submissionRepo, userRepo, audience, notifications, services.ScoringOptions{
		EligibilityThreshold: s.EligibilityThreshold,
		Deferral:             s.ScoringDeferral,
	})
	challenges := services.NewChallengeService(challengeRepo, submissionRepo, scoring, audience, notifications, nil)
	sweep := services.NewSweepJob(challengeRepo, challenges, notifications, repository.NewAdvisoryLocker(db), services.SweepJobOptions{
		Interval: s.SweepInterval,
		LockName: s.SweepLockName,
	})

	return &App{
		Challenges:    challenges,
		Scoring:       scoring,
		Notifications: notifications,
		Sweep:         sweep,
	}
}
