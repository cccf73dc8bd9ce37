// Command sweep runs one lifecycle sweep and notification purge, then exits.
package main

import (
	"context"
	"errors"
	"flag"

	"github.com/sirupsen/logrus"

	"writing-challenge-api/app"
	"writing-challenge-api/config"
	"writing-challenge-api/errs"
	"writing-challenge-api/realtime"
	"writing-challenge-api/services"
)

func main() {
	settings, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	var lockName string
	flag.StringVar(&lockName, "lock-name", settings.SweepLockName, "MySQL advisory lock name (empty to disable)")
	flag.Parse()

	logFile, _ := config.InitLogging(settings.LogFile, settings.LogLevel)
	if logFile != nil {
		defer logFile.Close()
	}

	db, err := config.InitDB(settings)
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}

	var publisher services.Publisher
	redisClient, err := config.InitRedis(settings)
	if err != nil {
		logrus.Fatalf("Failed to connect to redis: %v", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
		publisher = realtime.NewRedisBridge(redisClient, settings.RedisChannel, nil)
	}

	var mailer services.Mailer
	if m := config.NewMailer(settings); m != nil {
		mailer = m
	}

	settings.SweepLockName = lockName
	svc := app.New(settings, db, publisher, mailer)

	summary, err := svc.Sweep.RunOnce(context.Background())
	if errors.Is(err, errs.ErrSweepAlreadyRunning) {
		logrus.WithField("lock", lockName).Fatal("Challenge sweep already running (advisory lock held)")
	}
	reportSummary(logrus.StandardLogger(), summary)
	if err != nil {
		logrus.Fatalf("Challenge sweep finished with errors: %v", err)
	}
}

func reportSummary(logger *logrus.Logger, summary *services.SweepSummary) {
	if summary == nil {
		return
	}
	logger.WithFields(logrus.Fields{
		"checked": summary.Checked,
		"updated": summary.Updated,
		"scored":  summary.Scored,
		"failed":  summary.Failed,
		"purged":  summary.NotificationsPurged,
	}).Info("Challenge sweep complete")
}
