package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"writing-challenge-api/errs"
)

// DefaultSweepInterval is how often the background sweep runs.
const DefaultSweepInterval = 45 * time.Second

type SweepJobOptions struct {
	Interval time.Duration
	// LockName is the advisory lock shared by every instance. Empty disables
	// locking.
	LockName string
}

// SweepJob runs the lifecycle sweep and the notification janitor on a timer,
// independent of incoming reads.
type SweepJob struct {
	challenges    ChallengeStore
	lifecycle     *ChallengeService
	notifications *NotificationService
	locker        SweepLocker
	interval      time.Duration
	lockName      string
	log           *logrus.Entry

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewSweepJob(challenges ChallengeStore, lifecycle *ChallengeService, notifications *NotificationService, locker SweepLocker, opts SweepJobOptions) *SweepJob {
	if opts.Interval <= 0 {
		opts.Interval = DefaultSweepInterval
	}
	return &SweepJob{
		challenges:    challenges,
		lifecycle:     lifecycle,
		notifications: notifications,
		locker:        locker,
		interval:      opts.Interval,
		lockName:      opts.LockName,
		log:           logrus.WithField("component", "sweep"),
	}
}

// RunOnce sweeps every unsettled challenge and purges expired notifications.
// It returns errs.ErrSweepAlreadyRunning when another instance holds the lock.
func (j *SweepJob) RunOnce(ctx context.Context) (*SweepSummary, error) {
	if j.locker != nil && j.lockName != "" {
		release, err := j.locker.TryLock(ctx, j.lockName)
		if err != nil {
			return nil, err
		}
		defer func() {
			if relErr := release(); relErr != nil {
				j.log.Warnf("failed to release sweep lock: %v", relErr)
			}
		}()
	}

	items, err := j.challenges.ListUnsettled(ctx)
	if err != nil {
		sweepRuns.WithLabelValues("periodic", "error").Inc()
		return nil, fmt.Errorf("list unsettled challenges: %w", err)
	}

	summary, sweepErr := j.lifecycle.Sweep(ctx, items, "periodic")

	purged, purgeErr := j.notifications.PurgeExpired(ctx)
	summary.NotificationsPurged = purged

	return summary, errors.Join(sweepErr, purgeErr)
}

// Start launches the sweep loop on its own goroutine. It runs until ctx is
// cancelled or Stop is called.
func (j *SweepJob) Start(ctx context.Context) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	j.cancel = cancel
	j.wg.Add(1)
	go func() {
		defer j.wg.Done()
		j.loop(ctx)
	}()
	j.log.WithField("interval", j.interval.String()).Info("challenge sweep started")
}

// Stop cancels the loop and waits for an in-flight sweep to finish.
func (j *SweepJob) Stop() {
	j.mu.Lock()
	cancel := j.cancel
	j.cancel = nil
	j.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	j.wg.Wait()
	j.log.Info("challenge sweep stopped")
}

func (j *SweepJob) loop(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		j.tick(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (j *SweepJob) tick(ctx context.Context) {
	summary, err := j.RunOnce(ctx)
	switch {
	case errors.Is(err, errs.ErrSweepAlreadyRunning):
		j.log.Debug("sweep skipped, lock held elsewhere")
		return
	case errors.Is(err, context.Canceled):
		return
	case err != nil:
		j.log.Errorf("sweep finished with errors: %v", err)
	}
	if summary != nil && (summary.Updated > 0 || summary.Scored > 0 || summary.NotificationsPurged > 0) {
		j.log.WithFields(logrus.Fields{
			"checked": summary.Checked,
			"updated": summary.Updated,
			"scored":  summary.Scored,
			"failed":  summary.Failed,
			"purged":  summary.NotificationsPurged,
		}).Info("sweep complete")
	}
}
