package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultRetentionPeriod is how long a notification stays in the delete
// status before it is purged: 30 days, i.e. 30×24×3600×1000 ms.
const DefaultRetentionPeriod = 30 * 24 * time.Hour

// RetentionCutoff returns the deletion time before which notifications expire.
func RetentionCutoff(now time.Time, retention time.Duration) time.Time {
	return now.Add(-retention)
}

func (s *NotificationService) purgeExpiredFor(ctx context.Context, userID uint) (int64, error) {
	cutoff := RetentionCutoff(s.now().UTC(), s.retention)
	purged, err := s.store.PurgeExpired(ctx, userID, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge expired notifications for user %d: %w", userID, err)
	}
	if purged > 0 {
		notificationsPurged.Add(float64(purged))
		s.log.WithFields(logrus.Fields{"user_id": userID, "purged": purged}).Debug("expired notifications purged")
	}
	return purged, nil
}

// PurgeExpired removes expired deletions across all users.
func (s *NotificationService) PurgeExpired(ctx context.Context) (int64, error) {
	cutoff := RetentionCutoff(s.now().UTC(), s.retention)
	purged, err := s.store.PurgeAllExpired(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge expired notifications: %w", err)
	}
	if purged > 0 {
		notificationsPurged.Add(float64(purged))
		s.log.WithField("purged", purged).Info("expired notifications purged")
	}
	return purged, nil
}
