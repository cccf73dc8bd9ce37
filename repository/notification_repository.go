package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"writing-challenge-api/config"
	"writing-challenge-api/errs"
	"writing-challenge-api/models"
)

const insertBatchSize = 500

// NotificationRepository stores each user's notification collection. Writes
// that touch a collection lock the owner's users row and bump its
// notification_version in the same transaction.
type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	if db == nil {
		db = config.DB
	}
	return &NotificationRepository{db: db}
}

// lockOwners takes row locks on the owners in ascending id order so that
// concurrent batches cannot deadlock on each other.
func lockOwners(tx *gorm.DB, userIDs []uint) error {
	var owners []models.User
	return tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("user_id").
		Where("user_id IN ?", userIDs).
		Order("user_id ASC").
		Find(&owners).Error
}

func bumpVersion(tx *gorm.DB, userIDs []uint) error {
	return tx.Model(&models.User{}).
		Where("user_id IN ?", userIDs).
		UpdateColumn("notification_version", gorm.Expr("notification_version + 1")).Error
}

func (r *NotificationRepository) withOwnerLock(ctx context.Context, userIDs []uint, fn func(tx *gorm.DB) error) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockOwners(tx, userIDs); err != nil {
			return err
		}
		if err := fn(tx); err != nil {
			return err
		}
		return bumpVersion(tx, userIDs)
	})
	return classify(err)
}

func (r *NotificationRepository) InsertBatch(ctx context.Context, items []models.Notification) error {
	if len(items) == 0 {
		return nil
	}
	seen := make(map[uint]struct{}, len(items))
	owners := make([]uint, 0, len(items))
	for _, n := range items {
		if _, ok := seen[n.UserID]; !ok {
			seen[n.UserID] = struct{}{}
			owners = append(owners, n.UserID)
		}
	}
	sort.Slice(owners, func(i, j int) bool { return owners[i] < owners[j] })

	return r.withOwnerLock(ctx, owners, func(tx *gorm.DB) error {
		return tx.CreateInBatches(&items, insertBatchSize).Error
	})
}

func (r *NotificationRepository) ListForUser(ctx context.Context, userID uint) ([]models.Notification, error) {
	var items []models.Notification
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("create_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, classify(err)
	}
	return items, nil
}

func (r *NotificationRepository) CountUnread(ctx context.Context, userID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND status = ?", userID, models.NotificationUnread).
		Count(&n).Error
	return n, classify(err)
}

func (r *NotificationRepository) SetStatus(ctx context.Context, userID uint, notificationID string, target models.NotificationStatus, now time.Time) error {
	return r.withOwnerLock(ctx, []uint{userID}, func(tx *gorm.DB) error {
		var current models.Notification
		err := tx.Where("notification_id = ? AND user_id = ?", notificationID, userID).First(&current).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("notification %s: %w", notificationID, errs.ErrNotFound)
		}
		if err != nil {
			return err
		}

		scope := tx.Model(&models.Notification{}).Where("notification_id = ? AND user_id = ?", notificationID, userID)
		switch target {
		case models.NotificationPermanentlyDelete:
			return tx.Where("notification_id = ? AND user_id = ?", notificationID, userID).
				Delete(&models.Notification{}).Error
		case models.NotificationDelete:
			if current.Status == models.NotificationDelete {
				return nil
			}
			return scope.Updates(map[string]interface{}{"status": target, "deletion_time": now}).Error
		default:
			return scope.Updates(map[string]interface{}{"status": target, "deletion_time": nil}).Error
		}
	})
}

func (r *NotificationRepository) SetAllStatus(ctx context.Context, userID uint, from, to models.NotificationStatus, now time.Time) (int64, error) {
	if from == to {
		return 0, nil
	}
	var changed int64
	err := r.withOwnerLock(ctx, []uint{userID}, func(tx *gorm.DB) error {
		scope := tx.Where("user_id = ? AND status = ?", userID, from)

		var res *gorm.DB
		switch to {
		case models.NotificationPermanentlyDelete:
			res = scope.Delete(&models.Notification{})
		case models.NotificationDelete:
			res = scope.Model(&models.Notification{}).
				Updates(map[string]interface{}{"status": to, "deletion_time": now})
		default:
			res = scope.Model(&models.Notification{}).
				Updates(map[string]interface{}{"status": to, "deletion_time": nil})
		}
		changed = res.RowsAffected
		return res.Error
	})
	return changed, err
}

// PurgeExpired is a single conditional DELETE and needs no owner lock.
func (r *NotificationRepository) PurgeExpired(ctx context.Context, userID uint, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ? AND deletion_time < ?", userID, models.NotificationDelete, cutoff).
		Delete(&models.Notification{})
	return res.RowsAffected, classify(res.Error)
}

func (r *NotificationRepository) PurgeAllExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("status = ? AND deletion_time < ?", models.NotificationDelete, cutoff).
		Delete(&models.Notification{})
	return res.RowsAffected, classify(res.Error)
}
