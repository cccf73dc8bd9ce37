package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"writing-challenge-api/config"
	"writing-challenge-api/errs"
)

// AdvisoryLocker grants cross-instance exclusivity with MySQL GET_LOCK.
// The lock belongs to a session, so acquire and release run on one pinned
// connection.
type AdvisoryLocker struct {
	db *gorm.DB
}

func NewAdvisoryLocker(db *gorm.DB) *AdvisoryLocker {
	if db == nil {
		db = config.DB
	}
	return &AdvisoryLocker{db: db}
}

func (l *AdvisoryLocker) TryLock(ctx context.Context, name string) (func() error, error) {
	sqlDB, err := l.db.DB()
	if err != nil {
		return nil, err
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return nil, classify(err)
	}

	var ok int
	if err := conn.QueryRowContext(ctx, "SELECT GET_LOCK(?, 0)", name).Scan(&ok); err != nil {
		_ = conn.Close()
		return nil, classify(err)
	}
	if ok != 1 {
		_ = conn.Close()
		return nil, errs.ErrSweepAlreadyRunning
	}

	return func() error {
		defer conn.Close()
		var released int
		if err := conn.QueryRowContext(context.WithoutCancel(ctx), "SELECT RELEASE_LOCK(?)", name).Scan(&released); err != nil {
			return fmt.Errorf("release lock %s: %w", name, err)
		}
		return nil
	}, nil
}
