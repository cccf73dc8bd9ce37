package repository

import (
	"context"

	"gorm.io/gorm"

	"writing-challenge-api/config"
	"writing-challenge-api/models"
)

type SubmissionRepository struct {
	db *gorm.DB
}

func NewSubmissionRepository(db *gorm.DB) *SubmissionRepository {
	if db == nil {
		db = config.DB
	}
	return &SubmissionRepository{db: db}
}

func (r *SubmissionRepository) CountForChallenge(ctx context.Context, challengeID uint) (int, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("challenge_id = ?", challengeID).
		Count(&n).Error
	if err != nil {
		return 0, classify(err)
	}
	return int(n), nil
}

// RankedForChallenge counts only upvotes cast by signed-in users.
func (r *SubmissionRepository) RankedForChallenge(ctx context.Context, challengeID uint) ([]models.RankedSubmission, error) {
	var rows []models.RankedSubmission
	err := r.db.WithContext(ctx).Table("submissions AS s").
		Select("s.*, COUNT(u.upvote_id) AS upvotes").
		Joins("LEFT JOIN upvotes AS u ON u.submission_id = s.submission_id AND u.is_guest = ?", false).
		Where("s.challenge_id = ?", challengeID).
		Group("s.submission_id").
		Scan(&rows).Error
	if err != nil {
		return nil, classify(err)
	}
	return rows, nil
}
