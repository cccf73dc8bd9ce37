package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"writing-challenge-api/config"
	"writing-challenge-api/models"
)

type ChallengeRepository struct {
	db *gorm.DB
}

func NewChallengeRepository(db *gorm.DB) *ChallengeRepository {
	if db == nil {
		db = config.DB
	}
	return &ChallengeRepository{db: db}
}

func (r *ChallengeRepository) Create(ctx context.Context, c *models.Challenge) error {
	return classify(r.db.WithContext(ctx).Create(c).Error)
}

func (r *ChallengeRepository) FindByID(ctx context.Context, id uint) (*models.Challenge, error) {
	var c models.Challenge
	if err := r.db.WithContext(ctx).Where("challenge_id = ?", id).First(&c).Error; err != nil {
		return nil, fmt.Errorf("challenge %d: %w", id, classify(err))
	}
	return &c, nil
}

func (r *ChallengeRepository) List(ctx context.Context) ([]models.Challenge, error) {
	var items []models.Challenge
	if err := r.db.WithContext(ctx).Order("start_time DESC").Find(&items).Error; err != nil {
		return nil, classify(err)
	}
	return items, nil
}

func (r *ChallengeRepository) ListUnsettled(ctx context.Context) ([]models.Challenge, error) {
	var items []models.Challenge
	err := r.db.WithContext(ctx).
		Where("status <> ? OR scored = ?", models.ChallengeEnded, false).
		Order("end_time ASC").
		Find(&items).Error
	if err != nil {
		return nil, classify(err)
	}
	return items, nil
}

// UpdateProgress only matches rows whose stored status is not ahead of the
// new one, so a stale computation can never move a challenge backwards. A
// missing or unknown stored status ranks lowest and is always overwritten.
func (r *ChallengeRepository) UpdateProgress(ctx context.Context, id uint, status models.ChallengeStatus, participation int) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Challenge{}).
		Where("challenge_id = ?", id).
		Where("status IN ? OR status NOT IN ? OR status IS NULL", models.StatusesUpTo(status), models.ChallengeStatuses()).
		Updates(map[string]interface{}{
			"status":              status,
			"participation_count": participation,
			"update_at":           time.Now().UTC(),
		})
	if res.Error != nil {
		return false, classify(res.Error)
	}
	return res.RowsAffected > 0, nil
}

// ClaimScoring is a compare-and-set on the scored flag: exactly one caller
// sees a changed row.
func (r *ChallengeRepository) ClaimScoring(ctx context.Context, id uint, podium models.Podium) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Challenge{}).
		Where("challenge_id = ? AND scored = ?", id, false).
		Updates(map[string]interface{}{
			"scored":          true,
			"first_place_id":  podium.First,
			"second_place_id": podium.Second,
			"third_place_id":  podium.Third,
			"update_at":       time.Now().UTC(),
		})
	if res.Error != nil {
		return false, classify(res.Error)
	}
	return res.RowsAffected == 1, nil
}
