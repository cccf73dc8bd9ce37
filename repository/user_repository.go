package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"writing-challenge-api/config"
	"writing-challenge-api/errs"
	"writing-challenge-api/models"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	if db == nil {
		db = config.DB
	}
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByIDs(ctx context.Context, ids []uint) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []models.User
	if err := r.db.WithContext(ctx).Where("user_id IN ?", ids).Find(&users).Error; err != nil {
		return nil, classify(err)
	}
	return users, nil
}

func (r *UserRepository) FollowersOf(ctx context.Context, userID uint) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Joins("JOIN follows ON follows.follower_id = users.user_id").
		Where("follows.followed_id = ?", userID).
		Order("follows.create_at ASC").
		Find(&users).Error
	if err != nil {
		return nil, classify(err)
	}
	return users, nil
}

func (r *UserRepository) GenreFollowers(ctx context.Context, genre models.Genre) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Joins("JOIN user_genres ON user_genres.user_id = users.user_id").
		Where("user_genres.genre = ?", genre).
		Find(&users).Error
	if err != nil {
		return nil, classify(err)
	}
	return users, nil
}

func (r *UserRepository) BySkillLevel(ctx context.Context, level models.SkillLevel) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).Where("skill_level = ?", level).Find(&users).Error; err != nil {
		return nil, classify(err)
	}
	return users, nil
}

func (r *UserRepository) CreditPoints(ctx context.Context, userID uint, points int) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("user_id = ?", userID).
		UpdateColumn("points", gorm.Expr("points + ?", points))
	if res.Error != nil {
		return classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user %d: %w", userID, errs.ErrNotFound)
	}
	return nil
}
