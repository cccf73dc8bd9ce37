package models

import "time"

// User carries the profile subset the challenge engine reads: preference
// flags, skill level, followed genres and the point balance it credits.
type User struct {
	UserID                       uint       `gorm:"primaryKey;column:user_id" json:"user_id"`
	Username                     string     `gorm:"column:username;unique" json:"username"`
	Email                        string     `gorm:"column:email" json:"email"`
	SkillLevel                   SkillLevel `gorm:"column:skill_level" json:"skill_level"`
	Points                       int        `gorm:"column:points" json:"points"`
	NotificationVersion          int64      `gorm:"column:notification_version" json:"notification_version"`
	AllowNotifications           bool       `gorm:"column:allow_notifications" json:"allow_notifications"`
	AllowFollowNotifications     bool       `gorm:"column:allow_follow_notifications" json:"allow_follow_notifications"`
	AllowGenreNotifications      bool       `gorm:"column:allow_genre_notifications" json:"allow_genre_notifications"`
	AllowSkillLevelNotifications bool       `gorm:"column:allow_skill_level_notifications" json:"allow_skill_level_notifications"`
	AllowChallengeActivity       bool       `gorm:"column:allow_challenge_activity" json:"allow_challenge_activity"`
	AllowReviewUpdates           bool       `gorm:"column:allow_review_updates" json:"allow_review_updates"`
	AllowSubmissionInteractions  bool       `gorm:"column:allow_submission_interactions" json:"allow_submission_interactions"`
	AllowFollowActivity          bool       `gorm:"column:allow_follow_activity" json:"allow_follow_activity"`
	CreateAt                     *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt                     *time.Time `gorm:"column:update_at" json:"update_at"`
}

func (User) TableName() string { return "users" }

// UserGenre records a genre the user follows.
type UserGenre struct {
	UserID uint  `gorm:"primaryKey;column:user_id"`
	Genre  Genre `gorm:"primaryKey;column:genre"`
}

func (UserGenre) TableName() string { return "user_genres" }

// Follow is a follower edge: FollowerID follows FollowedID.
type Follow struct {
	FollowerID uint      `gorm:"primaryKey;column:follower_id"`
	FollowedID uint      `gorm:"primaryKey;column:followed_id;index"`
	CreateAt   time.Time `gorm:"column:create_at"`
}

func (Follow) TableName() string { return "follows" }
