package models

import "time"

type NotificationType string

const (
	NotificationGeneral               NotificationType = "general"
	NotificationChallengeActivity     NotificationType = "challenge_activity"
	NotificationReviewUpdate          NotificationType = "review_update"
	NotificationSubmissionInteraction NotificationType = "submission_interaction"
	NotificationAccountUpdate         NotificationType = "account_update"
	NotificationFollowActivity        NotificationType = "follow_activity"
)

func (t NotificationType) Valid() bool {
	switch t {
	case NotificationGeneral, NotificationChallengeActivity, NotificationReviewUpdate,
		NotificationSubmissionInteraction, NotificationAccountUpdate, NotificationFollowActivity:
		return true
	}
	return false
}

type NotificationStatus string

const (
	NotificationUnread NotificationStatus = "unread"
	NotificationRead   NotificationStatus = "read"
	NotificationDelete NotificationStatus = "delete"
	// NotificationPermanentlyDelete is never stored; transitioning to it
	// removes the row.
	NotificationPermanentlyDelete NotificationStatus = "permanently_delete"
)

// Stored reports whether a notification row can hold this status.
func (s NotificationStatus) Stored() bool {
	switch s {
	case NotificationUnread, NotificationRead, NotificationDelete:
		return true
	}
	return false
}

// Target reports whether s is an accepted transition target.
func (s NotificationStatus) Target() bool {
	return s.Stored() || s == NotificationPermanentlyDelete
}

type Notification struct {
	NotificationID string             `gorm:"primaryKey;column:notification_id;size:36" json:"notification_id"`
	UserID         uint               `gorm:"column:user_id;index" json:"user_id"`
	Title          string             `gorm:"column:title" json:"title"`
	Content        string             `gorm:"column:content" json:"content"`
	Type           NotificationType   `gorm:"column:type" json:"type"`
	Status         NotificationStatus `gorm:"column:status;index" json:"status"`
	CreateAt       time.Time          `gorm:"column:create_at" json:"created_at"`
	DeletionTime   *time.Time         `gorm:"column:deletion_time" json:"deletion_time"`
}

func (Notification) TableName() string { return "notifications" }

// NotificationEvent is the real-time payload published after a notification
// row has been stored.
type NotificationEvent struct {
	RecipientID  uint               `json:"recipientId"`
	Notification Notification       `json:"notification"`
	Status       NotificationStatus `json:"status"`
}
