package models

import "time"

// Submission is a user's entry into a challenge. QualityScore is the
// eligibility signal consumed by scoring; nothing in this service writes it.
type Submission struct {
	SubmissionID   uint      `gorm:"primaryKey;column:submission_id" json:"submission_id"`
	AuthorID       uint      `gorm:"column:author_id;index" json:"author_id"`
	ChallengeID    uint      `gorm:"column:challenge_id;index" json:"challenge_id"`
	QualityScore   *int      `gorm:"column:quality_score" json:"quality_score,omitempty"`
	WordCount      int       `gorm:"column:word_count" json:"word_count"`
	CharacterCount int       `gorm:"column:character_count" json:"character_count"`
	CreateAt       time.Time `gorm:"column:create_at" json:"create_at"`
}

func (Submission) TableName() string { return "submissions" }

type Upvote struct {
	UpvoteID     uint      `gorm:"primaryKey;column:upvote_id" json:"upvote_id"`
	SubmissionID uint      `gorm:"column:submission_id;index" json:"submission_id"`
	VoterID      *uint     `gorm:"column:voter_id" json:"voter_id,omitempty"`
	IsGuest      bool      `gorm:"column:is_guest" json:"is_guest"`
	CreateAt     time.Time `gorm:"column:create_at" json:"create_at"`
}

func (Upvote) TableName() string { return "upvotes" }

// RankedSubmission is a submission joined with its non-guest upvote count.
type RankedSubmission struct {
	Submission
	Upvotes int64 `gorm:"column:upvotes" json:"upvotes"`
}
