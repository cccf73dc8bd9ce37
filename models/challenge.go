package models

import (
	"time"

	"gorm.io/datatypes"
)

type ChallengeStatus string

const (
	ChallengeUpcoming   ChallengeStatus = "upcoming"
	ChallengeInProgress ChallengeStatus = "in-progress"
	ChallengeScoring    ChallengeStatus = "scoring"
	ChallengeEnded      ChallengeStatus = "ended"
)

// Rank orders statuses along the lifecycle. Unknown values rank lowest so a
// corrupted row can always move forward.
func (s ChallengeStatus) Rank() int {
	switch s {
	case ChallengeUpcoming:
		return 1
	case ChallengeInProgress:
		return 2
	case ChallengeScoring:
		return 3
	case ChallengeEnded:
		return 4
	}
	return 0
}

// ChallengeStatuses lists the known statuses in lifecycle order.
func ChallengeStatuses() []ChallengeStatus {
	return []ChallengeStatus{ChallengeUpcoming, ChallengeInProgress, ChallengeScoring, ChallengeEnded}
}

// StatusesUpTo lists every known status whose rank does not exceed s.
func StatusesUpTo(s ChallengeStatus) []ChallengeStatus {
	out := make([]ChallengeStatus, 0, 4)
	for _, candidate := range ChallengeStatuses() {
		if candidate.Rank() <= s.Rank() {
			out = append(out, candidate)
		}
	}
	return out
}

type Genre string

const (
	GenreFantasy        Genre = "fantasy"
	GenreScienceFiction Genre = "science_fiction"
	GenreMystery        Genre = "mystery"
	GenreRomance        Genre = "romance"
	GenreHorror         Genre = "horror"
	GenreHistorical     Genre = "historical"
	GenreLiterary       Genre = "literary"
	GenrePoetry         Genre = "poetry"
	GenreNonFiction     Genre = "non_fiction"
	GenreOther          Genre = "other"
)

func (g Genre) Valid() bool {
	switch g {
	case GenreFantasy, GenreScienceFiction, GenreMystery, GenreRomance, GenreHorror,
		GenreHistorical, GenreLiterary, GenrePoetry, GenreNonFiction, GenreOther:
		return true
	}
	return false
}

type SkillLevel string

const (
	SkillBeginner     SkillLevel = "beginner"
	SkillIntermediate SkillLevel = "intermediate"
	SkillAdvanced     SkillLevel = "advanced"
)

func (l SkillLevel) Valid() bool {
	switch l {
	case SkillBeginner, SkillIntermediate, SkillAdvanced:
		return true
	}
	return false
}

// Range is an optional inclusive bound. Either side may be omitted.
type Range struct {
	Min *int `json:"min,omitempty"`
	Max *int `json:"max,omitempty"`
}

func (r *Range) Empty() bool {
	return r == nil || (r.Min == nil && r.Max == nil)
}

// Limitations are the structured writing constraints attached to a challenge.
type Limitations struct {
	Time            *Range   `json:"time,omitempty"`
	Words           *Range   `json:"words,omitempty"`
	Characters      *Range   `json:"characters,omitempty"`
	RequiredPhrases []string `json:"required_phrases,omitempty"`
}

// Categories counts the limitation groups that carry at least one constraint.
func (l Limitations) Categories() int {
	n := 0
	for _, r := range []*Range{l.Time, l.Words, l.Characters} {
		if !r.Empty() {
			n++
		}
	}
	if len(l.RequiredPhrases) > 0 {
		n++
	}
	return n
}

type Challenge struct {
	ChallengeID        uint                            `gorm:"primaryKey;column:challenge_id" json:"challenge_id"`
	AuthorID           uint                            `gorm:"column:author_id;index" json:"author_id"`
	Name               string                          `gorm:"column:name" json:"name"`
	Description        string                          `gorm:"column:description" json:"description"`
	Prompt             string                          `gorm:"column:prompt" json:"prompt"`
	Genre              Genre                           `gorm:"column:genre" json:"genre"`
	SkillLevel         SkillLevel                      `gorm:"column:skill_level" json:"skill_level"`
	StartTime          time.Time                       `gorm:"column:start_time" json:"start_time"`
	EndTime            time.Time                       `gorm:"column:end_time" json:"end_time"`
	Limitations        datatypes.JSONType[Limitations] `gorm:"column:limitations" json:"limitations"`
	Status             ChallengeStatus                 `gorm:"column:status;index" json:"status"`
	ParticipationCount int                             `gorm:"column:participation_count" json:"participation_count"`
	AvailablePoints    int                             `gorm:"column:available_points" json:"available_points"`
	Scored             bool                            `gorm:"column:scored" json:"scored"`
	FirstPlaceID       *uint                           `gorm:"column:first_place_id" json:"first_place_id"`
	SecondPlaceID      *uint                           `gorm:"column:second_place_id" json:"second_place_id"`
	ThirdPlaceID       *uint                           `gorm:"column:third_place_id" json:"third_place_id"`
	CreateAt           time.Time                       `gorm:"column:create_at" json:"create_at"`
	UpdateAt           time.Time                       `gorm:"column:update_at" json:"update_at"`
}

func (Challenge) TableName() string { return "challenges" }

// Winners returns the placed author ids in podium order, skipping empty places.
func (c *Challenge) Winners() []uint {
	out := make([]uint, 0, 3)
	for _, id := range []*uint{c.FirstPlaceID, c.SecondPlaceID, c.ThirdPlaceID} {
		if id != nil {
			out = append(out, *id)
		}
	}
	return out
}

// Podium holds the author ids placed first to third. Empty places are nil.
type Podium struct {
	First  *uint
	Second *uint
	Third  *uint
}
