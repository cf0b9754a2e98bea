package models

import "time"

// CandidateAnswer is one multiple-choice option for a question. At most one
// candidate per question carries is_groundtruth = true (partial unique index).
// is_eliminated is derived from the current convergence metrics and is reset
// whenever hints, answer, or candidates change.
type CandidateAnswer struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	QuestionID    uint      `gorm:"not null;index" json:"question_id"`
	CandidateText string    `gorm:"type:text;not null" json:"candidate_text"`
	IsEliminated  bool      `gorm:"not null;default:false" json:"is_eliminated"`
	IsGroundtruth bool      `gorm:"not null;default:false" json:"is_groundtruth"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
