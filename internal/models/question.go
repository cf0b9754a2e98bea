package models

import "time"

type Question struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	Text       string            `gorm:"type:text;not null" json:"text"`
	SessionID  string            `gorm:"size:64;index" json:"session_id"`
	Answers    []Answer          `gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE" json:"answers,omitempty"`
	Hints      []Hint            `gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE" json:"hints,omitempty"`
	Candidates []CandidateAnswer `gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE" json:"candidates,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}
