package models

import "time"

type Answer struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	QuestionID uint      `gorm:"not null;index" json:"question_id"`
	AnswerText string    `gorm:"type:text;not null" json:"answer_text"`
	ModelName  string    `gorm:"size:255" json:"model_name,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
