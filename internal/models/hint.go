package models

import "time"

type Hint struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	QuestionID uint      `gorm:"not null;index" json:"question_id"`
	AnswerID   *uint     `gorm:"index" json:"answer_id,omitempty"`
	Answer     *Answer   `gorm:"foreignKey:AnswerID;constraint:OnDelete:SET NULL" json:"-"`
	HintText   string    `gorm:"type:text;not null" json:"hint_text"`
	Metrics    []Metric  `gorm:"foreignKey:HintID;constraint:OnDelete:CASCADE" json:"metrics,omitempty"`
	Entities   []Entity  `gorm:"foreignKey:HintID;constraint:OnDelete:CASCADE" json:"entities,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
