package database

import (
	"fmt"

	"github.com/gabrielk-coder/Website-for-Hint-Generation-and-Evaluation/internal/config"
	"github.com/gabrielk-coder/Website-for-Hint-Generation-and-Evaluation/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Connect(cfg *config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func AutoMigrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Question{},
		&models.Answer{},
		&models.Hint{},
		&models.Metric{},
		&models.Entity{},
		&models.CandidateAnswer{},
	)
	if err != nil {
		return fmt.Errorf("failed to auto-migrate: %w", err)
	}

	// Partial unique index: at most one ground-truth candidate per question.
	// AutoMigrate cannot express the WHERE clause, so it is created raw.
	if db.Dialector.Name() == "postgres" {
		err = db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS unique_groundtruth_per_question
			ON candidate_answers (question_id) WHERE is_groundtruth = TRUE`).Error
		if err != nil {
			return fmt.Errorf("failed to create groundtruth index: %w", err)
		}
	}
	return nil
}

// ResetAll wipes every table. Used by the optional scheduled reset.
func ResetAll(db *gorm.DB) error {
	return db.Exec(`TRUNCATE TABLE questions, answers, hints, metrics, entities, candidate_answers RESTART IDENTITY CASCADE`).Error
}
