package services

import (
	"context"

	"github.com/gabrielk-coder/Website-for-Hint-Generation-and-Evaluation/internal/llm"
	"github.com/gabrielk-coder/Website-for-Hint-Generation-and-Evaluation/internal/models"

	"gorm.io/gorm"
)

type GenerationService struct {
	db  *gorm.DB
	gen llm.Generator
}

func NewGenerationService(db *gorm.DB, gen llm.Generator) *GenerationService {
	return &GenerationService{db: db, gen: gen}
}

type GenerateResult struct {
	Question string        `json:"question"`
	Hints    []HintPayload `json:"hints"`
	Answer   string        `json:"answer"`
}

// ProcessGeneration creates a new active question for the session, produces an
// answer (provided, answer-aware, or answer-agnostic) and numHints hints, and
// persists everything. The new question supersedes any older one as the
// session's active question.
func (s *GenerationService) ProcessGeneration(ctx context.Context, sessionID, question string, numHints int, answerAware bool, providedAnswer string, p llm.GenerationParams) (GenerateResult, error) {
	q := models.Question{Text: question, SessionID: sessionID}
	if err := s.db.Create(&q).Error; err != nil {
		return GenerateResult{}, err
	}

	answerText := providedAnswer
	if answerText == "" {
		var err error
		answerText, err = s.gen.GenerateAnswer(ctx, question, answerAware, providedAnswer, p)
		if err != nil {
			return GenerateResult{}, err
		}
	}

	var hintTexts []string
	if numHints > 0 {
		var err error
		hintTexts, err = s.gen.GenerateHints(ctx, question, answerText, numHints, p)
		if err != nil {
			return GenerateResult{}, err
		}
	}

	result := GenerateResult{Question: question, Answer: answerText, Hints: []HintPayload{}}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		answer := models.Answer{QuestionID: q.ID, AnswerText: answerText, ModelName: p.Model}
		if err := tx.Create(&answer).Error; err != nil {
			return err
		}
		for _, text := range hintTexts {
			hint := models.Hint{QuestionID: q.ID, AnswerID: &answer.ID, HintText: text}
			if err := tx.Create(&hint).Error; err != nil {
				return err
			}
			result.Hints = append(result.Hints, HintPayload{ID: hint.ID, Text: text})
		}
		return nil
	})
	if err != nil {
		return GenerateResult{}, err
	}
	return result, nil
}

// RegenerateAnswer replaces the question's answer with a freshly generated
// one, relinks existing hints to it, and invalidates metrics, all in one
// transaction.
func (s *GenerationService) RegenerateAnswer(ctx context.Context, sessionID string, p llm.GenerationParams) (string, error) {
	qid, err := latestQuestionID(s.db, sessionID)
	if err != nil {
		return "", err
	}
	if qid == 0 {
		return "", ErrNoActiveQuestion
	}

	var q models.Question
	if err := s.db.First(&q, qid).Error; err != nil {
		return "", err
	}

	answerText, err := s.gen.GenerateAnswer(ctx, q.Text, false, "", p)
	if err != nil {
		return "", err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		return replaceAnswer(tx, qid, answerText, p.Model)
	})
	if err != nil {
		return "", err
	}
	return answerText, nil
}

// replaceAnswer deletes any prior answers for the question, inserts the new
// one, points the question's hints at it, and clears metrics.
func replaceAnswer(tx *gorm.DB, questionID uint, answerText, modelName string) error {
	if err := tx.Where("question_id = ?", questionID).Delete(&models.Answer{}).Error; err != nil {
		return err
	}
	answer := models.Answer{QuestionID: questionID, AnswerText: answerText, ModelName: modelName}
	if err := tx.Create(&answer).Error; err != nil {
		return err
	}
	err := tx.Model(&models.Hint{}).
		Where("question_id = ?", questionID).
		Update("answer_id", answer.ID).Error
	if err != nil {
		return err
	}
	return clearMetrics(tx, questionID)
}
