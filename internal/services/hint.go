package services

import (
	"context"
	"errors"
	"math"

	"github.com/gabrielk-coder/Website-for-Hint-Generation-and-Evaluation/internal/llm"
	"github.com/gabrielk-coder/Website-for-Hint-Generation-and-Evaluation/internal/models"

	"gorm.io/gorm"
)

type HintService struct {
	db       *gorm.DB
	embedder llm.Embedder
}

func NewHintService(db *gorm.DB, embedder llm.Embedder) *HintService {
	return &HintService{db: db, embedder: embedder}
}

type HintRow struct {
	HintID   uint   `json:"hint_id"`
	HintText string `json:"hint_text"`
}

func (s *HintService) GetHints(sessionID string) ([]HintRow, error) {
	qid, err := latestQuestionID(s.db, sessionID)
	if err != nil || qid == 0 {
		return []HintRow{}, err
	}

	var hints []models.Hint
	if err := s.db.Where("question_id = ?", qid).Order("id ASC").Find(&hints).Error; err != nil {
		return nil, err
	}
	rows := make([]HintRow, 0, len(hints))
	for _, h := range hints {
		rows = append(rows, HintRow{HintID: h.ID, HintText: h.HintText})
	}
	return rows, nil
}

// SaveHint appends a manually written hint to the active question, linked to
// the most recent answer when one exists. Prior metrics are invalidated in the
// same transaction.
func (s *HintService) SaveHint(sessionID, hintText string) (uint, error) {
	qid, err := latestQuestionID(s.db, sessionID)
	if err != nil {
		return 0, err
	}
	if qid == 0 {
		return 0, ErrNoActiveQuestion
	}

	var hintID uint
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := clearMetrics(tx, qid); err != nil {
			return err
		}
		hint := models.Hint{QuestionID: qid, HintText: hintText}
		if a, err := latestAnswer(tx, qid); err != nil {
			return err
		} else if a != nil {
			hint.AnswerID = &a.ID
		}
		if err := tx.Create(&hint).Error; err != nil {
			return err
		}
		hintID = hint.ID
		return nil
	})
	return hintID, err
}

func (s *HintService) UpdateHint(hintID uint, newText string) error {
	var hint models.Hint
	if err := s.db.First(&hint, hintID).Error; err != nil {
		return err
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&hint).Update("hint_text", newText).Error; err != nil {
			return err
		}
		return clearMetrics(tx, hint.QuestionID)
	})
}

func (s *HintService) DeleteHint(hintID uint) error {
	var hint models.Hint
	if err := s.db.First(&hint, hintID).Error; err != nil {
		return err
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("hint_id = ?", hintID).Delete(&models.Metric{}).Error; err != nil {
			return err
		}
		if err := tx.Where("hint_id = ?", hintID).Delete(&models.Entity{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&hint).Error; err != nil {
			return err
		}
		return clearMetrics(tx, hint.QuestionID)
	})
}

func (s *HintService) DeleteAllHints(sessionID string) error {
	qid, err := latestQuestionID(s.db, sessionID)
	if err != nil || qid == 0 {
		return err
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := clearMetrics(tx, qid); err != nil {
			return err
		}
		return tx.Where("question_id = ?", qid).Delete(&models.Hint{}).Error
	})
}

// HintMetricRow is the per-hint view over the five canonical metric values.
// Nil means the metric has not been computed (or was invalidated).
type HintMetricRow struct {
	ID            uint     `json:"id"`
	Text          string   `json:"text"`
	Convergence   *float64 `json:"convergence"`
	Relevance     *float64 `json:"relevance"`
	AnswerLeakage *float64 `json:"answer_leakage"`
	Readability   *float64 `json:"readability"`
	Familiarity   *float64 `json:"familiarity"`
}

func (s *HintService) DetailedMetrics(sessionID string) ([]HintMetricRow, error) {
	qid, err := latestQuestionID(s.db, sessionID)
	if err != nil || qid == 0 {
		return []HintMetricRow{}, err
	}

	var hints []models.Hint
	if err := s.db.Where("question_id = ?", qid).Order("id ASC").Find(&hints).Error; err != nil {
		return nil, err
	}

	rows := make([]HintMetricRow, 0, len(hints))
	for _, h := range hints {
		var metrics []models.Metric
		if err := s.db.Where("hint_id = ?", h.ID).Find(&metrics).Error; err != nil {
			return nil, err
		}
		row := HintMetricRow{ID: h.ID, Text: h.HintText}
		for _, m := range metrics {
			switch m.Name {
			case models.MetricConvergence:
				row.Convergence = m.Value
			case models.MetricRelevance:
				row.Relevance = m.Value
			case models.MetricAnswerLeakage:
				row.AnswerLeakage = m.Value
			case models.MetricReadability:
				row.Readability = m.Value
			case models.MetricFamiliarity:
				row.Familiarity = m.Value
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

type ConvergenceRow struct {
	ID         uint               `json:"id"`
	Text       string             `json:"text"`
	Candidates map[string]float64 `json:"candidates"`
}

// ConvergenceScores returns each hint's raw per-candidate convergence map.
func (s *HintService) ConvergenceScores(sessionID string) ([]ConvergenceRow, error) {
	qid, err := latestQuestionID(s.db, sessionID)
	if err != nil || qid == 0 {
		return []ConvergenceRow{}, err
	}

	var hints []models.Hint
	if err := s.db.Where("question_id = ?", qid).Order("id ASC").Find(&hints).Error; err != nil {
		return nil, err
	}

	rows := make([]ConvergenceRow, 0, len(hints))
	for _, h := range hints {
		row := ConvergenceRow{ID: h.ID, Text: h.HintText, Candidates: map[string]float64{}}
		var m models.Metric
		err := s.db.Where("hint_id = ? AND name = ?", h.ID, models.MetricConvergence).First(&m).Error
		if err == nil {
			row.Candidates = m.ConvergenceScores()
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// EmbeddingSimilarities computes pairwise cosine similarity over sentence
// embeddings of the session's hints. This is the purely textual similarity,
// independent of the elimination-based one the evaluation returns.
func (s *HintService) EmbeddingSimilarities(ctx context.Context, sessionID string) ([][]float64, error) {
	qid, err := latestQuestionID(s.db, sessionID)
	if err != nil || qid == 0 {
		return [][]float64{}, err
	}

	var texts []string
	if err := s.db.Model(&models.Hint{}).Where("question_id = ?", qid).
		Order("id ASC").Pluck("hint_text", &texts).Error; err != nil {
		return nil, err
	}
	if len(texts) == 0 {
		return [][]float64{}, nil
	}

	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, err
	}

	sim := make([][]float64, len(vectors))
	for i := range vectors {
		sim[i] = make([]float64, len(vectors))
		for j := range vectors {
			sim[i][j] = cosine(vectors[i], vectors[j])
		}
	}
	return sim, nil
}

func cosine(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// EntityRow is the entities endpoint shape, distinct from the session state
// payload which keeps the storage column names.
type EntityRow struct {
	Text     string                 `json:"text"`
	Type     string                 `json:"type"`
	Start    int                    `json:"start"`
	End      int                    `json:"end"`
	Metadata map[string]interface{} `json:"metadata"`
}

// EntitiesBySession returns extracted entities grouped by hint id, ordered by
// position in the hint text.
func (s *HintService) EntitiesBySession(sessionID string) (map[uint][]EntityRow, error) {
	results := map[uint][]EntityRow{}

	var entities []models.Entity
	err := s.db.
		Joins("JOIN hints ON hints.id = entities.hint_id").
		Joins("JOIN questions ON questions.id = hints.question_id").
		Where("questions.session_id = ?", sessionID).
		Order("entities.hint_id ASC, entities.start_index ASC").
		Find(&entities).Error
	if err != nil {
		return nil, err
	}

	for _, e := range entities {
		results[e.HintID] = append(results[e.HintID], EntityRow{
			Text: e.Entity, Type: e.EntType,
			Start: e.StartIndex, End: e.EndIndex,
			Metadata: e.Metadata,
		})
	}
	return results, nil
}
