package services

import (
	"errors"
	"sort"

	"github.com/gabrielk-coder/Website-for-Hint-Generation-and-Evaluation/internal/models"

	"gorm.io/gorm"
)

type QuestionService struct {
	db *gorm.DB
}

func NewQuestionService(db *gorm.DB) *QuestionService {
	return &QuestionService{db: db}
}

// LatestQuestionID resolves the session's active question: the most recently
// created one. Returns 0 with no error when the session is empty.
func (s *QuestionService) LatestQuestionID(sessionID string) (uint, error) {
	return latestQuestionID(s.db, sessionID)
}

func latestQuestionID(db *gorm.DB, sessionID string) (uint, error) {
	var q models.Question
	err := db.Where("session_id = ?", sessionID).
		Order("created_at DESC, id DESC").
		First(&q).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return q.ID, nil
}

type QuestionAnswer struct {
	Question *string `json:"question"`
	Answer   *string `json:"answer"`
}

func (s *QuestionService) GetQuestionAndAnswer(sessionID string) (QuestionAnswer, error) {
	qid, err := s.LatestQuestionID(sessionID)
	if err != nil || qid == 0 {
		return QuestionAnswer{}, err
	}

	var q models.Question
	if err := s.db.First(&q, qid).Error; err != nil {
		return QuestionAnswer{}, err
	}

	result := QuestionAnswer{Question: &q.Text}
	if a, err := latestAnswer(s.db, qid); err == nil && a != nil {
		result.Answer = &a.AnswerText
	}
	return result, nil
}

func latestAnswer(db *gorm.DB, questionID uint) (*models.Answer, error) {
	var a models.Answer
	err := db.Where("question_id = ?", questionID).
		Order("created_at DESC, id DESC").
		First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ResetSession deletes the session's questions; answers, hints, metrics,
// entities, and candidates go with them via cascade.
func (s *QuestionService) ResetSession(sessionID string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return deleteSessionQuestions(tx, sessionID)
	})
}

func deleteSessionQuestions(tx *gorm.DB, sessionID string) error {
	var ids []uint
	if err := tx.Model(&models.Question{}).Where("session_id = ?", sessionID).Pluck("id", &ids).Error; err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	// sqlite in tests has no FK cascades configured, so dependents are
	// removed explicitly; on postgres the FK constraints make these no-ops
	// after the question delete, which stays last.
	var hintIDs []uint
	if err := tx.Model(&models.Hint{}).Where("question_id IN ?", ids).Pluck("id", &hintIDs).Error; err != nil {
		return err
	}
	if len(hintIDs) > 0 {
		if err := tx.Where("hint_id IN ?", hintIDs).Delete(&models.Metric{}).Error; err != nil {
			return err
		}
		if err := tx.Where("hint_id IN ?", hintIDs).Delete(&models.Entity{}).Error; err != nil {
			return err
		}
	}
	for _, m := range []interface{}{&models.Hint{}, &models.Answer{}, &models.CandidateAnswer{}} {
		if err := tx.Where("question_id IN ?", ids).Delete(m).Error; err != nil {
			return err
		}
	}
	return tx.Where("id IN ?", ids).Delete(&models.Question{}).Error
}

// UpdateAnswer overwrites the question's answer text. Metrics are cleared in
// the same transaction: they were computed against the old answer.
func (s *QuestionService) UpdateAnswer(questionID uint, newText string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.Answer{}).
			Where("question_id = ?", questionID).
			Update("answer_text", newText).Error
		if err != nil {
			return err
		}
		return clearMetrics(tx, questionID)
	})
}

// ClearMetrics implements the invalidation protocol: every Metric and Entity
// under the question's hints is deleted and all candidate elimination flags
// are reset. Idempotent; a no-op when the question has no hints.
func (s *QuestionService) ClearMetrics(questionID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return clearMetrics(tx, questionID)
	})
}

func clearMetrics(tx *gorm.DB, questionID uint) error {
	var hintIDs []uint
	if err := tx.Model(&models.Hint{}).Where("question_id = ?", questionID).Pluck("id", &hintIDs).Error; err != nil {
		return err
	}
	if len(hintIDs) > 0 {
		if err := tx.Where("hint_id IN ?", hintIDs).Delete(&models.Metric{}).Error; err != nil {
			return err
		}
		if err := tx.Where("hint_id IN ?", hintIDs).Delete(&models.Entity{}).Error; err != nil {
			return err
		}
	}
	return tx.Model(&models.CandidateAnswer{}).
		Where("question_id = ?", questionID).
		Update("is_eliminated", false).Error
}

type MetricPayload struct {
	Name     string                 `json:"name"`
	Value    *float64               `json:"value"`
	Metadata map[string]interface{} `json:"metadata"`
}

type EntityPayload struct {
	Entity     string                 `json:"entity"`
	EntType    string                 `json:"ent_type"`
	StartIndex int                    `json:"start_index"`
	EndIndex   int                    `json:"end_index"`
	Metadata   map[string]interface{} `json:"metadata"`
}

type HintPayload struct {
	ID   uint   `json:"id"`
	Text string `json:"text"`
}

type CandidateConvergence struct {
	Candidate string     `json:"candidate"`
	Scores    []*float64 `json:"scores"`
}

type SessionState struct {
	Question             *string                `json:"question"`
	Answer               *string                `json:"answer"`
	Hints                []HintPayload          `json:"hints"`
	Metrics              [][]MetricPayload      `json:"metrics"`
	ScoresConvergence    []map[string]float64   `json:"scores_convergence"`
	EntitiesPerHint      [][]EntityPayload      `json:"entities_per_hint"`
	CandidateAnswers     []string               `json:"candidate_answers"`
	CandidateConvergence []CandidateConvergence `json:"candidate_convergence"`
	Hint2HintSimilarity  [][]float64            `json:"hint2hint_similarity"`
}

func emptySessionState() SessionState {
	return SessionState{
		Hints:                []HintPayload{},
		Metrics:              [][]MetricPayload{},
		ScoresConvergence:    []map[string]float64{},
		EntitiesPerHint:      [][]EntityPayload{},
		CandidateAnswers:     []string{},
		CandidateConvergence: []CandidateConvergence{},
		Hint2HintSimilarity:  [][]float64{},
	}
}

// GetFullSessionState composes the last-persisted state of the session into a
// single snapshot. Read-only: it never triggers generation or evaluation, and
// candidate_convergence is rebuilt purely from persisted convergence metadata.
func (s *QuestionService) GetFullSessionState(sessionID string) (SessionState, error) {
	state := emptySessionState()

	qid, err := s.LatestQuestionID(sessionID)
	if err != nil {
		return state, err
	}
	if qid == 0 {
		return state, nil
	}

	var q models.Question
	if err := s.db.First(&q, qid).Error; err != nil {
		return state, err
	}
	state.Question = &q.Text

	if a, err := latestAnswer(s.db, qid); err != nil {
		return state, err
	} else if a != nil {
		state.Answer = &a.AnswerText
	}

	var hints []models.Hint
	if err := s.db.Where("question_id = ?", qid).Order("id ASC").Find(&hints).Error; err != nil {
		return state, err
	}

	allCandidates := map[string]bool{}
	for _, h := range hints {
		state.Hints = append(state.Hints, HintPayload{ID: h.ID, Text: h.HintText})

		var metrics []models.Metric
		if err := s.db.Where("hint_id = ?", h.ID).Find(&metrics).Error; err != nil {
			return state, err
		}
		mList := []MetricPayload{}
		convScores := map[string]float64{}
		for _, m := range metrics {
			mList = append(mList, MetricPayload{Name: m.Name, Value: m.Value, Metadata: m.Metadata})
			if m.Name == models.MetricConvergence {
				convScores = m.ConvergenceScores()
			}
		}
		state.Metrics = append(state.Metrics, mList)
		state.ScoresConvergence = append(state.ScoresConvergence, convScores)
		for cand := range convScores {
			allCandidates[cand] = true
		}

		var entities []models.Entity
		if err := s.db.Where("hint_id = ?", h.ID).Find(&entities).Error; err != nil {
			return state, err
		}
		eList := []EntityPayload{}
		for _, e := range entities {
			eList = append(eList, EntityPayload{
				Entity: e.Entity, EntType: e.EntType,
				StartIndex: e.StartIndex, EndIndex: e.EndIndex,
				Metadata: e.Metadata,
			})
		}
		state.EntitiesPerHint = append(state.EntitiesPerHint, eList)
	}

	var candTexts []string
	if err := s.db.Model(&models.CandidateAnswer{}).
		Where("question_id = ?", qid).Order("id ASC").
		Pluck("candidate_text", &candTexts).Error; err != nil {
		return state, err
	}
	if len(candTexts) == 0 {
		// No persisted candidates; fall back to whatever the convergence
		// metadata mentions.
		for cand := range allCandidates {
			candTexts = append(candTexts, cand)
		}
		sort.Strings(candTexts)
	}
	if len(candTexts) > 0 {
		state.CandidateAnswers = candTexts
	}

	for _, cand := range candTexts {
		scores := make([]*float64, 0, len(state.ScoresConvergence))
		for _, hintScores := range state.ScoresConvergence {
			if v, ok := hintScores[cand]; ok {
				val := v
				scores = append(scores, &val)
			} else {
				scores = append(scores, nil)
			}
		}
		state.CandidateConvergence = append(state.CandidateConvergence, CandidateConvergence{Candidate: cand, Scores: scores})
	}

	state.Hint2HintSimilarity = hint2HintSimilarity(len(hints), state.ScoresConvergence)

	return state, nil
}
