package services

import (
	"context"
	"sort"

	"github.com/gabrielk-coder/Website-for-Hint-Generation-and-Evaluation/internal/llm"
	"github.com/gabrielk-coder/Website-for-Hint-Generation-and-Evaluation/internal/models"

	"gorm.io/gorm"
)

type CandidateService struct {
	db  *gorm.DB
	gen llm.Generator
}

func NewCandidateService(db *gorm.DB, gen llm.Generator) *CandidateService {
	return &CandidateService{db: db, gen: gen}
}

// Candidate is the in-memory shape the evaluation pipeline works with.
type Candidate struct {
	Text          string `json:"text"`
	IsGroundtruth bool   `json:"is_groundtruth"`
}

// OrderForEvaluation produces the canonical candidate order shown to the
// scorers: distractors sorted lexicographically by text, ground truth last.
// This order is stable across re-runs regardless of generation order.
func OrderForEvaluation(candidates []Candidate) []Candidate {
	distractors := make([]Candidate, 0, len(candidates))
	groundTruths := make([]Candidate, 0, 1)
	for _, c := range candidates {
		if c.IsGroundtruth {
			groundTruths = append(groundTruths, c)
		} else {
			distractors = append(distractors, c)
		}
	}
	sort.Slice(distractors, func(i, j int) bool {
		return distractors[i].Text < distractors[j].Text
	})
	return append(distractors, groundTruths...)
}

// AssignGroundTruth marks the last candidate of a freshly generated batch as
// ground truth, per the generation prompt's contract that the correct option
// comes last.
func AssignGroundTruth(texts []string) []Candidate {
	out := make([]Candidate, len(texts))
	for i, t := range texts {
		out[i] = Candidate{Text: t, IsGroundtruth: i == len(texts)-1}
	}
	return out
}

func (s *CandidateService) GetCandidates(sessionID string) ([]models.CandidateAnswer, error) {
	qid, err := latestQuestionID(s.db, sessionID)
	if err != nil || qid == 0 {
		return []models.CandidateAnswer{}, err
	}
	var cands []models.CandidateAnswer
	err = s.db.Where("question_id = ?", qid).Order("id ASC").Find(&cands).Error
	return cands, err
}

func (s *CandidateService) CandidateTexts(sessionID string) ([]string, error) {
	cands, err := s.GetCandidates(sessionID)
	if err != nil {
		return nil, err
	}
	texts := make([]string, 0, len(cands))
	for _, c := range cands {
		texts = append(texts, c.CandidateText)
	}
	return texts, nil
}

// SaveCandidate inserts a new candidate (index nil) or edits the candidate at
// the given insertion-order position. A first manually saved candidate with no
// existing ground truth becomes ground truth itself; later ones are plain
// distractors. Invalidates metrics either way.
func (s *CandidateService) SaveCandidate(sessionID, text string, index *int) error {
	qid, err := latestQuestionID(s.db, sessionID)
	if err != nil {
		return err
	}
	if qid == 0 {
		return ErrNoActiveQuestion
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if index == nil {
			var gtCount int64
			if err := tx.Model(&models.CandidateAnswer{}).
				Where("question_id = ? AND is_groundtruth = ?", qid, true).
				Count(&gtCount).Error; err != nil {
				return err
			}
			cand := models.CandidateAnswer{
				QuestionID:    qid,
				CandidateText: text,
				IsGroundtruth: gtCount == 0,
			}
			if err := tx.Create(&cand).Error; err != nil {
				return err
			}
		} else {
			var cands []models.CandidateAnswer
			if err := tx.Where("question_id = ?", qid).Order("id ASC").Find(&cands).Error; err != nil {
				return err
			}
			if *index < 0 || *index >= len(cands) {
				return ErrIndexOutOfRange
			}
			if err := tx.Model(&cands[*index]).Update("candidate_text", text).Error; err != nil {
				return err
			}
		}
		return clearMetrics(tx, qid)
	})
}

// DeleteCandidate removes the candidate at the given insertion-order position.
// If it carried the ground-truth flag, the flag moves to the candidate now at
// max(0, index-1) among the remaining ones, or nowhere if none remain.
func (s *CandidateService) DeleteCandidate(sessionID string, index int) error {
	qid, err := latestQuestionID(s.db, sessionID)
	if err != nil || qid == 0 {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var cands []models.CandidateAnswer
		if err := tx.Where("question_id = ?", qid).Order("id ASC").Find(&cands).Error; err != nil {
			return err
		}
		if index < 0 || index >= len(cands) {
			return ErrIndexOutOfRange
		}

		deleted := cands[index]
		if err := tx.Delete(&deleted).Error; err != nil {
			return err
		}

		if deleted.IsGroundtruth {
			remaining := append(append([]models.CandidateAnswer{}, cands[:index]...), cands[index+1:]...)
			if len(remaining) > 0 {
				next := index - 1
				if next < 0 {
					next = 0
				}
				if next > len(remaining)-1 {
					next = len(remaining) - 1
				}
				if err := tx.Model(&remaining[next]).Update("is_groundtruth", true).Error; err != nil {
					return err
				}
			}
		}
		return clearMetrics(tx, qid)
	})
}

// SetGroundTruth re-designates the ground truth to the candidate at the given
// insertion-order position, clearing the flag everywhere else first.
func (s *CandidateService) SetGroundTruth(sessionID string, index int) error {
	qid, err := latestQuestionID(s.db, sessionID)
	if err != nil {
		return err
	}
	if qid == 0 {
		return ErrNoActiveQuestion
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var cands []models.CandidateAnswer
		if err := tx.Where("question_id = ?", qid).Order("id ASC").Find(&cands).Error; err != nil {
			return err
		}
		if index < 0 || index >= len(cands) {
			return ErrIndexOutOfRange
		}
		err := tx.Model(&models.CandidateAnswer{}).
			Where("question_id = ? AND is_groundtruth = ?", qid, true).
			Update("is_groundtruth", false).Error
		if err != nil {
			return err
		}
		if err := tx.Model(&cands[index]).Update("is_groundtruth", true).Error; err != nil {
			return err
		}
		return clearMetrics(tx, qid)
	})
}

func (s *CandidateService) DeleteAllCandidates(sessionID string) error {
	qid, err := latestQuestionID(s.db, sessionID)
	if err != nil || qid == 0 {
		return err
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("question_id = ?", qid).Delete(&models.CandidateAnswer{}).Error; err != nil {
			return err
		}
		return clearMetrics(tx, qid)
	})
}

// Regenerate replaces the session's candidates with a fresh LLM batch. The
// last generated candidate becomes ground truth.
func (s *CandidateService) Regenerate(ctx context.Context, sessionID string, numCandidates int, hints []string, p llm.GenerationParams) ([]string, error) {
	qid, err := latestQuestionID(s.db, sessionID)
	if err != nil {
		return nil, err
	}
	if qid == 0 {
		return nil, ErrNoActiveQuestion
	}

	var q models.Question
	if err := s.db.First(&q, qid).Error; err != nil {
		return nil, err
	}

	texts, err := s.gen.GenerateCandidates(ctx, q.Text, numCandidates, hints, p)
	if err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("question_id = ?", qid).Delete(&models.CandidateAnswer{}).Error; err != nil {
			return err
		}
		for _, c := range AssignGroundTruth(texts) {
			row := models.CandidateAnswer{
				QuestionID:    qid,
				CandidateText: c.Text,
				IsGroundtruth: c.IsGroundtruth,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return clearMetrics(tx, qid)
	})
	if err != nil {
		return nil, err
	}
	return texts, nil
}
