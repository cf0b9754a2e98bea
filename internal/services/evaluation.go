package services

import (
	"context"

	"github.com/gabrielk-coder/Website-for-Hint-Generation-and-Evaluation/internal/llm"
	"github.com/gabrielk-coder/Website-for-Hint-Generation-and-Evaluation/internal/logger"
	"github.com/gabrielk-coder/Website-for-Hint-Generation-and-Evaluation/internal/models"
	"github.com/gabrielk-coder/Website-for-Hint-Generation-and-Evaluation/internal/scoring"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// EvaluationService runs the scoring capability over the session's current
// question/answer/hints/candidates and persists the derived state: metric and
// entity rows per hint, and the per-candidate elimination flags.
type EvaluationService struct {
	db     *gorm.DB
	gen    llm.Generator
	scorer scoring.Scorer
	log    *logger.Logger
}

func NewEvaluationService(db *gorm.DB, gen llm.Generator, scorer scoring.Scorer, log *logger.Logger) *EvaluationService {
	return &EvaluationService{db: db, gen: gen, scorer: scorer, log: log}
}

type EvaluateInput struct {
	Question      string
	Hints         []string
	Answer        string
	NumCandidates int
	Params        llm.GenerationParams
}

type EvaluateResult struct {
	Question             string                 `json:"question"`
	NumHints             int                    `json:"num_hints"`
	Metrics              [][]MetricPayload      `json:"metrics"`
	ScoresConvergence    []map[string]float64   `json:"scores_convergence"`
	EntitiesPerHint      [][]EntityPayload      `json:"entities_per_hint"`
	CandidateConvergence []CandidateConvergence `json:"candidate_convergence"`
	Hint2HintSimilarity  [][]float64            `json:"hint2hint_similarity"`
	CandidateAnswers     []string               `json:"candidate_answers"`
}

// RunAndPersist executes the full evaluation pass described by the input
// against the session's active question.
//
// Persisted candidates are reused verbatim; only when none exist is a fresh
// batch generated (last one ground truth). The canonical candidate order
// (distractors lexicographic, ground truth last) is the only key space used
// for elimination lookups afterwards.
func (s *EvaluationService) RunAndPersist(ctx context.Context, sessionID string, in EvaluateInput) (EvaluateResult, error) {
	existing, err := s.loadCandidates(sessionID)
	if err != nil {
		return EvaluateResult{}, err
	}

	candidatesWereGenerated := false
	candidates := existing
	if len(candidates) == 0 {
		texts, err := s.gen.GenerateCandidates(ctx, in.Question, in.NumCandidates, in.Hints, in.Params)
		if err != nil {
			return EvaluateResult{}, err
		}
		candidates = AssignGroundTruth(texts)
		candidatesWereGenerated = true
	}

	// Guarantee exactly one ground truth going into evaluation: persisted
	// sets can lack the flag (older data), so the last distractor is
	// promoted.
	distractors := make([]Candidate, 0, len(candidates))
	groundTruths := make([]Candidate, 0, 1)
	for _, c := range candidates {
		if c.IsGroundtruth {
			groundTruths = append(groundTruths, c)
		} else {
			distractors = append(distractors, c)
		}
	}
	if len(groundTruths) == 0 && len(distractors) > 0 {
		promoted := distractors[len(distractors)-1]
		promoted.IsGroundtruth = true
		distractors = distractors[:len(distractors)-1]
		groundTruths = append(groundTruths, promoted)
	}

	ordered := OrderForEvaluation(append(distractors, groundTruths...))
	orderedTexts := make([]string, len(ordered))
	for i, c := range ordered {
		orderedTexts[i] = c.Text
	}

	results, err := s.scorer.Score(ctx, in.Question, in.Answer, in.Hints, orderedTexts)
	if err != nil {
		return EvaluateResult{}, err
	}

	qid, err := latestQuestionID(s.db, sessionID)
	if err != nil {
		return EvaluateResult{}, err
	}
	if qid == 0 {
		return EvaluateResult{}, nil
	}

	// Elimination is a logical OR across hints: one zero score anywhere
	// flags the candidate for this pass.
	eliminated := map[string]bool{}
	for _, c := range ordered {
		eliminated[c.Text] = false
	}
	for _, res := range results {
		for cand, score := range convergenceScores(res) {
			if score == 0 {
				eliminated[cand] = true
			}
		}
	}

	var dbHints []models.Hint
	if err := s.db.Where("question_id = ?", qid).Order("id ASC").Find(&dbHints).Error; err != nil {
		return EvaluateResult{}, err
	}

	result := EvaluateResult{
		Question:             in.Question,
		NumHints:             len(in.Hints),
		Metrics:              [][]MetricPayload{},
		ScoresConvergence:    []map[string]float64{},
		EntitiesPerHint:      [][]EntityPayload{},
		CandidateConvergence: []CandidateConvergence{},
		CandidateAnswers:     orderedTexts,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := clearMetrics(tx, qid); err != nil {
			return err
		}

		if candidatesWereGenerated {
			if err := tx.Where("question_id = ?", qid).Delete(&models.CandidateAnswer{}).Error; err != nil {
				return err
			}
			for _, c := range ordered {
				row := models.CandidateAnswer{
					QuestionID:    qid,
					CandidateText: c.Text,
					IsEliminated:  eliminated[c.Text],
					IsGroundtruth: c.IsGroundtruth,
				}
				if err := tx.Create(&row).Error; err != nil {
					return err
				}
			}
		} else {
			for _, c := range ordered {
				err := tx.Model(&models.CandidateAnswer{}).
					Where("question_id = ? AND candidate_text = ?", qid, c.Text).
					Update("is_eliminated", eliminated[c.Text]).Error
				if err != nil {
					return err
				}
			}
		}

		for i, res := range results {
			if i >= len(dbHints) {
				break
			}
			hintID := dbHints[i].ID

			mList := []MetricPayload{}
			for _, m := range res.Metrics {
				row := models.Metric{
					HintID:   hintID,
					Name:     m.Name,
					Value:    m.Value,
					Metadata: datatypes.JSONMap(m.Metadata),
				}
				if err := tx.Create(&row).Error; err != nil {
					return err
				}
				mList = append(mList, MetricPayload{Name: m.Name, Value: m.Value, Metadata: m.Metadata})
			}
			result.Metrics = append(result.Metrics, mList)
			result.ScoresConvergence = append(result.ScoresConvergence, convergenceScores(res))

			eList := []EntityPayload{}
			for _, e := range res.Entities {
				row := models.Entity{
					HintID:     hintID,
					Entity:     e.Entity,
					EntType:    e.EntType,
					StartIndex: e.StartIndex,
					EndIndex:   e.EndIndex,
					Metadata:   datatypes.JSONMap(e.Metadata),
				}
				if err := tx.Create(&row).Error; err != nil {
					return err
				}
				eList = append(eList, EntityPayload{
					Entity: e.Entity, EntType: e.EntType,
					StartIndex: e.StartIndex, EndIndex: e.EndIndex,
					Metadata: e.Metadata,
				})
			}
			result.EntitiesPerHint = append(result.EntitiesPerHint, eList)
		}
		return nil
	})
	if err != nil {
		return EvaluateResult{}, err
	}

	for _, cand := range orderedTexts {
		scores := make([]*float64, 0, len(result.ScoresConvergence))
		for _, hintScores := range result.ScoresConvergence {
			if v, ok := hintScores[cand]; ok {
				val := v
				scores = append(scores, &val)
			} else {
				scores = append(scores, nil)
			}
		}
		result.CandidateConvergence = append(result.CandidateConvergence, CandidateConvergence{Candidate: cand, Scores: scores})
	}

	result.Hint2HintSimilarity = hint2HintSimilarity(len(in.Hints), result.ScoresConvergence)

	s.log.Infow("evaluation persisted", "session_id", sessionID, "question_id", qid,
		"hints", len(in.Hints), "candidates", len(orderedTexts))
	return result, nil
}

func (s *EvaluationService) loadCandidates(sessionID string) ([]Candidate, error) {
	qid, err := latestQuestionID(s.db, sessionID)
	if err != nil || qid == 0 {
		return nil, err
	}
	var rows []models.CandidateAnswer
	if err := s.db.Where("question_id = ?", qid).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	cands := make([]Candidate, 0, len(rows))
	for _, r := range rows {
		cands = append(cands, Candidate{Text: r.CandidateText, IsGroundtruth: r.IsGroundtruth})
	}
	return cands, nil
}

func convergenceScores(res scoring.HintResult) map[string]float64 {
	for _, m := range res.Metrics {
		if m.Name != models.MetricConvergence {
			continue
		}
		scores := map[string]float64{}
		raw, ok := m.Metadata["scores"].(map[string]interface{})
		if !ok {
			return scores
		}
		for cand, v := range raw {
			switch n := v.(type) {
			case float64:
				scores[cand] = n
			case int:
				scores[cand] = float64(n)
			}
		}
		return scores
	}
	return map[string]float64{}
}

// hint2HintSimilarity builds the N×N Jaccard matrix over the sets of
// candidates each hint eliminates (score == 0 in its convergence metadata).
// Rows beyond the scored hints fall back to 0.
func hint2HintSimilarity(numHints int, scoresConvergence []map[string]float64) [][]float64 {
	removedPerHint := make([]map[string]struct{}, len(scoresConvergence))
	for i, scores := range scoresConvergence {
		removed := map[string]struct{}{}
		for cand, v := range scores {
			if v == 0 {
				removed[cand] = struct{}{}
			}
		}
		removedPerHint[i] = removed
	}

	matrix := make([][]float64, numHints)
	for i := 0; i < numHints; i++ {
		matrix[i] = make([]float64, numHints)
		for j := 0; j < numHints; j++ {
			if i < len(removedPerHint) && j < len(removedPerHint) {
				matrix[i][j] = jaccard(removedPerHint[i], removedPerHint[j])
			}
		}
	}
	return matrix
}

// jaccard of two empty sets is defined as 1.0.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	inter := 0
	for k := range a {
		if _, ok := b[k]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0.0
	}
	return float64(inter) / float64(union)
}
