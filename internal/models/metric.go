package models

import (
	"encoding/json"
	"strconv"

	"gorm.io/datatypes"
)

const (
	MetricRelevance     = "relevance"
	MetricReadability   = "readability"
	MetricFamiliarity   = "familiarity"
	MetricAnswerLeakage = "answer-leakage"
	MetricConvergence   = "convergence"
)

// CanonicalMetrics is the fixed set of metric names the evaluation pipeline
// produces. Anything else coming back from a scorer is dropped.
var CanonicalMetrics = map[string]bool{
	MetricRelevance:     true,
	MetricReadability:   true,
	MetricFamiliarity:   true,
	MetricAnswerLeakage: true,
	MetricConvergence:   true,
}

type Metric struct {
	ID       uint              `gorm:"primaryKey" json:"id"`
	HintID   uint              `gorm:"not null;index" json:"hint_id"`
	Name     string            `gorm:"size:64;not null" json:"name"`
	Value    *float64          `json:"value"`
	Metadata datatypes.JSONMap `gorm:"column:metadata_json" json:"metadata"`
}

// ConvergenceScores extracts the per-candidate score map from a convergence
// metric's metadata. Candidate texts map to numbers where 0 means the hint
// eliminates that candidate. Returns an empty map for anything malformed.
func (m Metric) ConvergenceScores() map[string]float64 {
	scores := map[string]float64{}
	if m.Metadata == nil {
		return scores
	}
	raw, ok := m.Metadata["scores"].(map[string]interface{})
	if !ok {
		return scores
	}
	for cand, v := range raw {
		if f, ok := toFloat(v); ok {
			scores[cand] = f
		}
	}
	return scores
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		if f, err := n.Float64(); err == nil {
			return f, true
		}
	case string:
		// Some drivers round-trip JSON numbers as strings.
		if f, err := strconv.ParseFloat(n, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}
