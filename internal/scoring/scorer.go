package scoring

import (
	"context"
	"errors"
)

// Metric is one named score for a hint. Metadata is free-form except for the
// convergence metric, whose "scores" submap keys candidate texts to numbers
// (0 = the hint eliminates that candidate).
type Metric struct {
	Name     string                 `json:"name"`
	Value    *float64               `json:"value"`
	Metadata map[string]interface{} `json:"metadata"`
}

// Entity is a named-entity annotation extracted from hint text.
type Entity struct {
	Entity     string                 `json:"entity"`
	EntType    string                 `json:"ent_type"`
	StartIndex int                    `json:"start_index"`
	EndIndex   int                    `json:"end_index"`
	Metadata   map[string]interface{} `json:"metadata"`
}

// HintResult bundles everything the scorers produced for a single hint.
// Results are index-aligned with the hint order given to Score.
type HintResult struct {
	Text     string   `json:"text"`
	Metrics  []Metric `json:"metrics"`
	Entities []Entity `json:"entities"`
}

var ErrEmptyInstance = errors.New("question and hints are required")

// Scorer is the external per-hint scoring capability. Implementations run the
// five canonical sub-scorers independently; a failing sub-scorer is logged and
// omitted from the result rather than aborting the evaluation.
type Scorer interface {
	Score(ctx context.Context, question, answer string, hints, candidates []string) ([]HintResult, error)
	Close() error
}
