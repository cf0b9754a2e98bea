package models

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"
)

func TestConvergenceScores(t *testing.T) {
	m := Metric{
		Name: MetricConvergence,
		Metadata: datatypes.JSONMap{
			"scores": map[string]interface{}{
				"Paris": 1.0,
				"Lyon":  0.0,
			},
		},
	}
	assert.Equal(t, map[string]float64{"Paris": 1, "Lyon": 0}, m.ConvergenceScores())
}

// The sqlite driver hands JSON numbers back as strings, so a persisted
// {"Lyon": 0.0} reads as {"Lyon": "0"}.
func TestConvergenceScoresStringEncodedNumbers(t *testing.T) {
	m := Metric{
		Name: MetricConvergence,
		Metadata: datatypes.JSONMap{
			"scores": map[string]interface{}{
				"Paris": "1",
				"Lyon":  "0",
				"Nice":  "0.5",
				"bogus": "not a number",
			},
		},
	}
	assert.Equal(t, map[string]float64{"Paris": 1, "Lyon": 0, "Nice": 0.5}, m.ConvergenceScores())
}

func TestConvergenceScoresJSONNumber(t *testing.T) {
	dec := json.NewDecoder(strings.NewReader(`{"scores": {"Paris": 1, "Lyon": 0.25}}`))
	dec.UseNumber()
	var meta map[string]interface{}
	if err := dec.Decode(&meta); err != nil {
		t.Fatal(err)
	}

	m := Metric{Name: MetricConvergence, Metadata: datatypes.JSONMap(meta)}
	assert.Equal(t, map[string]float64{"Paris": 1, "Lyon": 0.25}, m.ConvergenceScores())
}

func TestConvergenceScoresMalformed(t *testing.T) {
	assert.Empty(t, Metric{Name: MetricConvergence}.ConvergenceScores())
	assert.Empty(t, Metric{
		Name:     MetricConvergence,
		Metadata: datatypes.JSONMap{"scores": "not a map"},
	}.ConvergenceScores())
}
