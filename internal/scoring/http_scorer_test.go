package scoring

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gabrielk-coder/Website-for-Hint-Generation-and-Evaluation/internal/logger"
	"github.com/gabrielk-coder/Website-for-Hint-Generation-and-Evaluation/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }

func TestScore_EmptyInstance(t *testing.T) {
	s := NewHTTPScorer("http://unused", logger.Nop())

	_, err := s.Score(context.Background(), "", "", []string{"h"}, nil)
	assert.ErrorIs(t, err, ErrEmptyInstance)

	_, err = s.Score(context.Background(), "q", "", nil, nil)
	assert.ErrorIs(t, err, ErrEmptyInstance)
}

func TestScore_SubScorerFailureIsIsolated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/score/")
		if name != models.MetricRelevance {
			http.Error(w, "model not loaded", http.StatusInternalServerError)
			return
		}
		resp := scoreResponse{}
		resp.Hints = append(resp.Hints, struct {
			Metrics  []Metric `json:"metrics"`
			Entities []Entity `json:"entities"`
		}{
			Metrics: []Metric{{Name: models.MetricRelevance, Value: floatPtr(0.8)}},
		})
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	s := NewHTTPScorer(srv.URL, logger.Nop())
	results, err := s.Score(context.Background(), "q", "a", []string{"h1"}, []string{"c"})
	require.NoError(t, err)
	require.Len(t, results, 1)

	// only the healthy sub-scorer contributed
	require.Len(t, results[0].Metrics, 1)
	assert.Equal(t, models.MetricRelevance, results[0].Metrics[0].Name)
	assert.NotNil(t, results[0].Metrics[0].Metadata)
}

func TestScore_DropsNonCanonicalMetrics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/score/")
		resp := scoreResponse{}
		resp.Hints = append(resp.Hints, struct {
			Metrics  []Metric `json:"metrics"`
			Entities []Entity `json:"entities"`
		}{
			Metrics: []Metric{
				{Name: name, Value: floatPtr(1)},
				{Name: "debug-extra", Value: floatPtr(9)},
			},
		})
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	s := NewHTTPScorer(srv.URL, logger.Nop())
	results, err := s.Score(context.Background(), "q", "a", []string{"h1"}, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)

	for _, m := range results[0].Metrics {
		assert.True(t, models.CanonicalMetrics[m.Name], "unexpected metric %s", m.Name)
	}
	assert.Len(t, results[0].Metrics, len(subScorers))
}

func TestScore_ScorerErrorField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(scoreResponse{Error: "out of memory"})
	}))
	defer srv.Close()

	s := NewHTTPScorer(srv.URL, logger.Nop())
	results, err := s.Score(context.Background(), "q", "a", []string{"h1"}, nil)
	require.NoError(t, err)

	// every sub-scorer errored, so the hint has no metrics at all
	require.Len(t, results, 1)
	assert.Empty(t, results[0].Metrics)
}

func TestNormalize(t *testing.T) {
	in := []HintResult{{
		Text: "h",
		Metrics: []Metric{
			{Name: models.MetricConvergence, Value: floatPtr(1)},
			{Name: "bogus", Value: floatPtr(2)},
		},
		Entities: []Entity{{Entity: "Paris", EntType: "GPE"}},
	}}

	out := normalize(in)

	require.Len(t, out[0].Metrics, 1)
	assert.NotNil(t, out[0].Metrics[0].Metadata)
	assert.NotNil(t, out[0].Entities[0].Metadata)
}
