package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gabrielk-coder/Website-for-Hint-Generation-and-Evaluation/internal/logger"
	"github.com/gabrielk-coder/Website-for-Hint-Generation-and-Evaluation/internal/models"
)

// subScorers are the five evaluation endpoints, each scoring every hint of the
// instance along one dimension. They are invoked independently so that one
// failing model does not take down the others.
var subScorers = []string{
	models.MetricRelevance,
	models.MetricReadability,
	models.MetricAnswerLeakage,
	models.MetricFamiliarity,
	models.MetricConvergence,
}

// HTTPScorer calls the scoring sidecar that hosts the pre-loaded evaluation
// models. One POST per sub-scorer, each covering the whole instance.
type HTTPScorer struct {
	baseURL    string
	httpClient *http.Client
	log        *logger.Logger
}

var _ Scorer = (*HTTPScorer)(nil)

func NewHTTPScorer(baseURL string, log *logger.Logger) *HTTPScorer {
	return &HTTPScorer{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 300 * time.Second},
		log:        log,
	}
}

type scoreRequest struct {
	Question   string   `json:"question"`
	Answer     string   `json:"answer,omitempty"`
	Hints      []string `json:"hints"`
	Candidates []string `json:"candidates,omitempty"`
}

type scoreResponse struct {
	Hints []struct {
		Metrics  []Metric `json:"metrics"`
		Entities []Entity `json:"entities"`
	} `json:"hints"`
	Error string `json:"error,omitempty"`
}

func (s *HTTPScorer) Score(ctx context.Context, question, answer string, hints, candidates []string) ([]HintResult, error) {
	if strings.TrimSpace(question) == "" || len(hints) == 0 {
		return nil, ErrEmptyInstance
	}

	results := make([]HintResult, len(hints))
	for i, h := range hints {
		results[i] = HintResult{Text: h}
	}

	req := scoreRequest{Question: question, Answer: answer, Hints: hints, Candidates: candidates}
	for _, name := range subScorers {
		resp, err := s.call(ctx, name, req)
		if err != nil {
			s.log.Warnw("sub-scorer failed, omitting its metrics", "scorer", name, "error", err)
			continue
		}
		merge(results, name, resp)
	}
	return normalize(results), nil
}

func (s *HTTPScorer) call(ctx context.Context, name string, body scoreRequest) (*scoreResponse, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/score/"+name, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scorer request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("scorer returned status %d: %s", resp.StatusCode, string(raw))
	}

	var parsed scoreResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse scorer response: %w", err)
	}
	if parsed.Error != "" {
		return nil, fmt.Errorf("scorer error: %s", parsed.Error)
	}
	return &parsed, nil
}

// merge appends the sub-scorer's output onto the per-hint results. Only the
// metric matching the sub-scorer's own name is taken; entities are appended
// from whichever scorer extracted them.
func merge(results []HintResult, name string, resp *scoreResponse) {
	for i := range results {
		if i >= len(resp.Hints) {
			break
		}
		for _, m := range resp.Hints[i].Metrics {
			if m.Name == name {
				results[i].Metrics = append(results[i].Metrics, m)
			}
		}
		results[i].Entities = append(results[i].Entities, resp.Hints[i].Entities...)
	}
}

// normalize guarantees a uniform record shape so downstream code never
// branches on representation: non-nil metadata maps, canonical metric names
// only.
func normalize(results []HintResult) []HintResult {
	for i := range results {
		kept := results[i].Metrics[:0]
		for _, m := range results[i].Metrics {
			if !models.CanonicalMetrics[m.Name] {
				continue
			}
			if m.Metadata == nil {
				m.Metadata = map[string]interface{}{}
			}
			kept = append(kept, m)
		}
		results[i].Metrics = kept

		for j := range results[i].Entities {
			if results[i].Entities[j].Metadata == nil {
				results[i].Entities[j].Metadata = map[string]interface{}{}
			}
		}
	}
	return results
}

func (s *HTTPScorer) Close() error {
	s.httpClient.CloseIdleConnections()
	return nil
}
