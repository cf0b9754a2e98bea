package services

import (
	"context"
	"testing"

	"github.com/gabrielk-coder/Website-for-Hint-Generation-and-Evaluation/internal/llm"
	"github.com/gabrielk-coder/Website-for-Hint-Generation-and-Evaluation/internal/models"
	"github.com/gabrielk-coder/Website-for-Hint-Generation-and-Evaluation/internal/scoring"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A pooled :memory: sqlite gives each connection its own database.
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.Question{}, &models.Answer{}, &models.Hint{},
		&models.CandidateAnswer{}, &models.Metric{}, &models.Entity{},
	))
	return db
}

func seedQuestion(t *testing.T, db *gorm.DB, sessionID, text, answer string) uint {
	t.Helper()
	q := models.Question{Text: text, SessionID: sessionID}
	require.NoError(t, db.Create(&q).Error)
	if answer != "" {
		a := models.Answer{QuestionID: q.ID, AnswerText: answer}
		require.NoError(t, db.Create(&a).Error)
	}
	return q.ID
}

func seedHint(t *testing.T, db *gorm.DB, questionID uint, text string) uint {
	t.Helper()
	h := models.Hint{QuestionID: questionID, HintText: text}
	require.NoError(t, db.Create(&h).Error)
	return h.ID
}

func floatPtr(v float64) *float64 { return &v }

type fakeGenerator struct {
	answer     string
	hints      []string
	candidates []string
	err        error

	candidateCalls int
}

var _ llm.Generator = (*fakeGenerator)(nil)

func (f *fakeGenerator) GenerateAnswer(ctx context.Context, question string, answerAware bool, reference string, p llm.GenerationParams) (string, error) {
	return f.answer, f.err
}

func (f *fakeGenerator) GenerateHints(ctx context.Context, question, answer string, count int, p llm.GenerationParams) ([]string, error) {
	return f.hints, f.err
}

func (f *fakeGenerator) GenerateCandidates(ctx context.Context, question string, count int, hints []string, p llm.GenerationParams) ([]string, error) {
	f.candidateCalls++
	return f.candidates, f.err
}

type fakeEmbedder struct {
	vectors [][]float32
}

var _ llm.Embedder = (*fakeEmbedder)(nil)

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return f.vectors[:len(texts)], nil
}

type fakeScorer struct {
	results []scoring.HintResult
	err     error

	gotCandidates []string
}

var _ scoring.Scorer = (*fakeScorer)(nil)

func (f *fakeScorer) Score(ctx context.Context, question, answer string, hints, candidates []string) ([]scoring.HintResult, error) {
	f.gotCandidates = candidates
	return f.results, f.err
}

func (f *fakeScorer) Close() error { return nil }

// convergenceResult builds a hint result carrying a convergence metric with
// the given per-candidate scores.
func convergenceResult(hint string, scores map[string]interface{}) scoring.HintResult {
	return scoring.HintResult{
		Text: hint,
		Metrics: []scoring.Metric{{
			Name:     models.MetricConvergence,
			Value:    floatPtr(0.5),
			Metadata: map[string]interface{}{"scores": scores},
		}},
	}
}
