package services

import (
	"context"
	"testing"

	"github.com/gabrielk-coder/Website-for-Hint-Generation-and-Evaluation/internal/llm"
	"github.com/gabrielk-coder/Website-for-Hint-Generation-and-Evaluation/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderForEvaluation(t *testing.T) {
	in := []Candidate{
		{Text: "zebra"},
		{Text: "Paris", IsGroundtruth: true},
		{Text: "apple"},
		{Text: "mango"},
	}

	out := OrderForEvaluation(in)

	require.Len(t, out, 4)
	assert.Equal(t, "apple", out[0].Text)
	assert.Equal(t, "mango", out[1].Text)
	assert.Equal(t, "zebra", out[2].Text)
	assert.Equal(t, "Paris", out[3].Text)
	assert.True(t, out[3].IsGroundtruth)
}

func TestOrderForEvaluation_Stable(t *testing.T) {
	a := OrderForEvaluation([]Candidate{{Text: "b"}, {Text: "a"}, {Text: "gt", IsGroundtruth: true}})
	b := OrderForEvaluation([]Candidate{{Text: "gt", IsGroundtruth: true}, {Text: "a"}, {Text: "b"}})
	assert.Equal(t, a, b)
}

func TestAssignGroundTruth(t *testing.T) {
	out := AssignGroundTruth([]string{"x", "y", "z"})
	require.Len(t, out, 3)
	assert.False(t, out[0].IsGroundtruth)
	assert.False(t, out[1].IsGroundtruth)
	assert.True(t, out[2].IsGroundtruth)

	assert.Empty(t, AssignGroundTruth(nil))
}

func TestSaveCandidate_FirstBecomesGroundTruth(t *testing.T) {
	db := newTestDB(t)
	svc := NewCandidateService(db, &fakeGenerator{})
	qid := seedQuestion(t, db, "s1", "What is the capital of France?", "Paris")

	require.NoError(t, svc.SaveCandidate("s1", "Paris", nil))
	require.NoError(t, svc.SaveCandidate("s1", "Lyon", nil))

	var cands []models.CandidateAnswer
	require.NoError(t, db.Where("question_id = ?", qid).Order("id ASC").Find(&cands).Error)
	require.Len(t, cands, 2)
	assert.True(t, cands[0].IsGroundtruth)
	assert.False(t, cands[1].IsGroundtruth)
}

func TestSaveCandidate_EditByIndex(t *testing.T) {
	db := newTestDB(t)
	svc := NewCandidateService(db, &fakeGenerator{})
	seedQuestion(t, db, "s1", "q", "a")

	require.NoError(t, svc.SaveCandidate("s1", "one", nil))
	require.NoError(t, svc.SaveCandidate("s1", "two", nil))

	idx := 1
	require.NoError(t, svc.SaveCandidate("s1", "edited", &idx))

	texts, err := svc.CandidateTexts("s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "edited"}, texts)

	bad := 5
	assert.ErrorIs(t, svc.SaveCandidate("s1", "nope", &bad), ErrIndexOutOfRange)
}

func TestSaveCandidate_NoActiveQuestion(t *testing.T) {
	db := newTestDB(t)
	svc := NewCandidateService(db, &fakeGenerator{})
	assert.ErrorIs(t, svc.SaveCandidate("empty", "x", nil), ErrNoActiveQuestion)
}

func TestSaveCandidate_InvalidatesMetrics(t *testing.T) {
	db := newTestDB(t)
	svc := NewCandidateService(db, &fakeGenerator{})
	qid := seedQuestion(t, db, "s1", "q", "a")
	hid := seedHint(t, db, qid, "hint")
	require.NoError(t, db.Create(&models.Metric{HintID: hid, Name: models.MetricRelevance, Value: floatPtr(0.9)}).Error)

	require.NoError(t, svc.SaveCandidate("s1", "new candidate", nil))

	var count int64
	db.Model(&models.Metric{}).Where("hint_id = ?", hid).Count(&count)
	assert.Zero(t, count)
}

func TestDeleteCandidate_ReassignsGroundTruth(t *testing.T) {
	db := newTestDB(t)
	svc := NewCandidateService(db, &fakeGenerator{})
	qid := seedQuestion(t, db, "s1", "q", "a")

	for _, c := range []models.CandidateAnswer{
		{QuestionID: qid, CandidateText: "a"},
		{QuestionID: qid, CandidateText: "b"},
		{QuestionID: qid, CandidateText: "c", IsGroundtruth: true},
	} {
		require.NoError(t, db.Create(&c).Error)
	}

	// Removing the ground truth at index 2 moves the flag to index 1.
	require.NoError(t, svc.DeleteCandidate("s1", 2))

	var cands []models.CandidateAnswer
	require.NoError(t, db.Where("question_id = ?", qid).Order("id ASC").Find(&cands).Error)
	require.Len(t, cands, 2)
	assert.Equal(t, "b", cands[1].CandidateText)
	assert.True(t, cands[1].IsGroundtruth)
	assert.False(t, cands[0].IsGroundtruth)
}

func TestDeleteCandidate_GroundTruthAtZero(t *testing.T) {
	db := newTestDB(t)
	svc := NewCandidateService(db, &fakeGenerator{})
	qid := seedQuestion(t, db, "s1", "q", "a")

	require.NoError(t, db.Create(&models.CandidateAnswer{QuestionID: qid, CandidateText: "gt", IsGroundtruth: true}).Error)
	require.NoError(t, db.Create(&models.CandidateAnswer{QuestionID: qid, CandidateText: "other"}).Error)

	require.NoError(t, svc.DeleteCandidate("s1", 0))

	var cands []models.CandidateAnswer
	require.NoError(t, db.Where("question_id = ?", qid).Find(&cands).Error)
	require.Len(t, cands, 1)
	assert.Equal(t, "other", cands[0].CandidateText)
	assert.True(t, cands[0].IsGroundtruth)
}

func TestDeleteCandidate_LastOne(t *testing.T) {
	db := newTestDB(t)
	svc := NewCandidateService(db, &fakeGenerator{})
	qid := seedQuestion(t, db, "s1", "q", "a")
	require.NoError(t, db.Create(&models.CandidateAnswer{QuestionID: qid, CandidateText: "only", IsGroundtruth: true}).Error)

	require.NoError(t, svc.DeleteCandidate("s1", 0))

	var count int64
	db.Model(&models.CandidateAnswer{}).Where("question_id = ?", qid).Count(&count)
	assert.Zero(t, count)

	assert.ErrorIs(t, svc.DeleteCandidate("s1", 0), ErrIndexOutOfRange)
}

func TestSetGroundTruth_MovesFlag(t *testing.T) {
	db := newTestDB(t)
	svc := NewCandidateService(db, &fakeGenerator{})
	qid := seedQuestion(t, db, "s1", "q", "a")

	require.NoError(t, db.Create(&models.CandidateAnswer{QuestionID: qid, CandidateText: "a", IsGroundtruth: true}).Error)
	require.NoError(t, db.Create(&models.CandidateAnswer{QuestionID: qid, CandidateText: "b"}).Error)

	require.NoError(t, svc.SetGroundTruth("s1", 1))

	var cands []models.CandidateAnswer
	require.NoError(t, db.Where("question_id = ?", qid).Order("id ASC").Find(&cands).Error)
	assert.False(t, cands[0].IsGroundtruth)
	assert.True(t, cands[1].IsGroundtruth)

	assert.ErrorIs(t, svc.SetGroundTruth("s1", 7), ErrIndexOutOfRange)
}

func TestRegenerate_ReplacesSetAndMarksLast(t *testing.T) {
	db := newTestDB(t)
	gen := &fakeGenerator{candidates: []string{"n1", "n2", "n3"}}
	svc := NewCandidateService(db, gen)
	qid := seedQuestion(t, db, "s1", "q", "a")
	require.NoError(t, db.Create(&models.CandidateAnswer{QuestionID: qid, CandidateText: "old", IsGroundtruth: true, IsEliminated: true}).Error)

	texts, err := svc.Regenerate(context.Background(), "s1", 3, []string{"h"}, llm.GenerationParams{})
	require.NoError(t, err)
	assert.Equal(t, []string{"n1", "n2", "n3"}, texts)

	var cands []models.CandidateAnswer
	require.NoError(t, db.Where("question_id = ?", qid).Order("id ASC").Find(&cands).Error)
	require.Len(t, cands, 3)
	assert.False(t, cands[0].IsGroundtruth)
	assert.True(t, cands[2].IsGroundtruth)
	for _, c := range cands {
		assert.False(t, c.IsEliminated)
	}
}
