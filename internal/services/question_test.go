package services

import (
	"testing"

	"github.com/gabrielk-coder/Website-for-Hint-Generation-and-Evaluation/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestLatestQuestionID_EmptySession(t *testing.T) {
	db := newTestDB(t)
	svc := NewQuestionService(db)

	qid, err := svc.LatestQuestionID("nobody")
	require.NoError(t, err)
	assert.Zero(t, qid)
}

func TestLatestQuestionID_NewestWins(t *testing.T) {
	db := newTestDB(t)
	svc := NewQuestionService(db)

	seedQuestion(t, db, "s1", "first", "")
	second := seedQuestion(t, db, "s1", "second", "")

	qid, err := svc.LatestQuestionID("s1")
	require.NoError(t, err)
	assert.Equal(t, second, qid)
}

func TestGetQuestionAndAnswer(t *testing.T) {
	db := newTestDB(t)
	svc := NewQuestionService(db)
	seedQuestion(t, db, "s1", "what?", "that")

	qa, err := svc.GetQuestionAndAnswer("s1")
	require.NoError(t, err)
	require.NotNil(t, qa.Question)
	require.NotNil(t, qa.Answer)
	assert.Equal(t, "what?", *qa.Question)
	assert.Equal(t, "that", *qa.Answer)

	empty, err := svc.GetQuestionAndAnswer("other")
	require.NoError(t, err)
	assert.Nil(t, empty.Question)
	assert.Nil(t, empty.Answer)
}

func TestClearMetrics(t *testing.T) {
	db := newTestDB(t)
	svc := NewQuestionService(db)
	qid := seedQuestion(t, db, "s1", "q", "a")
	hid := seedHint(t, db, qid, "h")

	require.NoError(t, db.Create(&models.Metric{HintID: hid, Name: models.MetricRelevance, Value: floatPtr(0.8)}).Error)
	require.NoError(t, db.Create(&models.Entity{HintID: hid, Entity: "Paris", EntType: "GPE"}).Error)
	require.NoError(t, db.Create(&models.CandidateAnswer{QuestionID: qid, CandidateText: "c", IsEliminated: true}).Error)

	require.NoError(t, svc.ClearMetrics(qid))

	var metrics, entities int64
	db.Model(&models.Metric{}).Where("hint_id = ?", hid).Count(&metrics)
	db.Model(&models.Entity{}).Where("hint_id = ?", hid).Count(&entities)
	assert.Zero(t, metrics)
	assert.Zero(t, entities)

	// hints survive, elimination flags reset
	var hints int64
	db.Model(&models.Hint{}).Where("question_id = ?", qid).Count(&hints)
	assert.EqualValues(t, 1, hints)

	var cand models.CandidateAnswer
	require.NoError(t, db.Where("question_id = ?", qid).First(&cand).Error)
	assert.False(t, cand.IsEliminated)
}

func TestClearMetrics_Idempotent(t *testing.T) {
	db := newTestDB(t)
	svc := NewQuestionService(db)
	qid := seedQuestion(t, db, "s1", "q", "a")

	require.NoError(t, svc.ClearMetrics(qid))
	require.NoError(t, svc.ClearMetrics(qid))
}

func TestUpdateAnswer_InvalidatesMetrics(t *testing.T) {
	db := newTestDB(t)
	svc := NewQuestionService(db)
	qid := seedQuestion(t, db, "s1", "q", "old")
	hid := seedHint(t, db, qid, "h")
	require.NoError(t, db.Create(&models.Metric{HintID: hid, Name: models.MetricReadability, Value: floatPtr(0.6)}).Error)

	require.NoError(t, svc.UpdateAnswer(qid, "new"))

	var a models.Answer
	require.NoError(t, db.Where("question_id = ?", qid).First(&a).Error)
	assert.Equal(t, "new", a.AnswerText)

	var metrics int64
	db.Model(&models.Metric{}).Where("hint_id = ?", hid).Count(&metrics)
	assert.Zero(t, metrics)
}

func TestResetSession_RemovesEverything(t *testing.T) {
	db := newTestDB(t)
	svc := NewQuestionService(db)
	qid := seedQuestion(t, db, "s1", "q", "a")
	hid := seedHint(t, db, qid, "h")
	require.NoError(t, db.Create(&models.Metric{HintID: hid, Name: models.MetricRelevance}).Error)
	require.NoError(t, db.Create(&models.CandidateAnswer{QuestionID: qid, CandidateText: "c"}).Error)
	otherQID := seedQuestion(t, db, "s2", "keep", "me")

	require.NoError(t, svc.ResetSession("s1"))

	for _, m := range []interface{}{&models.Hint{}, &models.Answer{}, &models.CandidateAnswer{}} {
		var n int64
		db.Model(m).Where("question_id = ?", qid).Count(&n)
		assert.Zero(t, n)
	}
	var questions int64
	db.Model(&models.Question{}).Where("session_id = ?", "s1").Count(&questions)
	assert.Zero(t, questions)

	// other sessions untouched
	var other models.Question
	require.NoError(t, db.First(&other, otherQID).Error)
}

func TestGetFullSessionState_EmptySession(t *testing.T) {
	db := newTestDB(t)
	svc := NewQuestionService(db)

	state, err := svc.GetFullSessionState("empty")
	require.NoError(t, err)

	assert.Nil(t, state.Question)
	assert.Nil(t, state.Answer)
	assert.NotNil(t, state.Hints)
	assert.Empty(t, state.Hints)
	assert.NotNil(t, state.Metrics)
	assert.NotNil(t, state.CandidateAnswers)
	assert.NotNil(t, state.CandidateConvergence)
	assert.NotNil(t, state.Hint2HintSimilarity)
}

func TestGetFullSessionState_ComposesPersistedState(t *testing.T) {
	db := newTestDB(t)
	svc := NewQuestionService(db)
	qid := seedQuestion(t, db, "s1", "capital?", "Paris")
	hid := seedHint(t, db, qid, "h1")

	require.NoError(t, db.Create(&models.Metric{
		HintID: hid, Name: models.MetricConvergence, Value: floatPtr(0.5),
		Metadata: datatypes.JSONMap{"scores": map[string]interface{}{"Lyon": 0.0, "Paris": 1.0}},
	}).Error)
	require.NoError(t, db.Create(&models.CandidateAnswer{QuestionID: qid, CandidateText: "Lyon", IsEliminated: true}).Error)
	require.NoError(t, db.Create(&models.CandidateAnswer{QuestionID: qid, CandidateText: "Paris", IsGroundtruth: true}).Error)

	state, err := svc.GetFullSessionState("s1")
	require.NoError(t, err)

	require.NotNil(t, state.Question)
	assert.Equal(t, "capital?", *state.Question)
	require.Len(t, state.Hints, 1)
	require.Len(t, state.ScoresConvergence, 1)
	assert.Equal(t, 0.0, state.ScoresConvergence[0]["Lyon"])
	assert.Equal(t, []string{"Lyon", "Paris"}, state.CandidateAnswers)
	require.Len(t, state.CandidateConvergence, 2)
	require.Len(t, state.Hint2HintSimilarity, 1)
}

func TestGetFullSessionState_CandidateFallbackFromMetadata(t *testing.T) {
	db := newTestDB(t)
	svc := NewQuestionService(db)
	qid := seedQuestion(t, db, "s1", "q", "a")
	hid := seedHint(t, db, qid, "h1")

	// convergence metadata mentions candidates, but none are persisted
	require.NoError(t, db.Create(&models.Metric{
		HintID: hid, Name: models.MetricConvergence, Value: floatPtr(1),
		Metadata: datatypes.JSONMap{"scores": map[string]interface{}{"zeta": 1.0, "alpha": 1.0}},
	}).Error)

	state, err := svc.GetFullSessionState("s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "zeta"}, state.CandidateAnswers)
}
