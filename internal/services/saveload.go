package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gabrielk-coder/Website-for-Hint-Generation-and-Evaluation/internal/llm"
	"github.com/gabrielk-coder/Website-for-Hint-Generation-and-Evaluation/internal/logger"
	"github.com/gabrielk-coder/Website-for-Hint-Generation-and-Evaluation/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SaveLoadService serializes sessions to portable formats and restores them.
// Import is destructive: it always clears the target session first.
type SaveLoadService struct {
	db  *gorm.DB
	gen llm.Generator
	log *logger.Logger
}

func NewSaveLoadService(db *gorm.DB, gen llm.Generator, log *logger.Logger) *SaveLoadService {
	return &SaveLoadService{db: db, gen: gen, log: log}
}

// --- Export shapes (dataset-style JSON) ---

type DatasetExport struct {
	Name    string                  `json:"name"`
	Subsets map[string]SubsetExport `json:"subsets"`
}

type SubsetExport struct {
	Instances map[string]InstanceExport `json:"instances"`
}

type InstanceExport struct {
	Question       QuestionExport    `json:"question"`
	Answers        []AnswerExport    `json:"answers"`
	ModelName      string            `json:"model_name,omitempty"`
	Hints          []HintExport      `json:"hints"`
	Candidates     []string          `json:"candidates,omitempty"`
	CandidatesFull []CandidateExport `json:"candidates_full,omitempty"`
}

type QuestionExport struct {
	Question string `json:"question"`
}

type AnswerExport struct {
	Answer string `json:"answer"`
}

type HintExport struct {
	Hint     string         `json:"hint"`
	DBID     uint           `json:"db_id,omitempty"`
	Metrics  []MetricExport `json:"metrics,omitempty"`
	Entities []EntityExport `json:"entities,omitempty"`
}

type MetricExport struct {
	Name     string                 `json:"name"`
	Value    *float64               `json:"value"`
	Metadata map[string]interface{} `json:"metadata"`
}

type EntityExport struct {
	Text     string                 `json:"text"`
	Type     string                 `json:"type"`
	Start    int                    `json:"start"`
	End      int                    `json:"end"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

type CandidateExport struct {
	Text          string     `json:"text"`
	IsEliminated  bool       `json:"is_eliminated"`
	IsGroundtruth bool       `json:"is_groundtruth"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
}

// ExportJSON serializes the session's active question. The full variant adds
// per-hint metrics/entities and the candidate list with elimination and
// ground-truth flags; the minimal one carries question/answers/hints only.
func (s *SaveLoadService) ExportJSON(sessionID string, full bool) (DatasetExport, error) {
	export := DatasetExport{
		Name:    "session_" + sessionID,
		Subsets: map[string]SubsetExport{"export": {Instances: map[string]InstanceExport{}}},
	}

	qid, err := latestQuestionID(s.db, sessionID)
	if err != nil || qid == 0 {
		return export, err
	}

	var q models.Question
	if err := s.db.First(&q, qid).Error; err != nil {
		return export, err
	}

	inst := InstanceExport{
		Question: QuestionExport{Question: q.Text},
		Answers:  []AnswerExport{},
		Hints:    []HintExport{},
	}

	if a, err := latestAnswer(s.db, qid); err != nil {
		return export, err
	} else if a != nil {
		inst.Answers = append(inst.Answers, AnswerExport{Answer: a.AnswerText})
		if full {
			inst.ModelName = a.ModelName
		}
	}

	var hints []models.Hint
	if err := s.db.Where("question_id = ?", qid).Order("id ASC").Find(&hints).Error; err != nil {
		return export, err
	}
	for _, h := range hints {
		hintExport := HintExport{Hint: h.HintText, DBID: h.ID}
		if full {
			var metrics []models.Metric
			if err := s.db.Where("hint_id = ?", h.ID).Order("id ASC").Find(&metrics).Error; err != nil {
				return export, err
			}
			for _, m := range metrics {
				meta := map[string]interface{}(m.Metadata)
				if meta == nil {
					meta = map[string]interface{}{}
				}
				hintExport.Metrics = append(hintExport.Metrics, MetricExport{Name: m.Name, Value: m.Value, Metadata: meta})
			}

			var entities []models.Entity
			if err := s.db.Where("hint_id = ?", h.ID).Order("id ASC").Find(&entities).Error; err != nil {
				return export, err
			}
			for _, e := range entities {
				hintExport.Entities = append(hintExport.Entities, EntityExport{
					Text: e.Entity, Type: e.EntType,
					Start: e.StartIndex, End: e.EndIndex,
					Metadata: e.Metadata,
				})
			}
		}
		inst.Hints = append(inst.Hints, hintExport)
	}

	if full {
		var cands []models.CandidateAnswer
		if err := s.db.Where("question_id = ?", qid).Order("id ASC").Find(&cands).Error; err != nil {
			return export, err
		}
		for _, c := range cands {
			ce := CandidateExport{
				Text:          c.CandidateText,
				IsEliminated:  c.IsEliminated,
				IsGroundtruth: c.IsGroundtruth,
				CreatedAt:     c.CreatedAt,
			}
			if !c.UpdatedAt.IsZero() && !c.UpdatedAt.Equal(c.CreatedAt) {
				updated := c.UpdatedAt
				ce.UpdatedAt = &updated
			}
			inst.CandidatesFull = append(inst.CandidatesFull, ce)
			inst.Candidates = append(inst.Candidates, c.CandidateText)
		}
	}

	export.Subsets["export"] = SubsetExport{
		Instances: map[string]InstanceExport{strconv.FormatUint(uint64(qid), 10): inst},
	}
	return export, nil
}

// ExportCSV flattens the session into type,content rows covering only
// question, answer, and hint text.
func (s *SaveLoadService) ExportCSV(sessionID string) ([]byte, error) {
	data, err := s.ExportJSON(sessionID, false)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Write([]string{"type", "content"})

	for _, inst := range data.Subsets["export"].Instances {
		if inst.Question.Question != "" {
			w.Write([]string{"question", inst.Question.Question})
		}
		if len(inst.Answers) > 0 && inst.Answers[0].Answer != "" {
			w.Write([]string{"answer", inst.Answers[0].Answer})
		}
		for _, h := range inst.Hints {
			if h.Hint != "" {
				w.Write([]string{"hint", h.Hint})
			}
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// --- Clearing ---

type ClearStats struct {
	Cleared bool           `json:"cleared"`
	Message string         `json:"message"`
	Counts  map[string]int `json:"counts"`
}

func (s *SaveLoadService) ClearSessionData(sessionID string) (ClearStats, error) {
	stats := ClearStats{Counts: map[string]int{"questions": 0, "answers": 0, "hints": 0, "candidates": 0}}

	var ids []uint
	if err := s.db.Model(&models.Question{}).Where("session_id = ?", sessionID).Pluck("id", &ids).Error; err != nil {
		return stats, err
	}
	if len(ids) == 0 {
		stats.Message = "No data found"
		return stats, nil
	}

	var answers, hints, candidates int64
	s.db.Model(&models.Answer{}).Where("question_id IN ?", ids).Count(&answers)
	s.db.Model(&models.Hint{}).Where("question_id IN ?", ids).Count(&hints)
	s.db.Model(&models.CandidateAnswer{}).Where("question_id IN ?", ids).Count(&candidates)
	stats.Counts["questions"] = len(ids)
	stats.Counts["answers"] = int(answers)
	stats.Counts["hints"] = int(hints)
	stats.Counts["candidates"] = int(candidates)

	s.log.Infow("clearing session", "session_id", sessionID, "counts", stats.Counts)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		return deleteSessionQuestions(tx, sessionID)
	})
	if err != nil {
		return stats, err
	}
	stats.Cleared = true
	stats.Message = "Session cleared"
	return stats, nil
}

// --- Import ---

type ImportSummary struct {
	Info       string `json:"info"`
	QuestionID uint   `json:"question_id"`
}

// simpleImport is the minimal flat shape: question, answer(s), hints. Several
// field spellings are tolerated because exports from older tooling vary.
type simpleImport struct {
	Question json.RawMessage   `json:"question"`
	Answer   json.RawMessage   `json:"answer"`
	Answers  []AnswerExport    `json:"answers"`
	Hints    []json.RawMessage `json:"hints"`
}

// Import restores a session from JSON (minimal or full) or CSV content. The
// shape is autodetected. All existing session data is cleared first.
func (s *SaveLoadService) Import(ctx context.Context, sessionID, filename string, content []byte) (ImportSummary, error) {
	lower := strings.ToLower(filename)

	var summary ImportSummary
	switch {
	case strings.HasSuffix(lower, ".csv"):
		parsed, err := parseCSVImport(content)
		if err != nil {
			return summary, err
		}
		if _, err := s.ClearSessionData(sessionID); err != nil {
			return summary, err
		}
		return s.insertSimple(ctx, sessionID, parsed)

	case strings.HasSuffix(lower, ".json"):
		var dataset DatasetExport
		if err := json.Unmarshal(content, &dataset); err == nil && isFullBackup(dataset) {
			if _, err := s.ClearSessionData(sessionID); err != nil {
				return summary, err
			}
			return s.insertFullBackup(ctx, sessionID, dataset)
		}

		var simple simpleImport
		if err := json.Unmarshal(content, &simple); err != nil {
			return summary, fmt.Errorf("invalid JSON file format: %w", err)
		}
		if _, err := s.ClearSessionData(sessionID); err != nil {
			return summary, err
		}
		return s.insertSimple(ctx, sessionID, simple)

	default:
		return summary, errors.New("unsupported file type, use .json or .csv")
	}
}

// isFullBackup reports whether the dataset carries nested metric/entity/
// candidate fields, i.e. whether it is the full export variant.
func isFullBackup(data DatasetExport) bool {
	for _, subset := range data.Subsets {
		for _, inst := range subset.Instances {
			if len(inst.CandidatesFull) > 0 {
				return true
			}
			for _, h := range inst.Hints {
				if len(h.Metrics) > 0 || len(h.Entities) > 0 {
					return true
				}
			}
			// Dataset shape without nested fields still counts: the
			// question text lives under subsets, not at top level.
			if inst.Question.Question != "" {
				return true
			}
		}
	}
	return false
}

func parseCSVImport(content []byte) (simpleImport, error) {
	r := csv.NewReader(bytes.NewReader(content))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return simpleImport{}, fmt.Errorf("invalid CSV: %w", err)
	}

	var parsed simpleImport
	for i, row := range records {
		if i == 0 || len(row) < 2 {
			continue
		}
		rtype := strings.ToLower(strings.TrimSpace(row[0]))
		text := strings.TrimSpace(row[1])
		if text == "" {
			continue
		}
		switch rtype {
		case "question":
			parsed.Question = rawString(text)
		case "answer":
			parsed.Answer = rawString(text)
		case "hint":
			parsed.Hints = append(parsed.Hints, rawString(text))
		}
	}
	return parsed, nil
}

func rawString(s string) json.RawMessage {
	b, _ := json.Marshal(s)
	return b
}

// textField decodes a value that may be a bare string or an object carrying
// the text under one of the given keys.
func textField(raw json.RawMessage, keys ...string) string {
	if len(raw) == 0 {
		return ""
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str
	}
	var obj map[string]interface{}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return ""
	}
	for _, k := range keys {
		if v, ok := obj[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func (s *SaveLoadService) insertSimple(ctx context.Context, sessionID string, data simpleImport) (ImportSummary, error) {
	qText := textField(data.Question, "question", "text")
	if qText == "" {
		return ImportSummary{}, errors.New("import failed: missing question text")
	}

	aText := textField(data.Answer, "answer", "text")
	if aText == "" && len(data.Answers) > 0 {
		aText = data.Answers[0].Answer
	}

	qid, err := s.insertQACore(ctx, sessionID, qText, aText)
	if err != nil {
		return ImportSummary{}, err
	}

	count := 0
	err = s.db.Transaction(func(tx *gorm.DB) error {
		a, err := latestAnswer(tx, qid)
		if err != nil {
			return err
		}
		var answerID *uint
		if a != nil {
			answerID = &a.ID
		}
		for _, raw := range data.Hints {
			hText := textField(raw, "hint", "text", "hint_text")
			if hText == "" {
				continue
			}
			hint := models.Hint{QuestionID: qid, AnswerID: answerID, HintText: hText}
			if err := tx.Create(&hint).Error; err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return ImportSummary{}, err
	}

	return ImportSummary{
		Info:       fmt.Sprintf("Imported: 1 Question, %d Hints", count),
		QuestionID: qid,
	}, nil
}

func (s *SaveLoadService) insertFullBackup(ctx context.Context, sessionID string, data DatasetExport) (ImportSummary, error) {
	var lastQID uint
	counts := map[string]int{}

	for _, subset := range data.Subsets {
		for _, inst := range subset.Instances {
			qText := inst.Question.Question
			if qText == "" {
				continue
			}
			aText := ""
			if len(inst.Answers) > 0 {
				aText = inst.Answers[0].Answer
			}

			qid, err := s.insertQACore(ctx, sessionID, qText, aText)
			if err != nil {
				return ImportSummary{}, err
			}
			lastQID = qid
			counts["questions"]++

			err = s.db.Transaction(func(tx *gorm.DB) error {
				a, err := latestAnswer(tx, qid)
				if err != nil {
					return err
				}
				var answerID *uint
				if a != nil {
					answerID = &a.ID
				}

				for _, h := range inst.Hints {
					if h.Hint == "" {
						continue
					}
					hint := models.Hint{QuestionID: qid, AnswerID: answerID, HintText: h.Hint}
					if err := tx.Create(&hint).Error; err != nil {
						return err
					}
					counts["hints"]++

					for _, m := range h.Metrics {
						row := models.Metric{
							HintID:   hint.ID,
							Name:     m.Name,
							Value:    m.Value,
							Metadata: datatypes.JSONMap(m.Metadata),
						}
						if err := tx.Create(&row).Error; err != nil {
							return err
						}
						counts["metrics"]++
					}
					for _, e := range h.Entities {
						row := models.Entity{
							HintID:     hint.ID,
							Entity:     e.Text,
							EntType:    e.Type,
							StartIndex: e.Start,
							EndIndex:   e.End,
							Metadata:   datatypes.JSONMap(e.Metadata),
						}
						if err := tx.Create(&row).Error; err != nil {
							return err
						}
						counts["entities"]++
					}
				}

				for _, c := range inst.CandidatesFull {
					row := models.CandidateAnswer{
						QuestionID:    qid,
						CandidateText: c.Text,
						IsEliminated:  c.IsEliminated,
						IsGroundtruth: c.IsGroundtruth,
					}
					if err := tx.Create(&row).Error; err != nil {
						return err
					}
					counts["candidates"]++
				}
				return nil
			})
			if err != nil {
				return ImportSummary{}, err
			}
		}
	}

	if counts["questions"] == 0 {
		return ImportSummary{}, errors.New("no instances found in backup")
	}

	return ImportSummary{
		Info: fmt.Sprintf("Restored %d Questions, %d Hints, %d Candidates",
			counts["questions"], counts["hints"], counts["candidates"]),
		QuestionID: lastQID,
	}, nil
}

// insertQACore inserts the question and its answer. A missing answer text is
// synthesized via the generation capability before the record counts as
// complete.
func (s *SaveLoadService) insertQACore(ctx context.Context, sessionID, qText, aText string) (uint, error) {
	q := models.Question{Text: qText, SessionID: sessionID}
	if err := s.db.Create(&q).Error; err != nil {
		return 0, err
	}

	modelName := ""
	if aText == "" {
		s.log.Infow("answer missing on import, generating", "question_id", q.ID)
		generated, err := s.gen.GenerateAnswer(ctx, qText, false, "", llm.GenerationParams{})
		if err != nil {
			return 0, err
		}
		aText = generated
	}

	answer := models.Answer{QuestionID: q.ID, AnswerText: aText, ModelName: modelName}
	if err := s.db.Create(&answer).Error; err != nil {
		return 0, err
	}
	return q.ID, nil
}

// --- Preset loading ---

type PresetHint struct {
	HintID   int    `json:"hint_id"`
	HintText string `json:"hint_text"`
}

type PresetCandidates struct {
	CandidateTexts         []string `json:"candidate_texts"`
	IsGroundtruthCandidate string   `json:"is_groundtruth_candidate"`
}

type PresetData struct {
	Question    string                         `json:"question"`
	GroundTruth string                         `json:"groundTruth"`
	Hints       []PresetHint                   `json:"hints"`
	MetricsByID map[string]map[string]*float64 `json:"metricsById"`
	Candidates  PresetCandidates               `json:"candidates"`
}

// LoadPreset bulk-inserts a fully pre-computed state, bypassing generation and
// evaluation. The preset's local hint ids key into metricsById.
func (s *SaveLoadService) LoadPreset(sessionID string, data PresetData) (uint, error) {
	if strings.TrimSpace(data.Question) == "" || strings.TrimSpace(data.GroundTruth) == "" {
		return 0, errors.New("preset requires question and groundTruth")
	}

	var qid uint
	err := s.db.Transaction(func(tx *gorm.DB) error {
		q := models.Question{Text: data.Question, SessionID: sessionID}
		if err := tx.Create(&q).Error; err != nil {
			return err
		}
		qid = q.ID

		answer := models.Answer{QuestionID: qid, AnswerText: data.GroundTruth}
		if err := tx.Create(&answer).Error; err != nil {
			return err
		}

		for _, h := range data.Hints {
			hint := models.Hint{QuestionID: qid, AnswerID: &answer.ID, HintText: h.HintText}
			if err := tx.Create(&hint).Error; err != nil {
				return err
			}

			presetLocalID := strconv.Itoa(h.HintID)
			for name, value := range data.MetricsByID[presetLocalID] {
				if value == nil {
					continue
				}
				row := models.Metric{HintID: hint.ID, Name: name, Value: value}
				if err := tx.Create(&row).Error; err != nil {
					return err
				}
			}
		}

		for _, text := range data.Candidates.CandidateTexts {
			row := models.CandidateAnswer{
				QuestionID:    qid,
				CandidateText: text,
				IsGroundtruth: text == data.Candidates.IsGroundtruthCandidate,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return qid, nil
}
