package handlers

import (
	"net/http"
	"strings"

	"github.com/gabrielk-coder/Website-for-Hint-Generation-and-Evaluation/internal/llm"
	"github.com/gabrielk-coder/Website-for-Hint-Generation-and-Evaluation/internal/services"

	"github.com/gin-gonic/gin"
)

type HintEvalHandler struct {
	generation *services.GenerationService
	evaluation *services.EvaluationService
	questions  *services.QuestionService
	hints      *services.HintService
	candidates *services.CandidateService
}

func NewHintEvalHandler(
	generation *services.GenerationService,
	evaluation *services.EvaluationService,
	questions *services.QuestionService,
	hints *services.HintService,
	candidates *services.CandidateService,
) *HintEvalHandler {
	return &HintEvalHandler{
		generation: generation,
		evaluation: evaluation,
		questions:  questions,
		hints:      hints,
		candidates: candidates,
	}
}

type GenerationParamsRequest struct {
	Model       string   `json:"model,omitempty" example:"meta-llama/Meta-Llama-3-8B-Instruct-Lite"`
	Temperature *float32 `json:"temperature,omitempty" example:"0.7"`
	MaxTokens   *int     `json:"max_tokens,omitempty" example:"512"`
	TopP        *float32 `json:"top_p,omitempty" example:"0.9"`
}

func (r GenerationParamsRequest) toParams() llm.GenerationParams {
	return llm.GenerationParams{
		Model:       r.Model,
		Temperature: r.Temperature,
		MaxTokens:   r.MaxTokens,
		TopP:        r.TopP,
	}
}

type GenerateRequest struct {
	Question    string `json:"question" binding:"required,min=1" example:"What is the capital of France?"`
	NumHints    int    `json:"num_hints" example:"5"`
	AnswerAware bool   `json:"answer_aware"`
	Answer      string `json:"answer,omitempty"`
	GenerationParamsRequest
}

// Generate godoc
// @Summary      Generate hints for a question
// @Description  Creates a new active question, produces an answer and hints, and persists them
// @Tags         hinteval
// @Accept       json
// @Produce      json
// @Param        request body GenerateRequest true "Generation input"
// @Success      200 {object} services.GenerateResult
// @Failure      400 {object} ErrorResponse
// @Router       /hinteval/generate [post]
func (h *HintEvalHandler) Generate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	if req.NumHints <= 0 {
		req.NumHints = 5
	}

	result, err := h.generation.ProcessGeneration(
		c.Request.Context(), sessionID(c),
		strings.TrimSpace(req.Question), req.NumHints,
		req.AnswerAware, strings.TrimSpace(req.Answer), req.toParams(),
	)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// RegenerateAnswer godoc
// @Summary      Regenerate the active question's answer
// @Tags         hinteval
// @Accept       json
// @Produce      json
// @Param        request body GenerationParamsRequest false "Generation overrides"
// @Success      200 {object} map[string]string
// @Failure      404 {object} ErrorResponse
// @Router       /hinteval/regenerate_answer [post]
func (h *HintEvalHandler) RegenerateAnswer(c *gin.Context) {
	var req GenerationParamsRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	answer, err := h.generation.RegenerateAnswer(c.Request.Context(), sessionID(c), req.toParams())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"answer": answer})
}

type RegenerateCandidatesRequest struct {
	NumCandidates int `json:"num_candidates" example:"10"`
	GenerationParamsRequest
}

// RegenerateCandidates godoc
// @Summary      Regenerate the candidate answer set
// @Description  Discards stored candidates, generates a fresh set, and invalidates metrics
// @Tags         hinteval
// @Accept       json
// @Produce      json
// @Param        request body RegenerateCandidatesRequest false "Candidate count and overrides"
// @Success      200 {object} map[string][]string
// @Failure      404 {object} ErrorResponse
// @Router       /hinteval/regenerate_candidates [post]
func (h *HintEvalHandler) RegenerateCandidates(c *gin.Context) {
	var req RegenerateCandidatesRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	if req.NumCandidates <= 0 {
		req.NumCandidates = 10
	}

	sid := sessionID(c)
	hintRows, err := h.hints.GetHints(sid)
	if err != nil {
		respondError(c, err)
		return
	}
	hintTexts := make([]string, 0, len(hintRows))
	for _, row := range hintRows {
		hintTexts = append(hintTexts, row.HintText)
	}

	texts, err := h.candidates.Regenerate(c.Request.Context(), sid, req.NumCandidates, hintTexts, req.toParams())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"candidates": texts})
}

type EvaluateRequest struct {
	Question      string   `json:"question,omitempty"`
	Hints         []string `json:"hints,omitempty"`
	Answer        string   `json:"answer,omitempty"`
	NumCandidates int      `json:"num_candidates" example:"10"`
	GenerationParamsRequest
}

// Evaluate godoc
// @Summary      Evaluate the session's hints
// @Description  Scores hints on all metrics, derives candidate elimination, and persists results
// @Tags         hinteval
// @Accept       json
// @Produce      json
// @Param        request body EvaluateRequest false "Optional overrides, defaults to stored state"
// @Success      200 {object} services.EvaluateResult
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /hinteval/evaluate [post]
func (h *HintEvalHandler) Evaluate(c *gin.Context) {
	var req EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	if req.NumCandidates <= 0 {
		req.NumCandidates = 10
	}

	sid := sessionID(c)
	in := services.EvaluateInput{
		Question:      strings.TrimSpace(req.Question),
		Hints:         req.Hints,
		Answer:        strings.TrimSpace(req.Answer),
		NumCandidates: req.NumCandidates,
		Params:        req.toParams(),
	}

	if in.Question == "" || len(in.Hints) == 0 {
		qa, err := h.questions.GetQuestionAndAnswer(sid)
		if err != nil {
			respondError(c, err)
			return
		}
		if in.Question == "" && qa.Question != nil {
			in.Question = *qa.Question
		}
		if in.Answer == "" && qa.Answer != nil {
			in.Answer = *qa.Answer
		}
		if len(in.Hints) == 0 {
			rows, err := h.hints.GetHints(sid)
			if err != nil {
				respondError(c, err)
				return
			}
			for _, row := range rows {
				in.Hints = append(in.Hints, row.HintText)
			}
		}
	}
	if in.Question == "" || len(in.Hints) == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "nothing to evaluate: no question or hints in session"})
		return
	}

	result, err := h.evaluation.RunAndPersist(c.Request.Context(), sid, in)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// SessionState godoc
// @Summary      Get the full session snapshot
// @Description  Read-only aggregate of question, answer, hints, metrics, and candidates
// @Tags         hinteval
// @Produce      json
// @Success      200 {object} services.SessionState
// @Router       /hinteval/session_state [get]
func (h *HintEvalHandler) SessionState(c *gin.Context) {
	state, err := h.questions.GetFullSessionState(sessionID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// GetQuestion godoc
// @Summary      Get the active question and answer
// @Tags         hinteval
// @Produce      json
// @Success      200 {object} services.QuestionAnswer
// @Router       /hinteval/get_question [get]
func (h *HintEvalHandler) GetQuestion(c *gin.Context) {
	qa, err := h.questions.GetQuestionAndAnswer(sessionID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, qa)
}

// GetHints godoc
// @Summary      List the active question's hints
// @Tags         hinteval
// @Produce      json
// @Success      200 {object} map[string][]services.HintRow
// @Router       /hinteval/get-hints [get]
func (h *HintEvalHandler) GetHints(c *gin.Context) {
	rows, err := h.hints.GetHints(sessionID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"hints": rows})
}

// GetCandidates godoc
// @Summary      List the stored candidate answers
// @Tags         hinteval
// @Produce      json
// @Success      200 {object} map[string][]string
// @Router       /hinteval/get_candidates [get]
func (h *HintEvalHandler) GetCandidates(c *gin.Context) {
	texts, err := h.candidates.CandidateTexts(sessionID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"candidates": texts})
}

type SaveHintRequest struct {
	Hint string `json:"hint" binding:"required,min=1" example:"It is known as the City of Light."`
}

// SaveHint godoc
// @Summary      Append a hint to the active question
// @Description  Adding a hint invalidates stored metrics for the question
// @Tags         hinteval
// @Accept       json
// @Produce      json
// @Param        request body SaveHintRequest true "Hint text"
// @Success      200 {object} map[string]uint
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /hinteval/save_hint [post]
func (h *HintEvalHandler) SaveHint(c *gin.Context) {
	var req SaveHintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	hintID, err := h.hints.SaveHint(sessionID(c), strings.TrimSpace(req.Hint))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"hint_id": hintID})
}

type UpdateHintRequest struct {
	HintID uint   `json:"hint_id" binding:"required" example:"3"`
	Hint   string `json:"hint" binding:"required,min=1"`
}

// UpdateHint godoc
// @Summary      Update a hint's text
// @Tags         hinteval
// @Accept       json
// @Produce      json
// @Param        request body UpdateHintRequest true "Hint id and new text"
// @Success      200 {object} MessageResponse
// @Failure      400 {object} ErrorResponse
// @Router       /hinteval/update_hint [post]
func (h *HintEvalHandler) UpdateHint(c *gin.Context) {
	var req UpdateHintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	if err := h.hints.UpdateHint(req.HintID, strings.TrimSpace(req.Hint)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "hint updated"})
}

type DeleteHintRequest struct {
	HintID uint `json:"hint_id" binding:"required" example:"3"`
}

// DeleteHint godoc
// @Summary      Delete a hint
// @Tags         hinteval
// @Accept       json
// @Produce      json
// @Param        request body DeleteHintRequest true "Hint id"
// @Success      200 {object} MessageResponse
// @Failure      400 {object} ErrorResponse
// @Router       /hinteval/delete_hint [post]
func (h *HintEvalHandler) DeleteHint(c *gin.Context) {
	var req DeleteHintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	if err := h.hints.DeleteHint(req.HintID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "hint deleted"})
}

// DeleteAllHints godoc
// @Summary      Delete all hints for the active question
// @Tags         hinteval
// @Produce      json
// @Success      200 {object} MessageResponse
// @Router       /hinteval/delete_all_hints [post]
func (h *HintEvalHandler) DeleteAllHints(c *gin.Context) {
	if err := h.hints.DeleteAllHints(sessionID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "all hints deleted"})
}

type SaveCandidateRequest struct {
	Candidate string `json:"candidate" binding:"required,min=1" example:"Paris"`
	Index     *int   `json:"index,omitempty"`
}

// SaveCandidate godoc
// @Summary      Add or update a candidate answer
// @Description  Without an index the candidate is appended; with one, the candidate at that position is replaced. Either way metrics are invalidated.
// @Tags         hinteval
// @Accept       json
// @Produce      json
// @Param        request body SaveCandidateRequest true "Candidate text and optional index"
// @Success      200 {object} MessageResponse
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /hinteval/save_candidate [post]
func (h *HintEvalHandler) SaveCandidate(c *gin.Context) {
	var req SaveCandidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	if err := h.candidates.SaveCandidate(sessionID(c), strings.TrimSpace(req.Candidate), req.Index); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "candidate saved"})
}

type CandidateIndexRequest struct {
	Index int `json:"index" example:"0"`
}

// DeleteCandidate godoc
// @Summary      Delete a candidate answer by index
// @Description  If the ground truth is removed, the role moves to the previous candidate
// @Tags         hinteval
// @Accept       json
// @Produce      json
// @Param        request body CandidateIndexRequest true "Candidate index"
// @Success      200 {object} MessageResponse
// @Failure      400 {object} ErrorResponse
// @Router       /hinteval/delete_candidate [post]
func (h *HintEvalHandler) DeleteCandidate(c *gin.Context) {
	var req CandidateIndexRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	if err := h.candidates.DeleteCandidate(sessionID(c), req.Index); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "candidate deleted"})
}

// SetGroundTruth godoc
// @Summary      Mark a candidate as the ground truth
// @Tags         hinteval
// @Accept       json
// @Produce      json
// @Param        request body CandidateIndexRequest true "Candidate index"
// @Success      200 {object} MessageResponse
// @Failure      400 {object} ErrorResponse
// @Router       /hinteval/set_groundtruth [post]
func (h *HintEvalHandler) SetGroundTruth(c *gin.Context) {
	var req CandidateIndexRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	if err := h.candidates.SetGroundTruth(sessionID(c), req.Index); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "ground truth updated"})
}

// DeleteAllCandidates godoc
// @Summary      Delete all candidate answers
// @Tags         hinteval
// @Produce      json
// @Success      200 {object} MessageResponse
// @Router       /hinteval/delete_all_candidates [post]
func (h *HintEvalHandler) DeleteAllCandidates(c *gin.Context) {
	if err := h.candidates.DeleteAllCandidates(sessionID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "all candidates deleted"})
}

type UpdateAnswerRequest struct {
	Answer string `json:"answer" binding:"required,min=1"`
}

// UpdateAnswer godoc
// @Summary      Overwrite the active question's answer
// @Description  Editing the answer invalidates stored metrics
// @Tags         hinteval
// @Accept       json
// @Produce      json
// @Param        request body UpdateAnswerRequest true "New answer text"
// @Success      200 {object} MessageResponse
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /hinteval/update_answer [post]
func (h *HintEvalHandler) UpdateAnswer(c *gin.Context) {
	var req UpdateAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	qid, err := h.questions.LatestQuestionID(sessionID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if qid == 0 {
		respondError(c, services.ErrNoActiveQuestion)
		return
	}

	if err := h.questions.UpdateAnswer(qid, strings.TrimSpace(req.Answer)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "answer updated"})
}

// ResetAll godoc
// @Summary      Delete all data for the session
// @Tags         hinteval
// @Produce      json
// @Success      200 {object} MessageResponse
// @Router       /hinteval/reset_all [post]
func (h *HintEvalHandler) ResetAll(c *gin.Context) {
	if err := h.questions.ResetSession(sessionID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "session reset"})
}
