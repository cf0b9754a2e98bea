package handlers

import (
	"net/http"

	"github.com/gabrielk-coder/Website-for-Hint-Generation-and-Evaluation/internal/services"

	"github.com/gin-gonic/gin"
)

type MetricsHandler struct {
	hints *services.HintService
}

func NewMetricsHandler(hints *services.HintService) *MetricsHandler {
	return &MetricsHandler{hints: hints}
}

// GetMetrics godoc
// @Summary      Per-hint metric values
// @Description  One row per hint with all five metric scores, null where not yet evaluated
// @Tags         metrics
// @Produce      json
// @Success      200 {object} map[string][]services.HintMetricRow
// @Router       /metrics/get_metrics [get]
func (h *MetricsHandler) GetMetrics(c *gin.Context) {
	rows, err := h.hints.DetailedMetrics(sessionID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"metrics": rows})
}

// GetConvergenceScores godoc
// @Summary      Per-hint candidate convergence maps
// @Tags         metrics
// @Produce      json
// @Success      200 {object} map[string][]services.ConvergenceRow
// @Router       /metrics/get_convergence_scores [get]
func (h *MetricsHandler) GetConvergenceScores(c *gin.Context) {
	rows, err := h.hints.ConvergenceScores(sessionID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"scores": rows})
}

// GetEmbeddingSimilarities godoc
// @Summary      Hint-to-hint embedding cosine similarity matrix
// @Tags         metrics
// @Produce      json
// @Success      200 {object} map[string][][]float64
// @Router       /metrics/get_embedding_similarities [get]
func (h *MetricsHandler) GetEmbeddingSimilarities(c *gin.Context) {
	matrix, err := h.hints.EmbeddingSimilarities(c.Request.Context(), sessionID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"similarities": matrix})
}

// GetEntities godoc
// @Summary      Named entities per hint
// @Tags         metrics
// @Produce      json
// @Success      200 {object} map[string]map[string][]services.EntityRow
// @Router       /metrics/get_entities [get]
func (h *MetricsHandler) GetEntities(c *gin.Context) {
	perHint, err := h.hints.EntitiesBySession(sessionID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entities": perHint})
}
