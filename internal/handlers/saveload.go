package handlers

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gabrielk-coder/Website-for-Hint-Generation-and-Evaluation/internal/services"

	"github.com/gin-gonic/gin"
)

type SaveLoadHandler struct {
	saveload *services.SaveLoadService
}

func NewSaveLoadHandler(saveload *services.SaveLoadService) *SaveLoadHandler {
	return &SaveLoadHandler{saveload: saveload}
}

// Export godoc
// @Summary      Export the session
// @Description  format=json gives the minimal dataset shape, format=full_json adds metrics, entities, and candidates, format=csv flattens to type,content rows
// @Tags         save_and_load
// @Produce      json
// @Param        format query string false "json | full_json | csv" default(json)
// @Success      200 {object} services.DatasetExport
// @Failure      400 {object} ErrorResponse
// @Router       /save_and_load/export [get]
func (h *SaveLoadHandler) Export(c *gin.Context) {
	sid := sessionID(c)
	format := c.DefaultQuery("format", "json")

	switch format {
	case "csv":
		data, err := h.saveload.ExportCSV(sid)
		if err != nil {
			respondError(c, err)
			return
		}
		c.Header("Content-Type", "text/csv; charset=utf-8")
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"session_%s.csv\"", sid))
		c.Data(http.StatusOK, "text/csv; charset=utf-8", data)

	case "json", "full_json":
		data, err := h.saveload.ExportJSON(sid, format == "full_json")
		if err != nil {
			respondError(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"session_%s.json\"", sid))
		c.JSON(http.StatusOK, data)

	default:
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "unknown format, use json, full_json, or csv"})
	}
}

// Import godoc
// @Summary      Import session data from a file
// @Description  Accepts minimal JSON, full-backup JSON, or type,content CSV. The session is cleared before loading.
// @Tags         save_and_load
// @Accept       multipart/form-data
// @Produce      json
// @Param        file formData file true "JSON or CSV export"
// @Success      200 {object} services.ImportSummary
// @Failure      400 {object} ErrorResponse
// @Router       /save_and_load/import [post]
func (h *SaveLoadHandler) Import(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "file required"})
		return
	}
	defer file.Close()

	body, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "cannot read file"})
		return
	}

	summary, err := h.saveload.Import(c.Request.Context(), sessionID(c), header.Filename, body)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// ClearData godoc
// @Summary      Clear the session's stored data
// @Tags         save_and_load
// @Produce      json
// @Success      200 {object} services.ClearStats
// @Router       /save_and_load/clear_data [post]
func (h *SaveLoadHandler) ClearData(c *gin.Context) {
	stats, err := h.saveload.ClearSessionData(sessionID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// LoadPreset godoc
// @Summary      Load a pre-computed example into the session
// @Description  Bulk-inserts a question, ground truth, hints with metric values, and candidates without calling the generator or scorer
// @Tags         save_and_load
// @Accept       json
// @Produce      json
// @Param        request body services.PresetData true "Preset payload"
// @Success      200 {object} map[string]uint
// @Failure      400 {object} ErrorResponse
// @Router       /save_and_load/load_preset [post]
func (h *SaveLoadHandler) LoadPreset(c *gin.Context) {
	var preset services.PresetData
	if err := c.ShouldBindJSON(&preset); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	qid, err := h.saveload.LoadPreset(sessionID(c), preset)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"question_id": qid})
}
