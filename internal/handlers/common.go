package handlers

import (
	"errors"
	"net/http"

	"github.com/gabrielk-coder/Website-for-Hint-Generation-and-Evaluation/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ErrorResponse struct {
	Error string `json:"error" example:"something went wrong"`
}

type MessageResponse struct {
	Message string `json:"message" example:"operation successful"`
}

// sessionID returns the session identifier set by the session middleware.
func sessionID(c *gin.Context) string {
	return c.GetString("session_id")
}

// respondError maps service sentinel errors to client status codes. Anything
// unrecognized is a 500.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNoActiveQuestion):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, services.ErrIndexOutOfRange):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}
}
