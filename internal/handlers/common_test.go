package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gabrielk-coder/Website-for-Hint-Generation-and-Evaluation/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name string
		err  error
		want int
	}{
		{"no active question", services.ErrNoActiveQuestion, http.StatusNotFound},
		{"unknown record id", gorm.ErrRecordNotFound, http.StatusNotFound},
		{"index out of range", services.ErrIndexOutOfRange, http.StatusBadRequest},
		{"anything else", errors.New("db on fire"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			respondError(c, tc.err)
			assert.Equal(t, tc.want, w.Code)
		})
	}
}
