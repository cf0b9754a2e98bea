package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Session())
	r.GET("/whoami", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("session_id"))
	})
	return r
}

func TestSession_AssignsCookieWhenMissing(t *testing.T) {
	r := newRouter()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)

	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	sid := w.Body.String()
	assert.NotEmpty(t, sid)

	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == sessionCookie {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.Equal(t, sid, cookie.Value)
}

func TestSession_ReusesExistingCookie(t *testing.T) {
	r := newRouter()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: "stable-id"})

	r.ServeHTTP(w, req)

	assert.Equal(t, "stable-id", w.Body.String())
	assert.Empty(t, w.Result().Cookies())
}
