package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const sessionCookie = "hinteval_session"

// Session assigns every client a stable session id via cookie. All state is
// scoped to this id, there are no user accounts.
func Session() gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, err := c.Cookie(sessionCookie)
		if err != nil || sid == "" {
			sid = uuid.NewString()
			c.SetCookie(sessionCookie, sid, 60*60*24*30, "/", "", false, true)
		}
		c.Set("session_id", sid)
		c.Next()
	}
}
