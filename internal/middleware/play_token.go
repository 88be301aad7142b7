package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/stemsi/assessment-pipeline/internal/response"
)

const (
	// ContextKeyPlayToken is the Gin context key for the raw play token.
	ContextKeyPlayToken = "play_token"

	// PlayTokenHeader carries the play token on public quiz requests.
	PlayTokenHeader = "X-Play-Token"
)

// RequirePlayToken extracts the play token from the X-Play-Token header or
// an Authorization bearer. Verification happens in the delivery service,
// which also checks the token against the requested slug.
func RequirePlayToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractPlayToken(c)
		if token == "" {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrPlayTokenMissing)
			return
		}
		c.Set(ContextKeyPlayToken, token)
		c.Next()
	}
}

// GetPlayToken retrieves the play token stored by RequirePlayToken.
func GetPlayToken(c *gin.Context) string {
	return c.GetString(ContextKeyPlayToken)
}

func extractPlayToken(c *gin.Context) string {
	if token := strings.TrimSpace(c.GetHeader(PlayTokenHeader)); token != "" {
		return token
	}
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}
