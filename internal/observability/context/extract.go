package context

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// RequestIDFromGin prefers the id carried on the request context, falling
// back to the gin key the logging middleware sets.
func RequestIDFromGin(c *gin.Context) string {
	if c == nil {
		return ""
	}
	if id := RequestIDFromContext(c.Request.Context()); id != "" {
		return id
	}
	return strings.TrimSpace(c.GetString("request_id"))
}
