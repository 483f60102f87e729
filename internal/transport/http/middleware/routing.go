package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const RoutingHintCtx = "routing_hint"

// RoutingHint reads the X-Target-Database header into the request context.
// Anything other than "secondary" resolves to the primary; the database
// router itself is header-agnostic and only sees the normalized string.
func RoutingHint() gin.HandlerFunc {
	return func(c *gin.Context) {
		hint := strings.ToLower(strings.TrimSpace(c.GetHeader("X-Target-Database")))
		if hint != "secondary" {
			hint = "primary"
		}
		c.Set(RoutingHintCtx, hint)
		c.Next()
	}
}

// Hint returns the normalized routing hint for the request.
func Hint(c *gin.Context) string {
	if hint := c.GetString(RoutingHintCtx); hint != "" {
		return hint
	}
	return "primary"
}
