package requestid

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// Header carries the id in both directions.
	Header = "X-Request-ID"
	// ContextKey stores the id on the gin context.
	ContextKey = "request_id"

	maxLength = 64
)

// Middleware reuses a well-formed incoming X-Request-ID or mints a UUID.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(Header)
		if !valid(id) {
			id = uuid.NewString()
		}
		c.Set(ContextKey, id)
		c.Writer.Header().Set(Header, id)
		c.Next()
	}
}

// Value returns the id stored on the context, or "".
func Value(c *gin.Context) string {
	if c == nil {
		return ""
	}
	id, _ := c.Get(ContextKey)
	s, _ := id.(string)
	return s
}

// valid accepts ids that are safe to echo into headers and log lines.
func valid(id string) bool {
	if id == "" || len(id) > maxLength {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-' || r == '_' || r == '.':
		default:
			return false
		}
	}
	return true
}
