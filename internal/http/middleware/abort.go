package middleware

import "github.com/gin-gonic/gin"

// Codes for requests rejected before a handler runs.
const (
	CodeBadRequest      = "bad_request"
	CodeTooManyRequests = "too_many_requests"
	CodeInternal        = "internal_error"
)

// abortJSON stops the chain with the handlers' error envelope and counts
// the abort under its code.
func abortJSON(c *gin.Context, status int, code, msg string) {
	httpAborted.WithLabelValues(code).Inc()
	c.AbortWithStatusJSON(status, gin.H{
		"request_id": RequestIDFrom(c),
		"code":       code,
		"message":    msg,
	})
}
