package middleware

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
)

// HeaderAccount is the header through which the fronting gateway conveys the
// authenticated caller account.
const HeaderAccount = "X-Account"

// ctxKeyAccount is the Gin context key holding the normalized caller account.
const ctxKeyAccount = "account"

var accountRE = regexp.MustCompile(`^0x[0-9a-f]{40}$`)

// Account normalizes the X-Account header (trimmed, lower-case) and stores
// it under the "account" context key. Requests without the header continue
// anonymously; a malformed account is rejected with 400.
func Account() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.ToLower(strings.TrimSpace(c.GetHeader(HeaderAccount)))
		if raw == "" {
			c.Next()
			return
		}
		if !accountRE.MatchString(raw) {
			abortJSON(c, http.StatusBadRequest, CodeBadRequest, "X-Account must be a 0x-prefixed 20-byte hex address")
			return
		}
		c.Set(ctxKeyAccount, raw)
		c.Next()
	}
}

// AccountFrom returns the caller account stored by Account, or "".
func AccountFrom(c *gin.Context) string {
	if v, ok := c.Get(ctxKeyAccount); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
