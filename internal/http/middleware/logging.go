// Package middleware holds the gin middleware of the rentald HTTP API.
//
// Recommended order: RequestID, Account, Logger or RedactingLogger,
// Recovery. Both access loggers attach a request-scoped zerolog logger to the
// gin context (see LoggerFrom) and to the request context, where the
// contract service picks it up with log.Ctx.
package middleware

import (
	"net/http"
	"regexp"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	requestIDKey    = "requestID"
	requestIDHeader = "X-Request-ID"
	loggerKey       = "logger"

	maxQueryLogLength = 2048
)

// Inbound ids outside this shape are replaced so they cannot forge log lines.
var requestIDRE = regexp.MustCompile(`^[A-Za-z0-9._:\-]{1,128}$`)

// RequestID reuses a well-formed X-Request-ID or generates a UUIDv4, stores
// it in the gin context and echoes it on the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if !requestIDRE.MatchString(rid) {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Writer.Header().Set(requestIDHeader, rid)
		c.Next()
	}
}

// RequestIDFrom returns the correlation id of the request: the one stored by
// RequestID, else the response header, else the inbound header.
func RequestIDFrom(c *gin.Context) string {
	if v, ok := c.Get(requestIDKey); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if rid := c.Writer.Header().Get(requestIDHeader); rid != "" {
		return rid
	}
	return c.GetHeader(requestIDHeader)
}

// Logger writes one access log line per request with the caller account,
// route, client metadata, status, latency and sizes. Level is error for 5xx
// or when handlers recorded gin errors, warn for 4xx, info otherwise.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		l := attachLogger(c, log.With().
			Str("request_id", RequestIDFrom(c)).
			Str("account", AccountFrom(c)).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("remote_ip", c.ClientIP()).
			Str("user_agent", c.Request.UserAgent()).
			Str("query", truncate(c.Request.URL.RawQuery, maxQueryLogLength)).
			Int64("bytes_in", c.Request.ContentLength))

		c.Next()

		ev := accessEvent(l, c)
		ev.Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Int("bytes_out", c.Writer.Size()).
			Msg("request")
	}
}

// attachLogger builds the request logger and stores it on both contexts.
func attachLogger(c *gin.Context, with zerolog.Context) *zerolog.Logger {
	l := with.Logger()
	c.Set(loggerKey, &l)
	c.Request = c.Request.WithContext(l.WithContext(c.Request.Context()))
	return &l
}

// accessEvent picks the access log level for a finished request and marks
// idempotent replays.
func accessEvent(l *zerolog.Logger, c *gin.Context) *zerolog.Event {
	var e *zerolog.Event
	status := c.Writer.Status()
	switch {
	case len(c.Errors) > 0:
		e = l.Error().Str("errors", c.Errors.String())
	case status >= http.StatusInternalServerError:
		e = l.Error()
	case status >= http.StatusBadRequest:
		e = l.Warn()
	default:
		e = l.Info()
	}
	if IsReplay(c) {
		e = e.Bool("replay", true)
	}
	return e
}

// Recovery turns a panic into a 500 error envelope and logs the stack with
// the request logger. If the handler already wrote, only the status is set.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			rid := RequestIDFrom(c)
			LoggerFrom(c).Error().
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Str("request_id", rid).
				Msg("panic recovered")

			if c.Writer.Written() {
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
			c.Header(requestIDHeader, rid)
			abortJSON(c, http.StatusInternalServerError, CodeInternal, "internal server error")
		}()
		c.Next()
	}
}

// LoggerFrom returns the request-scoped logger, or the global logger when no
// access logger ran.
func LoggerFrom(c *gin.Context) *zerolog.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if lg, ok := v.(*zerolog.Logger); ok {
			return lg
		}
	}
	l := log.With().Logger()
	return &l
}

// truncate caps s at max bytes plus an ellipsis; max <= 0 disables it.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
