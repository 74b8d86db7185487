// Package middleware holds the Gin middleware shared by the marketplace API:
// request correlation, vendor identity, access logging, panic recovery,
// metrics, rate limiting, idempotency and security headers.
//
// Expected order: RequestID, VendorIdentity, AccessLog, Recovery, then the
// rest. AccessLog attaches a request-scoped zerolog.Logger (request_id,
// vendor_id) to the request context, so services logging through
// zerolog.Ctx inherit both fields.
package middleware

import (
	"net/http"
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
	ctxKeyLogger    = "logger"

	// longest client-supplied request id we echo back
	maxRequestIDLen = 128
	maxQueryLogLen  = 2048
)

// RequestID propagates a caller's X-Request-ID or mints a UUID. Ids that are
// too long or contain anything but visible ASCII are replaced, since they
// end up in response headers and log lines.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if !validRequestID(rid) {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Writer.Header().Set(requestIDHeader, rid)
		c.Next()
	}
}

func validRequestID(s string) bool {
	if s == "" || len(s) > maxRequestIDLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < 0x21 || s[i] > 0x7e {
			return false
		}
	}
	return true
}

// RequestIDFrom returns the correlation id set by RequestID, or the
// response header when something upstream set only that.
func RequestIDFrom(c *gin.Context) string {
	if rid := c.GetString(requestIDKey); rid != "" {
		return rid
	}
	return c.Writer.Header().Get(requestIDHeader)
}

// AccessLogOptions configures AccessLog.
type AccessLogOptions struct {
	// Redactor scrubs buyer contact details from the logged query string
	// and headers. Nil logs the query verbatim and omits headers.
	Redactor *Redactor
}

// AccessLog writes one structured line per request once the handler chain
// has finished. 5xx responses and requests carrying Gin errors log at error
// level, other 4xx at warn, the rest at info. Rejections carry the API error
// code so denied purchases can be grepped by reason.
func AccessLog(opts AccessLogOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		vid, _ := VendorIDFrom(c)
		l := log.With().
			Str("request_id", RequestIDFrom(c)).
			Str("vendor_id", vid).
			Logger()
		attachLogger(c, l)

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		query := truncate(c.Request.URL.RawQuery, maxQueryLogLen)
		var headers map[string]string
		if opts.Redactor != nil {
			route = opts.Redactor.Redact(route)
			query = opts.Redactor.Redact(query)
			headers = opts.Redactor.Headers(c.Request.Header)
		}

		c.Next()

		status := c.Writer.Status()
		var ev *zerolog.Event
		switch {
		case status >= http.StatusInternalServerError || len(c.Errors) > 0:
			ev = l.Error()
			if len(c.Errors) > 0 {
				ev = ev.Str("errors", c.Errors.String())
			}
		case status >= http.StatusBadRequest:
			ev = l.Warn()
		default:
			ev = l.Info()
		}
		if code, ok := ErrorCodeFrom(c); ok {
			ev = ev.Str("error_code", code)
		}
		if IsRateBypass(c) {
			ev = ev.Bool("replayed", true)
		}
		if headers != nil {
			ev = ev.Interface("headers", headers)
		}
		ev.Str("method", c.Request.Method).
			Str("route", route).
			Str("query", query).
			Str("remote_ip", c.ClientIP()).
			Str("user_agent", c.Request.UserAgent()).
			Int64("bytes_in", c.Request.ContentLength).
			Int("status", status).
			Int("bytes_out", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}

// Recovery turns a panic into a 500 internal_error response and logs the
// stack through the request logger. If the handler already started writing,
// only the status is set.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			LoggerFrom(c).Error().
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Str("route", c.FullPath()).
				Msg("panic recovered")

			if c.Writer.Written() {
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
			abortWithCode(c, http.StatusInternalServerError, "internal_error", "internal server error")
		}()
		c.Next()
	}
}

// attachLogger stores l on the Gin context for handlers and on the request
// context for zerolog.Ctx in services.
func attachLogger(c *gin.Context, l zerolog.Logger) {
	c.Set(ctxKeyLogger, &l)
	c.Request = c.Request.WithContext(l.WithContext(c.Request.Context()))
}

// LoggerFrom returns the request-scoped logger, or the global logger when
// AccessLog did not run.
func LoggerFrom(c *gin.Context) *zerolog.Logger {
	if lg, ok := c.Value(ctxKeyLogger).(*zerolog.Logger); ok {
		return lg
	}
	return &log.Logger
}

// truncate cuts s to n bytes plus an ellipsis; n <= 0 keeps s whole.
func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
