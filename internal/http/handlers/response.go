// Package handlers implements the marketplace HTTP API on top of the
// services package.
//
// Every error leaves through writeError, so all endpoints share one envelope:
//
//	HTTP/1.1 429 Too Many Requests
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "quota_exceeded_daily",
//	  "message": "Daily lead limit reached. Try again tomorrow or upgrade your plan."
//	}
//
// Clients branch on code; message is safe to show to a vendor.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-lead-marketplace/internal/http/middleware"
	"github.com/tbourn/go-lead-marketplace/internal/utils"
)

// ErrorResponse is the error envelope of every endpoint.
type ErrorResponse struct {
	// Echo of X-Request-ID for correlating with server logs
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable machine-readable code
	Code    string `json:"code" example:"lead_not_available"`
	Message string `json:"message" example:"This lead is not available."`
}

// writeError aborts with e. The error code is recorded for metrics and the
// access log. Server errors are logged with their cause; client errors only
// at debug, since quota and ownership denials are routine. A 503 is a lost
// race the client retries, so it logs at warn.
func writeError(c *gin.Context, e apiError, cause error) {
	lg := middleware.LoggerFrom(c)
	ev, msg := lg.Debug(), "request rejected"
	switch {
	case e.Status == http.StatusServiceUnavailable:
		ev = lg.Warn()
	case e.Status >= http.StatusInternalServerError:
		ev, msg = lg.Error(), "request failed"
	}
	if cause != nil {
		ev = ev.Err(cause)
	}
	ev.Int("status", e.Status).Str("code", e.Code).Msg(msg)

	middleware.SetErrorCode(c, e.Code)
	c.AbortWithStatusJSON(e.Status, ErrorResponse{
		RequestID: middleware.RequestIDFrom(c),
		Code:      e.Code,
		Message:   e.Message,
	})
}

// fail writes an error the handler resolved itself (validation, routing).
func fail(c *gin.Context, status int, code, msg string) {
	writeError(c, apiError{Status: status, Code: code, Message: msg}, nil)
}

// Fail lets the router answer NoRoute and NoMethod with the same envelope.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// failErr writes a service error translated by mapError. Internal causes
// reach the log, never the client.
func failErr(c *gin.Context, err error) {
	writeError(c, mapError(err), err)
}

// Pagination describes one page of a lead listing.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

func newPagination(pg utils.Page, total int64) Pagination {
	return Pagination{
		Page:       pg.Number,
		PageSize:   pg.Size,
		Total:      total,
		TotalPages: pg.Pages(total),
		HasNext:    pg.HasNext(total),
	}
}

func ok(c *gin.Context, status int, body any) { c.JSON(status, body) }

func noContent(c *gin.Context) { c.Status(http.StatusNoContent) }
