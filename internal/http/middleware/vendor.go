package middleware

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
)

// HeaderVendorID carries the calling vendor's identity. Authentication is
// done upstream (gateway or auth proxy); this service trusts the header.
const HeaderVendorID = "X-Vendor-ID"

const ctxKeyVendorID = "vendorID"

var vendorIDPattern = regexp.MustCompile(`^[A-Za-z0-9._:\-]{1,64}$`)

// VendorIdentity reads X-Vendor-ID and stores it in the Gin context for
// logging, rate limiting, and handlers. A malformed value is rejected with
// 400; an absent header leaves the request anonymous.
func VendorIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(HeaderVendorID))
		if id == "" {
			c.Next()
			return
		}
		if !vendorIDPattern.MatchString(id) {
			abortWithCode(c, http.StatusBadRequest, "bad_request", "invalid "+HeaderVendorID)
			return
		}
		c.Set(ctxKeyVendorID, id)
		c.Next()
	}
}

// RequireVendor rejects anonymous requests with 401.
func RequireVendor() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := VendorIDFrom(c); !ok {
			abortWithCode(c, http.StatusUnauthorized, "unauthorized", "missing "+HeaderVendorID)
			return
		}
		c.Next()
	}
}

// VendorIDFrom returns the vendor identity set by VendorIdentity.
func VendorIDFrom(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeyVendorID)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}
