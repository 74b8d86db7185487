// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements idempotency support for the purchase endpoint. It
// validates an Idempotency-Key request header, asks a lookup whether the same
// (vendor, lead, key) already completed, and annotates the request so that:
//   - handlers read the normalized key (GetIdempotencyKey)
//   - handlers detect replays (IsReplay) and serve the stored grant
//   - rate limiters let replays through without spending a token
package middleware

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey is the request header clients use to make a purchase
// safe to retry.
const HeaderIdempotencyKey = "Idempotency-Key"

// HeaderIdempotencyReplayed is set on responses served from a stored result.
const HeaderIdempotencyReplayed = "Idempotency-Replayed"

const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemReplay = "idem.replay" // bool: a stored result exists
	ctxKeyRateBypass = "rate.bypass" // bool: skip rate limiting
)

var defaultIdemPattern = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)

// GetIdempotencyKey returns the validated key stored by IdempotencyValidator.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeyIdemKey)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}

// IsReplay reports whether a previous request with the same key completed.
func IsReplay(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyIdemReplay)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// IdempotencyOptions configures header validation for IdempotencyValidator.
type IdempotencyOptions struct {
	// MaxLen caps the accepted key length. Values <= 0 default to 200.
	MaxLen int
	// Pattern restricts allowed characters. Nil means ^[A-Za-z0-9._~\-:]+$.
	Pattern *regexp.Regexp
	// Now is the clock passed to the lookup. Nil means time.Now.
	Now func() time.Time
}

// IdempotencyLookup reports whether an unexpired result exists for
// (vendorID, leadID, key). Lookup errors never block the request.
type IdempotencyLookup func(ctx context.Context, vendorID, leadID, key string, now time.Time) (exists bool, err error)

// IdempotencyValidator validates the Idempotency-Key header, stashes it, and
// marks the request as a replay when lookup finds a stored result. The lead
// is the route's :id parameter and the vendor comes from VendorIdentity.
//
// An absent header is a no-op; an invalid one is rejected with 400.
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		pat = defaultIdemPattern
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			abortWithCode(c, http.StatusBadRequest, "bad_idempotency_key", "invalid Idempotency-Key")
			return
		}
		c.Set(ctxKeyIdemKey, key)

		vendorID, ok := VendorIDFrom(c)
		if lookup != nil && ok {
			exists, err := lookup(c.Request.Context(), vendorID, c.Param("id"), key, now().UTC())
			if err != nil {
				LoggerFrom(c).Warn().Err(err).Msg("idempotency lookup failed")
			}
			if exists {
				c.Set(ctxKeyIdemReplay, true)
				c.Set(ctxKeyRateBypass, true)
			}
		}

		c.Next()
	}
}
