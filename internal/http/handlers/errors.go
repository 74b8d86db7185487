// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// This file centralizes symbolic error code constants and the translation of
// service errors into (status, code, message). Clients branch on the code;
// the message is safe to show to users.
//
// Purchase outcomes each get their own status so a client can tell them
// apart without parsing text:
//
//	not_entitled              402  subscribe to a plan first
//	already_owned             409  the vendor already holds the lead
//	quota_exceeded_<window>   429  daily, weekly or yearly limit reached
//	lead_not_available        404  missing, or another vendor's Direct lead
//	try_again                 503  contention; retry once
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "quota_exceeded_daily",
//	  "message": "Daily lead limit reached. Try again tomorrow or upgrade your plan."
//	}
package handlers

import (
	"errors"
	"net/http"

	"github.com/tbourn/go-lead-marketplace/internal/domain"
	"github.com/tbourn/go-lead-marketplace/internal/services"
)

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeNotFound     = "not_found"
	ErrCodeConflict     = "conflict"
	ErrCodeInternal     = "internal_error"

	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Purchase outcomes:
	ErrCodeNotEntitled      = "not_entitled"
	ErrCodeAlreadyOwned     = "already_owned"
	ErrCodeQuotaExceeded    = "quota_exceeded" // suffixed with _<window>
	ErrCodeLeadNotAvailable = "lead_not_available"
	ErrCodeTryAgain         = "try_again"

	// Entities:
	ErrCodeVendorNotFound       = "vendor_not_found"
	ErrCodeVendorInactive       = "vendor_inactive"
	ErrCodePlanNotFound         = "plan_not_found"
	ErrCodeSubscriptionNotFound = "subscription_not_found"
	ErrCodeSubscriptionInactive = "subscription_not_active"
)

// quotaMessages are the user-facing texts per exhausted window.
var quotaMessages = map[domain.Window]string{
	domain.WindowDaily:  "Daily lead limit reached. Try again tomorrow or upgrade your plan.",
	domain.WindowWeekly: "Weekly lead limit reached. Try again next week or upgrade your plan.",
	domain.WindowYearly: "Yearly lead limit reached. Upgrade your plan or buy additional leads.",
}

// apiError is a resolved error response.
type apiError struct {
	Status  int
	Code    string
	Message string
}

// mapError translates a service error into an HTTP status, a stable code and
// a user-facing message. Unknown errors become 500 internal_error.
func mapError(err error) apiError {
	var qe *services.QuotaExceededError
	switch {
	case errors.As(err, &qe):
		msg, ok := quotaMessages[qe.Window]
		if !ok {
			msg = "Lead limit reached."
		}
		return apiError{http.StatusTooManyRequests, ErrCodeQuotaExceeded + "_" + string(qe.Window), msg}
	case errors.Is(err, services.ErrQuotaExceeded):
		return apiError{http.StatusTooManyRequests, ErrCodeQuotaExceeded, "Lead limit reached."}
	case errors.Is(err, services.ErrNotEntitled):
		return apiError{http.StatusPaymentRequired, ErrCodeNotEntitled, "You need an active subscription to purchase leads."}
	case errors.Is(err, services.ErrAlreadyOwned):
		return apiError{http.StatusConflict, ErrCodeAlreadyOwned, "You already own this lead."}
	case errors.Is(err, services.ErrLeadNotAvailable):
		return apiError{http.StatusNotFound, ErrCodeLeadNotAvailable, "This lead is not available."}
	case errors.Is(err, services.ErrConcurrencyConflict):
		return apiError{http.StatusServiceUnavailable, ErrCodeTryAgain, "Please try again."}

	case errors.Is(err, services.ErrVendorNotFound):
		return apiError{http.StatusNotFound, ErrCodeVendorNotFound, "vendor not found"}
	case errors.Is(err, services.ErrVendorInactive):
		return apiError{http.StatusForbidden, ErrCodeVendorInactive, "vendor is deactivated"}
	case errors.Is(err, services.ErrPlanNotFound):
		return apiError{http.StatusNotFound, ErrCodePlanNotFound, "plan not found"}
	case errors.Is(err, services.ErrSubscriptionNotFound):
		return apiError{http.StatusNotFound, ErrCodeSubscriptionNotFound, "subscription not found"}
	case errors.Is(err, services.ErrSubscriptionNotActive):
		return apiError{http.StatusConflict, ErrCodeSubscriptionInactive, "subscription is not active"}

	case errors.Is(err, services.ErrInvalidVendor),
		errors.Is(err, services.ErrInvalidLead),
		errors.Is(err, services.ErrInvalidTopUp):
		return apiError{http.StatusBadRequest, ErrCodeBadRequest, err.Error()}
	}
	return apiError{http.StatusInternalServerError, ErrCodeInternal, "internal server error"}
}
