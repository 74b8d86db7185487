package handlers

import (
	"net/http"
	"testing"

	"github.com/tbourn/go-lead-marketplace/internal/domain"
)

func TestVendorEndpoints(t *testing.T) {
	h := newHarness(t)

	expectCode(t, h.do(t, http.MethodPost, "/vendors", "", map[string]any{}), http.StatusBadRequest, "bad_request")
	expectCode(t, h.do(t, http.MethodPost, "/vendors", "", CreateVendorRequest{Name: "   "}), http.StatusBadRequest, "bad_request")

	id := h.vendor(t, "  Shree   Steel ")
	w := h.do(t, http.MethodGet, "/vendors/me", id, nil)
	expectCode(t, w, http.StatusOK, "")
	v := decode[domain.Vendor](t, w)
	if v.ID != id || v.Name != "Shree Steel" || !v.Active {
		t.Fatalf("unexpected vendor: %+v", v)
	}

	expectCode(t, h.do(t, http.MethodGet, "/vendors/me", "", nil), http.StatusUnauthorized, "")
	expectCode(t, h.do(t, http.MethodGet, "/vendors/me", "ghost", nil), http.StatusNotFound, "vendor_not_found")

	w = h.do(t, http.MethodPost, "/vendors/me/deactivate", id, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("deactivate status = %d", w.Code)
	}
	if v := decode[domain.Vendor](t, h.do(t, http.MethodGet, "/vendors/me", id, nil)); v.Active {
		t.Fatalf("vendor still active")
	}
	expectCode(t, h.do(t, http.MethodPost, "/subscriptions", id, SubscribeRequest{PlanID: "starter"}), http.StatusForbidden, "vendor_inactive")
}

func TestListPlans(t *testing.T) {
	h := newHarness(t)
	w := h.do(t, http.MethodGet, "/plans", "", nil)
	expectCode(t, w, http.StatusOK, "")
	resp := decode[ListPlansResponse](t, w)
	if len(resp.Plans) != 3 || resp.Plans[0].ID != "starter" {
		t.Fatalf("unexpected plans: %+v", resp.Plans)
	}
}

func TestBuyTopUp(t *testing.T) {
	h := newHarness(t)
	v := h.vendor(t, "Acme")

	expectCode(t, h.do(t, http.MethodPost, "/topups", v, BuyTopUpRequest{Leads: 0, Amount: 10}), http.StatusBadRequest, "bad_request")
	expectCode(t, h.do(t, http.MethodPost, "/topups", v, BuyTopUpRequest{Leads: 5, Amount: -1}), http.StatusBadRequest, "bad_request")
	expectCode(t, h.do(t, http.MethodPost, "/topups", "ghost", BuyTopUpRequest{Leads: 5, Amount: 10}), http.StatusNotFound, "vendor_not_found")

	w := h.do(t, http.MethodPost, "/topups", v, BuyTopUpRequest{Leads: 5, Amount: 25})
	expectCode(t, w, http.StatusCreated, "")
	w = h.do(t, http.MethodPost, "/topups", v, BuyTopUpRequest{Leads: 3, Amount: 15})
	expectCode(t, w, http.StatusCreated, "")
	row := decode[domain.VendorAdditionalLeads](t, w)
	if row.LeadsPurchased != 8 || row.LeadsRemaining != 8 || row.AmountPaid != 40 {
		t.Fatalf("unexpected pool: %+v", row)
	}
}
