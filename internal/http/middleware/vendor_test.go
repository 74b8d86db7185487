package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestVendorIdentity_And_RequireVendor(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(VendorIdentity())
	r.GET("/open", func(c *gin.Context) {
		id, _ := VendorIDFrom(c)
		c.String(http.StatusOK, id)
	})
	r.GET("/closed", RequireVendor(), func(c *gin.Context) {
		id, _ := VendorIDFrom(c)
		c.String(http.StatusOK, id)
	})

	cases := []struct {
		name, path, header string
		wantCode           int
		wantBody           string
	}{
		{"anonymous open", "/open", "", 200, ""},
		{"identified open", "/open", " v-1 ", 200, "v-1"},
		{"anonymous closed", "/closed", "", 401, "unauthorized"},
		{"identified closed", "/closed", "3f2a9c1e-0000-4000-8000-000000000001", 200, "3f2a9c1e-0000-4000-8000-000000000001"},
		{"malformed", "/open", "bad id!", 400, "bad_request"},
		{"too long", "/closed", strings.Repeat("a", 65), 400, "bad_request"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.header != "" {
				req.Header.Set(HeaderVendorID, tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tc.wantCode {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tc.wantCode, w.Body.String())
			}
			if !strings.Contains(w.Body.String(), tc.wantBody) {
				t.Fatalf("body %q does not contain %q", w.Body.String(), tc.wantBody)
			}
		})
	}
}

func TestVendorIDFrom_WrongType(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if _, ok := VendorIDFrom(c); ok {
		t.Fatalf("empty context should have no vendor")
	}
	c.Set(ctxKeyVendorID, 42)
	if _, ok := VendorIDFrom(c); ok {
		t.Fatalf("non-string value must be ignored")
	}
}
