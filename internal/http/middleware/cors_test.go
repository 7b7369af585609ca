package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const practiceSite = "https://kinesiologia.example"

func corsTarget(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestCORS_EmbeddingSiteGetsWidgetHeaders(t *testing.T) {
	called := false
	mw := CORS([]string{" " + practiceSite + " ", ""})

	req := httptest.NewRequest(http.MethodGet, "/api/slots?date=2025-03-10", nil)
	req.Header.Set("Origin", practiceSite)
	rec := httptest.NewRecorder()
	mw(corsTarget(&called)).ServeHTTP(rec, req)

	require.True(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, practiceSite, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type, X-Request-ID", rec.Header().Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "600", rec.Header().Get("Access-Control-Max-Age"))
	assert.Contains(t, rec.Header().Values("Vary"), "Origin")
}

func TestCORS_BookingPreflight(t *testing.T) {
	tests := []struct {
		name        string
		allowed     []string
		origin      string
		wantOrigin  string
		wantMethods string
	}{
		{"listed site", []string{practiceSite}, practiceSite, practiceSite, "GET, POST, OPTIONS"},
		{"wildcard echoes origin", []string{"*"}, "https://partner.example", "https://partner.example", "GET, POST, OPTIONS"},
		{"unlisted site", []string{practiceSite}, "https://evil.example", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			req := httptest.NewRequest(http.MethodOptions, "/api/slots", nil)
			req.Header.Set("Origin", tt.origin)
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			req.Header.Set("Access-Control-Request-Headers", "content-type")
			rec := httptest.NewRecorder()

			CORS(tt.allowed)(corsTarget(&called)).ServeHTTP(rec, req)

			assert.False(t, called, "preflight must not reach the booking handler")
			assert.Equal(t, http.StatusNoContent, rec.Code)
			assert.Equal(t, tt.wantOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tt.wantMethods, rec.Header().Get("Access-Control-Allow-Methods"))
		})
	}
}

func TestCORS_SameOriginRequestPassesThrough(t *testing.T) {
	called := false
	req := httptest.NewRequest(http.MethodPost, "/api/slots", nil)
	rec := httptest.NewRecorder()

	CORS([]string{practiceSite})(corsTarget(&called)).ServeHTTP(rec, req)

	assert.True(t, called)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_PlainOptionsIsNotPreflight(t *testing.T) {
	called := false
	req := httptest.NewRequest(http.MethodOptions, "/api/slots", nil)
	req.Header.Set("Origin", practiceSite)
	rec := httptest.NewRecorder()

	CORS([]string{practiceSite})(corsTarget(&called)).ServeHTTP(rec, req)

	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
}
