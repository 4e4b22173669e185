package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
}

func TestCORS_Origins(t *testing.T) {
	handler := CORS([]string{"https://kiosk.example", " "})(okHandler())

	tests := []struct {
		origin string
		allow  bool
	}{
		{"https://kiosk.example", true},
		{"http://localhost", true},
		{"http://localhost:5173", true},
		{"https://localhost:8443", true},
		{"http://localhost.evil.com", false},
		{"https://other.example", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/regions", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			got := rec.Header().Get("Access-Control-Allow-Origin")
			if tt.allow && got != tt.origin {
				t.Errorf("expected origin %q allowed, got %q", tt.origin, got)
			}
			if !tt.allow && got != "" {
				t.Errorf("expected origin %q rejected, got %q", tt.origin, got)
			}
			if rec.Code != http.StatusTeapot {
				t.Errorf("expected request to reach handler, got %d", rec.Code)
			}
		})
	}
}

func TestCORS_Preflight(t *testing.T) {
	handler := CORS(nil)(okHandler())
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/capture", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 for preflight, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Methods") == "" {
		t.Error("expected allow-methods header")
	}
}

func TestSecurityHeaders(t *testing.T) {
	handler := SecurityHeaders()(okHandler())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	for _, h := range []string{"Content-Security-Policy", "X-Content-Type-Options", "X-Frame-Options"} {
		if rec.Header().Get(h) == "" {
			t.Errorf("expected %s header", h)
		}
	}
}
