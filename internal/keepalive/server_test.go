package keepalive

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestKeepaliveResponds(t *testing.T) {
	s := New(":0")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, expected 200", rec.Code)
	}
	if got := rec.Body.String(); got != "Bot is alive!" {
		t.Fatalf("body = %q", got)
	}
}

func TestKeepaliveUnknownPath(t *testing.T) {
	s := New(":0")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, expected 404", rec.Code)
	}
}
