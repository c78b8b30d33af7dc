package http

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHealthHandler_OK(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()

	HealthHandler(rec, req)

	res := rec.Result()
	if res.StatusCode != 200 {
		t.Fatalf("expected status 200, got %d", res.StatusCode)
	}

	body := rec.Body.String()
	if body != "ok" {
		t.Fatalf("expected body %q, got %q", "ok", body)
	}
}

func TestPaymentsStatusHandler(t *testing.T) {
	t.Parallel()

	for _, configured := range []bool{true, false} {
		rec := httptest.NewRecorder()
		PaymentsStatusHandler(configured).ServeHTTP(rec, httptest.NewRequest("GET", "/payments/status", nil))

		want := `"configured":false`
		if configured {
			want = `"configured":true`
		}
		if !strings.Contains(rec.Body.String(), want) {
			t.Fatalf("expected %s, got %q", want, rec.Body.String())
		}
	}
}
