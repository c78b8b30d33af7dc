package http

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"golang.org/x/crypto/bcrypt"
)

func newTestAuth(t *testing.T, password string) *AdminAuth {
	t.Helper()
	logger, _ := test.NewNullLogger()
	hash := ""
	if password != "" {
		b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
		if err != nil {
			t.Fatalf("hash password: %v", err)
		}
		hash = string(b)
	}
	store := NewSessionStore([]byte("0123456789abcdef0123456789abcdef"), false)
	return NewAdminAuth(store, hash, logger)
}

func TestAdminAuth_Login(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		password       string
		body           string
		expectedStatus int
		expectCookie   bool
	}{
		{name: "correct password", password: "hunter2", body: `{"password":"hunter2"}`, expectedStatus: http.StatusNoContent, expectCookie: true},
		{name: "wrong password", password: "hunter2", body: `{"password":"nope"}`, expectedStatus: http.StatusUnauthorized},
		{name: "empty password", password: "hunter2", body: `{}`, expectedStatus: http.StatusBadRequest},
		{name: "login disabled", password: "", body: `{"password":"anything"}`, expectedStatus: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			auth := newTestAuth(t, tt.password)
			req := httptest.NewRequest(http.MethodPost, "/admin/login", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()

			auth.HandleLogin(NewValidator()).ServeHTTP(rec, req)

			if rec.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d", tt.expectedStatus, rec.Code)
			}
			if got := len(rec.Result().Cookies()) > 0; got != tt.expectCookie {
				t.Fatalf("expected cookie=%v, got %v", tt.expectCookie, got)
			}
		})
	}
}

func TestAdminAuth_RequireAndLogout(t *testing.T) {
	t.Parallel()

	auth := newTestAuth(t, "hunter2")
	protected := auth.Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	protected.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/raffles", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without session, got %d", rec.Code)
	}

	login := httptest.NewRecorder()
	auth.HandleLogin(NewValidator()).ServeHTTP(login,
		httptest.NewRequest(http.MethodPost, "/admin/login", bytes.NewBufferString(`{"password":"hunter2"}`)))
	cookies := login.Result().Cookies()

	req := httptest.NewRequest(http.MethodGet, "/admin/raffles", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec = httptest.NewRecorder()
	protected.ServeHTTP(rec, req)
	if rec.Code != http.StatusTeapot {
		t.Fatalf("expected handler to run with session, got %d", rec.Code)
	}

	logoutReq := httptest.NewRequest(http.MethodPost, "/admin/logout", nil)
	for _, c := range cookies {
		logoutReq.AddCookie(c)
	}
	logout := httptest.NewRecorder()
	auth.HandleLogout().ServeHTTP(logout, logoutReq)
	if logout.Code != http.StatusNoContent {
		t.Fatalf("expected 204 on logout, got %d", logout.Code)
	}
	for _, c := range logout.Result().Cookies() {
		if c.Name == adminSessionName && c.MaxAge >= 0 {
			t.Fatalf("expected session cookie to be expired, got MaxAge %d", c.MaxAge)
		}
	}
}

func TestAdminAuth_RejectsForgedCookie(t *testing.T) {
	t.Parallel()

	auth := newTestAuth(t, "hunter2")
	protected := auth.Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/admin/raffles", nil)
	req.AddCookie(&http.Cookie{Name: adminSessionName, Value: "forged"})
	rec := httptest.NewRecorder()
	protected.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for forged cookie, got %d", rec.Code)
	}
}
