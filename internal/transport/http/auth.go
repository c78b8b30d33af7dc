package http

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/sessions"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const (
	adminSessionName = "raffle_admin"
	adminSessionKey  = "authenticated"
	adminSessionTTL  = 8 * 60 * 60
)

// NewSessionStore returns a cookie store for the admin session.
func NewSessionStore(key []byte, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore(key)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   adminSessionTTL,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// AdminAuth gates the back office behind a single bcrypt-hashed password.
type AdminAuth struct {
	store        sessions.Store
	passwordHash []byte
	logger       logrus.FieldLogger
}

func NewAdminAuth(store sessions.Store, passwordHash string, logger logrus.FieldLogger) *AdminAuth {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &AdminAuth{
		store:        store,
		passwordHash: []byte(passwordHash),
		logger:       logger,
	}
}

type loginRequest struct {
	Password string `json:"password" validate:"required"`
}

// HandleLogin serves POST /admin/login.
func (a *AdminAuth) HandleLogin(v *validator.Validate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if len(a.passwordHash) == 0 {
			writeError(w, http.StatusServiceUnavailable, codeAdminDisabled, "admin login is not configured")
			return
		}
		var req loginRequest
		if !decodeAndValidate(w, r, v, &req) {
			return
		}
		if err := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(req.Password)); err != nil {
			a.logger.WithField("remote_addr", r.RemoteAddr).Warn("admin login failed")
			writeError(w, http.StatusUnauthorized, codeInvalidCredentials, "invalid credentials")
			return
		}

		session, _ := a.store.Get(r, adminSessionName)
		session.Values[adminSessionKey] = true
		if err := session.Save(r, w); err != nil {
			a.logger.WithError(err).Error("save admin session")
			writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleLogout serves POST /admin/logout.
func (a *AdminAuth) HandleLogout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, _ := a.store.Get(r, adminSessionName)
		delete(session.Values, adminSessionKey)
		session.Options.MaxAge = -1
		if err := session.Save(r, w); err != nil {
			writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// Require rejects requests without an authenticated admin session.
func (a *AdminAuth) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := a.store.Get(r, adminSessionName)
		if err != nil {
			writeError(w, http.StatusUnauthorized, codeUnauthorized, "unauthorized")
			return
		}
		if ok, _ := session.Values[adminSessionKey].(bool); !ok {
			writeError(w, http.StatusUnauthorized, codeUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}
