// internal/app/system/auth/auth.go
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

const (
	isAuthKey  = "is_authenticated"
	userIDKey  = "user_id"
	userNameK  = "user_name"
	userEmailK = "user_email"
	userRoleK  = "user_role"
)

// SessionUser is the resolved identity injected into r.Context(). It is
// re-fetched per request via the UserFetcher so role changes and disabled
// accounts take effect immediately.
type SessionUser struct {
	ID    string
	Name  string
	Email string
	Role  string
}

// UserFetcher loads fresh user data for the given user id. A nil return means
// the user no longer exists or may not sign in.
type UserFetcher interface {
	FetchUser(ctx context.Context, userID string) *SessionUser
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the user in context and a found flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok
}

// SessionManager owns the cookie store, the bearer-token secret, and the
// middleware that resolves the current user for each request.
type SessionManager struct {
	store       *sessions.CookieStore
	name        string
	fetcher     UserFetcher
	tokenSecret []byte
	tokenTTL    time.Duration
	log         *zap.Logger
}

// NewSessionManager builds a SessionManager. sessionKey signs cookies,
// tokenSecret signs bearer tokens handed to SPA clients.
func NewSessionManager(sessionKey, sessionName, domain string, secure bool, tokenSecret string, logger *zap.Logger) (*SessionManager, error) {
	if len(sessionKey) < 32 {
		return nil, errors.New("session key must be at least 32 bytes")
	}
	if len(tokenSecret) < 32 {
		return nil, errors.New("token secret must be at least 32 bytes")
	}
	store := sessions.NewCookieStore([]byte(sessionKey))
	store.Options = &sessions.Options{
		Path:     "/",
		Domain:   domain,
		MaxAge:   86400 * 14,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &SessionManager{
		store:       store,
		name:        sessionName,
		tokenSecret: []byte(tokenSecret),
		tokenTTL:    24 * time.Hour,
		log:         logger,
	}, nil
}

// SetUserFetcher installs the per-request user loader. Without one, session
// cookies resolve to the identity cached at sign-in time.
func (m *SessionManager) SetUserFetcher(f UserFetcher) { m.fetcher = f }

// SignIn writes the authenticated user into the cookie session.
func (m *SessionManager) SignIn(w http.ResponseWriter, r *http.Request, u *SessionUser) error {
	sess, _ := m.store.Get(r, m.name)
	sess.Values[isAuthKey] = true
	sess.Values[userIDKey] = u.ID
	sess.Values[userNameK] = u.Name
	sess.Values[userEmailK] = u.Email
	sess.Values[userRoleK] = u.Role
	return sess.Save(r, w)
}

// SignOut clears the cookie session.
func (m *SessionManager) SignOut(w http.ResponseWriter, r *http.Request) error {
	sess, _ := m.store.Get(r, m.name)
	sess.Values = map[interface{}]interface{}{}
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

// MintToken issues a signed bearer token for the user, for SPA clients that
// prefer Authorization headers over cookies.
func (m *SessionManager) MintToken(u *SessionUser) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   u.ID,
		"name":  u.Name,
		"email": u.Email,
		"role":  u.Role,
		"iat":   now.Unix(),
		"exp":   now.Add(m.tokenTTL).Unix(),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(m.tokenSecret)
}

// LoadSessionUser resolves the current user from either a bearer token or the
// cookie session and injects it into context. Unauthenticated requests pass
// through untouched.
func (m *SessionManager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u := m.userFromBearer(r); u != nil {
			next.ServeHTTP(w, m.refresh(r, u))
			return
		}

		sess, _ := m.store.Get(r, m.name)
		if isAuth, _ := sess.Values[isAuthKey].(bool); isAuth {
			u := &SessionUser{
				ID:    getString(sess, userIDKey),
				Name:  getString(sess, userNameK),
				Email: getString(sess, userEmailK),
				Role:  getString(sess, userRoleK),
			}
			next.ServeHTTP(w, m.refresh(r, u))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// refresh re-fetches the user when a fetcher is installed and returns the
// request with the user in context. A nil fetch result means the account is
// gone or disabled, so no user is injected at all.
func (m *SessionManager) refresh(r *http.Request, u *SessionUser) *http.Request {
	if m.fetcher != nil {
		fresh := m.fetcher.FetchUser(r.Context(), u.ID)
		if fresh == nil {
			return r
		}
		u = fresh
	}
	return withUser(r, u)
}

func (m *SessionManager) userFromBearer(r *http.Request) *SessionUser {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return nil
	}
	raw := strings.TrimPrefix(h, "Bearer ")
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.tokenSecret, nil
	})
	if err != nil || !tok.Valid {
		if err != nil && m.log != nil {
			m.log.Debug("bearer token rejected", zap.Error(err))
		}
		return nil
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil
	}
	id, _ := claims["sub"].(string)
	if id == "" {
		return nil
	}
	name, _ := claims["name"].(string)
	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)
	return &SessionUser{ID: id, Name: name, Email: email, Role: role}
}

// RequireSignedIn ensures there is a user in context (set by LoadSessionUser).
// API callers get a plain 401; there are no server-rendered pages to redirect to.
func RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); !ok {
			writeJSONError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole ensures the context user has one of the allowed roles.
func RequireRole(allowed ...string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		set[strings.ToLower(strings.TrimSpace(role))] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r)
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if _, has := set[strings.ToLower(u.Role)]; !has {
				writeJSONError(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithTestUser injects a user into the request context. Test helper only.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

func getString(s *sessions.Session, key string) string {
	v, _ := s.Values[key].(string)
	return v
}

func writeJSONError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write([]byte(`{"error":"` + msg + `"}`))
}
