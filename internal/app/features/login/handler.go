// internal/app/features/login/handler.go
package login

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/eventhub/internal/app/store/sessions"
	userstore "github.com/dalemusser/eventhub/internal/app/store/users"
	"github.com/dalemusser/eventhub/internal/app/system/auth"
	"github.com/dalemusser/eventhub/internal/app/system/httpapi"
	"github.com/dalemusser/eventhub/internal/app/system/normalize"
	"github.com/dalemusser/eventhub/internal/app/system/ratelimit"
	"github.com/dalemusser/eventhub/internal/app/system/signin"
	"github.com/dalemusser/eventhub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Handler serves password sign-in and registration for the SPA.
type Handler struct {
	Users      *userstore.Store
	Sessions   *sessions.Store
	Resolver   *signin.Service
	SessionMgr *auth.SessionManager
	Limits     *ratelimit.Limiter // nil disables login throttling
	Log        *zap.Logger
}

func NewHandler(us *userstore.Store, sess *sessions.Store, resolver *signin.Service, mgr *auth.SessionManager, limits *ratelimit.Limiter, logger *zap.Logger) *Handler {
	return &Handler{
		Users:      us,
		Sessions:   sess,
		Resolver:   resolver,
		SessionMgr: mgr,
		Limits:     limits,
		Log:        logger,
	}
}

// throttle rejects the request when its client address has burned through the
// window. Both credential endpoints share one limiter, so guessing passwords
// and spraying signups draw from the same allowance.
func (h *Handler) throttle(w http.ResponseWriter, r *http.Request) bool {
	if h.Limits == nil {
		return false
	}
	ip := ratelimit.ClientIP(r)
	if h.Limits.Allow(ip) {
		return false
	}
	h.Log.Warn("login rate limit hit", zap.String("ip", ip))
	httpapi.Error(w, http.StatusTooManyRequests, "too many attempts, try again shortly")
	return true
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signupRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string `json:"token"`
	User  struct {
		ID       string `json:"id"`
		FullName string `json:"full_name"`
		Email    string `json:"email"`
		Role     string `json:"role"`
	} `json:"user"`
}

// ServeLogin handles POST /auth/login.
func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if h.throttle(w, r) {
		return
	}
	var req loginRequest
	if err := httpapi.Decode(r, &req); err != nil {
		httpapi.ValidationError(w, "invalid request body")
		return
	}
	email := normalize.Email(req.Email)
	if email == "" || req.Password == "" {
		httpapi.ValidationError(w, "email and password are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// Same response as a bad password so account existence leaks nothing.
			httpapi.Error(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		httpapi.StoreError(w, h.Log, "login lookup", err)
		return
	}
	if u.PasswordHash == "" ||
		bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		h.Log.Info("password login rejected", zap.String("email", email))
		httpapi.Error(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	resolved, err := h.Resolver.Resolve(ctx, signin.Identity{
		Email:    email,
		FullName: u.FullName,
		Provider: "password",
	})
	if err != nil {
		if errors.Is(err, signin.ErrDisabled) {
			httpapi.Error(w, http.StatusForbidden, "account is disabled")
			return
		}
		httpapi.StoreError(w, h.Log, "login resolve", err)
		return
	}

	if h.Limits != nil {
		h.Limits.Reset(ratelimit.ClientIP(r))
	}
	h.finish(w, r, resolved.ID.Hex(), resolved.FullName, resolved.Email, resolved.Role, "password")
}

// ServeSignup handles POST /auth/signup. When an invitation placeholder holds
// the email already, the new credentials activate it in place and the account
// inherits the invitation's role and project memberships.
func (h *Handler) ServeSignup(w http.ResponseWriter, r *http.Request) {
	if h.throttle(w, r) {
		return
	}
	var req signupRequest
	if err := httpapi.Decode(r, &req); err != nil {
		httpapi.ValidationError(w, "invalid request body")
		return
	}
	email := normalize.Email(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		httpapi.ValidationError(w, "a valid email is required")
		return
	}
	if len(req.Password) < 8 {
		httpapi.ValidationError(w, "password must be at least 8 characters")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.Log.Error("password hash failed", zap.Error(err))
		httpapi.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, err := h.Resolver.Register(ctx, normalize.Name(req.FullName), email, string(hash))
	if err != nil {
		switch {
		case errors.Is(err, signin.ErrExists):
			httpapi.Error(w, http.StatusConflict, err.Error())
		case errors.Is(err, signin.ErrDisabled):
			httpapi.Error(w, http.StatusForbidden, "account is disabled")
		default:
			httpapi.StoreError(w, h.Log, "signup", err)
		}
		return
	}

	h.finish(w, r, u.ID.Hex(), u.FullName, u.Email, u.Role, "password")
}

// ServeMe handles GET /auth/me: the identity behind the current session.
func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		httpapi.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var resp authResponse
	resp.User.ID = u.ID
	resp.User.FullName = u.Name
	resp.User.Email = u.Email
	resp.User.Role = u.Role
	httpapi.JSON(w, http.StatusOK, resp.User)
}

// finish writes the cookie session, records the activity session, and returns
// the bearer token plus user summary.
func (h *Handler) finish(w http.ResponseWriter, r *http.Request, id, name, email, role, provider string) {
	su := &auth.SessionUser{ID: id, Name: name, Email: email, Role: role}

	if err := h.SessionMgr.SignIn(w, r, su); err != nil {
		h.Log.Error("session save failed", zap.Error(err), zap.String("email", email))
		httpapi.Error(w, http.StatusInternalServerError, "could not establish session")
		return
	}

	token, err := h.SessionMgr.MintToken(su)
	if err != nil {
		h.Log.Error("token mint failed", zap.Error(err), zap.String("email", email))
		httpapi.Error(w, http.StatusInternalServerError, "could not establish session")
		return
	}

	if h.Sessions != nil {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
			defer cancel()
			if _, err := h.Sessions.Create(ctx, oid, provider, ratelimit.ClientIP(r), r.UserAgent()); err != nil {
				h.Log.Warn("activity session create failed", zap.Error(err), zap.String("user_id", id))
			}
		}
	}

	h.Log.Info("user signed in",
		zap.String("user_id", id),
		zap.String("email", email),
		zap.String("provider", provider))

	var resp authResponse
	resp.Token = token
	resp.User.ID = id
	resp.User.FullName = name
	resp.User.Email = email
	resp.User.Role = role
	httpapi.JSON(w, http.StatusOK, resp)
}
