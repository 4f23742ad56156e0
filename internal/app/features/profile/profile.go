// internal/app/features/profile/profile.go
package profile

import (
	"context"
	"net/http"

	userstore "github.com/dalemusser/eventhub/internal/app/store/users"
	"github.com/dalemusser/eventhub/internal/app/system/authz"
	"github.com/dalemusser/eventhub/internal/app/system/httpapi"
	"github.com/dalemusser/eventhub/internal/app/system/limits"
	"github.com/dalemusser/eventhub/internal/app/system/timeouts"
	"github.com/dalemusser/eventhub/internal/domain/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// profileResponse is the JSON shape of the signed-in user's profile.
type profileResponse struct {
	ID          string                   `json:"id"`
	FullName    string                   `json:"full_name"`
	Email       string                   `json:"email"`
	PhotoURL    string                   `json:"photo_url,omitempty"`
	PhoneNumber string                   `json:"phone_number,omitempty"`
	AuthMethod  string                   `json:"auth_method,omitempty"`
	Role        string                   `json:"role"`
	Notify      models.NotificationPrefs `json:"notify"`
}

func toResponse(u *models.User) profileResponse {
	return profileResponse{
		ID:          u.ID.Hex(),
		FullName:    u.FullName,
		Email:       u.Email,
		PhotoURL:    u.PhotoURL,
		PhoneNumber: u.PhoneNumber,
		AuthMethod:  u.AuthMethod,
		Role:        u.Role,
		Notify:      u.Notify,
	}
}

// ServeProfile handles GET /profile.
func (h *Handler) ServeProfile(w http.ResponseWriter, r *http.Request) {
	_, _, uid, ok := authz.UserCtx(r)
	if !ok {
		httpapi.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		httpapi.StoreError(w, h.Log, "load profile", err)
		return
	}
	httpapi.JSON(w, http.StatusOK, toResponse(u))
}

type updateRequest struct {
	FullName    string                    `json:"full_name"`
	PhoneNumber *string                   `json:"phone_number"`
	Notify      *models.NotificationPrefs `json:"notify"`
}

// HandleUpdate handles PUT /profile: name, phone, notification preferences.
// Email and role are not editable here.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	_, _, uid, ok := authz.UserCtx(r)
	if !ok {
		httpapi.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req updateRequest
	if err := httpapi.Decode(r, &req); err != nil {
		httpapi.ValidationError(w, "invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	upd := userstore.ProfileUpdate{
		FullName:    req.FullName,
		PhoneNumber: req.PhoneNumber,
		Notify:      req.Notify,
	}
	if err := h.Users.UpdateProfile(ctx, uid, upd); err != nil {
		httpapi.StoreError(w, h.Log, "update profile", err)
		return
	}

	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		httpapi.StoreError(w, h.Log, "reload profile", err)
		return
	}
	httpapi.JSON(w, http.StatusOK, toResponse(u))
}

type passwordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// HandleChangePassword handles POST /profile/password. Only password-auth
// accounts can change a password here.
func (h *Handler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	_, _, uid, ok := authz.UserCtx(r)
	if !ok {
		httpapi.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req passwordRequest
	if err := httpapi.Decode(r, &req); err != nil {
		httpapi.ValidationError(w, "invalid request body")
		return
	}
	if len(req.NewPassword) < 8 {
		httpapi.ValidationError(w, "password must be at least 8 characters")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		httpapi.StoreError(w, h.Log, "load profile", err)
		return
	}
	if u.AuthMethod != "password" {
		httpapi.ValidationError(w, "password change is only available for password accounts")
		return
	}
	if u.PasswordHash == "" ||
		bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.CurrentPassword)) != nil {
		httpapi.Error(w, http.StatusForbidden, "current password is incorrect")
		return
	}
	if req.NewPassword == req.CurrentPassword {
		httpapi.ValidationError(w, "new password cannot match the current password")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		h.Log.Error("password hash failed", zap.Error(err))
		httpapi.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if err := h.Users.Activate(ctx, uid, "password", string(hash)); err != nil {
		httpapi.StoreError(w, h.Log, "update password", err)
		return
	}

	h.Log.Info("password changed", zap.String("user_id", uid.Hex()))
	w.WriteHeader(http.StatusNoContent)
}

// HandlePhotoUpload handles POST /profile/photo: multipart image pushed to the
// CDN, resulting URL stored on the profile.
func (h *Handler) HandlePhotoUpload(w http.ResponseWriter, r *http.Request) {
	_, _, uid, ok := authz.UserCtx(r)
	if !ok {
		httpapi.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if h.Images == nil {
		httpapi.Error(w, http.StatusInternalServerError, "image uploads are not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxPhotoUploadSize)
	file, header, err := r.FormFile("photo")
	if err != nil {
		httpapi.ValidationError(w, `multipart field "photo" is required`)
		return
	}
	defer file.Close()

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	url, err := h.Images.Upload(ctx, header.Filename, file)
	if err != nil {
		h.Log.Error("photo upload failed", zap.String("user_id", uid.Hex()), zap.Error(err))
		httpapi.Error(w, http.StatusBadGateway, "image upload failed")
		return
	}

	if err := h.Users.UpdateProfile(ctx, uid, userstore.ProfileUpdate{PhotoURL: &url}); err != nil {
		httpapi.StoreError(w, h.Log, "store photo url", err)
		return
	}

	httpapi.JSON(w, http.StatusOK, map[string]string{"photo_url": url})
}
