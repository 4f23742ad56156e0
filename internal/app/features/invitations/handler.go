// internal/app/features/invitations/handler.go
package invitations

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	invitationstore "github.com/dalemusser/eventhub/internal/app/store/invitations"
	projectstore "github.com/dalemusser/eventhub/internal/app/store/projects"
	speakerstore "github.com/dalemusser/eventhub/internal/app/store/speakers"
	userstore "github.com/dalemusser/eventhub/internal/app/store/users"
	"github.com/dalemusser/eventhub/internal/app/system/authz"
	"github.com/dalemusser/eventhub/internal/app/system/httpapi"
	"github.com/dalemusser/eventhub/internal/app/system/mailer"
	"github.com/dalemusser/eventhub/internal/app/system/normalize"
	"github.com/dalemusser/eventhub/internal/app/system/status"
	"github.com/dalemusser/eventhub/internal/app/system/timeouts"
	"github.com/dalemusser/eventhub/internal/domain/models"
)

// Handler runs the invitation workflow: create with a placeholder profile for
// unknown emails, accept or decline by token, and reconcile memberships when
// the accepting account differs from the invited placeholder.
type Handler struct {
	Invitations *invitationstore.Store
	Users       *userstore.Store
	Projects    *projectstore.Store
	Speakers    *speakerstore.Store
	Mail        *mailer.Mailer // nil when email is not configured
	SiteName    string
	BaseURL     string
	Log         *zap.Logger
}

func NewHandler(is *invitationstore.Store, us *userstore.Store, ps *projectstore.Store, ss *speakerstore.Store, mail *mailer.Mailer, siteName, baseURL string, logger *zap.Logger) *Handler {
	return &Handler{
		Invitations: is,
		Users:       us,
		Projects:    ps,
		Speakers:    ss,
		Mail:        mail,
		SiteName:    siteName,
		BaseURL:     baseURL,
		Log:         logger,
	}
}

type createRequest struct {
	Email     string `json:"email"`
	Role      string `json:"role"`
	Type      string `json:"type"`
	ProjectID string `json:"project_id"`
	FullName  string `json:"full_name"`
}

// HandleCreate issues an invitation. Project invites need the project's owner
// or an admin; team invites are admin-only; speaker invites take organizers
// too. An unknown target email gets a placeholder "invited" profile so the
// person shows up in member lists before they ever sign up.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	_, inviterName, inviterID, ok := authz.UserCtx(r)
	if !ok {
		httpapi.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}

	var req createRequest
	if err := httpapi.Decode(r, &req); err != nil {
		httpapi.ValidationError(w, "invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	inv := models.Invitation{
		Type:      req.Type,
		Email:     req.Email,
		Role:      req.Role,
		InviterID: inviterID,
	}

	var projectName string
	switch req.Type {
	case models.InviteTypeProject:
		projectID, err := primitive.ObjectIDFromHex(req.ProjectID)
		if err != nil {
			httpapi.ValidationError(w, "invalid project id")
			return
		}
		p, err := h.Projects.GetByID(ctx, projectID)
		if err != nil {
			httpapi.StoreError(w, h.Log, "load project", err)
			return
		}
		if !authz.IsAdmin(r) && p.OwnerID != inviterID {
			httpapi.Error(w, http.StatusForbidden, "only the project owner or an admin can invite members")
			return
		}
		inv.ProjectID = &p.ID
		projectName = p.Name
	case models.InviteTypeTeam:
		if !authz.IsAdmin(r) {
			httpapi.Error(w, http.StatusForbidden, "only admins can send team invitations")
			return
		}
	case models.InviteTypeSpeaker:
		if !authz.CanManageEvents(r) {
			httpapi.Error(w, http.StatusForbidden, "only organizers and admins can invite speakers")
			return
		}
	default:
		httpapi.ValidationError(w, "invitation type must be project, team or speaker")
		return
	}

	created, err := h.Invitations.Create(ctx, inv)
	if err != nil {
		if errors.Is(err, invitationstore.ErrDuplicatePending) {
			httpapi.Error(w, http.StatusConflict, err.Error())
			return
		}
		httpapi.ValidationError(w, err.Error())
		return
	}

	h.ensurePlaceholder(ctx, created, req.FullName)
	h.sendInviteEmail(created, req.FullName, inviterName, projectName)

	httpapi.JSON(w, http.StatusCreated, created)
}

// ensurePlaceholder creates an "invited" stand-in profile for an unknown
// email and, for project invitations, adds it to the member list right away.
// Failures here are logged, never fatal: the invitation itself has been
// written and sign-up reconciliation covers the same ground.
func (h *Handler) ensurePlaceholder(ctx context.Context, inv models.Invitation, fullName string) {
	email := normalize.Email(inv.Email)
	u, err := h.Users.GetByEmail(ctx, email)
	if errors.Is(err, mongo.ErrNoDocuments) {
		placeholder, perr := h.Users.CreatePlaceholder(ctx, fullName, email, inv.Role)
		if perr != nil {
			h.Log.Warn("create placeholder profile failed",
				zap.String("email", email), zap.Error(perr))
			return
		}
		u = &placeholder
	} else if err != nil {
		h.Log.Warn("placeholder lookup failed", zap.String("email", email), zap.Error(err))
		return
	}

	if inv.ProjectID != nil {
		if err := h.Projects.AddMember(ctx, *inv.ProjectID, u.ID); err != nil {
			h.Log.Warn("add invitee to project failed",
				zap.String("project_id", inv.ProjectID.Hex()), zap.Error(err))
		}
	}
}

// sendInviteEmail posts the invitation email in the background. Email is a
// side-effect: delivery failure never fails the invitation.
func (h *Handler) sendInviteEmail(inv models.Invitation, inviteeName, inviterName, projectName string) {
	if h.Mail == nil {
		return
	}
	acceptLink := h.BaseURL + "/invitations/" + inv.Token

	var email mailer.Email
	if inv.Type == models.InviteTypeSpeaker {
		email = mailer.BuildSpeakerInviteEmail(mailer.SpeakerInviteEmailData{
			SiteName:    h.SiteName,
			SpeakerName: inviteeName,
			InviterName: inviterName,
			AcceptLink:  acceptLink,
		})
	} else {
		email = mailer.BuildInvitationEmail(mailer.InvitationEmailData{
			SiteName:    h.SiteName,
			InviteeName: inviteeName,
			InviterName: inviterName,
			Role:        inv.Role,
			ProjectName: projectName,
			AcceptLink:  acceptLink,
			ExpiresIn:   "7 days",
		})
	}
	email.To = inv.Email
	email.ToName = inviteeName

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeouts.Long())
		defer cancel()
		if err := h.Mail.Send(ctx, email); err != nil {
			h.Log.Warn("invitation email failed",
				zap.String("email", inv.Email), zap.Error(err))
		}
	}()
}

// ServeInvitation resolves a token to its invitation so the accept page can
// render. Expired or already-settled invitations are gone, not pending.
func (h *Handler) ServeInvitation(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.loadByToken(w, r)
	if !ok {
		return
	}
	httpapi.JSON(w, http.StatusOK, inv)
}

// HandleAccept accepts the invitation as the signed-in user. When the
// acceptor's email differs from the invited one, the placeholder profile is
// folded into the real account: memberships move over, the placeholder goes.
func (h *Handler) HandleAccept(w http.ResponseWriter, r *http.Request) {
	role, _, userID, ok := authz.UserCtx(r)
	if !ok {
		httpapi.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}
	inv, ok := h.loadByToken(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		httpapi.StoreError(w, h.Log, "load account", err)
		return
	}

	if normalize.Email(u.Email) != normalize.Email(inv.Email) {
		h.foldPlaceholder(ctx, inv, userID)
	}

	if inv.ProjectID != nil {
		if err := h.Projects.AddMember(ctx, *inv.ProjectID, userID); err != nil {
			httpapi.StoreError(w, h.Log, "add project member", err)
			return
		}
	}
	if inv.Type == models.InviteTypeSpeaker {
		if _, err := h.Speakers.LinkUser(ctx, inv.Email, userID); err != nil {
			h.Log.Warn("link speaker failed", zap.String("email", inv.Email), zap.Error(err))
		}
	}
	// Invitations can upgrade the default role, never downgrade an earned one.
	if role == status.RoleAssistant && inv.Role != status.RoleAssistant {
		if err := h.Users.SetRole(ctx, userID, inv.Role); err != nil {
			h.Log.Warn("apply invitation role failed", zap.Error(err))
		}
	}

	if err := h.Invitations.SetStatus(ctx, inv.ID, status.InviteAccepted); err != nil {
		httpapi.StoreError(w, h.Log, "accept invitation", err)
		return
	}
	inv.Status = status.InviteAccepted
	httpapi.JSON(w, http.StatusOK, inv)
}

// foldPlaceholder moves a placeholder's memberships to the accepting account
// and deletes it. Best effort: a half-finished fold leaves a harmless unused
// placeholder behind.
func (h *Handler) foldPlaceholder(ctx context.Context, inv models.Invitation, userID primitive.ObjectID) {
	placeholder, err := h.Users.GetByEmail(ctx, normalize.Email(inv.Email))
	if err != nil || placeholder.Status != status.Invited {
		return
	}
	if err := h.Projects.ReplaceMemberID(ctx, placeholder.ID, userID); err != nil {
		h.Log.Warn("move placeholder memberships failed",
			zap.String("placeholder_id", placeholder.ID.Hex()), zap.Error(err))
		return
	}
	if _, err := h.Users.Delete(ctx, placeholder.ID); err != nil {
		h.Log.Warn("delete placeholder failed",
			zap.String("placeholder_id", placeholder.ID.Hex()), zap.Error(err))
	}
}

// HandleDecline declines by token. The token is the proof of ownership, so no
// session is required.
func (h *Handler) HandleDecline(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.loadByToken(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Invitations.SetStatus(ctx, inv.ID, status.InviteDeclined); err != nil {
		httpapi.StoreError(w, h.Log, "decline invitation", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ServeProjectInvitations lists a project's invitations for its owner.
func (h *Handler) ServeProjectInvitations(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		httpapi.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}
	projectID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "projectID"))
	if err != nil {
		httpapi.ValidationError(w, "invalid project id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	p, err := h.Projects.GetByID(ctx, projectID)
	if err != nil {
		httpapi.StoreError(w, h.Log, "load project", err)
		return
	}
	if !authz.IsAdmin(r) && p.OwnerID != userID {
		httpapi.Error(w, http.StatusForbidden, "only the project owner or an admin can view invitations")
		return
	}

	list, err := h.Invitations.ListByProject(ctx, projectID)
	if err != nil {
		httpapi.StoreError(w, h.Log, "list invitations", err)
		return
	}
	httpapi.JSON(w, http.StatusOK, map[string]any{"invitations": list})
}

// loadByToken fetches a pending, unexpired invitation by its route token.
func (h *Handler) loadByToken(w http.ResponseWriter, r *http.Request) (models.Invitation, bool) {
	token := chi.URLParam(r, "token")
	if token == "" {
		httpapi.ValidationError(w, "invitation token is required")
		return models.Invitation{}, false
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	inv, err := h.Invitations.GetByToken(ctx, token)
	if err != nil {
		httpapi.StoreError(w, h.Log, "load invitation", err)
		return models.Invitation{}, false
	}
	if inv.Status != status.InvitePending {
		httpapi.Error(w, http.StatusGone, "this invitation has already been "+inv.Status)
		return models.Invitation{}, false
	}
	if time.Now().UTC().After(inv.ExpiresAt) {
		httpapi.Error(w, http.StatusGone, "this invitation has expired")
		return models.Invitation{}, false
	}
	return inv, true
}
