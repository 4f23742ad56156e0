// internal/app/features/invitations/bulk.go
package invitations

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	invitationstore "github.com/dalemusser/eventhub/internal/app/store/invitations"
	"github.com/dalemusser/eventhub/internal/app/system/authz"
	"github.com/dalemusser/eventhub/internal/app/system/csvutil"
	"github.com/dalemusser/eventhub/internal/app/system/httpapi"
	"github.com/dalemusser/eventhub/internal/app/system/timeouts"
	"github.com/dalemusser/eventhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type bulkResponse struct {
	Created  int      `json:"created"`
	Skipped  int      `json:"skipped"`
	Problems []string `json:"problems,omitempty"`
}

// HandleBulkCreate issues one invitation per row of an uploaded CSV
// ("full name,email[,role]"). The file is scanned and validated in full
// before any invitation is written; per-row role falls back to the "role"
// query parameter. Project invites take a "project_id" query parameter and
// the usual owner-or-admin check; without one the upload is a team invite
// and is admin-only. Rows that already hold a pending invitation are
// skipped, not failed.
func (h *Handler) HandleBulkCreate(w http.ResponseWriter, r *http.Request) {
	_, inviterName, inviterID, ok := authz.UserCtx(r)
	if !ok {
		httpapi.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	invType := models.InviteTypeTeam
	var projectID *primitive.ObjectID
	var projectName string
	if raw := r.URL.Query().Get("project_id"); raw != "" {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			httpapi.ValidationError(w, "invalid project id")
			return
		}
		p, err := h.Projects.GetByID(ctx, id)
		if err != nil {
			httpapi.StoreError(w, h.Log, "load project", err)
			return
		}
		if !authz.IsAdmin(r) && p.OwnerID != inviterID {
			httpapi.Error(w, http.StatusForbidden, "only the project owner or an admin can invite members")
			return
		}
		invType = models.InviteTypeProject
		projectID = &p.ID
		projectName = p.Name
	} else if !authz.IsAdmin(r) {
		httpapi.Error(w, http.StatusForbidden, "only admins can send team invitations")
		return
	}

	body := http.MaxBytesReader(w, r.Body, csvutil.MaxUploadSize)
	rows, problems, err := csvutil.PreScanInvitesCSV(body, r.URL.Query().Get("role"))
	if err != nil {
		httpapi.ValidationError(w, err.Error())
		return
	}

	resp := bulkResponse{Problems: problems}
	for _, row := range rows {
		inv := models.Invitation{
			Type:      invType,
			Email:     row.Email,
			Role:      row.Role,
			ProjectID: projectID,
			InviterID: inviterID,
		}
		created, err := h.Invitations.Create(ctx, inv)
		if err != nil {
			resp.Skipped++
			if errors.Is(err, invitationstore.ErrDuplicatePending) {
				resp.Problems = append(resp.Problems, fmt.Sprintf("%s: already has a pending invitation", row.Email))
			} else {
				resp.Problems = append(resp.Problems, fmt.Sprintf("%s: %v", row.Email, err))
			}
			continue
		}
		resp.Created++
		h.ensurePlaceholder(ctx, created, row.FullName)
		h.sendInviteEmail(created, row.FullName, inviterName, projectName)
	}

	httpapi.JSON(w, http.StatusCreated, resp)
}
