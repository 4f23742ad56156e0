// internal/app/system/signin/signin.go
package signin

import (
	"context"
	"errors"

	invitationstore "github.com/dalemusser/eventhub/internal/app/store/invitations"
	projectstore "github.com/dalemusser/eventhub/internal/app/store/projects"
	speakerstore "github.com/dalemusser/eventhub/internal/app/store/speakers"
	userstore "github.com/dalemusser/eventhub/internal/app/store/users"
	"github.com/dalemusser/eventhub/internal/app/system/normalize"
	"github.com/dalemusser/eventhub/internal/app/system/rolepolicy"
	"github.com/dalemusser/eventhub/internal/app/system/status"
	"github.com/dalemusser/eventhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// ErrDisabled is returned when the account exists but may not sign in.
var ErrDisabled = errors.New("account is disabled")

// Identity is what the authentication provider (password form, Google) knows
// about the person signing in.
type Identity struct {
	Email    string
	FullName string
	PhotoURL string
	Provider string // password | google
}

// Service resolves a provider identity into the effective user account.
//
// Role precedence: policy override > profile role > invitation role >
// assistant. Provider-supplied display name and photo are written back
// one-way when the profile is missing them.
type Service struct {
	Users       *userstore.Store
	Projects    *projectstore.Store
	Speakers    *speakerstore.Store
	Invitations *invitationstore.Store
	Policy      *rolepolicy.Table
	Log         *zap.Logger
}

func New(us *userstore.Store, ps *projectstore.Store, ss *speakerstore.Store, is *invitationstore.Store, policy *rolepolicy.Table, logger *zap.Logger) *Service {
	return &Service{
		Users:       us,
		Projects:    ps,
		Speakers:    ss,
		Invitations: is,
		Policy:      policy,
		Log:         logger,
	}
}

// Resolve looks up (or creates) the account for the given identity, applies
// role policy, syncs provider fields, and reconciles pending invitations on
// a first sign-in. A profile lookup failure degrades to an override-or-default
// role so sign-in never deadlocks on a flaky read.
func (s *Service) Resolve(ctx context.Context, id Identity) (*models.User, error) {
	email := normalize.Email(id.Email)

	u, err := s.Users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return s.resolveExisting(ctx, u, id)
	case errors.Is(err, mongo.ErrNoDocuments):
		return s.createAccount(ctx, id, email)
	default:
		s.Log.Error("profile lookup failed during sign-in, degrading to policy role",
			zap.String("email", email), zap.Error(err))
		return &models.User{
			FullName: id.FullName,
			Email:    email,
			PhotoURL: id.PhotoURL,
			Role:     s.Policy.Resolve(email, ""),
			Status:   status.Active,
		}, nil
	}
}

func (s *Service) resolveExisting(ctx context.Context, u *models.User, id Identity) (*models.User, error) {
	if u.Status == status.Disabled {
		return nil, ErrDisabled
	}

	// A placeholder created by an invitation becomes the real account on the
	// invitee's first sign-in. The doc id is unchanged, so project member
	// lists that already reference it keep working.
	if u.Status == status.Invited {
		if err := s.Users.Activate(ctx, u.ID, id.Provider, ""); err != nil {
			return nil, err
		}
		u.Status = status.Active
		u.AuthMethod = id.Provider
		s.reconcileInvitations(ctx, u)
	}

	if err := s.Users.SyncProviderFields(ctx, u.ID, id.FullName, id.PhotoURL); err != nil {
		s.Log.Warn("provider field sync failed", zap.String("user_id", u.ID.Hex()), zap.Error(err))
	}
	if u.FullName == "" {
		u.FullName = id.FullName
	}
	if u.PhotoURL == "" {
		u.PhotoURL = id.PhotoURL
	}

	if effective := s.Policy.Resolve(u.Email, u.Role); effective != u.Role {
		if err := s.Users.SetRole(ctx, u.ID, effective); err != nil {
			s.Log.Warn("role override apply failed", zap.String("user_id", u.ID.Hex()), zap.Error(err))
		} else {
			u.Role = effective
		}
	}
	return u, nil
}

func (s *Service) createAccount(ctx context.Context, id Identity, email string) (*models.User, error) {
	role := s.Policy.Resolve(email, "")

	// A pending invitation's role wins over the default when no policy
	// override names this email.
	pending, err := s.Invitations.PendingByEmail(ctx, email)
	if err != nil {
		s.Log.Warn("pending invitation lookup failed", zap.String("email", email), zap.Error(err))
	}
	if role == status.RoleAssistant {
		for _, inv := range pending {
			if status.IsValidRole(inv.Role) {
				role = inv.Role
				break
			}
		}
	}

	created, err := s.Users.Create(ctx, models.User{
		FullName:   id.FullName,
		Email:      email,
		PhotoURL:   id.PhotoURL,
		AuthMethod: id.Provider,
		Role:       role,
		Status:     status.Active,
	})
	if err != nil {
		return nil, err
	}

	s.Log.Info("account created at first sign-in",
		zap.String("user_id", created.ID.Hex()),
		zap.String("email", email),
		zap.String("role", role),
		zap.Int("pending_invitations", len(pending)))

	s.reconcileInvitations(ctx, &created)
	return &created, nil
}

// reconcileInvitations accepts every pending invitation addressed to the
// account's email: project invitations add the account to the project's
// member list, speaker invitations link the speaker record by email match.
// Failures are logged and skipped; the sign-in itself never fails here.
func (s *Service) reconcileInvitations(ctx context.Context, u *models.User) {
	pending, err := s.Invitations.PendingByEmail(ctx, u.Email)
	if err != nil {
		s.Log.Warn("invitation reconciliation lookup failed", zap.String("email", u.Email), zap.Error(err))
		return
	}

	for _, inv := range pending {
		if inv.Type == models.InviteTypeProject && inv.ProjectID != nil {
			if err := s.Projects.AddMember(ctx, *inv.ProjectID, u.ID); err != nil {
				s.Log.Warn("invitation membership add failed",
					zap.String("invitation_id", inv.ID.Hex()),
					zap.String("project_id", inv.ProjectID.Hex()),
					zap.Error(err))
				continue
			}
		}
		if err := s.Invitations.SetStatus(ctx, inv.ID, status.InviteAccepted); err != nil {
			s.Log.Warn("invitation accept failed", zap.String("invitation_id", inv.ID.Hex()), zap.Error(err))
		}
	}

	linked, err := s.Speakers.LinkUser(ctx, u.Email, u.ID)
	if err != nil {
		s.Log.Warn("speaker link failed", zap.String("email", u.Email), zap.Error(err))
	} else if linked {
		s.Log.Info("speaker record linked to account",
			zap.String("user_id", u.ID.Hex()), zap.String("email", u.Email))
	}
}

// Register creates a password account. When a placeholder already stands in
// for this email it is activated in place (keeping its memberships and
// invitation role); otherwise a fresh account is created. ErrExists is
// returned when an active account already holds the email.
func (s *Service) Register(ctx context.Context, fullName, email, passwordHash string) (*models.User, error) {
	email = normalize.Email(email)

	u, err := s.Users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		switch u.Status {
		case status.Disabled:
			return nil, ErrDisabled
		case status.Invited:
			if err := s.Users.Activate(ctx, u.ID, "password", passwordHash); err != nil {
				return nil, err
			}
			u.Status = status.Active
			u.AuthMethod = "password"
			if fullName != "" && u.FullName == "" {
				if err := s.Users.SyncProviderFields(ctx, u.ID, fullName, ""); err == nil {
					u.FullName = fullName
				}
			}
			s.reconcileInvitations(ctx, u)
			return s.resolveExisting(ctx, u, Identity{Email: email, FullName: fullName, Provider: "password"})
		default:
			return nil, ErrExists
		}
	case errors.Is(err, mongo.ErrNoDocuments):
		created, err := s.createAccount(ctx, Identity{Email: email, FullName: fullName, Provider: "password"}, email)
		if err != nil {
			return nil, err
		}
		if err := s.Users.Activate(ctx, created.ID, "password", passwordHash); err != nil {
			return nil, err
		}
		created.AuthMethod = "password"
		return created, nil
	default:
		return nil, err
	}
}

// ErrExists is returned by Register when the email already has an account.
var ErrExists = errors.New("an account with this email already exists")

// SessionFields returns the (id, name, email, role) tuple stored in the
// session for the resolved user.
func SessionFields(u *models.User) (id, name, email, role string) {
	return u.ID.Hex(), u.FullName, u.Email, u.Role
}
