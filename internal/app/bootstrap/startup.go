// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/dalemusser/eventhub/internal/app/progress"
	invitationstore "github.com/dalemusser/eventhub/internal/app/store/invitations"
	projectstore "github.com/dalemusser/eventhub/internal/app/store/projects"
	"github.com/dalemusser/eventhub/internal/app/store/sessions"
	taskstore "github.com/dalemusser/eventhub/internal/app/store/tasks"
	userstore "github.com/dalemusser/eventhub/internal/app/store/users"
	"github.com/dalemusser/eventhub/internal/app/system/status"
	"github.com/dalemusser/eventhub/internal/app/system/tasks"
	"github.com/dalemusser/eventhub/internal/app/system/watch"
	"github.com/dalemusser/eventhub/internal/domain/models"
)

// background is cancelled in Shutdown; it owns the change-stream watchers and
// the job runner.
var (
	background       context.Context
	cancelBackground context.CancelFunc
)

// Startup runs one-time initialization after DB connection and schema setup:
// it guarantees the admin account and the reserved General project exist,
// then launches the change-stream watchers and the background job runner.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	adminID, err := ensureAdmin(ctx, deps, appCfg.AdminEmail, logger)
	if err != nil {
		return err
	}

	ps := projectstore.New(deps.MongoDatabase)
	if err := ps.EnsureGeneralProject(ctx, adminID); err != nil {
		return fmt.Errorf("ensure general project: %w", err)
	}

	background, cancelBackground = context.WithCancel(context.Background())

	for name, hub := range deps.Hubs {
		w := watch.NewWatcher(deps.MongoDatabase.Collection(name), hub, logger)
		go w.Run(background)
	}

	ts := taskstore.New(deps.MongoDatabase)
	rec := progress.New(ps, ts, logger)
	sess := sessions.New(deps.MongoDatabase)
	inv := invitationstore.New(deps.MongoDatabase)

	runner := tasks.NewRunner(logger,
		tasks.ProgressSweepJob(rec, logger, appCfg.SweepInterval),
		tasks.InactiveSessionCleanupJob(sess, logger, appCfg.CleanupInterval, appCfg.SessionIdle),
		tasks.InvitationExpiryJob(inv, logger, appCfg.InviteSweepInterval),
	)
	runner.Start(background)

	return nil
}

// ensureAdmin promotes the configured email to admin, creating an active
// account if none exists, so a fresh deployment always has one usable
// administrator. Returns the admin's ID (NilObjectID when unconfigured) for
// use as the General project owner.
func ensureAdmin(ctx context.Context, deps DBDeps, email string, logger *zap.Logger) (primitive.ObjectID, error) {
	if email == "" {
		return primitive.NilObjectID, nil
	}

	us := userstore.New(deps.MongoDatabase)
	existing, err := us.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Role == status.RoleAdmin {
			return existing.ID, nil
		}
		if err := us.SetRole(ctx, existing.ID, status.RoleAdmin); err != nil {
			return primitive.NilObjectID, fmt.Errorf("promote admin: %w", err)
		}
		logger.Info("promoted existing user to admin",
			zap.String("email", email), zap.String("was", existing.Role))
		return existing.ID, nil

	case errors.Is(err, mongo.ErrNoDocuments):
		created, err := us.Create(ctx, models.User{
			FullName: "Administrator",
			Email:    email,
			Role:     status.RoleAdmin,
			Status:   status.Active,
		})
		if err != nil {
			return primitive.NilObjectID, fmt.Errorf("create admin: %w", err)
		}
		logger.Info("created admin account", zap.String("email", email))
		return created.ID, nil

	default:
		return primitive.NilObjectID, fmt.Errorf("lookup admin: %w", err)
	}
}
