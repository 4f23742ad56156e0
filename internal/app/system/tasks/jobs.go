// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	"github.com/dalemusser/eventhub/internal/app/progress"
	invitationstore "github.com/dalemusser/eventhub/internal/app/store/invitations"
	"github.com/dalemusser/eventhub/internal/app/store/sessions"
	"go.uber.org/zap"
)

// ProgressSweepJob creates a job that recomputes project progress and
// refreshes denormalized project names on tasks. Per-task recomputes keep
// progress close to the truth; this sweep bounds how long any drift from
// concurrent toggles can survive.
func ProgressSweepJob(rec *progress.Recomputer, logger *zap.Logger, interval time.Duration) Job {
	return Job{
		Name:     "progress-sweep",
		Interval: interval,
		Run: func(ctx context.Context) error {
			res, err := rec.Sweep(ctx)
			if err != nil {
				return err
			}
			if res.ProjectsVisited > 0 {
				logger.Debug("progress sweep complete",
					zap.Int("projects", res.ProjectsVisited),
					zap.Int64("names_refreshed", res.NamesRefreshed))
			}
			return nil
		},
	}
}

// InactiveSessionCleanupJob creates a job that closes sessions inactive for
// the given threshold. Sessions are marked ended rather than deleted so the
// sign-in history survives.
func InactiveSessionCleanupJob(sessStore *sessions.Store, logger *zap.Logger, interval, threshold time.Duration) Job {
	return Job{
		Name:     "inactive-session-cleanup",
		Interval: interval,
		Run: func(ctx context.Context) error {
			count, err := sessStore.CloseExpired(ctx, threshold)
			if err != nil {
				return err
			}
			if count > 0 {
				logger.Info("closed inactive sessions",
					zap.Int64("count", count),
					zap.Duration("threshold", threshold))
			}
			return nil
		},
	}
}

// InvitationExpiryJob creates a job that declines pending invitations past
// their expiry time.
func InvitationExpiryJob(invStore *invitationstore.Store, logger *zap.Logger, interval time.Duration) Job {
	return Job{
		Name:     "invitation-expiry",
		Interval: interval,
		Run: func(ctx context.Context) error {
			count, err := invStore.ExpirePending(ctx)
			if err != nil {
				return err
			}
			if count > 0 {
				logger.Info("expired pending invitations", zap.Int64("count", count))
			}
			return nil
		},
	}
}
