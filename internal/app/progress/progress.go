// internal/app/progress/progress.go
package progress

import (
	"context"
	"math"

	projectstore "github.com/dalemusser/eventhub/internal/app/store/projects"
	taskstore "github.com/dalemusser/eventhub/internal/app/store/tasks"
	"github.com/dalemusser/eventhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Recomputer keeps Project.progress approximately consistent with the
// completion ratio of the project's tasks. It runs after every task mutation
// as a separate follow-up write: the count and the write are not wrapped in a
// transaction, so two near-simultaneous task mutations on the same project
// can race and the later recompute wins. The periodic sweep bounds how long
// any drift survives.
type Recomputer struct {
	projects *projectstore.Store
	tasks    *taskstore.Store
	log      *zap.Logger
}

// New builds a Recomputer over the two stores.
func New(projects *projectstore.Store, tasks *taskstore.Store, logger *zap.Logger) *Recomputer {
	return &Recomputer{projects: projects, tasks: tasks, log: logger}
}

// Percent computes the progress value for the given counts: the rounded
// percentage of done tasks, 0 when there are no tasks at all.
func Percent(total, done int64) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(done) / float64(total) * 100))
}

// Recompute re-counts the project's tasks and writes the derived percentage
// back. The reserved general project is skipped entirely: tasks not tied to a
// real project never carry progress.
func (r *Recomputer) Recompute(ctx context.Context, projectID primitive.ObjectID) error {
	if projectID == models.GeneralProjectID || projectID.IsZero() {
		return nil
	}

	total, done, err := r.tasks.CountByProject(ctx, projectID)
	if err != nil {
		return err
	}

	pct := Percent(total, done)
	if err := r.projects.SetProgress(ctx, projectID, pct); err != nil {
		return err
	}

	r.log.Debug("project progress recomputed",
		zap.String("project_id", projectID.Hex()),
		zap.Int64("total", total),
		zap.Int64("done", done),
		zap.Int("progress", pct))
	return nil
}

// SweepResult summarizes one reconciliation pass.
type SweepResult struct {
	ProjectsVisited int
	NamesRefreshed  int64
}

// Sweep recomputes progress for every project that has tasks and refreshes
// stale denormalized project names on those tasks. It is the explicit
// reconciliation step that bounds both progress drift and name staleness.
func (r *Recomputer) Sweep(ctx context.Context) (SweepResult, error) {
	var res SweepResult

	ids, err := r.tasks.DistinctProjectIDs(ctx)
	if err != nil {
		return res, err
	}
	for _, id := range ids {
		if id == models.GeneralProjectID || id.IsZero() {
			continue
		}
		p, err := r.projects.GetByID(ctx, id)
		if err != nil {
			// Project deleted out from under its tasks; nothing to reconcile.
			continue
		}
		if err := r.Recompute(ctx, id); err != nil {
			return res, err
		}
		n, err := r.tasks.RefreshProjectName(ctx, id, p.Name)
		if err != nil {
			return res, err
		}
		res.NamesRefreshed += n
		res.ProjectsVisited++
	}
	return res, nil
}
