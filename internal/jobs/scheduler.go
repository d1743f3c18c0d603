package jobs

import (
	"context"
	"database/sql"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/Spok95/school-notify/internal/db"
	"github.com/Spok95/school-notify/internal/workflow"
)

// StartScheduler — cron для воркфлоу с trigger_event = scheduled.
// Расписания читаются один раз на старте; смена расписания — рестарт
// процесса.
func StartScheduler(ctx context.Context, database *sql.DB, engine *workflow.Engine, log *zap.Logger) (*cron.Cron, error) {
	wfs, err := db.ListScheduled(ctx, database)
	if err != nil {
		return nil, err
	}

	c := cron.New()
	for _, wf := range wfs {
		wf := wf
		if _, err := c.AddFunc(wf.Schedule, func() {
			engine.RunScheduled(ctx, wf.ID)
		}); err != nil {
			log.Warn("кривое cron-выражение",
				zap.Int64("workflow_id", wf.ID),
				zap.String("schedule", wf.Schedule),
				zap.Error(err))
		}
	}
	c.Start()

	go func() {
		<-ctx.Done()
		c.Stop()
	}()
	return c, nil
}
