package jobs

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/Spok95/school-notify/internal/db"
	"github.com/Spok95/school-notify/internal/dispatch"
	"github.com/Spok95/school-notify/internal/observability"
)

// RetrySweep — периодический перезапуск сбойных отправок. Ретраи
// ограничены maxRetries; строка за порогом больше не трогается.
func RetrySweep(database *sql.DB, d *dispatch.Dispatcher, log *zap.Logger, maxRetries, batch int) Job {
	return func(ctx context.Context) error {
		due, err := db.DueForRetry(ctx, database, maxRetries, batch)
		if err != nil {
			return err
		}
		for _, l := range due {
			item, err := d.Resend(ctx, l.ID)
			if err != nil {
				observability.CaptureErr(err)
				continue
			}
			log.Debug("ретрай отправки",
				zap.Int64("log_id", l.ID),
				zap.Int("retry", l.RetryCount+1),
				zap.String("outcome", string(item.Status)))
		}
		return nil
	}
}
