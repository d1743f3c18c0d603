package jobs

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/Spok95/school-notify/internal/db"
)

// RetentionSweep — единственный путь удаления записей журнала доставки.
func RetentionSweep(database *sql.DB, log *zap.Logger, keep time.Duration) Job {
	return func(ctx context.Context) error {
		n, err := db.DeleteLogsOlderThan(ctx, database, keep)
		if err != nil {
			return err
		}
		if n > 0 {
			log.Info("ретеншн журнала доставки", zap.Int64("deleted", n))
		}
		return nil
	}
}
