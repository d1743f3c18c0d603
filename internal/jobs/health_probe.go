package jobs

import (
	"context"
	"database/sql"

	"github.com/Spok95/school-notify/internal/db"
	"github.com/Spok95/school-notify/internal/gateway"
)

// HealthProbe — периодический опрос устройства шлюза; результат в
// connection_status, рядом с отметками диспетчера.
func HealthProbe(database *sql.DB, gw gateway.Client, deviceID string) Job {
	return func(ctx context.Context) error {
		state, quota, err := gw.CheckDeviceStatus(ctx)
		lastErr := ""
		if err != nil {
			lastErr = err.Error()
		}
		return db.UpsertConnectionState(ctx, database, deviceID, state, quota, lastErr)
	}
}
