package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Spok95/school-notify/internal/ctxutil"
	"github.com/Spok95/school-notify/internal/models"
)

// UpsertConnectionState — singleton на устройство; last_connected_at
// двигается только при переходе в connected.
func UpsertConnectionState(ctx context.Context, database *sql.DB, deviceID string, state models.ConnState, quota *int, lastErr string) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	_, err := database.ExecContext(ctx, `
		INSERT INTO connection_status (device_id, state, last_connected_at, quota_remaining, last_error, updated_at)
		VALUES ($1, $2, CASE WHEN $2 = 'connected' THEN now() END, $3, $4, now())
		ON CONFLICT (device_id) DO UPDATE
		SET state = EXCLUDED.state,
		    last_connected_at = CASE WHEN EXCLUDED.state = 'connected' THEN now()
		                             ELSE connection_status.last_connected_at END,
		    quota_remaining = COALESCE(EXCLUDED.quota_remaining, connection_status.quota_remaining),
		    last_error = EXCLUDED.last_error,
		    updated_at = now()
	`, deviceID, string(state), quota, lastErr)
	return err
}

func GetConnectionStatus(ctx context.Context, database *sql.DB, deviceID string) (*models.ConnectionStatus, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var cs models.ConnectionStatus
	err := database.QueryRowContext(ctx, `
		SELECT device_id, state, last_connected_at, quota_remaining, last_error, updated_at
		FROM connection_status WHERE device_id = $1
	`, deviceID).Scan(&cs.DeviceID, &cs.State, &cs.LastConnectedAt,
		&cs.QuotaRemaining, &cs.LastError, &cs.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cs, nil
}
