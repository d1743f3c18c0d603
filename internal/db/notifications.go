package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Spok95/school-notify/internal/ctxutil"
	"github.com/Spok95/school-notify/internal/models"
)

const logCols = `id, session_id, student_id, contact_id, contact_name, phone,
	event_type, message, variables, status, retry_count,
	gateway_message_id, gateway_response, failed_reason,
	sent_at, delivered_at, read_at, created_at, updated_at`

func scanLog(row interface{ Scan(...any) error }) (*models.NotificationLog, error) {
	var l models.NotificationLog
	var varsRaw []byte
	err := row.Scan(&l.ID, &l.SessionID, &l.StudentID, &l.ContactID, &l.ContactName, &l.Phone,
		&l.EventType, &l.Message, &varsRaw, &l.Status, &l.RetryCount,
		&l.GatewayMessageID, &l.GatewayResponse, &l.FailedReason,
		&l.SentAt, &l.DeliveredAt, &l.ReadAt, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(varsRaw) > 0 {
		if err := json.Unmarshal(varsRaw, &l.Variables); err != nil {
			return nil, fmt.Errorf("log %d: variables: %w", l.ID, err)
		}
	}
	return &l, nil
}

func InsertLog(ctx context.Context, database *sql.DB, l models.NotificationLog) (int64, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	varsRaw, err := json.Marshal(l.Variables)
	if err != nil {
		return 0, err
	}
	if l.Variables == nil {
		varsRaw = []byte(`{}`)
	}
	var id int64
	err = database.QueryRowContext(ctx, `
		INSERT INTO notification_logs
			(session_id, student_id, contact_id, contact_name, phone, event_type, message, variables, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'pending')
		RETURNING id
	`, l.SessionID, l.StudentID, l.ContactID, l.ContactName, l.Phone,
		string(l.EventType), l.Message, varsRaw).Scan(&id)
	return id, err
}

func GetLog(ctx context.Context, database *sql.DB, id int64) (*models.NotificationLog, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	l, err := scanLog(database.QueryRowContext(ctx,
		`SELECT `+logCols+` FROM notification_logs WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	return l, err
}

func GetLogByGatewayMessageID(ctx context.Context, database *sql.DB, msgID string) (*models.NotificationLog, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	l, err := scanLog(database.QueryRowContext(ctx, `
		SELECT `+logCols+` FROM notification_logs
		WHERE gateway_message_id = $1
		ORDER BY id DESC LIMIT 1
	`, msgID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	return l, err
}

// SentLogFor — строка с успешной отправкой по тройке (сессия, ученик,
// событие); nil — дубликатов нет, слать можно.
func SentLogFor(ctx context.Context, database *sql.DB, sessionID, studentID int64, event models.TriggerEvent) (*models.NotificationLog, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	l, err := scanLog(database.QueryRowContext(ctx, `
		SELECT `+logCols+` FROM notification_logs
		WHERE session_id = $1 AND student_id = $2 AND event_type = $3
		  AND status IN ('sent', 'delivered', 'read')
		ORDER BY id DESC LIMIT 1
	`, sessionID, studentID, string(event)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return l, err
}

// MarkLogSent — pending/failed → sent после подтверждения шлюза.
func MarkLogSent(ctx context.Context, database *sql.DB, id int64, gatewayMsgID, rawResponse string) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	_, err := database.ExecContext(ctx, `
		UPDATE notification_logs
		SET status = 'sent', gateway_message_id = $1, gateway_response = $2,
		    failed_reason = '', sent_at = now(), updated_at = now()
		WHERE id = $3
	`, gatewayMsgID, rawResponse, id)
	return err
}

// MarkLogFailed — транспортный сбой: причина в строку, не в panic.
func MarkLogFailed(ctx context.Context, database *sql.DB, id int64, reason, rawResponse string) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	_, err := database.ExecContext(ctx, `
		UPDATE notification_logs
		SET status = 'failed', failed_reason = $1, gateway_response = $2, updated_at = now()
		WHERE id = $3
	`, reason, rawResponse, id)
	return err
}

// IncrementLogRetry — retry_count растёт монотонно и только здесь.
func IncrementLogRetry(ctx context.Context, database *sql.DB, id int64) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	_, err := database.ExecContext(ctx, `
		UPDATE notification_logs SET retry_count = retry_count + 1, updated_at = now()
		WHERE id = $1
	`, id)
	return err
}

// ApplyDeliveryStatus — идемпотентное применение статусного колбэка.
// Гвард в WHERE: повтор и отставший (менее приоритетный) статус — no-op.
func ApplyDeliveryStatus(ctx context.Context, database *sql.DB, gatewayMsgID string, next models.LogStatus, reason string) (bool, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var res sql.Result
	var err error
	switch next {
	case models.LogDelivered:
		res, err = database.ExecContext(ctx, `
			UPDATE notification_logs
			SET status = 'delivered', delivered_at = now(), updated_at = now()
			WHERE gateway_message_id = $1 AND status = 'sent'
		`, gatewayMsgID)
	case models.LogRead:
		// колбэк read мог обогнать delivered — принимаем и из sent
		res, err = database.ExecContext(ctx, `
			UPDATE notification_logs
			SET status = 'read', read_at = now(),
			    delivered_at = COALESCE(delivered_at, now()), updated_at = now()
			WHERE gateway_message_id = $1 AND status IN ('sent', 'delivered')
		`, gatewayMsgID)
	case models.LogFailed:
		// после delivered/read сбойный колбэк считается отставшим
		res, err = database.ExecContext(ctx, `
			UPDATE notification_logs
			SET status = 'failed', failed_reason = $2, updated_at = now()
			WHERE gateway_message_id = $1 AND status IN ('pending', 'sent')
		`, gatewayMsgID, reason)
	default:
		return false, fmt.Errorf("статус %q не применяется через вебхук", next)
	}
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

// DueForRetry — сбойные строки под порогом ретраев, пачкой.
func DueForRetry(ctx context.Context, database *sql.DB, maxRetries, batch int) ([]*models.NotificationLog, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rows, err := database.QueryContext(ctx, `
		SELECT `+logCols+` FROM notification_logs
		WHERE status = 'failed' AND retry_count < $1
		ORDER BY updated_at
		LIMIT $2
	`, maxRetries, batch)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []*models.NotificationLog
	for rows.Next() {
		l, err := scanLog(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// DeleteLogsOlderThan — ретеншн-свип. Единственный путь удаления логов.
func DeleteLogsOlderThan(ctx context.Context, database *sql.DB, age time.Duration) (int64, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	res, err := database.ExecContext(ctx,
		`DELETE FROM notification_logs WHERE created_at < now() - $1::interval`,
		fmt.Sprintf("%d seconds", int(age.Seconds())))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListLogsBetween — выборка для экспорта журнала доставки.
func ListLogsBetween(ctx context.Context, database *sql.DB, from, to time.Time) ([]*models.NotificationLog, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rows, err := database.QueryContext(ctx, `
		SELECT `+logCols+` FROM notification_logs
		WHERE created_at >= $1 AND created_at < $2
		ORDER BY created_at
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []*models.NotificationLog
	for rows.Next() {
		l, err := scanLog(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
