package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/Spok95/school-notify/internal/ctxutil"
	"github.com/Spok95/school-notify/internal/models"
)

const templateCols = `id, name, event_type, body, language, variables, active, created_at, updated_at`

func scanTemplate(row interface{ Scan(...any) error }) (*models.NotificationTemplate, error) {
	var t models.NotificationTemplate
	err := row.Scan(&t.ID, &t.Name, &t.EventType, &t.Body, &t.Language,
		pq.Array(&t.Variables), &t.Active, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetActiveTemplate — активный шаблон для (событие, язык); nil без ошибки,
// если не настроен — дефолт материализует слой выше.
func GetActiveTemplate(ctx context.Context, database *sql.DB, event models.TriggerEvent, lang string) (*models.NotificationTemplate, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	row := database.QueryRowContext(ctx, `
		SELECT `+templateCols+` FROM notification_templates
		WHERE event_type = $1 AND language = $2 AND active
		ORDER BY updated_at DESC
		LIMIT 1
	`, string(event), lang)
	t, err := scanTemplate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return t, err
}

func SaveTemplate(ctx context.Context, database *sql.DB, t models.NotificationTemplate) (int64, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	if t.ID == 0 {
		var id int64
		err := database.QueryRowContext(ctx, `
			INSERT INTO notification_templates (name, event_type, body, language, variables, active)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (event_type, language, name) DO UPDATE
			SET body = EXCLUDED.body, variables = EXCLUDED.variables,
			    active = EXCLUDED.active, updated_at = now()
			RETURNING id
		`, t.Name, string(t.EventType), t.Body, t.Language, pq.Array(t.Variables), t.Active).Scan(&id)
		return id, err
	}
	_, err := database.ExecContext(ctx, `
		UPDATE notification_templates
		SET name = $1, body = $2, variables = $3, active = $4, updated_at = now()
		WHERE id = $5
	`, t.Name, t.Body, pq.Array(t.Variables), t.Active, t.ID)
	return t.ID, err
}
