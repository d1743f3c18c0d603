package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/Spok95/school-notify/internal/ctxutil"
	"github.com/Spok95/school-notify/internal/models"
)

func scanWorkflow(row interface{ Scan(...any) error }) (*models.Workflow, error) {
	var w models.Workflow
	var condRaw, actRaw []byte
	err := row.Scan(&w.ID, &w.Name, &w.Type, &w.Trigger, &condRaw, &actRaw,
		&w.Active, &w.Priority, &w.Schedule, &w.LastExecuted, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	// условия и действия декодируем сразу: движок работает с типизированным
	// представлением, а не с сырым JSON
	if len(condRaw) > 0 {
		if err := json.Unmarshal(condRaw, &w.Conditions); err != nil {
			return nil, fmt.Errorf("workflow %d: conditions: %w", w.ID, err)
		}
	}
	w.Actions, err = models.DecodeActions(actRaw)
	if err != nil {
		return nil, fmt.Errorf("workflow %d: %w", w.ID, err)
	}
	return &w, nil
}

const workflowCols = `id, name, type, trigger_event, conditions, actions,
	active, priority, schedule, last_executed_at, created_at, updated_at`

// ListActiveByTrigger — активные воркфлоу по триггеру, по возрастанию
// priority (меньше — раньше).
func ListActiveByTrigger(ctx context.Context, database *sql.DB, trigger models.TriggerEvent) ([]*models.Workflow, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rows, err := database.QueryContext(ctx,
		`SELECT `+workflowCols+` FROM workflows
		 WHERE active AND trigger_event = $1
		 ORDER BY priority, id`, string(trigger))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []*models.Workflow
	for rows.Next() {
		w, err := scanWorkflow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// ListScheduled — активные воркфлоу с cron-расписанием.
func ListScheduled(ctx context.Context, database *sql.DB) ([]*models.Workflow, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rows, err := database.QueryContext(ctx,
		`SELECT `+workflowCols+` FROM workflows
		 WHERE active AND trigger_event = 'scheduled' AND schedule <> ''
		 ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []*models.Workflow
	for rows.Next() {
		w, err := scanWorkflow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func GetWorkflow(ctx context.Context, database *sql.DB, id int64) (*models.Workflow, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	w, err := scanWorkflow(database.QueryRowContext(ctx,
		`SELECT `+workflowCols+` FROM workflows WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	return w, err
}

func SaveWorkflow(ctx context.Context, database *sql.DB, w models.Workflow) (int64, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	condRaw, err := json.Marshal(w.Conditions)
	if err != nil {
		return 0, err
	}
	actRaw, err := json.Marshal(w.Actions)
	if err != nil {
		return 0, err
	}
	if w.ID == 0 {
		var id int64
		err = database.QueryRowContext(ctx, `
			INSERT INTO workflows (name, type, trigger_event, conditions, actions, active, priority, schedule)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id
		`, w.Name, w.Type, string(w.Trigger), condRaw, actRaw, w.Active, w.Priority, w.Schedule).Scan(&id)
		return id, err
	}
	_, err = database.ExecContext(ctx, `
		UPDATE workflows
		SET name = $1, type = $2, trigger_event = $3, conditions = $4, actions = $5,
		    active = $6, priority = $7, schedule = $8, updated_at = now()
		WHERE id = $9
	`, w.Name, w.Type, string(w.Trigger), condRaw, actRaw, w.Active, w.Priority, w.Schedule, w.ID)
	return w.ID, err
}

// TouchWorkflowExecuted — фиксируем запуск независимо от исхода.
func TouchWorkflowExecuted(ctx context.Context, database *sql.DB, id int64) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	_, err := database.ExecContext(ctx,
		`UPDATE workflows SET last_executed_at = now(), updated_at = now() WHERE id = $1`, id)
	return err
}
