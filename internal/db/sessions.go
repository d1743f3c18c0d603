package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/Spok95/school-notify/internal/ctxutil"
	"github.com/Spok95/school-notify/internal/models"
)

const sessionCols = `id, class_id, class_name, subject, teacher_name,
	planned_start_at, planned_end_at, break_duration_min, status,
	actual_start_at, actual_break_at, actual_resume_at, actual_end_at,
	students_total, students_present, notifications_sent,
	created_at, updated_at, deleted_at`

func scanSession(row interface{ Scan(...any) error }) (*models.ClassSession, error) {
	var s models.ClassSession
	var breakMin int
	err := row.Scan(&s.ID, &s.ClassID, &s.ClassName, &s.Subject, &s.TeacherName,
		&s.PlannedStartAt, &s.PlannedEndAt, &breakMin, &s.Status,
		&s.ActualStartAt, &s.ActualBreakAt, &s.ActualResumeAt, &s.ActualEndAt,
		&s.StudentsTotal, &s.StudentsPresent, &s.NotificationsSent,
		&s.CreatedAt, &s.UpdatedAt, &s.DeletedAt)
	if err != nil {
		return nil, err
	}
	s.BreakDuration = time.Duration(breakMin) * time.Minute
	return &s, nil
}

func CreateSession(ctx context.Context, database *sql.DB, s models.ClassSession) (int64, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var id int64
	err := database.QueryRowContext(ctx, `
		INSERT INTO class_sessions
			(class_id, class_name, subject, teacher_name, planned_start_at, planned_end_at, break_duration_min, students_total)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, s.ClassID, s.ClassName, s.Subject, s.TeacherName,
		s.PlannedStartAt, s.PlannedEndAt, int(s.BreakDuration.Minutes()), s.StudentsTotal).Scan(&id)
	return id, err
}

func GetSession(ctx context.Context, database *sql.DB, id int64) (*models.ClassSession, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	row := database.QueryRowContext(ctx,
		`SELECT `+sessionCols+` FROM class_sessions WHERE id = $1 AND deleted_at IS NULL`, id)
	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	return s, err
}

// колонки actual_*-меток, которые разрешено трогать при переходе
var transitionTimestamps = map[string]bool{
	"actual_start_at":  true,
	"actual_break_at":  true,
	"actual_resume_at": true,
	"actual_end_at":    true,
}

// TransitionSession — атомарный guarded-переход: статус и метка времени
// меняются одним UPDATE, текущий статус проверяется в WHERE. Два
// конкурентных finish по одной сессии не пройдут оба: второй получит 0 строк.
func TransitionSession(ctx context.Context, database *sql.DB, id int64, from []models.SessionStatus, to models.SessionStatus, tsColumn string) (bool, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	set := "status = $1, updated_at = now()"
	if tsColumn != "" {
		if !transitionTimestamps[tsColumn] {
			return false, fmt.Errorf("недопустимая колонка перехода %q", tsColumn)
		}
		set += ", " + tsColumn + " = now()"
	}
	states := make([]string, 0, len(from))
	for _, st := range from {
		states = append(states, string(st))
	}
	res, err := database.ExecContext(ctx, `
		UPDATE class_sessions SET `+set+`
		WHERE id = $2 AND deleted_at IS NULL AND status = ANY($3)
	`, string(to), id, pq.Array(states))
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

// служебные поля, которые воркфлоу может патчить мимо state machine
var patchableSessionFields = map[string]bool{
	"class_name":       true,
	"subject":          true,
	"teacher_name":     true,
	"students_total":   true,
	"students_present": true,
}

// PatchSessionFields — точечный патч служебных полей. Статус не трогаем.
func PatchSessionFields(ctx context.Context, database *sql.DB, id int64, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	set := make([]string, 0, len(fields)+1)
	args := []any{id}
	idx := 2
	for k, v := range fields {
		if !patchableSessionFields[k] {
			return fmt.Errorf("поле %q патчить нельзя", k)
		}
		set = append(set, fmt.Sprintf("%s = $%d", k, idx))
		args = append(args, v)
		idx++
	}
	set = append(set, "updated_at = now()")
	_, err := database.ExecContext(ctx,
		`UPDATE class_sessions SET `+strings.Join(set, ", ")+` WHERE id = $1 AND deleted_at IS NULL`,
		args...)
	return err
}

// IncrementNotificationsSent — счётчик уведомлений на сессии.
// Единственное поле сессии, которое диспетчер меняет напрямую.
func IncrementNotificationsSent(ctx context.Context, database *sql.DB, id int64, n int) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	_, err := database.ExecContext(ctx, `
		UPDATE class_sessions
		SET notifications_sent = notifications_sent + $1, updated_at = now()
		WHERE id = $2
	`, n, id)
	return err
}

// ListUpcomingScheduled — ещё не начавшиеся занятия в окне from..from+within
// (для scheduled-напоминаний).
func ListUpcomingScheduled(ctx context.Context, database *sql.DB, within time.Duration) ([]*models.ClassSession, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rows, err := database.QueryContext(ctx, `
		SELECT `+sessionCols+` FROM class_sessions
		WHERE deleted_at IS NULL AND status = 'scheduled'
		  AND planned_start_at BETWEEN now() AND now() + $1::interval
		ORDER BY planned_start_at
	`, fmt.Sprintf("%d seconds", int(within.Seconds())))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []*models.ClassSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// SoftDeleteScheduled — удаление разрешено только до старта.
func SoftDeleteScheduled(ctx context.Context, database *sql.DB, id int64) (bool, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	res, err := database.ExecContext(ctx, `
		UPDATE class_sessions SET deleted_at = now(), updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL AND status = 'scheduled'
	`, id)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

// UpdateScheduled — правка параметров занятия; легальна только в scheduled.
func UpdateScheduled(ctx context.Context, database *sql.DB, s models.ClassSession) (bool, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	res, err := database.ExecContext(ctx, `
		UPDATE class_sessions
		SET subject = $1, teacher_name = $2, planned_start_at = $3, planned_end_at = $4,
		    break_duration_min = $5, updated_at = now()
		WHERE id = $6 AND deleted_at IS NULL AND status = 'scheduled'
	`, s.Subject, s.TeacherName, s.PlannedStartAt, s.PlannedEndAt,
		int(s.BreakDuration.Minutes()), s.ID)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}
