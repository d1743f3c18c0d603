package db

import (
	"context"
	"database/sql"

	"github.com/Spok95/school-notify/internal/ctxutil"
)

type RosterStudent struct {
	ID   int64
	Name string
}

// ListClassStudents — активный состав класса: по нему диспетчер
// раздаёт событие сессии.
func ListClassStudents(ctx context.Context, database *sql.DB, classID int64) ([]RosterStudent, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rows, err := database.QueryContext(ctx, `
		SELECT student_id, student_name FROM class_students
		WHERE class_id = $1 AND active
		ORDER BY student_name
	`, classID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []RosterStudent
	for rows.Next() {
		var s RosterStudent
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
