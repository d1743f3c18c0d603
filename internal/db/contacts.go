package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Spok95/school-notify/internal/ctxutil"
	"github.com/Spok95/school-notify/internal/models"
)

const contactCols = `id, student_id, contact_type, name, phone, whatsapp_phone,
	telegram_chat_id, is_primary, active, notify_opt_in, event_prefs, created_at, updated_at`

func scanContact(row interface{ Scan(...any) error }) (*models.ParentContact, error) {
	var c models.ParentContact
	var prefsRaw []byte
	err := row.Scan(&c.ID, &c.StudentID, &c.Type, &c.Name, &c.Phone, &c.WhatsAppPhone,
		&c.TelegramChatID, &c.Primary, &c.Active, &c.NotifyOptIn, &prefsRaw,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(prefsRaw) > 0 {
		if err := json.Unmarshal(prefsRaw, &c.EventPrefs); err != nil {
			return nil, fmt.Errorf("contact %d: event_prefs: %w", c.ID, err)
		}
	}
	return &c, nil
}

// ListActiveContacts — активные подписанные контакты ученика.
// Фильтр по событийным преференциям делает contacts.Directory.
func ListActiveContacts(ctx context.Context, database *sql.DB, studentID int64) ([]*models.ParentContact, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rows, err := database.QueryContext(ctx, `
		SELECT `+contactCols+` FROM parent_contacts
		WHERE student_id = $1 AND active AND notify_opt_in
		ORDER BY is_primary DESC, id
	`, studentID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []*models.ParentContact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func GetContact(ctx context.Context, database *sql.DB, id int64) (*models.ParentContact, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	c, err := scanContact(database.QueryRowContext(ctx,
		`SELECT `+contactCols+` FROM parent_contacts WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	return c, err
}

func SaveContact(ctx context.Context, database *sql.DB, c models.ParentContact) (int64, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	prefsRaw, err := json.Marshal(c.EventPrefs)
	if err != nil {
		return 0, err
	}
	if c.EventPrefs == nil {
		prefsRaw = []byte(`{}`)
	}
	if c.ID == 0 {
		var id int64
		err = database.QueryRowContext(ctx, `
			INSERT INTO parent_contacts
				(student_id, contact_type, name, phone, whatsapp_phone, telegram_chat_id, active, notify_opt_in, event_prefs)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id
		`, c.StudentID, string(c.Type), c.Name, c.Phone, c.WhatsAppPhone,
			c.TelegramChatID, c.Active, c.NotifyOptIn, prefsRaw).Scan(&id)
		return id, err
	}
	_, err = database.ExecContext(ctx, `
		UPDATE parent_contacts
		SET contact_type = $1, name = $2, phone = $3, whatsapp_phone = $4,
		    telegram_chat_id = $5, active = $6, notify_opt_in = $7, event_prefs = $8,
		    updated_at = now()
		WHERE id = $9
	`, string(c.Type), c.Name, c.Phone, c.WhatsAppPhone,
		c.TelegramChatID, c.Active, c.NotifyOptIn, prefsRaw, c.ID)
	return c.ID, err
}

// SetPrimaryContact — clear-then-set одной транзакцией: после коммита
// primary у ученика ровно один. Конкурентный читатель между шагами
// транзакцию не видит (READ COMMITTED).
func SetPrimaryContact(ctx context.Context, database *sql.DB, studentID, contactID int64) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	tx, err := database.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		UPDATE parent_contacts SET is_primary = FALSE, updated_at = now()
		WHERE student_id = $1 AND is_primary
	`, studentID); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `
		UPDATE parent_contacts SET is_primary = TRUE, updated_at = now()
		WHERE id = $1 AND student_id = $2
	`, contactID, studentID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n != 1 {
		return models.ErrNotFound
	}
	return tx.Commit()
}
