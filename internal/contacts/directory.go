package contacts

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Spok95/school-notify/internal/db"
	"github.com/Spok95/school-notify/internal/models"
)

// Directory — справочник контактов для уведомлений.
type Directory struct {
	db       *sql.DB
	log      *zap.Logger
	validate *validator.Validate
}

func NewDirectory(database *sql.DB, log *zap.Logger) *Directory {
	return &Directory{
		db:       database,
		log:      log,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Eligible — контакты ученика, которым можно слать это событие:
// активные, подписанные, без явного запрета в преференциях.
// Пустой список — не ошибка.
func (d *Directory) Eligible(ctx context.Context, studentID int64, event models.TriggerEvent) ([]*models.ParentContact, error) {
	all, err := db.ListActiveContacts(ctx, d.db, studentID)
	if err != nil {
		return nil, err
	}
	out := make([]*models.ParentContact, 0, len(all))
	for _, c := range all {
		if c.WantsEvent(event) {
			out = append(out, c)
		}
	}
	return out, nil
}

// Save — сохранение с нормализацией номеров.
func (d *Directory) Save(ctx context.Context, c models.ParentContact) (int64, error) {
	if err := d.validate.Struct(c); err != nil {
		return 0, &models.ValidationError{Field: "contact", Reason: err.Error()}
	}
	phone, err := NormalizePhone(c.Phone)
	if err != nil {
		return 0, &models.ValidationError{Field: "phone", Reason: err.Error()}
	}
	c.Phone = phone
	if c.WhatsAppPhone != "" {
		wa, err := NormalizePhone(c.WhatsAppPhone)
		if err != nil {
			return 0, &models.ValidationError{Field: "whatsapp_phone", Reason: err.Error()}
		}
		c.WhatsAppPhone = wa
	}
	return db.SaveContact(ctx, d.db, c)
}

// SetPrimary — назначить основной контакт. После коммита у ученика
// primary ровно один; конкурентный читатель между шагами транзакцию
// не наблюдает.
func (d *Directory) SetPrimary(ctx context.Context, studentID, contactID int64) error {
	return db.SetPrimaryContact(ctx, d.db, studentID, contactID)
}

func (d *Directory) Get(ctx context.Context, id int64) (*models.ParentContact, error) {
	return db.GetContact(ctx, d.db, id)
}
