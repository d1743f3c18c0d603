package template

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Spok95/school-notify/internal/db"
	"github.com/Spok95/school-notify/internal/models"
)

type Service struct {
	db       *sql.DB
	log      *zap.Logger
	validate *validator.Validate
}

func NewService(database *sql.DB, log *zap.Logger) *Service {
	return &Service{
		db:       database,
		log:      log,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// ForEvent — активный шаблон для (событие, язык). Если не настроен —
// лениво материализуем дефолт при первом обращении.
func (s *Service) ForEvent(ctx context.Context, event models.TriggerEvent, lang string) (*models.NotificationTemplate, error) {
	t, err := db.GetActiveTemplate(ctx, s.db, event, lang)
	if err != nil {
		return nil, err
	}
	if t != nil {
		return t, nil
	}

	body, ok := DefaultBody(event, lang)
	if !ok {
		return nil, fmt.Errorf("нет дефолтного шаблона для события %q", event)
	}
	def := models.NotificationTemplate{
		Name:      "default",
		EventType: event,
		Body:      body,
		Language:  lang,
		Variables: Extract(body),
		Active:    true,
	}
	id, err := db.SaveTemplate(ctx, s.db, def)
	if err != nil {
		return nil, err
	}
	def.ID = id
	s.log.Info("материализован дефолтный шаблон",
		zap.String("event", string(event)), zap.String("lang", lang))
	return &def, nil
}

// Save — сохранение с проверкой словаря. Неизвестные плейсхолдеры —
// ValidationError пользователю, в базу такое не попадает.
func (s *Service) Save(ctx context.Context, t models.NotificationTemplate) (int64, error) {
	if err := s.validate.Struct(t); err != nil {
		return 0, &models.ValidationError{Field: "template", Reason: err.Error()}
	}
	res := Validate(t.Body, t.EventType)
	if !res.Valid {
		return 0, &models.ValidationError{Unknown: res.Unknown}
	}
	t.Variables = Extract(t.Body)
	return db.SaveTemplate(ctx, s.db, t)
}
