package models

import "time"

// NotificationTemplate — тело с плейсхолдерами вида {name}.
// Синтаксис {name} зафиксирован: смена ломает все сохранённые шаблоны.
type NotificationTemplate struct {
	ID        int64
	Name      string       `validate:"required,min=3"`
	EventType TriggerEvent `validate:"required"`
	Body      string       `validate:"required"`
	Language  string       `validate:"required,bcp47_language_tag"`
	Variables []string // фактически используемые плейсхолдеры, выводятся при сохранении
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
