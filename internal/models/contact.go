package models

import "time"

type ContactType string

const (
	ContactFather    ContactType = "father"
	ContactMother    ContactType = "mother"
	ContactGuardian  ContactType = "guardian"
	ContactEmergency ContactType = "emergency"
)

// ParentContact — контакт для уведомлений по ученику.
// Phone хранится в каноническом международном виде (+7...).
// Primary не больше одного на ученика — закрепляется транзакцией в db.
type ParentContact struct {
	ID             int64
	StudentID      int64
	Type           ContactType `validate:"required,oneof=father mother guardian emergency"`
	Name           string      `validate:"required"`
	Phone          string      `validate:"required"`
	WhatsAppPhone  string // пусто — берём Phone
	TelegramChatID *int64 // для gateway-драйвера telegram
	Primary        bool
	Active         bool
	NotifyOptIn    bool
	// Преференции по событиям: event -> слать/не слать.
	// Событие без записи считается разрешённым.
	EventPrefs map[string]bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Destination — куда реально шлём: whatsapp-номер, если задан, иначе основной.
func (c ParentContact) Destination() string {
	if c.WhatsAppPhone != "" {
		return c.WhatsAppPhone
	}
	return c.Phone
}

// WantsEvent — true, если контакт не отключил это событие явно.
func (c ParentContact) WantsEvent(event TriggerEvent) bool {
	if c.EventPrefs == nil {
		return true
	}
	v, ok := c.EventPrefs[string(event)]
	if !ok {
		return true
	}
	return v
}
