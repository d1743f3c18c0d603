package models

import "time"

type LogStatus string

const (
	LogPending   LogStatus = "pending"
	LogSent      LogStatus = "sent"
	LogDelivered LogStatus = "delivered"
	LogRead      LogStatus = "read"
	LogFailed    LogStatus = "failed"
)

// NotificationLog — системный журнал доставки, одна строка на попытку
// по контакту. Append-mostly: обновляется только статус и ретраи,
// удаляется лишь ретеншн-свипом.
type NotificationLog struct {
	ID               int64
	SessionID        int64
	StudentID        int64
	ContactID        int64
	ContactName      string
	Phone            string
	EventType        TriggerEvent
	Message          string
	Variables        map[string]string // исходные переменные для повторной отправки
	Status           LogStatus
	RetryCount       int
	GatewayMessageID string
	GatewayResponse  string
	FailedReason     string
	SentAt           *time.Time
	DeliveredAt      *time.Time
	ReadAt           *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type ConnState string

const (
	ConnConnected    ConnState = "connected"
	ConnDisconnected ConnState = "disconnected"
	ConnConnecting   ConnState = "connecting"
	ConnError        ConnState = "error"
)

// ConnectionStatus — singleton на устройство: последнее известное
// состояние шлюза. Обновляют и диспетчер, и health-проба.
type ConnectionStatus struct {
	DeviceID        string
	State           ConnState
	LastConnectedAt *time.Time
	QuotaRemaining  *int
	LastError       string
	UpdatedAt       time.Time
}
