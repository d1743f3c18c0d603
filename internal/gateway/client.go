package gateway

import (
	"context"

	"github.com/Spok95/school-notify/internal/models"
)

// SendResult — подтверждение шлюза: его message id нужен для сверки
// статусных колбэков.
type SendResult struct {
	MessageID   string
	RawResponse string
	Quota       *int // остаток квоты отправок, если провайдер его сообщает
}

type DeviceInfo struct {
	DeviceID string
	Name     string
	Phone    string
}

// Client — единственная точка контакта с внешним провайдером сообщений.
type Client interface {
	// Send шлёт body на адрес destination; ошибка — транспортный сбой,
	// интерпретирует её диспетчер, наружу она не уходит.
	Send(ctx context.Context, destination, body string) (*SendResult, error)
	TestConnection(ctx context.Context) (*DeviceInfo, error)

	// CheckDeviceStatus — состояние устройства и остаток квоты;
	// nil-квота значит «провайдер не сообщил», прежнее значение не трогаем.
	CheckDeviceStatus(ctx context.Context) (models.ConnState, *int, error)

	// Address — адрес контакта для этого транспорта; false — контакт
	// этим транспортом недостижим.
	Address(c *models.ParentContact) (string, bool)
}
