package email

import (
	"context"

	"go.uber.org/zap"
)

// Sender — внешний коллаборатор для действия send_email.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Console — заглушка для dev-окружения: письмо уходит в лог.
type Console struct {
	log *zap.Logger
}

func NewConsole(log *zap.Logger) *Console { return &Console{log: log} }

func (c *Console) Send(ctx context.Context, to, subject, body string) error {
	c.log.Info("email (console)",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("body", body))
	return nil
}
