package email

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGrid — боевая отправка почты.
type SendGrid struct {
	cl   *sendgrid.Client
	from *sgmail.Email
}

func NewSendGrid(key, fromName, fromEmail string) *SendGrid {
	return &SendGrid{
		cl:   sendgrid.NewSendClient(key),
		from: sgmail.NewEmail(fromName, fromEmail),
	}
}

func (s *SendGrid) Send(ctx context.Context, to, subject, body string) error {
	msg := sgmail.NewSingleEmail(s.from, subject, sgmail.NewEmail("", to), body, "")
	resp, err := s.cl.SendWithContext(ctx, msg)
	if err != nil {
		return err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid: http %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}
