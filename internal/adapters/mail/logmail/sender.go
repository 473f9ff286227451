package logmail

import (
	"context"

	"zoo-management/internal/platform/logger"
	"zoo-management/internal/ports/mail"
)

// Sender solo registra el correo; se usa cuando MAIL_BASE_URL no está
// configurado.
type Sender struct{}

func (Sender) Send(ctx context.Context, msg mail.Message) error {
	logger.FromContext(ctx).Info("mail not sent (log mailer)", map[string]any{
		"to":      msg.To,
		"subject": msg.Subject,
		"tag":     msg.Tag,
	})
	return nil
}
