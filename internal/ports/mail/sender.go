package mail

import "context"

//go:generate mockgen -source=sender.go -destination=mocks/sender_mock.go -package=mocks Sender

// Message es un correo de texto plano.
type Message struct {
	To      string
	Subject string
	Body    string
	// Tag identifica la plantilla (ticket_confirmation, welcome, ...).
	Tag string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}
