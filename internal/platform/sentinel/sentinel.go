package sentinel

import "errors"

// Errores compartidos entre capas. Stores y services los devuelven (envueltos
// con %w cuando aporta contexto) y respond los traduce a status HTTP.
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrCapacityExceeded = errors.New("capacity exceeded")
	ErrDuplicateKey     = errors.New("duplicate key")
	ErrAlreadyUsed      = errors.New("already used")
	ErrAlreadyFinalized = errors.New("already finalized")
	ErrNotValidToday    = errors.New("not valid today")
	ErrConflict         = errors.New("conflict")
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrForbidden        = errors.New("forbidden")
)

// Invalid envuelve ErrInvalidInput con un mensaje legible para el cliente.
func Invalid(msg string) error {
	return &Error{kind: ErrInvalidInput, msg: msg}
}

// Wrap asocia un mensaje de cliente a cualquier sentinel.
func Wrap(kind error, msg string) error {
	return &Error{kind: kind, msg: msg}
}

// Error lleva el sentinel (para errors.Is) y el mensaje que ve el cliente.
type Error struct {
	kind error
	msg  string
}

func (e *Error) Error() string {
	if e.msg == "" {
		return e.kind.Error()
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.kind }
