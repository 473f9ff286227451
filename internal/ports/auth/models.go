package auth

import "time"

// Claims representa la información extraída del token.
type Claims struct {
	UserID string
	Email  string
	Role   string
}

// IssuedToken es un access token firmado con su vencimiento.
type IssuedToken struct {
	Token     string
	ExpiresAt time.Time
}
