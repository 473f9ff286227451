package auth

import "context"

// AuthVerifier verifica un token y devuelve claims o error.
type AuthVerifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}

// TokenIssuer firma access tokens para un usuario autenticado.
type TokenIssuer interface {
	Issue(ctx context.Context, claims Claims) (IssuedToken, error)
}
