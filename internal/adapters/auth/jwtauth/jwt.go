package jwtauth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"zoo-management/internal/platform/sentinel"
	"zoo-management/internal/ports/auth"
)

var (
	ErrTokenExpired = sentinel.Wrap(sentinel.ErrUnauthenticated, "token has expired")
	ErrTokenInvalid = sentinel.Wrap(sentinel.ErrUnauthenticated, "invalid token")
)

type claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Service firma y verifica access tokens HS256. Implementa auth.TokenIssuer
// y auth.AuthVerifier.
type Service struct {
	key    []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func New(secret, issuer string, ttl time.Duration) (*Service, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("jwt secret is empty")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Service{
		key:    []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

func (s *Service) Issue(ctx context.Context, c auth.Claims) (auth.IssuedToken, error) {
	now := s.now()
	exp := now.Add(s.ttl)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: c.Email,
		Role:  c.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   c.UserID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	})
	signed, err := tok.SignedString(s.key)
	if err != nil {
		return auth.IssuedToken{}, err
	}
	return auth.IssuedToken{Token: signed, ExpiresAt: exp}, nil
}

func (s *Service) Verify(ctx context.Context, token string) (auth.Claims, error) {
	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.key, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.now),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return auth.Claims{}, ErrTokenExpired
		}
		return auth.Claims{}, ErrTokenInvalid
	}
	if !parsed.Valid || strings.TrimSpace(c.Subject) == "" {
		return auth.Claims{}, ErrTokenInvalid
	}
	return auth.Claims{
		UserID: c.Subject,
		Email:  c.Email,
		Role:   c.Role,
	}, nil
}
