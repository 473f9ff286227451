package users

import (
	"context"
	"time"
)

type Filter struct {
	Role     Role
	IsActive *bool
	Query    string // nombre o email

	Offset int
	Limit  int
}

// Lockout: maxAttempts fallos seguidos bloquean la cuenta durante lockFor.
type Lockout struct {
	MaxAttempts int
	LockFor     time.Duration
}

// Repository: email es único (ErrDuplicateKey). Los listados van por
// created_at descendente.
type Repository interface {
	Create(ctx context.Context, u User) error
	GetByID(ctx context.Context, id string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	List(ctx context.Context, f Filter) ([]User, int, error)
	Update(ctx context.Context, u User) error
	// RecordLoginFailure incrementa login_attempts de forma atómica. Si un
	// bloqueo anterior ya venció, el conteo reinicia en 1; al llegar a
	// MaxAttempts fija lock_until = at + LockFor.
	RecordLoginFailure(ctx context.Context, id string, at time.Time, policy Lockout) (User, error)
	// RecordLoginSuccess limpia intentos y bloqueo y guarda last_login.
	RecordLoginSuccess(ctx context.Context, id string, at time.Time, meta LoginMeta) (User, error)
}
