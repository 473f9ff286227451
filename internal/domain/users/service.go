package users

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mssola/useragent"

	"zoo-management/internal/platform/logger"
	"zoo-management/internal/platform/metrics"
	"zoo-management/internal/platform/sentinel"
	"zoo-management/internal/ports/auth"
	"zoo-management/internal/ports/mail"
)

var (
	ErrNotFound           = sentinel.Wrap(sentinel.ErrNotFound, "user not found")
	ErrEmailTaken         = sentinel.Wrap(sentinel.ErrDuplicateKey, "user already exists with this email")
	ErrInvalidCredentials = sentinel.Wrap(sentinel.ErrUnauthenticated, "invalid email or password")
	ErrLocked             = sentinel.Wrap(sentinel.ErrForbidden, "account is temporarily locked due to too many failed login attempts")
	ErrInactive           = sentinel.Wrap(sentinel.ErrForbidden, "account is deactivated")
	ErrWrongPassword      = sentinel.Invalid("current password is incorrect")
)

var emailRe = regexp.MustCompile(`^\w+([.+-]?\w+)*@\w+([.-]?\w+)*(\.\w{2,})+$`)

const (
	MinPasswordLen = 6
	maxNameLen     = 50
)

// DefaultLockout: 5 intentos fallidos bloquean 2 horas.
var DefaultLockout = Lockout{MaxAttempts: 5, LockFor: 2 * time.Hour}

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Compare(hash, plain string) (bool, error)
}

type Service struct {
	repo    Repository
	hasher  PasswordHasher
	tokens  auth.TokenIssuer
	mailer  mail.Sender
	lockout Lockout
	now     func() time.Time
}

type Option func(*Service)

func WithMailer(m mail.Sender) Option {
	return func(s *Service) { s.mailer = m }
}

func WithLockout(l Lockout) Option {
	return func(s *Service) {
		if l.MaxAttempts > 0 && l.LockFor > 0 {
			s.lockout = l
		}
	}
}

func NewService(repo Repository, hasher PasswordHasher, tokens auth.TokenIssuer, opts ...Option) *Service {
	s := &Service{
		repo:    repo,
		hasher:  hasher,
		tokens:  tokens,
		lockout: DefaultLockout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// Register crea un usuario con rol visitor. El mail de bienvenida es
// best-effort.
func (s *Service) Register(ctx context.Context, in RegisterInput) (User, error) {
	u, err := s.create(ctx, in, RoleVisitor)
	if err != nil {
		return User{}, err
	}
	s.sendWelcome(ctx, u)
	return u, nil
}

func (s *Service) create(ctx context.Context, in RegisterInput, role Role) (User, error) {
	now := s.now()
	u := User{
		ID:        uuid.NewString(),
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Email:     normalizeEmail(in.Email),
		Role:      role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := validateNames(u.FirstName, u.LastName); err != nil {
		return User{}, err
	}
	if !emailRe.MatchString(u.Email) {
		return User{}, sentinel.Invalid("please enter a valid email")
	}
	if len(in.Password) < MinPasswordLen {
		return User{}, sentinel.Invalid(fmt.Sprintf("password must be at least %d characters", MinPasswordLen))
	}
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return User{}, err
	}
	u.PasswordHash = hash

	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, sentinel.ErrDuplicateKey) {
			return User{}, ErrEmailTaken
		}
		return User{}, err
	}
	logger.FromContext(ctx).Info("user registered", map[string]any{
		"user_id": u.ID,
		"role":    string(u.Role),
	})
	return u, nil
}

type LoginInput struct {
	Email     string
	Password  string
	IP        string
	UserAgent string
}

type Session struct {
	User      User      `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Login valida credenciales con bloqueo por intentos fallidos. Un email
// inexistente y una contraseña incorrecta devuelven el mismo error.
func (s *Service) Login(ctx context.Context, in LoginInput) (Session, error) {
	u, err := s.repo.GetByEmail(ctx, normalizeEmail(in.Email))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}

	now := s.now()
	if u.IsLocked(now) {
		return Session{}, ErrLocked
	}
	if !u.IsActive {
		return Session{}, ErrInactive
	}

	ok, err := s.hasher.Compare(u.PasswordHash, in.Password)
	if err != nil {
		return Session{}, err
	}
	if !ok {
		failed, err := s.repo.RecordLoginFailure(ctx, u.ID, now, s.lockout)
		if err != nil {
			return Session{}, err
		}
		if failed.IsLocked(now) {
			logger.FromContext(ctx).Warn("account locked", map[string]any{
				"user_id":  u.ID,
				"attempts": failed.LoginAttempts,
			})
		}
		return Session{}, ErrInvalidCredentials
	}

	u, err = s.repo.RecordLoginSuccess(ctx, u.ID, now, parseLoginMeta(in.IP, in.UserAgent))
	if err != nil {
		return Session{}, err
	}
	tok, err := s.tokens.Issue(ctx, auth.Claims{
		UserID: u.ID,
		Email:  u.Email,
		Role:   string(u.Role),
	})
	if err != nil {
		return Session{}, err
	}
	return Session{User: u, Token: tok.Token, ExpiresAt: tok.ExpiresAt}, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (User, error) {
	u, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if errors.Is(err, sentinel.ErrNotFound) {
		return User{}, ErrNotFound
	}
	return u, err
}

func (s *Service) List(ctx context.Context, f Filter) ([]User, int, error) {
	if f.Role != "" && !f.Role.Valid() {
		return nil, 0, sentinel.Invalid("invalid role")
	}
	return s.repo.List(ctx, f)
}

type ProfileInput struct {
	FirstName *string
	LastName  *string
}

func (s *Service) UpdateProfile(ctx context.Context, id string, in ProfileInput) (User, error) {
	u, err := s.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	if in.FirstName != nil {
		u.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		u.LastName = strings.TrimSpace(*in.LastName)
	}
	if err := validateNames(u.FirstName, u.LastName); err != nil {
		return User{}, err
	}
	return s.save(ctx, u)
}

func (s *Service) ChangePassword(ctx context.Context, id, current, next string) error {
	u, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	ok, err := s.hasher.Compare(u.PasswordHash, current)
	if err != nil {
		return err
	}
	if !ok {
		return ErrWrongPassword
	}
	if len(next) < MinPasswordLen {
		return sentinel.Invalid(fmt.Sprintf("password must be at least %d characters", MinPasswordLen))
	}
	hash, err := s.hasher.Hash(next)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	if _, err := s.save(ctx, u); err != nil {
		return err
	}
	logger.FromContext(ctx).Info("password changed", map[string]any{"user_id": u.ID})
	return nil
}

func (s *Service) SetRole(ctx context.Context, id string, role Role) (User, error) {
	if !role.Valid() {
		return User{}, sentinel.Invalid("invalid role")
	}
	u, err := s.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	u.Role = role
	return s.save(ctx, u)
}

func (s *Service) SetActive(ctx context.Context, id string, active bool) (User, error) {
	u, err := s.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	u.IsActive = active
	return s.save(ctx, u)
}

// EnsureAdmin crea el administrador inicial si el email no existe. Si ya
// existe no lo modifica.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) (User, error) {
	u, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return User{}, err
	}
	return s.create(ctx, RegisterInput{
		FirstName: "Zoo",
		LastName:  "Admin",
		Email:     email,
		Password:  password,
	}, RoleAdmin)
}

func (s *Service) save(ctx context.Context, u User) (User, error) {
	u.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, u); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}

func (s *Service) sendWelcome(ctx context.Context, u User) {
	if s.mailer == nil {
		return
	}
	msg := mail.Message{
		To:      u.Email,
		Subject: "Bienvenido al zoológico",
		Body: fmt.Sprintf("Hola %s,\n\nTu cuenta fue creada con el email %s.\n",
			u.FirstName, u.Email),
		Tag: "welcome",
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		metrics.NotificationFailed("mail")
		logger.FromContext(ctx).Warn("welcome mail failed", map[string]any{
			"user_id": u.ID,
			"error":   err.Error(),
		})
	}
}

func parseLoginMeta(ip, rawUA string) LoginMeta {
	meta := LoginMeta{IP: ip}
	if strings.TrimSpace(rawUA) == "" {
		return meta
	}
	ua := useragent.New(rawUA)
	meta.Browser, meta.BrowserVersion = ua.Browser()
	meta.OS = ua.OS()
	meta.Mobile = ua.Mobile()
	return meta
}

func validateNames(first, last string) error {
	if first == "" || last == "" {
		return sentinel.Invalid("first_name and last_name are required")
	}
	if len(first) > maxNameLen || len(last) > maxNameLen {
		return sentinel.Invalid("names cannot exceed 50 characters")
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
