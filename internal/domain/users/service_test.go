package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"zoo-management/internal/platform/sentinel"
	"zoo-management/internal/ports/auth"
	"zoo-management/internal/ports/mail"
	"zoo-management/internal/ports/mail/mocks"
)

// -------------------------
// Test doubles
// -------------------------

type testRepo struct {
	byID map[string]User
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]User{}}
}

func (r *testRepo) Create(ctx context.Context, u User) error {
	for _, other := range r.byID {
		if other.Email == u.Email {
			return sentinel.ErrDuplicateKey
		}
	}
	r.byID[u.ID] = u
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (User, error) {
	u, ok := r.byID[id]
	if !ok {
		return User{}, sentinel.ErrNotFound
	}
	return u, nil
}

func (r *testRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	for _, u := range r.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return User{}, sentinel.ErrNotFound
}

func (r *testRepo) List(ctx context.Context, f Filter) ([]User, int, error) {
	out := make([]User, 0, len(r.byID))
	for _, u := range r.byID {
		if f.Role == "" || u.Role == f.Role {
			out = append(out, u)
		}
	}
	return out, len(out), nil
}

func (r *testRepo) Update(ctx context.Context, u User) error {
	cur, ok := r.byID[u.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	u.LoginAttempts, u.LockUntil, u.LastLogin = cur.LoginAttempts, cur.LockUntil, cur.LastLogin
	r.byID[u.ID] = u
	return nil
}

func (r *testRepo) RecordLoginFailure(ctx context.Context, id string, at time.Time, p Lockout) (User, error) {
	u := r.byID[id]
	if u.LockUntil != nil && !u.LockUntil.After(at) {
		u.LoginAttempts, u.LockUntil = 0, nil
	}
	u.LoginAttempts++
	if u.LoginAttempts >= p.MaxAttempts && u.LockUntil == nil {
		until := at.Add(p.LockFor)
		u.LockUntil = &until
	}
	r.byID[id] = u
	return u, nil
}

func (r *testRepo) RecordLoginSuccess(ctx context.Context, id string, at time.Time, meta LoginMeta) (User, error) {
	u := r.byID[id]
	u.LoginAttempts, u.LockUntil, u.LastLogin, u.LastLoginMeta = 0, nil, &at, &meta
	r.byID[id] = u
	return u, nil
}

type plainHasher struct{}

func (plainHasher) Hash(p string) (string, error) { return "h:" + p, nil }

func (plainHasher) Compare(hash, p string) (bool, error) { return hash == "h:"+p, nil }

type testIssuer struct {
	last auth.Claims
}

func (i *testIssuer) Issue(ctx context.Context, c auth.Claims) (auth.IssuedToken, error) {
	i.last = c
	return auth.IssuedToken{Token: "tok-" + c.UserID, ExpiresAt: time.Unix(0, 0)}, nil
}

const firefoxUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:120.0) Gecko/20100101 Firefox/120.0"

func newTestService(t *testing.T, opts ...Option) (*Service, *testRepo, *testIssuer) {
	t.Helper()
	repo := newTestRepo()
	issuer := &testIssuer{}
	return NewService(repo, plainHasher{}, issuer, opts...), repo, issuer
}

func register(t *testing.T, svc *Service, email string) User {
	t.Helper()
	u, err := svc.Register(context.Background(), RegisterInput{
		FirstName: "Ana",
		LastName:  "Pérez",
		Email:     email,
		Password:  "secret1",
	})
	require.NoError(t, err)
	return u
}

// -------------------------
// Tests
// -------------------------

func TestRegister_SendsWelcomeAndDefaultsToVisitor(t *testing.T) {
	ctrl := gomock.NewController(t)
	mailer := mocks.NewMockSender(ctrl)
	mailer.EXPECT().
		Send(gomock.Any(), gomock.Cond(func(x any) bool { m, ok := x.(mail.Message); return ok && m.To == "ana@zoo.org" && m.Tag == "welcome" })).
		Return(nil)

	svc, repo, _ := newTestService(t, WithMailer(mailer))
	u := register(t, svc, " Ana@Zoo.org ")

	assert.Equal(t, "ana@zoo.org", u.Email)
	assert.Equal(t, RoleVisitor, u.Role)
	assert.True(t, u.IsActive)
	assert.Equal(t, "h:secret1", repo.byID[u.ID].PasswordHash)
}

func TestRegister_MailFailureIsSwallowed(t *testing.T) {
	ctrl := gomock.NewController(t)
	mailer := mocks.NewMockSender(ctrl)
	mailer.EXPECT().Send(gomock.Any(), gomock.Any()).Return(errors.New("down"))

	svc, _, _ := newTestService(t, WithMailer(mailer))
	register(t, svc, "ana@zoo.org")
}

func TestRegister_Validation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	register(t, svc, "ana@zoo.org")

	_, err := svc.Register(ctx, RegisterInput{FirstName: "A", LastName: "B", Email: "ANA@zoo.org", Password: "secret1"})
	assert.ErrorIs(t, err, sentinel.ErrDuplicateKey)

	_, err = svc.Register(ctx, RegisterInput{FirstName: "A", LastName: "B", Email: "b@zoo.org", Password: "12345"})
	assert.ErrorIs(t, err, sentinel.ErrInvalidInput)

	_, err = svc.Register(ctx, RegisterInput{FirstName: "A", LastName: "B", Email: "nope", Password: "secret1"})
	assert.ErrorIs(t, err, sentinel.ErrInvalidInput)

	_, err = svc.Register(ctx, RegisterInput{FirstName: "", LastName: "B", Email: "c@zoo.org", Password: "secret1"})
	assert.ErrorIs(t, err, sentinel.ErrInvalidInput)
}

func TestLogin_IssuesTokenAndRecordsMeta(t *testing.T) {
	svc, _, issuer := newTestService(t)
	u := register(t, svc, "ana@zoo.org")

	sess, err := svc.Login(context.Background(), LoginInput{
		Email:     "ANA@zoo.org",
		Password:  "secret1",
		IP:        "10.0.0.7",
		UserAgent: firefoxUA,
	})
	require.NoError(t, err)

	assert.Equal(t, "tok-"+u.ID, sess.Token)
	assert.Equal(t, auth.Claims{UserID: u.ID, Email: "ana@zoo.org", Role: "visitor"}, issuer.last)
	require.NotNil(t, sess.User.LastLogin)
	require.NotNil(t, sess.User.LastLoginMeta)
	assert.Equal(t, "10.0.0.7", sess.User.LastLoginMeta.IP)
	assert.Equal(t, "Firefox", sess.User.LastLoginMeta.Browser)
	assert.Equal(t, "Windows 10", sess.User.LastLoginMeta.OS)
}

func TestLogin_UnknownEmailAndWrongPasswordLookTheSame(t *testing.T) {
	svc, _, _ := newTestService(t)
	register(t, svc, "ana@zoo.org")
	ctx := context.Background()

	_, err1 := svc.Login(ctx, LoginInput{Email: "ghost@zoo.org", Password: "secret1"})
	_, err2 := svc.Login(ctx, LoginInput{Email: "ana@zoo.org", Password: "wrong"})

	assert.ErrorIs(t, err1, sentinel.ErrUnauthenticated)
	assert.Equal(t, err1, err2)
}

func TestLogin_LocksAfterFiveFailuresForTwoHours(t *testing.T) {
	svc, repo, _ := newTestService(t)
	u := register(t, svc, "ana@zoo.org")
	ctx := context.Background()

	now := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	for i := 0; i < 5; i++ {
		_, err := svc.Login(ctx, LoginInput{Email: "ana@zoo.org", Password: "wrong"})
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}
	require.NotNil(t, repo.byID[u.ID].LockUntil)
	assert.Equal(t, now.Add(2*time.Hour), *repo.byID[u.ID].LockUntil)

	// bloqueada: ni la contraseña correcta entra
	_, err := svc.Login(ctx, LoginInput{Email: "ana@zoo.org", Password: "secret1"})
	assert.ErrorIs(t, err, ErrLocked)

	now = now.Add(2*time.Hour + time.Minute)
	sess, err := svc.Login(ctx, LoginInput{Email: "ana@zoo.org", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, sess.User.ID)
	assert.Zero(t, repo.byID[u.ID].LoginAttempts)
	assert.Nil(t, repo.byID[u.ID].LockUntil)
}

func TestLogin_ExpiredLockRestartsCount(t *testing.T) {
	svc, repo, _ := newTestService(t, WithLockout(Lockout{MaxAttempts: 2, LockFor: time.Hour}))
	u := register(t, svc, "ana@zoo.org")
	ctx := context.Background()

	now := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	for i := 0; i < 2; i++ {
		_, _ = svc.Login(ctx, LoginInput{Email: "ana@zoo.org", Password: "wrong"})
	}
	require.True(t, repo.byID[u.ID].IsLocked(now))

	now = now.Add(61 * time.Minute)
	_, err := svc.Login(ctx, LoginInput{Email: "ana@zoo.org", Password: "wrong"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, 1, repo.byID[u.ID].LoginAttempts)
	assert.False(t, repo.byID[u.ID].IsLocked(now))
}

func TestLogin_InactiveAccount(t *testing.T) {
	svc, _, _ := newTestService(t)
	u := register(t, svc, "ana@zoo.org")
	_, err := svc.SetActive(context.Background(), u.ID, false)
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), LoginInput{Email: "ana@zoo.org", Password: "secret1"})
	assert.ErrorIs(t, err, ErrInactive)
}

func TestChangePassword(t *testing.T) {
	svc, _, _ := newTestService(t)
	u := register(t, svc, "ana@zoo.org")
	ctx := context.Background()

	assert.ErrorIs(t, svc.ChangePassword(ctx, u.ID, "wrong", "another1"), ErrWrongPassword)
	assert.ErrorIs(t, svc.ChangePassword(ctx, u.ID, "secret1", "123"), sentinel.ErrInvalidInput)
	require.NoError(t, svc.ChangePassword(ctx, u.ID, "secret1", "another1"))

	_, err := svc.Login(ctx, LoginInput{Email: "ana@zoo.org", Password: "another1"})
	assert.NoError(t, err)
}

func TestProfileAndRole(t *testing.T) {
	svc, _, _ := newTestService(t)
	u := register(t, svc, "ana@zoo.org")
	ctx := context.Background()

	name := "  Anita "
	upd, err := svc.UpdateProfile(ctx, u.ID, ProfileInput{FirstName: &name})
	require.NoError(t, err)
	assert.Equal(t, "Anita", upd.FirstName)

	upd, err = svc.SetRole(ctx, u.ID, RoleVeterinarian)
	require.NoError(t, err)
	assert.Equal(t, RoleVeterinarian, upd.Role)

	_, err = svc.SetRole(ctx, u.ID, "zookeeper")
	assert.ErrorIs(t, err, sentinel.ErrInvalidInput)

	_, err = svc.SetRole(ctx, "missing", RoleStaff)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestEnsureAdmin_IsIdempotent(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	a, err := svc.EnsureAdmin(ctx, "admin@zoo.org", "changeme")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, a.Role)

	b, err := svc.EnsureAdmin(ctx, "ADMIN@zoo.org", "other-password")
	require.NoError(t, err)
	assert.Equal(t, a.ID, b.ID)
	assert.Len(t, repo.byID, 1)
	assert.Equal(t, "h:changeme", repo.byID[a.ID].PasswordHash)
}
