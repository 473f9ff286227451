package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"zoo-management/internal/domain/users"
	"zoo-management/internal/platform/sentinel"
)

type userRepo struct {
	mu   sync.RWMutex
	byID map[string]users.User
}

func NewUserRepo() users.Repository {
	return &userRepo{
		byID: make(map[string]users.User),
	}
}

func (r *userRepo) Create(ctx context.Context, u users.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(u.ID) == "" {
		return sentinel.Invalid("user id required")
	}
	if _, exists := r.byID[u.ID]; exists {
		return sentinel.ErrDuplicateKey
	}
	for _, other := range r.byID {
		if other.Email == u.Email {
			return sentinel.ErrDuplicateKey
		}
	}
	r.byID[u.ID] = cloneUser(u)
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id string) (users.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return users.User{}, sentinel.ErrNotFound
	}
	return cloneUser(u), nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (users.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.byID {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return users.User{}, sentinel.ErrNotFound
}

func (r *userRepo) List(ctx context.Context, f users.Filter) ([]users.User, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]users.User, 0)
	for _, u := range r.byID {
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		if f.IsActive != nil && u.IsActive != *f.IsActive {
			continue
		}
		if f.Query != "" && !anyContainsFold(f.Query, u.FirstName, u.LastName, u.Email) {
			continue
		}
		out = append(out, cloneUser(u))
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	items, total := page(out, f.Offset, f.Limit)
	return items, total, nil
}

// Update no toca los campos de login; esos solo cambian por RecordLogin*.
func (r *userRepo) Update(ctx context.Context, u users.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.byID[u.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	for id, other := range r.byID {
		if id != u.ID && other.Email == u.Email {
			return sentinel.ErrDuplicateKey
		}
	}
	u.LastLogin = cur.LastLogin
	u.LoginAttempts = cur.LoginAttempts
	u.LockUntil = cur.LockUntil
	u.LastLoginMeta = cur.LastLoginMeta
	r.byID[u.ID] = cloneUser(u)
	return nil
}

func (r *userRepo) RecordLoginFailure(ctx context.Context, id string, at time.Time, policy users.Lockout) (users.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return users.User{}, sentinel.ErrNotFound
	}
	if u.LockUntil != nil && !u.LockUntil.After(at) {
		u.LoginAttempts = 0
		u.LockUntil = nil
	}
	u.LoginAttempts++
	if u.LoginAttempts >= policy.MaxAttempts && u.LockUntil == nil {
		until := at.Add(policy.LockFor)
		u.LockUntil = &until
	}
	r.byID[id] = u
	return cloneUser(u), nil
}

func (r *userRepo) RecordLoginSuccess(ctx context.Context, id string, at time.Time, meta users.LoginMeta) (users.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return users.User{}, sentinel.ErrNotFound
	}
	u.LoginAttempts = 0
	u.LockUntil = nil
	u.LastLogin = &at
	u.LastLoginMeta = &meta
	r.byID[id] = u
	return cloneUser(u), nil
}

func cloneUser(u users.User) users.User {
	if u.LastLoginMeta != nil {
		m := *u.LastLoginMeta
		u.LastLoginMeta = &m
	}
	return u
}
