package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"zoo-management/internal/domain/users"
)

type UsersRepo struct {
	db *sql.DB
}

func NewUsersRepo(db *sql.DB) *UsersRepo {
	return &UsersRepo{db: db}
}

const userColumns = `
	id, first_name, last_name, email, password_hash,
	role, is_active,
	last_login, login_attempts, lock_until, last_login_meta,
	created_at, updated_at`

func (r *UsersRepo) Create(ctx context.Context, u users.User) error {
	meta, err := marshalMeta(u.LastLoginMeta)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`,
		u.ID,
		u.FirstName,
		u.LastName,
		u.Email,
		u.PasswordHash,
		u.Role,
		u.IsActive,
		nullTime(u.LastLogin),
		u.LoginAttempts,
		nullTime(u.LockUntil),
		meta,
		u.CreatedAt,
		u.UpdatedAt,
	)
	return mapErr(err)
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (users.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return users.User{}, mapErr(sql.ErrNoRows)
	}
	return scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (users.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (r *UsersRepo) List(ctx context.Context, f users.Filter) ([]users.User, int, error) {
	var w whereBuilder
	if f.Role != "" {
		w.add("role = ?", f.Role)
	}
	if f.IsActive != nil {
		w.add("is_active = ?", *f.IsActive)
	}
	if f.Query != "" {
		w.addLike(f.Query, "first_name", "last_name", "email")
	}

	total := 0
	if err := r.db.QueryRowContext(ctx, "SELECT count(*) FROM users"+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query, args := w.page("SELECT "+userColumns+" FROM users", "created_at DESC", f.Offset, f.Limit)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]users.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, u)
	}
	return out, total, rows.Err()
}

func (r *UsersRepo) Update(ctx context.Context, u users.User) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET
			first_name = $2,
			last_name = $3,
			email = $4,
			password_hash = $5,
			role = $6,
			is_active = $7,
			updated_at = $8
		WHERE id = $1
	`,
		u.ID,
		u.FirstName,
		u.LastName,
		u.Email,
		u.PasswordHash,
		u.Role,
		u.IsActive,
		u.UpdatedAt,
	)
	if err != nil {
		return mapErr(err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return mapErr(sql.ErrNoRows)
	}
	return nil
}

// RecordLoginFailure resuelve reinicio, incremento y bloqueo en un único
// UPDATE, así dos fallos concurrentes cuentan los dos.
func (r *UsersRepo) RecordLoginFailure(ctx context.Context, id string, at time.Time, policy users.Lockout) (users.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, `
		WITH cur AS (
			SELECT id,
				CASE WHEN lock_until IS NOT NULL AND lock_until <= $2 THEN 0 ELSE login_attempts END AS attempts,
				CASE WHEN lock_until IS NOT NULL AND lock_until <= $2 THEN NULL ELSE lock_until END AS lock_until
			FROM users WHERE id = $1
			FOR UPDATE
		)
		UPDATE users u
		SET
			login_attempts = cur.attempts + 1,
			lock_until = CASE
				WHEN cur.lock_until IS NULL AND cur.attempts + 1 >= $3 THEN $4::timestamptz
				ELSE cur.lock_until
			END
		FROM cur
		WHERE u.id = cur.id
		RETURNING `+prefixed("u.", userColumns),
		id, at, policy.MaxAttempts, at.Add(policy.LockFor),
	))
}

func (r *UsersRepo) RecordLoginSuccess(ctx context.Context, id string, at time.Time, meta users.LoginMeta) (users.User, error) {
	raw, err := marshalMeta(&meta)
	if err != nil {
		return users.User{}, err
	}
	return scanUser(r.db.QueryRowContext(ctx, `
		UPDATE users
		SET login_attempts = 0, lock_until = NULL, last_login = $2, last_login_meta = $3
		WHERE id = $1
		RETURNING `+userColumns,
		id, at, raw,
	))
}

func scanUser(row rowScanner) (users.User, error) {
	var u users.User
	var lastLogin, lockUntil sql.NullTime
	var meta []byte
	err := row.Scan(
		&u.ID,
		&u.FirstName,
		&u.LastName,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&u.IsActive,
		&lastLogin,
		&u.LoginAttempts,
		&lockUntil,
		&meta,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return users.User{}, mapErr(err)
	}
	u.LastLogin = timePtr(lastLogin)
	u.LockUntil = timePtr(lockUntil)
	if len(meta) > 0 && string(meta) != "null" {
		u.LastLoginMeta = &users.LoginMeta{}
		if err := json.Unmarshal(meta, u.LastLoginMeta); err != nil {
			return users.User{}, err
		}
	}
	return u, nil
}

func marshalMeta(m *users.LoginMeta) (any, error) {
	if m == nil {
		return nil, nil
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// prefixed califica cada columna de una lista separada por comas.
func prefixed(prefix, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = prefix + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}
