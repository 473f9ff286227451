package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"zoo-management/internal/platform/sentinel"
)

// Open abre una conexión pool a Postgres usando pgx (database/sql).
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id              TEXT PRIMARY KEY,
		first_name      TEXT NOT NULL,
		last_name       TEXT NOT NULL,
		email           TEXT NOT NULL UNIQUE,
		password_hash   TEXT NOT NULL,
		role            TEXT NOT NULL,
		is_active       BOOLEAN NOT NULL DEFAULT TRUE,
		last_login      TIMESTAMPTZ,
		login_attempts  INTEGER NOT NULL DEFAULT 0,
		lock_until      TIMESTAMPTZ,
		last_login_meta JSONB,
		created_at      TIMESTAMPTZ NOT NULL,
		updated_at      TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS staff (
		id                  TEXT PRIMARY KEY,
		employee_id         TEXT NOT NULL UNIQUE,
		first_name          TEXT NOT NULL,
		last_name           TEXT NOT NULL,
		email               TEXT NOT NULL UNIQUE,
		phone               TEXT NOT NULL DEFAULT '',
		role                TEXT NOT NULL,
		department          TEXT NOT NULL,
		position            TEXT NOT NULL,
		hire_date           DATE NOT NULL,
		salary              NUMERIC(12,2) NOT NULL,
		emergency_contact   JSONB,
		certifications      JSONB NOT NULL DEFAULT '[]',
		specializations     JSONB NOT NULL DEFAULT '[]',
		languages           JSONB NOT NULL DEFAULT '[]',
		training_records    JSONB NOT NULL DEFAULT '[]',
		performance_reviews JSONB NOT NULL DEFAULT '[]',
		is_active           BOOLEAN NOT NULL DEFAULT TRUE,
		notes               TEXT NOT NULL DEFAULT '',
		created_at          TIMESTAMPTZ NOT NULL,
		updated_at          TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS staff_role_idx ON staff (role)`,
	`CREATE INDEX IF NOT EXISTS staff_department_idx ON staff (department)`,
	`CREATE INDEX IF NOT EXISTS staff_created_at_idx ON staff (created_at DESC)`,
}

// Migrate crea las tablas si no existen. Es idempotente.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// mapErr traduce errores del driver a los sentinels del dominio.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %s", sentinel.ErrDuplicateKey, pgErr.ConstraintName)
	}
	return err
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{Valid: false}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}
