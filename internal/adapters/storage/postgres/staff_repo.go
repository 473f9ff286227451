package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"zoo-management/internal/domain/staff"
)

type StaffRepo struct {
	db *sql.DB
}

func NewStaffRepo(db *sql.DB) *StaffRepo {
	return &StaffRepo{db: db}
}

const staffColumns = `
	id, employee_id,
	first_name, last_name, email, phone,
	role, department, position, hire_date, salary,
	emergency_contact,
	certifications, specializations, languages,
	training_records, performance_reviews,
	is_active, notes,
	created_at, updated_at`

func (r *StaffRepo) Create(ctx context.Context, s staff.Staff) error {
	docs, err := marshalStaffDocs(s)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO staff (`+staffColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)
	`,
		s.ID,
		s.EmployeeID,
		s.FirstName,
		s.LastName,
		s.Email,
		s.Phone,
		s.Role,
		s.Department,
		s.Position,
		s.HireDate,
		s.Salary,
		docs.emergency,
		docs.certifications,
		docs.specializations,
		docs.languages,
		docs.training,
		docs.reviews,
		s.IsActive,
		s.Notes,
		s.CreatedAt,
		s.UpdatedAt,
	)
	return mapErr(err)
}

// Update no reescribe employee_id ni las listas de training/reviews.
func (r *StaffRepo) Update(ctx context.Context, s staff.Staff) error {
	docs, err := marshalStaffDocs(s)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE staff
		SET
			first_name = $2,
			last_name = $3,
			email = $4,
			phone = $5,
			role = $6,
			department = $7,
			position = $8,
			hire_date = $9,
			salary = $10,
			emergency_contact = $11,
			certifications = $12,
			specializations = $13,
			languages = $14,
			is_active = $15,
			notes = $16,
			updated_at = $17
		WHERE id = $1
	`,
		s.ID,
		s.FirstName,
		s.LastName,
		s.Email,
		s.Phone,
		s.Role,
		s.Department,
		s.Position,
		s.HireDate,
		s.Salary,
		docs.emergency,
		docs.certifications,
		docs.specializations,
		docs.languages,
		s.IsActive,
		s.Notes,
		s.UpdatedAt,
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

func (r *StaffRepo) GetByID(ctx context.Context, id string) (staff.Staff, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return staff.Staff{}, mapErr(sql.ErrNoRows)
	}
	row := r.db.QueryRowContext(ctx, `SELECT `+staffColumns+` FROM staff WHERE id = $1`, id)
	return scanStaff(row)
}

func (r *StaffRepo) List(ctx context.Context, f staff.Filter) ([]staff.Staff, int, error) {
	var w whereBuilder
	if f.Role != "" {
		w.add("role = ?", f.Role)
	}
	if f.Department != "" {
		w.add("lower(department) = lower(?)", f.Department)
	}
	if f.IsActive != nil {
		w.add("is_active = ?", *f.IsActive)
	}
	if f.Query != "" {
		w.addLike(f.Query, "first_name", "last_name", "email", "employee_id", "department", "position")
	}

	total := 0
	if err := r.db.QueryRowContext(ctx, "SELECT count(*) FROM staff"+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query, args := w.page("SELECT "+staffColumns+" FROM staff", "created_at DESC", f.Offset, f.Limit)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]staff.Staff, 0)
	for rows.Next() {
		s, err := scanStaff(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, s)
	}
	return out, total, rows.Err()
}

func (r *StaffRepo) AppendTraining(ctx context.Context, id string, rec staff.TrainingRecord) (staff.Staff, error) {
	return r.appendDoc(ctx, "training_records", id, rec, rec.CreatedAt)
}

func (r *StaffRepo) AppendReview(ctx context.Context, id string, rev staff.PerformanceReview) (staff.Staff, error) {
	return r.appendDoc(ctx, "performance_reviews", id, rev, rev.CreatedAt)
}

// appendDoc concatena en una sola sentencia; dos altas concurrentes no se pisan.
func (r *StaffRepo) appendDoc(ctx context.Context, column, id string, doc any, at time.Time) (staff.Staff, error) {
	raw, err := json.Marshal([]any{doc})
	if err != nil {
		return staff.Staff{}, err
	}
	row := r.db.QueryRowContext(ctx, `
		UPDATE staff
		SET `+column+` = `+column+` || $2::jsonb, updated_at = $3
		WHERE id = $1
		RETURNING `+staffColumns,
		strings.TrimSpace(id), string(raw), at,
	)
	return scanStaff(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStaff(row rowScanner) (staff.Staff, error) {
	var s staff.Staff
	var emergency, certs, specs, langs, training, revws []byte
	err := row.Scan(
		&s.ID,
		&s.EmployeeID,
		&s.FirstName,
		&s.LastName,
		&s.Email,
		&s.Phone,
		&s.Role,
		&s.Department,
		&s.Position,
		&s.HireDate,
		&s.Salary,
		&emergency,
		&certs,
		&specs,
		&langs,
		&training,
		&revws,
		&s.IsActive,
		&s.Notes,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return staff.Staff{}, mapErr(err)
	}

	if len(emergency) > 0 && string(emergency) != "null" {
		s.EmergencyContact = &staff.EmergencyContact{}
		if err := json.Unmarshal(emergency, s.EmergencyContact); err != nil {
			return staff.Staff{}, err
		}
	}
	for _, d := range []struct {
		raw []byte
		dst any
	}{
		{certs, &s.Certifications},
		{specs, &s.Specializations},
		{langs, &s.Languages},
		{training, &s.TrainingRecords},
		{revws, &s.PerformanceReviews},
	} {
		if err := json.Unmarshal(d.raw, d.dst); err != nil {
			return staff.Staff{}, err
		}
	}
	return s, nil
}

type staffDocs struct {
	emergency       any
	certifications  string
	specializations string
	languages       string
	training        string
	reviews         string
}

func marshalStaffDocs(s staff.Staff) (staffDocs, error) {
	var d staffDocs
	if s.EmergencyContact != nil {
		raw, err := json.Marshal(s.EmergencyContact)
		if err != nil {
			return d, err
		}
		d.emergency = string(raw)
	}
	for _, p := range []struct {
		dst *string
		v   any
	}{
		{&d.certifications, nonNilList(s.Certifications)},
		{&d.specializations, nonNilList(s.Specializations)},
		{&d.languages, nonNilList(s.Languages)},
		{&d.training, nonNilList(s.TrainingRecords)},
		{&d.reviews, nonNilList(s.PerformanceReviews)},
	} {
		raw, err := json.Marshal(p.v)
		if err != nil {
			return d, err
		}
		*p.dst = string(raw)
	}
	return d, nil
}

func nonNilList[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
