package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type DoctorRepo struct {
	db DB
}

func NewDoctorRepo(db DB) *DoctorRepo {
	return &DoctorRepo{db: db}
}

func scanDoctor(row pgx.Row) (Doctor, error) {
	var d Doctor
	if err := row.Scan(&d.ID, &d.Specialization, &d.WorkStartDate); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Doctor{}, ErrDoctorNotFound
		}
		return Doctor{}, err
	}
	return d, nil
}

// Specializations returns the raw specialization column, duplicates and blanks included.
func (r *DoctorRepo) Specializations(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT specialization FROM doctors`)
	if err != nil {
		return nil, fmt.Errorf("fetch specializations: %w", err)
	}
	return collect(rows, func(row pgx.Row) (string, error) {
		var s *string
		if err := row.Scan(&s); err != nil {
			return "", err
		}
		if s == nil {
			return "", nil
		}
		return *s, nil
	})
}

// AtLocation lists doctors with at least one slot at the location. The join through
// availability repeats a doctor per slot; callers de-duplicate.
func (r *DoctorRepo) AtLocation(ctx context.Context, locationID uuid.UUID, specialization string) ([]DoctorRow, error) {
	rows, err := r.db.Query(ctx, `
		SELECT d.id, d.specialization,
		       jsonb_build_object('first_name', p.first_name, 'last_name', p.last_name) AS profiles
		FROM doctors d
		JOIN profiles p ON p.id = d.id
		JOIN availability a ON a.doctor_id = d.id
		WHERE a.location_id = $1
		  AND ($2::text IS NULL OR d.specialization = $2)
	`, locationID, nullString(specialization))
	if err != nil {
		return nil, fmt.Errorf("fetch doctors: %w", err)
	}
	return collect(rows, func(row pgx.Row) (DoctorRow, error) {
		var d DoctorRow
		var profile []byte
		if err := row.Scan(&d.ID, &d.Specialization, &profile); err != nil {
			return DoctorRow{}, err
		}
		if err := decodeJSON(profile, &d.Profile); err != nil {
			return DoctorRow{}, err
		}
		return d, nil
	})
}

func (r *DoctorRepo) Get(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, specialization, work_start_date
		FROM doctors
		WHERE id = $1
	`, id)
	d, err := scanDoctor(row)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *DoctorRepo) List(ctx context.Context) ([]Doctor, error) {
	rows, err := r.db.Query(ctx, `SELECT id, specialization, work_start_date FROM doctors`)
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	return collect(rows, scanDoctor)
}

func (r *DoctorRepo) Insert(ctx context.Context, d Doctor) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO doctors (id, specialization, work_start_date)
		VALUES ($1, $2, $3)
	`, d.ID, d.Specialization, d.WorkStartDate)
	if err != nil {
		return fmt.Errorf("insert doctor: %w", err)
	}
	return nil
}

// Update changes specialization and/or work start date; empty inputs keep stored values.
func (r *DoctorRepo) Update(ctx context.Context, id uuid.UUID, specialization string, workStart *time.Time) error {
	if specialization == "" && (workStart == nil || workStart.IsZero()) {
		return nil
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE doctors
		SET specialization = COALESCE($2, specialization),
		    work_start_date = COALESCE($3, work_start_date)
		WHERE id = $1
	`, id, nullString(specialization), nullTime(workStart))
	if err != nil {
		return fmt.Errorf("update doctor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDoctorNotFound
	}
	return nil
}

func (r *DoctorRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM doctors WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete doctor: %w", err)
	}
	return nil
}
