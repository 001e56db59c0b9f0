package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type ProfileRepo struct {
	db DB
}

func NewProfileRepo(db DB) *ProfileRepo {
	return &ProfileRepo{db: db}
}

const profileColumns = `id, first_name, last_name, role, pesel, date_of_birth, created_at`

func scanProfile(row pgx.Row) (Profile, error) {
	var p Profile
	err := row.Scan(
		&p.ID,
		&p.FirstName,
		&p.LastName,
		&p.Role,
		&p.Pesel,
		&p.DateOfBirth,
		&p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, ErrProfileNotFound
		}
		return Profile{}, err
	}
	return p, nil
}

func (r *ProfileRepo) Get(ctx context.Context, id uuid.UUID) (*Profile, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+profileColumns+`
		FROM profiles
		WHERE id = $1
	`, id)
	p, err := scanProfile(row)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProfileRepo) ListByRole(ctx context.Context, role Role) ([]Profile, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+profileColumns+`
		FROM profiles
		WHERE role = $1
	`, role)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return collect(rows, scanProfile)
}

// Insert creates the profile row for a freshly created identity. The role set here
// is never changed afterwards.
func (r *ProfileRepo) Insert(ctx context.Context, p Profile) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO profiles (id, first_name, last_name, role, pesel, date_of_birth, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
	`, p.ID, p.FirstName, p.LastName, p.Role, p.Pesel, p.DateOfBirth)
	if err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

// UpdatePatientDetails records a national id and/or birth date. Empty inputs keep
// the stored value; when both are empty nothing is written.
func (r *ProfileRepo) UpdatePatientDetails(ctx context.Context, id uuid.UUID, pesel string, birthDate *time.Time) error {
	if pesel == "" && (birthDate == nil || birthDate.IsZero()) {
		return nil
	}

	tag, err := r.db.Exec(ctx, `
		UPDATE profiles
		SET pesel = COALESCE($2, pesel),
		    date_of_birth = COALESCE($3, date_of_birth)
		WHERE id = $1
	`, id, nullString(pesel), nullTime(birthDate))
	if err != nil {
		return fmt.Errorf("update patient details: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProfileNotFound
	}
	return nil
}

// UpdateNames changes first and/or last name; empty strings keep the stored value.
func (r *ProfileRepo) UpdateNames(ctx context.Context, id uuid.UUID, firstName, lastName string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE profiles
		SET first_name = COALESCE($2, first_name),
		    last_name = COALESCE($3, last_name)
		WHERE id = $1
	`, id, nullString(firstName), nullString(lastName))
	if err != nil {
		return fmt.Errorf("update profile names: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProfileNotFound
	}
	return nil
}

func (r *ProfileRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM profiles WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	return nil
}
