package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type LocationRepo struct {
	db DB
}

func NewLocationRepo(db DB) *LocationRepo {
	return &LocationRepo{db: db}
}

func scanLocation(row pgx.Row) (Location, error) {
	var l Location
	if err := row.Scan(&l.ID, &l.Name, &l.Address, &l.City); err != nil {
		return Location{}, err
	}
	return l, nil
}

func (r *LocationRepo) Insert(ctx context.Context, in NewLocation) (*Location, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO locations (id, name, address, city)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, address, city
	`, uuid.New(), in.Name, in.Address, in.City)
	l, err := scanLocation(row)
	if err != nil {
		return nil, fmt.Errorf("insert location: %w", err)
	}
	return &l, nil
}

// Search matches locations whose city or name contains the query, case-insensitively.
// With a specialization only locations where such a doctor has slots qualify; that
// join may repeat a location, so callers de-duplicate.
func (r *LocationRepo) Search(ctx context.Context, specialization, query string) ([]Location, error) {
	var (
		sb   strings.Builder
		args []any
	)
	sb.WriteString(`SELECT l.id, l.name, l.address, l.city FROM locations l`)
	if specialization != "" {
		sb.WriteString(`
		JOIN availability a ON a.location_id = l.id
		JOIN doctors d ON d.id = a.doctor_id`)
	}
	sb.WriteString(` WHERE true`)
	if specialization != "" {
		args = append(args, specialization)
		fmt.Fprintf(&sb, ` AND d.specialization = $%d`, len(args))
	}
	if q := SanitizeSearch(query); q != "" {
		args = append(args, containsPattern(q))
		fmt.Fprintf(&sb, ` AND (l.city ILIKE $%d ESCAPE '\' OR l.name ILIKE $%d ESCAPE '\')`, len(args), len(args))
	}

	rows, err := r.db.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("fetch locations: %w", err)
	}
	return collect(rows, scanLocation)
}
