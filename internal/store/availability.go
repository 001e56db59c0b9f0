package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type AvailabilityRepo struct {
	db DB
}

func NewAvailabilityRepo(db DB) *AvailabilityRepo {
	return &AvailabilityRepo{db: db}
}

const slotColumns = `id, doctor_id, location_id, start_time, end_time, duration, is_booked`

func scanSlot(row pgx.Row) (Slot, error) {
	var s Slot
	err := row.Scan(
		&s.ID,
		&s.DoctorID,
		&s.LocationID,
		&s.StartTime,
		&s.EndTime,
		&s.Duration,
		&s.IsBooked,
	)
	if err != nil {
		return Slot{}, err
	}
	return s, nil
}

// ForDay lists a doctor's slots starting within [from, to], booked or not.
func (r *AvailabilityRepo) ForDay(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]Slot, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+slotColumns+`
		FROM availability
		WHERE doctor_id = $1
		  AND start_time >= $2
		  AND start_time <= $3
		ORDER BY start_time ASC
	`, doctorID, from, to)
	if err != nil {
		return nil, fmt.Errorf("fetch slots for day: %w", err)
	}
	return collect(rows, scanSlot)
}

// Open lists unbooked slots in [from, to] that have not started yet, earliest first.
// A zero locationID matches every location.
func (r *AvailabilityRepo) Open(ctx context.Context, doctorID, locationID uuid.UUID, from, to, now time.Time) ([]Slot, error) {
	var loc any
	if locationID != uuid.Nil {
		loc = locationID
	}
	rows, err := r.db.Query(ctx, `
		SELECT `+slotColumns+`
		FROM availability
		WHERE doctor_id = $1
		  AND ($2::uuid IS NULL OR location_id = $2)
		  AND is_booked = false
		  AND start_time >= $3
		  AND start_time >= $4
		  AND start_time <= $5
		ORDER BY start_time ASC
	`, doctorID, loc, now, from, to)
	if err != nil {
		return nil, fmt.Errorf("fetch open slots: %w", err)
	}
	return collect(rows, scanSlot)
}

// DeleteUnbooked removes a doctor's free slots in [from, to]; booked slots stay.
func (r *AvailabilityRepo) DeleteUnbooked(ctx context.Context, doctorID uuid.UUID, from, to time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM availability
		WHERE doctor_id = $1
		  AND start_time >= $2
		  AND start_time <= $3
		  AND is_booked = false
	`, doctorID, from, to)
	if err != nil {
		return 0, fmt.Errorf("delete unbooked slots: %w", err)
	}
	return tag.RowsAffected(), nil
}

// InsertBatch copies new slots in; duration is derived by the table.
func (r *AvailabilityRepo) InsertBatch(ctx context.Context, slots []NewSlot) (int64, error) {
	if len(slots) == 0 {
		return 0, nil
	}
	n, err := r.db.CopyFrom(ctx,
		pgx.Identifier{"availability"},
		[]string{"id", "doctor_id", "location_id", "start_time", "end_time", "is_booked"},
		pgx.CopyFromSlice(len(slots), func(i int) ([]any, error) {
			s := slots[i]
			if !s.EndTime.After(s.StartTime) {
				return nil, fmt.Errorf("slot %d ends before it starts", i)
			}
			return []any{uuid.New(), s.DoctorID, s.LocationID, s.StartTime, s.EndTime, false}, nil
		}),
	)
	if err != nil {
		return 0, fmt.Errorf("insert slots: %w", err)
	}
	return n, nil
}

// Lock flips is_booked for a still-free slot owned by doctorID. It reports false when
// no row changed, i.e. the slot is gone, belongs to someone else or was already taken.
func (r *AvailabilityRepo) Lock(ctx context.Context, slotID, doctorID uuid.UUID) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE availability
		SET is_booked = true
		WHERE id = $1
		  AND doctor_id = $2
		  AND is_booked = false
	`, slotID, doctorID)
	if err != nil {
		return false, fmt.Errorf("lock slot: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// BookedStarts returns start times of a doctor's booked slots in [from, to].
func (r *AvailabilityRepo) BookedStarts(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]time.Time, error) {
	rows, err := r.db.Query(ctx, `
		SELECT start_time
		FROM availability
		WHERE doctor_id = $1
		  AND is_booked = true
		  AND start_time >= $2
		  AND start_time <= $3
	`, doctorID, from, to)
	if err != nil {
		return nil, fmt.Errorf("fetch booked slots: %w", err)
	}
	return collect(rows, func(row pgx.Row) (time.Time, error) {
		var t time.Time
		err := row.Scan(&t)
		return t, err
	})
}
