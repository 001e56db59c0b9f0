package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type AppointmentRepo struct {
	db DB
}

func NewAppointmentRepo(db DB) *AppointmentRepo {
	return &AppointmentRepo{db: db}
}

// Insert stores a pending appointment. A second appointment for the same slot fails
// with ErrSlotTaken.
func (r *AppointmentRepo) Insert(ctx context.Context, in NewAppointment) (uuid.UUID, error) {
	var reportID any
	if in.ReportID != nil {
		reportID = *in.ReportID
	}

	var id uuid.UUID
	err := r.db.QueryRow(ctx, `
		INSERT INTO appointments (id, patient_id, doctor_id, availability_id, report_id, visit_type, reported_symptoms, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		RETURNING id
	`, uuid.New(), in.PatientID, in.DoctorID, in.AvailabilityID, reportID, in.VisitType, in.ReportedSymptoms, AppointmentPending).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == appointmentSlotConstraint {
			return uuid.Nil, ErrSlotTaken
		}
		return uuid.Nil, fmt.Errorf("insert appointment: %w", err)
	}
	return id, nil
}

// ForPatient lists a patient's appointments, earliest slot first. A non-nil after
// keeps only slots starting later than it.
func (r *AppointmentRepo) ForPatient(ctx context.Context, patientID uuid.UUID, after *time.Time) ([]PatientAppointmentRow, error) {
	rows, err := r.db.Query(ctx, `
		SELECT a.id, a.status,
		       jsonb_build_object(
		           'start_time', av.start_time,
		           'duration', av.duration,
		           'locations', (SELECT to_jsonb(l) FROM locations l WHERE l.id = av.location_id)
		       ) AS availability,
		       (SELECT jsonb_build_object(
		                   'specialization', d.specialization,
		                   'profiles', (SELECT jsonb_build_object('first_name', p.first_name, 'last_name', p.last_name)
		                                FROM profiles p WHERE p.id = d.id))
		        FROM doctors d WHERE d.id = a.doctor_id) AS doctors
		FROM appointments a
		JOIN availability av ON av.id = a.availability_id
		WHERE a.patient_id = $1
		  AND ($2::timestamptz IS NULL OR av.start_time > $2)
		ORDER BY av.start_time ASC
	`, patientID, nullTime(after))
	if err != nil {
		return nil, fmt.Errorf("fetch appointments: %w", err)
	}
	return collect(rows, func(row pgx.Row) (PatientAppointmentRow, error) {
		var (
			a                 PatientAppointmentRow
			availability, doc []byte
		)
		if err := row.Scan(&a.ID, &a.Status, &availability, &doc); err != nil {
			return a, err
		}
		if err := decodeJSON(availability, &a.Availability); err != nil {
			return a, err
		}
		if err := decodeJSON(doc, &a.Doctor); err != nil {
			return a, err
		}
		return a, nil
	})
}

// Participants narrows an appointment lookup to the given patient and/or doctor.
// A zero id leaves that side unrestricted.
type Participants struct {
	PatientID uuid.UUID
	DoctorID  uuid.UUID
}

// Consultation loads an appointment with patient, doctor and report attached. An
// appointment outside who reads as ErrAppointmentNotFound.
func (r *AppointmentRepo) Consultation(ctx context.Context, id uuid.UUID, who Participants) (*ConsultationRow, error) {
	var (
		c                          ConsultationRow
		patient, doctorLink, report []byte
	)
	err := r.db.QueryRow(ctx, `
		SELECT a.id, a.reported_symptoms, a.doctor_final_diagnosis,
		       (SELECT jsonb_build_object('first_name', p.first_name, 'last_name', p.last_name,
		                                  'pesel', p.pesel, 'date_of_birth', p.date_of_birth)
		        FROM profiles p WHERE p.id = a.patient_id) AS patient,
		       (SELECT jsonb_build_object('profiles',
		                   (SELECT jsonb_agg(jsonb_build_object('first_name', dp.first_name, 'last_name', dp.last_name))
		                    FROM profiles dp WHERE dp.id = d.id))
		        FROM doctors d WHERE d.id = a.doctor_id) AS doctor_link,
		       (SELECT to_jsonb(r) FROM reports r WHERE r.id = a.report_id) AS report
		FROM appointments a
		WHERE a.id = $1
		  AND ($2::uuid IS NULL OR a.patient_id = $2)
		  AND ($3::uuid IS NULL OR a.doctor_id = $3)
	`, id, nullUUID(who.PatientID), nullUUID(who.DoctorID)).Scan(&c.ID, &c.ReportedSymptoms, &c.DoctorFinalDiagnosis, &patient, &doctorLink, &report)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("fetch consultation: %w", err)
	}
	if err := decodeJSON(patient, &c.Patient); err != nil {
		return nil, err
	}
	if err := decodeJSON(doctorLink, &c.DoctorLink); err != nil {
		return nil, err
	}
	if err := decodeJSON(report, &c.Report); err != nil {
		return nil, err
	}
	return &c, nil
}

// ReportID returns the linked report id, nil when the appointment has none.
func (r *AppointmentRepo) ReportID(ctx context.Context, appointmentID uuid.UUID) (*uuid.UUID, error) {
	var id *uuid.UUID
	err := r.db.QueryRow(ctx, `SELECT report_id FROM appointments WHERE id = $1`, appointmentID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("fetch report id: %w", err)
	}
	return id, nil
}

// Complete marks one of doctorID's visits finished with the final diagnosis. Another
// doctor's appointment reads as ErrAppointmentNotFound.
func (r *AppointmentRepo) Complete(ctx context.Context, id, doctorID uuid.UUID, diagnosis string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE appointments
		SET status = $3,
		    doctor_final_diagnosis = $4
		WHERE id = $1
		  AND doctor_id = $2
	`, id, doctorID, AppointmentFinished, diagnosis)
	if err != nil {
		return fmt.Errorf("complete appointment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func (r *AppointmentRepo) count(ctx context.Context, sql string, args ...any) (int, error) {
	var n int64
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, err
	}
	return int(n), nil
}

// CountInRange counts a doctor's appointments whose slot starts in [from, to].
func (r *AppointmentRepo) CountInRange(ctx context.Context, doctorID uuid.UUID, from, to time.Time) (int, error) {
	n, err := r.count(ctx, `
		SELECT count(*)
		FROM appointments a
		JOIN availability av ON av.id = a.availability_id
		WHERE a.doctor_id = $1
		  AND av.start_time >= $2
		  AND av.start_time <= $3
	`, doctorID, from, to)
	if err != nil {
		return 0, fmt.Errorf("count appointments in range: %w", err)
	}
	return n, nil
}

func (r *AppointmentRepo) CountUniquePatients(ctx context.Context, doctorID uuid.UUID) (int, error) {
	n, err := r.count(ctx, `
		SELECT count(DISTINCT patient_id)
		FROM appointments
		WHERE doctor_id = $1
	`, doctorID)
	if err != nil {
		return 0, fmt.Errorf("count unique patients: %w", err)
	}
	return n, nil
}

// CountWithAIReport counts a doctor's appointments carrying a report with an AI diagnosis.
func (r *AppointmentRepo) CountWithAIReport(ctx context.Context, doctorID uuid.UUID) (int, error) {
	n, err := r.count(ctx, `
		SELECT count(*)
		FROM appointments a
		JOIN reports rp ON rp.id = a.report_id
		WHERE a.doctor_id = $1
		  AND rp.ai_primary_diagnosis IS NOT NULL
	`, doctorID)
	if err != nil {
		return 0, fmt.Errorf("count appointments with ai report: %w", err)
	}
	return n, nil
}

// Visits lists all appointments with their slot, earliest first. The range applies
// only when both bounds are set.
func (r *AppointmentRepo) Visits(ctx context.Context, from, to *time.Time) ([]Visit, error) {
	var lo, hi any
	if from != nil && to != nil {
		lo, hi = *from, *to
	}
	rows, err := r.db.Query(ctx, `
		SELECT a.id, a.patient_id, a.doctor_id, a.availability_id, a.report_id, a.visit_type,
		       a.reported_symptoms, a.status, a.doctor_final_diagnosis, a.created_at,
		       av.start_time, av.end_time, av.duration, av.location_id
		FROM appointments a
		JOIN availability av ON av.id = a.availability_id
		WHERE ($1::timestamptz IS NULL OR av.start_time >= $1)
		  AND ($2::timestamptz IS NULL OR av.start_time <= $2)
		ORDER BY av.start_time ASC
	`, lo, hi)
	if err != nil {
		return nil, fmt.Errorf("fetch visits: %w", err)
	}
	return collect(rows, func(row pgx.Row) (Visit, error) {
		var v Visit
		err := row.Scan(
			&v.ID, &v.PatientID, &v.DoctorID, &v.AvailabilityID, &v.ReportID, &v.VisitType,
			&v.ReportedSymptoms, &v.Status, &v.DoctorFinalDiagnosis, &v.CreatedAt,
			&v.StartTime, &v.EndTime, &v.Duration, &v.LocationID,
		)
		return v, err
	})
}
