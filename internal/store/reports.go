package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type ReportRepo struct {
	db DB
}

func NewReportRepo(db DB) *ReportRepo {
	return &ReportRepo{db: db}
}

// Insert stores a report for the patient with status "Sent to doctor" and returns its id.
func (r *ReportRepo) Insert(ctx context.Context, patientID uuid.UUID, p ReportPayload) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.db.QueryRow(ctx, `
		INSERT INTO reports (
			id, patient_id, reported_summary, sickness_duration, ai_primary_diagnosis,
			ai_diagnosis_reasoning, ai_suggested_management, ai_critical_warning,
			ai_recommended_specializations, ai_confidence_score, status, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now())
		RETURNING id
	`,
		uuid.New(), patientID, p.ReportedSummary, p.SicknessDuration, nullString(p.AIPrimaryDiagnosis),
		p.AIDiagnosisReasoning, p.AISuggestedManagement, p.AICriticalWarning,
		p.AIRecommendedSpecializations, p.AIConfidenceScore, ReportSentToDoctor,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert report: %w", err)
	}
	return id, nil
}

// HistoryForPatient lists a patient's reports, newest first, with the appointments
// that reference them.
func (r *ReportRepo) HistoryForPatient(ctx context.Context, patientID uuid.UUID) ([]ReportHistoryRow, error) {
	rows, err := r.db.Query(ctx, `
		SELECT r.id, r.status, r.created_at,
		       (SELECT jsonb_agg(jsonb_build_object(
		                   'id', a.id,
		                   'reported_symptoms', a.reported_symptoms,
		                   'created_at', a.created_at,
		                   'availability', (SELECT jsonb_build_object('start_time', av.start_time)
		                                    FROM availability av WHERE av.id = a.availability_id))
		               ORDER BY a.created_at)
		        FROM appointments a WHERE a.report_id = r.id) AS appointments
		FROM reports r
		WHERE r.patient_id = $1
		ORDER BY r.created_at DESC
	`, patientID)
	if err != nil {
		return nil, fmt.Errorf("fetch patient reports: %w", err)
	}
	return collect(rows, func(row pgx.Row) (ReportHistoryRow, error) {
		var (
			h    ReportHistoryRow
			apps []byte
		)
		if err := row.Scan(&h.ID, &h.Status, &h.CreatedAt, &apps); err != nil {
			return h, err
		}
		if err := decodeJSON(apps, &h.Appointments); err != nil {
			return h, err
		}
		return h, nil
	})
}

// Rate stores the doctor's feedback on the AI suggestion and closes the report.
func (r *ReportRepo) Rate(ctx context.Context, id uuid.UUID, rating *string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE reports
		SET doctor_feedback_ai_rating = $2,
		    status = $3
		WHERE id = $1
	`, id, rating, ReportCompleted)
	if err != nil {
		return fmt.Errorf("rate report: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrReportNotFound
	}
	return nil
}

// List returns every report ordered by creation time; the range applies only when
// both bounds are set.
func (r *ReportRepo) List(ctx context.Context, from, to *time.Time) ([]Report, error) {
	var lo, hi any
	if from != nil && to != nil {
		lo, hi = *from, *to
	}
	rows, err := r.db.Query(ctx, `
		SELECT id, patient_id, reported_summary, sickness_duration, ai_primary_diagnosis,
		       ai_diagnosis_reasoning, ai_suggested_management, ai_critical_warning,
		       ai_recommended_specializations, ai_confidence_score, status,
		       doctor_feedback_ai_rating, created_at
		FROM reports
		WHERE ($1::timestamptz IS NULL OR created_at >= $1)
		  AND ($2::timestamptz IS NULL OR created_at <= $2)
		ORDER BY created_at ASC
	`, lo, hi)
	if err != nil {
		return nil, fmt.Errorf("fetch reports: %w", err)
	}
	return collect(rows, scanReport)
}

func scanReport(row pgx.Row) (Report, error) {
	var (
		rp        Report
		diagnosis *string
	)
	err := row.Scan(
		&rp.ID,
		&rp.PatientID,
		&rp.ReportedSummary,
		&rp.SicknessDuration,
		&diagnosis,
		&rp.AIDiagnosisReasoning,
		&rp.AISuggestedManagement,
		&rp.AICriticalWarning,
		&rp.AIRecommendedSpecializations,
		&rp.AIConfidenceScore,
		&rp.Status,
		&rp.DoctorFeedbackAIRating,
		&rp.CreatedAt,
	)
	if err != nil {
		return Report{}, err
	}
	if diagnosis != nil {
		rp.AIPrimaryDiagnosis = *diagnosis
	}
	return rp, nil
}
