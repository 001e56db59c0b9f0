package store

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleDoctor, RoleAdmin:
		return true
	}
	return false
}

const (
	AppointmentPending  = "Pending"
	AppointmentFinished = "Finished"

	ReportSentToDoctor = "Sent to doctor"
	ReportCompleted    = "Completed"

	RatingAccurate   = "accurate"
	RatingInaccurate = "inaccurate"
)

type Profile struct {
	ID          uuid.UUID  `json:"id"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Role        Role       `json:"role"`
	Pesel       *string    `json:"pesel,omitempty"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type Doctor struct {
	ID             uuid.UUID  `json:"id"`
	Specialization string     `json:"specialization"`
	WorkStartDate  *time.Time `json:"work_start_date,omitempty"`
}

type Location struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Address string    `json:"address"`
	City    string    `json:"city"`
}

type NewLocation struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	City    string `json:"city"`
}

// Slot is one row of the availability collection.
type Slot struct {
	ID         uuid.UUID `json:"id"`
	DoctorID   uuid.UUID `json:"doctor_id"`
	LocationID uuid.UUID `json:"location_id"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	Duration   int       `json:"duration"`
	IsBooked   bool      `json:"is_booked"`
}

type NewSlot struct {
	DoctorID   uuid.UUID
	LocationID uuid.UUID
	StartTime  time.Time
	EndTime    time.Time
}

// ReportPayload is the structured clinical summary produced by the completion
// endpoint. Field names match its JSON.
type ReportPayload struct {
	ReportedSummary              string   `json:"reported_summary"`
	ReportedSymptoms             string   `json:"reported_symptoms,omitempty"`
	SicknessDuration             string   `json:"sickness_duration"`
	AIPrimaryDiagnosis           string   `json:"ai_primary_diagnosis"`
	AIDiagnosisReasoning         string   `json:"ai_diagnosis_reasoning"`
	AISuggestedManagement        []string `json:"ai_suggested_management"`
	AICriticalWarning            *string  `json:"ai_critical_warning"`
	AIRecommendedSpecializations []string `json:"ai_recommended_specializations"`
	AIConfidenceScore            float64  `json:"ai_confidence_score"`
}

type Report struct {
	ID        uuid.UUID `json:"id"`
	PatientID uuid.UUID `json:"patient_id"`
	ReportPayload
	Status                 string    `json:"status"`
	DoctorFeedbackAIRating *string   `json:"doctor_feedback_ai_rating"`
	CreatedAt              time.Time `json:"created_at"`
}

type NewAppointment struct {
	PatientID        uuid.UUID
	DoctorID         uuid.UUID
	AvailabilityID   uuid.UUID
	ReportID         *uuid.UUID
	VisitType        string
	ReportedSymptoms string
}

// Visit is an appointment joined with its slot, as listed on the admin dashboard.
type Visit struct {
	ID                   uuid.UUID  `json:"id"`
	PatientID            uuid.UUID  `json:"patient_id"`
	DoctorID             uuid.UUID  `json:"doctor_id"`
	AvailabilityID       uuid.UUID  `json:"availability_id"`
	ReportID             *uuid.UUID `json:"report_id"`
	VisitType            string     `json:"visit_type"`
	ReportedSymptoms     string     `json:"reported_symptoms"`
	Status               string     `json:"status"`
	DoctorFinalDiagnosis *string    `json:"doctor_final_diagnosis"`
	CreatedAt            time.Time  `json:"created_at"`
	StartTime            time.Time  `json:"start_time"`
	EndTime              time.Time  `json:"end_time"`
	Duration             int        `json:"duration"`
	LocationID           uuid.UUID  `json:"location_id"`
}

// Rows below carry nested relations exactly as the joins return them; the
// viewmodel package flattens them.

type PersonName struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// DoctorRow is one doctor joined through availability, so a doctor repeats once per slot.
type DoctorRow struct {
	ID             uuid.UUID
	Specialization string
	Profile        One[PersonName]
}

type LocationRef struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	City    string `json:"city"`
}

type SlotRef struct {
	StartTime time.Time        `json:"start_time"`
	Duration  int              `json:"duration"`
	Locations One[LocationRef] `json:"locations"`
}

type DoctorRef struct {
	Specialization string          `json:"specialization"`
	Profiles       One[PersonName] `json:"profiles"`
}

type PatientAppointmentRow struct {
	ID           uuid.UUID
	Status       string
	Availability One[SlotRef]
	Doctor       One[DoctorRef]
}

type PatientRef struct {
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	Pesel       *string `json:"pesel"`
	DateOfBirth *string `json:"date_of_birth"`
}

type DoctorLink struct {
	Profiles One[PersonName] `json:"profiles"`
}

type ReportDetails struct {
	AIConfidenceScore            *float64 `json:"ai_confidence_score"`
	AIRecommendedSpecializations []string `json:"ai_recommended_specializations"`
	SicknessDuration             *string  `json:"sickness_duration"`
	AIPrimaryDiagnosis           *string  `json:"ai_primary_diagnosis"`
	AIDiagnosisReasoning         *string  `json:"ai_diagnosis_reasoning"`
	AISuggestedManagement        []string `json:"ai_suggested_management"`
	AICriticalWarning            *string  `json:"ai_critical_warning"`
	ReportedSummary              *string  `json:"reported_summary"`
	DoctorFeedbackAIRating       *string  `json:"doctor_feedback_ai_rating"`
}

type ConsultationRow struct {
	ID                   uuid.UUID
	ReportedSymptoms     string
	DoctorFinalDiagnosis *string
	Patient              One[PatientRef]
	DoctorLink           One[DoctorLink]
	Report               One[ReportDetails]
}

type AvailabilityStart struct {
	StartTime time.Time `json:"start_time"`
}

type ReportAppointmentRef struct {
	ID               uuid.UUID              `json:"id"`
	ReportedSymptoms string                 `json:"reported_symptoms"`
	CreatedAt        time.Time              `json:"created_at"`
	Availability     One[AvailabilityStart] `json:"availability"`
}

type ReportHistoryRow struct {
	ID           uuid.UUID
	Status       string
	CreatedAt    time.Time
	Appointments Many[ReportAppointmentRef]
}
