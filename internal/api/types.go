package api

import (
	"time"

	"github.com/hackgods/clinic-appointment-portal/internal/store"
)

const dateLayout = "2006-01-02"

type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateProfileRequest struct {
	Pesel       string `json:"pesel" validate:"omitempty,numeric,len=11"`
	DateOfBirth string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
}

type BookAppointmentRequest struct {
	DoctorID         string               `json:"doctor_id" validate:"required,uuid"`
	SlotID           string               `json:"slot_id" validate:"required,uuid"`
	VisitType        string               `json:"visit_type" validate:"required"`
	ReportedSymptoms string               `json:"reported_symptoms"`
	Pesel            string               `json:"pesel" validate:"omitempty,numeric,len=11"`
	BirthDate        string               `json:"birth_date" validate:"omitempty,datetime=2006-01-02"`
	Report           *store.ReportPayload `json:"report"`
}

type BookAppointmentResponse struct {
	AppointmentID string  `json:"appointment_id"`
	ReportID      *string `json:"report_id,omitempty"`
}

type CreateReportResponse struct {
	ReportID string `json:"report_id"`
}

type CompleteAppointmentRequest struct {
	Diagnosis string  `json:"diagnosis" validate:"required"`
	AIRating  *string `json:"ai_rating" validate:"omitempty,oneof=accurate inaccurate"`
}

type SlotInput struct {
	LocationID string    `json:"location_id" validate:"required,uuid"`
	StartTime  time.Time `json:"start_time" validate:"required"`
	EndTime    time.Time `json:"end_time" validate:"required,gtfield=StartTime"`
}

type InsertSlotsRequest struct {
	Slots []SlotInput `json:"slots" validate:"required,min=1,dive"`
}

type LocationRequest struct {
	Name    string `json:"name" validate:"required"`
	Address string `json:"address" validate:"required"`
	City    string `json:"city" validate:"required"`
}

type CreateDoctorRequest struct {
	FirstName      string `json:"first_name" validate:"required"`
	LastName       string `json:"last_name" validate:"required"`
	Email          string `json:"email" validate:"required,email"`
	Password       string `json:"password" validate:"required,min=6"`
	Specialization string `json:"specialization" validate:"required"`
	WorkStartDate  string `json:"work_start_date" validate:"required,datetime=2006-01-02"`
}

type UpdateDoctorRequest struct {
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Specialization string `json:"specialization"`
	WorkStartDate  string `json:"work_start_date" validate:"omitempty,datetime=2006-01-02"`
}

type ActionResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// parseDate reads an optional "2006-01-02" value; validation has already run.
func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil
	}
	return &t
}
