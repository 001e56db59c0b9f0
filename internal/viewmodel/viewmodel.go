// Package viewmodel flattens store rows into the shapes the portal screens render.
// Everything here is pure: no I/O, no clock reads.
package viewmodel

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-appointment-portal/internal/store"
)

const (
	longDateLayout = "Monday, January 2, 2006"
	dateLayout     = "January 2, 2006"
	clockLayout    = "15:04"
	dayLayout      = "2006-01-02"

	UnknownLocation   = "Unknown Location"
	NoSymptomsMessage = "No data on symptoms"
)

// Age returns full calendar years between birth and now. A zero birth date yields 0.
func Age(birth, now time.Time) int {
	if birth.IsZero() {
		return 0
	}
	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}

// Specializations drops blanks and duplicates, keeping first-seen order.
func Specializations(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func uniqueBy[T any](items []T, key func(T) uuid.UUID) []T {
	seen := make(map[uuid.UUID]struct{}, len(items))
	out := make([]T, 0, len(items))
	for _, it := range items {
		k := key(it)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, it)
	}
	return out
}

func UniqueLocations(rows []store.Location) []store.Location {
	return uniqueBy(rows, func(l store.Location) uuid.UUID { return l.ID })
}

type DoctorCard struct {
	ID             uuid.UUID `json:"id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Specialization string    `json:"specialization"`
}

// UniqueDoctors collapses the per-slot fan-out of a location join.
func UniqueDoctors(rows []store.DoctorRow) []DoctorCard {
	unique := uniqueBy(rows, func(d store.DoctorRow) uuid.UUID { return d.ID })
	out := make([]DoctorCard, 0, len(unique))
	for _, d := range unique {
		out = append(out, DoctorCard{
			ID:             d.ID,
			FirstName:      d.Profile.Value.FirstName,
			LastName:       d.Profile.Value.LastName,
			Specialization: d.Specialization,
		})
	}
	return out
}

// ClockTime formats t as 24h "15:04" in its own location.
func ClockTime(t time.Time) string {
	return t.Format(clockLayout)
}

type PatientAppointment struct {
	ID             uuid.UUID `json:"id"`
	DoctorName     string    `json:"doctor_name"`
	Specialization string    `json:"specialization"`
	Date           string    `json:"date"`
	Time           string    `json:"time"`
	Duration       int       `json:"duration"`
	Status         string    `json:"status"`
	Location       string    `json:"location"`
}

func fullName(p store.PersonName) string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

func PatientAppointmentFromRow(row store.PatientAppointmentRow) PatientAppointment {
	out := PatientAppointment{
		ID:       row.ID,
		Status:   row.Status,
		Location: UnknownLocation,
	}
	if row.Doctor.Valid {
		out.Specialization = row.Doctor.Value.Specialization
		out.DoctorName = fullName(row.Doctor.Value.Profiles.Value)
	}
	if row.Availability.Valid {
		slot := row.Availability.Value
		out.Date = slot.StartTime.Format(longDateLayout)
		out.Time = slot.StartTime.Format(clockLayout)
		out.Duration = slot.Duration
		if slot.Locations.Valid {
			l := slot.Locations.Value
			out.Location = l.Name + ", " + l.Address + ", " + l.City
		}
	}
	return out
}

func PatientAppointments(rows []store.PatientAppointmentRow) []PatientAppointment {
	out := make([]PatientAppointment, 0, len(rows))
	for _, r := range rows {
		out = append(out, PatientAppointmentFromRow(r))
	}
	return out
}

type ReportHistoryItem struct {
	ID        uuid.UUID `json:"id"`
	Status    string    `json:"status"`
	Date      string    `json:"date"`
	Time      string    `json:"time"`
	Symptoms  string    `json:"symptoms"`
	VisitDate string    `json:"visit_date,omitempty"`
}

// ReportHistoryItemFromRow describes a report by its first linked appointment.
func ReportHistoryItemFromRow(row store.ReportHistoryRow) ReportHistoryItem {
	out := ReportHistoryItem{
		ID:       row.ID,
		Status:   row.Status,
		Date:     row.CreatedAt.Format(dateLayout),
		Time:     row.CreatedAt.Format(clockLayout),
		Symptoms: NoSymptomsMessage,
	}
	if first := row.Appointments.First(); first.Valid {
		if s := strings.TrimSpace(first.Value.ReportedSymptoms); s != "" {
			out.Symptoms = s
		}
		if first.Value.Availability.Valid {
			out.VisitDate = first.Value.Availability.Value.StartTime.Format(dateLayout)
		}
	}
	return out
}

func ReportHistory(rows []store.ReportHistoryRow) []ReportHistoryItem {
	out := make([]ReportHistoryItem, 0, len(rows))
	for _, r := range rows {
		out = append(out, ReportHistoryItemFromRow(r))
	}
	return out
}

type ConsultationPatient struct {
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Pesel     *string `json:"pesel"`
	Age       int     `json:"age"`
}

type Consultation struct {
	ID                   uuid.UUID            `json:"id"`
	Patient              ConsultationPatient  `json:"patient"`
	DoctorName           string               `json:"doctor_name"`
	ReportedSymptoms     string               `json:"reported_symptoms"`
	DoctorFinalDiagnosis *string              `json:"doctor_final_diagnosis"`
	Report               *store.ReportDetails `json:"report"`
}

func ConsultationDetails(row store.ConsultationRow, now time.Time) Consultation {
	out := Consultation{
		ID:                   row.ID,
		ReportedSymptoms:     row.ReportedSymptoms,
		DoctorFinalDiagnosis: row.DoctorFinalDiagnosis,
		Report:               row.Report.Ptr(),
	}
	if row.Patient.Valid {
		p := row.Patient.Value
		out.Patient = ConsultationPatient{FirstName: p.FirstName, LastName: p.LastName, Pesel: p.Pesel}
		if p.DateOfBirth != nil {
			if birth, err := time.Parse(dayLayout, *p.DateOfBirth); err == nil {
				out.Patient.Age = Age(birth, now)
			}
		}
	}
	if row.DoctorLink.Valid {
		out.DoctorName = fullName(row.DoctorLink.Value.Profiles.Value)
	}
	return out
}

type DailySlot struct {
	ID         uuid.UUID `json:"id"`
	LocationID uuid.UUID `json:"location_id"`
	Start      string    `json:"start"`
	End        string    `json:"end"`
	Duration   int       `json:"duration"`
	IsBooked   bool      `json:"is_booked"`
}

func DailySlotFromRow(s store.Slot) DailySlot {
	return DailySlot{
		ID:         s.ID,
		LocationID: s.LocationID,
		Start:      s.StartTime.Format(clockLayout),
		End:        s.EndTime.Format(clockLayout),
		Duration:   s.Duration,
		IsBooked:   s.IsBooked,
	}
}

func DailySlots(rows []store.Slot) []DailySlot {
	out := make([]DailySlot, 0, len(rows))
	for _, s := range rows {
		out = append(out, DailySlotFromRow(s))
	}
	return out
}

// OccupiedDates returns the distinct UTC calendar days of the given start times, ascending.
func OccupiedDates(starts []time.Time) []string {
	seen := make(map[string]struct{}, len(starts))
	out := make([]string, 0, len(starts))
	for _, t := range starts {
		d := t.UTC().Format(dayLayout)
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	slices.Sort(out)
	return out
}
