package portal

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-appointment-portal/internal/booking"
	"github.com/hackgods/clinic-appointment-portal/internal/notice"
	"github.com/hackgods/clinic-appointment-portal/internal/store"
	"github.com/hackgods/clinic-appointment-portal/internal/viewmodel"
)

type Patients struct {
	base
	profiles     ProfileStore
	appointments AppointmentStore
	reports      ReportStore
	booker       Booker
}

func (p *Patients) Profile(ctx context.Context, id uuid.UUID) *store.Profile {
	prof, err := p.profiles.Get(ctx, id)
	if err != nil {
		p.fail(ctx, "portal.Profile", "error fetching profile", "Could not load your profile.", err)
		return nil
	}
	return prof
}

// UpdateDetails records pesel and/or birth date; nothing is written when both are empty.
func (p *Patients) UpdateDetails(ctx context.Context, id uuid.UUID, pesel string, birthDate *time.Time) bool {
	if err := p.profiles.UpdatePatientDetails(ctx, id, pesel, birthDate); err != nil {
		p.fail(ctx, "portal.UpdateDetails", "error updating patient profile", "Could not update your profile.", err)
		return false
	}
	return true
}

// Appointments lists the patient's visits; upcomingOnly drops those already started.
func (p *Patients) Appointments(ctx context.Context, patientID uuid.UUID, upcomingOnly bool) []viewmodel.PatientAppointment {
	var after *time.Time
	if upcomingOnly {
		now := p.now()
		after = &now
	}
	rows, err := p.appointments.ForPatient(ctx, patientID, after)
	if err != nil {
		p.fail(ctx, "portal.Appointments", "error fetching appointments", "Could not load appointments.", err)
		return []viewmodel.PatientAppointment{}
	}
	return viewmodel.PatientAppointments(rows)
}

func (p *Patients) ReportHistory(ctx context.Context, patientID uuid.UUID) []viewmodel.ReportHistoryItem {
	rows, err := p.reports.HistoryForPatient(ctx, patientID)
	if err != nil {
		p.fail(ctx, "portal.ReportHistory", "error fetching patient reports", "Could not load report history.", err)
		return []viewmodel.ReportHistoryItem{}
	}
	return viewmodel.ReportHistory(rows)
}

func (p *Patients) CreateReport(ctx context.Context, patientID uuid.UUID, payload store.ReportPayload) *uuid.UUID {
	id, err := p.reports.Insert(ctx, patientID, payload)
	if err != nil {
		p.fail(ctx, "portal.CreateReport", "error inserting new report", "Could not save the report. Please try again.", err)
		return nil
	}
	return &id
}

// Consultation assembles the visit view for one of the appointment's participants.
func (p *Patients) Consultation(ctx context.Context, appointmentID uuid.UUID, who store.Participants) *viewmodel.Consultation {
	if who == (store.Participants{}) {
		p.fail(ctx, "portal.Consultation", "consultation requested without a participant", "Could not load consultation details.", store.ErrAppointmentNotFound)
		return nil
	}
	row, err := p.appointments.Consultation(ctx, appointmentID, who)
	if err != nil {
		p.fail(ctx, "portal.Consultation", "error fetching consultation details", "Could not load consultation details.", err)
		return nil
	}
	c := viewmodel.ConsultationDetails(*row, p.now())
	return &c
}

// HasReport reports whether the appointment links a report. Lookup failures count as no.
func (p *Patients) HasReport(ctx context.Context, appointmentID uuid.UUID) bool {
	id, err := p.appointments.ReportID(ctx, appointmentID)
	if err != nil {
		p.fail(ctx, "portal.HasReport", "error checking report existence", "", err)
		return false
	}
	return id != nil
}

// Book runs the booking workflow. Its errors are returned, not swallowed: the caller
// decides between a conflict and a failure.
func (p *Patients) Book(ctx context.Context, req booking.Request) (*booking.Result, error) {
	res, err := p.booker.Book(ctx, req)
	if err != nil {
		p.logger.ErrorContext(ctx, "booking error", "context", "portal.Book", "error", err)
		return nil, err
	}
	notice.Success(ctx, "Appointment booked.")
	return res, nil
}
