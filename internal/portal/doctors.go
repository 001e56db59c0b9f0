package portal

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hackgods/clinic-appointment-portal/internal/store"
	"github.com/hackgods/clinic-appointment-portal/internal/viewmodel"
)

type Doctors struct {
	base
	appointments AppointmentStore
	reports      ReportStore
	slots        SlotStore
}

type Stats struct {
	TodayAppointments int `json:"today_appointments"`
	TotalPatients     int `json:"total_patients"`
	AIReports         int `json:"ai_reports"`
}

// Stats runs the three dashboard counts concurrently. A failed count reads as 0.
func (d *Doctors) Stats(ctx context.Context, doctorID uuid.UUID) Stats {
	var s Stats
	from, to := d.dayRange(d.now().In(d.loc))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := d.appointments.CountInRange(gctx, doctorID, from, to)
		if err != nil {
			d.fail(ctx, "portal.Stats/today", "error counting today appointments", "", err)
			n = 0
		}
		s.TodayAppointments = n
		return nil
	})
	g.Go(func() error {
		n, err := d.appointments.CountUniquePatients(gctx, doctorID)
		if err != nil {
			d.fail(ctx, "portal.Stats/patients", "error counting unique patients", "", err)
			n = 0
		}
		s.TotalPatients = n
		return nil
	})
	g.Go(func() error {
		n, err := d.appointments.CountWithAIReport(gctx, doctorID)
		if err != nil {
			d.fail(ctx, "portal.Stats/ai", "error counting ai appointments", "", err)
			n = 0
		}
		s.AIReports = n
		return nil
	})
	_ = g.Wait()
	return s
}

type Completion struct {
	AppointmentID uuid.UUID
	DoctorID      uuid.UUID
	Diagnosis     string
	AIRating      *string
}

// CompleteAppointment finishes one of the doctor's visits and, when a report is
// linked, stores the doctor's rating of it. A failed rating still counts as a
// completed visit. An appointment the doctor does not own returns
// store.ErrAppointmentNotFound.
func (d *Doctors) CompleteAppointment(ctx context.Context, c Completion) error {
	if err := d.appointments.Complete(ctx, c.AppointmentID, c.DoctorID, c.Diagnosis); err != nil {
		if errors.Is(err, store.ErrAppointmentNotFound) {
			d.warn(ctx, "portal.CompleteAppointment/update", "appointment not found for doctor", "This visit is not on your schedule.", err)
			return err
		}
		d.fail(ctx, "portal.CompleteAppointment/update", "error updating appointment status", "Could not complete the visit.", err)
		return err
	}

	reportID, err := d.appointments.ReportID(ctx, c.AppointmentID)
	if err != nil {
		d.fail(ctx, "portal.CompleteAppointment/reportID", "could not fetch report_id for appointment", "", err)
		return nil
	}
	if reportID == nil {
		return nil
	}

	if err := d.reports.Rate(ctx, *reportID, c.AIRating); err != nil {
		d.warn(ctx, "portal.CompleteAppointment/rate",
			"error updating AI report feedback (AI rating could not be saved)",
			"Visit finished, but AI rating could not be saved.", err)
	}
	return nil
}

func (d *Doctors) SlotsForDate(ctx context.Context, doctorID uuid.UUID, day time.Time) []viewmodel.DailySlot {
	from, to := d.dayRange(day)
	rows, err := d.slots.ForDay(ctx, doctorID, from, to)
	if err != nil {
		d.fail(ctx, "portal.SlotsForDate", "error fetching slots", "Could not load slots for this date.", err)
		return []viewmodel.DailySlot{}
	}
	return viewmodel.DailySlots(rows)
}

// DeleteSlots clears the doctor's unbooked slots on day and returns how many went.
func (d *Doctors) DeleteSlots(ctx context.Context, doctorID uuid.UUID, day time.Time) int64 {
	from, to := d.dayRange(day)
	n, err := d.slots.DeleteUnbooked(ctx, doctorID, from, to)
	if err != nil {
		d.fail(ctx, "portal.DeleteSlots", "error executing delete slots", "Could not clear slots for this date.", err)
		return 0
	}
	return n
}

// InsertSlots stores a batch of slots owned by doctorID, whatever the input says.
func (d *Doctors) InsertSlots(ctx context.Context, doctorID uuid.UUID, slots []store.NewSlot) bool {
	batch := make([]store.NewSlot, len(slots))
	for i, s := range slots {
		s.DoctorID = doctorID
		batch[i] = s
	}
	if _, err := d.slots.InsertBatch(ctx, batch); err != nil {
		d.fail(ctx, "portal.InsertSlots", "error inserting slots", "Could not save your schedule. Please try again.", err)
		return false
	}
	return true
}

func (d *Doctors) LockSlot(ctx context.Context, doctorID, slotID uuid.UUID) bool {
	locked, err := d.slots.Lock(ctx, slotID, doctorID)
	if err == nil && !locked {
		err = errSlotTaken
	}
	if err != nil {
		d.fail(ctx, "portal.LockSlot", "error locking appointment slot", "Could not reserve this time slot. It may already be taken.", err)
		return false
	}
	return true
}

// OccupiedDates lists the days between from and to holding a booked slot.
func (d *Doctors) OccupiedDates(ctx context.Context, doctorID uuid.UUID, from, to time.Time) []string {
	start, _ := d.dayRange(from)
	_, end := d.dayRange(to)
	starts, err := d.slots.BookedStarts(ctx, doctorID, start, end)
	if err != nil {
		d.fail(ctx, "portal.OccupiedDates", "error checking availability", "Could not load availability.", err)
		return []string{}
	}
	return viewmodel.OccupiedDates(starts)
}
