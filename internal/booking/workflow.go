// Package booking turns a patient's slot choice into a persisted appointment.
// Profile enrichment, report insert, appointment insert and the slot flip run in
// one transaction under a short per-slot Redis lock.
package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-appointment-portal/internal/metrics"
	redisclient "github.com/hackgods/clinic-appointment-portal/internal/redis"
	"github.com/hackgods/clinic-appointment-portal/internal/store"
	"github.com/hackgods/clinic-appointment-portal/pkg/logging"
)

type Request struct {
	PatientID        uuid.UUID
	DoctorID         uuid.UUID
	SlotID           uuid.UUID
	Pesel            string
	BirthDate        *time.Time
	VisitType        string
	ReportedSymptoms string
	Report           *store.ReportPayload
}

type Result struct {
	AppointmentID uuid.UUID  `json:"appointment_id"`
	ReportID      *uuid.UUID `json:"report_id,omitempty"`
}

type Workflow struct {
	db      store.DB
	locker  redisclient.Locker
	logger  *logging.Logger
	metrics *metrics.Metrics
}

func NewWorkflow(db store.DB, locker redisclient.Locker, logger *logging.Logger, m *metrics.Metrics) *Workflow {
	if locker == nil {
		locker = redisclient.NopLocker{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Workflow{db: db, locker: locker, logger: logger, metrics: m}
}

func (r Request) validate() error {
	switch {
	case r.PatientID == uuid.Nil:
		return ErrMissingPatient
	case r.DoctorID == uuid.Nil:
		return ErrMissingDoctor
	case r.SlotID == uuid.Nil:
		return ErrMissingSlot
	}
	return nil
}

// Book runs the booking steps in order. Any failure rolls back every write and is
// returned as a *StepError.
func (w *Workflow) Book(ctx context.Context, req Request) (*Result, error) {
	if err := req.validate(); err != nil {
		w.metrics.ObserveBooking("invalid")
		return nil, stepErr(StepValidate, err)
	}

	var res *Result
	err := w.locker.WithSlotLock(ctx, req.SlotID, func(lockCtx context.Context) error {
		var err error
		res, err = w.book(lockCtx, req)
		return err
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			err = stepErr(StepSlotLock, ErrSlotBeingBooked)
		}
		var se *StepError
		if !errors.As(err, &se) {
			err = stepErr(StepTransaction, err)
			se = err.(*StepError)
		}
		w.metrics.ObserveBooking(outcome(se))
		w.logger.Warn("booking failed",
			"step", se.Step,
			"slot_id", req.SlotID,
			"patient_id", req.PatientID,
			"error", se.Err,
		)
		return nil, err
	}

	w.metrics.ObserveBooking("booked")
	w.logger.Info("appointment booked",
		"appointment_id", res.AppointmentID,
		"slot_id", req.SlotID,
		"patient_id", req.PatientID,
	)
	return res, nil
}

func (w *Workflow) book(ctx context.Context, req Request) (*Result, error) {
	var res Result
	err := inTx(ctx, w.db, func(tx store.DB) error {
		if err := store.NewProfileRepo(tx).UpdatePatientDetails(ctx, req.PatientID, req.Pesel, req.BirthDate); err != nil {
			return stepErr(StepProfile, err)
		}

		if req.Report != nil {
			id, err := store.NewReportRepo(tx).Insert(ctx, req.PatientID, *req.Report)
			if err != nil {
				return stepErr(StepReport, err)
			}
			res.ReportID = &id
		}

		id, err := store.NewAppointmentRepo(tx).Insert(ctx, store.NewAppointment{
			PatientID:        req.PatientID,
			DoctorID:         req.DoctorID,
			AvailabilityID:   req.SlotID,
			ReportID:         res.ReportID,
			VisitType:        req.VisitType,
			ReportedSymptoms: req.ReportedSymptoms,
		})
		if errors.Is(err, store.ErrSlotTaken) {
			return stepErr(StepSlotLock, ErrSlotUnavailable)
		}
		if err != nil {
			return stepErr(StepAppointment, err)
		}
		res.AppointmentID = id

		locked, err := store.NewAvailabilityRepo(tx).Lock(ctx, req.SlotID, req.DoctorID)
		if err != nil {
			return stepErr(StepSlotLock, err)
		}
		if !locked {
			return stepErr(StepSlotLock, ErrSlotUnavailable)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func inTx(ctx context.Context, db store.DB, fn func(tx store.DB) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(context.WithoutCancel(ctx))
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func outcome(se *StepError) string {
	switch {
	case errors.Is(se.Err, ErrSlotUnavailable):
		return "slot_unavailable"
	case errors.Is(se.Err, ErrSlotBeingBooked):
		return "slot_being_booked"
	default:
		return "failed_" + string(se.Step)
	}
}
