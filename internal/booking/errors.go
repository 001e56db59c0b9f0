package booking

import (
	"errors"
	"fmt"
)

var (
	ErrMissingPatient  = errors.New("patient id is required")
	ErrMissingDoctor   = errors.New("doctor id is required")
	ErrMissingSlot     = errors.New("slot id is required")
	ErrSlotUnavailable = errors.New("slot no longer available")
	ErrSlotBeingBooked = errors.New("slot is currently being booked, please retry")
)

type Step string

const (
	StepValidate    Step = "validate"
	StepProfile     Step = "profile"
	StepReport      Step = "report"
	StepAppointment Step = "appointment"
	StepSlotLock    Step = "slot_lock"
	StepTransaction Step = "transaction"
)

var stepMessages = map[Step]string{
	StepValidate:    "invalid booking request",
	StepProfile:     "failed to update patient data",
	StepReport:      "failed to save the report",
	StepAppointment: "failed to save the appointment data",
	StepSlotLock:    "error locking the selected appointment slot",
	StepTransaction: "failed to complete the booking",
}

// StepError reports which booking step failed.
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("booking: %s: %v", stepMessages[e.Step], e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Message is the user-facing description of the failed step.
func (e *StepError) Message() string {
	return stepMessages[e.Step]
}

// Conflict reports whether the failure is a lost race for the slot rather than a fault.
func (e *StepError) Conflict() bool {
	return errors.Is(e.Err, ErrSlotUnavailable) || errors.Is(e.Err, ErrSlotBeingBooked)
}

func stepErr(step Step, err error) error {
	return &StepError{Step: step, Err: err}
}
