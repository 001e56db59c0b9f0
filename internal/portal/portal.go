// Package portal is the service layer behind the HTTP handlers. Read paths never
// surface store errors: they log the failure with a call-site tag, record a notice
// for the user and return an empty result.
package portal

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-appointment-portal/internal/booking"
	"github.com/hackgods/clinic-appointment-portal/internal/identity"
	"github.com/hackgods/clinic-appointment-portal/internal/logrelay"
	"github.com/hackgods/clinic-appointment-portal/internal/notice"
	"github.com/hackgods/clinic-appointment-portal/internal/store"
	"github.com/hackgods/clinic-appointment-portal/pkg/logging"
)

var errSlotTaken = errors.New("slot already booked or not owned by doctor")

type ProfileStore interface {
	Get(ctx context.Context, id uuid.UUID) (*store.Profile, error)
	ListByRole(ctx context.Context, role store.Role) ([]store.Profile, error)
	Insert(ctx context.Context, p store.Profile) error
	UpdatePatientDetails(ctx context.Context, id uuid.UUID, pesel string, birthDate *time.Time) error
	UpdateNames(ctx context.Context, id uuid.UUID, firstName, lastName string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type DoctorStore interface {
	Specializations(ctx context.Context) ([]string, error)
	AtLocation(ctx context.Context, locationID uuid.UUID, specialization string) ([]store.DoctorRow, error)
	Get(ctx context.Context, id uuid.UUID) (*store.Doctor, error)
	List(ctx context.Context) ([]store.Doctor, error)
	Insert(ctx context.Context, d store.Doctor) error
	Update(ctx context.Context, id uuid.UUID, specialization string, workStart *time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type LocationStore interface {
	Insert(ctx context.Context, in store.NewLocation) (*store.Location, error)
	Search(ctx context.Context, specialization, query string) ([]store.Location, error)
}

type SlotStore interface {
	ForDay(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]store.Slot, error)
	Open(ctx context.Context, doctorID, locationID uuid.UUID, from, to, now time.Time) ([]store.Slot, error)
	DeleteUnbooked(ctx context.Context, doctorID uuid.UUID, from, to time.Time) (int64, error)
	InsertBatch(ctx context.Context, slots []store.NewSlot) (int64, error)
	Lock(ctx context.Context, slotID, doctorID uuid.UUID) (bool, error)
	BookedStarts(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]time.Time, error)
}

type AppointmentStore interface {
	ForPatient(ctx context.Context, patientID uuid.UUID, after *time.Time) ([]store.PatientAppointmentRow, error)
	Consultation(ctx context.Context, id uuid.UUID, who store.Participants) (*store.ConsultationRow, error)
	ReportID(ctx context.Context, appointmentID uuid.UUID) (*uuid.UUID, error)
	Complete(ctx context.Context, id, doctorID uuid.UUID, diagnosis string) error
	CountInRange(ctx context.Context, doctorID uuid.UUID, from, to time.Time) (int, error)
	CountUniquePatients(ctx context.Context, doctorID uuid.UUID) (int, error)
	CountWithAIReport(ctx context.Context, doctorID uuid.UUID) (int, error)
	Visits(ctx context.Context, from, to *time.Time) ([]store.Visit, error)
}

type ReportStore interface {
	Insert(ctx context.Context, patientID uuid.UUID, p store.ReportPayload) (uuid.UUID, error)
	HistoryForPatient(ctx context.Context, patientID uuid.UUID) ([]store.ReportHistoryRow, error)
	Rate(ctx context.Context, id uuid.UUID, rating *string) error
	List(ctx context.Context, from, to *time.Time) ([]store.Report, error)
}

type AccountStore interface {
	CreateAccount(ctx context.Context, in identity.NewAccount) (*identity.Account, error)
	DeleteAccount(ctx context.Context, id uuid.UUID) error
	ListAccounts(ctx context.Context) ([]identity.Account, error)
	UpdateMetadata(ctx context.Context, id uuid.UUID, metadata map[string]any) error
	Authenticate(ctx context.Context, email, password string) (*identity.Account, error)
}

type Booker interface {
	Book(ctx context.Context, req booking.Request) (*booking.Result, error)
}

type TokenIssuer interface {
	Issue(userID uuid.UUID, role store.Role) (string, error)
}

type Deps struct {
	Profiles     ProfileStore
	Doctors      DoctorStore
	Locations    LocationStore
	Slots        SlotStore
	Appointments AppointmentStore
	Reports      ReportStore
	Accounts     AccountStore
	Booker       Booker
	Tokens       TokenIssuer
	Logger       *logging.Logger
	Relay        *logrelay.Client
	Location     *time.Location
	Now          func() time.Time
}

// NewStoreDeps wires the PostgreSQL repositories behind every store interface.
func NewStoreDeps(db store.DB) Deps {
	return Deps{
		Profiles:     store.NewProfileRepo(db),
		Doctors:      store.NewDoctorRepo(db),
		Locations:    store.NewLocationRepo(db),
		Slots:        store.NewAvailabilityRepo(db),
		Appointments: store.NewAppointmentRepo(db),
		Reports:      store.NewReportRepo(db),
		Accounts:     identity.NewService(db),
	}
}

type Portal struct {
	Catalog  *Catalog
	Patients *Patients
	Doctors  *Doctors
	Admin    *Admin
	Auth     *Auth
}

func New(d Deps) *Portal {
	if d.Logger == nil {
		d.Logger = logging.Default()
	}
	if d.Location == nil {
		d.Location = time.UTC
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	b := base{logger: d.Logger, relay: d.Relay, loc: d.Location, now: d.Now}
	return &Portal{
		Catalog:  &Catalog{base: b, doctors: d.Doctors, locations: d.Locations, slots: d.Slots},
		Patients: &Patients{base: b, profiles: d.Profiles, appointments: d.Appointments, reports: d.Reports, booker: d.Booker},
		Doctors:  &Doctors{base: b, appointments: d.Appointments, reports: d.Reports, slots: d.Slots},
		Admin:    &Admin{base: b, accounts: d.Accounts, profiles: d.Profiles, doctors: d.Doctors, appointments: d.Appointments, reports: d.Reports},
		Auth:     &Auth{base: b, accounts: d.Accounts, profiles: d.Profiles, tokens: d.Tokens},
	}
}

type base struct {
	logger *logging.Logger
	relay  *logrelay.Client
	loc    *time.Location
	now    func() time.Time
}

// fail logs err under tag and, when userMsg is set, tells the user.
func (b base) fail(ctx context.Context, tag, logMsg, userMsg string, err error) {
	b.logger.ErrorContext(ctx, logMsg, "context", tag, "error", err)
	b.relay.Error(logMsg, err, tag)
	if userMsg != "" {
		notice.Error(ctx, userMsg)
	}
}

func (b base) warn(ctx context.Context, tag, logMsg, userMsg string, err error) {
	b.logger.WarnContext(ctx, logMsg, "context", tag, "error", err)
	b.relay.Warn(logMsg, tag)
	if userMsg != "" {
		notice.Warning(ctx, userMsg)
	}
}

// dayRange covers one calendar day in the portal's time zone.
func (b base) dayRange(day time.Time) (time.Time, time.Time) {
	y, m, d := day.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, b.loc)
	return start, start.Add(24*time.Hour - time.Nanosecond)
}

// Result mirrors what admin actions report back: success, or a failure message.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func ok() Result { return Result{Success: true} }

func failed(err error) Result { return Result{Success: false, Error: err.Error()} }
