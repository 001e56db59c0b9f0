package portal

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-appointment-portal/internal/booking"
	"github.com/hackgods/clinic-appointment-portal/internal/identity"
	"github.com/hackgods/clinic-appointment-portal/internal/store"
	"github.com/hackgods/clinic-appointment-portal/pkg/logging"
)

var fixedNow = time.Date(2025, time.March, 3, 10, 0, 0, 0, time.UTC)

func testDeps() Deps {
	return Deps{
		Profiles:     &fakeProfiles{},
		Doctors:      &fakeDoctors{},
		Locations:    &fakeLocations{},
		Slots:        &fakeSlots{},
		Appointments: &fakeAppointments{},
		Reports:      &fakeReports{},
		Accounts:     &fakeAccounts{},
		Logger:       logging.NewWithWriter("error", io.Discard),
		Now:          func() time.Time { return fixedNow },
	}
}

type fakeProfiles struct {
	byID       map[uuid.UUID]*store.Profile
	list       []store.Profile
	listErr    error
	inserted   []store.Profile
	updateErr  error
	deleteErr  error
	namesCalls int
}

func (f *fakeProfiles) Get(_ context.Context, id uuid.UUID) (*store.Profile, error) {
	if p, ok := f.byID[id]; ok {
		return p, nil
	}
	return nil, store.ErrProfileNotFound
}
func (f *fakeProfiles) ListByRole(context.Context, store.Role) ([]store.Profile, error) {
	return f.list, f.listErr
}
func (f *fakeProfiles) Insert(_ context.Context, p store.Profile) error {
	f.inserted = append(f.inserted, p)
	return nil
}
func (f *fakeProfiles) UpdatePatientDetails(context.Context, uuid.UUID, string, *time.Time) error {
	return f.updateErr
}
func (f *fakeProfiles) UpdateNames(context.Context, uuid.UUID, string, string) error {
	f.namesCalls++
	return nil
}
func (f *fakeProfiles) Delete(context.Context, uuid.UUID) error { return f.deleteErr }

type fakeDoctors struct {
	specs      []string
	rows       []store.DoctorRow
	list       []store.Doctor
	err        error
	atLocCalls int
}

func (f *fakeDoctors) Specializations(context.Context) ([]string, error) { return f.specs, f.err }
func (f *fakeDoctors) AtLocation(context.Context, uuid.UUID, string) ([]store.DoctorRow, error) {
	f.atLocCalls++
	return f.rows, f.err
}
func (f *fakeDoctors) Get(_ context.Context, id uuid.UUID) (*store.Doctor, error) {
	for _, d := range f.list {
		if d.ID == id {
			return &d, nil
		}
	}
	return nil, store.ErrDoctorNotFound
}
func (f *fakeDoctors) List(context.Context) ([]store.Doctor, error) { return f.list, f.err }
func (f *fakeDoctors) Insert(context.Context, store.Doctor) error { return f.err }
func (f *fakeDoctors) Delete(context.Context, uuid.UUID) error { return f.err }
func (f *fakeDoctors) Update(context.Context, uuid.UUID, string, *time.Time) error { return f.err }

type fakeLocations struct {
	rows []store.Location
	err  error
}

func (f *fakeLocations) Insert(_ context.Context, in store.NewLocation) (*store.Location, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &store.Location{ID: uuid.New(), Name: in.Name, Address: in.Address, City: in.City}, nil
}
func (f *fakeLocations) Search(context.Context, string, string) ([]store.Location, error) {
	return f.rows, f.err
}

type fakeSlots struct {
	open     []store.Slot
	openArgs []time.Time
	inserted []store.NewSlot
	locked   bool
	lockErr  error
	booked   []time.Time
	err      error
}

func (f *fakeSlots) ForDay(context.Context, uuid.UUID, time.Time, time.Time) ([]store.Slot, error) {
	return f.open, f.err
}
func (f *fakeSlots) Open(_ context.Context, _, _ uuid.UUID, from, to, now time.Time) ([]store.Slot, error) {
	f.openArgs = []time.Time{from, to, now}
	return f.open, f.err
}
func (f *fakeSlots) DeleteUnbooked(context.Context, uuid.UUID, time.Time, time.Time) (int64, error) {
	return 0, f.err
}
func (f *fakeSlots) InsertBatch(_ context.Context, s []store.NewSlot) (int64, error) {
	f.inserted = s
	return int64(len(s)), f.err
}
func (f *fakeSlots) Lock(context.Context, uuid.UUID, uuid.UUID) (bool, error) {
	return f.locked, f.lockErr
}
func (f *fakeSlots) BookedStarts(context.Context, uuid.UUID, time.Time, time.Time) ([]time.Time, error) {
	return f.booked, f.err
}

type fakeAppointments struct {
	rows        []store.PatientAppointmentRow
	after       *time.Time
	reportID    *uuid.UUID
	completeErr error
	completedBy uuid.UUID
	consultWho  store.Participants
	today       int
	todayErr    error
	patients    int
	ai          int
	visits      []store.Visit
}

func (f *fakeAppointments) ForPatient(_ context.Context, _ uuid.UUID, after *time.Time) ([]store.PatientAppointmentRow, error) {
	f.after = after
	return f.rows, nil
}
func (f *fakeAppointments) Consultation(_ context.Context, _ uuid.UUID, who store.Participants) (*store.ConsultationRow, error) {
	f.consultWho = who
	return nil, store.ErrAppointmentNotFound
}
func (f *fakeAppointments) ReportID(context.Context, uuid.UUID) (*uuid.UUID, error) {
	return f.reportID, nil
}
func (f *fakeAppointments) Complete(_ context.Context, _, doctorID uuid.UUID, _ string) error {
	f.completedBy = doctorID
	return f.completeErr
}
func (f *fakeAppointments) CountInRange(context.Context, uuid.UUID, time.Time, time.Time) (int, error) {
	return f.today, f.todayErr
}
func (f *fakeAppointments) CountUniquePatients(context.Context, uuid.UUID) (int, error) {
	return f.patients, nil
}
func (f *fakeAppointments) CountWithAIReport(context.Context, uuid.UUID) (int, error) {
	return f.ai, nil
}
func (f *fakeAppointments) Visits(context.Context, *time.Time, *time.Time) ([]store.Visit, error) {
	return f.visits, nil
}

type fakeReports struct {
	rateErr   error
	rateCalls int
}

func (f *fakeReports) Insert(context.Context, uuid.UUID, store.ReportPayload) (uuid.UUID, error) {
	return uuid.New(), nil
}
func (f *fakeReports) HistoryForPatient(context.Context, uuid.UUID) ([]store.ReportHistoryRow, error) {
	return nil, nil
}
func (f *fakeReports) Rate(context.Context, uuid.UUID, *string) error {
	f.rateCalls++
	return f.rateErr
}
func (f *fakeReports) List(context.Context, *time.Time, *time.Time) ([]store.Report, error) {
	return nil, nil
}

type fakeAccounts struct {
	accounts  []identity.Account
	created   *identity.Account
	createErr error
	deleteErr error
	authErr   error
}

func (f *fakeAccounts) CreateAccount(_ context.Context, in identity.NewAccount) (*identity.Account, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.created != nil {
		return f.created, nil
	}
	return &identity.Account{ID: uuid.New(), Email: in.Email}, nil
}
func (f *fakeAccounts) DeleteAccount(context.Context, uuid.UUID) error { return f.deleteErr }
func (f *fakeAccounts) ListAccounts(context.Context) ([]identity.Account, error) {
	return f.accounts, nil
}
func (f *fakeAccounts) UpdateMetadata(context.Context, uuid.UUID, map[string]any) error { return nil }
func (f *fakeAccounts) Authenticate(context.Context, string, string) (*identity.Account, error) {
	if f.authErr != nil {
		return nil, f.authErr
	}
	if f.created != nil {
		return f.created, nil
	}
	return nil, identity.ErrInvalidCredentials
}

type fakeBooker struct {
	err error
}

func (f *fakeBooker) Book(context.Context, booking.Request) (*booking.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &booking.Result{AppointmentID: uuid.New()}, nil
}

type fakeTokens struct{}

func (fakeTokens) Issue(id uuid.UUID, role store.Role) (string, error) {
	return "token-" + string(role) + "-" + id.String(), nil
}
