package portal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-appointment-portal/internal/booking"
	"github.com/hackgods/clinic-appointment-portal/internal/identity"
	"github.com/hackgods/clinic-appointment-portal/internal/notice"
	"github.com/hackgods/clinic-appointment-portal/internal/store"
)

func TestLocationsFailureBecomesNotice(t *testing.T) {
	d := testDeps()
	d.Locations = &fakeLocations{err: errors.New("timeout")}
	ctx := notice.WithCollector(context.Background())

	got := New(d).Catalog.Locations(ctx, "", "War,saw")
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Equal(t, []notice.Notice{{Level: notice.LevelError, Message: "Could not load locations."}}, notice.List(ctx))
}

func TestLocationsDeduplicates(t *testing.T) {
	id := uuid.New()
	d := testDeps()
	d.Locations = &fakeLocations{rows: []store.Location{{ID: id, Name: "A"}, {ID: id, Name: "A"}}}

	assert.Len(t, New(d).Catalog.Locations(context.Background(), "Cardiology", ""), 1)
}

func TestDoctorsWithoutLocationSkipsStore(t *testing.T) {
	d := testDeps()
	docs := &fakeDoctors{}
	d.Doctors = docs

	got := New(d).Catalog.Doctors(context.Background(), uuid.Nil, "")
	assert.Empty(t, got)
	assert.Zero(t, docs.atLocCalls)
}

func TestOpenSlotsUsesDayBoundsAndNow(t *testing.T) {
	d := testDeps()
	slots := &fakeSlots{}
	d.Slots = slots

	day := time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC)
	got := New(d).Catalog.OpenSlots(context.Background(), uuid.New(), day, uuid.Nil)
	assert.Empty(t, got)
	require.Len(t, slots.openArgs, 3)
	assert.Equal(t, day, slots.openArgs[0])
	assert.Equal(t, day.Add(24*time.Hour-time.Nanosecond), slots.openArgs[1])
	assert.Equal(t, fixedNow, slots.openArgs[2])
}

func TestAddLocationSuccessNotice(t *testing.T) {
	ctx := notice.WithCollector(context.Background())
	loc := New(testDeps()).Catalog.AddLocation(ctx, store.NewLocation{Name: "Clinic", City: "Krakow"})
	require.NotNil(t, loc)
	assert.Equal(t, []notice.Notice{{Level: notice.LevelSuccess, Message: "Location added successfully."}}, notice.List(ctx))
}

func TestStatsDegradesFailedCount(t *testing.T) {
	d := testDeps()
	d.Appointments = &fakeAppointments{todayErr: errors.New("boom"), today: 9, patients: 4, ai: 2}

	got := New(d).Doctors.Stats(context.Background(), uuid.New())
	assert.Equal(t, Stats{TodayAppointments: 0, TotalPatients: 4, AIReports: 2}, got)
}

func TestCompleteAppointmentRatingFailureStillSucceeds(t *testing.T) {
	reportID := uuid.New()
	reports := &fakeReports{rateErr: errors.New("rls")}
	d := testDeps()
	d.Appointments = &fakeAppointments{reportID: &reportID}
	d.Reports = reports
	ctx := notice.WithCollector(context.Background())

	rating := store.RatingAccurate
	err := New(d).Doctors.CompleteAppointment(ctx, Completion{AppointmentID: uuid.New(), DoctorID: uuid.New(), Diagnosis: "Flu", AIRating: &rating})
	assert.NoError(t, err)
	assert.Equal(t, 1, reports.rateCalls)
	assert.Equal(t, []notice.Notice{{Level: notice.LevelWarning, Message: "Visit finished, but AI rating could not be saved."}}, notice.List(ctx))
}

func TestCompleteAppointmentWithoutReport(t *testing.T) {
	reports := &fakeReports{}
	appointments := &fakeAppointments{}
	d := testDeps()
	d.Reports = reports
	d.Appointments = appointments
	doctorID := uuid.New()

	assert.NoError(t, New(d).Doctors.CompleteAppointment(context.Background(), Completion{AppointmentID: uuid.New(), DoctorID: doctorID, Diagnosis: "Flu"}))
	assert.Equal(t, doctorID, appointments.completedBy)
	assert.Zero(t, reports.rateCalls)

	d.Appointments = &fakeAppointments{completeErr: errors.New("down")}
	assert.Error(t, New(d).Doctors.CompleteAppointment(context.Background(), Completion{AppointmentID: uuid.New()}))
}

func TestCompleteAppointmentOfAnotherDoctor(t *testing.T) {
	reports := &fakeReports{}
	d := testDeps()
	d.Reports = reports
	d.Appointments = &fakeAppointments{completeErr: store.ErrAppointmentNotFound}
	ctx := notice.WithCollector(context.Background())

	err := New(d).Doctors.CompleteAppointment(ctx, Completion{AppointmentID: uuid.New(), DoctorID: uuid.New(), Diagnosis: "Flu"})
	assert.ErrorIs(t, err, store.ErrAppointmentNotFound)
	assert.Zero(t, reports.rateCalls)
	assert.Equal(t, []notice.Notice{{Level: notice.LevelWarning, Message: "This visit is not on your schedule."}}, notice.List(ctx))
}

func TestConsultationScopedToParticipant(t *testing.T) {
	appointments := &fakeAppointments{}
	d := testDeps()
	d.Appointments = appointments
	patientID := uuid.New()

	assert.Nil(t, New(d).Patients.Consultation(context.Background(), uuid.New(), store.Participants{PatientID: patientID}))
	assert.Equal(t, store.Participants{PatientID: patientID}, appointments.consultWho)

	appointments.consultWho = store.Participants{DoctorID: uuid.New()}
	ctx := notice.WithCollector(context.Background())
	assert.Nil(t, New(d).Patients.Consultation(ctx, uuid.New(), store.Participants{}))
	assert.NotEqual(t, store.Participants{}, appointments.consultWho, "unscoped lookup must not reach the store")
	assert.Len(t, notice.List(ctx), 1)
}

func TestLockSlotTakenNotice(t *testing.T) {
	d := testDeps()
	d.Slots = &fakeSlots{locked: false}
	ctx := notice.WithCollector(context.Background())

	assert.False(t, New(d).Doctors.LockSlot(ctx, uuid.New(), uuid.New()))
	assert.Equal(t, "Could not reserve this time slot. It may already be taken.", notice.List(ctx)[0].Message)
}

func TestInsertSlotsForcesOwner(t *testing.T) {
	slots := &fakeSlots{}
	d := testDeps()
	d.Slots = slots
	owner := uuid.New()
	start := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)

	okay := New(d).Doctors.InsertSlots(context.Background(), owner, []store.NewSlot{
		{DoctorID: uuid.New(), LocationID: uuid.New(), StartTime: start, EndTime: start.Add(30 * time.Minute)},
	})
	require.True(t, okay)
	assert.Equal(t, owner, slots.inserted[0].DoctorID)
}

func TestPatientAppointmentsUpcomingFilter(t *testing.T) {
	appts := &fakeAppointments{}
	d := testDeps()
	d.Appointments = appts
	p := New(d).Patients

	p.Appointments(context.Background(), uuid.New(), true)
	require.NotNil(t, appts.after)
	assert.Equal(t, fixedNow, *appts.after)

	p.Appointments(context.Background(), uuid.New(), false)
	assert.Nil(t, appts.after)
}

func TestBookPassesErrorThrough(t *testing.T) {
	d := testDeps()
	want := &booking.StepError{Step: booking.StepSlotLock, Err: booking.ErrSlotUnavailable}
	d.Booker = &fakeBooker{err: want}

	_, err := New(d).Patients.Book(context.Background(), booking.Request{})
	assert.ErrorIs(t, err, booking.ErrSlotUnavailable)
}

func TestListDoctorsMergesAndSorts(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	early, late := time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	d := testDeps()
	d.Profiles = &fakeProfiles{list: []store.Profile{
		{ID: a, FirstName: "Zed", LastName: "Old"},
		{ID: b, FirstName: "Amy", LastName: "New"},
	}}
	d.Doctors = &fakeDoctors{list: []store.Doctor{
		{ID: a, Specialization: "ENT", WorkStartDate: &early},
		{ID: b, Specialization: "Cardiology", WorkStartDate: &late},
	}}
	d.Accounts = &fakeAccounts{accounts: []identity.Account{{ID: a, Email: "zed@example.com"}}}
	admin := New(d).Admin

	items, res := admin.ListDoctors(context.Background(), "")
	require.True(t, res.Success)
	require.Len(t, items, 2)
	assert.Equal(t, b, items[0].ID)
	assert.Equal(t, "zed@example.com", items[1].Email)

	items, res = admin.ListDoctors(context.Background(), "ent")
	require.True(t, res.Success)
	require.Len(t, items, 1)
	assert.Equal(t, a, items[0].ID)
}

func TestListDoctorsFailure(t *testing.T) {
	d := testDeps()
	d.Profiles = &fakeProfiles{listErr: errors.New("permission denied")}

	items, res := New(d).Admin.ListDoctors(context.Background(), "")
	assert.Empty(t, items)
	assert.False(t, res.Success)
	assert.Equal(t, "permission denied", res.Error)
}

func TestDeleteDoctorReportsAccountFailure(t *testing.T) {
	d := testDeps()
	d.Accounts = &fakeAccounts{deleteErr: identity.ErrAccountNotFound}

	res := New(d).Admin.DeleteDoctor(context.Background(), uuid.New())
	assert.Equal(t, Result{Success: false, Error: "account not found"}, res)
}

func TestCreateDoctorStopsAtFirstFailure(t *testing.T) {
	profiles := &fakeProfiles{}
	d := testDeps()
	d.Profiles = profiles
	d.Accounts = &fakeAccounts{createErr: identity.ErrEmailTaken}

	res := New(d).Admin.CreateDoctor(context.Background(), NewDoctor{Email: "a@b.c", Password: "secret1"})
	assert.False(t, res.Success)
	assert.Empty(t, profiles.inserted)

	d.Accounts = &fakeAccounts{}
	res = New(d).Admin.CreateDoctor(context.Background(), NewDoctor{Email: "a@b.c", Password: "secret1", FirstName: "Ann"})
	assert.True(t, res.Success)
	require.Len(t, profiles.inserted, 1)
	assert.Equal(t, store.RoleDoctor, profiles.inserted[0].Role)
}

func TestUpdateDoctorSkipsNamesWhenEmpty(t *testing.T) {
	profiles := &fakeProfiles{}
	d := testDeps()
	d.Profiles = profiles

	res := New(d).Admin.UpdateDoctor(context.Background(), uuid.New(), DoctorUpdate{Specialization: "ENT"})
	assert.True(t, res.Success)
	assert.Zero(t, profiles.namesCalls)
}

func TestLoginIssuesRoleToken(t *testing.T) {
	id := uuid.New()
	d := testDeps()
	d.Accounts = &fakeAccounts{created: &identity.Account{ID: id}}
	d.Profiles = &fakeProfiles{byID: map[uuid.UUID]*store.Profile{id: {ID: id, Role: store.RoleAdmin}}}
	d.Tokens = fakeTokens{}

	sess, err := New(d).Auth.Login(context.Background(), "a@b.c", "pw")
	require.NoError(t, err)
	assert.Equal(t, store.RoleAdmin, sess.Role)
	assert.Equal(t, "token-admin-"+id.String(), sess.Token)

	d.Profiles = &fakeProfiles{}
	_, err = New(d).Auth.Login(context.Background(), "a@b.c", "pw")
	assert.ErrorIs(t, err, identity.ErrInvalidCredentials)
}

func TestRegisterCreatesPatient(t *testing.T) {
	profiles := &fakeProfiles{}
	d := testDeps()
	d.Profiles = profiles
	d.Tokens = fakeTokens{}

	sess, err := New(d).Auth.Register(context.Background(), Registration{Email: "p@x.y", Password: "secret1", FirstName: "Jan"})
	require.NoError(t, err)
	assert.Equal(t, store.RolePatient, sess.Role)
	require.Len(t, profiles.inserted, 1)
	assert.Equal(t, sess.UserID, profiles.inserted[0].ID)
}

func TestProfileMissingBecomesNotice(t *testing.T) {
	ctx := notice.WithCollector(context.Background())

	assert.Nil(t, New(testDeps()).Patients.Profile(ctx, uuid.New()))
	assert.Equal(t, []notice.Notice{{Level: notice.LevelError, Message: "Could not load your profile."}}, notice.List(ctx))
}

func TestSlotsForDateFormatsAndDeleteFailure(t *testing.T) {
	start := time.Date(2025, 3, 5, 9, 30, 0, 0, time.UTC)
	d := testDeps()
	d.Slots = &fakeSlots{open: []store.Slot{{ID: uuid.New(), StartTime: start, EndTime: start.Add(30 * time.Minute)}}}
	doctors := New(d).Doctors

	got := doctors.SlotsForDate(context.Background(), uuid.New(), start)
	require.Len(t, got, 1)
	assert.Equal(t, "09:30", got[0].Start)
	assert.Equal(t, "10:00", got[0].End)

	d.Slots = &fakeSlots{err: errors.New("down")}
	ctx := notice.WithCollector(context.Background())
	assert.Zero(t, New(d).Doctors.DeleteSlots(ctx, uuid.New(), start))
	assert.Equal(t, "Could not clear slots for this date.", notice.List(ctx)[0].Message)
}

func TestHasReport(t *testing.T) {
	reportID := uuid.New()
	d := testDeps()
	d.Appointments = &fakeAppointments{reportID: &reportID}
	assert.True(t, New(d).Patients.HasReport(context.Background(), uuid.New()))

	d.Appointments = &fakeAppointments{}
	assert.False(t, New(d).Patients.HasReport(context.Background(), uuid.New()))
}

func TestVisitsAndReportsNeverNil(t *testing.T) {
	a := New(testDeps()).Admin

	visits, res := a.Visits(context.Background(), nil, nil)
	assert.True(t, res.Success)
	assert.NotNil(t, visits)

	reports, res := a.Reports(context.Background(), nil, nil)
	assert.True(t, res.Success)
	assert.NotNil(t, reports)
}

func TestReportHistoryEmpty(t *testing.T) {
	got := New(testDeps()).Patients.ReportHistory(context.Background(), uuid.New())
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
