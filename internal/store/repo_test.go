package store

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	t.Cleanup(mock.Close)
	return mock
}

func TestLocationSearchSanitizesQuery(t *testing.T) {
	mock := newMock(t)
	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`(l.city ILIKE $1 ESCAPE '\' OR l.name ILIKE $1 ESCAPE '\')`)).
		WithArgs("%Warsaw Center%").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "address", "city"}).
			AddRow(id, "Center", "Main 1", "Warsaw"))

	got, err := NewLocationRepo(mock).Search(context.Background(), "", "Warsaw, Center")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, id, got[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLocationSearchTreatsWildcardsLiterally(t *testing.T) {
	mock := newMock(t)

	mock.ExpectQuery("FROM locations l").
		WithArgs(`%100\%\_care\\%`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "address", "city"}))

	got, err := NewLocationRepo(mock).Search(context.Background(), "", `100%_care\`)
	require.NoError(t, err)
	assert.Empty(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLocationSearchBySpecializationJoinsAvailability(t *testing.T) {
	mock := newMock(t)

	mock.ExpectQuery(`JOIN availability a ON a.location_id = l.id[\s\S]*d.specialization = \$1[\s\S]*ILIKE \$2`).
		WithArgs("Cardiology", "%kra%").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "address", "city"}))

	got, err := NewLocationRepo(mock).Search(context.Background(), "Cardiology", "kra")
	require.NoError(t, err)
	assert.Empty(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDoctorsAtLocationDecodesProfileArray(t *testing.T) {
	mock := newMock(t)
	locationID := uuid.New()
	doctorID := uuid.New()

	mock.ExpectQuery("FROM doctors d").
		WithArgs(locationID, nil).
		WillReturnRows(pgxmock.NewRows([]string{"id", "specialization", "profiles"}).
			AddRow(doctorID, "Cardiology", []byte(`[{"first_name":"Ann","last_name":"Lee"}]`)).
			AddRow(doctorID, "Cardiology", []byte(`{"first_name":"Ann","last_name":"Lee"}`)))

	rows, err := NewDoctorRepo(mock).AtLocation(context.Background(), locationID, "")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, r := range rows {
		assert.True(t, r.Profile.Valid)
		assert.Equal(t, "Ann", r.Profile.Value.FirstName)
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityLockReportsLostRace(t *testing.T) {
	mock := newMock(t)
	slotID, doctorID := uuid.New(), uuid.New()

	mock.ExpectExec("UPDATE availability").
		WithArgs(slotID, doctorID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("UPDATE availability").
		WithArgs(slotID, doctorID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	repo := NewAvailabilityRepo(mock)
	ok, err := repo.Lock(context.Background(), slotID, doctorID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Lock(context.Background(), slotID, doctorID)
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityInsertBatchCopiesRows(t *testing.T) {
	mock := newMock(t)
	start := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)

	mock.ExpectCopyFrom(pgx.Identifier{"availability"}, []string{"id", "doctor_id", "location_id", "start_time", "end_time", "is_booked"}).
		WillReturnResult(2)

	n, err := NewAvailabilityRepo(mock).InsertBatch(context.Background(), []NewSlot{
		{DoctorID: uuid.New(), LocationID: uuid.New(), StartTime: start, EndTime: start.Add(30 * time.Minute)},
		{DoctorID: uuid.New(), LocationID: uuid.New(), StartTime: start.Add(30 * time.Minute), EndTime: start.Add(time.Hour)},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdatePatientDetailsNoopWithoutInput(t *testing.T) {
	mock := newMock(t)

	err := NewProfileRepo(mock).UpdatePatientDetails(context.Background(), uuid.New(), "", nil)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdatePatientDetailsMissingProfile(t *testing.T) {
	mock := newMock(t)
	id := uuid.New()
	birth := time.Date(2000, 6, 15, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec("UPDATE profiles").
		WithArgs(id, "00261512345", birth).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := NewProfileRepo(mock).UpdatePatientDetails(context.Background(), id, "00261512345", &birth)
	assert.ErrorIs(t, err, ErrProfileNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileGetNotFound(t *testing.T) {
	mock := newMock(t)
	id := uuid.New()

	mock.ExpectQuery("FROM profiles").WithArgs(id).WillReturnError(pgx.ErrNoRows)

	_, err := NewProfileRepo(mock).Get(context.Background(), id)
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestConsultationDecodesNestedRelations(t *testing.T) {
	mock := newMock(t)
	id := uuid.New()
	doctorID := uuid.New()
	diagnosis := "Migraine"

	mock.ExpectQuery(`a.patient_id = \$2[\s\S]*a.doctor_id = \$3`).
		WithArgs(id, nil, doctorID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "reported_symptoms", "doctor_final_diagnosis", "patient", "doctor_link", "report"}).
			AddRow(id, "headache", &diagnosis,
				[]byte(`{"first_name":"Jan","last_name":"Nowak","pesel":null,"date_of_birth":"2000-06-15"}`),
				[]byte(`{"profiles":[{"first_name":"Ann","last_name":"Lee"}]}`),
				nil))

	c, err := NewAppointmentRepo(mock).Consultation(context.Background(), id, Participants{DoctorID: doctorID})
	require.NoError(t, err)
	assert.Equal(t, "Jan", c.Patient.Value.FirstName)
	assert.Equal(t, "2000-06-15", *c.Patient.Value.DateOfBirth)
	assert.Equal(t, "Lee", c.DoctorLink.Value.Profiles.Value.LastName)
	assert.False(t, c.Report.Valid)
}

func TestConsultationOfAnotherPatient(t *testing.T) {
	mock := newMock(t)
	id, patientID := uuid.New(), uuid.New()

	mock.ExpectQuery("FROM appointments a").
		WithArgs(id, patientID, nil).
		WillReturnError(pgx.ErrNoRows)

	_, err := NewAppointmentRepo(mock).Consultation(context.Background(), id, Participants{PatientID: patientID})
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCompleteOnlyOwnAppointment(t *testing.T) {
	mock := newMock(t)
	id, doctorID := uuid.New(), uuid.New()

	mock.ExpectExec(`WHERE id = \$1\s+AND doctor_id = \$2`).
		WithArgs(id, doctorID, AppointmentFinished, "Flu").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := NewAppointmentRepo(mock).Complete(context.Background(), id, doctorID, "Flu")
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentInsertSlotTaken(t *testing.T) {
	mock := newMock(t)

	mock.ExpectQuery("INSERT INTO appointments").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "appointments_availability_uniq"})
	mock.ExpectQuery("INSERT INTO appointments").
		WillReturnError(&pgconn.PgError{Code: "23503", ConstraintName: "appointments_patient_id_fkey"})

	repo := NewAppointmentRepo(mock)
	in := NewAppointment{PatientID: uuid.New(), DoctorID: uuid.New(), AvailabilityID: uuid.New(), VisitType: "In-person"}

	_, err := repo.Insert(context.Background(), in)
	assert.ErrorIs(t, err, ErrSlotTaken)

	_, err = repo.Insert(context.Background(), in)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSlotTaken)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRateMissing(t *testing.T) {
	mock := newMock(t)
	id := uuid.New()
	rating := RatingAccurate

	mock.ExpectExec("UPDATE reports").
		WithArgs(id, &rating, ReportCompleted).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := NewReportRepo(mock).Rate(context.Background(), id, &rating)
	assert.True(t, errors.Is(err, ErrReportNotFound))
}
