package booking

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-appointment-portal/internal/metrics"
	redisclient "github.com/hackgods/clinic-appointment-portal/internal/redis"
	"github.com/hackgods/clinic-appointment-portal/internal/store"
	"github.com/hackgods/clinic-appointment-portal/pkg/logging"
)

type fixture struct {
	mock     pgxmock.PgxPoolIface
	workflow *Workflow
	req      Request
}

func newFixture(t *testing.T, locker redisclient.Locker) *fixture {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	logger := logging.NewWithWriter("debug", io.Discard)
	m := metrics.New(prometheus.NewRegistry())
	return &fixture{
		mock:     mock,
		workflow: NewWorkflow(mock, locker, logger, m),
		req: Request{
			PatientID:        uuid.New(),
			DoctorID:         uuid.New(),
			SlotID:           uuid.New(),
			VisitType:        "In-person",
			ReportedSymptoms: "cough",
		},
	}
}

func (f *fixture) expectAppointmentInsert(reportID any, id uuid.UUID) {
	f.mock.ExpectQuery("INSERT INTO appointments").
		WithArgs(pgxmock.AnyArg(), f.req.PatientID, f.req.DoctorID, f.req.SlotID, reportID, f.req.VisitType, f.req.ReportedSymptoms, store.AppointmentPending).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(id))
}

func TestBookWithoutReport(t *testing.T) {
	f := newFixture(t, redisclient.NopLocker{})
	apptID := uuid.New()

	f.mock.ExpectBegin()
	f.expectAppointmentInsert(nil, apptID)
	f.mock.ExpectExec("UPDATE availability").
		WithArgs(f.req.SlotID, f.req.DoctorID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	f.mock.ExpectCommit()

	res, err := f.workflow.Book(context.Background(), f.req)
	require.NoError(t, err)
	assert.Equal(t, apptID, res.AppointmentID)
	assert.Nil(t, res.ReportID)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestBookWithReportInsertsReportFirst(t *testing.T) {
	f := newFixture(t, redisclient.NopLocker{})
	f.req.Pesel = "00261512345"
	f.req.Report = &store.ReportPayload{
		ReportedSummary:    "Headache for three days",
		SicknessDuration:   "3 days",
		AIPrimaryDiagnosis: "Migraine",
		AIConfidenceScore:  0.8,
	}
	reportID, apptID := uuid.New(), uuid.New()

	f.mock.ExpectBegin()
	f.mock.ExpectExec("UPDATE profiles").
		WithArgs(f.req.PatientID, f.req.Pesel, nil).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	f.mock.ExpectQuery("INSERT INTO reports").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(reportID))
	f.expectAppointmentInsert(reportID, apptID)
	f.mock.ExpectExec("UPDATE availability").
		WithArgs(f.req.SlotID, f.req.DoctorID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	f.mock.ExpectCommit()

	res, err := f.workflow.Book(context.Background(), f.req)
	require.NoError(t, err)
	require.NotNil(t, res.ReportID)
	assert.Equal(t, reportID, *res.ReportID)
	assert.Equal(t, apptID, res.AppointmentID)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestBookLostRaceRollsBack(t *testing.T) {
	f := newFixture(t, redisclient.NopLocker{})

	f.mock.ExpectBegin()
	f.expectAppointmentInsert(nil, uuid.New())
	f.mock.ExpectExec("UPDATE availability").
		WithArgs(f.req.SlotID, f.req.DoctorID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	f.mock.ExpectRollback()

	res, err := f.workflow.Book(context.Background(), f.req)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrSlotUnavailable)

	var se *StepError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, StepSlotLock, se.Step)
	assert.True(t, se.Conflict())
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestBookSlotAlreadyHasAppointment(t *testing.T) {
	f := newFixture(t, redisclient.NopLocker{})

	f.mock.ExpectBegin()
	f.mock.ExpectQuery("INSERT INTO appointments").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "appointments_availability_uniq"})
	f.mock.ExpectRollback()

	res, err := f.workflow.Book(context.Background(), f.req)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrSlotUnavailable)

	var se *StepError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, StepSlotLock, se.Step)
	assert.True(t, se.Conflict())
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestBookAppointmentInsertFailure(t *testing.T) {
	f := newFixture(t, redisclient.NopLocker{})

	f.mock.ExpectBegin()
	f.mock.ExpectQuery("INSERT INTO appointments").WillReturnError(errors.New("connection reset"))
	f.mock.ExpectRollback()

	_, err := f.workflow.Book(context.Background(), f.req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "booking: failed to save the appointment data")

	var se *StepError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, StepAppointment, se.Step)
	assert.False(t, se.Conflict())
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestBookSlotHeldByAnotherRequest(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	f := newFixture(t, redisclient.NewRedisSlotLocker(client, 5*time.Second))
	require.NoError(t, mr.Set(redisclient.SlotLockKey(f.req.SlotID), "other-request"))

	_, err := f.workflow.Book(context.Background(), f.req)
	assert.ErrorIs(t, err, ErrSlotBeingBooked)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestBookValidatesBeforeAnyCall(t *testing.T) {
	f := newFixture(t, redisclient.NopLocker{})

	tests := []struct {
		name   string
		mutate func(*Request)
		want   error
	}{
		{"patient", func(r *Request) { r.PatientID = uuid.Nil }, ErrMissingPatient},
		{"doctor", func(r *Request) { r.DoctorID = uuid.Nil }, ErrMissingDoctor},
		{"slot", func(r *Request) { r.SlotID = uuid.Nil }, ErrMissingSlot},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := f.req
			tt.mutate(&req)
			_, err := f.workflow.Book(context.Background(), req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	require.NoError(t, f.mock.ExpectationsWereMet())
}
