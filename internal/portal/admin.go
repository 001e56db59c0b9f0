package portal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hackgods/clinic-appointment-portal/internal/identity"
	"github.com/hackgods/clinic-appointment-portal/internal/store"
	"github.com/hackgods/clinic-appointment-portal/internal/viewmodel"
)

type Admin struct {
	base
	accounts     AccountStore
	profiles     ProfileStore
	doctors      DoctorStore
	appointments AppointmentStore
	reports      ReportStore
}

type NewDoctor struct {
	FirstName      string
	LastName       string
	Email          string
	Password       string
	Specialization string
	WorkStartDate  time.Time
}

type DoctorUpdate struct {
	FirstName      string
	LastName       string
	Specialization string
	WorkStartDate  *time.Time
}

// CreateDoctor creates the account, the doctor profile and the doctor row, in that
// order. Earlier steps are not undone when a later one fails.
func (a *Admin) CreateDoctor(ctx context.Context, in NewDoctor) Result {
	acct, err := a.accounts.CreateAccount(ctx, identity.NewAccount{
		Email:     in.Email,
		Password:  in.Password,
		Confirmed: true,
		Metadata:  map[string]any{"first_name": in.FirstName, "last_name": in.LastName},
	})
	if err != nil {
		return failed(err)
	}
	if acct == nil {
		return failed(errors.New("failed to create user"))
	}

	err = a.profiles.Insert(ctx, store.Profile{
		ID:        acct.ID,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Role:      store.RoleDoctor,
	})
	if err != nil {
		return failed(err)
	}

	start := in.WorkStartDate
	if err := a.doctors.Insert(ctx, store.Doctor{ID: acct.ID, Specialization: in.Specialization, WorkStartDate: &start}); err != nil {
		return failed(err)
	}
	a.logger.InfoContext(ctx, "doctor created", "doctor_id", acct.ID)
	return ok()
}

// DeleteDoctor removes the doctor row, the profile and the account. Only the
// account removal decides the outcome.
func (a *Admin) DeleteDoctor(ctx context.Context, id uuid.UUID) Result {
	if err := a.doctors.Delete(ctx, id); err != nil {
		a.logger.WarnContext(ctx, "doctor row not deleted", "doctor_id", id, "error", err)
	}
	if err := a.profiles.Delete(ctx, id); err != nil {
		a.logger.WarnContext(ctx, "doctor profile not deleted", "doctor_id", id, "error", err)
	}
	if err := a.accounts.DeleteAccount(ctx, id); err != nil {
		return failed(err)
	}
	return ok()
}

// ListDoctors reads profiles, doctor rows and accounts concurrently and merges
// them. A non-blank search filters and sorts by name; otherwise newest hires come first.
func (a *Admin) ListDoctors(ctx context.Context, search string) ([]viewmodel.DoctorListing, Result) {
	var (
		profiles []store.Profile
		doctors  []store.Doctor
		accounts []identity.Account
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		profiles, err = a.profiles.ListByRole(gctx, store.RoleDoctor)
		return err
	})
	g.Go(func() (err error) {
		doctors, err = a.doctors.List(gctx)
		return err
	})
	g.Go(func() (err error) {
		accounts, err = a.accounts.ListAccounts(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		a.fail(ctx, "portal.ListDoctors", "server action error", "", err)
		return []viewmodel.DoctorListing{}, failed(err)
	}

	emails := make(map[uuid.UUID]string, len(accounts))
	for _, acct := range accounts {
		emails[acct.ID] = acct.Email
	}
	merged := viewmodel.MergeDoctorListings(profiles, doctors, emails)
	items, filtered := viewmodel.FilterDoctorListings(merged, search)
	viewmodel.SortDoctorListing(items, filtered)
	return items, ok()
}

// UpdateDoctor applies name changes to the account metadata and the profile, then
// specialization and start date to the doctor row. Empty fields are left alone.
func (a *Admin) UpdateDoctor(ctx context.Context, id uuid.UUID, u DoctorUpdate) Result {
	if u.FirstName != "" || u.LastName != "" {
		meta := map[string]any{}
		if u.FirstName != "" {
			meta["first_name"] = u.FirstName
		}
		if u.LastName != "" {
			meta["last_name"] = u.LastName
		}
		if err := a.accounts.UpdateMetadata(ctx, id, meta); err != nil {
			return failed(err)
		}
		if err := a.profiles.UpdateNames(ctx, id, u.FirstName, u.LastName); err != nil {
			return failed(err)
		}
	}
	if u.Specialization != "" || u.WorkStartDate != nil {
		if err := a.doctors.Update(ctx, id, u.Specialization, u.WorkStartDate); err != nil {
			return failed(err)
		}
	}
	return ok()
}

func (a *Admin) GetDoctor(ctx context.Context, id uuid.UUID) (*viewmodel.DoctorListing, Result) {
	prof, err := a.profiles.Get(ctx, id)
	if err != nil {
		return nil, failed(fmt.Errorf("load profile: %w", err))
	}
	doc, err := a.doctors.Get(ctx, id)
	if err != nil {
		return nil, failed(fmt.Errorf("load doctor: %w", err))
	}
	items := viewmodel.MergeDoctorListings([]store.Profile{*prof}, []store.Doctor{*doc}, nil)
	return &items[0], ok()
}

// Visits lists appointments with their slot; the range applies only when both bounds are set.
func (a *Admin) Visits(ctx context.Context, from, to *time.Time) ([]store.Visit, Result) {
	visits, err := a.appointments.Visits(ctx, from, to)
	if err != nil {
		a.fail(ctx, "portal.Visits", "error fetching appointments", "", err)
		return []store.Visit{}, failed(err)
	}
	if visits == nil {
		visits = []store.Visit{}
	}
	return visits, ok()
}

func (a *Admin) Reports(ctx context.Context, from, to *time.Time) ([]store.Report, Result) {
	reports, err := a.reports.List(ctx, from, to)
	if err != nil {
		a.fail(ctx, "portal.Reports", "error fetching reports", "", err)
		return []store.Report{}, failed(err)
	}
	if reports == nil {
		reports = []store.Report{}
	}
	return reports, ok()
}
