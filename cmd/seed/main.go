package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"github.com/hackgods/clinic-appointment-portal/internal/db"
	"github.com/hackgods/clinic-appointment-portal/internal/identity"
	"github.com/hackgods/clinic-appointment-portal/internal/store"
	"github.com/hackgods/clinic-appointment-portal/pkg/logging"
)

const seedPassword = "password123"

var specializations = []string{
	"Dermatology",
	"Cardiology",
	"General Practice",
	"Orthopedics",
	"Endocrinology",
	"Neurology",
	"Pediatrics",
	"Psychiatry",
	"Ophthalmology",
	"ENT",
}

var cities = []string{"Warsaw", "Krakow", "Gdansk", "Wroclaw", "Poznan"}

type seeder struct {
	pool     *pgxpool.Pool
	accounts *identity.Service
	profiles *store.ProfileRepo
	logger   *logging.Logger
}

func main() {
	_ = godotenv.Load()
	logger := logging.New(os.Getenv("LOG_LEVEL")).With("service", "seed")
	logger.Info("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		logger.Error("POSTGRES_DSN is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn, db.PoolOptions{})
	if err != nil {
		logger.Error("connect postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	s := &seeder{
		pool:     pool,
		accounts: identity.NewService(pool).WithHashCost(bcrypt.MinCost),
		profiles: store.NewProfileRepo(pool),
		logger:   logger,
	}

	gofakeit.Seed(time.Now().UnixNano())

	run := context.Background()
	if err := s.seedAdmin(run); err != nil {
		logger.Error("seed admin", "error", err)
		os.Exit(1)
	}
	locations, err := s.seedLocations(run, getInt("SEED_LOCATIONS", 10))
	if err != nil {
		logger.Error("seed locations", "error", err)
		os.Exit(1)
	}
	doctors, err := s.seedDoctors(run, getInt("SEED_DOCTORS", 40))
	if err != nil {
		logger.Error("seed doctors", "error", err)
		os.Exit(1)
	}
	if err := s.seedSlots(run, doctors, locations, getInt("SEED_DAYS", 14)); err != nil {
		logger.Error("seed slots", "error", err)
		os.Exit(1)
	}
	if err := s.seedPatients(run, getInt("SEED_PATIENTS", 500)); err != nil {
		logger.Error("seed patients", "error", err)
		os.Exit(1)
	}

	logger.Info("seed complete", "password", seedPassword)
}

func (s *seeder) createUser(ctx context.Context, email, first, last string, role store.Role) (uuid.UUID, error) {
	acct, err := s.accounts.CreateAccount(ctx, identity.NewAccount{
		Email:     email,
		Password:  seedPassword,
		Confirmed: true,
		Metadata:  map[string]any{"first_name": first, "last_name": last},
	})
	if err != nil {
		return uuid.Nil, err
	}
	err = s.profiles.Insert(ctx, store.Profile{ID: acct.ID, FirstName: first, LastName: last, Role: role})
	if err != nil {
		return uuid.Nil, err
	}
	return acct.ID, nil
}

func (s *seeder) seedAdmin(ctx context.Context) error {
	_, err := s.createUser(ctx, "admin@clinic.local", "Clinic", "Admin", store.RoleAdmin)
	if err != nil {
		return err
	}
	s.logger.Info("admin seeded", "email", "admin@clinic.local")
	return nil
}

func (s *seeder) seedLocations(ctx context.Context, count int) ([]uuid.UUID, error) {
	s.logger.Info("seeding locations", "count", count)

	repo := store.NewLocationRepo(s.pool)
	ids := make([]uuid.UUID, 0, count)
	for i := 0; i < count; i++ {
		city := cities[i%len(cities)]
		loc, err := repo.Insert(ctx, store.NewLocation{
			Name:    fmt.Sprintf("%s %s Clinic", city, gofakeit.StreetName()),
			Address: gofakeit.Street(),
			City:    city,
		})
		if err != nil {
			return nil, err
		}
		ids = append(ids, loc.ID)
	}
	return ids, nil
}

func (s *seeder) seedDoctors(ctx context.Context, count int) ([]uuid.UUID, error) {
	s.logger.Info("seeding doctors", "count", count)

	repo := store.NewDoctorRepo(s.pool)
	ids := make([]uuid.UUID, 0, count)
	for i := 0; i < count; i++ {
		first, last := gofakeit.FirstName(), gofakeit.LastName()
		id, err := s.createUser(ctx, fmt.Sprintf("doctor%d@clinic.local", i+1), first, last, store.RoleDoctor)
		if err != nil {
			return nil, err
		}
		start := gofakeit.DateRange(time.Now().AddDate(-20, 0, 0), time.Now()).Truncate(24 * time.Hour)
		err = repo.Insert(ctx, store.Doctor{
			ID:             id,
			Specialization: specializations[gofakeit.Number(0, len(specializations)-1)],
			WorkStartDate:  &start,
		})
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// seedSlots gives every doctor half-hour slots from 9:00 to 15:00 on weekdays,
// each day at one of the seeded locations.
func (s *seeder) seedSlots(ctx context.Context, doctors, locations []uuid.UUID, days int) error {
	s.logger.Info("seeding slots", "doctors", len(doctors), "days", days)

	today := time.Now().UTC().Truncate(24 * time.Hour)
	var rows [][]any
	for _, doctorID := range doctors {
		for d := 1; d <= days; d++ {
			day := today.AddDate(0, 0, d)
			if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
				continue
			}
			loc := locations[gofakeit.Number(0, len(locations)-1)]
			for start := day.Add(9 * time.Hour); start.Before(day.Add(15 * time.Hour)); start = start.Add(30 * time.Minute) {
				rows = append(rows, []any{uuid.New(), doctorID, loc, start, start.Add(30 * time.Minute), false})
			}
		}
	}

	n, err := s.pool.CopyFrom(ctx,
		pgx.Identifier{"availability"},
		[]string{"id", "doctor_id", "location_id", "start_time", "end_time", "is_booked"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return err
	}
	s.logger.Info("slots seeded", "count", n)
	return nil
}

func (s *seeder) seedPatients(ctx context.Context, count int) error {
	s.logger.Info("seeding patients", "count", count)

	for i := 0; i < count; i++ {
		first, last := gofakeit.FirstName(), gofakeit.LastName()
		if _, err := s.createUser(ctx, fmt.Sprintf("patient%d@clinic.local", i+1), first, last, store.RolePatient); err != nil {
			return err
		}
		if (i+1)%100 == 0 {
			s.logger.Info("patients seeded", "done", i+1, "total", count)
		}
	}
	return nil
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}
