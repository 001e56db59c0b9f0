package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackgods/clinic-appointment-portal/internal/config"
	"github.com/hackgods/clinic-appointment-portal/internal/db"
	"github.com/hackgods/clinic-appointment-portal/internal/identity"
	"github.com/hackgods/clinic-appointment-portal/internal/store"
	"github.com/hackgods/clinic-appointment-portal/pkg/logging"
)

type SimConfig struct {
	APIBaseURL   string
	Duration     time.Duration
	Workers      int
	BookingRatio float64
	ReadRatio    float64
	PatientLimit int
	SlotLimit    int
	HotSlots     int // bookings pick among this many slots to force contention
	PostgresDSN  string
	JWTSecret    string
}

type slotRef struct {
	ID       uuid.UUID
	DoctorID uuid.UUID
	Start    time.Time
}

type DataPool struct {
	Patients []uuid.UUID
	Tokens   map[uuid.UUID]string
	Slots    []slotRef
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, success bool, conflict bool) {
	atomic.AddInt64(&om.Total, 1)
	if success {
		atomic.AddInt64(&om.Success, 1)
	} else if conflict {
		atomic.AddInt64(&om.Conflict, 1)
	} else {
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, min, max, p50, p95 time.Duration) {
	om.mu.Lock()
	latencies := slices.Clone(om.Latencies)
	om.mu.Unlock()

	if len(latencies) == 0 {
		return 0, 0, 0, 0, 0
	}
	slices.Sort(latencies)

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	avg = sum / time.Duration(len(latencies))
	min = latencies[0]
	max = latencies[len(latencies)-1]
	p50 = latencies[min2(len(latencies)*50/100, len(latencies)-1)]
	p95 = latencies[min2(len(latencies)*95/100, len(latencies)-1)]
	return avg, min, max, p50, p95
}

func min2(a, b int) int {
	if a < b {
		return a
	}
	return b
}

type Metrics struct {
	Booking      OperationMetrics
	Upcoming     OperationMetrics
	OpenSlots    OperationMetrics
	booked       sync.Map // slot id -> patient id of the winning booking
	doubleBooked int64
}

type Simulator struct {
	config  SimConfig
	pool    *DataPool
	client  *http.Client
	logger  *logging.Logger
	metrics Metrics
}

func main() {
	logger := logging.New(os.Getenv("LOG_LEVEL")).With("service", "simulate")

	cfg := loadConfig(logger)
	if err := validateConfig(cfg); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(1)
	}

	logger.Info("simulator starting",
		"duration", cfg.Duration, "workers", cfg.Workers,
		"booking", cfg.BookingRatio, "read", cfg.ReadRatio, "hot_slots", cfg.HotSlots)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pgPool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN, db.PoolOptions{})
	if err != nil {
		logger.Error("connect postgres", "error", err)
		os.Exit(1)
	}
	defer pgPool.Close()

	dataPool, err := loadDataPool(ctx, pgPool, cfg)
	if err != nil {
		logger.Error("load data pool", "error", err)
		os.Exit(1)
	}
	logger.Info("data loaded", "patients", len(dataPool.Patients), "slots", len(dataPool.Slots))

	sim := &Simulator{
		config: cfg,
		pool:   dataPool,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}

	sim.Run()
	sim.PrintReport()
}

func loadConfig(logger *logging.Logger) SimConfig {
	baseCfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load base config", "error", err)
		os.Exit(1)
	}

	cfg := SimConfig{
		APIBaseURL:   getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Duration:     getDuration("SIM_DURATION", 30*time.Second),
		Workers:      getInt("SIM_WORKERS", 10),
		BookingRatio: getFloat("SIM_BOOKING_RATIO", 0.5),
		ReadRatio:    getFloat("SIM_READ_RATIO", 0.5),
		PatientLimit: getInt("SIM_PATIENT_LIMIT", 400),
		SlotLimit:    getInt("SIM_SLOT_LIMIT", 2400),
		HotSlots:     getInt("SIM_HOT_SLOTS", 50),
		PostgresDSN:  baseCfg.PostgresDSN,
		JWTSecret:    baseCfg.JWTSecret,
	}

	total := cfg.BookingRatio + cfg.ReadRatio
	if total > 0 {
		cfg.BookingRatio /= total
		cfg.ReadRatio /= total
	}
	return cfg
}

func validateConfig(cfg SimConfig) error {
	if cfg.PostgresDSN == "" {
		return fmt.Errorf("POSTGRES_DSN is required (set in .env or environment)")
	}
	if cfg.Workers <= 0 {
		return fmt.Errorf("SIM_WORKERS must be > 0")
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("SIM_DURATION must be > 0")
	}
	return nil
}

// loadDataPool reads patients and free future slots, then mints a session token
// per patient with the server's own secret.
func loadDataPool(ctx context.Context, pool *pgxpool.Pool, cfg SimConfig) (*DataPool, error) {
	dataPool := &DataPool{Tokens: make(map[uuid.UUID]string)}
	issuer := identity.NewIssuer(cfg.JWTSecret, cfg.Duration+time.Hour)

	rows, err := pool.Query(ctx, `
		SELECT id FROM profiles WHERE role = $1 LIMIT $2
	`, store.RolePatient, cfg.PatientLimit)
	if err != nil {
		return nil, fmt.Errorf("load patients: %w", err)
	}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		token, err := issuer.Issue(id, store.RolePatient)
		if err != nil {
			rows.Close()
			return nil, err
		}
		dataPool.Patients = append(dataPool.Patients, id)
		dataPool.Tokens[id] = token
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = pool.Query(ctx, `
		SELECT id, doctor_id, start_time FROM availability
		WHERE is_booked = false AND start_time > now()
		ORDER BY start_time
		LIMIT $1
	`, cfg.SlotLimit)
	if err != nil {
		return nil, fmt.Errorf("load slots: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var s slotRef
		if err := rows.Scan(&s.ID, &s.DoctorID, &s.Start); err != nil {
			return nil, err
		}
		dataPool.Slots = append(dataPool.Slots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(dataPool.Patients) == 0 {
		return nil, fmt.Errorf("no patients loaded")
	}
	if len(dataPool.Slots) == 0 {
		return nil, fmt.Errorf("no slots loaded")
	}
	return dataPool, nil
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	s.logger.Info("starting simulation", "duration", s.config.Duration, "workers", s.config.Workers)

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}

	wg.Wait()
	s.logger.Info("simulation complete")
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))

	for {
		select {
		case <-ctx.Done():
			return
		default:
			if rng.Float64() < s.config.BookingRatio {
				s.doBooking(ctx, rng)
			} else if rng.Intn(2) == 0 {
				s.doUpcoming(ctx, rng)
			} else {
				s.doOpenSlots(ctx, rng)
			}
		}
	}
}

func (s *Simulator) randomPatient(rng *rand.Rand) (uuid.UUID, string) {
	id := s.pool.Patients[rng.Intn(len(s.pool.Patients))]
	return id, s.pool.Tokens[id]
}

func (s *Simulator) send(ctx context.Context, method, path, token string, body any) (int, []byte, error) {
	var rd *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		rd = bytes.NewReader(raw)
	} else {
		rd = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.config.APIBaseURL+path, rd)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	return resp.StatusCode, buf.Bytes(), nil
}

func (s *Simulator) doBooking(ctx context.Context, rng *rand.Rand) {
	hot := len(s.pool.Slots)
	if s.config.HotSlots > 0 {
		hot = min2(s.config.HotSlots, hot)
	}
	slot := s.pool.Slots[rng.Intn(hot)]
	patientID, token := s.randomPatient(rng)

	start := time.Now()
	status, _, err := s.send(ctx, http.MethodPost, "/patient/appointments", token, map[string]any{
		"doctor_id":         slot.DoctorID.String(),
		"slot_id":           slot.ID.String(),
		"visit_type":        "In-person",
		"reported_symptoms": "simulated visit",
	})
	latency := time.Since(start)
	if err != nil && ctx.Err() != nil {
		return
	}

	success := err == nil && status == http.StatusCreated
	conflict := err == nil && status == http.StatusConflict
	if success {
		if prev, loaded := s.metrics.booked.LoadOrStore(slot.ID, patientID); loaded {
			atomic.AddInt64(&s.metrics.doubleBooked, 1)
			s.logger.Error("slot booked twice", "slot_id", slot.ID, "first", prev, "second", patientID)
		}
	}

	s.metrics.Booking.Record(latency, success, conflict)
}

func (s *Simulator) doUpcoming(ctx context.Context, rng *rand.Rand) {
	_, token := s.randomPatient(rng)

	start := time.Now()
	status, _, err := s.send(ctx, http.MethodGet, "/patient/appointments?filter=upcoming", token, nil)
	if err != nil && ctx.Err() != nil {
		return
	}
	s.metrics.Upcoming.Record(time.Since(start), err == nil && status == http.StatusOK, false)
}

func (s *Simulator) doOpenSlots(ctx context.Context, rng *rand.Rand) {
	slot := s.pool.Slots[rng.Intn(len(s.pool.Slots))]
	path := fmt.Sprintf("/catalog/doctors/%s/slots?date=%s", slot.DoctorID, slot.Start.UTC().Format("2006-01-02"))

	start := time.Now()
	status, _, err := s.send(ctx, http.MethodGet, path, "", nil)
	if err != nil && ctx.Err() != nil {
		return
	}
	s.metrics.OpenSlots.Record(time.Since(start), err == nil && status == http.StatusOK, false)
}

func (s *Simulator) PrintReport() {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("SIMULATION REPORT")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Duration: %s\n", s.config.Duration)
	fmt.Printf("Workers: %d\n", s.config.Workers)
	fmt.Printf("Double bookings: %d\n", atomic.LoadInt64(&s.metrics.doubleBooked))
	fmt.Println()

	printOperationReport("Booking", &s.metrics.Booking)
	printOperationReport("Upcoming appointments", &s.metrics.Upcoming)
	printOperationReport("Open slots", &s.metrics.OpenSlots)
}

func printOperationReport(name string, om *OperationMetrics) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		return
	}

	success := atomic.LoadInt64(&om.Success)
	conflict := atomic.LoadInt64(&om.Conflict)
	failed := atomic.LoadInt64(&om.Error)

	avg, min, max, p50, p95 := om.Stats()

	fmt.Printf("%s:\n", name)
	fmt.Printf("  Total: %d\n", total)
	fmt.Printf("  Success: %d (%.1f%%)\n", success, float64(success)/float64(total)*100)
	if conflict > 0 {
		fmt.Printf("  Conflicts: %d (%.1f%%)\n", conflict, float64(conflict)/float64(total)*100)
	}
	if failed > 0 {
		fmt.Printf("  Errors: %d (%.1f%%)\n", failed, float64(failed)/float64(total)*100)
	}
	fmt.Printf("  Latency: avg=%s min=%s max=%s p50=%s p95=%s\n",
		avg.Round(time.Millisecond), min.Round(time.Millisecond), max.Round(time.Millisecond),
		p50.Round(time.Millisecond), p95.Round(time.Millisecond))
	fmt.Println()
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
