package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hackgods/clinic-appointment-portal/internal/logrelay"
	"github.com/hackgods/clinic-appointment-portal/internal/metrics"
	"github.com/hackgods/clinic-appointment-portal/internal/portal"
	"github.com/hackgods/clinic-appointment-portal/internal/store"
	"github.com/hackgods/clinic-appointment-portal/pkg/logging"
)

type RouterConfig struct {
	Portal      *portal.Portal
	Chat        ChatService
	Tokens      TokenParser
	Logger      *logging.Logger
	Metrics     *metrics.Metrics
	Gatherer    prometheus.Gatherer
	Postgres    Pinger
	Redis       Pinger
	Env         string
	Version     string
	CORSOrigins []string
}

func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	p := cfg.Portal

	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware(cfg.Logger, cfg.Metrics))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(NoticeMiddleware)

	health := NewHealthHandler(cfg.Postgres, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}
	r.Post("/api/log-error", logrelay.Handler(cfg.Logger))

	r.Post("/auth/register", registerHandler(p.Auth))
	r.Post("/auth/login", loginHandler(p.Auth))

	r.Route("/catalog", func(r chi.Router) {
		r.Get("/specializations", specializationsHandler(p.Catalog))
		r.Get("/locations", locationsHandler(p.Catalog))
		r.Get("/doctors", doctorsHandler(p.Catalog))
		r.Get("/doctors/{id}/slots", openSlotsHandler(p.Catalog))
	})

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Tokens))

		r.With(RequireRole(store.RolePatient, store.RoleDoctor)).
			Get("/appointments/{id}/consultation", consultationHandler(p.Patients))
		r.With(RequireRole(store.RolePatient, store.RoleDoctor)).
			Get("/appointments/{id}/has-report", hasReportHandler(p.Patients))
		r.With(RequireRole(store.RoleDoctor, store.RoleAdmin)).
			Post("/locations", addLocationHandler(p.Catalog))

		r.Route("/patient", func(r chi.Router) {
			r.Use(RequireRole(store.RolePatient))
			r.Get("/profile", profileHandler(p.Patients))
			r.Patch("/profile", updateProfileHandler(p.Patients))
			r.Get("/appointments", patientAppointmentsHandler(p.Patients))
			r.Post("/appointments", bookAppointmentHandler(p.Patients))
			r.Get("/reports", reportHistoryHandler(p.Patients))
			r.Post("/reports", createReportHandler(p.Patients))
			if cfg.Chat != nil {
				r.Get("/chat", loadChatHandler(cfg.Chat, cfg.Logger))
				r.Post("/chat/messages", sendChatHandler(cfg.Chat, cfg.Logger))
				r.Delete("/chat", clearChatHandler(cfg.Chat, cfg.Logger))
			}
		})

		r.Route("/doctor", func(r chi.Router) {
			r.Use(RequireRole(store.RoleDoctor))
			r.Get("/stats", doctorStatsHandler(p.Doctors))
			r.Post("/appointments/{id}/complete", completeAppointmentHandler(p.Doctors))
			r.Get("/slots", doctorSlotsHandler(p.Doctors))
			r.Post("/slots", insertSlotsHandler(p.Doctors))
			r.Delete("/slots", deleteSlotsHandler(p.Doctors))
			r.Get("/slots/occupied", occupiedDatesHandler(p.Doctors))
			r.Post("/slots/{id}/lock", lockSlotHandler(p.Doctors))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(RequireRole(store.RoleAdmin))
			r.Get("/doctors", listDoctorsHandler(p.Admin))
			r.Post("/doctors", createDoctorHandler(p.Admin))
			r.Get("/doctors/{id}", getDoctorHandler(p.Admin))
			r.Patch("/doctors/{id}", updateDoctorHandler(p.Admin))
			r.Delete("/doctors/{id}", deleteDoctorHandler(p.Admin))
			r.Get("/visits", visitsHandler(p.Admin))
			r.Get("/reports", reportsHandler(p.Admin))
		})
	})

	return r
}
