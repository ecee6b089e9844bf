package http

import (
	"net/http"

	"wellness-appointments/internal/delivery/http/handler"
	"wellness-appointments/internal/delivery/http/middleware"
	"wellness-appointments/internal/infrastructure/metrics"

	"github.com/gorilla/mux"
)

type Router struct {
	router              *mux.Router
	authHandler         *handler.AuthHandler
	appointmentHandler  *handler.AppointmentHandler
	catalogHandler      *handler.CatalogHandler
	auditLogHandler     *handler.AuditLogHandler
	authMiddleware      *middleware.AuthMiddleware
	corsMiddleware      *middleware.CORSMiddleware
	rateLimitMiddleware *middleware.RateLimitMiddleware
	metrics             *metrics.Metrics
}

func NewRouter(
	authHandler *handler.AuthHandler,
	appointmentHandler *handler.AppointmentHandler,
	catalogHandler *handler.CatalogHandler,
	auditLogHandler *handler.AuditLogHandler,
	authMiddleware *middleware.AuthMiddleware,
	corsMiddleware *middleware.CORSMiddleware,
	rateLimitMiddleware *middleware.RateLimitMiddleware,
	m *metrics.Metrics,
) *Router {
	return &Router{
		router:              mux.NewRouter(),
		authHandler:         authHandler,
		appointmentHandler:  appointmentHandler,
		catalogHandler:      catalogHandler,
		auditLogHandler:     auditLogHandler,
		authMiddleware:      authMiddleware,
		corsMiddleware:      corsMiddleware,
		rateLimitMiddleware: rateLimitMiddleware,
		metrics:             m,
	}
}

func (r *Router) Setup() *mux.Router {
	// Prometheus scrape endpoint
	r.router.Handle("/metrics", r.metrics.Handler()).Methods(http.MethodGet)

	// API versioning
	api := r.router.PathPrefix("/api/v1").Subrouter()

	// Health check
	api.HandleFunc("/health", r.healthCheck).Methods(http.MethodGet)

	// Auth routes (public)
	auth := api.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/register", r.authHandler.Register).Methods(http.MethodPost)
	auth.HandleFunc("/login", r.authHandler.Login).Methods(http.MethodPost)

	// Auth routes (protected)
	authProtected := api.PathPrefix("/auth").Subrouter()
	authProtected.Use(r.authMiddleware.Authenticate)
	authProtected.HandleFunc("/logout", r.authHandler.Logout).Methods(http.MethodPost)
	authProtected.HandleFunc("/me", r.authHandler.GetCurrentUser).Methods(http.MethodGet)

	// Appointment routes (protected). Fixed paths are registered before {id}.
	appointments := api.PathPrefix("/appointments").Subrouter()
	appointments.Use(r.authMiddleware.Authenticate)
	appointments.HandleFunc("", r.appointmentHandler.ListAppointments).Methods(http.MethodGet)
	appointments.HandleFunc("", r.appointmentHandler.ScheduleAppointment).Methods(http.MethodPost)
	appointments.HandleFunc("/upcoming", r.appointmentHandler.ListUpcomingAppointments).Methods(http.MethodGet)
	appointments.HandleFunc("/past", r.appointmentHandler.ListPastAppointments).Methods(http.MethodGet)
	appointments.HandleFunc("/status", r.appointmentHandler.GetStatus).Methods(http.MethodGet)
	appointments.HandleFunc("/recommended", r.catalogHandler.ListRecommended).Methods(http.MethodGet)
	appointments.HandleFunc("/{id}", r.appointmentHandler.GetAppointment).Methods(http.MethodGet)
	appointments.HandleFunc("/{id}", r.appointmentHandler.UpdateAppointment).Methods(http.MethodPatch)
	appointments.HandleFunc("/{id}/confirm", r.appointmentHandler.ConfirmAppointment).Methods(http.MethodPost)
	appointments.HandleFunc("/{id}/cancel", r.appointmentHandler.CancelAppointment).Methods(http.MethodPost)
	appointments.HandleFunc("/{id}/reschedule", r.appointmentHandler.RescheduleAppointment).Methods(http.MethodPost)

	// Catalog routes (protected)
	catalog := api.PathPrefix("/catalog").Subrouter()
	catalog.Use(r.authMiddleware.Authenticate)
	catalog.HandleFunc("/appointment-types", r.catalogHandler.ListAppointmentTypes).Methods(http.MethodGet)
	catalog.HandleFunc("/doctors", r.catalogHandler.ListDoctors).Methods(http.MethodGet)

	// Employer routes (protected - employer only)
	employer := api.PathPrefix("/employer").Subrouter()
	employer.Use(r.authMiddleware.Authenticate)
	employer.Use(middleware.RequireEmployer)
	employer.HandleFunc("/audit-logs", r.auditLogHandler.GetAllAuditLogs).Methods(http.MethodGet)
	employer.HandleFunc("/audit-logs/{id}", r.auditLogHandler.GetAuditLog).Methods(http.MethodGet)

	// Outermost first: CORS answers preflight before the limiter counts it
	r.router.Use(r.corsMiddleware.Handle)
	r.router.Use(r.rateLimitMiddleware.Handle)
	r.router.Use(middleware.Metrics(r.metrics))

	return r.router
}

func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "ok"}`))
}
