package http

import (
	"net/http"

	"clinic-appointment-engine/internal/delivery/http/handler"
	"clinic-appointment-engine/internal/delivery/http/middleware"

	"github.com/gorilla/mux"
)

type Router struct {
	router              *mux.Router
	availabilityHandler *handler.AvailabilityHandler
	matcherHandler      *handler.MatcherHandler
	appointmentHandler  *handler.AppointmentHandler
	authMiddleware      *middleware.AuthMiddleware
	corsMiddleware      *middleware.CORSMiddleware
	metricsHandler      http.Handler
}

func NewRouter(
	availabilityHandler *handler.AvailabilityHandler,
	matcherHandler *handler.MatcherHandler,
	appointmentHandler *handler.AppointmentHandler,
	authMiddleware *middleware.AuthMiddleware,
	corsMiddleware *middleware.CORSMiddleware,
	metricsHandler http.Handler,
) *Router {
	return &Router{
		router:              mux.NewRouter(),
		availabilityHandler: availabilityHandler,
		matcherHandler:      matcherHandler,
		appointmentHandler:  appointmentHandler,
		authMiddleware:      authMiddleware,
		corsMiddleware:      corsMiddleware,
		metricsHandler:      metricsHandler,
	}
}

func (r *Router) Setup() *mux.Router {
	// API versioning
	api := r.router.PathPrefix("/api/v1").Subrouter()

	// Public
	api.HandleFunc("/health", r.healthCheck).Methods(http.MethodGet)
	if r.metricsHandler != nil {
		api.Handle("/metrics", r.metricsHandler).Methods(http.MethodGet)
	}

	// Availability management (admin or the doctor themself)
	availability := api.PathPrefix("/availability").Subrouter()
	availability.Use(r.authMiddleware.Authenticate)
	availability.Use(middleware.RequireAdminOrDoctor)
	availability.HandleFunc("/generate", r.availabilityHandler.Generate).Methods(http.MethodPost)
	availability.HandleFunc("/bulk-generate", r.availabilityHandler.BulkGenerate).Methods(http.MethodPost)
	availability.HandleFunc("/block", r.availabilityHandler.Block).Methods(http.MethodPost)
	availability.HandleFunc("/unblock", r.availabilityHandler.Unblock).Methods(http.MethodPost)

	// Read side (any authenticated user)
	doctors := api.PathPrefix("/doctors").Subrouter()
	doctors.Use(r.authMiddleware.Authenticate)
	doctors.HandleFunc("/{doctorId}/clinics/{clinicId}/slots", r.availabilityHandler.GetAvailableSlots).Methods(http.MethodGet)

	clinics := api.PathPrefix("/clinics").Subrouter()
	clinics.Use(r.authMiddleware.Authenticate)
	clinics.HandleFunc("/{clinicId}/free-doctors", r.matcherHandler.FindFreeDoctors).Methods(http.MethodGet)

	// Appointments
	appointments := api.PathPrefix("/appointments").Subrouter()
	appointments.Use(r.authMiddleware.Authenticate)

	appointments.Handle("/auto", middleware.RequirePatient(http.HandlerFunc(r.appointmentHandler.BookAuto))).Methods(http.MethodPost)
	appointments.Handle("", middleware.RequirePatient(http.HandlerFunc(r.appointmentHandler.BookSpecific))).Methods(http.MethodPost)
	appointments.Handle("/me", middleware.RequirePatientOrDoctor(http.HandlerFunc(r.appointmentHandler.ListMine))).Methods(http.MethodGet)
	appointments.HandleFunc("/{id}", r.appointmentHandler.Get).Methods(http.MethodGet)
	appointments.Handle("/{id}/cancel", middleware.RequireAdminOrPatient(http.HandlerFunc(r.appointmentHandler.Cancel))).Methods(http.MethodPost)
	appointments.Handle("/{id}/status", middleware.RequireAdminOrDoctor(http.HandlerFunc(r.appointmentHandler.UpdateStatus))).Methods(http.MethodPatch)
	appointments.Handle("/{id}/reschedule", middleware.RequireAdminOrPatient(http.HandlerFunc(r.appointmentHandler.Reschedule))).Methods(http.MethodPost)

	// Add CORS middleware
	r.router.Use(r.corsMiddleware.Handle)

	return r.router
}

func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "ok"}`))
}
