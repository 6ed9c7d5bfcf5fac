package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/segyhp/tenancy-engine/internal/metrics"
	"github.com/segyhp/tenancy-engine/pkg/response"
)

// Handlers groups everything the router dispatches to.
type Handlers struct {
	Health    *HealthHandler
	Jobs      *JobHandler
	Reminders *ReminderHandler
	Leases    *LeaseHandler
	Contracts *ContractHandler
	Programs  *ProgramHandler
}

func NewRouter(h Handlers) *mux.Router {
	router := mux.NewRouter()
	router.Use(response.CORSMiddleware, response.LoggingMiddleware, response.RecoveryMiddleware, MetricsMiddleware)
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, "no route for "+r.Method+" "+r.URL.Path)
	})

	// Health check
	router.HandleFunc("/health", h.Health.Health).Methods("GET")
	router.HandleFunc("/health/ready", h.Health.Ready).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// API routes
	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/jobs", h.Jobs.ListJobs).Methods("GET")
	api.HandleFunc("/jobs/{name}", h.Jobs.RunJob).Methods("POST")

	api.HandleFunc("/reminders", h.Reminders.Schedule).Methods("POST")
	api.HandleFunc("/reminders/{id}", h.Reminders.Get).Methods("GET")
	api.HandleFunc("/reminders/{id}", h.Reminders.Cancel).Methods("DELETE")

	api.HandleFunc("/leases", h.Leases.Create).Methods("POST")
	api.HandleFunc("/leases/{id}", h.Leases.Edit).Methods("PUT")
	api.HandleFunc("/leases/{id}/approve", h.Leases.Approve).Methods("POST")
	api.HandleFunc("/leases/{id}/cancel", h.Leases.Cancel).Methods("POST")
	api.HandleFunc("/leases/{id}/terminate", h.Leases.Terminate).Methods("POST")
	api.HandleFunc("/leases/{id}/expiry", h.Leases.GetExpiry).Methods("GET")
	api.HandleFunc("/leases/{id}/history", h.Leases.GetHistory).Methods("GET")

	api.HandleFunc("/contracts", h.Contracts.Create).Methods("POST")
	api.HandleFunc("/contracts/{id}/terminate", h.Contracts.Terminate).Methods("POST")
	api.HandleFunc("/contracts/{id}/payments", h.Contracts.ListPayments).Methods("GET")
	api.HandleFunc("/contracts/{id}/payments/regenerate", h.Contracts.RegenerateSchedule).Methods("POST")
	api.HandleFunc("/contracts/{id}/renewals", h.Contracts.RequestRenewal).Methods("POST")
	api.HandleFunc("/renewals/{id}/approve", h.Contracts.ApproveRenewal).Methods("POST")

	api.HandleFunc("/programs/schedule/preview", h.Programs.Preview).Methods("POST")
	api.HandleFunc("/programs/{id}/schedule", h.Programs.ApplySchedule).Methods("PUT")
	api.HandleFunc("/programs/{id}/schedule/regenerate", h.Programs.Regenerate).Methods("POST")

	return router
}

// MetricsMiddleware records request durations labelled by route template.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := response.NewStatusRecorder(w)

		next.ServeHTTP(recorder, r)

		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if tpl, err := current.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		metrics.RequestDurationHistogram.
			WithLabelValues(r.Method, route, strconv.Itoa(recorder.StatusCode)).
			Observe(time.Since(start).Seconds())
	})
}
