package httpx

import (
	"log/slog"
	"net/http"

	"github.com/tickerwatch/tickerwatch/internal/service"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Scheduler *service.SchedulerService
	Ingest    BackfillRunner
	// Optional: named dependency probes for /readyz.
	Health map[string]HealthChecker
	Logger *slog.Logger
}

// NewRouter creates and configures the HTTP router.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()

	scheduleHandlers := &ScheduleHandlers{Svc: services.Scheduler, Logger: logger}
	mux.HandleFunc("POST /api/schedules", scheduleHandlers.CreateSchedule)
	mux.HandleFunc("GET /api/schedules", scheduleHandlers.ListSchedules)
	mux.HandleFunc("GET /api/schedules/one", scheduleHandlers.GetSchedule)
	mux.HandleFunc("DELETE /api/schedules", scheduleHandlers.DeleteSchedule)

	if services.Ingest != nil {
		ingestHandlers := &IngestHandlers{Ingest: services.Ingest, Logger: logger}
		mux.HandleFunc("POST /api/backfill", ingestHandlers.Backfill)
	}

	healthHandlers := &HealthHandlers{Checks: services.Health}
	mux.HandleFunc("GET /healthz", healthHandlers.Healthz)
	mux.HandleFunc("HEAD /healthz", healthHandlers.Healthz)
	mux.HandleFunc("GET /readyz", healthHandlers.Readyz)

	return Logging(logger)(Recover(logger)(mux))
}
