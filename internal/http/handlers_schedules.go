package httpx

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/tickerwatch/tickerwatch/internal/domain"
	apperrors "github.com/tickerwatch/tickerwatch/internal/errors"
	"github.com/tickerwatch/tickerwatch/internal/service"
)

// ScheduleHandlers provides HTTP handlers for schedule management.
type ScheduleHandlers struct {
	Svc    *service.SchedulerService
	Logger *slog.Logger
}

// createScheduleRequest is the POST /api/schedules body.
type createScheduleRequest struct {
	JobType      domain.JobType   `json:"job_type"`
	Service      domain.Service   `json:"service"`
	Frequency    domain.Frequency `json:"frequency"`
	StartAt      time.Time        `json:"scheduled_start_date"`
	EndAt        *time.Time       `json:"scheduled_end_date,omitempty"`
	FetchStart   *time.Time       `json:"data_fetch_start_date,omitempty"`
	FetchEnd     *time.Time       `json:"data_fetch_end_date,omitempty"`
	IntervalDays *int             `json:"interval_days,omitempty"`
	Weekdays     string           `json:"weekdays,omitempty"`
	Owner        string           `json:"owner,omitempty"`
}

type createScheduleResponse struct {
	Created  bool               `json:"created"`
	Schedule domain.JobSchedule `json:"schedule"`
}

// CreateSchedule handles POST /api/schedules. Posting an existing key
// returns 200 with created=false rather than an error: schedule
// creation is idempotent end to end.
func (h *ScheduleHandlers) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	var req createScheduleRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	weekdays, err := domain.ParseWeekdays(req.Weekdays)
	if err != nil {
		WriteAppError(w, apperrors.Validationf("invalid weekdays: %v", err))
		return
	}

	sched := domain.JobSchedule{
		Key: domain.ScheduleKey{
			JobType:   req.JobType,
			Service:   req.Service,
			Frequency: req.Frequency,
			StartAt:   req.StartAt.UTC(),
		},
		Owner:        req.Owner,
		EndAt:        req.EndAt,
		FetchStart:   req.FetchStart,
		FetchEnd:     req.FetchEnd,
		IntervalDays: req.IntervalDays,
		Weekdays:     weekdays,
	}

	created, err := h.Svc.CreateSchedule(r.Context(), sched)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	sched.Status = domain.StatusScheduled
	code := http.StatusOK
	if created {
		code = http.StatusCreated
	}
	WriteJSON(w, code, createScheduleResponse{Created: created, Schedule: sched})
}

// ListSchedules handles GET /api/schedules.
func (h *ScheduleHandlers) ListSchedules(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Svc.ListSchedules(r.Context())
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"schedules": rows})
}

// GetSchedule handles GET /api/schedules/one, keyed by query params.
func (h *ScheduleHandlers) GetSchedule(w http.ResponseWriter, r *http.Request) {
	key, ok := scheduleKeyFromQuery(w, r)
	if !ok {
		return
	}

	row, err := h.Svc.GetSchedule(r.Context(), key)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	if row == nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusNotFound,
			ErrCode: "not_found",
			Err:     errors.New("no schedule for key"),
		})
		return
	}
	WriteJSON(w, http.StatusOK, row)
}

// DeleteSchedule handles DELETE /api/schedules, keyed by query params.
func (h *ScheduleHandlers) DeleteSchedule(w http.ResponseWriter, r *http.Request) {
	key, ok := scheduleKeyFromQuery(w, r)
	if !ok {
		return
	}

	deleted, err := h.Svc.DeleteSchedule(r.Context(), key)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	if !deleted {
		WriteError(w, ErrorParams{
			Code:    http.StatusNotFound,
			ErrCode: "not_found",
			Err:     errors.New("no schedule for key"),
		})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// scheduleKeyFromQuery parses the composite key from query parameters.
// Writes the error response and returns ok=false when the key is
// incomplete.
func scheduleKeyFromQuery(w http.ResponseWriter, r *http.Request) (domain.ScheduleKey, bool) {
	q := r.URL.Query()

	var freq domain.Frequency
	if err := freq.UnmarshalText([]byte(q.Get("frequency"))); err != nil {
		WriteAppError(w, apperrors.Validationf("invalid frequency: %v", err))
		return domain.ScheduleKey{}, false
	}

	startAt, err := time.Parse(time.RFC3339, q.Get("scheduled_start_date"))
	if err != nil {
		WriteAppError(w, apperrors.Validationf("invalid scheduled_start_date: %v", err))
		return domain.ScheduleKey{}, false
	}

	key := domain.ScheduleKey{
		JobType:   domain.JobType(q.Get("job_type")),
		Service:   domain.Service(q.Get("service")),
		Frequency: freq,
		StartAt:   startAt.UTC(),
	}
	if key.JobType == "" || key.Service == "" {
		WriteAppError(w, apperrors.Validation("job_type and service are required"))
		return domain.ScheduleKey{}, false
	}
	return key, true
}
