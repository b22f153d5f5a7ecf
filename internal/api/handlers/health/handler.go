package health

import (
	"context"
	"net/http"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
)

const (
	statusOK       = "ok"
	statusDown     = "down"
	statusDegraded = "degraded"
	statusError    = "error"

	checkTimeout = time.Second
)

// Pinger зависимость, доступность которой проверяет readiness
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingFunc адаптер функции к Pinger
type PingFunc func(ctx context.Context) error

// PingContext вызывает f
func (f PingFunc) PingContext(ctx context.Context) error { return f(ctx) }

// LivenessResponse ответ liveness
type LivenessResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// ReadinessResponse ответ readiness
type ReadinessResponse struct {
	Status       string            `json:"status"`
	Dependencies map[string]string `json:"dependencies"`
}

type Handler struct {
	service  string
	database Pinger
	redis    Pinger // nil, если Redis отключён
}

func NewHandler(service string, database Pinger, redis Pinger) *Handler {
	return &Handler{
		service:  service,
		database: database,
		redis:    redis,
	}
}

// Live GET /health/live
func (h *Handler) Live(w http.ResponseWriter, _ *http.Request) {
	handlers.RespondJSON(w, http.StatusOK, LivenessResponse{Status: statusOK, Service: h.service})
}

// Ready GET /health/ready
// Недоступная БД даёт 503, недоступный Redis только degraded
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	deps := make(map[string]string)
	status := statusOK

	if err := ping(r.Context(), h.database); err != nil {
		deps["postgres"] = statusDown
		status = statusError
	} else {
		deps["postgres"] = statusOK
	}

	if h.redis != nil {
		if err := ping(r.Context(), h.redis); err != nil {
			deps["redis"] = statusDown
			if status == statusOK {
				status = statusDegraded
			}
		} else {
			deps["redis"] = statusOK
		}
	}

	httpStatus := http.StatusOK
	if status == statusError {
		httpStatus = http.StatusServiceUnavailable
	}
	handlers.RespondJSON(w, httpStatus, ReadinessResponse{Status: status, Dependencies: deps})
}

func ping(ctx context.Context, p Pinger) error {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	return p.PingContext(ctx)
}
