package get_free_slots

import (
	"net/http"
	"strconv"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	getFreeSlots "github.com/m04kA/SMC-SchedulingService/internal/usecase/get_free_slots"
)

const (
	msgInvalidProviderID  = "некорректный ID мастера"
	msgMissingRange       = "параметры from и to обязательны"
	msgInvalidDate        = "некорректный формат даты, ожидается YYYY-MM-DD"
	msgInvalidServiceIDs  = "некорректный список услуг, ожидается serviceIds=1,2"
	msgInvalidGranularity = "некорректный шаг сетки"
)

type Handler struct {
	useCase GetFreeSlotsUseCase
	logger  Logger
}

func NewHandler(useCase GetFreeSlotsUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle GET /api/v1/free-slots
// Query params: from, to (required, YYYY-MM-DD), providerId, serviceIds, granularity (optional)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	providerID, err := handlers.QueryInt64(r, "providerId")
	if err != nil {
		h.logger.Warn("GET /free-slots - Invalid provider ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidProviderID)
		return
	}

	query := r.URL.Query()
	if query.Get("from") == "" || query.Get("to") == "" {
		h.logger.Warn("GET /free-slots - Missing date range")
		handlers.RespondBadRequest(w, msgMissingRange)
		return
	}

	from, err := handlers.ParseDate(query.Get("from"))
	if err != nil {
		h.logger.Warn("GET /free-slots - Invalid from: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}
	to, err := handlers.ParseDate(query.Get("to"))
	if err != nil {
		h.logger.Warn("GET /free-slots - Invalid to: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	serviceIDs, err := handlers.QueryInt64List(r, "serviceIds")
	if err != nil {
		h.logger.Warn("GET /free-slots - Invalid service IDs: %v", err)
		handlers.RespondBadRequest(w, msgInvalidServiceIDs)
		return
	}

	useCaseReq := &getFreeSlots.Request{
		ProviderID: providerID,
		From:       from,
		To:         to,
		ServiceIDs: serviceIDs,
	}

	if raw := query.Get("granularity"); raw != "" {
		granularity, err := strconv.Atoi(raw)
		if err != nil {
			h.logger.Warn("GET /free-slots - Invalid granularity: %v", err)
			handlers.RespondBadRequest(w, msgInvalidGranularity)
			return
		}
		useCaseReq.Granularity = &granularity
	}

	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		if status := handlers.RespondDomainError(w, err); status >= http.StatusInternalServerError {
			h.logger.Error("GET /free-slots - Failed to get slots: provider_id=%v, error=%v", providerID, err)
		} else {
			h.logger.Warn("GET /free-slots - Rejected: provider_id=%v, error=%v", providerID, err)
		}
		return
	}

	h.logger.Info("GET /free-slots - Slots retrieved successfully: provider_id=%v, from=%s, to=%s, slots_count=%d",
		providerID, query.Get("from"), query.Get("to"), len(result.Slots))
	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(result))
}
