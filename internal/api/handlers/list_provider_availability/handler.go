package list_provider_availability

import (
	"net/http"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	"github.com/m04kA/SMC-SchedulingService/internal/service/availability/models"
)

const (
	msgInvalidProviderID = "некорректный ID мастера"
	msgInvalidActiveOnly = "параметр activeOnly должен быть true или false"
)

type Handler struct {
	service AvailabilityService
	logger  Logger
}

func NewHandler(service AvailabilityService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/providers/{providerId}/availability-blocks
// Query params: activeOnly (optional, default false)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	providerID, err := handlers.PathID(r, "providerId")
	if err != nil {
		h.logger.Warn("GET /providers/{id}/availability-blocks - Invalid provider ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidProviderID)
		return
	}

	activeOnly, err := handlers.QueryBool(r, "activeOnly", false)
	if err != nil {
		h.logger.Warn("GET /providers/{id}/availability-blocks - Invalid activeOnly: %v", err)
		handlers.RespondBadRequest(w, msgInvalidActiveOnly)
		return
	}

	blocks, err := h.service.ListForProvider(r.Context(), providerID, activeOnly)
	if err != nil {
		if status := handlers.RespondDomainError(w, err); status >= http.StatusInternalServerError {
			h.logger.Error("GET /providers/{id}/availability-blocks - Failed: provider_id=%d, error=%v", providerID, err)
		} else {
			h.logger.Warn("GET /providers/{id}/availability-blocks - Rejected: provider_id=%d, error=%v", providerID, err)
		}
		return
	}

	h.logger.Info("GET /providers/{id}/availability-blocks - Retrieved: provider_id=%d, count=%d", providerID, len(blocks))
	handlers.RespondJSON(w, http.StatusOK, models.FromDomainBlockList(blocks))
}
