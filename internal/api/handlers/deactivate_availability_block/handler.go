package deactivate_availability_block

import (
	"net/http"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	"github.com/m04kA/SMC-SchedulingService/internal/service/availability/models"
)

const msgInvalidBlockID = "некорректный ID блока доступности"

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

// Handle POST /api/v1/availability-blocks/{blockId}/deactivate
// Существующие записи не затрагиваются, новые в этом окне больше не создаются
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	blockID, err := handlers.PathID(r, "blockId")
	if err != nil {
		h.logger.Warn("POST /availability-blocks/{id}/deactivate - Invalid block ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidBlockID)
		return
	}

	block, err := h.service.Deactivate(r.Context(), blockID)
	if err != nil {
		if status := handlers.RespondDomainError(w, err); status >= http.StatusInternalServerError {
			h.logger.Error("POST /availability-blocks/{id}/deactivate - Failed: block_id=%d, error=%v", blockID, err)
		} else {
			h.logger.Warn("POST /availability-blocks/{id}/deactivate - Rejected: block_id=%d, error=%v", blockID, err)
		}
		return
	}

	h.logger.Info("POST /availability-blocks/{id}/deactivate - Block deactivated: block_id=%d", blockID)
	handlers.RespondJSON(w, http.StatusOK, models.FromDomainBlock(block))
}
