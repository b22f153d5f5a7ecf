package get_availability_block

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

// Handle GET /api/v1/availability-blocks/{blockId}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	blockID, err := handlers.PathID(r, "blockId")
	if err != nil {
		h.logger.Warn("GET /availability-blocks/{id} - Invalid block ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidBlockID)
		return
	}

	block, err := h.service.GetByID(r.Context(), blockID)
	if err != nil {
		if status := handlers.RespondDomainError(w, err); status >= http.StatusInternalServerError {
			h.logger.Error("GET /availability-blocks/{id} - Failed to get block: block_id=%d, error=%v", blockID, err)
		} else {
			h.logger.Warn("GET /availability-blocks/{id} - Block not found: block_id=%d", blockID)
		}
		return
	}

	handlers.RespondJSON(w, http.StatusOK, models.FromDomainBlock(block))
}
