package switch_to_long_polling

import (
	"net/http"

	"github.com/m04kA/SMC-MaxGateway/internal/api/handlers"
)

type Handler struct {
	manager DeliveryManager
	logger  Logger
}

func NewHandler(manager DeliveryManager, logger Logger) *Handler {
	return &Handler{
		manager: manager,
		logger:  logger,
	}
}

func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	if err := h.manager.SwitchToLongPolling(r.Context()); err != nil {
		h.logger.Error("Failed to switch to long polling: %v", err)
		handlers.RespondAPIError(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, h.manager.GetStatus())
}
