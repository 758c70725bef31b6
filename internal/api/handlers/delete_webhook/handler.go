package delete_webhook

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
	if err := h.manager.DeleteWebhook(r.Context()); err != nil {
		h.logger.Error("Failed to delete webhook: %v", err)
		handlers.RespondAPIError(w, err)
		return
	}

	h.logger.Info("Webhook deleted via API")
	w.WriteHeader(http.StatusNoContent)
}
