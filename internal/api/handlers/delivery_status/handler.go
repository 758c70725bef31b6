package delivery_status

import (
	"net/http"

	"github.com/m04kA/SMC-MaxGateway/internal/api/handlers"
	"github.com/m04kA/SMC-MaxGateway/pkg/delivery"
	"github.com/m04kA/SMC-MaxGateway/pkg/maxapi"
)

// Response состояние доставки.
// Subscription заполняется только при verify=true и отражает ответ MAX.
type Response struct {
	delivery.Status
	Subscription *maxapi.Subscription `json:"subscription,omitempty"`
}

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
	response := Response{Status: h.manager.GetStatus()}

	if r.URL.Query().Get("verify") == "true" && response.IsWebhook {
		sub, err := h.manager.GetWebhookInfo(r.Context())
		if err != nil {
			h.logger.Warn("Failed to verify webhook subscription: %v", err)
			handlers.RespondAPIError(w, err)
			return
		}
		response.Subscription = sub
	}

	handlers.RespondJSON(w, http.StatusOK, response)
}
