package switch_to_webhook

import (
	"net/http"
	"strings"

	"github.com/m04kA/SMC-MaxGateway/internal/api/handlers"
)

const (
	msgInvalidRequestBody = "неверный формат тела запроса"
	msgMissingURL         = "необходимо указать url"
)

// Request тело запроса на переключение в режим webhook
type Request struct {
	URL string `json:"url"`
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
	var req Request
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("Failed to decode request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	req.URL = strings.TrimSpace(req.URL)
	if req.URL == "" {
		handlers.RespondBadRequest(w, msgMissingURL)
		return
	}

	sub, err := h.manager.SwitchToWebhook(r.Context(), req.URL)
	if err != nil {
		h.logger.Error("Failed to switch to webhook %s: %v", req.URL, err)
		handlers.RespondAPIError(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, sub)
}
