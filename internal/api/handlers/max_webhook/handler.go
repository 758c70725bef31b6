package max_webhook

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/m04kA/SMC-MaxGateway/internal/api/handlers"
	"github.com/m04kA/SMC-MaxGateway/internal/domain"
	"github.com/m04kA/SMC-MaxGateway/pkg/maxapi"
)

const (
	maxUpdateSize = 1 << 20

	msgInvalidRequestBody = "неверный формат тела запроса"
	msgMissingUpdateType  = "не указан update_type"
)

// Handler принимает обновления, которые MAX доставляет на webhook.
// Тело обновления сохраняется целиком, включая неизвестные поля.
type Handler struct {
	storeUpdates StoreUpdatesUseCase
	logger       Logger
}

func NewHandler(storeUpdates StoreUpdatesUseCase, logger Logger) *Handler {
	return &Handler{
		storeUpdates: storeUpdates,
		logger:       logger,
	}
}

func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxUpdateSize))
	if err != nil {
		h.logger.Warn("Failed to read MAX webhook body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	var update maxapi.Update
	if err := json.Unmarshal(body, &update); err != nil {
		h.logger.Warn("Failed to decode MAX webhook update: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}
	if update.UpdateType == "" {
		h.logger.Warn("MAX webhook update without update_type")
		handlers.RespondBadRequest(w, msgMissingUpdateType)
		return
	}

	// Ошибка сохранения отдается как 500, чтобы MAX повторил доставку
	if err := h.storeUpdates.Execute(r.Context(), domain.UpdateSourceWebhook, []maxapi.Update{update}, nil); err != nil {
		h.logger.Error("Failed to store MAX webhook update %s: %v", update.UpdateType, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("Received %s update via webhook (chat %d)", update.UpdateType, update.GetChatID())
	w.WriteHeader(http.StatusOK)
}
