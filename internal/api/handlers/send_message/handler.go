package send_message

import (
	"net/http"
	"strings"

	"github.com/m04kA/SMC-MaxGateway/internal/api/handlers"
	"github.com/m04kA/SMC-MaxGateway/internal/api/handlers/send_message/models"
)

const (
	msgInvalidRequestBody = "неверный формат тела запроса"
	msgEmptyText          = "текст сообщения не может быть пустым"
)

type Handler struct {
	sender MessageSender
	logger Logger
}

func NewHandler(sender MessageSender, logger Logger) *Handler {
	return &Handler{
		sender: sender,
		logger: logger,
	}
}

func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req models.SendMessageRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("Failed to decode request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	if strings.TrimSpace(req.Text) == "" && len(req.Attachments) == 0 {
		handlers.RespondBadRequest(w, msgEmptyText)
		return
	}

	// Получатель и формат проверяет клиент, до обращения к сети
	sent, err := h.sender.SendMessage(r.Context(), req.UserID, req.Text, req.ToOptions())
	if err != nil {
		h.logger.Error("Failed to send message to %d: %v", req.UserID, err)
		handlers.RespondAPIError(w, err)
		return
	}

	h.logger.Info("Sent message %s to user %d", sent.MessageID, req.UserID)

	handlers.RespondJSON(w, http.StatusCreated, models.FromSentMessage(sent))
}
