package models

import (
	"github.com/m04kA/SMC-MaxGateway/pkg/maxapi"
)

// SendMessageRequest HTTP запрос на отправку сообщения
type SendMessageRequest struct {
	UserID              int64               `json:"user_id"`
	Text                string              `json:"text"`
	Format              maxapi.Format       `json:"format,omitempty"`
	Attachments         []maxapi.Attachment `json:"attachments,omitempty"`
	DisableLinkPreview  bool                `json:"disable_link_preview,omitempty"`
	DisableNotification bool                `json:"disable_notification,omitempty"`
}

// ToOptions преобразует HTTP модель в опции клиента
func (r *SendMessageRequest) ToOptions() *maxapi.SendMessageOptions {
	return &maxapi.SendMessageOptions{
		Attachments:         r.Attachments,
		Format:              r.Format,
		DisableLinkPreview:  r.DisableLinkPreview,
		DisableNotification: r.DisableNotification,
	}
}

// SendMessageResponse HTTP ответ с данными отправленного сообщения
type SendMessageResponse struct {
	MessageID string `json:"message_id"`
	Timestamp int64  `json:"timestamp"`
	ChatID    int64  `json:"chat_id,omitempty"`
}

// FromSentMessage преобразует ответ MAX в HTTP ответ
func FromSentMessage(sent *maxapi.SentMessage) *SendMessageResponse {
	response := &SendMessageResponse{
		MessageID: sent.MessageID,
		Timestamp: sent.Timestamp,
	}
	if sent.Message != nil {
		response.ChatID = sent.Message.Recipient.ChatID
	}
	return response
}
