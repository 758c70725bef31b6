package domain

import (
	"fmt"
	"time"

	"github.com/m04kA/SMC-MaxGateway/pkg/maxapi"
	"github.com/m04kA/SMC-MaxGateway/pkg/types"
)

// UpdateSource канал, которым обновление пришло в сервис
type UpdateSource string

const (
	UpdateSourceLongPolling UpdateSource = "long_polling"
	UpdateSourceWebhook     UpdateSource = "webhook"
)

// InboundUpdate обновление MAX, сохраненное в журнал
type InboundUpdate struct {
	ID         int64
	UpdateType string
	Marker     *int64
	ChatID     int64
	SenderID   int64
	Text       string
	Source     UpdateSource
	Payload    types.JSONB
	ReceivedAt time.Time
}

// NewInboundUpdate собирает запись журнала из обновления API
func NewInboundUpdate(update *maxapi.Update, source UpdateSource, receivedAt time.Time) (*InboundUpdate, error) {
	payload, err := update.JSON()
	if err != nil {
		return nil, fmt.Errorf("encode update payload: %w", err)
	}

	return &InboundUpdate{
		UpdateType: update.UpdateType,
		Marker:     update.Marker,
		ChatID:     update.GetChatID(),
		SenderID:   update.GetSenderID(),
		Text:       update.Text(),
		Source:     source,
		Payload:    types.JSONB(payload),
		ReceivedAt: receivedAt,
	}, nil
}
