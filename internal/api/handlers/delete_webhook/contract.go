package delete_webhook

import (
	"context"
)

// DeliveryManager владелец webhook-подписки
type DeliveryManager interface {
	DeleteWebhook(ctx context.Context) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Error(format string, v ...interface{})
}
