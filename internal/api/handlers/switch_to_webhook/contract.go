package switch_to_webhook

import (
	"context"

	"github.com/m04kA/SMC-MaxGateway/pkg/maxapi"
)

// DeliveryManager переключатель режима доставки
type DeliveryManager interface {
	SwitchToWebhook(ctx context.Context, webhookURL string) (*maxapi.Subscription, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
