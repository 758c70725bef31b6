package delivery_status

import (
	"context"

	"github.com/m04kA/SMC-MaxGateway/pkg/delivery"
	"github.com/m04kA/SMC-MaxGateway/pkg/maxapi"
)

// DeliveryManager источник состояния доставки
type DeliveryManager interface {
	GetStatus() delivery.Status
	GetWebhookInfo(ctx context.Context) (*maxapi.Subscription, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Warn(format string, v ...interface{})
}
