package switch_to_long_polling

import (
	"context"

	"github.com/m04kA/SMC-MaxGateway/pkg/delivery"
)

// DeliveryManager переключатель режима доставки
type DeliveryManager interface {
	SwitchToLongPolling(ctx context.Context) error
	GetStatus() delivery.Status
}

// Logger интерфейс для логирования
type Logger interface {
	Error(format string, v ...interface{})
}
