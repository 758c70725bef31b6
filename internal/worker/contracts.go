package worker

import (
	"context"
	"time"

	"github.com/m04kA/SMC-MaxGateway/internal/domain"
	"github.com/m04kA/SMC-MaxGateway/pkg/maxapi"
)

// DeliveryManager менеджер режима доставки обновлений (delivery.Manager)
type DeliveryManager interface {
	// GetUpdates выполняет один цикл long polling
	GetUpdates(ctx context.Context, timeout time.Duration, marker *int64) (*maxapi.UpdatesResult, error)

	// Cursor возвращает текущую позицию long polling
	Cursor() *int64

	// IsWebhook проверяет, активен ли режим webhook
	IsWebhook() bool

	// WebhookURL возвращает URL текущей подписки
	WebhookURL() string

	// GetWebhookInfo ищет текущую подписку на сервере
	GetWebhookInfo(ctx context.Context) (*maxapi.Subscription, error)

	// SwitchToWebhook заново создает подписку
	SwitchToWebhook(ctx context.Context, url string) (*maxapi.Subscription, error)
}

// StoreUpdatesUseCase сохраняет полученные обновления
type StoreUpdatesUseCase interface {
	Execute(ctx context.Context, source domain.UpdateSource, updates []maxapi.Update, cursor *int64) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
