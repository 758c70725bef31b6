package delivery

import (
	"context"

	"github.com/m04kA/SMC-MaxGateway/pkg/maxapi"
)

// APIClient операции MAX API, которые использует менеджер
type APIClient interface {
	GetUpdates(ctx context.Context, params maxapi.GetUpdatesParams) (*maxapi.UpdatesResult, error)
	CreateSubscription(ctx context.Context, url string, updateTypes []string, version string) (*maxapi.Subscription, error)
	GetSubscriptions(ctx context.Context) ([]maxapi.Subscription, error)
	DeleteSubscription(ctx context.Context, url string) (*maxapi.ActionResult, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{}) {}
func (nopLogger) Warn(string, ...interface{}) {}
