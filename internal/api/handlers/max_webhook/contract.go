package max_webhook

import (
	"context"

	"github.com/m04kA/SMC-MaxGateway/internal/domain"
	"github.com/m04kA/SMC-MaxGateway/pkg/maxapi"
)

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
