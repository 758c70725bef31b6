package list_updates

import (
	"context"

	"github.com/m04kA/SMC-MaxGateway/internal/domain"
	"github.com/m04kA/SMC-MaxGateway/internal/infra/storage/inbox"
)

// UpdatesRepository журнал полученных обновлений
type UpdatesRepository interface {
	List(ctx context.Context, filter inbox.ListFilter) ([]*domain.InboundUpdate, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
