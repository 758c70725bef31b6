package store_updates

import (
	"context"

	"github.com/m04kA/SMC-MaxGateway/internal/domain"
)

// InboxRepository журнал обновлений
type InboxRepository interface {
	SaveBatch(ctx context.Context, updates []*domain.InboundUpdate) error
}

// CursorRepository хранилище позиции long polling
type CursorRepository interface {
	Save(ctx context.Context, botID int64, marker int64) error
}

// TxManager выполняет функцию в транзакции
type TxManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// UpdatesCounter учет полученных обновлений (метрики)
type UpdatesCounter interface {
	IncUpdates(source, updateType string, count int)
}
