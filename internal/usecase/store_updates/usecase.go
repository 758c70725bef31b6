package store_updates

import (
	"context"
	"fmt"
	"time"

	"github.com/m04kA/SMC-MaxGateway/internal/domain"
	"github.com/m04kA/SMC-MaxGateway/pkg/maxapi"
)

// UseCase сохраняет пакет обновлений в журнал.
// Для long polling вместе с пакетом в той же транзакции сохраняется курсор.
type UseCase struct {
	inbox   InboxRepository
	cursors CursorRepository
	tx      TxManager
	counter UpdatesCounter
	botID   int64
	now     func() time.Time
}

// New создаёт use case. counter может быть nil.
func New(inbox InboxRepository, cursors CursorRepository, tx TxManager, counter UpdatesCounter, botID int64) *UseCase {
	return &UseCase{
		inbox:   inbox,
		cursors: cursors,
		tx:      tx,
		counter: counter,
		botID:   botID,
		now:     time.Now,
	}
}

// Execute сохраняет обновления и, если cursor != nil, позицию long polling
func (uc *UseCase) Execute(ctx context.Context, source domain.UpdateSource, updates []maxapi.Update, cursor *int64) error {
	if len(updates) == 0 && cursor == nil {
		return nil
	}

	receivedAt := uc.now()
	records := make([]*domain.InboundUpdate, 0, len(updates))
	for i := range updates {
		record, err := domain.NewInboundUpdate(&updates[i], source, receivedAt)
		if err != nil {
			return fmt.Errorf("usecase.StoreUpdates: update %d: %w", i, err)
		}
		records = append(records, record)
	}

	err := uc.tx.Do(ctx, func(ctx context.Context) error {
		if err := uc.inbox.SaveBatch(ctx, records); err != nil {
			return fmt.Errorf("save %d updates: %w", len(records), err)
		}
		if cursor != nil {
			if err := uc.cursors.Save(ctx, uc.botID, *cursor); err != nil {
				return fmt.Errorf("save cursor %d: %w", *cursor, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("usecase.StoreUpdates: %w", err)
	}

	uc.count(source, records)

	return nil
}

func (uc *UseCase) count(source domain.UpdateSource, records []*domain.InboundUpdate) {
	if uc.counter == nil {
		return
	}

	byType := make(map[string]int)
	for _, record := range records {
		byType[record.UpdateType]++
	}
	for updateType, count := range byType {
		uc.counter.IncUpdates(string(source), updateType, count)
	}
}
