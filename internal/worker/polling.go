package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/m04kA/SMC-MaxGateway/internal/domain"
	"github.com/m04kA/SMC-MaxGateway/pkg/delivery"
	"github.com/m04kA/SMC-MaxGateway/pkg/maxapi"
)

// DefaultRetryDelay пауза после неудачного цикла long polling
const DefaultRetryDelay = 5 * time.Second

// PollingWorker получает обновления через long polling и сохраняет их в журнал.
// В режиме webhook цикл не обращается к сети и ждет возврата в long polling.
type PollingWorker struct {
	manager      DeliveryManager
	storeUpdates StoreUpdatesUseCase
	logger       Logger
	pollTimeout  time.Duration
	retryDelay   time.Duration

	lastSaved *int64
	pending   *pendingBatch
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

type pendingBatch struct {
	updates []maxapi.Update
	cursor  *int64
}

// NewPollingWorker создаёт новый worker long polling
func NewPollingWorker(manager DeliveryManager, storeUpdates StoreUpdatesUseCase, logger Logger, pollTimeout, retryDelay time.Duration) *PollingWorker {
	if pollTimeout <= 0 {
		pollTimeout = maxapi.DefaultPollTimeout
	}
	if retryDelay <= 0 {
		retryDelay = DefaultRetryDelay
	}

	return &PollingWorker{
		manager:      manager,
		storeUpdates: storeUpdates,
		logger:       logger,
		pollTimeout:  pollTimeout,
		retryDelay:   retryDelay,
		lastSaved:    manager.Cursor(),
	}
}

// Start запускает цикл в отдельной goroutine
func (w *PollingWorker) Start(ctx context.Context) {
	w.ctx, w.cancel = context.WithCancel(ctx)

	w.logger.Info("Starting MAX long polling worker (timeout: %s, retry delay: %s)", w.pollTimeout, w.retryDelay)

	w.wg.Add(1)
	go w.run()
}

// Stop прерывает текущий запрос и дожидается завершения цикла
func (w *PollingWorker) Stop() {
	w.logger.Info("Stopping MAX long polling worker")
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
	w.logger.Info("MAX long polling worker stopped")
}

func (w *PollingWorker) run() {
	defer w.wg.Done()

	paused := false
	for {
		if w.ctx.Err() != nil {
			return
		}

		err := w.pollOnce(w.ctx)
		switch {
		case err == nil:
			if paused {
				w.logger.Info("Long polling resumed")
				paused = false
			}
			continue
		case w.ctx.Err() != nil:
			return
		case errors.Is(err, delivery.ErrModeMismatch):
			if !paused {
				w.logger.Info("Long polling paused: webhook mode is active")
				paused = true
			}
		default:
			w.logger.Error("Long polling failed, retrying in %s: %v", w.retryDelay, err)
		}

		select {
		case <-w.ctx.Done():
			return
		case <-time.After(w.retryDelay):
		}
	}
}

// pollOnce выполняет один запрос и сохраняет результат.
// Пакет, который не удалось сохранить, сохраняется повторно до следующего запроса.
func (w *PollingWorker) pollOnce(ctx context.Context) error {
	if w.pending != nil {
		if err := w.flush(ctx); err != nil {
			return err
		}
	}

	result, err := w.manager.GetUpdates(ctx, w.pollTimeout, nil)
	if err != nil {
		return err
	}

	cursor := w.manager.Cursor()
	var changed *int64
	if cursor != nil && (w.lastSaved == nil || *cursor != *w.lastSaved) {
		changed = cursor
	}

	if len(result.Updates) == 0 && changed == nil {
		return nil
	}

	w.pending = &pendingBatch{updates: result.Updates, cursor: changed}
	if err := w.flush(ctx); err != nil {
		return err
	}

	w.logger.Info("Received %d updates via long polling", len(result.Updates))

	return nil
}

func (w *PollingWorker) flush(ctx context.Context) error {
	if err := w.storeUpdates.Execute(ctx, domain.UpdateSourceLongPolling, w.pending.updates, w.pending.cursor); err != nil {
		return err
	}
	if w.pending.cursor != nil {
		w.lastSaved = w.pending.cursor
	}
	w.pending = nil
	return nil
}
