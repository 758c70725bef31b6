package txmanager

import (
	"context"
	"database/sql"
	"fmt"
)

// TransactionManager управляет транзакциями, передавая их через контекст.
// Репозитории получают исполнителя запросов через GetExecutor.
type TransactionManager struct {
	db *sql.DB
}

// NewTransactionManager создаёт новый менеджер транзакций
func NewTransactionManager(db *sql.DB) *TransactionManager {
	return &TransactionManager{
		db: db,
	}
}

// Do выполняет функцию внутри транзакции
// Если функция завершается без ошибки, транзакция фиксируется (commit)
// Если функция возвращает ошибку, транзакция откатывается (rollback)
//
// Пример использования:
//
//	err := tm.Do(ctx, func(ctx context.Context) error {
//	    if err := inboxRepo.SaveBatch(ctx, updates); err != nil {
//	        return err
//	    }
//	    return cursorRepo.Save(ctx, botID, marker)
//	})
func (tm *TransactionManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return tm.DoWithOptions(ctx, nil, fn)
}

// DoWithOptions выполняет функцию внутри транзакции с указанными опциями
func (tm *TransactionManager) DoWithOptions(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context) error) error {
	// Уже в транзакции: переиспользуем существующую
	if IsInTransaction(ctx) {
		return fn(ctx)
	}

	tx, err := tm.db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	txCtx := WithTx(ctx, tx)

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	fnErr := fn(txCtx)

	if fnErr != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction rollback failed: %w (original error: %v)", rbErr, fnErr)
		}
		return fnErr
	}

	if commitErr := tx.Commit(); commitErr != nil {
		return fmt.Errorf("failed to commit transaction: %w", commitErr)
	}

	return nil
}
