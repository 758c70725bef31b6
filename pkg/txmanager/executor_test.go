package txmanager

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetExecutor(t *testing.T) {
	db := &sql.DB{}
	tx := &sql.Tx{}

	assert.False(t, IsInTransaction(context.Background()))
	assert.Same(t, db, GetExecutor(context.Background(), db))

	ctx := WithTx(context.Background(), tx)
	assert.True(t, IsInTransaction(ctx))
	assert.Same(t, tx, GetExecutor(ctx, db))
}

func TestDo_ReusesOuterTransaction(t *testing.T) {
	// Менеджер без БД: вложенный вызов не должен открывать транзакцию
	tm := NewTransactionManager(nil)
	ctx := WithTx(context.Background(), &sql.Tx{})

	called := false
	err := tm.Do(ctx, func(inner context.Context) error {
		called = true
		assert.True(t, IsInTransaction(inner))
		return nil
	})

	assert.NoError(t, err)
	assert.True(t, called)
}
