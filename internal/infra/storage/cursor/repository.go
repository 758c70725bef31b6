package cursor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-MaxGateway/pkg/psqlbuilder"
	"github.com/m04kA/SMC-MaxGateway/pkg/txmanager"
)

const tableName = "delivery_cursors"

// Repository хранит позицию long polling для каждого бота
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория курсоров
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Get возвращает сохраненный маркер или nil, если бот еще не опрашивался
func (r *Repository) Get(ctx context.Context, botID int64) (*int64, error) {
	executor := txmanager.GetExecutor(ctx, r.db)

	query, args, err := buildGet(botID)
	if err != nil {
		return nil, fmt.Errorf("%w: Get - build select query: %v", ErrBuildQuery, err)
	}

	var marker int64
	err = executor.QueryRowContext(ctx, query, args...).Scan(&marker)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: Get - execute select: %v", ErrExecQuery, err)
	}

	return &marker, nil
}

// Save сохраняет маркер. Сохраненное значение никогда не уменьшается.
func (r *Repository) Save(ctx context.Context, botID int64, marker int64) error {
	executor := txmanager.GetExecutor(ctx, r.db)

	query, args, err := buildUpsert(botID, marker)
	if err != nil {
		return fmt.Errorf("%w: Save - build upsert query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: Save - execute upsert: %v", ErrExecQuery, err)
	}

	return nil
}

func buildGet(botID int64) (string, []interface{}, error) {
	return psqlbuilder.Select("marker").
		From(tableName).
		Where(squirrel.Eq{"bot_id": botID}).
		ToSql()
}

func buildUpsert(botID int64, marker int64) (string, []interface{}, error) {
	return psqlbuilder.Insert(tableName).
		Columns("bot_id", "marker", "updated_at").
		Values(botID, marker, squirrel.Expr("NOW()")).
		Suffix("ON CONFLICT (bot_id) DO UPDATE SET marker = GREATEST(" + tableName + ".marker, EXCLUDED.marker), updated_at = NOW()").
		ToSql()
}
