package inbox

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-MaxGateway/internal/domain"
	"github.com/m04kA/SMC-MaxGateway/pkg/psqlbuilder"
	"github.com/m04kA/SMC-MaxGateway/pkg/txmanager"
)

// Repository журнал полученных обновлений
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория журнала
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// SaveBatch сохраняет пакет обновлений одним запросом и проставляет ID
func (r *Repository) SaveBatch(ctx context.Context, updates []*domain.InboundUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	executor := txmanager.GetExecutor(ctx, r.db)

	query, args, err := buildInsert(updates)
	if err != nil {
		return fmt.Errorf("%w: SaveBatch - build insert query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: SaveBatch - execute insert: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	i := 0
	for rows.Next() {
		if i >= len(updates) {
			break
		}
		if err := rows.Scan(&updates[i].ID); err != nil {
			return fmt.Errorf("%w: SaveBatch - scan id: %v", ErrScanRow, err)
		}
		i++
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: SaveBatch - rows error: %v", ErrScanRow, err)
	}

	return nil
}

// List возвращает записи журнала, новые первыми
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]*domain.InboundUpdate, error) {
	executor := txmanager.GetExecutor(ctx, r.db)

	query, args, err := buildList(filter)
	if err != nil {
		return nil, fmt.Errorf("%w: List - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: List - execute select: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	result := make([]*domain.InboundUpdate, 0)
	for rows.Next() {
		update, err := scanUpdate(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: List - scan row: %v", ErrScanRow, err)
		}
		result = append(result, update)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: List - rows error: %v", ErrScanRow, err)
	}

	return result, nil
}

func buildInsert(updates []*domain.InboundUpdate) (string, []interface{}, error) {
	builder := psqlbuilder.Insert(tableName).Columns(columns...)

	for _, u := range updates {
		builder = builder.Values(
			u.UpdateType,
			u.Marker,
			nullInt64(u.ChatID),
			nullInt64(u.SenderID),
			nullString(u.Text),
			string(u.Source),
			u.Payload,
			u.ReceivedAt,
		)
	}

	return builder.Suffix("RETURNING id").ToSql()
}

func buildList(filter ListFilter) (string, []interface{}, error) {
	builder := psqlbuilder.Select(append([]string{"id"}, columns...)...).
		From(tableName).
		OrderBy("received_at DESC", "id DESC")

	if filter.UpdateType != nil {
		builder = builder.Where(squirrel.Eq{"update_type": *filter.UpdateType})
	}
	if filter.ChatID != nil {
		builder = builder.Where(squirrel.Eq{"chat_id": *filter.ChatID})
	}
	if filter.Source != nil {
		builder = builder.Where(squirrel.Eq{"source": string(*filter.Source)})
	}
	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		builder = builder.Offset(uint64(filter.Offset))
	}

	return builder.ToSql()
}

func scanUpdate(rows *sql.Rows) (*domain.InboundUpdate, error) {
	var (
		u        domain.InboundUpdate
		marker   sql.NullInt64
		chatID   sql.NullInt64
		senderID sql.NullInt64
		text     sql.NullString
		source   string
	)

	err := rows.Scan(
		&u.ID,
		&u.UpdateType,
		&marker,
		&chatID,
		&senderID,
		&text,
		&source,
		&u.Payload,
		&u.ReceivedAt,
	)
	if err != nil {
		return nil, err
	}

	if marker.Valid {
		value := marker.Int64
		u.Marker = &value
	}
	u.ChatID = chatID.Int64
	u.SenderID = senderID.Int64
	u.Text = text.String
	u.Source = domain.UpdateSource(source)

	return &u, nil
}

func nullInt64(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: v != 0}
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}
