package inbox

import "github.com/m04kA/SMC-MaxGateway/internal/domain"

const tableName = "max_updates"

var columns = []string{
	"update_type",
	"marker",
	"chat_id",
	"sender_id",
	"text",
	"source",
	"payload",
	"received_at",
}

// ListFilter фильтр выборки журнала. Пустые поля не ограничивают выборку.
type ListFilter struct {
	UpdateType *string
	ChatID     *int64
	Source     *domain.UpdateSource
	Limit      int
	Offset     int
}
