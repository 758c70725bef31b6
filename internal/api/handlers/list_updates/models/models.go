package models

import (
	"time"

	"github.com/m04kA/SMC-MaxGateway/internal/domain"
	"github.com/m04kA/SMC-MaxGateway/internal/infra/storage/inbox"
	"github.com/m04kA/SMC-MaxGateway/pkg/types"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// ListUpdatesQuery параметры запроса для фильтрации журнала
type ListUpdatesQuery struct {
	UpdateType *string
	ChatID     *int64
	Source     *domain.UpdateSource
	Page       int
	Limit      int
}

// Normalize устанавливает значения по умолчанию и ограничивает размер страницы
func (q *ListUpdatesQuery) Normalize() {
	if q.Page <= 0 {
		q.Page = DefaultPage
	}
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
}

// ToRepositoryFilter преобразует параметры запроса в фильтр репозитория
func (q *ListUpdatesQuery) ToRepositoryFilter() inbox.ListFilter {
	return inbox.ListFilter{
		UpdateType: q.UpdateType,
		ChatID:     q.ChatID,
		Source:     q.Source,
		Limit:      q.Limit,
		Offset:     (q.Page - 1) * q.Limit,
	}
}

// UpdateResponse HTTP ответ с записью журнала
type UpdateResponse struct {
	ID         int64               `json:"id"`
	UpdateType string              `json:"update_type"`
	Marker     *int64              `json:"marker,omitempty"`
	ChatID     int64               `json:"chat_id,omitempty"`
	SenderID   int64               `json:"sender_id,omitempty"`
	Text       string              `json:"text,omitempty"`
	Source     domain.UpdateSource `json:"source"`
	Payload    types.JSONB         `json:"payload"`
	ReceivedAt time.Time           `json:"received_at"`
}

// ListUpdatesResponse HTTP ответ со страницей журнала
type ListUpdatesResponse struct {
	Updates []*UpdateResponse `json:"updates"`
	Page    int               `json:"page"`
	Limit   int               `json:"limit"`
}

// FromDomainUpdates преобразует записи журнала в HTTP ответ
func FromDomainUpdates(updates []*domain.InboundUpdate, page, limit int) *ListUpdatesResponse {
	items := make([]*UpdateResponse, len(updates))
	for i, u := range updates {
		items[i] = &UpdateResponse{
			ID:         u.ID,
			UpdateType: u.UpdateType,
			Marker:     u.Marker,
			ChatID:     u.ChatID,
			SenderID:   u.SenderID,
			Text:       u.Text,
			Source:     u.Source,
			Payload:    u.Payload,
			ReceivedAt: u.ReceivedAt,
		}
	}

	return &ListUpdatesResponse{
		Updates: items,
		Page:    page,
		Limit:   limit,
	}
}
