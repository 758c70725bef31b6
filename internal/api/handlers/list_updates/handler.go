package list_updates

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/m04kA/SMC-MaxGateway/internal/api/handlers"
	"github.com/m04kA/SMC-MaxGateway/internal/api/handlers/list_updates/models"
	"github.com/m04kA/SMC-MaxGateway/internal/domain"
)

type Handler struct {
	repository UpdatesRepository
	logger     Logger
}

func NewHandler(repository UpdatesRepository, logger Logger) *Handler {
	return &Handler{
		repository: repository,
		logger:     logger,
	}
}

func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	query, err := h.parseQuery(r)
	if err != nil {
		h.logger.Warn("Invalid query parameters: %v", err)
		handlers.RespondBadRequest(w, err.Error())
		return
	}

	query.Normalize()

	updates, err := h.repository.List(r.Context(), query.ToRepositoryFilter())
	if err != nil {
		h.logger.Error("Failed to list updates: %v", err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("Listed %d updates (page: %d, limit: %d)", len(updates), query.Page, query.Limit)

	handlers.RespondJSON(w, http.StatusOK, models.FromDomainUpdates(updates, query.Page, query.Limit))
}

// parseQuery парсит query параметры из HTTP запроса
func (h *Handler) parseQuery(r *http.Request) (*models.ListUpdatesQuery, error) {
	params := r.URL.Query()
	query := &models.ListUpdatesQuery{}

	if updateType := params.Get("update_type"); updateType != "" {
		query.UpdateType = &updateType
	}

	if chatIDStr := params.Get("chat_id"); chatIDStr != "" {
		chatID, err := strconv.ParseInt(chatIDStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid chat_id: %s", chatIDStr)
		}
		query.ChatID = &chatID
	}

	if sourceStr := params.Get("source"); sourceStr != "" {
		source := domain.UpdateSource(sourceStr)
		if source != domain.UpdateSourceLongPolling && source != domain.UpdateSourceWebhook {
			return nil, fmt.Errorf("invalid source: %s", sourceStr)
		}
		query.Source = &source
	}

	if pageStr := params.Get("page"); pageStr != "" {
		page, err := strconv.Atoi(pageStr)
		if err != nil {
			return nil, fmt.Errorf("invalid page: %s", pageStr)
		}
		if page < 1 {
			return nil, fmt.Errorf("page must be >= 1")
		}
		query.Page = page
	}

	if limitStr := params.Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return nil, fmt.Errorf("invalid limit: %s", limitStr)
		}
		if limit < 1 {
			return nil, fmt.Errorf("limit must be >= 1")
		}
		query.Limit = limit
	}

	return query, nil
}
