package maxapi

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultPollTimeout серверный таймаут long polling по умолчанию
const DefaultPollTimeout = 30 * time.Second

// GetUpdatesParams параметры GET /updates
type GetUpdatesParams struct {
	Limit   int           // 0 - значение сервера по умолчанию
	Timeout time.Duration // 0 - DefaultPollTimeout
	Marker  *int64        // nil - сервер сам выбирает позицию
	Types   []string
}

// GetUpdates получает обновления через long polling.
// Сервер держит соединение до появления обновлений или истечения Timeout,
// пустой результат после таймаута - штатная ситуация.
// Маркер из ответа возвращается в UpdatesResult.Marker, хранить его должен вызывающий.
func (c *Client) GetUpdates(ctx context.Context, params GetUpdatesParams) (*UpdatesResult, error) {
	timeout := params.Timeout
	if timeout <= 0 {
		timeout = DefaultPollTimeout
	}
	seconds := pollTimeoutSeconds(timeout)
	timeout = time.Duration(seconds) * time.Second

	query := url.Values{}
	query.Set("timeout", strconv.Itoa(seconds))
	if params.Limit > 0 {
		query.Set("limit", strconv.Itoa(params.Limit))
	}
	if params.Marker != nil {
		query.Set("marker", strconv.FormatInt(*params.Marker, 10))
	}
	if len(params.Types) > 0 {
		query.Set("types", strings.Join(params.Types, ","))
	}

	var result UpdatesResult
	err := c.do(ctx, request{
		method:   http.MethodGet,
		path:     "/updates",
		endpoint: "/updates",
		query:    query,
		// Клиентский таймаут строго больше серверного, чтобы первым срабатывал сервер
		timeout: timeout + c.pollGrace,
	}, &result)
	if err != nil {
		return nil, err
	}

	if result.Updates == nil {
		result.Updates = []Update{}
	}

	return &result, nil
}

// pollTimeoutSeconds переводит таймаут в целые секунды с округлением вверх.
// Сервер принимает только секунды, 0 означал бы немедленный ответ.
func pollTimeoutSeconds(timeout time.Duration) int {
	return int((timeout + time.Second - 1) / time.Second)
}
