package maxapi

import (
	"context"
	"net/http"
)

// GetMe возвращает информацию о боте, которому принадлежит токен.
// При неверном токене возвращает ошибку KindAuthentication.
func (c *Client) GetMe(ctx context.Context) (*BotInfo, error) {
	var info BotInfo
	if err := c.do(ctx, request{method: http.MethodGet, path: "/me", endpoint: "/me"}, &info); err != nil {
		return nil, err
	}
	return &info, nil
}
