package maxapi

import (
	"context"
	"time"
)

// Limiter ограничитель частоты исходящих запросов
type Limiter interface {
	// Acquire блокирует до получения допуска на запрос
	Acquire(ctx context.Context) error
}

// Observer получает сведения о каждом запросе к API (метрики)
type Observer interface {
	// ObserveRequest вызывается после завершения запроса.
	// outcome равен "ok" или виду ошибки
	ObserveRequest(method, endpoint string, statusCode int, outcome string, duration time.Duration)

	// ObserveRateLimitWait вызывается после получения допуска ограничителя
	ObserveRateLimitWait(wait time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObserveRequest(string, string, int, string, time.Duration) {}
func (nopObserver) ObserveRateLimitWait(time.Duration)                       {}
