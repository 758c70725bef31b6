package middleware

import "time"

// HTTPObserver приемник метрик входящих запросов
type HTTPObserver interface {
	ObserveHTTPRequest(method, endpoint string, status int, duration time.Duration)
}
