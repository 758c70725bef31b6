package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "max_gateway"

// Metrics коллекторы Prometheus сервиса
type Metrics struct {
	serviceName string

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	APIRequestsTotal   *prometheus.CounterVec
	APIRequestDuration *prometheus.HistogramVec
	RateLimitWait      *prometheus.HistogramVec

	UpdatesReceived *prometheus.CounterVec
	DeliveryMode    *prometheus.GaugeVec
}

// New регистрирует коллекторы в глобальном реестре (его отдает promhttp.Handler)
func New(serviceName string) *Metrics {
	return NewWithRegistry(serviceName, prometheus.DefaultRegisterer)
}

// NewWithRegistry регистрирует коллекторы в указанном реестре
func NewWithRegistry(serviceName string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		serviceName: serviceName,

		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of inbound HTTP requests",
		}, []string{"service", "method", "endpoint", "status"}),

		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Inbound HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"service", "method", "endpoint"}),

		APIRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "max_api_requests_total",
			Help:      "Total number of MAX Bot API requests by outcome",
		}, []string{"service", "method", "endpoint", "status", "outcome"}),

		APIRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "max_api_request_duration_seconds",
			Help:      "MAX Bot API request duration in seconds, long polling included",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 45},
		}, []string{"service", "method", "endpoint"}),

		RateLimitWait: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rate_limit_wait_seconds",
			Help:      "Time spent waiting for the outbound rate limiter",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"service"}),

		UpdatesReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "updates_received_total",
			Help:      "Updates received from MAX by delivery source and type",
		}, []string{"service", "source", "update_type"}),

		DeliveryMode: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "delivery_mode",
			Help:      "Active update delivery mode (1 for the active one)",
		}, []string{"service", "mode"}),
	}
}

// ObserveHTTPRequest учитывает входящий HTTP запрос
func (m *Metrics) ObserveHTTPRequest(method, endpoint string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(m.serviceName, method, endpoint, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(m.serviceName, method, endpoint).Observe(duration.Seconds())
}

// ObserveRequest учитывает запрос к MAX API (maxapi.Observer)
func (m *Metrics) ObserveRequest(method, endpoint string, statusCode int, outcome string, duration time.Duration) {
	m.APIRequestsTotal.WithLabelValues(m.serviceName, method, endpoint, strconv.Itoa(statusCode), outcome).Inc()
	m.APIRequestDuration.WithLabelValues(m.serviceName, method, endpoint).Observe(duration.Seconds())
}

// ObserveRateLimitWait учитывает ожидание ограничителя (maxapi.Observer)
func (m *Metrics) ObserveRateLimitWait(wait time.Duration) {
	m.RateLimitWait.WithLabelValues(m.serviceName).Observe(wait.Seconds())
}

// IncUpdates учитывает полученные обновления
func (m *Metrics) IncUpdates(source, updateType string, count int) {
	m.UpdatesReceived.WithLabelValues(m.serviceName, source, updateType).Add(float64(count))
}

// SetDeliveryMode отмечает активный режим доставки
func (m *Metrics) SetDeliveryMode(active string, modes ...string) {
	for _, mode := range modes {
		value := 0.0
		if mode == active {
			value = 1
		}
		m.DeliveryMode.WithLabelValues(m.serviceName, mode).Set(value)
	}
}
