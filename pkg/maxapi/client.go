package maxapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/m04kA/SMC-MaxGateway/pkg/ratelimiter"
)

const (
	// DefaultBaseURL адрес MAX Bot API
	DefaultBaseURL = "https://platform-api.max.ru"

	// DefaultTimeout таймаут обычного запроса
	DefaultTimeout = 30 * time.Second

	// DefaultPollGrace запас клиентского таймаута сверх серверного таймаута long polling
	DefaultPollGrace = 10 * time.Second

	outcomeOK = "ok"
)

// ErrEmptyToken возвращается при создании клиента без токена
var ErrEmptyToken = errors.New("max api: bot token is empty")

// Client клиент MAX Bot API.
// Все операции проходят через единый путь do: ограничитель, запрос с токеном, разбор ответа.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	pollGrace  time.Duration
	limiter    Limiter
	observer   Observer
}

// Option настройка клиента
type Option func(*Client)

// WithBaseURL задает базовый URL API
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithTimeout задает таймаут обычных запросов
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithPollGrace задает запас клиентского таймаута для long polling
func WithPollGrace(grace time.Duration) Option {
	return func(c *Client) {
		if grace > 0 {
			c.pollGrace = grace
		}
	}
}

// WithHTTPClient подменяет HTTP клиент.
// Таймауты задаются через контекст запроса, поэтому http.Client.Timeout должен быть
// нулевым или больше таймаута long polling.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithRateLimit задает скользящее окно ограничителя
func WithRateLimit(maxRequests int, window time.Duration) Option {
	return func(c *Client) {
		c.limiter = ratelimiter.New(maxRequests, window)
	}
}

// WithLimiter подменяет ограничитель
func WithLimiter(limiter Limiter) Option {
	return func(c *Client) {
		if limiter != nil {
			c.limiter = limiter
		}
	}
}

// WithObserver подключает сбор метрик
func WithObserver(observer Observer) Option {
	return func(c *Client) {
		if observer != nil {
			c.observer = observer
		}
	}
}

// New создает клиент MAX Bot API.
// Клиент владеет HTTP сессией, после использования нужно вызвать Close.
func New(token string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrEmptyToken
	}

	c := &Client{
		token:     token,
		baseURL:   DefaultBaseURL,
		timeout:   DefaultTimeout,
		pollGrace: DefaultPollGrace,
		observer:  nopObserver{},
	}
	for _, opt := range opts {
		opt(c)
	}

	if _, err := url.ParseRequestURI(c.baseURL); err != nil {
		return nil, fmt.Errorf("max api: invalid base URL %q: %w", c.baseURL, err)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Transport: http.DefaultTransport.(*http.Transport).Clone()}
	}
	if c.limiter == nil {
		c.limiter = ratelimiter.New(ratelimiter.DefaultMaxRequests, ratelimiter.DefaultWindow)
	}

	return c, nil
}

// Close освобождает соединения HTTP сессии
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

// BaseURL возвращает базовый URL API
func (c *Client) BaseURL() string {
	return c.baseURL
}

// request описание одного вызова API
type request struct {
	method   string
	path     string
	endpoint string // шаблон пути для метрик, например /messages/{id}
	query    url.Values
	body     any
	timeout  time.Duration
}

// do выполняет запрос и декодирует успешный ответ в out.
// Возвращает только *Error.
func (c *Client) do(ctx context.Context, req request, out any) error {
	waitStarted := time.Now()
	if err := c.limiter.Acquire(ctx); err != nil {
		return errorFromLimiter(err)
	}
	c.observer.ObserveRateLimitWait(time.Since(waitStarted))

	timeout := req.timeout
	if timeout <= 0 {
		timeout = c.timeout
	}

	started := time.Now()
	statusCode, err := c.execute(ctx, req, timeout, out)

	outcome := outcomeOK
	if err != nil {
		outcome = string(err.Kind)
	}
	c.observer.ObserveRequest(req.method, req.endpoint, statusCode, outcome, time.Since(started))

	if err != nil {
		return err
	}

	return nil
}

func (c *Client) execute(ctx context.Context, req request, timeout time.Duration, out any) (int, *Error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	target := c.baseURL + req.path
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		payload, err := json.Marshal(req.body)
		if err != nil {
			return 0, &Error{Kind: KindGeneric, Reason: ReasonTransport, Message: fmt.Sprintf("encode request body: %v", err), Err: err}
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, body)
	if err != nil {
		return 0, &Error{Kind: KindGeneric, Reason: ReasonTransport, Message: fmt.Sprintf("build request: %v", err), Err: err}
	}
	httpReq.Header.Set("Authorization", c.token)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return 0, errorFromTransport(err, timeout)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, errorFromTransport(err, timeout)
	}

	if apiErr := ErrorFromResponse(resp.StatusCode, raw); apiErr != nil {
		return resp.StatusCode, apiErr
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return resp.StatusCode, nil
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return resp.StatusCode, &Error{
			Kind:    KindGeneric,
			Reason:  ReasonDecode,
			Message: fmt.Sprintf("decode response: %v", err),
			Err:     err,
		}
	}

	return resp.StatusCode, nil
}
