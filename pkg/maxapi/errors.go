package maxapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"
)

// Kind вид ошибки клиента
type Kind string

const (
	KindValidation         Kind = "validation"
	KindAuthentication     Kind = "authentication"
	KindBadRequest         Kind = "bad_request"
	KindNotFound           Kind = "not_found"
	KindMethodNotAllowed   Kind = "method_not_allowed"
	KindRateLimited        Kind = "rate_limited"
	KindServiceUnavailable Kind = "service_unavailable"
	KindGeneric            Kind = "generic"
)

// Reason уточняет причину для KindGeneric
type Reason string

const (
	ReasonStatus    Reason = "status"    // неожиданный HTTP статус
	ReasonTimeout   Reason = "timeout"   // истек клиентский таймаут
	ReasonConnect   Reason = "connect"   // не удалось установить соединение
	ReasonTransport Reason = "transport" // прочие ошибки транспорта
	ReasonDecode    Reason = "decode"    // тело успешного ответа не разобрано
)

var (
	// ErrValidation локальная ошибка валидации, запрос в сеть не отправлялся
	ErrValidation = errors.New("max api: validation failed")

	// ErrAuthentication ответ 401
	ErrAuthentication = errors.New("max api: authentication failed")

	// ErrBadRequest ответ 400
	ErrBadRequest = errors.New("max api: bad request")

	// ErrNotFound ответ 404
	ErrNotFound = errors.New("max api: not found")

	// ErrMethodNotAllowed ответ 405
	ErrMethodNotAllowed = errors.New("max api: method not allowed")

	// ErrRateLimited ответ 429
	ErrRateLimited = errors.New("max api: rate limited")

	// ErrServiceUnavailable ответ 503
	ErrServiceUnavailable = errors.New("max api: service unavailable")

	// ErrGeneric прочие ошибки API и транспорта
	ErrGeneric = errors.New("max api: request failed")

	// ErrTimeout клиентский таймаут запроса
	ErrTimeout = errors.New("max api: request timed out")

	// ErrConnect ошибка подключения к серверу
	ErrConnect = errors.New("max api: connection failed")
)

var kindSentinels = map[Kind]error{
	KindValidation:         ErrValidation,
	KindAuthentication:     ErrAuthentication,
	KindBadRequest:         ErrBadRequest,
	KindNotFound:           ErrNotFound,
	KindMethodNotAllowed:   ErrMethodNotAllowed,
	KindRateLimited:        ErrRateLimited,
	KindServiceUnavailable: ErrServiceUnavailable,
	KindGeneric:            ErrGeneric,
}

var defaultMessages = map[Kind]string{
	KindAuthentication:     "authentication failed, check the bot token",
	KindBadRequest:         "invalid request",
	KindNotFound:           "resource not found",
	KindMethodNotAllowed:   "method not allowed",
	KindRateLimited:        "too many requests, try again later",
	KindServiceUnavailable: "service temporarily unavailable",
}

var statusKinds = map[int]Kind{
	http.StatusBadRequest:         KindBadRequest,
	http.StatusUnauthorized:       KindAuthentication,
	http.StatusNotFound:           KindNotFound,
	http.StatusMethodNotAllowed:   KindMethodNotAllowed,
	http.StatusTooManyRequests:    KindRateLimited,
	http.StatusServiceUnavailable: KindServiceUnavailable,
}

// Error типизированная ошибка MAX API.
// Вид ошибки определяется полем Kind, для KindGeneric причина уточняется в Reason.
type Error struct {
	Kind       Kind
	Reason     Reason
	Message    string
	StatusCode int            // 0, если ответ не был получен
	Body       map[string]any // разобранное тело ответа с ошибкой, если есть
	Err        error          // исходная причина
}

func (e *Error) Error() string {
	var builder strings.Builder
	builder.WriteString("max api: ")

	switch {
	case e.Kind == KindGeneric && e.StatusCode != 0:
		fmt.Fprintf(&builder, "HTTP %d", e.StatusCode)
	case e.Kind == KindGeneric && e.Reason != "":
		builder.WriteString(string(e.Reason))
	case e.StatusCode != 0:
		fmt.Fprintf(&builder, "%s (HTTP %d)", e.Kind, e.StatusCode)
	default:
		builder.WriteString(string(e.Kind))
	}

	if e.Message != "" {
		builder.WriteString(": ")
		builder.WriteString(e.Message)
	}

	return builder.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is сопоставляет ошибку с sentinel-ошибками вида и причины
func (e *Error) Is(target error) bool {
	if sentinel, ok := kindSentinels[e.Kind]; ok && sentinel == target {
		return true
	}

	switch e.Reason {
	case ReasonTimeout:
		return target == ErrTimeout
	case ReasonConnect:
		return target == ErrConnect
	}

	return false
}

// Temporary сообщает, имеет ли смысл повторить запрос позже.
// Политика повторов остается за вызывающим кодом.
func (e *Error) Temporary() bool {
	switch e.Kind {
	case KindRateLimited, KindServiceUnavailable:
		return true
	case KindGeneric:
		return e.Reason == ReasonTimeout || e.Reason == ReasonConnect
	}
	return false
}

// KindOf возвращает вид ошибки или пустую строку, если это не *Error
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return ""
}

// NewValidationError создает локальную ошибку валидации.
// cause может быть nil или sentinel-ошибкой вызывающего пакета.
func NewValidationError(message string, cause error) *Error {
	return &Error{
		Kind:    KindValidation,
		Message: message,
		Err:     cause,
	}
}

// ErrorFromResponse отображает HTTP статус и тело ответа на ошибку.
// Для 200 возвращает nil. Это единственное место, где интерпретируются коды ответа.
func ErrorFromResponse(statusCode int, body []byte) *Error {
	if statusCode == http.StatusOK {
		return nil
	}

	kind, ok := statusKinds[statusCode]
	if !ok {
		kind = KindGeneric
	}

	apiErr := &Error{
		Kind:       kind,
		StatusCode: statusCode,
	}
	if kind == KindGeneric {
		apiErr.Reason = ReasonStatus
	}

	var decoded map[string]any
	if err := json.Unmarshal(body, &decoded); err == nil && decoded != nil {
		apiErr.Body = decoded
		apiErr.Message = firstString(decoded, "message", "error")
	} else {
		apiErr.Message = strings.TrimSpace(string(body))
	}

	if apiErr.Message == "" {
		apiErr.Message = defaultMessage(kind, statusCode)
	}

	return apiErr
}

// errorFromTransport отображает ошибку транспорта на KindGeneric с причиной
func errorFromTransport(err error, budget time.Duration) *Error {
	apiErr := &Error{
		Kind: KindGeneric,
		Err:  err,
	}

	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()):
		apiErr.Reason = ReasonTimeout
		apiErr.Message = fmt.Sprintf("request exceeded the %s budget", budget)
	case isConnectError(err):
		apiErr.Reason = ReasonConnect
		apiErr.Message = fmt.Sprintf("failed to connect to MAX API: %v", err)
	case errors.Is(err, context.Canceled):
		apiErr.Reason = ReasonTransport
		apiErr.Message = "request cancelled"
	default:
		apiErr.Reason = ReasonTransport
		apiErr.Message = fmt.Sprintf("request failed: %v", err)
	}

	return apiErr
}

// errorFromLimiter классифицирует отказ ограничителя частоты: запрос в сеть не уходил
func errorFromLimiter(err error) *Error {
	apiErr := &Error{
		Kind:   KindGeneric,
		Reason: ReasonTransport,
		Err:    err,
	}
	if errors.Is(err, context.DeadlineExceeded) {
		apiErr.Reason = ReasonTimeout
	}
	apiErr.Message = fmt.Sprintf("cancelled while waiting for rate limit admission: %v", err)

	return apiErr
}

func isConnectError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	return errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET)
}

func firstString(body map[string]any, keys ...string) string {
	for _, key := range keys {
		if value, ok := body[key].(string); ok && value != "" {
			return value
		}
	}
	return ""
}

func defaultMessage(kind Kind, statusCode int) string {
	if message, ok := defaultMessages[kind]; ok {
		return message
	}
	if text := http.StatusText(statusCode); text != "" {
		return text
	}
	return "unexpected response"
}
