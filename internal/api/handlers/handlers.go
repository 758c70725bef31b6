package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/m04kA/SMC-MaxGateway/pkg/maxapi"
)

const (
	maxBodySize = 1 << 20

	msgInternalError = "внутренняя ошибка сервера"
)

// ErrorResponse тело ответа с ошибкой
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// DecodeJSON читает тело запроса в dst, неизвестные поля запрещены
func DecodeJSON(r *http.Request, dst interface{}) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}

	return nil
}

// RespondJSON пишет ответ в JSON
func RespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

// RespondError пишет ошибку с указанным статусом
func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, ErrorResponse{Error: message})
}

func RespondBadRequest(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusBadRequest, message)
}

func RespondNotFound(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusNotFound, message)
}

func RespondInternalError(w http.ResponseWriter) {
	RespondError(w, http.StatusInternalServerError, msgInternalError)
}

// RespondAPIError отображает ошибку MAX API на статус ответа шлюза
func RespondAPIError(w http.ResponseWriter, err error) {
	var apiErr *maxapi.Error
	if !errors.As(err, &apiErr) {
		RespondInternalError(w)
		return
	}

	RespondJSON(w, StatusForAPIError(apiErr), ErrorResponse{
		Error: apiErr.Message,
		Kind:  string(apiErr.Kind),
	})
}

// StatusForAPIError статус ответа шлюза для ошибки MAX API
func StatusForAPIError(apiErr *maxapi.Error) int {
	switch apiErr.Kind {
	case maxapi.KindValidation, maxapi.KindBadRequest:
		return http.StatusBadRequest
	case maxapi.KindNotFound:
		return http.StatusNotFound
	case maxapi.KindRateLimited:
		return http.StatusTooManyRequests
	case maxapi.KindServiceUnavailable:
		return http.StatusServiceUnavailable
	case maxapi.KindGeneric:
		if apiErr.Reason == maxapi.ReasonTimeout {
			return http.StatusGatewayTimeout
		}
	}
	// Ошибка токена бота и прочие ответы MAX отдаются как 502
	return http.StatusBadGateway
}
