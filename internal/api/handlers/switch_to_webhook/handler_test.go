package switch_to_webhook

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/m04kA/SMC-MaxGateway/pkg/delivery"
	"github.com/m04kA/SMC-MaxGateway/pkg/maxapi"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type fakeManager struct {
	gotURL string
	err    error
}

func (f *fakeManager) SwitchToWebhook(_ context.Context, webhookURL string) (*maxapi.Subscription, error) {
	f.gotURL = webhookURL
	if f.err != nil {
		return nil, f.err
	}
	return &maxapi.Subscription{ID: 7, URL: webhookURL}, nil
}

func TestHandler_Handle(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		err      error
		wantCode int
		wantURL  string
	}{
		{
			name:     "switched",
			body:     `{"url":" https://example.com/hook "}`,
			wantCode: http.StatusOK,
			wantURL:  "https://example.com/hook",
		},
		{
			name:     "unknown field",
			body:     `{"url":"https://example.com/hook","extra":1}`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "empty url",
			body:     `{"url":""}`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "insecure url",
			body:     `{"url":"http://example.com/hook"}`,
			err:      maxapi.NewValidationError("only https is supported", delivery.ErrInsecureWebhookURL),
			wantCode: http.StatusBadRequest,
			wantURL:  "http://example.com/hook",
		},
		{
			name:     "max rejects",
			body:     `{"url":"https://example.com/hook"}`,
			err:      &maxapi.Error{Kind: maxapi.KindAuthentication, Message: "bad token"},
			wantCode: http.StatusBadGateway,
			wantURL:  "https://example.com/hook",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manager := &fakeManager{err: tt.err}
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPut, "/api/v1/delivery/webhook", strings.NewReader(tt.body))

			NewHandler(manager, nopLogger{}).Handle(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantURL, manager.gotURL)
		})
	}
}
