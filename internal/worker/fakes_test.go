package worker

import (
	"context"
	"sync"
	"time"

	"github.com/m04kA/SMC-MaxGateway/internal/domain"
	"github.com/m04kA/SMC-MaxGateway/pkg/delivery"
	"github.com/m04kA/SMC-MaxGateway/pkg/maxapi"
	"github.com/m04kA/SMC-MaxGateway/pkg/ptr"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type pollStep struct {
	result *maxapi.UpdatesResult
	cursor *int64
	err    error
}

type fakeManager struct {
	mu sync.Mutex

	steps     []pollStep
	polls     int
	cursor    *int64
	webhook   bool
	url       string
	info      *maxapi.Subscription
	infoErr   error
	switchErr error
	switched  []string
}

func (f *fakeManager) GetUpdates(ctx context.Context, _ time.Duration, _ *int64) (*maxapi.UpdatesResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.polls++
	if len(f.steps) == 0 {
		f.mu.Unlock()
		<-ctx.Done()
		f.mu.Lock()
		return nil, ctx.Err()
	}

	step := f.steps[0]
	f.steps = f.steps[1:]
	if step.err != nil {
		return nil, step.err
	}
	if step.cursor != nil {
		f.cursor = step.cursor
	}
	return step.result, nil
}

func (f *fakeManager) Cursor() *int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return ptr.Clone(f.cursor)
}

func (f *fakeManager) IsWebhook() bool { return f.webhook }

func (f *fakeManager) WebhookURL() string { return f.url }

func (f *fakeManager) GetWebhookInfo(context.Context) (*maxapi.Subscription, error) {
	return f.info, f.infoErr
}

func (f *fakeManager) SwitchToWebhook(_ context.Context, url string) (*maxapi.Subscription, error) {
	f.switched = append(f.switched, url)
	if f.switchErr != nil {
		return nil, f.switchErr
	}
	return &maxapi.Subscription{ID: 2, URL: url}, nil
}

type storeCall struct {
	source  domain.UpdateSource
	updates int
	cursor  *int64
}

type fakeStore struct {
	mu    sync.Mutex
	calls []storeCall
	errs  []error
}

func (f *fakeStore) Execute(_ context.Context, source domain.UpdateSource, updates []maxapi.Update, cursor *int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, storeCall{source: source, updates: len(updates), cursor: cursor})
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return err
	}
	return nil
}

var errWebhookMode = maxapi.NewValidationError("webhook mode", delivery.ErrModeMismatch)
