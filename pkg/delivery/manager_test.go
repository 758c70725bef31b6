package delivery

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-MaxGateway/pkg/maxapi"
)

type spyClient struct {
	mu sync.Mutex

	pollCalls   int
	createCalls int
	listCalls   int
	deleted     []string
	polledWith  []*int64

	pollResults   []*maxapi.UpdatesResult
	pollErr       error
	createErr     error
	deleteErr     error
	subscriptions []maxapi.Subscription
	nextID        int64
}

func (s *spyClient) GetUpdates(_ context.Context, params maxapi.GetUpdatesParams) (*maxapi.UpdatesResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pollCalls++
	s.polledWith = append(s.polledWith, params.Marker)
	if s.pollErr != nil {
		return nil, s.pollErr
	}
	if len(s.pollResults) == 0 {
		return &maxapi.UpdatesResult{Updates: []maxapi.Update{}}, nil
	}
	result := s.pollResults[0]
	s.pollResults = s.pollResults[1:]
	return result, nil
}

func (s *spyClient) CreateSubscription(_ context.Context, url string, updateTypes []string, version string) (*maxapi.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.createCalls++
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.nextID++
	sub := maxapi.Subscription{ID: s.nextID, URL: url, UpdateTypes: updateTypes, Version: version}
	s.subscriptions = append(s.subscriptions, sub)
	return &sub, nil
}

func (s *spyClient) GetSubscriptions(context.Context) ([]maxapi.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.listCalls++
	return append([]maxapi.Subscription(nil), s.subscriptions...), nil
}

func (s *spyClient) DeleteSubscription(_ context.Context, url string) (*maxapi.ActionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deleted = append(s.deleted, url)
	if s.deleteErr != nil {
		return nil, s.deleteErr
	}
	kept := s.subscriptions[:0]
	for _, sub := range s.subscriptions {
		if sub.URL != url {
			kept = append(kept, sub)
		}
	}
	s.subscriptions = kept
	return &maxapi.ActionResult{Success: true}, nil
}

func (s *spyClient) networkCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pollCalls + s.createCalls + s.listCalls + len(s.deleted)
}

func marker(v int64) *int64 { return &v }

func update(m *int64) maxapi.Update {
	return maxapi.Update{UpdateType: maxapi.UpdateMessageCreated, Marker: m}
}

func TestManager_DefaultsToLongPolling(t *testing.T) {
	m := NewManager(&spyClient{})

	assert.Equal(t, ModeLongPolling, m.Mode())
	assert.True(t, m.IsLongPolling())
	assert.False(t, m.IsWebhook())
	assert.Empty(t, m.WebhookURL())
	assert.Nil(t, m.Cursor())
	assert.Equal(t, "delivery.Manager{mode=long_polling}", m.String())
}

func TestManager_SwitchToWebhook_RejectsInsecureURL(t *testing.T) {
	client := &spyClient{}
	m := NewManager(client)

	for _, raw := range []string{"http://bot.example.com/hook", "bot.example.com/hook", "https://", ""} {
		_, err := m.SwitchToWebhook(context.Background(), raw)
		require.Error(t, err, raw)
		assert.ErrorIs(t, err, maxapi.ErrValidation)
		assert.ErrorIs(t, err, ErrInsecureWebhookURL)
	}

	assert.Zero(t, client.networkCalls())
	assert.Equal(t, ModeLongPolling, m.Mode())
}

func TestManager_SwitchToWebhook(t *testing.T) {
	client := &spyClient{}
	var modes []Mode
	m := NewManager(client, WithUpdateTypes([]string{maxapi.UpdateMessageCreated}), WithModeListener(func(mode Mode) {
		modes = append(modes, mode)
	}))

	sub, err := m.SwitchToWebhook(context.Background(), "https://bot.example.com/hook")
	require.NoError(t, err)

	assert.Equal(t, int64(1), sub.ID)
	assert.Equal(t, []string{maxapi.UpdateMessageCreated}, sub.UpdateTypes)
	assert.Equal(t, maxapi.DefaultSubscriptionVersion, sub.Version)
	assert.True(t, m.IsWebhook())
	assert.Equal(t, "https://bot.example.com/hook", m.WebhookURL())
	assert.Empty(t, client.deleted)
	assert.Equal(t, []Mode{ModeWebhook}, modes)

	assert.Equal(t, Status{
		Mode:           ModeWebhook,
		IsWebhook:      true,
		WebhookURL:     "https://bot.example.com/hook",
		SubscriptionID: 1,
	}, m.GetStatus())
}

func TestManager_SwitchToWebhook_ReplacesSubscription(t *testing.T) {
	client := &spyClient{}
	m := NewManager(client)
	ctx := context.Background()

	_, err := m.SwitchToWebhook(ctx, "https://old.example.com/hook")
	require.NoError(t, err)

	client.deleteErr = errors.New("boom")
	sub, err := m.SwitchToWebhook(ctx, "https://new.example.com/hook")
	require.NoError(t, err, "failed deletion of the replaced subscription is not fatal")

	assert.Equal(t, []string{"https://old.example.com/hook"}, client.deleted)
	assert.Equal(t, "https://new.example.com/hook", sub.URL)
	assert.Equal(t, "https://new.example.com/hook", m.WebhookURL())
}

func TestManager_SwitchToWebhook_CreateFailureKeepsState(t *testing.T) {
	client := &spyClient{createErr: &maxapi.Error{Kind: maxapi.KindBadRequest, StatusCode: 400, Message: "bad url"}}
	m := NewManager(client, WithCursor(marker(7)))

	_, err := m.SwitchToWebhook(context.Background(), "https://bot.example.com/hook")
	require.Error(t, err)
	assert.ErrorIs(t, err, maxapi.ErrBadRequest)

	assert.Equal(t, ModeLongPolling, m.Mode())
	assert.Equal(t, marker(7), m.Cursor())
}

func TestManager_GetUpdates_WebhookModeMakesNoCalls(t *testing.T) {
	client := &spyClient{}
	m := NewManager(client, WithMode(ModeWebhook))

	_, err := m.GetUpdates(context.Background(), time.Second, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, maxapi.ErrValidation)
	assert.ErrorIs(t, err, ErrModeMismatch)
	assert.Zero(t, client.networkCalls())
}

func TestManager_SwitchToLongPolling_Idempotent(t *testing.T) {
	client := &spyClient{}
	m := NewManager(client)
	ctx := context.Background()

	require.NoError(t, m.SwitchToLongPolling(ctx))
	require.NoError(t, m.SwitchToLongPolling(ctx))
	assert.Zero(t, client.networkCalls())

	_, err := m.SwitchToWebhook(ctx, "https://bot.example.com/hook")
	require.NoError(t, err)

	client.deleteErr = errors.New("boom")
	require.NoError(t, m.SwitchToLongPolling(ctx))
	require.NoError(t, m.SwitchToLongPolling(ctx))

	assert.Equal(t, []string{"https://bot.example.com/hook"}, client.deleted)
	assert.True(t, m.IsLongPolling())
	assert.Empty(t, m.WebhookURL())
}

func TestManager_DeleteWebhook(t *testing.T) {
	client := &spyClient{}
	m := NewManager(client)
	ctx := context.Background()

	_, err := m.SwitchToWebhook(ctx, "https://bot.example.com/hook")
	require.NoError(t, err)

	client.deleteErr = &maxapi.Error{Kind: maxapi.KindServiceUnavailable, StatusCode: 503}
	err = m.DeleteWebhook(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, maxapi.ErrServiceUnavailable)
	assert.True(t, m.IsWebhook(), "state is untouched when deletion fails")
	assert.Equal(t, "https://bot.example.com/hook", m.WebhookURL())

	client.deleteErr = nil
	require.NoError(t, m.DeleteWebhook(ctx))
	assert.True(t, m.IsLongPolling())
	assert.Empty(t, m.WebhookURL())

	// Без подписки удаление только переключает режим
	require.NoError(t, m.DeleteWebhook(ctx))
	assert.Len(t, client.deleted, 2)
}

func TestManager_GetUpdates_CursorTracking(t *testing.T) {
	client := &spyClient{pollResults: []*maxapi.UpdatesResult{
		{Updates: []maxapi.Update{update(marker(10)), update(nil), update(marker(12))}, Marker: marker(99)},
		{Updates: []maxapi.Update{}, Marker: marker(200)},
		{Updates: []maxapi.Update{update(nil)}, Marker: marker(15)},
	}}
	m := NewManager(client)
	ctx := context.Background()

	result, err := m.GetUpdates(ctx, time.Second, nil)
	require.NoError(t, err)
	assert.Len(t, result.Updates, 3)
	assert.Equal(t, marker(12), m.Cursor(), "last per-update marker wins over the envelope")

	_, err = m.GetUpdates(ctx, time.Second, nil)
	require.NoError(t, err)
	assert.Equal(t, marker(12), m.Cursor(), "empty batch keeps the cursor")

	_, err = m.GetUpdates(ctx, time.Second, nil)
	require.NoError(t, err)
	assert.Equal(t, marker(15), m.Cursor(), "envelope marker adopted for a non-empty batch without markers")

	assert.Equal(t, []*int64{nil, marker(12), marker(12)}, client.polledWith)

	status := m.GetStatus()
	assert.Equal(t, marker(15), status.LastMarker)
	assert.True(t, status.IsLongPolling)
}

func TestManager_GetUpdates_ExplicitMarker(t *testing.T) {
	client := &spyClient{pollResults: []*maxapi.UpdatesResult{
		{Updates: []maxapi.Update{update(nil)}, Marker: marker(50)},
		{Updates: []maxapi.Update{update(marker(3))}},
	}}
	m := NewManager(client, WithCursor(marker(20)))
	ctx := context.Background()

	_, err := m.GetUpdates(ctx, time.Second, marker(40))
	require.NoError(t, err)
	assert.Equal(t, marker(20), m.Cursor(), "envelope marker is ignored when the marker was passed explicitly")

	_, err = m.GetUpdates(ctx, time.Second, marker(1))
	require.NoError(t, err)
	assert.Equal(t, marker(20), m.Cursor(), "cursor never moves back")

	assert.Equal(t, []*int64{marker(40), marker(1)}, client.polledWith)
}

func TestManager_GetUpdates_ErrorKeepsCursor(t *testing.T) {
	client := &spyClient{pollErr: &maxapi.Error{Kind: maxapi.KindGeneric, Reason: maxapi.ReasonTimeout}}
	m := NewManager(client, WithCursor(marker(5)))

	_, err := m.GetUpdates(context.Background(), time.Second, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, maxapi.ErrTimeout)
	assert.Equal(t, marker(5), m.Cursor())
}

func TestManager_GetWebhookInfo(t *testing.T) {
	client := &spyClient{}
	m := NewManager(client)
	ctx := context.Background()

	info, err := m.GetWebhookInfo(ctx)
	require.NoError(t, err)
	assert.Nil(t, info)
	assert.Zero(t, client.networkCalls(), "no subscription owned, no request")

	_, err = m.SwitchToWebhook(ctx, "https://bot.example.com/hook")
	require.NoError(t, err)

	info, err = m.GetWebhookInfo(ctx)
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, "https://bot.example.com/hook", info.URL)

	// Подписку удалили на стороне сервера
	client.subscriptions = nil
	info, err = m.GetWebhookInfo(ctx)
	require.NoError(t, err)
	assert.Nil(t, info)
}

func TestManager_CursorIsCopied(t *testing.T) {
	initial := int64(3)
	m := NewManager(&spyClient{}, WithCursor(&initial))

	initial = 100
	cursor := m.Cursor()
	*cursor = 200

	assert.Equal(t, marker(3), m.Cursor())
}

// blockingClient держит GET /updates открытым до отмены контекста или release
type blockingClient struct {
	spyClient

	started         chan struct{}
	release         chan struct{}
	open            atomic.Int32
	createdWhenOpen atomic.Bool
}

func newBlockingClient() *blockingClient {
	return &blockingClient{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
}

func (b *blockingClient) GetUpdates(ctx context.Context, params maxapi.GetUpdatesParams) (*maxapi.UpdatesResult, error) {
	b.open.Add(1)
	defer b.open.Add(-1)

	b.started <- struct{}{}
	select {
	case <-ctx.Done():
		return nil, &maxapi.Error{Kind: maxapi.KindGeneric, Reason: maxapi.ReasonTransport, Err: ctx.Err()}
	case <-b.release:
		return &maxapi.UpdatesResult{Updates: []maxapi.Update{update(marker(5))}, Marker: marker(5)}, nil
	}
}

func (b *blockingClient) CreateSubscription(ctx context.Context, url string, updateTypes []string, version string) (*maxapi.Subscription, error) {
	if b.open.Load() > 0 {
		b.createdWhenOpen.Store(true)
	}
	return b.spyClient.CreateSubscription(ctx, url, updateTypes, version)
}

func TestManager_SwitchToWebhook_CancelsOpenPoll(t *testing.T) {
	client := newBlockingClient()
	m := NewManager(client)

	type pollResult struct {
		result *maxapi.UpdatesResult
		err    error
	}
	polled := make(chan pollResult, 1)
	go func() {
		result, err := m.GetUpdates(context.Background(), time.Second, nil)
		polled <- pollResult{result: result, err: err}
	}()
	<-client.started

	_, err := m.SwitchToWebhook(context.Background(), "https://bot.example.com/hook")
	require.NoError(t, err)

	got := <-polled
	require.Error(t, got.err)
	assert.ErrorIs(t, got.err, ErrModeMismatch)
	assert.Nil(t, got.result)

	assert.False(t, client.createdWhenOpen.Load())
	assert.Nil(t, m.Cursor())
	assert.True(t, m.IsWebhook())
}

func TestManager_SwitchToWebhook_FailedCreateResumesPolling(t *testing.T) {
	client := newBlockingClient()
	client.createErr = &maxapi.Error{Kind: maxapi.KindServiceUnavailable}
	m := NewManager(client)

	_, err := m.SwitchToWebhook(context.Background(), "https://bot.example.com/hook")
	require.Error(t, err)
	assert.True(t, m.IsLongPolling())

	go func() {
		<-client.started
		close(client.release)
	}()

	result, err := m.GetUpdates(context.Background(), time.Second, nil)
	require.NoError(t, err)
	require.Len(t, result.Updates, 1)
	require.NotNil(t, m.Cursor())
	assert.Equal(t, int64(5), *m.Cursor())
}

func TestManager_GetUpdates_CallerCancelIsNotModeMismatch(t *testing.T) {
	client := newBlockingClient()
	m := NewManager(client)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-client.started
		cancel()
	}()

	_, err := m.GetUpdates(ctx, time.Second, nil)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrModeMismatch)
	assert.True(t, m.IsLongPolling())
}

func TestParseMode(t *testing.T) {
	mode, err := ParseMode("webhook")
	require.NoError(t, err)
	assert.Equal(t, ModeWebhook, mode)

	_, err = ParseMode("push")
	assert.Error(t, err)
}
