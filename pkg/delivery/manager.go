package delivery

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/m04kA/SMC-MaxGateway/pkg/maxapi"
	"github.com/m04kA/SMC-MaxGateway/pkg/ptr"
)

// Manager управляет режимом доставки обновлений: long polling с курсором или webhook.
// Одновременно активен ровно один режим, переключение выполняется только явно.
//
// Состояние защищено mu, сетевые вызовы выполняются вне блокировки,
// и состояние фиксируется только после их завершения.
// Переключения режима сериализуются switchMu.
//
// Запрос long polling держит pollGate на чтение до фиксации результата.
// Переход в webhook отменяет открытые запросы и берет pollGate на запись,
// поэтому подписка не создается, пока открыт long polling.
type Manager struct {
	client      APIClient
	logger      Logger
	pollLimit   int
	updateTypes []string
	onMode      func(Mode)

	switchMu sync.Mutex
	mu       sync.RWMutex
	state    state

	pollGate sync.RWMutex
	pollMu   sync.Mutex
	draining bool
	polls    map[uint64]context.CancelFunc
	pollSeq  uint64
}

// Option настройка менеджера
type Option func(*Manager)

// WithMode задает начальный режим
func WithMode(mode Mode) Option {
	return func(m *Manager) {
		if mode.Valid() {
			m.state.mode = mode
		}
	}
}

// WithCursor восстанавливает сохраненный курсор long polling
func WithCursor(cursor *int64) Option {
	return func(m *Manager) {
		m.state.cursor = ptr.Clone(cursor)
	}
}

// WithLogger подключает логгер
func WithLogger(logger Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithPollLimit задает limit для GET /updates
func WithPollLimit(limit int) Option {
	return func(m *Manager) {
		m.pollLimit = limit
	}
}

// WithUpdateTypes задает фильтр типов обновлений для polling и подписок
func WithUpdateTypes(types []string) Option {
	return func(m *Manager) {
		m.updateTypes = append([]string(nil), types...)
	}
}

// WithModeListener вызывается после каждой смены режима
func WithModeListener(listener func(Mode)) Option {
	return func(m *Manager) {
		m.onMode = listener
	}
}

// NewManager создает менеджер. По умолчанию режим long polling.
func NewManager(client APIClient, opts ...Option) *Manager {
	m := &Manager{
		client: client,
		logger: nopLogger{},
		state:  state{mode: ModeLongPolling},
		polls:  make(map[uint64]context.CancelFunc),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SwitchToWebhook переключает доставку на webhook.
// URL без https отклоняется без обращения к сети.
// Имеющаяся подписка удаляется перед созданием новой, ошибка удаления только логируется.
// При ошибке создания состояние не меняется.
func (m *Manager) SwitchToWebhook(ctx context.Context, webhookURL string) (*maxapi.Subscription, error) {
	if err := validateWebhookURL(webhookURL); err != nil {
		return nil, err
	}

	m.switchMu.Lock()
	defer m.switchMu.Unlock()

	m.drainPolls()
	defer m.resumePolls()

	effects, err := m.plan(event{kind: eventSwitchToWebhook, url: webhookURL})
	if err != nil {
		return nil, err
	}

	var created *maxapi.Subscription
	for _, eff := range effects {
		switch eff.kind {
		case effectReleaseSubscription:
			m.release(ctx, eff.url)
		case effectCreateSubscription:
			created, err = m.client.CreateSubscription(ctx, eff.url, m.updateTypes, maxapi.DefaultSubscriptionVersion)
			if err != nil {
				return nil, fmt.Errorf("create webhook subscription: %w", err)
			}
			if created == nil {
				created = &maxapi.Subscription{URL: eff.url}
			}
		}
	}

	if err := m.commit(event{kind: eventWebhookCreated, subscription: created}); err != nil {
		return nil, err
	}

	m.logger.Info("Webhook configured: %s (ID: %d)", created.URL, created.ID)
	m.notifyMode(ModeWebhook)

	return created, nil
}

// SwitchToLongPolling переключает доставку на long polling.
// Подписка, если есть, удаляется, ошибка удаления только логируется. Повторный вызов безопасен.
func (m *Manager) SwitchToLongPolling(ctx context.Context) error {
	m.switchMu.Lock()
	defer m.switchMu.Unlock()

	effects, err := m.plan(event{kind: eventSwitchToLongPolling})
	if err != nil {
		return err
	}

	for _, eff := range effects {
		if eff.kind == effectReleaseSubscription {
			m.release(ctx, eff.url)
		}
	}

	if err := m.commit(event{kind: eventSubscriptionCleared}); err != nil {
		return err
	}

	m.logger.Info("Switched to long polling mode")
	m.notifyMode(ModeLongPolling)

	return nil
}

// DeleteWebhook удаляет подписку и переключает доставку на long polling.
// В отличие от переключения режимов, ошибка удаления возвращается, а состояние не меняется.
func (m *Manager) DeleteWebhook(ctx context.Context) error {
	m.switchMu.Lock()
	defer m.switchMu.Unlock()

	effects, err := m.plan(event{kind: eventDeleteWebhook})
	if err != nil {
		return err
	}

	for _, eff := range effects {
		if eff.kind != effectDeleteSubscription {
			continue
		}
		if _, err := m.client.DeleteSubscription(ctx, eff.url); err != nil {
			return fmt.Errorf("delete webhook subscription: %w", err)
		}
		m.logger.Info("Webhook deleted: %s", eff.url)
	}

	if err := m.commit(event{kind: eventSubscriptionCleared}); err != nil {
		return err
	}

	m.logger.Info("Switched to long polling mode")
	m.notifyMode(ModeLongPolling)

	return nil
}

// GetUpdates получает обновления через long polling.
// В режиме webhook возвращает ошибку валидации без обращения к сети.
// marker == nil означает сохраненный курсор.
func (m *Manager) GetUpdates(ctx context.Context, timeout time.Duration, marker *int64) (*maxapi.UpdatesResult, error) {
	m.pollGate.RLock()
	defer m.pollGate.RUnlock()

	effects, err := m.plan(event{kind: eventPoll, marker: marker})
	if err != nil {
		return nil, m.modeError("get updates", err)
	}

	pollCtx, id, ok := m.registerPoll(ctx)
	if !ok {
		return nil, m.modeError("get updates", ErrModeMismatch)
	}
	defer m.unregisterPoll(id)

	var result *maxapi.UpdatesResult
	for _, eff := range effects {
		if eff.kind != effectPoll {
			continue
		}
		result, err = m.client.GetUpdates(pollCtx, maxapi.GetUpdatesParams{
			Limit:   m.pollLimit,
			Timeout: timeout,
			Marker:  eff.marker,
			Types:   m.updateTypes,
		})
		if err != nil {
			// Запрос прерван переходом в webhook: пакет отбрасывается, курсор остается прежним
			if ctx.Err() == nil && pollCtx.Err() != nil {
				return nil, m.modeError("get updates", ErrModeMismatch)
			}
			return nil, err
		}
	}

	if err := m.commit(event{kind: eventPolled, marker: marker, result: result}); err != nil {
		m.logger.Warn("Delivery mode changed during polling, cursor is not advanced: %v", err)
	}

	return result, nil
}

// GetWebhookInfo возвращает текущую подписку из списка сервера или nil,
// если подписки нет или сервер ее не знает.
func (m *Manager) GetWebhookInfo(ctx context.Context) (*maxapi.Subscription, error) {
	m.mu.RLock()
	owned := m.state.subscription
	m.mu.RUnlock()

	if owned == nil {
		return nil, nil
	}

	subscriptions, err := m.client.GetSubscriptions(ctx)
	if err != nil {
		return nil, fmt.Errorf("get webhook subscriptions: %w", err)
	}

	if owned.ID != 0 {
		for i := range subscriptions {
			if subscriptions[i].ID == owned.ID {
				return &subscriptions[i], nil
			}
		}
	}
	for i := range subscriptions {
		if subscriptions[i].URL == owned.URL {
			return &subscriptions[i], nil
		}
	}

	return nil, nil
}

// Status состояние менеджера
type Status struct {
	Mode           Mode   `json:"mode"`
	IsLongPolling  bool   `json:"is_long_polling"`
	IsWebhook      bool   `json:"is_webhook"`
	LastMarker     *int64 `json:"last_marker,omitempty"`
	WebhookURL     string `json:"webhook_url,omitempty"`
	SubscriptionID int64  `json:"webhook_subscription_id,omitempty"`
}

// GetStatus возвращает режим и курсор (long polling) или параметры подписки (webhook)
func (m *Manager) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	status := Status{
		Mode:          m.state.mode,
		IsLongPolling: m.state.mode == ModeLongPolling,
		IsWebhook:     m.state.mode == ModeWebhook,
	}

	if status.IsWebhook {
		if sub := m.state.subscription; sub != nil {
			status.WebhookURL = sub.URL
			status.SubscriptionID = sub.ID
		}
		return status
	}

	status.LastMarker = ptr.Clone(m.state.cursor)
	return status
}

// Cursor возвращает копию сохраненного курсора
func (m *Manager) Cursor() *int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return ptr.Clone(m.state.cursor)
}

// Mode возвращает текущий режим
func (m *Manager) Mode() Mode {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.mode
}

func (m *Manager) IsLongPolling() bool { return m.Mode() == ModeLongPolling }
func (m *Manager) IsWebhook() bool     { return m.Mode() == ModeWebhook }

// WebhookURL возвращает URL текущей подписки или пустую строку
func (m *Manager) WebhookURL() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state.subscription == nil {
		return ""
	}
	return m.state.subscription.URL
}

func (m *Manager) String() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state.mode == ModeWebhook {
		webhookURL := ""
		if m.state.subscription != nil {
			webhookURL = m.state.subscription.URL
		}
		return fmt.Sprintf("delivery.Manager{mode=webhook url=%s}", webhookURL)
	}
	return "delivery.Manager{mode=long_polling}"
}

func (m *Manager) plan(ev event) ([]effect, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, effects, err := transition(m.state, ev)
	return effects, err
}

func (m *Manager) commit(ev event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next, _, err := transition(m.state, ev)
	if err != nil {
		return err
	}
	m.state = next
	return nil
}

// registerPoll регистрирует открытый запрос long polling.
// Во время перехода в webhook новые запросы не открываются.
func (m *Manager) registerPoll(ctx context.Context) (context.Context, uint64, bool) {
	m.pollMu.Lock()
	defer m.pollMu.Unlock()

	if m.draining {
		return nil, 0, false
	}

	pollCtx, cancel := context.WithCancel(ctx)
	m.pollSeq++
	m.polls[m.pollSeq] = cancel
	return pollCtx, m.pollSeq, true
}

func (m *Manager) unregisterPoll(id uint64) {
	m.pollMu.Lock()
	cancel := m.polls[id]
	delete(m.polls, id)
	m.pollMu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// drainPolls прерывает открытые запросы long polling и ждет их завершения
func (m *Manager) drainPolls() {
	m.pollMu.Lock()
	m.draining = true
	for _, cancel := range m.polls {
		cancel()
	}
	m.pollMu.Unlock()

	m.pollGate.Lock()
}

func (m *Manager) resumePolls() {
	m.pollGate.Unlock()

	m.pollMu.Lock()
	m.draining = false
	m.pollMu.Unlock()
}

func (m *Manager) release(ctx context.Context, subscriptionURL string) {
	if _, err := m.client.DeleteSubscription(ctx, subscriptionURL); err != nil {
		m.logger.Warn("Failed to delete previous webhook %s: %v", subscriptionURL, err)
		return
	}
	m.logger.Info("Previous webhook deleted: %s", subscriptionURL)
}

func (m *Manager) notifyMode(mode Mode) {
	if m.onMode != nil {
		m.onMode(mode)
	}
}

func (m *Manager) modeError(operation string, err error) error {
	mode := m.Mode()
	return maxapi.NewValidationError(
		fmt.Sprintf("%s is available only in long polling mode, current mode: %s", operation, mode),
		err,
	)
}

func validateWebhookURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme != "https" || parsed.Host == "" {
		return maxapi.NewValidationError(fmt.Sprintf("invalid webhook URL %q: only https is supported", raw), ErrInsecureWebhookURL)
	}
	return nil
}
