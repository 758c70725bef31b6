package worker

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
)

// DefaultWatchdogInterval период проверки webhook-подписки
const DefaultWatchdogInterval = 5 * time.Minute

// WebhookWatchdog периодически проверяет, что сервер MAX знает о подписке,
// и создает ее заново, если она пропала.
type WebhookWatchdog struct {
	manager    DeliveryManager
	logger     Logger
	webhookURL string
	interval   time.Duration
	timeout    time.Duration
	scheduler  *gocron.Scheduler
	ctx        context.Context
	cancel     context.CancelFunc
}

// NewWebhookWatchdog создает watchdog. webhookURL используется, если менеджер не помнит URL.
func NewWebhookWatchdog(manager DeliveryManager, logger Logger, webhookURL string, interval, timeout time.Duration) *WebhookWatchdog {
	if interval <= 0 {
		interval = DefaultWatchdogInterval
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &WebhookWatchdog{
		manager:    manager,
		logger:     logger,
		webhookURL: webhookURL,
		interval:   interval,
		timeout:    timeout,
		scheduler:  gocron.NewScheduler(time.UTC),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start регистрирует периодическую задачу и запускает планировщик
func (w *WebhookWatchdog) Start() error {
	_, err := w.scheduler.Every(w.interval).WaitForSchedule().SingletonMode().Do(w.Check)
	if err != nil {
		return err
	}

	w.logger.Info("Starting webhook watchdog (interval: %s)", w.interval)
	w.scheduler.StartAsync()

	return nil
}

// Stop останавливает планировщик
func (w *WebhookWatchdog) Stop() {
	w.logger.Info("Stopping webhook watchdog")
	w.cancel()
	w.scheduler.Stop()
}

// Check проверяет подписку один раз. В режиме long polling ничего не делает.
func (w *WebhookWatchdog) Check() {
	if !w.manager.IsWebhook() {
		return
	}

	ctx, cancel := context.WithTimeout(w.ctx, w.timeout)
	defer cancel()

	info, err := w.manager.GetWebhookInfo(ctx)
	if err != nil {
		w.logger.Warn("Webhook watchdog: failed to get subscription info: %v", err)
		return
	}
	if info != nil {
		return
	}

	url := w.manager.WebhookURL()
	if url == "" {
		url = w.webhookURL
	}
	if url == "" {
		w.logger.Error("Webhook watchdog: subscription is missing and no webhook URL is known")
		return
	}

	w.logger.Warn("Webhook watchdog: subscription %s is missing on the server, re-registering", url)

	subscription, err := w.manager.SwitchToWebhook(ctx, url)
	if err != nil {
		w.logger.Error("Webhook watchdog: failed to re-register webhook %s: %v", url, err)
		return
	}

	w.logger.Info("Webhook watchdog: webhook re-registered (ID: %d)", subscription.ID)
}
