package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/m04kA/SMC-MaxGateway/internal/api/handlers/delete_webhook"
	"github.com/m04kA/SMC-MaxGateway/internal/api/handlers/delivery_status"
	"github.com/m04kA/SMC-MaxGateway/internal/api/handlers/health"
	"github.com/m04kA/SMC-MaxGateway/internal/api/handlers/list_updates"
	"github.com/m04kA/SMC-MaxGateway/internal/api/handlers/max_webhook"
	"github.com/m04kA/SMC-MaxGateway/internal/api/handlers/send_message"
	"github.com/m04kA/SMC-MaxGateway/internal/api/handlers/switch_to_long_polling"
	"github.com/m04kA/SMC-MaxGateway/internal/api/handlers/switch_to_webhook"
	"github.com/m04kA/SMC-MaxGateway/internal/api/middleware"
	"github.com/m04kA/SMC-MaxGateway/internal/config"
	"github.com/m04kA/SMC-MaxGateway/internal/infra/storage/cursor"
	"github.com/m04kA/SMC-MaxGateway/internal/infra/storage/inbox"
	"github.com/m04kA/SMC-MaxGateway/internal/usecase/store_updates"
	"github.com/m04kA/SMC-MaxGateway/internal/worker"
	"github.com/m04kA/SMC-MaxGateway/pkg/delivery"
	"github.com/m04kA/SMC-MaxGateway/pkg/logger"
	"github.com/m04kA/SMC-MaxGateway/pkg/maxapi"
	"github.com/m04kA/SMC-MaxGateway/pkg/metrics"
	"github.com/m04kA/SMC-MaxGateway/pkg/txmanager"
)

const startupTimeout = 30 * time.Second

func main() {
	configPath := "config.toml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		configPath = v
	}

	// Загружаем конфигурацию
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting SMC-MaxGateway...")
	log.Info("Configuration loaded from %s", configPath)

	// Метрики включаются через интерфейсы, nil *Metrics в них не попадает
	var (
		metricsCollector *metrics.Metrics
		apiObserver      maxapi.Observer
		updatesCounter   store_updates.UpdatesCounter
	)
	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		apiObserver = metricsCollector
		updatesCounter = metricsCollector
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Подключаемся к базе данных
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database: %v", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	inboxRepo := inbox.NewRepository(db)
	cursorRepo := cursor.NewRepository(db)
	txManager := txmanager.NewTransactionManager(db)

	ctx, cancelCtx := context.WithCancel(context.Background())
	defer cancelCtx()

	// Инициализируем клиент MAX Bot API
	client, err := maxapi.New(
		cfg.Max.BotToken,
		maxapi.WithBaseURL(cfg.Max.APIURL),
		maxapi.WithTimeout(cfg.Max.TimeoutDuration()),
		maxapi.WithPollGrace(cfg.Max.PollGraceDuration()),
		maxapi.WithRateLimit(cfg.Max.RateLimit, time.Second),
		maxapi.WithObserver(apiObserver),
	)
	if err != nil {
		log.Fatal("Failed to initialize MAX API client: %v", err)
	}
	defer client.Close()

	startupCtx, cancelStartup := context.WithTimeout(ctx, startupTimeout)
	defer cancelStartup()

	bot, err := client.GetMe(startupCtx)
	if err != nil {
		log.Fatal("Failed to get MAX bot info: %v", err)
	}
	log.Info("MAX Bot API initialized (@%s, id=%d)", bot.Username, bot.UserID)

	// Восстанавливаем позицию long polling
	savedCursor, err := cursorRepo.Get(startupCtx, bot.UserID)
	if err != nil {
		log.Fatal("Failed to load delivery cursor: %v", err)
	}
	if savedCursor != nil {
		log.Info("Restored long polling marker %d", *savedCursor)
	}

	manager := delivery.NewManager(
		client,
		delivery.WithCursor(savedCursor),
		delivery.WithLogger(log),
		delivery.WithPollLimit(cfg.Polling.Limit),
		delivery.WithUpdateTypes(cfg.Polling.UpdateTypes),
		delivery.WithModeListener(func(mode delivery.Mode) {
			if metricsCollector != nil {
				metricsCollector.SetDeliveryMode(string(mode), string(delivery.ModeLongPolling), string(delivery.ModeWebhook))
			}
		}),
	)

	storeUpdatesUC := store_updates.New(inboxRepo, cursorRepo, txManager, updatesCounter, bot.UserID)

	// Определяем режим работы: Webhook или Long Polling
	var watchdog *worker.WebhookWatchdog
	if cfg.Webhook.Enabled() {
		log.Info("Using Webhook mode")

		if _, err := manager.SwitchToWebhook(startupCtx, cfg.Webhook.URL); err != nil {
			log.Fatal("Failed to set MAX webhook: %v", err)
		}

		if cfg.Webhook.WatchdogInterval > 0 {
			watchdog = worker.NewWebhookWatchdog(manager, log, cfg.Webhook.URL, cfg.Webhook.WatchdogDuration(), cfg.Max.TimeoutDuration())
			if err := watchdog.Start(); err != nil {
				log.Fatal("Failed to start webhook watchdog: %v", err)
			}
		}
	} else {
		log.Info("Using Long Polling mode")

		// Подписки, оставшиеся от прошлых запусков, блокируют GET /updates
		clearSubscriptions(startupCtx, client, log)

		if err := manager.SwitchToLongPolling(startupCtx); err != nil {
			log.Fatal("Failed to switch to long polling: %v", err)
		}
	}
	cancelStartup()

	// Цикл long polling работает всегда и простаивает в режиме webhook
	pollingWorker := worker.NewPollingWorker(manager, storeUpdatesUC, log, cfg.Polling.TimeoutDuration(), cfg.Polling.RetryDelayDuration())
	pollingWorker.Start(ctx)

	// Инициализируем handlers
	healthHandler := health.NewHandler(manager)
	maxWebhookHandler := max_webhook.NewHandler(storeUpdatesUC, log)
	deliveryStatusHandler := delivery_status.NewHandler(manager, log)
	switchToWebhookHandler := switch_to_webhook.NewHandler(manager, log)
	switchToLongPollingHandler := switch_to_long_polling.NewHandler(manager, log)
	deleteWebhookHandler := delete_webhook.NewHandler(manager, log)
	sendMessageHandler := send_message.NewHandler(client, log)
	listUpdatesHandler := list_updates.NewHandler(inboxRepo, log)

	// Настраиваем роутер
	r := mux.NewRouter()
	r.Use(middleware.RequestID)

	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector))
		log.Info("HTTP metrics middleware enabled")
	}

	// Публичные endpoints
	r.HandleFunc("/health", healthHandler.Handle).Methods(http.MethodGet)
	r.HandleFunc("/webhook/max", maxWebhookHandler.Handle).Methods(http.MethodPost)

	if cfg.Metrics.Enabled {
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	// API v1 endpoints
	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/delivery", deliveryStatusHandler.Handle).Methods(http.MethodGet)
	api.HandleFunc("/delivery/webhook", switchToWebhookHandler.Handle).Methods(http.MethodPut)
	api.HandleFunc("/delivery/webhook", deleteWebhookHandler.Handle).Methods(http.MethodDelete)
	api.HandleFunc("/delivery/long-polling", switchToLongPollingHandler.Handle).Methods(http.MethodPut)
	api.HandleFunc("/messages", sendMessageHandler.Handle).Methods(http.MethodPost)
	api.HandleFunc("/updates", listUpdatesHandler.Handle).Methods(http.MethodGet)

	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// КРИТИЧНО: Останавливаем workers ПЕРЕД сервером
	if watchdog != nil {
		watchdog.Stop()
	}
	pollingWorker.Stop()
	log.Info("Worker components stopped")

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	log.Info("Server stopped gracefully")
}

// clearSubscriptions удаляет все webhook-подписки бота. Ошибки только логируются.
func clearSubscriptions(ctx context.Context, client *maxapi.Client, log *logger.Logger) {
	subscriptions, err := client.GetSubscriptions(ctx)
	if err != nil {
		log.Warn("Failed to list webhook subscriptions: %v", err)
		return
	}

	for _, sub := range subscriptions {
		if _, err := client.DeleteSubscription(ctx, sub.URL); err != nil {
			log.Warn("Failed to delete webhook %s (may not exist): %v", sub.URL, err)
			continue
		}
		log.Info("Deleted stale webhook %s", sub.URL)
	}
}
