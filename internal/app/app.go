package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tx-monitor/internal/api/handlers"
	"tx-monitor/internal/api/middlew"
	"tx-monitor/internal/config"
	"tx-monitor/internal/db"
	"tx-monitor/internal/kafka"
	"tx-monitor/internal/notifier"
	"tx-monitor/internal/server"
	"tx-monitor/internal/service"
	"tx-monitor/internal/storage/postgres"
	"tx-monitor/internal/webhook"
	"tx-monitor/pkg/logger"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
)

type App struct {
	log     *slog.Logger
	server  *server.Server
	pool    *pgxpool.Pool
	logFile *os.File
	cfg     *config.Config

	alertNotifier notifier.Notifier

	authService        service.Auth
	transactionService service.Transactions
	fraudSweeper       *service.FraudSweeper

	dlqProducer kafka.Producer
	consumer    *kafka.Consumer
}

func NewApp() (*App, error) {
	loggerWithFile := logger.NewLoggerWithFile("txmonitor.log")
	log := loggerWithFile.Logger
	log.Info("инициализация приложения")

	cfg, err := config.NewConfig()
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации конфига: %w", err)
	}
	log.Info("конфигурация загружена", slog.String("port", cfg.HTTPPort))

	log.Info("выполнение миграций базы данных")
	if err := db.RunMigrations(cfg.DB.MigrationURL(), "migrations"); err != nil {
		return nil, fmt.Errorf("ошибка выполнения миграций: %w", err)
	}
	log.Info("миграции успешно применены")

	poolCfg := db.PoolConfig{
		MaxConns:          100,
		MinConns:          5,
		HealthCheckPeriod: 30 * time.Second,
		PoolTimeout:       5 * time.Second,
		RetryAttempts:     5,
		RetryDelay:        1 * time.Second,
		ApplicationName:   "tx-monitor",
	}

	pool, err := db.NewPool(context.Background(), cfg.DB.DSN(), poolCfg, log)
	if err != nil {
		return nil, fmt.Errorf("не удалось подключиться к базе данных: %w", err)
	}
	log.Info("подключение к базе данных установлено")

	var alertNotifier notifier.Notifier
	if cfg.Twilio.Enabled && cfg.Twilio.AccountSID != "" {
		log.Info("инициализация twilio notifier", slog.String("from", cfg.Twilio.FromNumber))
		alertNotifier = notifier.NewTwilioNotifier(cfg.Twilio, log)
	} else {
		log.Info("twilio отключен, алерты пишутся только в лог")
		alertNotifier = notifier.NewNoOpNotifier(log)
	}

	srv := server.NewServer(cfg.HTTPPort)
	log.Info("сервер инициализирован", slog.String("port", cfg.HTTPPort))
	srv.Router.Use(middleware.RequestID)
	srv.Router.Use(middlew.WithLogger(log))
	srv.Router.Use(middleware.RealIP)
	srv.Router.Use(middleware.Recoverer)
	srv.RegisterSwagger()

	return &App{
		log:           log,
		server:        srv,
		pool:          pool,
		logFile:       loggerWithFile.LogFile,
		cfg:           cfg,
		alertNotifier: alertNotifier,
	}, nil
}

func (a *App) BuildAuthLayer() {
	txManager := service.NewPgxTxManager(a.pool)
	operatorRepo := postgres.NewOperatorRepository(a.pool)

	a.authService = service.NewAuthService(
		operatorRepo,
		txManager,
		a.cfg.JWT.Secret,
		a.cfg.JWT.Expiration,
		a.log,
	)

	authHandler := handlers.NewAuthHandler(a.authService)

	a.server.Router.Post("/api/v1/register", authHandler.Register)
	a.server.Router.Post("/api/v1/login", authHandler.Login)

	a.log.Info("слой 'auth' собран и маршруты зарегистрированы")
}

func (a *App) BuildTransactionLayer() error {
	if a.authService == nil {
		err := errors.New("authService not initialized, call BuildAuthLayer first")
		a.log.Error(err.Error())
		return err
	}

	transactionRepo := postgres.NewTransactionRepository(a.pool)
	classifier := service.NewThresholdClassifier(a.cfg.Fraud.Threshold)

	a.transactionService = service.NewTransactionService(
		transactionRepo,
		classifier,
		a.alertNotifier,
		a.log,
	)

	a.fraudSweeper = service.NewFraudSweeper(
		transactionRepo,
		classifier,
		a.alertNotifier,
		a.cfg.Fraud.SweepInterval,
		a.log,
	)

	transactionHandler := handlers.NewTransactionHandler(a.transactionService)
	reportHandler := handlers.NewReportHandler(a.transactionService)

	a.server.Router.Group(func(r chi.Router) {
		r.Use(middlew.RequireAuth(a.authService))

		r.Post("/api/v1/transactions", transactionHandler.Create)
		r.Get("/api/v1/transactions", transactionHandler.List)
		r.Get("/api/v1/transactions/fraud", transactionHandler.FraudAlerts)
		r.Get("/api/v1/failed-payments", transactionHandler.FailedPayments)
		r.Get("/api/v1/dashboard", transactionHandler.Dashboard)
		r.Get("/api/v1/reports/payments", reportHandler.PaymentsReport)
	})

	a.log.Info("слой 'transactions' собран и маршруты зарегистрированы")
	return nil
}

func (a *App) BuildWebhookLayer() error {
	if a.transactionService == nil {
		err := errors.New("transactionService not initialized, call BuildTransactionLayer first")
		a.log.Error(err.Error())
		return err
	}

	txManager := service.NewPgxTxManager(a.pool)
	transactionRepo := postgres.NewTransactionRepository(a.pool)
	classifier := service.NewThresholdClassifier(a.cfg.Fraud.Threshold)

	webhookService := service.NewWebhookService(
		transactionRepo,
		txManager,
		classifier,
		a.alertNotifier,
		a.log,
	)

	verifier := webhook.NewVerifier(a.cfg.Webhook.StripeSecret, a.cfg.Webhook.Tolerance)
	webhookHandler := handlers.NewWebhookHandler(verifier, webhookService)

	// Шлюз аутентифицируется подписью тела, JWT-мидлварь здесь не нужна
	a.server.Router.Post("/api/v1/webhooks/stripe", webhookHandler.HandleStripe)

	a.log.Info("слой 'webhooks' собран и маршруты зарегистрированы")
	return nil
}

func (a *App) BuildStreamLayer() error {
	if a.transactionService == nil {
		err := errors.New("transactionService not initialized, call BuildTransactionLayer first")
		a.log.Error(err.Error())
		return err
	}

	if !a.cfg.Kafka.Enabled {
		a.log.Info("kafka отключен в конфигурации, стрим-слой не запускается")
		a.dlqProducer = kafka.NewNoOpProducer(a.log)
		return nil
	}

	a.log.Info("инициализация kafka dead-letter producer", slog.Any("brokers", a.cfg.Kafka.Brokers))
	dlqProducer, err := kafka.NewKafkaProducer(a.cfg.Kafka.Brokers, a.cfg.Kafka.DeadLetterTopic, a.log)
	if err != nil {
		return fmt.Errorf("ошибка инициализации kafka producer: %w", err)
	}
	a.dlqProducer = dlqProducer

	consumer, err := kafka.NewConsumer(
		a.cfg.Kafka.Brokers,
		a.cfg.Kafka.GroupID,
		a.cfg.Kafka.Topic,
		a.cfg.Kafka.Workers,
		a.transactionService,
		a.dlqProducer,
		a.log,
	)
	if err != nil {
		return fmt.Errorf("ошибка инициализации kafka consumer: %w", err)
	}
	a.consumer = consumer

	a.log.Info("слой 'stream' собран")
	return nil
}

func (a *App) Run() error {
	a.log.Info("сервер запускается")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if a.fraudSweeper != nil {
		a.fraudSweeper.Run(ctx)
	}

	if a.consumer != nil {
		if err := a.consumer.Start(ctx); err != nil {
			return fmt.Errorf("ошибка запуска kafka consumer: %w", err)
		}
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := a.server.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- fmt.Errorf("ошибка запуска сервера: %w", err)
		}
	}()

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return err
	case sig := <-shutdownChan:
		a.log.Info("получен сигнал завершения", slog.String("signal", sig.String()))
	}

	a.log.Info("приложение останавливается")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if a.fraudSweeper != nil {
		a.log.Info("остановка fraud sweeper")
		if err := a.fraudSweeper.Shutdown(shutdownCtx); err != nil {
			a.log.Error("ошибка при остановке fraud sweeper", slog.String("error", err.Error()))
		}
	}

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.log.Error("ошибка при остановке http сервера", slog.String("error", err.Error()))
	}

	if a.consumer != nil {
		if err := a.consumer.Close(shutdownCtx); err != nil {
			a.log.Error("ошибка при остановке kafka consumer", slog.String("error", err.Error()))
		}
	}

	if a.dlqProducer != nil {
		a.log.Info("закрытие kafka producer")
		if err := a.dlqProducer.Close(); err != nil {
			a.log.Error("ошибка при закрытии kafka producer", slog.String("error", err.Error()))
		}
	}

	a.log.Info("закрытие соединения с базой данных")
	a.pool.Close()

	a.log.Info("закрытие файла логов")
	if a.logFile != nil {
		if err := a.logFile.Close(); err != nil {
			a.log.Error("ошибка при закрытии файла логов", slog.String("error", err.Error()))
		}
	}

	a.log.Info("приложение остановлено")
	return nil
}
