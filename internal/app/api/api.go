package api

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpHandle "orderflow/internal/adapter/http"
	"orderflow/internal/adapter/postgresql/directory_repository"
	"orderflow/internal/adapter/postgresql/journal_repository"
	"orderflow/internal/adapter/postgresql/order_repository"
	"orderflow/internal/adapter/postgresql/sweep_lock"
	"orderflow/internal/adapter/rabbitmq/mail_producer"
	"orderflow/internal/adapter/server"
	"orderflow/internal/core/domain/types"
	"orderflow/internal/core/policy"
	"orderflow/internal/core/service/audit"
	"orderflow/internal/core/service/lifecycle"
	"orderflow/pkg/config"
	"orderflow/pkg/logger"
)

// APIApp serves the lifecycle API plus the on-demand sweep trigger.
type APIApp struct {
	api    *server.API
	ctx    context.Context
	cancel context.CancelFunc
	logger logger.Logger
}

func NewAPIApp() *APIApp {
	cfg, err := config.ParseYAML()
	if err != nil {
		config.PrintYAMLHelp()
		slog.Error("failed to configure application", "error", err)
		os.Exit(1)
	}

	log := logger.InitLogger("API Service", logger.LevelDebug)

	ctx, cancel := context.WithCancel(context.Background())

	orderRepo, err := order_repository.NewOrderRepository(ctx, cfg)
	if err != nil {
		cancel()
		log.Error(ctx, types.ActionDBConnectFailed, "failed to connect to database", err)
		os.Exit(1)
	}

	journalRepo, err := journal_repository.NewJournalRepository(ctx, cfg)
	if err != nil {
		cancel()
		log.Error(ctx, types.ActionDBConnectFailed, "failed to connect to database", err)
		os.Exit(1)
	}

	directoryRepo, err := directory_repository.NewDirectoryRepository(ctx, cfg)
	if err != nil {
		cancel()
		log.Error(ctx, types.ActionDBConnectFailed, "failed to connect to database", err)
		os.Exit(1)
	}

	sweepLock, err := sweep_lock.NewSweepLock(ctx, cfg)
	if err != nil {
		cancel()
		log.Error(ctx, types.ActionDBConnectFailed, "failed to connect to database", err)
		os.Exit(1)
	}

	producer, err := mail_producer.NewMailProducer(ctx, cfg)
	if err != nil {
		cancel()
		log.Error(ctx, types.ActionRabbitMQConnectFailed, "failed to connect to RabbitMQ", err)
		os.Exit(1)
	}

	provider := policy.NewProvider(cfg.Thresholds)

	svc := lifecycle.NewService(orderRepo, provider, cfg.Lifecycle.MinMarkupPercent)

	engine := audit.NewEngine(
		orderRepo,
		journalRepo,
		directoryRepo,
		producer,
		provider,
		time.Duration(cfg.Audit.DispatchTimeoutSeconds)*time.Second,
	)
	// No periodic loop in API mode; the scheduler only guards manual
	// triggers from the sweep endpoint. The advisory lock keeps those
	// triggers from overlapping the audit process's scheduled tick.
	scheduler := audit.NewScheduler(engine,
		time.Duration(cfg.Audit.SweepIntervalSeconds)*time.Second,
		provider.Reload,
		sweepLock,
	)

	lifecycleHandle := httpHandle.NewLifecycleHandle(svc)
	auditHandle := httpHandle.NewAuditHandle(scheduler)

	api := server.NewRouter(log, lifecycleHandle, auditHandle)

	return &APIApp{
		api:    api,
		ctx:    ctx,
		cancel: cancel,
		logger: log,
	}
}

func (app *APIApp) Start() {
	app.api.Run(app.ctx)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	<-sigs
	app.cancel()
	app.logger.Info(app.ctx, types.ActionGracefulShutdown, "service is shutting down")
}
