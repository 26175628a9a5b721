// internal/app/audit/audit.go
package audit

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"orderflow/internal/adapter/postgresql/directory_repository"
	"orderflow/internal/adapter/postgresql/journal_repository"
	"orderflow/internal/adapter/postgresql/order_repository"
	"orderflow/internal/adapter/postgresql/sweep_lock"
	"orderflow/internal/adapter/rabbitmq/mail_producer"
	"orderflow/internal/core/domain/types"
	"orderflow/internal/core/policy"
	auditsvc "orderflow/internal/core/service/audit"
	"orderflow/pkg/config"
	"orderflow/pkg/flags"
	"orderflow/pkg/logger"
)

// AuditApp runs the periodic SLA compliance sweep.
type AuditApp struct {
	ctx       context.Context
	cancel    context.CancelFunc
	logger    logger.Logger
	scheduler *auditsvc.Scheduler
	producer  *mail_producer.MailProducer
	sweepOnce bool
}

// NewAuditApp wires the sweep engine against the shared store and the mail
// exchange.
func NewAuditApp() *AuditApp {
	cfg, err := config.ParseYAML()
	if err != nil {
		config.PrintYAMLHelp()
		slog.Error("failed to configure application", "error", err)
		os.Exit(1)
	}

	log := logger.InitLogger("Audit Service", logger.LevelDebug)

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

	engine := auditsvc.NewEngine(
		orderRepo,
		journalRepo,
		directoryRepo,
		producer,
		provider,
		time.Duration(cfg.Audit.DispatchTimeoutSeconds)*time.Second,
	)

	interval := time.Duration(cfg.Audit.SweepIntervalSeconds) * time.Second
	if *flags.SweepInterval > 0 {
		interval = time.Duration(*flags.SweepInterval) * time.Second
	}

	scheduler := auditsvc.NewScheduler(engine, interval, provider.Reload, sweepLock)

	return &AuditApp{
		ctx:       ctx,
		cancel:    cancel,
		logger:    log,
		scheduler: scheduler,
		producer:  producer,
		sweepOnce: *flags.SweepOnce,
	}
}

// Start runs either a single sweep with console progress or the periodic
// scheduling loop until a termination signal arrives.
func (app *AuditApp) Start() {
	if app.sweepOnce {
		summary, err := app.scheduler.TriggerNow(app.ctx, func(current, total int, message string) {
			fmt.Printf("\r%s", message)
			if current == total {
				fmt.Println()
			}
		})
		if err != nil {
			app.logger.Error(app.ctx, types.ActionSweepCancelled, "sweep failed", err)
			app.shutdown()
			os.Exit(1)
		}
		fmt.Printf("orders scanned: %d, notifications sent: %d, errors handled: %d\n",
			summary.OrdersScanned, summary.NotificationsSent, summary.ErrorsHandled)
		app.shutdown()
		return
	}

	go app.scheduler.Run(app.ctx)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	<-sigs
	app.logger.Info(app.ctx, types.ActionGracefulShutdown, "service is shutting down")
	app.shutdown()
}

func (app *AuditApp) shutdown() {
	app.cancel()
	if app.producer != nil {
		if err := app.producer.Close(); err != nil {
			app.logger.Error(app.ctx, types.ActionGracefulShutdown, "error closing RabbitMQ connection", err)
		}
	}
}
