package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/CAR235/ConnexaLabPDF/internal/service/files"
	"github.com/CAR235/ConnexaLabPDF/pkg/logger"
)

// TaskTypeSweep removes anonymous files past the retention period.
const TaskTypeSweep = "maintenance:sweep"

// MaintenanceWorker runs the retention sweep on a fixed interval. The
// schedule lives in the worker process, so running multiple workers
// against one Redis just makes the sweep more frequent, never wrong:
// deletion is idempotent.
type MaintenanceWorker struct {
	BaseWorker
	scheduler   *asynq.Scheduler
	fileService files.FileService
}

func NewMaintenanceWorker(cfg *Config, fileService files.FileService, sweepInterval time.Duration, log logger.Logger) (*MaintenanceWorker, error) {
	redisOpt := asynq.RedisClientOpt{Addr: cfg.RedisAddr, DB: cfg.RedisDB}

	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: cfg.Concurrency,
		Queues:      cfg.Queues,
		RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
			return time.Duration(n) * time.Minute
		},
	})

	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{})
	if _, err := scheduler.Register(
		fmt.Sprintf("@every %s", sweepInterval),
		asynq.NewTask(TaskTypeSweep, nil),
	); err != nil {
		return nil, fmt.Errorf("failed to register sweep schedule: %w", err)
	}

	w := &MaintenanceWorker{
		BaseWorker: BaseWorker{
			server:   server,
			mux:      asynq.NewServeMux(),
			logger:   log,
			stopChan: make(chan struct{}),
		},
		scheduler:   scheduler,
		fileService: fileService,
	}
	w.mux.HandleFunc(TaskTypeSweep, w.handleSweep)
	return w, nil
}

func (w *MaintenanceWorker) handleSweep(ctx context.Context, t *asynq.Task) error {
	w.logger.Info("Running retention sweep")

	removed, err := w.fileService.CleanupExpired(ctx)
	if err != nil {
		w.logger.Error("Retention sweep failed", logger.Error(err))
		return err
	}

	w.logger.Info("Retention sweep finished",
		logger.Int("removed", removed),
	)
	return nil
}

func (w *MaintenanceWorker) Start(ctx context.Context) error {
	go func() {
		if err := w.server.Run(w.mux); err != nil {
			w.logger.Error("Worker server stopped", logger.Error(err))
		}
	}()
	go func() {
		if err := w.scheduler.Run(); err != nil {
			w.logger.Error("Scheduler stopped", logger.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		w.Stop()
	}()
	return nil
}

func (w *MaintenanceWorker) Stop() error {
	w.stopOnce.Do(func() {
		w.scheduler.Shutdown()
		w.stop()
	})
	return nil
}
