package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/CAR235/ConnexaLabPDF/config"
	"github.com/CAR235/ConnexaLabPDF/internal/service/files"
	"github.com/CAR235/ConnexaLabPDF/internal/store"
	"github.com/CAR235/ConnexaLabPDF/pkg/logger"
	"github.com/CAR235/ConnexaLabPDF/pkg/storage"
	"github.com/CAR235/ConnexaLabPDF/pkg/worker"
)

func main() {
	log, err := logger.NewLogger(
		logger.WithLevel("info"),
		logger.WithEncoding("json"),
		logger.WithOutputPaths([]string{"stdout", "logs/worker.log"}),
	)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	storageCfg := config.GetStorageConfig()

	st, err := store.NewStore(store.Driver(storageCfg.StoreDriver))
	if err != nil {
		log.Error("Failed to init record store", logger.Error(err))
		os.Exit(1)
	}
	blobs, err := storage.NewStorage(storage.Type(storageCfg.Backend), log)
	if err != nil {
		log.Error("Failed to init blob storage", logger.Error(err))
		os.Exit(1)
	}

	fileService := files.NewService(st, blobs, log, nil)

	redisCfg := config.GetRedisConfig()
	workerCfg := &worker.Config{
		RedisAddr:   redisCfg.Addr,
		RedisDB:     redisCfg.DB,
		Concurrency: 2,
		Queues: map[string]int{
			"default": 1,
		},
	}

	maintenanceWorker, err := worker.NewMaintenanceWorker(
		workerCfg,
		fileService,
		config.GetRetentionConfig().SweepInterval,
		log,
	)
	if err != nil {
		log.Error("Failed to create maintenance worker", logger.Error(err))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := maintenanceWorker.Start(ctx); err != nil {
		log.Error("Failed to start worker", logger.Error(err))
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down worker...")
	maintenanceWorker.Stop()
	log.Info("Worker stopped")
}
