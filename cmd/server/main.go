package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/CAR235/ConnexaLabPDF/api/handlers"
	"github.com/CAR235/ConnexaLabPDF/api/routes"
	"github.com/CAR235/ConnexaLabPDF/config"
	"github.com/CAR235/ConnexaLabPDF/internal/service/auth"
	"github.com/CAR235/ConnexaLabPDF/internal/service/files"
	"github.com/CAR235/ConnexaLabPDF/internal/service/process"
	"github.com/CAR235/ConnexaLabPDF/internal/store"
	"github.com/CAR235/ConnexaLabPDF/internal/tools"
	"github.com/CAR235/ConnexaLabPDF/pkg/logger"
	"github.com/CAR235/ConnexaLabPDF/pkg/storage"
)

func main() {
	// init logger
	log, err := logger.NewLogger(
		logger.WithLevel("info"),
		logger.WithEncoding("json"),
		logger.WithOutputPaths([]string{"stdout", "logs/app.log"}),
	)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	storageCfg := config.GetStorageConfig()

	// record store and blob storage are shared by all services
	st, err := store.NewStore(store.Driver(storageCfg.StoreDriver))
	if err != nil {
		log.Fatal("Failed to init record store:", logger.Error(err))
	}
	blobs, err := storage.NewStorage(storage.Type(storageCfg.Backend), log)
	if err != nil {
		log.Fatal("Failed to init blob storage:", logger.Error(err))
	}

	fileService := files.NewService(st, blobs, log, nil)
	processor := process.NewService(st, blobs, tools.Registry(), log)
	authService := auth.NewService(st, log)

	h := handlers.NewHandlers(fileService, processor, authService, log)
	r := gin.New()
	r.Use(gin.Recovery())
	r.MaxMultipartMemory = config.GetServerConfig().MaxUploadSize
	routes.SetupRoutes(r, h, authService)

	srv := &http.Server{
		Addr:    config.GetServerConfig().Addr,
		Handler: r,
	}

	// start server
	go func() {
		log.Info("Server starting", logger.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server error:", logger.Error(err))
		}
	}()

	// wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.GetServerConfig().ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown:", logger.Error(err))
	}
}
