package worker

import (
	"context"
	"sync"

	"github.com/hibiken/asynq"

	"github.com/CAR235/ConnexaLabPDF/pkg/logger"
)

type Worker interface {
	Start(ctx context.Context) error
	Stop() error
}

type Config struct {
	RedisAddr   string
	RedisDB     int
	Concurrency int
	Queues      map[string]int
}

type BaseWorker struct {
	server   *asynq.Server
	mux      *asynq.ServeMux
	logger   logger.Logger
	stopChan chan struct{}
	stopOnce sync.Once
}

// Stop is safe to call more than once; shutdown races between the
// signal handler and the context-cancel path both land here.
func (w *BaseWorker) Stop() error {
	w.stopOnce.Do(w.stop)
	return nil
}

func (w *BaseWorker) stop() {
	close(w.stopChan)
	w.server.Stop()
}
