package worker

import (
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/CAR235/ConnexaLabPDF/pkg/logger"
)

func TestBaseWorkerStopIsIdempotent(t *testing.T) {
	w := &BaseWorker{
		server:   asynq.NewServer(asynq.RedisClientOpt{Addr: "localhost:6379"}, asynq.Config{Concurrency: 1}),
		mux:      asynq.NewServeMux(),
		logger:   logger.NewTestLogger(),
		stopChan: make(chan struct{}),
	}

	require.NoError(t, w.Stop())

	// The signal handler and the context-cancel goroutine can both
	// reach Stop; the second call must be a no-op.
	require.NotPanics(t, func() { w.Stop() })
}
