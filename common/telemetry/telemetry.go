package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/poseidon/assetmarket/common/logger"
)

// Telemetry holds observability components
type Telemetry struct {
	log       *logger.Logger
	pprofAddr string
	server    *http.Server
}

// New creates telemetry components. pprofPort 0 disables the debug listener.
func New(pprofPort int, log *logger.Logger) *Telemetry {
	t := &Telemetry{log: log}
	if pprofPort > 0 {
		t.pprofAddr = fmt.Sprintf("localhost:%d", pprofPort)
	}
	return t
}

// Start starts the pprof listener if enabled
func (t *Telemetry) Start(ctx context.Context) error {
	if t.pprofAddr == "" {
		return nil
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	t.server = &http.Server{Addr: t.pprofAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		t.log.Info("pprof server starting", "addr", t.pprofAddr)
		if err := t.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			t.log.Error("pprof server error", "error", err)
		}
	}()

	return nil
}

// Close stops the pprof listener
func (t *Telemetry) Close() error {
	if t.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return t.server.Shutdown(ctx)
}

// RecordDuration logs how long an operation took
func (t *Telemetry) RecordDuration(operation string, start time.Time, attrs ...any) {
	args := append([]any{
		"operation", operation,
		"duration_ms", time.Since(start).Milliseconds(),
	}, attrs...)
	t.log.Info("operation completed", args...)
}
