package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// Handler manages graceful shutdown of the application
type Handler struct {
	mu             sync.Mutex
	shutdownFuncs  []func(context.Context) error
	timeout        time.Duration
	signalChan     chan os.Signal
	isShuttingDown bool
}

// New creates a new shutdown handler
func New(timeout time.Duration) *Handler {
	return &Handler{
		shutdownFuncs: make([]func(context.Context) error, 0),
		timeout:       timeout,
		signalChan:    make(chan os.Signal, 1),
	}
}

// Register adds a shutdown function to be called during graceful shutdown.
// Functions are called in reverse order of registration (LIFO).
func (h *Handler) Register(fn func(context.Context) error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.shutdownFuncs = append(h.shutdownFuncs, fn)
}

// Wait blocks until a shutdown signal is received, then runs the handlers
func (h *Handler) Wait() error {
	signal.Notify(h.signalChan, syscall.SIGINT, syscall.SIGTERM)
	<-h.signalChan
	return h.Shutdown()
}

// Shutdown executes all registered shutdown functions with a timeout
func (h *Handler) Shutdown() error {
	h.mu.Lock()
	if h.isShuttingDown {
		h.mu.Unlock()
		return nil
	}
	h.isShuttingDown = true
	funcs := h.shutdownFuncs
	h.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	var firstErr error
	for i := len(funcs) - 1; i >= 0; i-- {
		if err := funcs[i](ctx); err != nil && firstErr == nil {
			firstErr = err
		}
		if ctx.Err() != nil {
			if firstErr == nil {
				firstErr = ctx.Err()
			}
			break
		}
	}
	return firstErr
}

// IsShuttingDown returns true if shutdown has been initiated
func (h *Handler) IsShuttingDown() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.isShuttingDown
}

// TriggerShutdown programmatically triggers a shutdown
func (h *Handler) TriggerShutdown() {
	select {
	case h.signalChan <- syscall.SIGTERM:
	default:
	}
}
