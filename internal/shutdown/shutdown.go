// Package shutdown provides signal-driven graceful shutdown for a crawl run.
//
// An interrupt cancels the run context; workers drain, and registered
// cleanup callbacks run in reverse registration order so the final report is
// written and browser sessions are closed before the process exits.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
)

// Callback is a cleanup function invoked during shutdown.
type Callback func(ctx context.Context) error

// Config holds shutdown configuration.
type Config struct {
	Timeout         time.Duration
	Signals         []os.Signal
	OnShutdownStart func()
	OnShutdownDone  func(elapsed time.Duration, errs []error)
}

// DefaultConfig returns default configuration.
func DefaultConfig() Config {
	return Config{
		Timeout: 30 * time.Second,
		Signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
	}
}

// Handler owns the run context and the ordered cleanup callbacks.
type Handler struct {
	mu            sync.Mutex
	callbacks     []Callback
	callbackNames []string

	isShuttingDown atomic.Bool
	done           chan struct{}
	timeout        time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	sigChan chan os.Signal

	onShutdownStart func()
	onShutdownDone  func(elapsed time.Duration, errs []error)
}

// New creates a shutdown handler and starts listening for its signals.
func New(cfg Config) *Handler {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if len(cfg.Signals) == 0 {
		cfg.Signals = []os.Signal{syscall.SIGINT, syscall.SIGTERM}
	}

	ctx, cancel := context.WithCancel(context.Background())

	h := &Handler{
		done:            make(chan struct{}),
		timeout:         cfg.Timeout,
		ctx:             ctx,
		cancel:          cancel,
		sigChan:         make(chan os.Signal, 1),
		onShutdownStart: cfg.OnShutdownStart,
		onShutdownDone:  cfg.OnShutdownDone,
	}

	signal.Notify(h.sigChan, cfg.Signals...)
	go h.wait()

	return h
}

// NewDefault creates a handler with default configuration.
func NewDefault() *Handler {
	return New(DefaultConfig())
}

// Register adds a named cleanup callback. Callbacks run LIFO.
func (h *Handler) Register(name string, callback Callback) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.callbacks = append(h.callbacks, callback)
	h.callbackNames = append(h.callbackNames, name)
}

// RegisterFunc adds a cleanup function that cannot fail.
func (h *Handler) RegisterFunc(name string, fn func()) {
	h.Register(name, func(ctx context.Context) error {
		fn()
		return nil
	})
}

// Context returns the run context, cancelled when shutdown begins.
func (h *Handler) Context() context.Context {
	return h.ctx
}

// IsShuttingDown reports whether shutdown has started.
func (h *Handler) IsShuttingDown() bool {
	return h.isShuttingDown.Load()
}

// Done is closed once shutdown completes.
func (h *Handler) Done() <-chan struct{} {
	return h.done
}

func (h *Handler) wait() {
	select {
	case <-h.sigChan:
		h.Shutdown()
	case <-h.ctx.Done():
	}
}

// Shutdown cancels the run context and executes the registered callbacks in
// reverse order, bounding the whole teardown by the configured timeout. Safe
// to call more than once.
func (h *Handler) Shutdown() {
	if !h.isShuttingDown.CompareAndSwap(false, true) {
		return
	}

	start := time.Now()
	if h.onShutdownStart != nil {
		h.onShutdownStart()
	}

	h.cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), h.timeout)
	defer shutdownCancel()

	h.mu.Lock()
	callbacks := make([]Callback, len(h.callbacks))
	names := make([]string, len(h.callbackNames))
	copy(callbacks, h.callbacks)
	copy(names, h.callbackNames)
	h.mu.Unlock()

	var errs []error
	for i := len(callbacks) - 1; i >= 0; i-- {
		if err := h.execute(shutdownCtx, names[i], callbacks[i]); err != nil {
			errs = append(errs, err)
		}
	}

	if h.onShutdownDone != nil {
		h.onShutdownDone(time.Since(start), errs)
	}
	close(h.done)
}

func (h *Handler) execute(ctx context.Context, name string, callback Callback) error {
	done := make(chan error, 1)
	go func() {
		done <- callback(ctx)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return &TimeoutError{CallbackName: name}
	}
}

// Trigger initiates shutdown programmatically, as if a signal arrived.
func (h *Handler) Trigger() {
	select {
	case h.sigChan <- syscall.SIGTERM:
	default:
	}
}

// TimeoutError is returned when a callback exceeds the shutdown timeout.
type TimeoutError struct {
	CallbackName string
}

func (e *TimeoutError) Error() string {
	return "shutdown callback timed out: " + e.CallbackName
}
