package shutdown

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestShutdownRunsCallbacksInReverseOrder(t *testing.T) {
	h := New(Config{Timeout: time.Second})

	var order []string
	h.RegisterFunc("first", func() { order = append(order, "first") })
	h.RegisterFunc("second", func() { order = append(order, "second") })

	h.Shutdown()
	<-h.Done()

	if len(order) != 2 || order[0] != "second" || order[1] != "first" {
		t.Fatalf("callback order = %v, want [second first]", order)
	}
	if h.Context().Err() == nil {
		t.Error("run context not cancelled after shutdown")
	}
	if !h.IsShuttingDown() {
		t.Error("IsShuttingDown() = false after shutdown")
	}
}

func TestShutdownIsIdempotent(t *testing.T) {
	h := New(Config{Timeout: time.Second})

	calls := 0
	h.RegisterFunc("counter", func() { calls++ })

	h.Shutdown()
	h.Shutdown()
	<-h.Done()

	if calls != 1 {
		t.Fatalf("callback ran %d times, want 1", calls)
	}
}

func TestTriggerBehavesLikeSignal(t *testing.T) {
	h := New(Config{Timeout: time.Second})
	h.Trigger()

	select {
	case <-h.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown did not complete after Trigger")
	}
}

func TestCallbackTimeout(t *testing.T) {
	var got []error
	done := make(chan struct{})
	h := New(Config{
		Timeout:        50 * time.Millisecond,
		OnShutdownDone: func(elapsed time.Duration, errs []error) { got = errs; close(done) },
	})
	h.Register("stuck", func(ctx context.Context) error {
		<-make(chan struct{})
		return nil
	})
	h.Shutdown()
	<-done

	if len(got) != 1 {
		t.Fatalf("shutdown errors = %v, want 1 timeout", got)
	}
	var te *TimeoutError
	if !errors.As(got[0], &te) || te.CallbackName != "stuck" {
		t.Fatalf("error = %v, want TimeoutError for stuck", got[0])
	}
}

func TestCallbackErrorsAreCollected(t *testing.T) {
	var got []error
	done := make(chan struct{})
	h := New(Config{
		Timeout:        time.Second,
		OnShutdownDone: func(elapsed time.Duration, errs []error) { got = errs; close(done) },
	})

	wantErr := errors.New("close failed")
	h.Register("failing", func(ctx context.Context) error { return wantErr })
	h.Register("ok", func(ctx context.Context) error { return nil })

	h.Shutdown()
	<-done

	if len(got) != 1 || !errors.Is(got[0], wantErr) {
		t.Fatalf("shutdown errors = %v, want [%v]", got, wantErr)
	}
}
