package sender

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func TestDispatcherRetriesTransientErrors(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 2, RetryBackoff: time.Millisecond})
	var calls atomic.Int32
	done := make(chan struct{})
	err := d.Enqueue(context.Background(), "send.text", "sendMessage", func() error {
		if calls.Add(1) < 3 {
			return timeoutErr{}
		}
		close(done)
		return nil
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not succeed")
	}
	d.Close()
	if got := calls.Load(); got != 3 {
		t.Fatalf("calls = %d, want 3", got)
	}
	if d.ErrorCount() != 0 {
		t.Fatalf("errors = %d, want 0", d.ErrorCount())
	}
}

func TestDispatcherDoesNotRetryPermanentErrors(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 3, RetryBackoff: time.Millisecond})
	var calls atomic.Int32
	_ = d.Enqueue(context.Background(), "send.text", "sendMessage", func() error {
		calls.Add(1)
		return errors.New("telegram: chat not found (400)")
	})
	d.Close()
	if got := calls.Load(); got != 1 {
		t.Fatalf("calls = %d, want 1", got)
	}
	if d.ErrorCount() != 1 {
		t.Fatalf("errors = %d, want 1", d.ErrorCount())
	}
}

func TestEnqueueAfterClose(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1})
	d.Close()
	if err := d.Enqueue(context.Background(), "a", "b", func() error { return nil }); !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("err = %v, want ErrQueueClosed", err)
	}
	if err := d.Enqueue(context.Background(), "a", "b", nil); err == nil {
		t.Fatal("expected error for nil run")
	}
}

func TestRetryDelay(t *testing.T) {
	if got := retryDelay(errors.New("x"), time.Second, 3); got != 3*time.Second {
		t.Fatalf("linear delay = %v", got)
	}
	flood := tele.FloodError{RetryAfter: 7}
	if got := retryDelay(flood, time.Second, 1); got != 7*time.Second {
		t.Fatalf("flood delay = %v", got)
	}
	if !shouldRetry(flood) {
		t.Fatal("flood errors must be retried")
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{context.DeadlineExceeded, "timeout"},
		{timeoutErr{}, "timeout"},
		{&net.DNSError{Err: "no such host", Name: "api.telegram.org"}, "dns"},
		{&net.OpError{Op: "dial", Err: errors.New("refused")}, "dial"},
		{errors.New("telegram: bad gateway (502)"), "http_5xx"},
		{errors.New("telegram: chat not found (400)"), "http_4xx"},
		{tele.FloodError{RetryAfter: 3}, "flood"},
		{errors.New("boom"), "unknown"},
	}
	for _, tt := range tests {
		if got := classifyError(tt.err); got != tt.want {
			t.Errorf("classifyError(%T) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestRedact(t *testing.T) {
	msg := redact(errors.New(`Post "https://api.telegram.org/bot123:AbC-d_e/sendMessage": EOF`))
	if want := `Post "https://api.telegram.org/bot<redacted>/sendMessage": EOF`; msg != want {
		t.Fatalf("redact = %q, want %q", msg, want)
	}
}

func TestCloseDrainsQueue(t *testing.T) {
	d := NewDispatcher(Options{Workers: 2, QueueSize: 16})
	var calls atomic.Int32
	for i := 0; i < 10; i++ {
		if err := d.Enqueue(context.Background(), "send.text", "sendMessage", func() error {
			calls.Add(1)
			return nil
		}); err != nil {
			t.Fatalf("enqueue %d: %v", i, err)
		}
	}
	d.Close()
	d.Close()
	if got := calls.Load(); got != 10 {
		t.Fatalf("calls = %d, want 10", got)
	}
}
