package telegram

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"
)

type flakyTransport struct {
	fails int
	calls int
	err   error
}

func (f *flakyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	f.calls++
	if req.Body != nil {
		_, _ = io.ReadAll(req.Body)
	}
	if f.calls <= f.fails {
		return nil, f.err
	}
	return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader("{}"))}, nil
}

type temporary struct{}

func (temporary) Error() string   { return "timeout" }
func (temporary) Timeout() bool   { return true }
func (temporary) Temporary() bool { return true }

func TestRetryTransportRetriesTransient(t *testing.T) {
	base := &flakyTransport{fails: 2, err: temporary{}}
	rt := &retryTransport{base: base, maxRetries: 3}
	req, _ := http.NewRequest(http.MethodPost, "https://api.telegram.org/botX/sendMessage", strings.NewReader(`{"text":"hi"}`))

	resp, err := rt.RoundTrip(req)
	if err != nil {
		t.Fatalf("RoundTrip: %v", err)
	}
	resp.Body.Close()
	if base.calls != 3 {
		t.Fatalf("calls = %d, want 3", base.calls)
	}
}

func TestRetryTransportStopsOnPermanent(t *testing.T) {
	perm := errors.New("tls: bad certificate")
	base := &flakyTransport{fails: 5, err: perm}
	rt := &retryTransport{base: base, maxRetries: 3, backoff: time.Millisecond}
	req, _ := http.NewRequest(http.MethodGet, "https://api.telegram.org/botX/getMe", nil)

	if _, err := rt.RoundTrip(req); !errors.Is(err, perm) {
		t.Fatalf("err = %v, want %v", err, perm)
	}
	if base.calls != 1 {
		t.Fatalf("calls = %d, want 1", base.calls)
	}
}

func TestBuildHTTPClientStretchesForLongPoll(t *testing.T) {
	c := BuildHTTPClient(30 * time.Second)
	rt, ok := c.Transport.(*retryTransport)
	if !ok {
		t.Fatalf("transport = %T", c.Transport)
	}
	tr := rt.base.(*http.Transport)
	if tr.ResponseHeaderTimeout <= 30*time.Second {
		t.Fatalf("ResponseHeaderTimeout = %v", tr.ResponseHeaderTimeout)
	}
	if c.Timeout <= tr.ResponseHeaderTimeout {
		t.Fatalf("client Timeout %v must exceed header timeout %v", c.Timeout, tr.ResponseHeaderTimeout)
	}
}
