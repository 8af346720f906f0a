package telegram

import (
	"log/slog"
	"net"
	"net/http"
	"path"
	"time"

	"github.com/m3rciful/catalogbot/core/logger"
	"github.com/m3rciful/catalogbot/core/telegram/netutil"
)

// headerGrace is how long past the long-poll timeout the API may take to
// start answering getUpdates.
const headerGrace = 5 * time.Second

// BuildHTTPClient returns the client used for Bot API calls. The server holds
// getUpdates open for pollTimeout, so both deadlines are measured from it.
func BuildHTTPClient(pollTimeout time.Duration) *http.Client {
	pollTimeout = max(pollTimeout, 0)
	dialer := &net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}
	return &http.Client{
		Timeout: pollTimeout + 4*headerGrace,
		Transport: &retryTransport{
			base: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				DialContext:           dialer.DialContext,
				ForceAttemptHTTP2:     true,
				MaxIdleConns:          100,
				MaxIdleConnsPerHost:   10,
				IdleConnTimeout:       30 * time.Second,
				TLSHandshakeTimeout:   5 * time.Second,
				ResponseHeaderTimeout: pollTimeout + headerGrace,
				ExpectContinueTimeout: time.Second,
			},
			maxRetries: 3,
			backoff:    2 * time.Second,
		},
	}
}

// retryTransport repeats requests that failed before any response arrived.
type retryTransport struct {
	base       http.RoundTripper
	maxRetries int
	backoff    time.Duration
}

// RoundTrip retries transient transport failures with linear backoff.
// Requests whose body cannot be replayed are tried once.
func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	ctx := req.Context()

	resp, err := base.RoundTrip(req)
	for attempt := 1; err != nil && attempt <= t.maxRetries && netutil.ShouldRetry(err); attempt++ {
		next, ok := replay(req)
		if !ok {
			break
		}
		if delay := t.backoff * time.Duration(attempt); delay > 0 {
			logger.Debug(ctx, component, "http.retry",
				slog.String("endpoint", path.Base(req.URL.Path)),
				slog.Int("attempt", attempt),
				slog.Duration("delay", delay),
			)
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}
		resp, err = base.RoundTrip(next)
	}
	return resp, err
}

// replay clones req with a fresh body. It fails for bodies without GetBody.
func replay(req *http.Request) (*http.Request, bool) {
	clone := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		return clone, true
	}
	if req.GetBody == nil {
		return nil, false
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, false
	}
	clone.Body = body
	return clone, true
}
