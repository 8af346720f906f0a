package bootstrap

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	coreconfig "github.com/m3rciful/catalogbot/core/config"
	"github.com/m3rciful/catalogbot/core/logger"
)

// Options control the generic bootstrap pipeline shared between bots.
// S is whatever persistence handle the bot needs; it is closed by the caller.
type Options[S io.Closer] struct {
	Config *coreconfig.Config

	LoggerInit func(*coreconfig.Config) error
	// Open builds the storage layer once logging is ready.
	Open func(ctx context.Context) (S, error)
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
type Result[S io.Closer] struct {
	Storage S
}

// Run initializes the logger and then opens storage.
func Run[S io.Closer](ctx context.Context, opts Options[S]) (*Result[S], error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}
	if opts.Open == nil {
		return nil, fmt.Errorf("bootstrap: nil storage opener")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.InitLogger
	}
	if err := loggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	start := time.Now()
	st, err := opts.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: storage initialization failed: %w", err)
	}
	logger.Info(ctx, "app", "storage.ready",
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return &Result[S]{Storage: st}, nil
}
