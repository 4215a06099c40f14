package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/proofgridgo/internal/bench"
	"github.com/vk/proofgridgo/internal/ctxlog"
	"github.com/vk/proofgridgo/internal/executor"
	"github.com/vk/proofgridgo/internal/invoker"
	"github.com/vk/proofgridgo/internal/metrics"
	"github.com/vk/proofgridgo/internal/store"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW    io.Writer
	logger  *slog.Logger
	bench   *bench.Bench
	metrics *metrics.Metrics
	exec    *executor.Executor
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance with its own isolated logger, store, and
// executor. The runner and store parameters allow tests to substitute
// fakes; passing nil selects the real subprocess runner and the
// filesystem store.
func NewApp(outW io.Writer, appConfig *Config, st store.Store, runner invoker.Runner) *App {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	b, err := bench.Load(ctx, appConfig.BenchPath)
	if err != nil {
		// A failure to load the bench file is a fatal startup error.
		panic(fmt.Errorf("failed to load bench configuration: %w", err))
	}
	logger.Debug("Bench configuration loaded.")

	// CLI overrides take precedence over the bench file.
	if appConfig.Workers > 0 {
		b.Workers = appConfig.Workers
	}
	if appConfig.FailFast {
		b.ContinueOnError = false
	}

	if st == nil {
		st = store.NewFS()
	}
	if runner == nil {
		runner = invoker.NewExec()
	}

	m := metrics.New()
	return &App{
		outW:    outW,
		logger:  logger,
		bench:   b,
		metrics: m,
		exec:    executor.New(b, st, runner, m),
	}
}

// Bench returns the loaded bench model. This is primarily for testing.
func (a *App) Bench() *bench.Bench {
	return a.bench
}
