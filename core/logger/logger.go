package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/m3rciful/ayatbot/core/buildinfo"
	coreconfig "github.com/m3rciful/ayatbot/core/config"
)

var (
	initOnce     sync.Once
	shutdownOnce sync.Once

	sink    *lineSink
	closers []io.Closer

	levelVar     slog.LevelVar
	debugSampler = newRatioSampler(1, 50)
	traceAll     atomic.Bool

	// L is the base logger. Component loggers below derive from it.
	L *slog.Logger

	// DB logs database-related events.
	DB *slog.Logger
	// TG logs Telegram transport events.
	TG *slog.Logger
	// MIG logs database migration events.
	MIG *slog.Logger
	// TWire logs Telegram wiring steps.
	TWire *slog.Logger
	// FAV logs favorites store activity.
	FAV *slog.Logger
	// API logs calls to the external content API.
	API *slog.Logger
	// HTTP logs the health listener.
	HTTP *slog.Logger
)

// Until InitLogger runs every logger discards its output, so packages and
// tests can log without a configured sink.
func init() {
	L = slog.New(slog.DiscardHandler)
	wireComponents()
}

// InitLogger configures the global structured logger. Only the first call has an effect.
func InitLogger(cfg *coreconfig.Config) error {
	var err error
	initOnce.Do(func() { err = install(resolveOptions(cfg)) })
	return err
}

func install(opts options) error {
	writers := []io.Writer{os.Stdout}
	if opts.file != "" {
		if err := os.MkdirAll(filepath.Dir(opts.file), 0o755); err != nil {
			return fmt.Errorf("logger: create log dir: %w", err)
		}
		f, err := os.OpenFile(opts.file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("logger: open log file: %w", err)
		}
		writers = append(writers, f)
		closers = append(closers, f)
	}

	levelVar.Set(opts.level)
	debugSampler.Set(opts.sampleNum, opts.sampleDen)
	traceAll.Store(opts.trace)

	sink = newLineSink(writers, 64*1024)
	L = slog.New(newStructuredHandler(handlerConfig{
		level:    &levelVar,
		sink:     sink,
		format:   opts.format,
		keyOrder: opts.keyOrder,
	}))
	slog.SetDefault(L)
	wireComponents()

	L.LogAttrs(context.Background(), slog.LevelInfo, "startup",
		slog.String("component", "app"),
		slog.String("event", "startup"),
		slog.String("go_version", runtime.Version()),
		slog.String("build_commit", buildinfo.Commit),
		slog.String("build_time", buildinfo.Date),
		slog.String("cfg_profile", opts.profile),
	)
	return nil
}

func wireComponents() {
	DB = L.With("component", "db")
	TG = L.With("component", "tg")
	MIG = L.With("component", "db.migrate")
	TWire = L.With("component", "tg.wire")
	FAV = L.With("component", "favorites")
	API = L.With("component", "content.api")
	HTTP = L.With("component", "http")
}

// Shutdown flushes buffered output and closes log files. Lines logged
// afterwards are dropped.
func Shutdown() error {
	var err error
	shutdownOnce.Do(func() {
		var errs []error
		if sink != nil {
			errs = append(errs, sink.Close())
		}
		for _, c := range closers {
			errs = append(errs, c.Close())
		}
		err = errors.Join(errs...)
	})
	return err
}

// LogEvent writes event at level through logg, or the context logger when logg is nil.
func LogEvent(ctx context.Context, logg *slog.Logger, level slog.Level, event string, attrs ...slog.Attr) {
	if logg == nil {
		logg = FromContext(ctx)
	}
	if event != "" {
		attrs = append([]slog.Attr{slog.String("event", event)}, attrs...)
	}
	logg.LogAttrs(ctx, level, "", attrs...)
}

// Component returns L scoped to the given component name.
func Component(name string) *slog.Logger {
	if name = strings.TrimSpace(name); name != "" {
		return L.With("component", name)
	}
	return L
}

// Debug logs a debug-level event for the given component.
func Debug(ctx context.Context, component, event string, attrs ...slog.Attr) {
	LogEvent(ctx, Component(component), slog.LevelDebug, event, attrs...)
}

// Info logs an info-level event for the given component.
func Info(ctx context.Context, component, event string, attrs ...slog.Attr) {
	LogEvent(ctx, Component(component), slog.LevelInfo, event, attrs...)
}

// Warn logs a warn-level event for the given component.
func Warn(ctx context.Context, component, event string, attrs ...slog.Attr) {
	LogEvent(ctx, Component(component), slog.LevelWarn, event, attrs...)
}

// Error logs an error-level event for the given component.
func Error(ctx context.Context, component, event string, attrs ...slog.Attr) {
	LogEvent(ctx, Component(component), slog.LevelError, event, attrs...)
}

// ShouldSampleDebug reports whether a high-volume debug event should be logged.
// TRACE=1 in the environment logs all of them.
func ShouldSampleDebug() bool {
	return traceAll.Load() || debugSampler.Allow()
}
