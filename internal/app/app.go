// Package app assembles the bot from configuration: storage, content
// client, handlers, routes and the health listener.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/m3rciful/ayatbot/core/bootstrap"
	corecmd "github.com/m3rciful/ayatbot/core/cmd"
	"github.com/m3rciful/ayatbot/core/logger"
	coretelegram "github.com/m3rciful/ayatbot/core/telegram"
	"github.com/m3rciful/ayatbot/core/telegram/router"
	"github.com/m3rciful/ayatbot/core/telegram/ui"
	"github.com/m3rciful/ayatbot/internal/config"
	"github.com/m3rciful/ayatbot/internal/favorites"
	"github.com/m3rciful/ayatbot/internal/handlers"
	"github.com/m3rciful/ayatbot/internal/health"
	"github.com/m3rciful/ayatbot/internal/quran"
)

const (
	warmupTimeout   = 20 * time.Second
	shutdownTimeout = 5 * time.Second
)

var _ ui.FallbackProvider = (*handlers.Handlers)(nil)

// App holds the wired components for one bot process.
type App struct {
	cfg      *config.Config
	infra    *bootstrap.Result
	store    favorites.Repository
	content  *quran.Client
	handlers *handlers.Handlers
	registry *coretelegram.Registry
	health   *health.Server
}

// Bootstrap adapts Build to the shared runner.
func Bootstrap(carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
	cfg, ok := carrier.(*config.Config)
	if !ok {
		return nil, fmt.Errorf("app: unexpected config type %T", carrier)
	}
	return Build(cfg, bootstrap.Options{})
}

// LoadConfig adapts config.Load to the shared runner.
func LoadConfig(path string) (corecmd.ConfigCarrier, error) {
	return config.Load(path)
}

// Build initializes infrastructure and wires the handlers. Zero fields of
// infra fall back to the bootstrap defaults.
func Build(cfg *config.Config, infra bootstrap.Options) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: nil config")
	}
	infra.Config = &cfg.Config
	if cfg.Favorites.Backend == config.BackendPostgres {
		db := cfg.Database
		infra.Database = &db
		infra.Migrations = favorites.Migrations()
	}
	res, err := bootstrap.Run(infra)
	if err != nil {
		return nil, err
	}

	a := &App{cfg: cfg, infra: res}
	a.store = openStore(cfg, res)
	a.content = quran.NewClient(quran.Options{
		BaseURL:    cfg.Content.BaseURL,
		Language:   cfg.Content.Language,
		HTTPClient: coretelegram.NewHTTPClient(coretelegram.HTTPClientOptions{Timeout: cfg.Content.Timeout, Component: "content.api"}),
		Timeout:    cfg.Content.Timeout,
	})

	gate := handlers.NewSubscriptionGate(cfg.Channel.ID, cfg.Channel.Username, nil)
	a.handlers, err = handlers.New(handlers.Options{
		Content:           a.content,
		Favorites:         a.store,
		Gate:              gate,
		DeveloperUsername: cfg.Developer.Username,
		SearchSize:        cfg.Content.SearchSize,
		TafsirID:          cfg.Content.TafsirID,
	})
	if err != nil {
		_ = res.Close()
		return nil, fmt.Errorf("app: %w", err)
	}

	a.registry = coretelegram.NewRegistry()
	if err := a.handlers.Register(a.registry); err != nil {
		_ = res.Close()
		return nil, fmt.Errorf("app: %w", err)
	}

	if cfg.Health.Listen != "" {
		a.health = health.NewServer(cfg.Health.Listen, map[string]health.Pinger{
			"favorites": a.store,
		})
	}

	logger.TWire.Info("app wired",
		slog.String("event", "wire"),
		slog.String("favorites_backend", cfg.Favorites.Backend),
		slog.String("duplicates", cfg.Favorites.Duplicates),
		slog.Bool("subscription_gate", gate.Enabled()),
		slog.Bool("health", a.health != nil),
	)
	return a, nil
}

func openStore(cfg *config.Config, res *bootstrap.Result) favorites.Repository {
	policy := cfg.Favorites.Policy()
	if cfg.Favorites.Backend == config.BackendPostgres && res.DB != nil {
		return favorites.NewPostgresStore(res.DB, policy)
	}
	return favorites.NewFileStore(cfg.Favorites.Path, policy)
}

// Routes lists every bot endpoint in registration order.
func (a *App) Routes() []coretelegram.Route {
	var fallbacks ui.FallbackProvider = a.handlers

	routes := router.CommandRoutes(a.registry, router.CommandRouteOptions{
		AdminID: a.cfg.Telegram.AdminID,
	})
	routes = append(routes, router.CallbackRoute(a.registry, router.CallbackOptions{
		NotFound: fallbacks.UnknownCallback(),
	}))
	routes = append(routes, router.TextRoutes(a.handlers.States(), a.registry, router.TextOptions{
		UnknownText:     fallbacks.UnknownText(),
		UnknownDocument: fallbacks.UnknownDocument(),
	})...)
	return append(routes, a.handlers.Routes()...)
}

// TelegramRunOptions implements corecmd.TelegramApp.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	if a == nil || a.handlers == nil {
		return coretelegram.RunOptions{}, errors.New("app: not built")
	}
	return coretelegram.RunOptions{
		Config:      &a.cfg.Config,
		Registry:    a.registry,
		Middlewares: coretelegram.DefaultMiddlewares(&a.cfg.Config),
		Routes:      a.Routes(),
		OnStart:     a.onStart,
		OnStop:      a.onStop,
	}, nil
}

func (a *App) onStart(ctx context.Context, _ coretelegram.Runtime) error {
	if a.health != nil {
		if err := a.health.Start(); err != nil {
			return fmt.Errorf("app: %w", err)
		}
	}
	go a.warmup(ctx)
	return nil
}

// warmup fills the chapter cache so the first browse is fast. Failures are
// retried lazily by the first request.
func (a *App) warmup(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, warmupTimeout)
	defer cancel()
	start := time.Now()
	chapters, err := a.content.Chapters(ctx)
	if err != nil {
		logger.API.Warn("chapter warmup failed",
			slog.String("event", "warmup"),
			slog.String("err", err.Error()),
		)
		return
	}
	logger.API.Info("chapter list cached",
		slog.String("event", "warmup"),
		slog.Int("chapters", len(chapters)),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
}

func (a *App) onStop(_ context.Context, _ coretelegram.Runtime) error {
	var errs []error
	if a.health != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		errs = append(errs, a.health.Shutdown(ctx))
		cancel()
	}
	if err := a.infra.Close(); err != nil {
		errs = append(errs, fmt.Errorf("app: close database: %w", err))
	}
	return errors.Join(errs...)
}
