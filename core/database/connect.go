package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/m3rciful/ayatbot/core/logger"
)

const (
	readyTimeout  = 30 * time.Second
	readyInterval = time.Second
)

// Connect opens a sqlx pool and waits until Postgres answers a ping.
func Connect(cfg Config) (*sqlx.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), readyTimeout)
	defer cancel()

	start := time.Now()
	db, err := open(ctx, cfg)
	if err != nil {
		logger.Error(ctx, "db", "db.connect",
			slog.String("host", cfg.Host),
			slog.String("db", cfg.Name),
			slog.Duration("duration", logger.RoundMS(time.Since(start))),
			slog.String("err", err.Error()),
		)
		return nil, err
	}
	db.SetMaxOpenConns(cfg.poolSize())
	db.SetMaxIdleConns(cfg.poolSize())

	logger.Info(ctx, "db", "db.connect",
		slog.String("status", "ok"),
		slog.String("host", cfg.Host),
		slog.String("db", cfg.Name),
		slog.Int("pool_open", cfg.poolSize()),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return db, nil
}

// open returns a pool that has answered a ping, retrying until ctx ends.
func open(ctx context.Context, cfg Config) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	if err := waitReady(ctx, db.PingContext, readyInterval); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

// waitReady calls ping until it succeeds or ctx is done. The last ping
// error is returned on timeout.
func waitReady(ctx context.Context, ping func(context.Context) error, every time.Duration) error {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for attempt := 1; ; attempt++ {
		err := ping(ctx)
		if err == nil {
			return nil
		}
		logger.Debug(ctx, "db", "db.wait",
			slog.Int("attempts", attempt),
			slog.String("err", err.Error()),
		)
		select {
		case <-ctx.Done():
			return fmt.Errorf("database not ready after %d attempts: %w", attempt, err)
		case <-ticker.C:
		}
	}
}
