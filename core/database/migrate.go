package database

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/m3rciful/ayatbot/core/logger"
)

// migration is one up step found in the source.
type migration struct {
	version uint
	name    string
}

// RunMigrations applies every pending up migration found at the root of src.
func RunMigrations(cfg Config, src fs.FS) error {
	if src == nil {
		return errors.New("migrations source is nil")
	}
	ctx, cancel := context.WithTimeout(context.Background(), readyTimeout)
	defer cancel()

	db, err := open(ctx, cfg)
	if err != nil {
		logger.Error(ctx, "db.migrate", "db.migrate", slog.String("err", err.Error()))
		return fmt.Errorf("database not ready: %w", err)
	}
	_ = db.Close()

	driver, err := iofs.New(src, ".")
	if err != nil {
		return fmt.Errorf("open migrations source: %w", err)
	}
	steps, err := listMigrations(driver)
	if err != nil {
		_ = driver.Close()
		return err
	}
	logger.Debug(ctx, "db.migrate", "resolve", filesAttrs(steps)...)

	m, err := migrate.NewWithSourceInstance("iofs", driver, cfg.URL())
	if err != nil {
		logger.Error(ctx, "db.migrate", "db.migrate", slog.String("err", err.Error()))
		return fmt.Errorf("initialize migrations: %w", err)
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			logger.Warn(ctx, "db.migrate", "close", slog.String("err", errors.Join(srcErr, dbErr).Error()))
		}
	}()

	from, _, _ := m.Version()
	start := time.Now()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Error(ctx, "db.migrate", "apply",
			slog.String("err", err.Error()),
			slog.Duration("duration", logger.RoundMS(time.Since(start))),
		)
		return fmt.Errorf("apply migrations: %w", err)
	}
	to, _, _ := m.Version()

	applied := between(steps, from, to)
	if len(applied) > 0 {
		logger.Debug(ctx, "db.migrate", "apply", filesAttrs(applied)...)
	}
	logger.Info(ctx, "db.migrate", "summary",
		slog.Uint64("from_ver", uint64(from)),
		slog.Uint64("to_ver", uint64(to)),
		slog.Int("files", len(applied)),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return nil
}

// listMigrations walks the source driver in version order.
func listMigrations(driver source.Driver) ([]migration, error) {
	v, err := driver.First()
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	var steps []migration
	for err == nil {
		r, name, readErr := driver.ReadUp(v)
		switch {
		case readErr == nil:
			_ = r.Close()
			steps = append(steps, migration{version: v, name: name})
		case !errors.Is(readErr, fs.ErrNotExist):
			return nil, fmt.Errorf("read migration %d: %w", v, readErr)
		}
		v, err = driver.Next(v)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("list migrations: %w", err)
	}
	return steps, nil
}

// between returns the steps with from < version <= to.
func between(steps []migration, from, to uint) []migration {
	var out []migration
	for _, s := range steps {
		if s.version > from && s.version <= to {
			out = append(out, s)
		}
	}
	return out
}

func filesAttrs(steps []migration) []slog.Attr {
	names := make([]string, len(steps))
	for i, s := range steps {
		names[i] = s.name
	}
	preview, truncated := logger.SummarizeStrings(names, 6)
	attrs := []slog.Attr{slog.Int("files_total", len(steps))}
	if preview != "" {
		attrs = append(attrs, slog.String("files_preview", preview))
	}
	if truncated {
		attrs = append(attrs, slog.Bool("files_truncated", true))
	}
	return attrs
}
