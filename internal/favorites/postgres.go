package favorites

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/ayatbot/core/logger"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrations exposes the schema for the Postgres backend as a flat directory
// of golang-migrate files.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrations, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// PostgresStore keeps bookmarks in the favorites table, one row per entry.
// Rows are ordered by their serial id, which preserves bookmarking order.
type PostgresStore struct {
	db     *sqlx.DB
	policy DuplicatePolicy
}

// NewPostgresStore wraps an open database handle.
func NewPostgresStore(db *sqlx.DB, policy DuplicatePolicy) *PostgresStore {
	if policy == "" {
		policy = DuplicatesAllow
	}
	return &PostgresStore{db: db, policy: policy}
}

const (
	listQuery = `SELECT verse_id, surah_id, verse_number, text
		FROM favorites WHERE user_id = $1 ORDER BY id`
	lockUserQuery = `SELECT pg_advisory_xact_lock(hashtext($1))`
	existsQuery   = `SELECT EXISTS (SELECT 1 FROM favorites WHERE user_id = $1 AND verse_id = $2)`
	deleteQuery   = `DELETE FROM favorites WHERE user_id = $1 AND verse_id = $2`
	insertQuery   = `INSERT INTO favorites (user_id, verse_id, surah_id, verse_number, text)
		VALUES (:user_id, :verse_id, :surah_id, :verse_number, :text)`
	statsQuery = `SELECT COUNT(DISTINCT user_id) AS users, COUNT(*) AS entries FROM favorites`
)

type row struct {
	UserID string `db:"user_id"`
	Entry
}

// List returns the user's entries in bookmarking order.
func (s *PostgresStore) List(ctx context.Context, userID string) ([]Entry, error) {
	var out []Entry
	if err := s.db.SelectContext(ctx, &out, listQuery, userID); err != nil {
		return nil, fmt.Errorf("favorites: list: %w", err)
	}
	return out, nil
}

// Add inserts the entry honouring the duplicate policy. A per-user advisory
// lock serializes concurrent adds of the same user.
func (s *PostgresStore) Add(ctx context.Context, userID string, entry Entry) (bool, error) {
	if err := entry.Validate(); err != nil {
		return false, fmt.Errorf("favorites: add: %w", err)
	}
	start := time.Now()
	changed := false
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, lockUserQuery, userID); err != nil {
			return fmt.Errorf("lock user: %w", err)
		}
		switch s.policy {
		case DuplicatesSkip:
			var exists bool
			if err := tx.GetContext(ctx, &exists, existsQuery, userID, entry.VerseID); err != nil {
				return fmt.Errorf("check duplicate: %w", err)
			}
			if exists {
				return nil
			}
		case DuplicatesBump:
			if _, err := tx.ExecContext(ctx, deleteQuery, userID, entry.VerseID); err != nil {
				return fmt.Errorf("drop duplicate: %w", err)
			}
		}
		if _, err := tx.NamedExecContext(ctx, insertQuery, row{UserID: userID, Entry: entry}); err != nil {
			return fmt.Errorf("insert: %w", err)
		}
		changed = true
		return nil
	})
	s.logOp(ctx, "add", start, err, slog.Int("verse_id", entry.VerseID), slog.Bool("changed", changed))
	if err != nil {
		return false, fmt.Errorf("favorites: add: %w", err)
	}
	return changed, nil
}

// Remove deletes every row of verseID for the user.
func (s *PostgresStore) Remove(ctx context.Context, userID string, verseID int) (bool, error) {
	start := time.Now()
	res, err := s.db.ExecContext(ctx, deleteQuery, userID, verseID)
	var n int64
	if err == nil {
		n, err = res.RowsAffected()
	}
	s.logOp(ctx, "remove", start, err, slog.Int("verse_id", verseID), slog.Int64("count", n))
	if err != nil {
		return false, fmt.Errorf("favorites: remove: %w", err)
	}
	return n > 0, nil
}

// Stats counts users with bookmarks and total rows.
func (s *PostgresStore) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	if err := s.db.GetContext(ctx, &st, statsQuery); err != nil {
		return Stats{}, fmt.Errorf("favorites: stats: %w", err)
	}
	return st, nil
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return errors.Join(err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *PostgresStore) logOp(ctx context.Context, op string, start time.Time, err error, attrs ...slog.Attr) {
	attrs = append(attrs,
		slog.String("backend", "postgres"),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	if err != nil {
		logger.Error(ctx, "favorites", "store."+op,
			append(attrs, slog.String("status", "fail"), slog.String("err", err.Error()))...,
		)
		return
	}
	logger.Debug(ctx, "favorites", "store."+op, append(attrs, slog.String("status", "ok"))...)
}
