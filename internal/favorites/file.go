package favorites

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/renameio/v2"

	"github.com/m3rciful/ayatbot/core/logger"
)

// FileStore keeps the whole store in one JSON file. All access goes through
// mu, so load → mutate → save cycles from concurrent handlers never
// interleave inside this process.
type FileStore struct {
	path   string
	policy DuplicatePolicy
	mu     sync.Mutex
}

// NewFileStore returns a store backed by path. The file is created lazily on
// the first save.
func NewFileStore(path string, policy DuplicatePolicy) *FileStore {
	if policy == "" {
		policy = DuplicatesAllow
	}
	return &FileStore{path: path, policy: policy}
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the entire store. A missing, unreadable or malformed file yields
// an empty store: a broken favorites file must not block the rest of the bot.
func (s *FileStore) Load() Favorites {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Warn(context.Background(), "favorites", "load.unreadable",
				slog.String("status", "fail"),
				slog.String("path", s.path),
				slog.String("err", err.Error()),
			)
		}
		return make(Favorites)
	}

	var store Favorites
	if err := json.Unmarshal(data, &store); err != nil {
		logger.Warn(context.Background(), "favorites", "load.corrupt",
			slog.String("status", "fail"),
			slog.String("path", s.path),
			slog.String("err", err.Error()),
		)
		return make(Favorites)
	}
	if store == nil {
		store = make(Favorites)
	}
	return store
}

// Save overwrites the file with the entire store. renameio writes to a
// temporary file in the same directory and renames it over the target, so a
// crash mid-write leaves the previous version intact.
func (s *FileStore) Save(store Favorites) error {
	if store == nil {
		store = make(Favorites)
	}
	for _, list := range store {
		for _, e := range list {
			if err := e.Validate(); err != nil {
				return fmt.Errorf("favorites: save: %w", err)
			}
		}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(store); err != nil {
		return fmt.Errorf("favorites: encode: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("favorites: create dir: %w", err)
	}
	if err := renameio.WriteFile(s.path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("favorites: replace %s: %w", s.path, err)
	}
	return nil
}

// List returns a copy of the user's entries.
func (s *FileStore) List(_ context.Context, userID string) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.Load()[userID]
	return append([]Entry(nil), list...), nil
}

// Add bookmarks entry for the user and persists the store.
func (s *FileStore) Add(ctx context.Context, userID string, entry Entry) (bool, error) {
	return s.update(ctx, "add", func(store Favorites) (Favorites, bool) {
		return AddWithPolicy(store, userID, entry, s.policy)
	}, slog.Int("verse_id", entry.VerseID))
}

// Remove deletes every bookmark of verseID for the user and persists the
// store. Nothing is written when the user has no such bookmark.
func (s *FileStore) Remove(ctx context.Context, userID string, verseID int) (bool, error) {
	return s.update(ctx, "remove", func(store Favorites) (Favorites, bool) {
		before := len(store[userID])
		if before == 0 {
			return store, false
		}
		store = Remove(store, userID, verseID)
		return store, len(store[userID]) != before
	}, slog.Int("verse_id", verseID))
}

// Stats counts users with at least one bookmark and the total entries.
func (s *FileStore) Stats(_ context.Context) (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users, entries := s.Load().Count()
	return Stats{Users: users, Entries: entries}, nil
}

// Ping verifies that the directory holding the file is reachable.
func (s *FileStore) Ping(_ context.Context) error {
	dir := filepath.Dir(s.path)
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("favorites: stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("favorites: %s is not a directory", dir)
	}
	return nil
}

func (s *FileStore) update(ctx context.Context, op string, mutate func(Favorites) (Favorites, bool), attrs ...slog.Attr) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	store, changed := mutate(s.Load())
	if !changed {
		logger.Debug(ctx, "favorites", "store."+op,
			append(attrs,
				slog.String("status", "skip"),
				slog.String("backend", "file"),
			)...,
		)
		return false, nil
	}
	if err := s.Save(store); err != nil {
		logger.Error(ctx, "favorites", "store."+op,
			append(attrs,
				slog.String("status", "fail"),
				slog.String("backend", "file"),
				slog.String("path", s.path),
				slog.String("err", err.Error()),
			)...,
		)
		return false, err
	}
	logger.Debug(ctx, "favorites", "store."+op,
		append(attrs,
			slog.String("status", "ok"),
			slog.String("backend", "file"),
			slog.Duration("duration", logger.RoundMS(time.Since(start))),
		)...,
	)
	return true, nil
}
