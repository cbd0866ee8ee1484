package favorites

import "context"

// Stats summarises the store for the admin /stats command.
type Stats struct {
	Users   int `db:"users"`
	Entries int `db:"entries"`
}

// Repository is the access discipline handlers use for bookmarks. Every
// implementation serializes mutations so concurrent adds for the same user
// are never lost.
type Repository interface {
	List(ctx context.Context, userID string) ([]Entry, error)
	// Add reports false when the duplicate policy left the list unchanged.
	Add(ctx context.Context, userID string, entry Entry) (bool, error)
	// Remove reports false when the user had nothing to remove.
	Remove(ctx context.Context, userID string, verseID int) (bool, error)
	Stats(ctx context.Context) (Stats, error)
	Ping(ctx context.Context) error
}

var (
	_ Repository = (*FileStore)(nil)
	_ Repository = (*PostgresStore)(nil)
)
