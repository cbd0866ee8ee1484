// Package favorites persists the verses each user bookmarked.
//
// The whole store is a single map from user key to that user's entries in
// bookmarking order. Add and Remove operate on the in-memory map only;
// persistence is the job of a Repository implementation (FileStore or
// PostgresStore), which handlers receive by injection.
package favorites

import (
	"errors"
	"fmt"
	"strconv"
	"unicode/utf8"
)

// ErrInvalidText is returned when an entry's text is not valid UTF-8 and so
// could not be stored without being altered.
var ErrInvalidText = errors.New("favorites: text is not valid UTF-8")

// Entry is one bookmarked verse. Text is a snapshot taken when the verse was
// bookmarked, not a live reference to the content API. It must be valid
// UTF-8; stores reject anything else with ErrInvalidText.
type Entry struct {
	VerseID     int    `json:"verse_id" db:"verse_id"`
	ChapterID   int    `json:"surah_id" db:"surah_id"`
	VerseNumber int    `json:"verse_number" db:"verse_number"`
	Text        string `json:"text" db:"text"`
}

// Favorites maps a user key to that user's bookmarks.
type Favorites map[string][]Entry

// UserKey converts a Telegram user id into the store key.
func UserKey(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

// Add appends entry to the user's sequence, creating it when absent.
// The given map is modified and returned; a nil map is allocated.
func Add(store Favorites, userID string, entry Entry) Favorites {
	store, _ = AddWithPolicy(store, userID, entry, DuplicatesAllow)
	return store
}

// AddWithPolicy adds entry honouring the duplicate policy and reports whether
// the store changed.
func AddWithPolicy(store Favorites, userID string, entry Entry, policy DuplicatePolicy) (Favorites, bool) {
	if store == nil {
		store = make(Favorites)
	}
	list := store[userID]
	switch policy {
	case DuplicatesSkip:
		if contains(list, entry.VerseID) {
			return store, false
		}
	case DuplicatesBump:
		list = without(list, entry.VerseID)
	}
	store[userID] = append(list, entry)
	return store, true
}

// Remove drops every entry of the user with the given verse id. An unknown
// user is left untouched and no key is created for it.
func Remove(store Favorites, userID string, verseID int) Favorites {
	list, ok := store[userID]
	if !ok {
		return store
	}
	store[userID] = without(list, verseID)
	return store
}

// Has reports whether the user bookmarked the verse at least once.
func (f Favorites) Has(userID string, verseID int) bool {
	return contains(f[userID], verseID)
}

// Count returns the number of users and the total number of entries.
func (f Favorites) Count() (users, entries int) {
	for _, list := range f {
		if len(list) == 0 {
			continue
		}
		users++
		entries += len(list)
	}
	return users, entries
}

func contains(list []Entry, verseID int) bool {
	for _, e := range list {
		if e.VerseID == verseID {
			return true
		}
	}
	return false
}

// without never returns nil so an emptied list serializes as [].
func without(list []Entry, verseID int) []Entry {
	out := make([]Entry, 0, len(list))
	for _, e := range list {
		if e.VerseID != verseID {
			out = append(out, e)
		}
	}
	return out
}

// Validate reports whether the entry can be stored unchanged.
func (e Entry) Validate() error {
	if !utf8.ValidString(e.Text) {
		return fmt.Errorf("verse %d: %w", e.VerseID, ErrInvalidText)
	}
	return nil
}
