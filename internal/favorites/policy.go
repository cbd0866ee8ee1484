package favorites

import (
	"fmt"
	"strings"
)

// DuplicatePolicy decides what happens when a user bookmarks a verse that is
// already in their list.
type DuplicatePolicy string

const (
	// DuplicatesAllow appends the verse again.
	DuplicatesAllow DuplicatePolicy = "allow"
	// DuplicatesSkip leaves the list unchanged.
	DuplicatesSkip DuplicatePolicy = "skip"
	// DuplicatesBump drops the older copy and appends the verse at the end.
	DuplicatesBump DuplicatePolicy = "bump"
)

// ParseDuplicatePolicy parses a config value. Empty input selects DuplicatesAllow.
func ParseDuplicatePolicy(raw string) (DuplicatePolicy, error) {
	switch p := DuplicatePolicy(strings.ToLower(strings.TrimSpace(raw))); p {
	case "":
		return DuplicatesAllow, nil
	case DuplicatesAllow, DuplicatesSkip, DuplicatesBump:
		return p, nil
	default:
		return "", fmt.Errorf("favorites: invalid duplicate policy %q; allowed: allow, skip, bump", raw)
	}
}
