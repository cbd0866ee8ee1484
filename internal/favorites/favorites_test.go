package favorites

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddCreatesSequence(t *testing.T) {
	store := Add(nil, "42", Entry{VerseID: 10, ChapterID: 2, VerseNumber: 5, Text: "ذَٰلِكَ"})

	require.Len(t, store["42"], 1)
	assert.Equal(t, 10, store["42"][0].VerseID)
}

func TestAddKeepsBookmarkingOrderAndDuplicates(t *testing.T) {
	store := make(Favorites)
	store = Add(store, "1", Entry{VerseID: 3})
	store = Add(store, "1", Entry{VerseID: 1})
	store = Add(store, "1", Entry{VerseID: 3})

	ids := verseIDs(store["1"])
	assert.Equal(t, []int{3, 1, 3}, ids)
}

func TestAddWithPolicy(t *testing.T) {
	seed := func() Favorites {
		return Favorites{"1": {{VerseID: 3}, {VerseID: 1}}}
	}

	tests := []struct {
		name    string
		policy  DuplicatePolicy
		want    []int
		changed bool
	}{
		{name: "allow", policy: DuplicatesAllow, want: []int{3, 1, 3}, changed: true},
		{name: "skip", policy: DuplicatesSkip, want: []int{3, 1}, changed: false},
		{name: "bump", policy: DuplicatesBump, want: []int{1, 3}, changed: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, changed := AddWithPolicy(seed(), "1", Entry{VerseID: 3}, tt.policy)
			assert.Equal(t, tt.changed, changed)
			assert.Equal(t, tt.want, verseIDs(store["1"]))
		})
	}
}

func TestRemoveDropsAllCopies(t *testing.T) {
	store := Favorites{"1": {{VerseID: 3}, {VerseID: 1}, {VerseID: 3}}}
	store = Remove(store, "1", 3)
	assert.Equal(t, []int{1}, verseIDs(store["1"]))
}

func TestRemoveMissingVerseIsIdempotent(t *testing.T) {
	store := Favorites{"1": {{VerseID: 3, Text: "a"}, {VerseID: 1, Text: "b"}}}
	before := append([]Entry(nil), store["1"]...)

	store = Remove(store, "1", 99)
	assert.Equal(t, before, store["1"])
}

func TestAddThenRemoveLeavesEmptySequence(t *testing.T) {
	e := Entry{VerseID: 10, ChapterID: 2, VerseNumber: 5, Text: "..."}
	store := Add(make(Favorites), "u", e)
	store = Remove(store, "u", e.VerseID)

	list, ok := store["u"]
	require.True(t, ok)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestRemoveMissingUserDoesNotCreateKey(t *testing.T) {
	store := Favorites{"1": {{VerseID: 3}}}
	assert.NotPanics(t, func() {
		store = Remove(store, "2", 3)
	})
	_, ok := store["2"]
	assert.False(t, ok)

	var empty Favorites
	assert.NotPanics(t, func() { Remove(empty, "2", 3) })
}

func TestCountSkipsEmptyUsers(t *testing.T) {
	store := Favorites{
		"1": {{VerseID: 1}, {VerseID: 2}},
		"2": {},
		"3": {{VerseID: 7}},
	}
	users, entries := store.Count()
	assert.Equal(t, 2, users)
	assert.Equal(t, 3, entries)
	assert.True(t, store.Has("1", 2))
	assert.False(t, store.Has("2", 2))
}

func TestParseDuplicatePolicy(t *testing.T) {
	for raw, want := range map[string]DuplicatePolicy{
		"":       DuplicatesAllow,
		"allow":  DuplicatesAllow,
		" SKIP ": DuplicatesSkip,
		"bump":   DuplicatesBump,
	} {
		got, err := ParseDuplicatePolicy(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}
	_, err := ParseDuplicatePolicy("dedupe")
	assert.Error(t, err)
}

func TestUserKey(t *testing.T) {
	assert.Equal(t, "42", UserKey(42))
	assert.Equal(t, "-100123", UserKey(-100123))
}

func verseIDs(list []Entry) []int {
	out := make([]int, 0, len(list))
	for _, e := range list {
		out = append(out, e.VerseID)
	}
	return out
}
