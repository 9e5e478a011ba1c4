package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTupleKeyNormalizes(t *testing.T) {
	a := Tuple{CategoryID: "c1", SearchText: "  ", Location: " Sydney "}
	b := NewTuple("c1", "", "Sydney")

	assert.Equal(t, a.Key(), b.Key())
	assert.True(t, a.Equal(b))
}

func TestTupleKeyDistinguishesComponents(t *testing.T) {
	keys := map[string]struct{}{}
	for _, tu := range []Tuple{
		{},
		{CategoryID: "x"},
		{SearchText: "x"},
		{Location: "x"},
		{CategoryID: "x|l=y"},
	} {
		keys[tu.Key()] = struct{}{}
	}
	assert.Len(t, keys, 5)
}

func TestTupleQueryCarriesCutoff(t *testing.T) {
	cutoff := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	q := NewTuple("c1", "bike", "Perth").Query(cutoff)

	assert.True(t, q.IsSearch())
	assert.Equal(t, cutoff, q.MaxCreationTime)
	assert.Equal(t, "Perth", q.Location)
}

func TestMatchesLocation(t *testing.T) {
	l := &Listing{Location: "Sydney"}
	assert.True(t, FeedQuery{}.MatchesLocation(l))
	assert.True(t, FeedQuery{Location: "Sydney"}.MatchesLocation(l))
	assert.False(t, FeedQuery{Location: "Perth"}.MatchesLocation(l))
}

func TestParseImageRef(t *testing.T) {
	cases := []struct {
		ref  string
		kind ImageRefKind
		val  string
	}{
		{"https://cdn.example.com/a.jpg", ImageRefURL, "https://cdn.example.com/a.jpg"},
		{"HTTP://cdn.example.com/a.jpg", ImageRefURL, "HTTP://cdn.example.com/a.jpg"},
		{"data:image/png;base64,AAAA", ImageRefInline, "data:image/png;base64,AAAA"},
		{"photos/1.jpg", ImageRefStorageKey, "photos/1.jpg"},
		{"/photos/2.jpg", ImageRefStorageKey, "photos/2.jpg"},
	}
	for _, c := range cases {
		got := ParseImageRef(c.ref)
		assert.Equal(t, c.kind, got.Kind, c.ref)
		assert.Equal(t, c.val, got.Value, c.ref)
	}
}
