package domain

import (
	"net/url"
	"strings"
	"time"
)

const (
	// SearchResultCap bounds search mode, which is never paginated.
	SearchResultCap = 50
	// DefaultSinceLimit caps a ListSince poll when the caller passes no limit.
	DefaultSinceLimit = 50
	DefaultPageSize   = 20
	MaxPageSize       = 100
	MaxSinceLimit     = 100
)

// FeedQuery is the shared predicate of the feed read operations.
type FeedQuery struct {
	CategoryID string `json:"category_id,omitempty"`
	SearchText string `json:"search_text,omitempty"`
	Location   string `json:"location,omitempty"`
	// MaxCreationTime pins the paginated window for a browsing session.
	MaxCreationTime time.Time `json:"max_creation_time,omitempty"`
}

// Normalize trims every component.
func (q FeedQuery) Normalize() FeedQuery {
	q.CategoryID = strings.TrimSpace(q.CategoryID)
	q.SearchText = strings.TrimSpace(q.SearchText)
	q.Location = strings.TrimSpace(q.Location)
	return q
}

func (q FeedQuery) IsSearch() bool {
	return strings.TrimSpace(q.SearchText) != ""
}

// MatchesLocation applies the in-memory location filter.
func (q FeedQuery) MatchesLocation(l *Listing) bool {
	return q.Location == "" || l.Location == q.Location
}

// Page is one response of ListPage.
type Page struct {
	Items           []*Listing `json:"items"`
	Cursor          string     `json:"cursor,omitempty"`
	Done            bool       `json:"done"`
	MaxCreationTime time.Time  `json:"max_creation_time"`
}

// BrowseQuery is what the store sees in browse mode. Location is not part of it.
type BrowseQuery struct {
	CategoryID      string
	MaxCreationTime time.Time
	Cursor          string
	Limit           int
}

// Tuple identifies one view of the feed on the client.
type Tuple struct {
	CategoryID string `json:"category_id,omitempty"`
	SearchText string `json:"search_text,omitempty"`
	Location   string `json:"location,omitempty"`
}

func NewTuple(categoryID, searchText, location string) Tuple {
	return Tuple{CategoryID: categoryID, SearchText: searchText, Location: location}.Normalize()
}

// Normalize maps blank components to the canonical "no filter" value.
func (t Tuple) Normalize() Tuple {
	return Tuple{
		CategoryID: strings.TrimSpace(t.CategoryID),
		SearchText: strings.TrimSpace(t.SearchText),
		Location:   strings.TrimSpace(t.Location),
	}
}

// Key serializes the normalized tuple. Equal tuples yield equal keys.
func (t Tuple) Key() string {
	n := t.Normalize()
	return "c=" + url.QueryEscape(n.CategoryID) +
		"|q=" + url.QueryEscape(n.SearchText) +
		"|l=" + url.QueryEscape(n.Location)
}

func (t Tuple) Equal(o Tuple) bool {
	return t.Normalize() == o.Normalize()
}

// Query turns the tuple into a feed predicate for the given session cutoff.
func (t Tuple) Query(maxCreationTime time.Time) FeedQuery {
	n := t.Normalize()
	return FeedQuery{
		CategoryID:      n.CategoryID,
		SearchText:      n.SearchText,
		Location:        n.Location,
		MaxCreationTime: maxCreationTime,
	}
}
