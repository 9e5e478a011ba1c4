package bus

import "time"

const (
	// KindFeedArrived carries ArrivedPayload after a refresh merged new listings.
	KindFeedArrived = "feed.arrived"
	// KindFeedFilterChanged carries the new tuple key.
	KindFeedFilterChanged    = "feed.filter_changed"
	KindFeedHighlightCleared = "feed.highlight_cleared"
)

// Event is one notification published on the bus.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}

// ArrivedPayload describes listings prepended by a refresh.
type ArrivedPayload struct {
	TupleKey string
	IDs      []string
}
