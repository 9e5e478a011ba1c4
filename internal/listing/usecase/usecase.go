package usecase

// Metrics receives business counters. *metrics.MetricsManager implements it.
type Metrics interface {
	ListingCreated()
	ListingDeleted()
	ViewIncremented()
	FeedServed(mode string)
}

type noopMetrics struct{}

func (noopMetrics) ListingCreated()   {}
func (noopMetrics) ListingDeleted()   {}
func (noopMetrics) ViewIncremented()  {}
func (noopMetrics) FeedServed(string) {}

func metricsOrNoop(m Metrics) Metrics {
	if m == nil {
		return noopMetrics{}
	}
	return m
}
