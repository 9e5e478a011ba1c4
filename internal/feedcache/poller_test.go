package feedcache

import (
	"context"
	"testing"
	"time"

	"github.com/amirrudd/flyerboard/internal/listing/domain"
	"github.com/amirrudd/flyerboard/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startPoller(t *testing.T, p *Poller) (cancel func() error) {
	t.Helper()
	ctx, stop := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(ctx) }()
	return func() error {
		stop()
		select {
		case err := <-errCh:
			return err
		case <-time.After(time.Second):
			t.Fatal("poller did not stop")
			return nil
		}
	}
}

func TestPoller_TickRefreshesAndClearsHighlight(t *testing.T) {
	src := newFakeSource()
	c := loadedController(t, src, newFakeClock(), Options{Throttle: -1}, listing("A"))
	src.setSince(listing("C"))

	p := NewPoller(c, 5*time.Millisecond, 50*time.Millisecond, logger.NewNop())
	stop := startPoller(t, p)

	require.Eventually(t, func() bool { return c.IsNewlyArrived("C") }, time.Second, time.Millisecond)
	assert.Equal(t, []string{"C", "A"}, idsOf(c.Displayed()))

	require.Eventually(t, func() bool { return len(c.NewlyArrived()) == 0 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"C", "A"}, idsOf(c.Displayed()))

	assert.ErrorIs(t, stop(), context.Canceled)
}

func TestPoller_NudgeTriggersRefresh(t *testing.T) {
	src := newFakeSource()
	c := loadedController(t, src, newFakeClock(), Options{}, listing("A"))
	src.setSince(listing("B"))

	p := NewPoller(c, time.Hour, 0, logger.NewNop())
	stop := startPoller(t, p)

	p.Nudge()
	p.Nudge()

	require.Eventually(t, func() bool {
		_, since := src.calls()
		return since == 1
	}, time.Second, time.Millisecond)
	assert.True(t, c.IsNewlyArrived("B"), "highlight stays without a highlight duration")

	require.NoError(t, ignoreCanceled(stop()))
}

func TestPoller_NudgeRespectsThrottle(t *testing.T) {
	src := newFakeSource()
	c := loadedController(t, src, newFakeClock(), Options{}, listing("A"))
	p := NewPoller(c, time.Hour, 0, logger.NewNop())
	stop := startPoller(t, p)

	p.Nudge()
	require.Eventually(t, func() bool { _, n := src.calls(); return n == 1 }, time.Second, time.Millisecond)
	src.setSince(&domain.Listing{ID: "late"})
	p.Nudge()
	time.Sleep(20 * time.Millisecond)

	_, since := src.calls()
	assert.Equal(t, 1, since)
	require.NoError(t, ignoreCanceled(stop()))
}

func ignoreCanceled(err error) error {
	if err == context.Canceled {
		return nil
	}
	return err
}
