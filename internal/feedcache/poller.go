package feedcache

import (
	"context"
	"time"

	"github.com/amirrudd/flyerboard/internal/platform/logger"
	"go.uber.org/zap"
)

// Poller drives background refreshes: on every tick and on every Nudge.
// After a refresh that found new listings it clears the highlight set once
// the highlight duration has passed.
type Poller struct {
	ctrl      *Controller
	interval  time.Duration
	highlight time.Duration
	nudge     chan struct{}
	logger    *logger.Logger
}

func NewPoller(ctrl *Controller, interval, highlight time.Duration, log *logger.Logger) *Poller {
	return &Poller{
		ctrl:      ctrl,
		interval:  interval,
		highlight: highlight,
		nudge:     make(chan struct{}, 1),
		logger:    log.Named("FeedPoller"),
	}
}

// Nudge asks for a refresh outside the ticker, e.g. when the view becomes
// visible again. It never blocks; nudges coalesce.
func (p *Poller) Nudge() {
	select {
	case p.nudge <- struct{}{}:
	default:
	}
}

// Run blocks until ctx is done.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	var (
		clearTimer *time.Timer
		clearC     <-chan time.Time
	)
	defer func() {
		if clearTimer != nil {
			clearTimer.Stop()
		}
	}()

	p.logger.Info("Feed poller started", zap.Duration("interval", p.interval), zap.Duration("highlight", p.highlight))
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Feed poller stopped")
			return ctx.Err()
		case <-ticker.C:
		case <-p.nudge:
		case <-clearC:
			p.ctrl.ClearNewlyArrived()
			clearC = nil
			continue
		}

		if n := p.ctrl.Refresh(ctx, false); n > 0 && p.highlight > 0 {
			if clearTimer != nil {
				clearTimer.Stop()
			}
			clearTimer = time.NewTimer(p.highlight)
			clearC = clearTimer.C
		}
	}
}
