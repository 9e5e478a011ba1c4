// Package feedcache keeps a per-filter cache of the feed on the client side,
// merges newly created listings into it and forwards pagination to the server.
package feedcache

import (
	"context"
	"errors"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/amirrudd/flyerboard/internal/bus"
	"github.com/amirrudd/flyerboard/internal/listing/domain"
	"github.com/amirrudd/flyerboard/internal/platform/logger"
	"github.com/codeGROOVE-dev/retry"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultThrottle        = 60 * time.Second
	DefaultSinceLimit      = 50
	DefaultInitialLookback = 5 * time.Minute
	defaultAttempts        = 3
	defaultRetryDelay      = 200 * time.Millisecond
)

// Source is the feed query API the controller reads from.
type Source interface {
	ListPage(ctx context.Context, q domain.FeedQuery, cursor string, pageSize int) (*domain.Page, error)
	ListSince(ctx context.Context, q domain.FeedQuery, since time.Time, limit int) ([]*domain.Listing, error)
}

// Preferences persists the last used location filter.
type Preferences interface {
	GetLocation(ctx context.Context, subject string) (string, error)
	SetLocation(ctx context.Context, subject, location string) error
}

type Options struct {
	PageSize int
	// Throttle is the minimum gap between non-forced refreshes; negative disables it.
	Throttle        time.Duration
	SinceLimit      int
	InitialLookback time.Duration
	// Attempts bounds foreground first-page fetches.
	Attempts   uint
	RetryDelay time.Duration

	Bus         *bus.Bus
	Preferences Preferences
	Subject     string

	Clock func() time.Time
}

func (o *Options) withDefaults() {
	if o.PageSize <= 0 {
		o.PageSize = domain.DefaultPageSize
	}
	if o.Throttle < 0 {
		o.Throttle = 0
	} else if o.Throttle == 0 {
		o.Throttle = DefaultThrottle
	}
	if o.SinceLimit <= 0 {
		o.SinceLimit = DefaultSinceLimit
	}
	if o.InitialLookback <= 0 {
		o.InitialLookback = DefaultInitialLookback
	}
	if o.Attempts == 0 {
		o.Attempts = defaultAttempts
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = defaultRetryDelay
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
}

// session is the live pagination state of one tuple.
type session struct {
	cursor          string
	done            bool
	maxCreationTime time.Time
}

// Controller owns the client feed state. All methods are safe for concurrent
// use; the lock is never held across a call to the Source.
type Controller struct {
	src    Source
	opts   Options
	logger *logger.Logger

	mu           sync.Mutex
	current      domain.Tuple
	currentKey   string
	hasCurrent   bool
	generation   uint64
	loading      bool
	displayed    []*domain.Listing
	cache        map[string][]*domain.Listing
	sessions     map[string]*session
	watermark    time.Time
	lastRefresh  time.Time
	newlyArrived map[string]struct{}

	refreshGroup singleflight.Group
	loadGroup    singleflight.Group
}

func NewController(src Source, opts Options, log *logger.Logger) *Controller {
	opts.withDefaults()
	return &Controller{
		src:          src,
		opts:         opts,
		logger:       log.Named("FeedController"),
		cache:        make(map[string][]*domain.Listing),
		sessions:     make(map[string]*session),
		watermark:    opts.Clock().Add(-opts.InitialLookback),
		newlyArrived: make(map[string]struct{}),
	}
}

// RestoreFilter fills an empty location from the persisted preference.
func (c *Controller) RestoreFilter(ctx context.Context, base domain.Tuple) domain.Tuple {
	base = base.Normalize()
	if base.Location != "" || c.opts.Preferences == nil || c.opts.Subject == "" {
		return base
	}
	loc, err := c.opts.Preferences.GetLocation(ctx, c.opts.Subject)
	if err != nil {
		c.logger.Warn("Failed to restore location preference", zap.Error(err))
		return base
	}
	base.Location = loc
	return base.Normalize()
}

// OnFilterChange makes t the current tuple. A cached tuple is displayed
// immediately and hit is true. Otherwise the first page is fetched; its
// response is cached and displayed only if t is still current when it arrives.
func (c *Controller) OnFilterChange(ctx context.Context, t domain.Tuple) (hit bool, err error) {
	t = t.Normalize()
	key := t.Key()

	c.mu.Lock()
	prevLocation, hadCurrent := c.current.Location, c.hasCurrent
	c.generation++
	gen := c.generation
	c.current, c.currentKey, c.hasCurrent = t, key, true

	if entry, ok := c.cache[key]; ok {
		c.displayed = entry
		c.loading = false
		c.mu.Unlock()
		c.afterFilterChange(ctx, key, t.Location, prevLocation, hadCurrent)
		return true, nil
	}

	c.displayed = nil
	c.loading = true
	cutoff := c.opts.Clock().UTC()
	c.mu.Unlock()
	c.afterFilterChange(ctx, key, t.Location, prevLocation, hadCurrent)

	page, err := c.fetchFirstPage(ctx, t.Query(cutoff))

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		c.logger.Debug("Discarding stale first page", zap.String("tuple", key))
		return false, nil
	}
	c.loading = false
	if err != nil {
		return false, err
	}

	if page.MaxCreationTime.IsZero() {
		page.MaxCreationTime = cutoff
	}
	items := appendUnique(nil, page.Items)
	c.sessions[key] = &session{
		cursor:          page.Cursor,
		done:            page.Done || page.Cursor == "",
		maxCreationTime: page.MaxCreationTime,
	}
	c.cache[key] = items
	c.displayed = items
	return false, nil
}

func (c *Controller) afterFilterChange(ctx context.Context, key, location, prevLocation string, hadCurrent bool) {
	c.publish(bus.KindFeedFilterChanged, key)
	if c.opts.Preferences == nil || c.opts.Subject == "" {
		return
	}
	if hadCurrent && location == prevLocation {
		return
	}
	if err := c.opts.Preferences.SetLocation(ctx, c.opts.Subject, location); err != nil {
		c.logger.Warn("Failed to persist location preference", zap.Error(err))
	}
}

func (c *Controller) fetchFirstPage(ctx context.Context, q domain.FeedQuery) (*domain.Page, error) {
	var (
		page    *domain.Page
		lastErr error
	)
	err := retry.Do(
		func() error {
			p, err := c.src.ListPage(ctx, q, "", c.opts.PageSize)
			if err != nil {
				lastErr = err
				return err
			}
			page = p
			return nil
		},
		retry.Attempts(c.opts.Attempts),
		retry.Delay(c.opts.RetryDelay),
		retry.MaxDelay(10*c.opts.RetryDelay),
		retry.MaxJitter(c.opts.RetryDelay),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Info("Retrying first page fetch", zap.Uint("attempt", n), zap.Error(err))
		}),
		retry.RetryIf(func(err error) bool {
			return !errors.Is(err, domain.ErrInvalidInput) &&
				!errors.Is(err, domain.ErrInvalidCursor) &&
				!errors.Is(err, context.Canceled)
		}),
	)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if lastErr != nil {
			return nil, lastErr
		}
		return nil, err
	}
	if page == nil {
		page = &domain.Page{Done: true, MaxCreationTime: q.MaxCreationTime}
	}
	return page, nil
}

// Refresh pulls listings created after the watermark for the current tuple
// and prepends the unseen ones. It is throttled unless force is set, and
// returns the number of new listings. Failures are logged and count as zero.
func (c *Controller) Refresh(ctx context.Context, force bool) int {
	c.mu.Lock()
	if !c.hasCurrent || c.loading {
		c.mu.Unlock()
		return 0
	}
	// A tuple whose first page failed has nothing to merge into; the next
	// navigation to it fetches again.
	if _, ok := c.sessions[c.currentKey]; !ok {
		c.mu.Unlock()
		return 0
	}
	now := c.opts.Clock()
	if !force && !c.lastRefresh.IsZero() && now.Sub(c.lastRefresh) < c.opts.Throttle {
		c.mu.Unlock()
		return 0
	}
	c.lastRefresh = now
	key, tuple := c.currentKey, c.current
	c.mu.Unlock()

	if force {
		return c.refreshOnce(ctx, key, tuple)
	}
	v, _, _ := c.refreshGroup.Do(key, func() (interface{}, error) {
		return c.refreshOnce(ctx, key, tuple), nil
	})
	return v.(int)
}

func (c *Controller) refreshOnce(ctx context.Context, key string, tuple domain.Tuple) int {
	c.mu.Lock()
	since := c.watermark
	c.mu.Unlock()

	items, err := c.src.ListSince(ctx, tuple.Query(time.Time{}), since, c.opts.SinceLimit)
	if err != nil {
		c.logger.Warn("Background refresh failed", zap.String("tuple", key), zap.Error(err))
		return 0
	}

	c.mu.Lock()
	if _, ok := c.sessions[key]; !ok || key != c.currentKey || c.loading {
		c.mu.Unlock()
		c.logger.Debug("Dropping refresh for a tuple that is no longer current", zap.String("tuple", key))
		return 0
	}

	seen := make(map[string]struct{}, len(c.displayed)+len(items))
	for _, l := range c.displayed {
		seen[l.ID] = struct{}{}
	}
	fresh := make([]*domain.Listing, 0, len(items))
	for _, l := range items {
		if l == nil {
			continue
		}
		if _, dup := seen[l.ID]; dup {
			continue
		}
		seen[l.ID] = struct{}{}
		fresh = append(fresh, l)
	}
	if len(fresh) == 0 {
		c.mu.Unlock()
		return 0
	}

	merged := make([]*domain.Listing, 0, len(fresh)+len(c.displayed))
	merged = append(merged, fresh...)
	merged = append(merged, c.displayed...)
	c.displayed = merged
	c.cache[key] = merged

	arrived := make(map[string]struct{}, len(fresh))
	ids := make([]string, 0, len(fresh))
	for _, l := range fresh {
		arrived[l.ID] = struct{}{}
		ids = append(ids, l.ID)
	}
	c.newlyArrived = arrived
	c.watermark = c.opts.Clock()
	c.mu.Unlock()

	c.logger.Info("New listings merged", zap.String("tuple", key), zap.Int("count", len(fresh)))
	c.publish(bus.KindFeedArrived, bus.ArrivedPayload{TupleKey: key, IDs: ids})
	return len(fresh)
}

// ClearNewlyArrived empties the highlight set.
func (c *Controller) ClearNewlyArrived() {
	c.mu.Lock()
	had := len(c.newlyArrived) > 0
	c.newlyArrived = make(map[string]struct{})
	c.mu.Unlock()
	if had {
		c.publish(bus.KindFeedHighlightCleared, nil)
	}
}

// LoadMore fetches the next page of the current tuple's session and appends
// the unseen listings. It is a no-op once the server reported the end.
func (c *Controller) LoadMore(ctx context.Context) (int, error) {
	c.mu.Lock()
	if !c.hasCurrent || c.loading {
		c.mu.Unlock()
		return 0, nil
	}
	key, tuple := c.currentKey, c.current
	sess := c.sessions[key]
	if sess == nil || sess.done {
		c.mu.Unlock()
		return 0, nil
	}
	c.mu.Unlock()

	v, err, _ := c.loadGroup.Do(key, func() (interface{}, error) {
		return c.loadMoreOnce(ctx, key, tuple)
	})
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}

func (c *Controller) loadMoreOnce(ctx context.Context, key string, tuple domain.Tuple) (int, error) {
	c.mu.Lock()
	sess := c.sessions[key]
	if sess == nil || sess.done {
		c.mu.Unlock()
		return 0, nil
	}
	cursor, cutoff := sess.cursor, sess.maxCreationTime
	c.mu.Unlock()

	page, err := c.src.ListPage(ctx, tuple.Query(cutoff), cursor, c.opts.PageSize)
	if err != nil {
		c.logger.Warn("Load more failed", zap.String("tuple", key), zap.Error(err))
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	sess = c.sessions[key]
	if sess == nil || sess.cursor != cursor {
		return 0, nil
	}
	sess.cursor = page.Cursor
	sess.done = page.Done || page.Cursor == ""

	before := len(c.cache[key])
	merged := appendUnique(c.cache[key], page.Items)
	c.cache[key] = merged
	if c.currentKey == key && !c.loading {
		c.displayed = merged
	}
	return len(merged) - before, nil
}

// appendUnique returns a new slice holding base followed by the items of
// extra whose ids are not already present.
func appendUnique(base, extra []*domain.Listing) []*domain.Listing {
	seen := make(map[string]struct{}, len(base)+len(extra))
	out := make([]*domain.Listing, 0, len(base)+len(extra))
	for _, l := range base {
		seen[l.ID] = struct{}{}
		out = append(out, l)
	}
	for _, l := range extra {
		if l == nil {
			continue
		}
		if _, dup := seen[l.ID]; dup {
			continue
		}
		seen[l.ID] = struct{}{}
		out = append(out, l)
	}
	return out
}

func (c *Controller) publish(kind string, payload any) {
	if c.opts.Bus == nil {
		return
	}
	c.opts.Bus.Publish(bus.Event{Kind: kind, Timestamp: c.opts.Clock(), Payload: payload})
}

// Displayed returns the listings currently shown, or nil while the current
// tuple is loading.
func (c *Controller) Displayed() []*domain.Listing {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loading {
		return nil
	}
	return slices.Clone(c.displayed)
}

func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// NewlyArrived returns the highlighted ids in sorted order.
func (c *Controller) NewlyArrived() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(c.newlyArrived))
	for id := range c.newlyArrived {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (c *Controller) IsNewlyArrived(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.newlyArrived[id]
	return ok
}

func (c *Controller) Watermark() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.watermark
}

func (c *Controller) LastRefresh() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastRefresh
}

func (c *Controller) Current() (domain.Tuple, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current, c.hasCurrent
}

// Cached returns the cache entry for t without touching the current tuple.
func (c *Controller) Cached(t domain.Tuple) ([]*domain.Listing, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.cache[t.Key()]
	return slices.Clone(entry), ok
}

// Len is the number of cached tuples. Entries are never evicted.
func (c *Controller) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.cache)
}

// Done reports whether the current tuple's session has no more pages.
func (c *Controller) Done() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	sess := c.sessions[c.currentKey]
	return sess != nil && sess.done
}
