package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/amirrudd/flyerboard/internal/listing/domain"
	"github.com/amirrudd/flyerboard/internal/platform/logger"
	"go.uber.org/zap"
)

// FeedUsecase answers the feed read operations.
type FeedUsecase struct {
	repo    domain.ListingRepository
	cache   domain.ListingCache
	metrics Metrics
	logger  *logger.Logger
	now     func() time.Time
}

func NewFeedUsecase(repo domain.ListingRepository, cache domain.ListingCache, m Metrics, log *logger.Logger) *FeedUsecase {
	return &FeedUsecase{
		repo:    repo,
		cache:   cache,
		metrics: metricsOrNoop(m),
		logger:  log.Named("FeedUsecase"),
		now:     time.Now,
	}
}

// ListPage returns one page of the feed. Search mode is a single capped page;
// browse mode pages newest first under the session cutoff and filters location
// after the fetch, so a page may hold fewer than pageSize items.
func (uc *FeedUsecase) ListPage(ctx context.Context, q domain.FeedQuery, cursor string, pageSize int) (*domain.Page, error) {
	q = q.Normalize()
	if q.MaxCreationTime.IsZero() {
		q.MaxCreationTime = uc.now().UTC()
	}

	if q.IsSearch() {
		items, err := uc.repo.Search(ctx, q, nil, domain.SearchResultCap)
		if err != nil {
			uc.logger.Error("Search failed", zap.Error(err), zap.String("search", q.SearchText))
			return nil, err
		}
		uc.metrics.FeedServed("search")
		return &domain.Page{
			Items:           dropDeleted(items),
			Done:            true,
			MaxCreationTime: q.MaxCreationTime,
		}, nil
	}

	items, next, done, err := uc.repo.Browse(ctx, domain.BrowseQuery{
		CategoryID:      q.CategoryID,
		MaxCreationTime: q.MaxCreationTime,
		Cursor:          cursor,
		Limit:           clampPageSize(pageSize),
	})
	if err != nil {
		uc.logger.Warn("Browse failed", zap.Error(err), zap.String("category_id", q.CategoryID))
		return nil, err
	}
	uc.metrics.FeedServed("browse")
	return &domain.Page{
		Items:           filterLocation(q, items),
		Cursor:          next,
		Done:            done,
		MaxCreationTime: q.MaxCreationTime,
	}, nil
}

// ListSince returns live listings created strictly after since, newest first.
func (uc *FeedUsecase) ListSince(ctx context.Context, q domain.FeedQuery, since time.Time, limit int) ([]*domain.Listing, error) {
	q = q.Normalize()
	switch {
	case limit <= 0:
		limit = domain.DefaultSinceLimit
	case limit > domain.MaxSinceLimit:
		limit = domain.MaxSinceLimit
	}

	var (
		items []*domain.Listing
		err   error
	)
	if q.IsSearch() {
		items, err = uc.repo.Search(ctx, q, &since, limit)
		items = dropDeleted(items)
	} else {
		items, err = uc.repo.Since(ctx, q.CategoryID, since, limit)
		items = filterLocation(q, items)
	}
	if err != nil {
		uc.logger.Warn("ListSince failed", zap.Error(err), zap.Time("since", since))
		return nil, err
	}
	uc.metrics.FeedServed("since")
	return items, nil
}

// IncrementViews bumps the view counter of a live or inactive listing.
// Absent and soft-deleted listings yield ErrNotFound.
func (uc *FeedUsecase) IncrementViews(ctx context.Context, id string) error {
	if err := uc.repo.IncrementViews(ctx, id); err != nil {
		return fmt.Errorf("increment views of %s: %w", id, err)
	}
	uc.metrics.ViewIncremented()
	if uc.cache != nil {
		if err := uc.cache.DeleteListing(ctx, id); err != nil {
			uc.logger.Warn("Failed to invalidate cached listing", zap.String("listing_id", id), zap.Error(err))
		}
	}
	return nil
}

func clampPageSize(n int) int {
	switch {
	case n <= 0:
		return domain.DefaultPageSize
	case n > domain.MaxPageSize:
		return domain.MaxPageSize
	}
	return n
}

func dropDeleted(items []*domain.Listing) []*domain.Listing {
	out := make([]*domain.Listing, 0, len(items))
	for _, l := range items {
		if !l.Deleted {
			out = append(out, l)
		}
	}
	return out
}

func filterLocation(q domain.FeedQuery, items []*domain.Listing) []*domain.Listing {
	out := make([]*domain.Listing, 0, len(items))
	for _, l := range items {
		if !l.Deleted && q.MatchesLocation(l) {
			out = append(out, l)
		}
	}
	return out
}
