package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/amirrudd/flyerboard/internal/listing/domain"
	"github.com/amirrudd/flyerboard/internal/platform/logger"
	"go.uber.org/zap"
)

// ListingUsecase owns the listing lifecycle: create, edit, toggle, soft delete.
type ListingUsecase struct {
	repo       domain.ListingRepository
	categories domain.CategoryRepository
	favorites  domain.FavoriteRepository
	users      domain.UserRepository
	cache      domain.ListingCache
	publisher  domain.EventPublisher
	notifier   domain.Notifier
	metrics    Metrics
	logger     *logger.Logger
}

type ListingDeps struct {
	Repo       domain.ListingRepository
	Categories domain.CategoryRepository
	Favorites  domain.FavoriteRepository
	Users      domain.UserRepository
	Cache      domain.ListingCache
	Publisher  domain.EventPublisher
	Notifier   domain.Notifier
	Metrics    Metrics
}

func NewListingUsecase(deps ListingDeps, log *logger.Logger) *ListingUsecase {
	return &ListingUsecase{
		repo:       deps.Repo,
		categories: deps.Categories,
		favorites:  deps.Favorites,
		users:      deps.Users,
		cache:      deps.Cache,
		publisher:  deps.Publisher,
		notifier:   deps.Notifier,
		metrics:    metricsOrNoop(deps.Metrics),
		logger:     log.Named("ListingUsecase"),
	}
}

func (uc *ListingUsecase) CreateListing(ctx context.Context, ownerID string, in domain.ListingInput) (*domain.Listing, error) {
	listing, err := domain.NewListing(ownerID, in)
	if err != nil {
		return nil, err
	}
	if err := uc.ensureCategory(ctx, listing.CategoryID); err != nil {
		return nil, err
	}
	if err := uc.repo.Create(ctx, listing); err != nil {
		uc.logger.Error("Failed to create listing", zap.Error(err), zap.String("owner_id", ownerID))
		return nil, err
	}
	uc.metrics.ListingCreated()
	uc.logger.Info("Listing created", zap.String("listing_id", listing.ID), zap.String("owner_id", ownerID))
	uc.publish(ctx, domain.SubjectListingCreated, eventFor(listing, nil))
	return listing, nil
}

// UpdateListing applies an owner's edit. The price invariant is checked
// before the write; a price drop notifies everyone who saved the listing.
func (uc *ListingUsecase) UpdateListing(ctx context.Context, id, actorID string, patch domain.ListingPatch) (*domain.Listing, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	listing, err := uc.ownedLive(ctx, id, actorID)
	if err != nil {
		return nil, err
	}
	oldCategory := listing.CategoryID
	oldPrice := listing.Price

	dropped := listing.Apply(patch)
	if err := listing.Validate(); err != nil {
		return nil, err
	}
	if listing.CategoryID != oldCategory {
		if err := uc.ensureCategory(ctx, listing.CategoryID); err != nil {
			return nil, err
		}
	}
	if err := uc.repo.Update(ctx, listing); err != nil {
		uc.logger.Error("Failed to update listing", zap.Error(err), zap.String("listing_id", id))
		return nil, err
	}
	uc.invalidate(ctx, id)

	uc.publish(ctx, domain.SubjectListingUpdated, eventFor(listing, oldPrice))
	if dropped {
		uc.publish(ctx, domain.SubjectListingPriceDropped, eventFor(listing, oldPrice))
		uc.notifyPriceDrop(ctx, listing)
	}
	return listing, nil
}

func (uc *ListingUsecase) SetListingActive(ctx context.Context, id, actorID string, active bool) (*domain.Listing, error) {
	listing, err := uc.ownedLive(ctx, id, actorID)
	if err != nil {
		return nil, err
	}
	if listing.Active == active {
		return listing, nil
	}
	listing.Active = active
	if err := uc.repo.Update(ctx, listing); err != nil {
		return nil, err
	}
	uc.invalidate(ctx, id)
	uc.publish(ctx, domain.SubjectListingUpdated, eventFor(listing, listing.Price))
	return listing, nil
}

// DeleteListing soft-deletes: the row and its images are kept, every read path skips it.
func (uc *ListingUsecase) DeleteListing(ctx context.Context, id, actorID string) error {
	listing, err := uc.ownedLive(ctx, id, actorID)
	if err != nil {
		return err
	}
	listing.SoftDelete()
	if err := uc.repo.Update(ctx, listing); err != nil {
		uc.logger.Error("Failed to soft-delete listing", zap.Error(err), zap.String("listing_id", id))
		return err
	}
	uc.metrics.ListingDeleted()
	uc.invalidate(ctx, id)
	uc.logger.Info("Listing soft-deleted", zap.String("listing_id", id), zap.String("owner_id", actorID))
	uc.publish(ctx, domain.SubjectListingDeleted, eventFor(listing, nil))
	return nil
}

// GetListing reads through the detail cache. Soft-deleted listings are not found.
func (uc *ListingUsecase) GetListing(ctx context.Context, id string) (*domain.Listing, error) {
	if uc.cache != nil {
		cached, err := uc.cache.GetListing(ctx, id)
		if err != nil {
			uc.logger.Warn("Listing cache read failed", zap.String("listing_id", id), zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	listing, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if listing.Deleted {
		return nil, domain.ErrNotFound
	}
	if uc.cache != nil {
		if err := uc.cache.SetListing(ctx, listing); err != nil {
			uc.logger.Warn("Listing cache write failed", zap.String("listing_id", id), zap.Error(err))
		}
	}
	return listing, nil
}

// AppendImage adds an already stored image reference at the end of the display order.
func (uc *ListingUsecase) AppendImage(ctx context.Context, id, actorID, ref string) (*domain.Listing, error) {
	listing, err := uc.ownedLive(ctx, id, actorID)
	if err != nil {
		return nil, err
	}
	listing.Images = append(listing.Images, ref)
	if err := uc.repo.Update(ctx, listing); err != nil {
		return nil, err
	}
	uc.invalidate(ctx, id)
	return listing, nil
}

func (uc *ListingUsecase) ownedLive(ctx context.Context, id, actorID string) (*domain.Listing, error) {
	listing, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if listing.Deleted {
		return nil, domain.ErrNotFound
	}
	if listing.OwnerID != actorID {
		uc.logger.Warn("Forbidden listing change",
			zap.String("listing_id", id),
			zap.String("owner_id", listing.OwnerID),
			zap.String("actor_id", actorID))
		return nil, domain.ErrForbidden
	}
	return listing, nil
}

func (uc *ListingUsecase) ensureCategory(ctx context.Context, id string) error {
	if uc.categories == nil {
		return nil
	}
	if _, err := uc.categories.FindByID(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: unknown category %q", domain.ErrInvalidInput, id)
		}
		return err
	}
	return nil
}

func (uc *ListingUsecase) invalidate(ctx context.Context, id string) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.DeleteListing(ctx, id); err != nil {
		uc.logger.Warn("Failed to invalidate cached listing", zap.String("listing_id", id), zap.Error(err))
	}
}

// publish is best effort; a lost event never fails the write.
func (uc *ListingUsecase) publish(ctx context.Context, subject string, evt domain.ListingEvent) {
	if uc.publisher == nil {
		return
	}
	if err := uc.publisher.Publish(ctx, subject, evt); err != nil {
		uc.logger.Warn("Failed to publish event", zap.String("subject", subject), zap.Error(err))
	}
}

func (uc *ListingUsecase) notifyPriceDrop(ctx context.Context, listing *domain.Listing) {
	if uc.notifier == nil || uc.favorites == nil || uc.users == nil {
		return
	}
	userIDs, err := uc.favorites.FindUserIDsByListingID(ctx, listing.ID)
	if err != nil {
		uc.logger.Warn("Failed to load watchers for price drop", zap.String("listing_id", listing.ID), zap.Error(err))
		return
	}
	for _, userID := range userIDs {
		if userID == listing.OwnerID {
			continue
		}
		email, err := uc.users.GetEmailByID(ctx, userID)
		if err != nil || email == "" {
			uc.logger.Debug("No email for watcher", zap.String("user_id", userID), zap.Error(err))
			continue
		}
		if err := uc.notifier.SendPriceDrop(email, listing); err != nil {
			uc.logger.Warn("Price drop mail failed", zap.String("user_id", userID), zap.Error(err))
		}
	}
}

func eventFor(l *domain.Listing, oldPrice *float64) domain.ListingEvent {
	return domain.ListingEvent{
		ListingID:  l.ID,
		OwnerID:    l.OwnerID,
		CategoryID: l.CategoryID,
		OldPrice:   oldPrice,
		NewPrice:   l.Price,
		OccurredAt: time.Now().UTC(),
	}
}
