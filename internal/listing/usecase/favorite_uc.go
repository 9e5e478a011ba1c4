package usecase

import (
	"context"
	"time"

	"github.com/amirrudd/flyerboard/internal/listing/domain"
	"github.com/amirrudd/flyerboard/internal/platform/logger"
	"go.uber.org/zap"
)

type FavoriteUsecase struct {
	repo     domain.FavoriteRepository
	listings domain.ListingRepository
	logger   *logger.Logger
}

func NewFavoriteUsecase(repo domain.FavoriteRepository, listings domain.ListingRepository, log *logger.Logger) *FavoriteUsecase {
	return &FavoriteUsecase{
		repo:     repo,
		listings: listings,
		logger:   log.Named("FavoriteUsecase"),
	}
}

// AddFavorite saves a live listing for the user.
func (uc *FavoriteUsecase) AddFavorite(ctx context.Context, userID, listingID string) error {
	listing, err := uc.listings.FindByID(ctx, listingID)
	if err != nil {
		return err
	}
	if !listing.IsLive() {
		return domain.ErrNotFound
	}
	err = uc.repo.Add(ctx, &domain.Favorite{
		UserID:    userID,
		ListingID: listingID,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		uc.logger.Error("Failed to add favorite", zap.String("user_id", userID), zap.String("listing_id", listingID), zap.Error(err))
	}
	return err
}

func (uc *FavoriteUsecase) RemoveFavorite(ctx context.Context, userID, listingID string) error {
	err := uc.repo.Remove(ctx, userID, listingID)
	if err != nil {
		uc.logger.Warn("Failed to remove favorite", zap.String("user_id", userID), zap.String("listing_id", listingID), zap.Error(err))
	}
	return err
}

// ListFavorites returns the user's saved listings, most recently saved first.
// Listings deleted or deactivated since are skipped.
func (uc *FavoriteUsecase) ListFavorites(ctx context.Context, userID string) ([]*domain.Listing, error) {
	favorites, err := uc.repo.FindByUserID(ctx, userID)
	if err != nil {
		uc.logger.Error("Failed to fetch favorites", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	if len(favorites) == 0 {
		return []*domain.Listing{}, nil
	}

	ids := make([]string, 0, len(favorites))
	for _, f := range favorites {
		ids = append(ids, f.ListingID)
	}
	found, err := uc.listings.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*domain.Listing, len(found))
	for _, l := range found {
		byID[l.ID] = l
	}

	out := make([]*domain.Listing, 0, len(ids))
	for _, id := range ids {
		if l, ok := byID[id]; ok && l.IsLive() {
			out = append(out, l)
		}
	}
	return out, nil
}
