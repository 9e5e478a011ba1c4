package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/amirrudd/flyerboard/internal/listing/domain"
	"github.com/amirrudd/flyerboard/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type listingFixture struct {
	repo       *MockListingRepository
	categories *MockCategoryRepository
	favorites  *MockFavoriteRepository
	users      *MockUserRepository
	cache      *MockListingCache
	publisher  *MockPublisher
	notifier   *MockNotifier
	metrics    *countingMetrics
	uc         *ListingUsecase
}

func newListingFixture() *listingFixture {
	f := &listingFixture{
		repo:       new(MockListingRepository),
		categories: new(MockCategoryRepository),
		favorites:  new(MockFavoriteRepository),
		users:      new(MockUserRepository),
		cache:      new(MockListingCache),
		publisher:  new(MockPublisher),
		notifier:   new(MockNotifier),
		metrics:    newCountingMetrics(),
	}
	f.uc = NewListingUsecase(ListingDeps{
		Repo:       f.repo,
		Categories: f.categories,
		Favorites:  f.favorites,
		Users:      f.users,
		Cache:      f.cache,
		Publisher:  f.publisher,
		Notifier:   f.notifier,
		Metrics:    f.metrics,
	}, logger.NewNop())
	return f
}

func TestCreateListing_Success(t *testing.T) {
	f := newListingFixture()
	f.categories.On("FindByID", mock.Anything, "bikes").Return(&domain.Category{ID: "bikes"}, nil).Once()
	f.repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Listing")).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.Listing).ID = "new-id"
	}).Return(nil).Once()
	f.publisher.On("Publish", mock.Anything, domain.SubjectListingCreated, mock.Anything).Return(nil).Once()

	l, err := f.uc.CreateListing(context.Background(), "owner", domain.ListingInput{
		CategoryID: "bikes", Title: "Road bike", Kind: domain.KindSale, Price: price(300),
	})

	require.NoError(t, err)
	assert.Equal(t, "new-id", l.ID)
	assert.True(t, l.Active)
	assert.Equal(t, 1, f.metrics.created)
	f.repo.AssertExpectations(t)
	f.publisher.AssertExpectations(t)
}

func TestCreateListing_SaleWithoutPriceRejectedBeforeWrite(t *testing.T) {
	f := newListingFixture()

	_, err := f.uc.CreateListing(context.Background(), "owner", domain.ListingInput{
		CategoryID: "bikes", Title: "Road bike", Kind: domain.KindBoth,
	})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateListing_UnknownCategory(t *testing.T) {
	f := newListingFixture()
	f.categories.On("FindByID", mock.Anything, "nope").Return(nil, domain.ErrNotFound).Once()

	_, err := f.uc.CreateListing(context.Background(), "owner", domain.ListingInput{
		CategoryID: "nope", Title: "Thing", Kind: domain.KindExchange,
	})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCreateListing_PublishFailureIsNotFatal(t *testing.T) {
	f := newListingFixture()
	f.categories.On("FindByID", mock.Anything, "c").Return(&domain.Category{ID: "c"}, nil)
	f.repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("nats down"))

	_, err := f.uc.CreateListing(context.Background(), "owner", domain.ListingInput{
		CategoryID: "c", Title: "Swap", Kind: domain.KindExchange,
	})
	assert.NoError(t, err)
}

func TestUpdateListing_PriceDropNotifiesWatchers(t *testing.T) {
	f := newListingFixture()
	existing := &domain.Listing{ID: "l1", OwnerID: "owner", CategoryID: "c", Title: "Couch", Kind: domain.KindSale, Price: price(100), Active: true}
	f.repo.On("FindByID", mock.Anything, "l1").Return(existing, nil).Once()
	f.repo.On("Update", mock.Anything, existing).Return(nil).Once()
	f.cache.On("DeleteListing", mock.Anything, "l1").Return(nil).Once()
	f.publisher.On("Publish", mock.Anything, domain.SubjectListingUpdated, mock.Anything).Return(nil).Once()
	f.publisher.On("Publish", mock.Anything, domain.SubjectListingPriceDropped, mock.MatchedBy(func(e domain.ListingEvent) bool {
		return e.OldPrice != nil && *e.OldPrice == 100 && e.NewPrice != nil && *e.NewPrice == 80
	})).Return(nil).Once()
	f.favorites.On("FindUserIDsByListingID", mock.Anything, "l1").Return([]string{"owner", "u1", "u2"}, nil).Once()
	f.users.On("GetEmailByID", mock.Anything, "u1").Return("u1@example.com", nil).Once()
	f.users.On("GetEmailByID", mock.Anything, "u2").Return("", domain.ErrNotFound).Once()
	f.notifier.On("SendPriceDrop", "u1@example.com", existing).Return(nil).Once()

	l, err := f.uc.UpdateListing(context.Background(), "l1", "owner", domain.ListingPatch{Price: price(80)})

	require.NoError(t, err)
	assert.Equal(t, 80.0, *l.Price)
	require.NotNil(t, l.PreviousPrice)
	assert.Equal(t, 100.0, *l.PreviousPrice)
	f.notifier.AssertExpectations(t)
	f.users.AssertNotCalled(t, "GetEmailByID", mock.Anything, "owner")
	f.publisher.AssertExpectations(t)
}

func TestUpdateListing_PriceRiseClearsPreviousAndSkipsMail(t *testing.T) {
	f := newListingFixture()
	existing := &domain.Listing{ID: "l1", OwnerID: "owner", CategoryID: "c", Title: "Couch", Kind: domain.KindSale, Price: price(80), PreviousPrice: price(100), Active: true}
	f.repo.On("FindByID", mock.Anything, "l1").Return(existing, nil).Once()
	f.repo.On("Update", mock.Anything, existing).Return(nil).Once()
	f.cache.On("DeleteListing", mock.Anything, "l1").Return(nil).Once()
	f.publisher.On("Publish", mock.Anything, domain.SubjectListingUpdated, mock.Anything).Return(nil).Once()

	l, err := f.uc.UpdateListing(context.Background(), "l1", "owner", domain.ListingPatch{Price: price(120)})

	require.NoError(t, err)
	assert.Nil(t, l.PreviousPrice)
	f.favorites.AssertNotCalled(t, "FindUserIDsByListingID", mock.Anything, mock.Anything)
}

func TestUpdateListing_ClearingSalePriceRejected(t *testing.T) {
	f := newListingFixture()
	existing := &domain.Listing{ID: "l1", OwnerID: "owner", CategoryID: "c", Title: "Couch", Kind: domain.KindSale, Price: price(80), Active: true}
	f.repo.On("FindByID", mock.Anything, "l1").Return(existing, nil).Once()

	_, err := f.uc.UpdateListing(context.Background(), "l1", "owner", domain.ListingPatch{ClearPrice: true})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	f.repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestUpdateListing_PriceAndClearPriceRejected(t *testing.T) {
	f := newListingFixture()

	_, err := f.uc.UpdateListing(context.Background(), "l1", "owner", domain.ListingPatch{Price: price(50), ClearPrice: true})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	f.repo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	f.repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestUpdateListing_ForbiddenForOtherUser(t *testing.T) {
	f := newListingFixture()
	f.repo.On("FindByID", mock.Anything, "l1").Return(&domain.Listing{ID: "l1", OwnerID: "owner", Active: true}, nil).Once()

	title := "Mine now"
	_, err := f.uc.UpdateListing(context.Background(), "l1", "intruder", domain.ListingPatch{Title: &title})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestDeleteListing_SoftDeletes(t *testing.T) {
	f := newListingFixture()
	existing := &domain.Listing{ID: "l1", OwnerID: "owner", CategoryID: "c", Title: "Lamp", Kind: domain.KindExchange, Active: true}
	f.repo.On("FindByID", mock.Anything, "l1").Return(existing, nil).Once()
	f.repo.On("Update", mock.Anything, mock.MatchedBy(func(l *domain.Listing) bool {
		return l.Deleted && !l.Active
	})).Return(nil).Once()
	f.cache.On("DeleteListing", mock.Anything, "l1").Return(nil).Once()
	f.publisher.On("Publish", mock.Anything, domain.SubjectListingDeleted, mock.Anything).Return(nil).Once()

	require.NoError(t, f.uc.DeleteListing(context.Background(), "l1", "owner"))
	assert.Equal(t, 1, f.metrics.deleted)
	f.repo.AssertExpectations(t)
}

func TestDeleteListing_AlreadyDeletedIsNotFound(t *testing.T) {
	f := newListingFixture()
	f.repo.On("FindByID", mock.Anything, "l1").Return(&domain.Listing{ID: "l1", OwnerID: "owner", Deleted: true}, nil).Once()

	err := f.uc.DeleteListing(context.Background(), "l1", "owner")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSetListingActive_Toggle(t *testing.T) {
	f := newListingFixture()
	existing := &domain.Listing{ID: "l1", OwnerID: "owner", CategoryID: "c", Title: "Lamp", Kind: domain.KindExchange, Active: true}
	f.repo.On("FindByID", mock.Anything, "l1").Return(existing, nil).Once()
	f.repo.On("Update", mock.Anything, existing).Return(nil).Once()
	f.cache.On("DeleteListing", mock.Anything, "l1").Return(nil).Once()
	f.publisher.On("Publish", mock.Anything, domain.SubjectListingUpdated, mock.Anything).Return(nil).Once()

	l, err := f.uc.SetListingActive(context.Background(), "l1", "owner", false)
	require.NoError(t, err)
	assert.False(t, l.Active)
}

func TestGetListing_CacheHit(t *testing.T) {
	f := newListingFixture()
	cached := &domain.Listing{ID: "l1", Title: "cached"}
	f.cache.On("GetListing", mock.Anything, "l1").Return(cached, nil).Once()

	l, err := f.uc.GetListing(context.Background(), "l1")
	require.NoError(t, err)
	assert.Same(t, cached, l)
	f.repo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestGetListing_MissFillsCache(t *testing.T) {
	f := newListingFixture()
	stored := &domain.Listing{ID: "l1", Active: true}
	f.cache.On("GetListing", mock.Anything, "l1").Return(nil, nil).Once()
	f.repo.On("FindByID", mock.Anything, "l1").Return(stored, nil).Once()
	f.cache.On("SetListing", mock.Anything, stored).Return(nil).Once()

	l, err := f.uc.GetListing(context.Background(), "l1")
	require.NoError(t, err)
	assert.Equal(t, "l1", l.ID)
	f.cache.AssertExpectations(t)
}

func TestGetListing_SoftDeletedIsNotFound(t *testing.T) {
	f := newListingFixture()
	f.cache.On("GetListing", mock.Anything, "l1").Return(nil, errors.New("redis down")).Once()
	f.repo.On("FindByID", mock.Anything, "l1").Return(&domain.Listing{ID: "l1", Deleted: true}, nil).Once()

	_, err := f.uc.GetListing(context.Background(), "l1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	f.cache.AssertNotCalled(t, "SetListing", mock.Anything, mock.Anything)
}
