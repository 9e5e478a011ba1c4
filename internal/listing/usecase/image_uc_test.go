package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/amirrudd/flyerboard/internal/listing/domain"
	"github.com/amirrudd/flyerboard/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestResolveImages_KeepsOrderAndLength(t *testing.T) {
	storage := new(MockImageStorage)
	storage.On("PresignedURL", mock.Anything, "listings/a.jpg", 15*time.Minute).Return("https://cdn/a.jpg?sig", nil).Once()
	storage.On("PresignedURL", mock.Anything, "listings/b.png", 15*time.Minute).Return("", errors.New("no such key")).Once()

	uc := NewImageUsecase(storage, nil, 15*time.Minute, logger.NewNop())
	got := uc.ResolveImages(context.Background(), []string{
		"https://example.com/x.jpg",
		"/listings/a.jpg",
		"data:image/png;base64,AAAA",
		"listings/b.png",
	})

	assert.Equal(t, []string{
		"https://example.com/x.jpg",
		"https://cdn/a.jpg?sig",
		"data:image/png;base64,AAAA",
		"",
	}, got)
	storage.AssertExpectations(t)
}

func TestResolveImages_Empty(t *testing.T) {
	uc := NewImageUsecase(nil, nil, 0, logger.NewNop())
	assert.Empty(t, uc.ResolveImages(context.Background(), nil))
}

func TestAttachImage_AppendsStorageKey(t *testing.T) {
	f := newListingFixture()
	storage := new(MockImageStorage)
	existing := &domain.Listing{ID: "l1", OwnerID: "owner", Images: []string{"https://old"}, Active: true}
	f.repo.On("FindByID", mock.Anything, "l1").Return(existing, nil).Twice()
	storage.On("Upload", mock.Anything, "front.JPG", []byte("img")).Return("listings/k.jpg", nil).Once()
	f.repo.On("Update", mock.Anything, existing).Return(nil).Once()
	f.cache.On("DeleteListing", mock.Anything, "l1").Return(nil).Once()

	uc := NewImageUsecase(storage, f.uc, time.Hour, logger.NewNop())
	l, err := uc.AttachImage(context.Background(), "l1", "owner", "front.JPG", []byte("img"))

	require.NoError(t, err)
	assert.Equal(t, []string{"https://old", "listings/k.jpg"}, l.Images)
}

func TestAttachImage_RejectsUnsupportedType(t *testing.T) {
	uc := NewImageUsecase(new(MockImageStorage), nil, time.Hour, logger.NewNop())
	_, err := uc.AttachImage(context.Background(), "l1", "owner", "virus.exe", []byte("x"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
