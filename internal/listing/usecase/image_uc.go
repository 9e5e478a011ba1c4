package usecase

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/amirrudd/flyerboard/internal/listing/domain"
	"github.com/amirrudd/flyerboard/internal/platform/logger"
	"go.uber.org/zap"
)

// MaxImageSize bounds a single upload.
const MaxImageSize = 5 << 20

var allowedImageExt = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".gif": true}

// ImageUsecase stores listing photos and turns stored references into displayable URLs.
type ImageUsecase struct {
	storage  domain.ImageStorage
	listings *ListingUsecase
	expiry   time.Duration
	logger   *logger.Logger
}

func NewImageUsecase(storage domain.ImageStorage, listings *ListingUsecase, expiry time.Duration, log *logger.Logger) *ImageUsecase {
	if expiry <= 0 {
		expiry = time.Hour
	}
	return &ImageUsecase{
		storage:  storage,
		listings: listings,
		expiry:   expiry,
		logger:   log.Named("ImageUsecase"),
	}
}

// AttachImage stores the file and appends its storage key to the listing.
func (uc *ImageUsecase) AttachImage(ctx context.Context, listingID, actorID, fileName string, data []byte) (*domain.Listing, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty image", domain.ErrInvalidInput)
	}
	if len(data) > MaxImageSize {
		return nil, fmt.Errorf("%w: image exceeds %d bytes", domain.ErrInvalidInput, MaxImageSize)
	}
	if !allowedImageExt[strings.ToLower(filepath.Ext(fileName))] {
		return nil, fmt.Errorf("%w: unsupported image type %q", domain.ErrInvalidInput, filepath.Ext(fileName))
	}
	if uc.storage == nil {
		return nil, fmt.Errorf("image storage is not configured")
	}
	if _, err := uc.listings.ownedLive(ctx, listingID, actorID); err != nil {
		return nil, err
	}

	key, err := uc.storage.Upload(ctx, fileName, data)
	if err != nil {
		uc.logger.Error("Image upload failed", zap.String("listing_id", listingID), zap.Error(err))
		return nil, err
	}
	return uc.listings.AppendImage(ctx, listingID, actorID, key)
}

// ResolveImages maps every reference to a URL a client can render, keeping
// order and length. URLs and inline data pass through; storage keys are
// presigned. A key that cannot be signed resolves to "".
func (uc *ImageUsecase) ResolveImages(ctx context.Context, refs []string) []string {
	out := make([]string, len(refs))
	for i, raw := range refs {
		ref := domain.ParseImageRef(raw)
		if ref.Kind != domain.ImageRefStorageKey {
			out[i] = ref.Value
			continue
		}
		if uc.storage == nil || ref.Value == "" {
			continue
		}
		url, err := uc.storage.PresignedURL(ctx, ref.Value, uc.expiry)
		if err != nil {
			uc.logger.Warn("Failed to presign image", zap.String("key", ref.Value), zap.Error(err))
			continue
		}
		out[i] = url
	}
	return out
}
