package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/amirrudd/flyerboard/internal/listing/domain"
)

const maxLocationLength = 120

// PreferenceUsecase keeps the per-user location filter across sessions.
type PreferenceUsecase struct {
	store domain.PreferenceStore
}

func NewPreferenceUsecase(store domain.PreferenceStore) *PreferenceUsecase {
	return &PreferenceUsecase{store: store}
}

func (uc *PreferenceUsecase) GetLocation(ctx context.Context, subject string) (string, error) {
	if subject == "" {
		return "", fmt.Errorf("%w: subject is required", domain.ErrInvalidInput)
	}
	return uc.store.GetLocation(ctx, subject)
}

// SetLocation persists the location; an empty value clears it.
func (uc *PreferenceUsecase) SetLocation(ctx context.Context, subject, location string) error {
	if subject == "" {
		return fmt.Errorf("%w: subject is required", domain.ErrInvalidInput)
	}
	location = strings.TrimSpace(location)
	if len(location) > maxLocationLength {
		return fmt.Errorf("%w: location is too long", domain.ErrInvalidInput)
	}
	return uc.store.SetLocation(ctx, subject, location)
}
