package usecase

import (
	"context"
	"strings"

	"github.com/amirrudd/flyerboard/internal/listing/domain"
	"github.com/amirrudd/flyerboard/internal/platform/logger"
	"go.uber.org/zap"
)

type CategoryUsecase struct {
	repo   domain.CategoryRepository
	logger *logger.Logger
}

func NewCategoryUsecase(repo domain.CategoryRepository, log *logger.Logger) *CategoryUsecase {
	return &CategoryUsecase{repo: repo, logger: log.Named("CategoryUsecase")}
}

func (uc *CategoryUsecase) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	return uc.repo.List(ctx)
}

func (uc *CategoryUsecase) GetCategoryBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	return uc.repo.FindBySlug(ctx, strings.ToLower(strings.TrimSpace(slug)))
}

func (uc *CategoryUsecase) CreateCategory(ctx context.Context, c *domain.Category) error {
	c.Name = strings.TrimSpace(c.Name)
	c.Slug = strings.ToLower(strings.TrimSpace(c.Slug))
	if err := c.Validate(); err != nil {
		return err
	}
	if c.ParentID != "" {
		if _, err := uc.repo.FindByID(ctx, c.ParentID); err != nil {
			return err
		}
	}
	if err := uc.repo.Create(ctx, c); err != nil {
		uc.logger.Warn("Failed to create category", zap.String("slug", c.Slug), zap.Error(err))
		return err
	}
	uc.logger.Info("Category created", zap.String("id", c.ID), zap.String("slug", c.Slug))
	return nil
}
