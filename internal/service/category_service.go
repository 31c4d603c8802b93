package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go-catalog-api/internal/model"
	"go-catalog-api/pkg/apierror"
)

type categoryStore interface {
	List(ctx context.Context, includeDeleted bool, page int, limit int) ([]model.Category, int, error)
	FindByID(ctx context.Context, id int64) (model.Category, error)
	Create(ctx context.Context, name string, description string) (int64, error)
	Update(ctx context.Context, id int64, name string, description string) (model.Category, error)
	Deactivate(ctx context.Context, id int64) error
	Reactivate(ctx context.Context, id int64) error
	// DeleteDeactivated hard-deletes a deactivated category and reassigns its
	// products to the Uncategorized category in one transaction.
	DeleteDeactivated(ctx context.Context, id int64) error
	ProductsByCategory(ctx context.Context, categoryID int64, includeDeleted bool, page int, limit int) ([]model.Product, int, error)
}

type CategoryService struct {
	categories categoryStore
}

func NewCategoryService(categories categoryStore) *CategoryService {
	return &CategoryService{categories: categories}
}

func (s *CategoryService) List(ctx context.Context, includeDeleted bool, page int, limit int) ([]model.Category, *model.Meta, error) {
	page, limit = clampPage(page, limit)

	categories, total, err := s.categories.List(ctx, includeDeleted, page, limit)
	if err != nil {
		return nil, nil, fmt.Errorf("list categories: %w", err)
	}

	return categories, pageMeta(page, limit, total), nil
}

func (s *CategoryService) GetByID(ctx context.Context, id int64) (model.Category, error) {
	category, err := s.categories.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrCategoryNotFound) {
			return model.Category{}, apierror.NotFound("Category not found", "")
		}
		return model.Category{}, fmt.Errorf("get category: %w", err)
	}

	return category, nil
}

func (s *CategoryService) ProductsByCategory(ctx context.Context, categoryID int64, includeDeleted bool, page int, limit int, baseURL string) ([]model.Product, *model.Meta, error) {
	page, limit = clampPage(page, limit)

	products, total, err := s.categories.ProductsByCategory(ctx, categoryID, includeDeleted, page, limit)
	if err != nil {
		return nil, nil, fmt.Errorf("list category products: %w", err)
	}

	for i := range products {
		rewriteImageURL(&products[i], baseURL)
	}

	return products, pageMeta(page, limit, total), nil
}

func (s *CategoryService) Create(ctx context.Context, req model.CategoryRequest) (int64, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return 0, apierror.BadRequest("Missing required fields: name", "")
	}

	categoryID, err := s.categories.Create(ctx, req.Name, req.Description)
	if err != nil {
		return 0, fmt.Errorf("create category: %w", err)
	}

	return categoryID, nil
}

func (s *CategoryService) Update(ctx context.Context, id int64, req model.CategoryRequest) (model.Category, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return model.Category{}, apierror.BadRequest("Missing required fields: name", "")
	}

	category, err := s.categories.Update(ctx, id, req.Name, req.Description)
	if err != nil {
		if errors.Is(err, model.ErrCategoryNotFound) {
			return model.Category{}, apierror.NotFound("Category not found", "")
		}
		return model.Category{}, fmt.Errorf("update category: %w", err)
	}

	return category, nil
}

// Deactivate soft-deletes a category; its products stay attached.
func (s *CategoryService) Deactivate(ctx context.Context, id int64) error {
	if err := s.categories.Deactivate(ctx, id); err != nil {
		if errors.Is(err, model.ErrCategoryNotFound) {
			return apierror.NotFound("Category not found", "")
		}
		return fmt.Errorf("deactivate category: %w", err)
	}

	return nil
}

func (s *CategoryService) Reactivate(ctx context.Context, id int64) error {
	if err := s.categories.Reactivate(ctx, id); err != nil {
		if errors.Is(err, model.ErrCategoryNotFound) {
			return apierror.NotFound("Category not found", "")
		}
		return fmt.Errorf("reactivate category: %w", err)
	}

	return nil
}

// Delete removes a deactivated category for good and moves its products to the
// Uncategorized category. The Uncategorized category itself is protected.
func (s *CategoryService) Delete(ctx context.Context, id int64) error {
	if id == model.UncategorizedCategoryID {
		return apierror.BadRequest("The 'Uncategorized' category cannot be deleted", "")
	}

	err := s.categories.DeleteDeactivated(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrCategoryNotFound) || errors.Is(err, model.ErrCategoryNotDeactivated) {
			return apierror.NotFound("Category not found or not deactivated", "")
		}
		return fmt.Errorf("delete category: %w", err)
	}

	return nil
}
