package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go-catalog-api/internal/model"
	"go-catalog-api/pkg/apierror"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

type productStore interface {
	List(ctx context.Context, filters model.ProductFilters, page int, limit int) ([]model.Product, int, error)
	FindByID(ctx context.Context, id int64) (model.Product, error)
	Create(ctx context.Context, req model.CreateProductRequest) (model.Product, error)
	Update(ctx context.Context, id int64, req model.UpdateProductRequest) (model.Product, error)
	SoftDelete(ctx context.Context, id int64) error
}

type ProductService struct {
	products productStore
}

func NewProductService(products productStore) *ProductService {
	return &ProductService{products: products}
}

// List returns a page of products plus pagination metadata. Stored image
// paths are rewritten against baseURL so clients get absolute URLs.
func (s *ProductService) List(ctx context.Context, filters model.ProductFilters, page int, limit int, baseURL string) ([]model.Product, *model.Meta, error) {
	page, limit = clampPage(page, limit)

	products, total, err := s.products.List(ctx, filters, page, limit)
	if err != nil {
		return nil, nil, fmt.Errorf("list products: %w", err)
	}

	for i := range products {
		rewriteImageURL(&products[i], baseURL)
	}

	return products, pageMeta(page, limit, total), nil
}

func (s *ProductService) GetByID(ctx context.Context, id int64, baseURL string) (model.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrProductNotFound) {
			return model.Product{}, apierror.NotFound("Product not found", "")
		}
		return model.Product{}, fmt.Errorf("get product: %w", err)
	}

	rewriteImageURL(&product, baseURL)
	return product, nil
}

func (s *ProductService) Create(ctx context.Context, req model.CreateProductRequest, baseURL string) (model.Product, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.Price == nil || req.Stock == nil {
		return model.Product{}, apierror.BadRequest("Missing required fields: name, price, stock", "")
	}
	if *req.Price < 0 || *req.Stock < 0 {
		return model.Product{}, apierror.BadRequest("price and stock must not be negative", "")
	}

	product, err := s.products.Create(ctx, req)
	if err != nil {
		return model.Product{}, fmt.Errorf("create product: %w", err)
	}

	rewriteImageURL(&product, baseURL)
	return product, nil
}

func (s *ProductService) Update(ctx context.Context, id int64, req model.UpdateProductRequest, baseURL string) (model.Product, error) {
	if req.Name == nil && req.Price == nil && req.Stock == nil && req.ImageURL == nil && req.CategoryID == nil {
		return model.Product{}, apierror.BadRequest("no fields to update", "")
	}
	if req.Price != nil && *req.Price < 0 {
		return model.Product{}, apierror.BadRequest("price must not be negative", "")
	}
	if req.Stock != nil && *req.Stock < 0 {
		return model.Product{}, apierror.BadRequest("stock must not be negative", "")
	}

	product, err := s.products.Update(ctx, id, req)
	if err != nil {
		if errors.Is(err, model.ErrProductNotFound) {
			return model.Product{}, apierror.NotFound("Product not found", "")
		}
		return model.Product{}, fmt.Errorf("update product: %w", err)
	}

	rewriteImageURL(&product, baseURL)
	return product, nil
}

// Delete soft-deletes a product. Already deleted products report not found.
func (s *ProductService) Delete(ctx context.Context, id int64) error {
	if err := s.products.SoftDelete(ctx, id); err != nil {
		if errors.Is(err, model.ErrProductNotFound) {
			return apierror.NotFound("Product not found", "")
		}
		return fmt.Errorf("delete product: %w", err)
	}

	return nil
}

// rewriteImageURL prefixes a stored relative image path with the request's
// base URL. Absolute URLs are left alone.
func rewriteImageURL(p *model.Product, baseURL string) {
	if p.ImageURL == nil || baseURL == "" {
		return
	}

	path := *p.ImageURL
	if path == "" || strings.Contains(path, "://") {
		return
	}

	full := strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(path, "/")
	p.ImageURL = &full
}

func clampPage(page int, limit int) (int, int) {
	if page < 1 {
		page = defaultPage
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}

func pageMeta(page int, limit int, total int) *model.Meta {
	totalPages := 0
	if total > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return &model.Meta{Page: page, Limit: limit, Total: total, TotalPages: totalPages}
}
