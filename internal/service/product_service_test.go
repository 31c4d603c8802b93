package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"go-catalog-api/internal/model"
	"go-catalog-api/pkg/apierror"
)

type stubProductStore struct {
	lastFilters model.ProductFilters
	lastPage    int
	lastLimit   int
	listResult  []model.Product
	listTotal   int
	byID        map[int64]model.Product
}

func (s *stubProductStore) List(_ context.Context, filters model.ProductFilters, page int, limit int) ([]model.Product, int, error) {
	s.lastFilters = filters
	s.lastPage = page
	s.lastLimit = limit
	return s.listResult, s.listTotal, nil
}

func (s *stubProductStore) FindByID(_ context.Context, id int64) (model.Product, error) {
	p, ok := s.byID[id]
	if !ok {
		return model.Product{}, model.ErrProductNotFound
	}
	return p, nil
}

func (s *stubProductStore) Create(_ context.Context, req model.CreateProductRequest) (model.Product, error) {
	return model.Product{ID: 1, Name: req.Name, Price: *req.Price, Stock: *req.Stock, ImageURL: req.ImageURL}, nil
}

func (s *stubProductStore) Update(_ context.Context, id int64, req model.UpdateProductRequest) (model.Product, error) {
	p, ok := s.byID[id]
	if !ok {
		return model.Product{}, model.ErrProductNotFound
	}
	if req.Name != nil {
		p.Name = *req.Name
	}
	return p, nil
}

func (s *stubProductStore) SoftDelete(_ context.Context, id int64) error {
	if _, ok := s.byID[id]; !ok {
		return model.ErrProductNotFound
	}
	delete(s.byID, id)
	return nil
}

func strPtr(s string) *string   { return &s }
func f64Ptr(f float64) *float64 { return &f }
func intPtr(i int) *int         { return &i }

func TestProductService_ListClampsPagination(t *testing.T) {
	t.Parallel()

	store := &stubProductStore{listTotal: 250}
	svc := NewProductService(store)
	ctx := context.Background()

	_, meta, err := svc.List(ctx, model.ProductFilters{}, 0, 0, "")
	require.NoError(t, err)
	require.Equal(t, 1, store.lastPage)
	require.Equal(t, 10, store.lastLimit)
	require.Equal(t, 25, meta.TotalPages)

	_, meta, err = svc.List(ctx, model.ProductFilters{}, 3, 1000, "")
	require.NoError(t, err)
	require.Equal(t, 3, store.lastPage)
	require.Equal(t, 100, store.lastLimit)
	require.Equal(t, 3, meta.TotalPages)
	require.Equal(t, 250, meta.Total)
}

func TestProductService_ListRewritesImageURLs(t *testing.T) {
	t.Parallel()

	absolute := "https://cdn.example.com/img/b.png"
	store := &stubProductStore{
		listResult: []model.Product{
			{ID: 1, Name: "a", ImageURL: strPtr("/static/img/a.png")},
			{ID: 2, Name: "b", ImageURL: &absolute},
			{ID: 3, Name: "c"},
		},
		listTotal: 3,
	}
	svc := NewProductService(store)

	products, _, err := svc.List(context.Background(), model.ProductFilters{}, 1, 10, "http://shop.example.com")
	require.NoError(t, err)
	require.Equal(t, "http://shop.example.com/static/img/a.png", *products[0].ImageURL)
	require.Equal(t, absolute, *products[1].ImageURL)
	require.Nil(t, products[2].ImageURL)
}

func TestProductService_GetByIDNotFound(t *testing.T) {
	t.Parallel()

	svc := NewProductService(&stubProductStore{byID: map[int64]model.Product{}})

	_, err := svc.GetByID(context.Background(), 99, "")
	var apiErr *apierror.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "Product not found", apiErr.Message)
	require.Equal(t, 404, apiErr.HTTPStatus)
}

func TestProductService_CreateValidation(t *testing.T) {
	t.Parallel()

	svc := NewProductService(&stubProductStore{})
	ctx := context.Background()

	cases := []struct {
		name string
		req  model.CreateProductRequest
	}{
		{"missing name", model.CreateProductRequest{Price: f64Ptr(10), Stock: intPtr(5)}},
		{"missing price", model.CreateProductRequest{Name: "Widget", Stock: intPtr(5)}},
		{"missing stock", model.CreateProductRequest{Name: "Widget", Price: f64Ptr(10)}},
		{"negative price", model.CreateProductRequest{Name: "Widget", Price: f64Ptr(-1), Stock: intPtr(5)}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tc.req, "")
			var apiErr *apierror.APIError
			require.ErrorAs(t, err, &apiErr)
			require.Equal(t, 400, apiErr.HTTPStatus)
		})
	}

	product, err := svc.Create(ctx, model.CreateProductRequest{Name: "Widget", Price: f64Ptr(9.99), Stock: intPtr(3)}, "")
	require.NoError(t, err)
	require.Equal(t, "Widget", product.Name)
}

func TestProductService_UpdateRequiresAField(t *testing.T) {
	t.Parallel()

	svc := NewProductService(&stubProductStore{byID: map[int64]model.Product{1: {ID: 1, Name: "old"}}})
	ctx := context.Background()

	_, err := svc.Update(ctx, 1, model.UpdateProductRequest{}, "")
	var apiErr *apierror.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, 400, apiErr.HTTPStatus)

	updated, err := svc.Update(ctx, 1, model.UpdateProductRequest{Name: strPtr("new")}, "")
	require.NoError(t, err)
	require.Equal(t, "new", updated.Name)
}

func TestProductService_DeleteNotFound(t *testing.T) {
	t.Parallel()

	store := &stubProductStore{byID: map[int64]model.Product{1: {ID: 1}}}
	svc := NewProductService(store)
	ctx := context.Background()

	require.NoError(t, svc.Delete(ctx, 1))

	// A second delete of the same product reports not found.
	err := svc.Delete(ctx, 1)
	var apiErr *apierror.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, 404, apiErr.HTTPStatus)
}
