package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"go-catalog-api/internal/model"
	"go-catalog-api/pkg/apierror"
)

type stubCategoryStore struct {
	deactivated map[int64]bool
	deleted     []int64
}

func (s *stubCategoryStore) List(_ context.Context, _ bool, _ int, _ int) ([]model.Category, int, error) {
	return nil, 0, nil
}

func (s *stubCategoryStore) FindByID(_ context.Context, id int64) (model.Category, error) {
	if _, ok := s.deactivated[id]; !ok {
		return model.Category{}, model.ErrCategoryNotFound
	}
	return model.Category{ID: id, Name: "cat"}, nil
}

func (s *stubCategoryStore) Create(_ context.Context, name string, _ string) (int64, error) {
	return 2, nil
}

func (s *stubCategoryStore) Update(_ context.Context, id int64, name string, description string) (model.Category, error) {
	if _, ok := s.deactivated[id]; !ok {
		return model.Category{}, model.ErrCategoryNotFound
	}
	return model.Category{ID: id, Name: name, Description: description}, nil
}

func (s *stubCategoryStore) Deactivate(_ context.Context, id int64) error {
	if _, ok := s.deactivated[id]; !ok {
		return model.ErrCategoryNotFound
	}
	s.deactivated[id] = true
	return nil
}

func (s *stubCategoryStore) Reactivate(_ context.Context, id int64) error {
	if _, ok := s.deactivated[id]; !ok {
		return model.ErrCategoryNotFound
	}
	s.deactivated[id] = false
	return nil
}

func (s *stubCategoryStore) DeleteDeactivated(_ context.Context, id int64) error {
	soft, ok := s.deactivated[id]
	if !ok || !soft {
		return model.ErrCategoryNotDeactivated
	}
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *stubCategoryStore) ProductsByCategory(_ context.Context, _ int64, _ bool, _ int, _ int) ([]model.Product, int, error) {
	return nil, 0, nil
}

func TestCategoryService_DeleteProtectsUncategorized(t *testing.T) {
	t.Parallel()

	store := &stubCategoryStore{deactivated: map[int64]bool{1: true}}
	svc := NewCategoryService(store)

	err := svc.Delete(context.Background(), model.UncategorizedCategoryID)
	var apiErr *apierror.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, 400, apiErr.HTTPStatus)
	require.Empty(t, store.deleted)
}

func TestCategoryService_DeleteRequiresDeactivation(t *testing.T) {
	t.Parallel()

	store := &stubCategoryStore{deactivated: map[int64]bool{2: false, 3: true}}
	svc := NewCategoryService(store)
	ctx := context.Background()

	// Still active: refuse the hard delete.
	err := svc.Delete(ctx, 2)
	var apiErr *apierror.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "Category not found or not deactivated", apiErr.Message)

	require.NoError(t, svc.Delete(ctx, 3))
	require.Equal(t, []int64{3}, store.deleted)
}

func TestCategoryService_CreateRequiresName(t *testing.T) {
	t.Parallel()

	svc := NewCategoryService(&stubCategoryStore{})
	ctx := context.Background()

	_, err := svc.Create(ctx, model.CategoryRequest{Name: "   "})
	var apiErr *apierror.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, 400, apiErr.HTTPStatus)

	categoryID, err := svc.Create(ctx, model.CategoryRequest{Name: "Books"})
	require.NoError(t, err)
	require.Equal(t, int64(2), categoryID)
}

func TestCategoryService_NotFoundMapping(t *testing.T) {
	t.Parallel()

	svc := NewCategoryService(&stubCategoryStore{deactivated: map[int64]bool{}})
	ctx := context.Background()

	_, err := svc.GetByID(ctx, 9)
	var apiErr *apierror.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, 404, apiErr.HTTPStatus)

	require.Error(t, svc.Deactivate(ctx, 9))
	require.Error(t, svc.Reactivate(ctx, 9))
}
