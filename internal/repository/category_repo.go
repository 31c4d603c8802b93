package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-catalog-api/internal/model"
)

const categoryColumns = `id, name, description, created_at, updated_at, deleted_at`

type CategoryRepository struct {
	pool     *pgxpool.Pool
	products *ProductRepository
}

func NewCategoryRepository(pool *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{pool: pool, products: NewProductRepository(pool)}
}

func (r *CategoryRepository) List(ctx context.Context, includeDeleted bool, page int, limit int) ([]model.Category, int, error) {
	where := " WHERE deleted_at IS NULL"
	if includeDeleted {
		where = ""
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM categories`+where).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count categories: %w", err)
	}

	offset := (page - 1) * limit
	rows, err := r.pool.Query(ctx,
		`SELECT `+categoryColumns+` FROM categories`+where+` ORDER BY id ASC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := make([]model.Category, 0)
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt, &c.DeletedAt); err != nil {
			return nil, 0, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, total, rows.Err()
}

func (r *CategoryRepository) FindByID(ctx context.Context, id int64) (model.Category, error) {
	var c model.Category
	err := r.pool.QueryRow(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt, &c.DeletedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.Category{}, model.ErrCategoryNotFound
	}
	if err != nil {
		return model.Category{}, fmt.Errorf("find category by id: %w", err)
	}
	return c, nil
}

func (r *CategoryRepository) Create(ctx context.Context, name string, description string) (int64, error) {
	now := time.Now().UTC()

	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO categories (name, description, created_at, updated_at)
		 VALUES ($1, $2, $3, $3) RETURNING id`,
		name, description, now).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create category: %w", err)
	}
	return id, nil
}

func (r *CategoryRepository) Update(ctx context.Context, id int64, name string, description string) (model.Category, error) {
	var c model.Category
	err := r.pool.QueryRow(ctx,
		`UPDATE categories SET name = $2, description = $3, updated_at = now()
		 WHERE id = $1 AND deleted_at IS NULL
		 RETURNING `+categoryColumns,
		id, name, description).
		Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt, &c.DeletedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.Category{}, model.ErrCategoryNotFound
	}
	if err != nil {
		return model.Category{}, fmt.Errorf("update category: %w", err)
	}
	return c, nil
}

func (r *CategoryRepository) Deactivate(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE categories SET deleted_at = now(), updated_at = now()
		 WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("deactivate category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrCategoryNotFound
	}
	return nil
}

func (r *CategoryRepository) Reactivate(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE categories SET deleted_at = NULL, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("reactivate category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrCategoryNotFound
	}
	return nil
}

// DeleteDeactivated removes a soft-deleted category and reassigns its products
// to the Uncategorized category. Both statements run in one transaction so a
// failed reassignment never leaves orphaned products.
func (r *CategoryRepository) DeleteDeactivated(ctx context.Context, id int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin category delete: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`UPDATE products SET category_id = $2, updated_at = now() WHERE category_id = $1`,
		id, model.UncategorizedCategoryID)
	if err != nil {
		return fmt.Errorf("reassign products: %w", err)
	}

	tag, err := tx.Exec(ctx,
		`DELETE FROM categories WHERE id = $1 AND deleted_at IS NOT NULL`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrCategoryNotDeactivated
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit category delete: %w", err)
	}
	return nil
}

func (r *CategoryRepository) ProductsByCategory(ctx context.Context, categoryID int64, includeDeleted bool, page int, limit int) ([]model.Product, int, error) {
	filters := model.ProductFilters{CategoryID: &categoryID, IncludeDeleted: includeDeleted}
	return r.products.List(ctx, filters, page, limit)
}
