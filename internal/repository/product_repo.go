package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-catalog-api/internal/model"
)

const productColumns = `id, name, price, stock, image_url, category_id, created_at, updated_at, deleted_at`

type ProductRepository struct {
	pool *pgxpool.Pool
}

func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// buildProductFilters translates the filter set into WHERE conditions with
// positional parameters, skipping unset fields.
func buildProductFilters(filters model.ProductFilters) ([]string, []any) {
	conditions := []string{}
	values := []any{}

	if !filters.IncludeDeleted {
		conditions = append(conditions, "deleted_at IS NULL")
	}
	if name := strings.TrimSpace(filters.Name); name != "" {
		values = append(values, "%"+name+"%")
		conditions = append(conditions, "name ILIKE $"+strconv.Itoa(len(values)))
	}
	if filters.Price != nil {
		values = append(values, *filters.Price)
		conditions = append(conditions, "price = $"+strconv.Itoa(len(values)))
	}
	if filters.Stock != nil {
		values = append(values, *filters.Stock)
		conditions = append(conditions, "stock = $"+strconv.Itoa(len(values)))
	}
	if filters.CategoryID != nil {
		values = append(values, *filters.CategoryID)
		conditions = append(conditions, "category_id = $"+strconv.Itoa(len(values)))
	}

	return conditions, values
}

func (r *ProductRepository) List(ctx context.Context, filters model.ProductFilters, page int, limit int) ([]model.Product, int, error) {
	conditions, values := buildProductFilters(filters)

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products`+where, values...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	offset := (page - 1) * limit
	values = append(values, limit, offset)
	query := `SELECT ` + productColumns + ` FROM products` + where +
		` ORDER BY id ASC LIMIT $` + strconv.Itoa(len(values)-1) + ` OFFSET $` + strconv.Itoa(len(values))

	rows, err := r.pool.Query(ctx, query, values...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products, err := scanProducts(rows)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (r *ProductRepository) FindByID(ctx context.Context, id int64) (model.Product, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)

	product, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Product{}, model.ErrProductNotFound
	}
	if err != nil {
		return model.Product{}, fmt.Errorf("find product by id: %w", err)
	}
	return product, nil
}

func (r *ProductRepository) Create(ctx context.Context, req model.CreateProductRequest) (model.Product, error) {
	categoryID := model.UncategorizedCategoryID
	if req.CategoryID != nil {
		categoryID = *req.CategoryID
	}

	now := time.Now().UTC()
	row := r.pool.QueryRow(ctx,
		`INSERT INTO products (name, price, stock, image_url, category_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $6)
		 RETURNING `+productColumns,
		req.Name, *req.Price, *req.Stock, req.ImageURL, categoryID, now)

	product, err := scanProduct(row)
	if err != nil {
		return model.Product{}, fmt.Errorf("create product: %w", err)
	}
	return product, nil
}

func (r *ProductRepository) Update(ctx context.Context, id int64, req model.UpdateProductRequest) (model.Product, error) {
	sets := []string{}
	values := []any{}

	appendSet := func(column string, value any) {
		values = append(values, value)
		sets = append(sets, column+" = $"+strconv.Itoa(len(values)))
	}

	if req.Name != nil {
		appendSet("name", strings.TrimSpace(*req.Name))
	}
	if req.Price != nil {
		appendSet("price", *req.Price)
	}
	if req.Stock != nil {
		appendSet("stock", *req.Stock)
	}
	if req.ImageURL != nil {
		appendSet("image_url", *req.ImageURL)
	}
	if req.CategoryID != nil {
		appendSet("category_id", *req.CategoryID)
	}
	appendSet("updated_at", time.Now().UTC())

	values = append(values, id)
	query := `UPDATE products SET ` + strings.Join(sets, ", ") +
		` WHERE id = $` + strconv.Itoa(len(values)) + ` AND deleted_at IS NULL RETURNING ` + productColumns

	product, err := scanProduct(r.pool.QueryRow(ctx, query, values...))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Product{}, model.ErrProductNotFound
	}
	if err != nil {
		return model.Product{}, fmt.Errorf("update product: %w", err)
	}
	return product, nil
}

func (r *ProductRepository) SoftDelete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE products SET deleted_at = now(), updated_at = now()
		 WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("soft delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrProductNotFound
	}
	return nil
}

func scanProduct(row pgx.Row) (model.Product, error) {
	var p model.Product
	err := row.Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.ImageURL, &p.CategoryID,
		&p.CreatedAt, &p.UpdatedAt, &p.DeletedAt)
	return p, err
}

func scanProducts(rows pgx.Rows) ([]model.Product, error) {
	products := make([]model.Product, 0)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, product)
	}
	return products, rows.Err()
}
