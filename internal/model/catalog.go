package model

import "time"

type Product struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	Price      float64    `json:"price"`
	Stock      int        `json:"stock"`
	ImageURL   *string    `json:"image_url"`
	CategoryID int64      `json:"category_id"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty"`
}

type Category struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

// UncategorizedCategoryID is seeded by the initial migration. Products of a
// hard-deleted category are reassigned to it, and it can never be deleted.
const UncategorizedCategoryID int64 = 1

// ProductFilters narrows a product listing. Nil/empty fields are skipped.
type ProductFilters struct {
	Name           string
	Price          *float64
	Stock          *int
	CategoryID     *int64
	IncludeDeleted bool
}
