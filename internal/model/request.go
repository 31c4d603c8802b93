package model

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Fullname string `json:"fullname"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterResponse struct {
	UserID int64 `json:"userId"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type CreateProductRequest struct {
	Name       string   `json:"name"`
	Price      *float64 `json:"price"`
	Stock      *int     `json:"stock"`
	ImageURL   *string  `json:"image_url"`
	CategoryID *int64   `json:"category_id"`
}

// UpdateProductRequest carries a partial update; nil fields are left untouched.
type UpdateProductRequest struct {
	Name       *string  `json:"name"`
	Price      *float64 `json:"price"`
	Stock      *int     `json:"stock"`
	ImageURL   *string  `json:"image_url"`
	CategoryID *int64   `json:"category_id"`
}

type CategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}
