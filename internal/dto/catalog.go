package dto

import "time"

// CategoryRequest is the body of category create and update calls. Image may
// be a URL, a data URI or raw base64; omit it to keep the current picture.
type CategoryRequest struct {
	Name        string  `json:"name"`
	Slug        string  `json:"slug"`
	Description string  `json:"description"`
	Image       *string `json:"image"`
	IsActive    *bool   `json:"is_active"`
	SortOrder   int     `json:"sort_order"`
}

// CategoryResponse represents a category.
type CategoryResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url,omitempty"`
	ImageSrc    string    `json:"image_src"`
	IsActive    bool      `json:"is_active"`
	SortOrder   int       `json:"sort_order"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProductRequest is the body of product create and update calls.
type ProductRequest struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Price         float64  `json:"price"`
	OriginalPrice *float64 `json:"original_price"`
	Category      string   `json:"category"`
	Image         *string  `json:"image"`
	Stock         int      `json:"stock"`
	IsActive      *bool    `json:"is_active"`
	IsFeatured    bool     `json:"is_featured"`
}

// StockAdjustmentRequest is the body of PATCH /products/:id/stock.
type StockAdjustmentRequest struct {
	Delta int `json:"delta"`
}

// ProductResponse represents a product.
type ProductResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Price         float64   `json:"price"`
	OriginalPrice *float64  `json:"original_price,omitempty"`
	Category      string    `json:"category"`
	ImageURL      string    `json:"image_url,omitempty"`
	ImageSrc      string    `json:"image_src"`
	Stock         int       `json:"stock"`
	LowStock      bool      `json:"low_stock"`
	IsActive      bool      `json:"is_active"`
	IsFeatured    bool      `json:"is_featured"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
