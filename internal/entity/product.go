package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// DefaultLowStockThreshold is the stock level under which an active product is low on stock.
const DefaultLowStockThreshold = 10

// Product is a sellable catalogue item.
type Product struct {
	bun.BaseModel `bun:"table:products"`

	ID            string    `bun:"id,pk"`
	Name          string    `bun:"name,notnull"`
	Description   string    `bun:"description"`
	Price         float64   `bun:"price,notnull"`
	OriginalPrice *float64  `bun:"original_price"`
	Category      string    `bun:"category"`
	ImageURL      string    `bun:"image_url"`
	ImageData     string    `bun:"image_data"`
	Stock         int       `bun:"stock,notnull"`
	IsActive      bool      `bun:"is_active,notnull"`
	IsFeatured    bool      `bun:"is_featured,notnull"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt     time.Time `bun:"updated_at,nullzero"`
}

// IsLowStock reports whether the product is active and under the threshold.
func (p Product) IsLowStock(threshold int) bool {
	if threshold <= 0 {
		threshold = DefaultLowStockThreshold
	}
	return p.IsActive && p.Stock < threshold
}
