package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// Category groups products in the storefront catalogue.
type Category struct {
	bun.BaseModel `bun:"table:categories"`

	ID          string    `bun:"id,pk"`
	Name        string    `bun:"name,notnull"`
	Slug        string    `bun:"slug,notnull"`
	Description string    `bun:"description"`
	ImageURL    string    `bun:"image_url"`
	ImageData   string    `bun:"image_data"`
	IsActive    bool      `bun:"is_active,notnull"`
	SortOrder   int       `bun:"sort_order,notnull"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time `bun:"updated_at,nullzero"`
}
