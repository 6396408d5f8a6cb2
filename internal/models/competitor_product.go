package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CompetitorProduct is an item listed by an external store.
type CompetitorProduct struct {
	ID          int64               `db:"id" json:"id"`
	Store       string              `db:"store" json:"store"`
	SKU         string              `db:"sku" json:"sku"`
	Name        string              `db:"name" json:"name"`
	Brand       string              `db:"brand" json:"brand"`
	Price       decimal.NullDecimal `db:"price" json:"price"`
	URL         string              `db:"url" json:"url"`
	ImageURL    string              `db:"image_url" json:"imageUrl"`
	Marketplace string              `db:"marketplace" json:"marketplace"`
	Stock       *int                `db:"stock" json:"stock,omitempty"`
	IsActive    *bool               `db:"is_active" json:"isActive"`
	UpdatedAt   *time.Time          `db:"updated_at" json:"updatedAt,omitempty"`
}

// Active reports whether the listing is active. A missing flag counts as active.
func (p CompetitorProduct) Active() bool {
	return p.IsActive == nil || *p.IsActive
}
