package models

import "github.com/shopspring/decimal"

// RetailerProduct is an item of the retailer's own catalog.
// Price is the current catalog price; zero means the catalog has no price.
type RetailerProduct struct {
	ID          int64           `db:"id" json:"productId"`
	Store       string          `db:"store" json:"store"`
	SKU         string          `db:"sku" json:"sku"`
	Name        string          `db:"name" json:"name"`
	Brand       string          `db:"brand" json:"brand"`
	Category    string          `db:"category" json:"category"`
	CategoryL2  string          `db:"category_l2" json:"categoryL2"`
	CategoryL3  string          `db:"category_l3" json:"categoryL3"`
	Price       decimal.Decimal `db:"price" json:"catalogPrice"`
	URL         string          `db:"url" json:"url"`
	ImageURL    string          `db:"image_url" json:"imageUrl"`
	Marketplace string          `db:"marketplace" json:"marketplace"`
}
