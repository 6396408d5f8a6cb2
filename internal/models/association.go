package models

import "database/sql"

// ProductAssociation links a retailer product with a competitor product.
// Rows where either side is NULL are ignored by the pricing pipeline.
type ProductAssociation struct {
	ID                  int64         `db:"id" json:"id"`
	RetailerProductID   sql.NullInt64 `db:"retailer_product_id" json:"-"`
	CompetitorProductID sql.NullInt64 `db:"competitor_product_id" json:"-"`
}

// Complete reports whether both ends of the association are set.
func (a ProductAssociation) Complete() bool {
	return a.RetailerProductID.Valid && a.CompetitorProductID.Valid
}
