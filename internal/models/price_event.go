package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceOrigin tells which catalog a price observation belongs to.
type PriceOrigin string

const (
	PriceOriginRetailer   PriceOrigin = "retailer"
	PriceOriginCompetitor PriceOrigin = "competitor"
)

// PriceEvent is a single historical price observation.
type PriceEvent struct {
	ID            int64               `db:"id" json:"id"`
	ProductID     int64               `db:"product_id" json:"productId"`
	Origin        PriceOrigin         `db:"origin" json:"origin"`
	Store         string              `db:"store" json:"store"`
	Price         decimal.Decimal     `db:"price" json:"price"`
	PreviousPrice decimal.NullDecimal `db:"previous_price" json:"previousPrice"`
	ChangedAt     time.Time           `db:"changed_at" json:"changedAt"`
}
