package pricingtest

import (
	"database/sql"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/GTDGit/pricing_api/internal/models"
)

// RetailerStore is the store tag used by fixtures for the retailer catalog.
const RetailerStore = "MIMBRAL"

// Price parses a decimal literal and panics on bad input.
func Price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// NullPrice returns a valid NullDecimal for s.
func NullPrice(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(Price(s))
}

// Retailer builds a retailer product in the fixture store.
func Retailer(id int64, sku, name, price string) models.RetailerProduct {
	return models.RetailerProduct{
		ID:       id,
		Store:    RetailerStore,
		SKU:      sku,
		Name:     name,
		Brand:    "ACME",
		Category: "Herramientas",
		Price:    Price(price),
	}
}

// Competitor builds an active competitor product with a catalog price.
func Competitor(id int64, store, price string) models.CompetitorProduct {
	cp := models.CompetitorProduct{ID: id, Store: store, SKU: store + "-SKU", Name: store + " item"}
	if price != "" {
		cp.Price = NullPrice(price)
	}
	return cp
}

// Link builds a complete association.
func Link(id, retailerID, competitorID int64) models.ProductAssociation {
	return models.ProductAssociation{
		ID:                  id,
		RetailerProductID:   sql.NullInt64{Int64: retailerID, Valid: true},
		CompetitorProductID: sql.NullInt64{Int64: competitorID, Valid: true},
	}
}

// Connect adds one competitor per store/price pair to c and links each of
// them to retailerID. IDs are allocated after the existing ones.
func (c *Catalog) Connect(retailerID int64, prices map[string]string) {
	next := int64(len(c.Competitors) + 1000)
	for _, store := range sortedKeys(prices) {
		next++
		c.Competitors = append(c.Competitors, Competitor(next, store, prices[store]))
		c.Associations = append(c.Associations, Link(int64(len(c.Associations)+1), retailerID, next))
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
