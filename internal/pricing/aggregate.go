package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/GTDGit/pricing_api/internal/models"
)

// CompetitiveSnapshot is the per-product aggregate of its competitor rows.
type CompetitiveSnapshot struct {
	models.RetailerProduct
	OwnPrice           decimal.Decimal     `json:"ownPrice"`
	OwnPriceAt         *time.Time          `json:"ownPriceAt"`
	MinCompetitorPrice decimal.NullDecimal `json:"minCompetitorPrice"`
	MaxCompetitorPrice decimal.NullDecimal `json:"maxCompetitorPrice"`
	CompetitorCount    int                 `json:"competitorCount"`
	CheaperCount       int                 `json:"cheaperCount"`
	CheapestStore      *string             `json:"cheapestStore"`
	MostExpensiveStore *string             `json:"mostExpensiveStore"`
}

type accumulator struct {
	snapshot CompetitiveSnapshot
	stores   map[string]struct{}
}

func newAccumulator(row CombinationRow) *accumulator {
	return &accumulator{
		snapshot: CompetitiveSnapshot{
			RetailerProduct: row.Product,
			OwnPrice:        row.OwnPrice,
			OwnPriceAt:      row.OwnPriceAt,
		},
		stores: make(map[string]struct{}),
	}
}

func (a *accumulator) add(row CombinationRow) {
	price, ok := row.ValidPrice()
	if !ok {
		return
	}
	store := row.Competitor.Product.Store
	s := &a.snapshot

	a.stores[storeKey(store)] = struct{}{}
	s.CompetitorCount = len(a.stores)

	if price.LessThan(s.OwnPrice) {
		s.CheaperCount++
	}

	if !s.MinCompetitorPrice.Valid || price.LessThan(s.MinCompetitorPrice.Decimal) ||
		(price.Equal(s.MinCompetitorPrice.Decimal) && storeBefore(store, *s.CheapestStore)) {
		s.MinCompetitorPrice = decimal.NewNullDecimal(price)
		s.CheapestStore = &store
	}
	if !s.MaxCompetitorPrice.Valid || price.GreaterThan(s.MaxCompetitorPrice.Decimal) ||
		(price.Equal(s.MaxCompetitorPrice.Decimal) && storeBefore(store, *s.MostExpensiveStore)) {
		s.MaxCompetitorPrice = decimal.NewNullDecimal(price)
		s.MostExpensiveStore = &store
	}
}

// Aggregate collapses combination rows into exactly one snapshot per retailer
// product id, in order of first appearance. Only rows with a present,
// positive competitor price take part in the statistics.
//
// When several stores share the extreme price, the store whose upper-cased
// name sorts first wins (raw name as the second key).
func Aggregate(rows []CombinationRow) []CompetitiveSnapshot {
	index := make(map[int64]int)
	accs := make([]*accumulator, 0)
	for _, row := range rows {
		i, ok := index[row.Product.ID]
		if !ok {
			i = len(accs)
			index[row.Product.ID] = i
			accs = append(accs, newAccumulator(row))
		}
		accs[i].add(row)
	}

	out := make([]CompetitiveSnapshot, 0, len(accs))
	for _, a := range accs {
		out = append(out, a.snapshot)
	}
	return out
}

func storeBefore(a, b string) bool {
	if ka, kb := storeKey(a), storeKey(b); ka != kb {
		return ka < kb
	}
	return a < b
}
