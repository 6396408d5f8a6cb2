package pricing

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// DetailLabel compares one competitor's price with ours.
type DetailLabel string

const (
	LabelCheaperThanYou       DetailLabel = "Cheaper Than You"
	LabelMoreExpensiveThanYou DetailLabel = "More Expensive Than You"
	LabelSamePrice            DetailLabel = "Same Price"
)

// DetailRow is one competitor listing of a single retailer product.
type DetailRow struct {
	CompetitorProductID int64               `json:"competitorProductId"`
	Store               string              `json:"store"`
	CompetitorSKU       string              `json:"competitorSku"`
	CompetitorName      string              `json:"competitorName"`
	CompetitorPrice     decimal.Decimal     `json:"competitorPrice"`
	CompetitorPriceAt   *time.Time          `json:"competitorPriceAt"`
	URL                 string              `json:"url"`
	UpdatedAt           *time.Time          `json:"updatedAt"`
	Stock               *int                `json:"stock"`
	OwnPrice            decimal.Decimal     `json:"ownPrice"`
	Difference          decimal.Decimal     `json:"difference"`
	DeltaPct            decimal.NullDecimal `json:"deltaPct"`
	Label               DetailLabel         `json:"label"`
}

// ResolveDetail projects combination rows of a single product into detail
// rows, keeping only competitors with a positive price, cheapest first.
func ResolveDetail(rows []CombinationRow) []DetailRow {
	out := make([]DetailRow, 0, len(rows))
	for _, row := range rows {
		price, ok := row.ValidPrice()
		if !ok {
			continue
		}
		cp := row.Competitor.Product
		out = append(out, DetailRow{
			CompetitorProductID: cp.ID,
			Store:               cp.Store,
			CompetitorSKU:       cp.SKU,
			CompetitorName:      cp.Name,
			CompetitorPrice:     price,
			CompetitorPriceAt:   row.Competitor.PriceAt,
			URL:                 cp.URL,
			UpdatedAt:           cp.UpdatedAt,
			Stock:               cp.Stock,
			OwnPrice:            row.OwnPrice,
			Difference:          row.OwnPrice.Sub(price),
			DeltaPct:            DeltaPercent(row.OwnPrice, price),
			Label:               labelFor(row.OwnPrice, price),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.CompetitorPrice.Equal(b.CompetitorPrice) {
			return a.CompetitorPrice.LessThan(b.CompetitorPrice)
		}
		if ka, kb := storeKey(a.Store), storeKey(b.Store); ka != kb {
			return ka < kb
		}
		return a.CompetitorProductID < b.CompetitorProductID
	})
	return out
}

func labelFor(own, competitor decimal.Decimal) DetailLabel {
	switch {
	case competitor.LessThan(own):
		return LabelCheaperThanYou
	case competitor.GreaterThan(own):
		return LabelMoreExpensiveThanYou
	default:
		return LabelSamePrice
	}
}
