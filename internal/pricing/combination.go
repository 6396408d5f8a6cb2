package pricing

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/GTDGit/pricing_api/internal/models"
)

// CombinationRow pairs a retailer product with one matched competitor product.
// Competitor is nil when the retailer product has no matching competitor.
type CombinationRow struct {
	Product    models.RetailerProduct
	OwnPrice   decimal.Decimal
	OwnPriceAt *time.Time
	Competitor *CompetitorSide
}

// CompetitorSide is the competitor half of a CombinationRow.
type CompetitorSide struct {
	Product models.CompetitorProduct
	Price   decimal.NullDecimal
	PriceAt *time.Time
}

// ValidPrice returns the competitor price when it can take part in
// aggregate math: present and strictly positive.
func (r CombinationRow) ValidPrice() (decimal.Decimal, bool) {
	if r.Competitor == nil || !r.Competitor.Price.Valid || !r.Competitor.Price.Decimal.IsPositive() {
		return decimal.Decimal{}, false
	}
	return r.Competitor.Price.Decimal, true
}

// CombinationInput holds everything the resolver needs for one request.
type CombinationInput struct {
	Filter        Filter
	RetailerStore string

	Products     []models.RetailerProduct
	Associations []models.ProductAssociation
	Competitors  []models.CompetitorProduct

	RetailerPrices   *PriceBook
	CompetitorPrices *PriceBook
}

// ResolveCombinations builds the outer join of retailer products against
// their active, store-filtered competitor products. Every distinct retailer
// product in in.Products yields at least one row; rows of one product are
// contiguous and ordered by competitor store, then competitor id.
func ResolveCombinations(in CombinationInput) []CombinationRow {
	competitors := make(map[int64]models.CompetitorProduct, len(in.Competitors))
	for _, cp := range in.Competitors {
		if !cp.Active() || !in.Filter.MatchesStore(cp.Store) {
			continue
		}
		competitors[cp.ID] = cp
	}

	links := make(map[int64][]models.CompetitorProduct)
	seen := make(map[[2]int64]struct{}, len(in.Associations))
	for _, a := range in.Associations {
		if !a.Complete() {
			continue
		}
		rid, cid := a.RetailerProductID.Int64, a.CompetitorProductID.Int64
		cp, ok := competitors[cid]
		if !ok {
			continue
		}
		key := [2]int64{rid, cid}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		links[rid] = append(links[rid], cp)
	}
	for _, cps := range links {
		sort.Slice(cps, func(i, j int) bool {
			if ki, kj := storeKey(cps[i].Store), storeKey(cps[j].Store); ki != kj {
				return ki < kj
			}
			return cps[i].ID < cps[j].ID
		})
	}

	rows := make([]CombinationRow, 0, len(in.Products))
	emitted := make(map[int64]struct{}, len(in.Products))
	for _, p := range in.Products {
		if _, dup := emitted[p.ID]; dup {
			continue
		}
		emitted[p.ID] = struct{}{}

		own, ownAt := in.RetailerPrices.Resolve(p.ID, in.RetailerStore, decimal.NewNullDecimal(p.Price))
		base := CombinationRow{Product: p, OwnPrice: own.Decimal, OwnPriceAt: ownAt}

		matched := links[p.ID]
		if len(matched) == 0 {
			rows = append(rows, base)
			continue
		}
		for _, cp := range matched {
			price, at := in.CompetitorPrices.Resolve(cp.ID, cp.Store, cp.Price)
			row := base
			row.Competitor = &CompetitorSide{Product: cp, Price: price, PriceAt: at}
			rows = append(rows, row)
		}
	}
	return rows
}

// linkedCompetitorIDs returns the distinct competitor ids referenced by
// complete associations, in ascending order.
func linkedCompetitorIDs(assocs []models.ProductAssociation) []int64 {
	set := make(map[int64]struct{}, len(assocs))
	for _, a := range assocs {
		if a.Complete() {
			set[a.CompetitorProductID.Int64] = struct{}{}
		}
	}
	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func productIDs(products []models.RetailerProduct) []int64 {
	ids := make([]int64, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
	}
	return ids
}
