package pricing

import (
	"time"

	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	// atRiskCeiling is the highest delta percentage still considered at risk
	// rather than overpriced.
	atRiskCeiling = decimal.NewFromInt(10)
)

// ClassificationResult is a snapshot with its derived position and status.
type ClassificationResult struct {
	CompetitiveSnapshot
	DeltaPct   decimal.NullDecimal `json:"deltaVsCheapestPct"`
	Position   *int                `json:"position"`
	Status     Status              `json:"status"`
	AnalyzedAt time.Time           `json:"analyzedAt"`
}

// Classify derives delta, position and status from a snapshot. It is total.
func Classify(s CompetitiveSnapshot, analyzedAt time.Time) ClassificationResult {
	r := ClassificationResult{CompetitiveSnapshot: s, AnalyzedAt: analyzedAt}

	if s.CompetitorCount > 0 && s.MinCompetitorPrice.Valid {
		r.DeltaPct = DeltaPercent(s.OwnPrice, s.MinCompetitorPrice.Decimal)
	}
	if s.CompetitorCount > 0 {
		pos := 1 + s.CheaperCount
		r.Position = &pos
	}
	r.Status = statusFor(s.CompetitorCount, r.Position, r.DeltaPct)
	return r
}

// ClassifyAll classifies every snapshot with the same analysis timestamp.
func ClassifyAll(snapshots []CompetitiveSnapshot, analyzedAt time.Time) []ClassificationResult {
	out := make([]ClassificationResult, 0, len(snapshots))
	for _, s := range snapshots {
		out = append(out, Classify(s, analyzedAt))
	}
	return out
}

// DeltaPercent returns (own - ref) / ref * 100 rounded half away from zero to
// two decimals, or an invalid value when ref is not positive.
func DeltaPercent(own, ref decimal.Decimal) decimal.NullDecimal {
	if !ref.IsPositive() {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(own.Sub(ref).Mul(hundred).DivRound(ref, 2))
}

func statusFor(competitors int, position *int, delta decimal.NullDecimal) Status {
	switch {
	case competitors == 0 || position == nil:
		return StatusNoCompetition
	case *position == 1:
		return StatusCheapest
	case *position <= 3:
		return StatusCompetitive
	case !delta.Valid:
		return StatusNoData
	case delta.Decimal.LessThanOrEqual(atRiskCeiling):
		return StatusAtRisk
	default:
		return StatusOverpriced
	}
}
