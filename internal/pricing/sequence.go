package pricing

import (
	"sort"
	"strings"
)

// Sequence orders results in place: status priority (see Statuses), delta
// descending with missing deltas last, name ascending, then product id.
func Sequence(results []ClassificationResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return resultLess(&results[i], &results[j])
	})
}

func resultLess(a, b *ClassificationResult) bool {
	if ra, rb := a.Status.rank(), b.Status.rank(); ra != rb {
		return ra < rb
	}

	switch {
	case a.DeltaPct.Valid && b.DeltaPct.Valid:
		if !a.DeltaPct.Decimal.Equal(b.DeltaPct.Decimal) {
			return a.DeltaPct.Decimal.GreaterThan(b.DeltaPct.Decimal)
		}
	case a.DeltaPct.Valid != b.DeltaPct.Valid:
		return a.DeltaPct.Valid
	}

	if na, nb := strings.ToLower(a.Name), strings.ToLower(b.Name); na != nb {
		return na < nb
	}
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	return a.ID < b.ID
}

// CountByStatus returns a histogram with an entry for every known status.
func CountByStatus(results []ClassificationResult) map[Status]int {
	counts := make(map[Status]int, len(Statuses))
	for _, st := range Statuses {
		counts[st] = 0
	}
	for _, r := range results {
		counts[r.Status]++
	}
	return counts
}
