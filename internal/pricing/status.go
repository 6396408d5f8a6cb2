package pricing

// Status is the pricing position category of a retailer product.
type Status string

const (
	StatusCheapest      Status = "Cheapest"
	StatusCompetitive   Status = "Competitive"
	StatusAtRisk        Status = "At Risk"
	StatusOverpriced    Status = "Overpriced"
	StatusNoCompetition Status = "No Competition"
	StatusNoData        Status = "No Data"
)

// Statuses lists every status in presentation order.
var Statuses = []Status{
	StatusOverpriced,
	StatusAtRisk,
	StatusCompetitive,
	StatusCheapest,
	StatusNoCompetition,
	StatusNoData,
}

// rank returns the position of s in Statuses; unknown values sort last.
func (s Status) rank() int {
	for i, st := range Statuses {
		if st == s {
			return i
		}
	}
	return len(Statuses)
}
