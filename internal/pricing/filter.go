package pricing

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/GTDGit/pricing_api/internal/models"
)

const (
	// DefaultPeriod is used when the period code is empty or unknown.
	DefaultPeriod = "30D"
	// CustomPeriod is reported when an explicit start date replaced the period code.
	CustomPeriod = "CUSTOM"

	dateLayout = "2006-01-02"
)

// periodOffsets maps a period code to the number of days subtracted from the
// window end to get the window start.
var periodOffsets = map[string]int{
	"7D":  6,
	"30D": 29,
	"60D": 59,
	"90D": 89,
}

// Periods returns the supported period codes, shortest first.
func Periods() []string {
	return []string{"7D", "30D", "60D", "90D"}
}

// FilterRequest is the raw, unvalidated filter as received from a caller.
type FilterRequest struct {
	Category   string
	CategoryL2 string
	CategoryL3 string
	Brand      string
	Store      string
	Search     string
	SKU        string
	Period     string
	StartDate  string
	EndDate    string
}

// Validate enforces that at least one narrowing filter is present.
// The category sub-levels alone do not count.
func (r FilterRequest) Validate() error {
	for _, v := range []string{r.Category, r.Store, r.Brand, r.Search, r.SKU} {
		if strings.TrimSpace(v) != "" {
			return nil
		}
	}
	return ErrNoFilter
}

// Filter is the normalized filter together with its concrete date window.
type Filter struct {
	Category   string `json:"category,omitempty"`
	CategoryL2 string `json:"categoryL2,omitempty"`
	CategoryL3 string `json:"categoryL3,omitempty"`
	Brand      string `json:"brand,omitempty"`
	Store      string `json:"store,omitempty"`
	Search     string `json:"search,omitempty"`
	Period     string `json:"period"`
	Window     Window `json:"window"`
}

// MatchesRetailer applies the catalog filters to a retailer product using
// case-insensitive substring matching. Search matches either the SKU or the name.
func (f Filter) MatchesRetailer(p models.RetailerProduct) bool {
	if !containsFold(p.Category, f.Category) ||
		!containsFold(p.CategoryL2, f.CategoryL2) ||
		!containsFold(p.CategoryL3, f.CategoryL3) ||
		!containsFold(p.Brand, f.Brand) {
		return false
	}
	if f.Search == "" {
		return true
	}
	return containsFold(p.SKU, f.Search) || containsFold(p.Name, f.Search)
}

// MatchesStore reports whether a competitor store passes the store filter.
// Store names compare case-insensitively as whole values.
func (f Filter) MatchesStore(store string) bool {
	return f.Store == "" || strings.EqualFold(strings.TrimSpace(store), f.Store)
}

// Window is an inclusive range of calendar days.
type Window struct {
	Start time.Time
	End   time.Time
}

// Until returns the exclusive upper instant of the window: the first instant
// of the day after End.
func (w Window) Until() time.Time {
	y, m, d := w.End.Date()
	return dayStart(y, m, d+1, w.End.Location())
}

// Contains reports whether t falls on one of the window's days.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.Until())
}

// Days returns the number of calendar days covered.
func (w Window) Days() int {
	return int(w.Until().Sub(w.Start).Hours()/24 + 0.5)
}

func (w Window) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Start string `json:"start"`
		End   string `json:"end"`
		Days  int    `json:"days"`
	}{
		Start: w.Start.Format(dateLayout),
		End:   w.End.Format(dateLayout),
		Days:  w.Days(),
	})
}

// NormalizePeriod upper-cases a period code and falls back to DefaultPeriod
// for unknown values.
func NormalizePeriod(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if _, ok := periodOffsets[code]; ok {
		return code
	}
	return DefaultPeriod
}

// ResolveFilter normalizes req and computes its date window relative to now in
// loc. It does not enforce Validate; callers decide whether a filter is required.
func ResolveFilter(req FilterRequest, now time.Time, loc *time.Location) (Filter, error) {
	if loc == nil {
		loc = time.UTC
	}

	f := Filter{
		Category:   strings.TrimSpace(req.Category),
		CategoryL2: strings.TrimSpace(req.CategoryL2),
		CategoryL3: strings.TrimSpace(req.CategoryL3),
		Brand:      strings.TrimSpace(req.Brand),
		Store:      strings.TrimSpace(req.Store),
		Search:     strings.TrimSpace(req.Search),
		Period:     NormalizePeriod(req.Period),
	}
	if f.Search == "" {
		f.Search = strings.TrimSpace(req.SKU)
	}

	end := startOfDay(now.In(loc))
	if raw := strings.TrimSpace(req.EndDate); raw != "" {
		d, err := parseDate(raw, loc)
		if err != nil {
			return Filter{}, &ValidationError{Field: "fechaFin", Message: "invalid date " + raw}
		}
		end = d
	}

	y, m, d := end.Date()
	start := dayStart(y, m, d-periodOffsets[f.Period], loc)
	if raw := strings.TrimSpace(req.StartDate); raw != "" {
		d, err := parseDate(raw, loc)
		if err != nil {
			return Filter{}, &ValidationError{Field: "fechaInicio", Message: "invalid date " + raw}
		}
		start = d
		f.Period = CustomPeriod
	}

	if start.After(end) {
		return Filter{}, &ValidationError{Field: "fechaInicio", Message: "start date is after end date"}
	}

	f.Window = Window{Start: start, End: end}
	return f, nil
}

// parseDate accepts a plain calendar date or an RFC 3339 timestamp and
// truncates it to the day in loc.
func parseDate(raw string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(dateLayout, raw); err == nil {
		y, m, d := t.Date()
		return dayStart(y, m, d, loc), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, err
	}
	return startOfDay(t.In(loc)), nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return dayStart(y, m, d, t.Location())
}

// dayStart returns the first instant of the calendar day in loc. d may be out
// of range and is normalized like time.Date does. When midnight falls inside a
// daylight-saving gap the day starts at the end of the gap.
func dayStart(y int, m time.Month, d int, loc *time.Location) time.Time {
	y, m, d = time.Date(y, m, d, 12, 0, 0, 0, time.UTC).Date()
	t := time.Date(y, m, d, 0, 0, 0, 0, loc)
	if ty, tm, td := t.Date(); ty != y || tm != m || td != d {
		if _, end := t.ZoneBounds(); !end.IsZero() {
			return end
		}
	}
	return t
}

func containsFold(s, substr string) bool {
	if substr == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
