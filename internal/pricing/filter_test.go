package pricing

import (
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/GTDGit/pricing_api/internal/models"
)

var testNow = time.Date(2026, 10, 19, 15, 30, 0, 0, time.UTC)

func day(s string) time.Time {
	t, err := time.ParseInLocation(dateLayout, s, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

func TestResolveFilterWindow(t *testing.T) {
	tests := []struct {
		name       string
		req        FilterRequest
		wantStart  string
		wantEnd    string
		wantPeriod string
	}{
		{name: "default period", req: FilterRequest{}, wantStart: "2026-09-20", wantEnd: "2026-10-19", wantPeriod: "30D"},
		{name: "7D", req: FilterRequest{Period: "7D"}, wantStart: "2026-10-13", wantEnd: "2026-10-19", wantPeriod: "7D"},
		{name: "lower case 60d", req: FilterRequest{Period: "60d"}, wantStart: "2026-08-21", wantEnd: "2026-10-19", wantPeriod: "60D"},
		{name: "90D", req: FilterRequest{Period: "90D"}, wantStart: "2026-07-22", wantEnd: "2026-10-19", wantPeriod: "90D"},
		{name: "unknown falls back to 30D", req: FilterRequest{Period: "365D"}, wantStart: "2026-09-20", wantEnd: "2026-10-19", wantPeriod: "30D"},
		{name: "explicit end", req: FilterRequest{Period: "7D", EndDate: "2026-01-10"}, wantStart: "2026-01-04", wantEnd: "2026-01-10", wantPeriod: "7D"},
		{name: "explicit start overrides period", req: FilterRequest{Period: "7D", StartDate: "2026-10-01"}, wantStart: "2026-10-01", wantEnd: "2026-10-19", wantPeriod: CustomPeriod},
		{name: "rfc3339 end is truncated", req: FilterRequest{Period: "7D", EndDate: "2026-03-15T22:10:00Z"}, wantStart: "2026-03-09", wantEnd: "2026-03-15", wantPeriod: "7D"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := ResolveFilter(tt.req, testNow, time.UTC)
			if err != nil {
				t.Fatalf("ResolveFilter error: %v", err)
			}
			if got := f.Window.Start.Format(dateLayout); got != tt.wantStart {
				t.Errorf("start = %s, want %s", got, tt.wantStart)
			}
			if got := f.Window.End.Format(dateLayout); got != tt.wantEnd {
				t.Errorf("end = %s, want %s", got, tt.wantEnd)
			}
			if f.Period != tt.wantPeriod {
				t.Errorf("period = %s, want %s", f.Period, tt.wantPeriod)
			}
		})
	}
}

func TestResolveFilterUsesLocationForToday(t *testing.T) {
	santiago := time.FixedZone("CLT", -3*3600)
	// 01:00 UTC on the 20th is still the 19th in UTC-3.
	now := time.Date(2026, 10, 20, 1, 0, 0, 0, time.UTC)
	f, err := ResolveFilter(FilterRequest{Period: "7D"}, now, santiago)
	if err != nil {
		t.Fatalf("ResolveFilter error: %v", err)
	}
	if got := f.Window.End.Format(dateLayout); got != "2026-10-19" {
		t.Fatalf("end = %s, want 2026-10-19", got)
	}
}

func TestResolveFilterDaylightSavingStart(t *testing.T) {
	santiago, err := time.LoadLocation("America/Santiago")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	// Clocks in Santiago jump from 00:00 to 01:00 on 2026-09-06.
	gapNow := time.Date(2026, 9, 6, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		req       FilterRequest
		now       time.Time
		wantStart string
		wantEnd   string
		wantDays  int
	}{
		{name: "end on gap day", req: FilterRequest{Period: "7d", EndDate: "2026-09-06"}, now: testNow, wantStart: "2026-08-31", wantEnd: "2026-09-06", wantDays: 7},
		{name: "today is gap day", req: FilterRequest{Period: "7D"}, now: gapNow, wantStart: "2026-08-31", wantEnd: "2026-09-06", wantDays: 7},
		{name: "start on gap day", req: FilterRequest{StartDate: "2026-09-06", EndDate: "2026-09-10"}, now: testNow, wantStart: "2026-09-06", wantEnd: "2026-09-10", wantDays: 5},
		{name: "period reaches back to gap day", req: FilterRequest{Period: "30D", EndDate: "2026-10-05"}, now: testNow, wantStart: "2026-09-06", wantEnd: "2026-10-05", wantDays: 30},
		{name: "day after gap", req: FilterRequest{Period: "7D", EndDate: "2026-09-07"}, now: testNow, wantStart: "2026-09-01", wantEnd: "2026-09-07", wantDays: 7},
		{name: "autumn fallback day", req: FilterRequest{Period: "7D", EndDate: "2026-04-05"}, now: testNow, wantStart: "2026-03-30", wantEnd: "2026-04-05", wantDays: 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := ResolveFilter(tt.req, tt.now, santiago)
			if err != nil {
				t.Fatalf("ResolveFilter error: %v", err)
			}
			if got := f.Window.Start.Format(dateLayout); got != tt.wantStart {
				t.Errorf("start = %s, want %s", got, tt.wantStart)
			}
			if got := f.Window.End.Format(dateLayout); got != tt.wantEnd {
				t.Errorf("end = %s, want %s", got, tt.wantEnd)
			}
			if got := f.Window.Days(); got != tt.wantDays {
				t.Errorf("days = %d, want %d", got, tt.wantDays)
			}
		})
	}
}

func TestWindowBoundariesAroundDaylightSavingGap(t *testing.T) {
	santiago, err := time.LoadLocation("America/Santiago")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	f, err := ResolveFilter(FilterRequest{Period: "7D", EndDate: "2026-09-05"}, testNow, santiago)
	if err != nil {
		t.Fatalf("ResolveFilter error: %v", err)
	}
	// 2026-09-06 starts at 01:00 -03, which is 04:00 UTC.
	firstInstant := time.Date(2026, 9, 6, 4, 0, 0, 0, time.UTC)
	if !f.Window.Until().Equal(firstInstant) {
		t.Fatalf("until = %s, want %s", f.Window.Until(), firstInstant)
	}
	if !f.Window.Contains(firstInstant.Add(-time.Second)) {
		t.Error("last second of 2026-09-05 must be inside the window")
	}
	if f.Window.Contains(firstInstant) {
		t.Error("first instant of 2026-09-06 must be outside the window")
	}

	g, err := ResolveFilter(FilterRequest{StartDate: "2026-09-06", EndDate: "2026-09-06"}, testNow, santiago)
	if err != nil {
		t.Fatalf("ResolveFilter error: %v", err)
	}
	if !g.Window.Start.Equal(firstInstant) {
		t.Fatalf("start = %s, want %s", g.Window.Start, firstInstant)
	}
}

func TestResolveFilterRejectsBadDates(t *testing.T) {
	tests := []struct {
		name  string
		req   FilterRequest
		field string
	}{
		{name: "bad start", req: FilterRequest{StartDate: "19/10/2026"}, field: "fechaInicio"},
		{name: "bad end", req: FilterRequest{EndDate: "yesterday"}, field: "fechaFin"},
		{name: "start after end", req: FilterRequest{StartDate: "2026-10-10", EndDate: "2026-10-01"}, field: "fechaInicio"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ResolveFilter(tt.req, testNow, time.UTC)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if ve.Field != tt.field {
				t.Fatalf("field = %s, want %s", ve.Field, tt.field)
			}
		})
	}
}

func TestResolveFilterFoldsSKUIntoSearch(t *testing.T) {
	f, err := ResolveFilter(FilterRequest{SKU: " 12345 "}, testNow, time.UTC)
	if err != nil {
		t.Fatalf("ResolveFilter error: %v", err)
	}
	if f.Search != "12345" {
		t.Fatalf("search = %q, want 12345", f.Search)
	}

	f, _ = ResolveFilter(FilterRequest{SKU: "12345", Search: "taladro"}, testNow, time.UTC)
	if f.Search != "taladro" {
		t.Fatalf("explicit search must win, got %q", f.Search)
	}
}

func TestFilterRequestValidate(t *testing.T) {
	if err := (FilterRequest{}).Validate(); !errors.Is(err, ErrNoFilter) {
		t.Fatalf("empty request: got %v, want ErrNoFilter", err)
	}
	if err := (FilterRequest{CategoryL2: "Taladros", Period: "7D"}).Validate(); !errors.Is(err, ErrNoFilter) {
		t.Fatalf("sub-category only: got %v, want ErrNoFilter", err)
	}
	if err := (FilterRequest{Brand: "   "}).Validate(); !errors.Is(err, ErrNoFilter) {
		t.Fatalf("blank brand: got %v, want ErrNoFilter", err)
	}
	for _, req := range []FilterRequest{{Category: "x"}, {Store: "x"}, {Brand: "x"}, {Search: "x"}, {SKU: "x"}} {
		if err := req.Validate(); err != nil {
			t.Fatalf("%+v: unexpected error %v", req, err)
		}
	}
	if !IsValidation(ErrNoFilter) {
		t.Fatal("ErrNoFilter must be a validation error")
	}
}

func TestWindowContains(t *testing.T) {
	w := Window{Start: day("2026-10-13"), End: day("2026-10-19")}
	cases := map[string]bool{
		"2026-10-12T23:59:59Z": false,
		"2026-10-13T00:00:00Z": true,
		"2026-10-19T23:59:59Z": true,
		"2026-10-20T00:00:00Z": false,
	}
	for raw, want := range cases {
		ts, _ := time.Parse(time.RFC3339, raw)
		if got := w.Contains(ts); got != want {
			t.Errorf("Contains(%s) = %v, want %v", raw, got, want)
		}
	}
	if w.Days() != 7 {
		t.Errorf("Days = %d, want 7", w.Days())
	}
}

func TestFilterMatchesRetailer(t *testing.T) {
	p := models.RetailerProduct{
		SKU: "MB-1001", Name: "Taladro Percutor 750W", Brand: "Bosch",
		Category: "Herramientas Eléctricas", CategoryL2: "Taladros", CategoryL3: "Percutores",
	}
	tests := []struct {
		name string
		f    Filter
		want bool
	}{
		{"empty filter", Filter{}, true},
		{"category substring any case", Filter{Category: "herramientas"}, true},
		{"brand mismatch", Filter{Brand: "Makita"}, false},
		{"search by sku", Filter{Search: "mb-10"}, true},
		{"search by name", Filter{Search: "percutor"}, true},
		{"search miss", Filter{Search: "sierra"}, false},
		{"level 3", Filter{CategoryL3: "perc"}, true},
		{"level 2 miss", Filter{CategoryL2: "Sierras"}, false},
	}
	for _, tt := range tests {
		if got := tt.f.MatchesRetailer(p); got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}
}
