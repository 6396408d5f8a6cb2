package pricing_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/GTDGit/pricing_api/internal/models"
	"github.com/GTDGit/pricing_api/internal/pricing"
	"github.com/GTDGit/pricing_api/internal/pricing/pricingtest"
)

var fixedNow = time.Date(2026, 10, 19, 15, 0, 0, 0, time.UTC)

func newAnalyzer(src pricing.CatalogSource) *pricing.Analyzer {
	return pricing.NewAnalyzer(src, pricing.AnalyzerConfig{
		RetailerStore: pricingtest.RetailerStore,
		Location:      time.UTC,
		Now:           func() time.Time { return fixedNow },
	})
}

// exampleCatalog holds the four reference products P, Q, R and S.
func exampleCatalog() *pricingtest.Catalog {
	c := &pricingtest.Catalog{
		Products: []models.RetailerProduct{
			pricingtest.Retailer(1, "SKU-P", "Producto P", "100"),
			pricingtest.Retailer(2, "SKU-Q", "Producto Q", "50"),
			pricingtest.Retailer(3, "SKU-R", "Producto R", "30"),
			pricingtest.Retailer(4, "SKU-S", "Producto S", "20"),
		},
	}
	c.Connect(1, map[string]string{"A": "90", "B": "95", "C": "105"})
	c.Connect(2, map[string]string{"D": "40", "E": "42", "F": "44", "G": "46"})
	c.Connect(4, map[string]string{"H": "0"})
	return c
}

func TestRunReferenceExamples(t *testing.T) {
	src := exampleCatalog()
	report, err := newAnalyzer(src).Run(context.Background(), pricing.FilterRequest{Category: "herramientas"})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}

	if len(report.Results) != 4 {
		t.Fatalf("got %d results, want 4", len(report.Results))
	}
	wantOrder := []struct {
		sku    string
		status pricing.Status
		delta  string
	}{
		{"SKU-Q", pricing.StatusOverpriced, "25"},
		{"SKU-P", pricing.StatusCompetitive, "11.11"},
		{"SKU-R", pricing.StatusNoCompetition, ""},
		{"SKU-S", pricing.StatusNoCompetition, ""},
	}
	for i, w := range wantOrder {
		r := report.Results[i]
		if r.SKU != w.sku || r.Status != w.status {
			t.Fatalf("result %d = %s/%s, want %s/%s", i, r.SKU, r.Status, w.sku, w.status)
		}
		if w.delta == "" {
			if r.DeltaPct.Valid || r.Position != nil {
				t.Fatalf("%s: expected null delta and position", r.SKU)
			}
			continue
		}
		if !r.DeltaPct.Decimal.Equal(pricingtest.Price(w.delta)) {
			t.Fatalf("%s: delta = %s, want %s", r.SKU, r.DeltaPct.Decimal, w.delta)
		}
		if !r.AnalyzedAt.Equal(fixedNow) {
			t.Fatalf("%s: analyzedAt = %v", r.SKU, r.AnalyzedAt)
		}
	}

	meta := report.Metadata
	if meta.RawRows != 9 || meta.Snapshots != 4 || meta.TotalProducts != 4 {
		t.Fatalf("rows raw/snap/total = %d/%d/%d, want 9/4/4", meta.RawRows, meta.Snapshots, meta.TotalProducts)
	}
	if !meta.DeduplicationRate.Equal(pricingtest.Price("55.56")) {
		t.Fatalf("dedup rate = %s, want 55.56", meta.DeduplicationRate)
	}
	if len(meta.Stages) != 4 {
		t.Fatalf("got %d stage stats, want 4", len(meta.Stages))
	}
	for i, name := range []string{pricing.StagePreparation, pricing.StageAggregation, pricing.StageClassification, pricing.StageSequencing} {
		if meta.Stages[i].Name != name || meta.Stages[i].Status != "completed" {
			t.Fatalf("stage %d = %+v, want %s completed", i, meta.Stages[i], name)
		}
	}
	if meta.StatusCounts[pricing.StatusNoCompetition] != 2 || meta.StatusCounts[pricing.StatusCheapest] != 0 {
		t.Fatalf("status counts = %v", meta.StatusCounts)
	}
	if meta.Filter.Period != "30D" || meta.Filter.Window.Start.Format("2006-01-02") != "2026-09-20" {
		t.Fatalf("filter = %+v", meta.Filter)
	}
}

func TestRunUsesHistoryInsideWindow(t *testing.T) {
	src := exampleCatalog()
	src.Events = []models.PriceEvent{
		// P dropped to 85 last week: now the cheapest.
		{ID: 1, ProductID: 1, Origin: models.PriceOriginRetailer, Store: pricingtest.RetailerStore,
			Price: pricingtest.Price("85"), ChangedAt: fixedNow.AddDate(0, 0, -3)},
		// An old event outside a 7 day window must not apply.
		{ID: 2, ProductID: 2, Origin: models.PriceOriginRetailer, Store: pricingtest.RetailerStore,
			Price: pricingtest.Price("1"), ChangedAt: fixedNow.AddDate(0, 0, -20)},
	}

	report, err := newAnalyzer(src).Run(context.Background(), pricing.FilterRequest{Brand: "acme", Period: "7D"})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	bySKU := map[string]pricing.ClassificationResult{}
	for _, r := range report.Results {
		bySKU[r.SKU] = r
	}
	if p := bySKU["SKU-P"]; p.Status != pricing.StatusCheapest || !p.OwnPrice.Equal(pricingtest.Price("85")) || p.OwnPriceAt == nil {
		t.Fatalf("P = %s own %s", p.Status, p.OwnPrice)
	}
	if q := bySKU["SKU-Q"]; !q.OwnPrice.Equal(pricingtest.Price("50")) {
		t.Fatalf("Q own price = %s, want catalog 50", q.OwnPrice)
	}
}

func TestRunStoreFilterKeepsEveryRetailerProduct(t *testing.T) {
	report, err := newAnalyzer(exampleCatalog()).Run(context.Background(), pricing.FilterRequest{Store: "a"})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if len(report.Results) != 4 {
		t.Fatalf("got %d results, want all 4 retailer products", len(report.Results))
	}
	for _, r := range report.Results {
		if r.SKU == "SKU-P" {
			if r.CompetitorCount != 1 || r.Status != pricing.StatusCompetitive {
				t.Fatalf("P against store A only = %d/%s", r.CompetitorCount, r.Status)
			}
			continue
		}
		if r.Status != pricing.StatusNoCompetition {
			t.Fatalf("%s = %s, want No Competition", r.SKU, r.Status)
		}
	}
}

func TestRunEmptyResultIsNotAnError(t *testing.T) {
	src := exampleCatalog()
	report, err := newAnalyzer(src).Run(context.Background(), pricing.FilterRequest{Search: "no-such-product"})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if report.Results == nil || len(report.Results) != 0 {
		t.Fatalf("expected empty non-nil results, got %#v", report.Results)
	}
	if report.Metadata.RawRows != 0 || report.Metadata.TotalProducts != 0 || !report.Metadata.DeduplicationRate.IsZero() {
		t.Fatalf("metadata not zero-filled: %+v", report.Metadata)
	}
	if len(report.Metadata.StatusCounts) != len(pricing.Statuses) {
		t.Fatalf("status counts not zero-filled: %v", report.Metadata.StatusCounts)
	}
	if src.Calls("FindAssociations") != 0 {
		t.Fatal("no association lookup expected when no product matched")
	}
}

func TestRunValidation(t *testing.T) {
	src := exampleCatalog()
	a := newAnalyzer(src)

	report, err := a.Run(context.Background(), pricing.FilterRequest{Period: "7D"})
	if !errors.Is(err, pricing.ErrNoFilter) || report != nil {
		t.Fatalf("got %v / %v, want ErrNoFilter and nil report", err, report)
	}
	_, err = a.Run(context.Background(), pricing.FilterRequest{Brand: "acme", StartDate: "not-a-date"})
	if !pricing.IsValidation(err) {
		t.Fatalf("got %v, want a validation error", err)
	}
	if src.Calls("FindRetailerProducts") != 0 {
		t.Fatal("the data source must not be queried for invalid requests")
	}
}

func TestRunSourceFailureReportsStage(t *testing.T) {
	boom := errors.New("connection reset")
	src := exampleCatalog()
	src.Fail = map[string]error{"FindCompetitorProducts": boom}

	report, err := newAnalyzer(src).Run(context.Background(), pricing.FilterRequest{Brand: "acme"})
	var se *pricing.StageError
	if !errors.As(err, &se) {
		t.Fatalf("expected StageError, got %v", err)
	}
	if se.Stage != pricing.StagePreparation || !errors.Is(err, boom) {
		t.Fatalf("stage = %s, err = %v", se.Stage, err)
	}
	if report == nil || len(report.Results) != 0 {
		t.Fatal("a failed run must return metadata without results")
	}
	if len(report.Metadata.Stages) != 1 || report.Metadata.Stages[0].Status != "failed" {
		t.Fatalf("stages = %+v", report.Metadata.Stages)
	}
}

func TestRunCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newAnalyzer(exampleCatalog()).Run(ctx, pricing.FilterRequest{Brand: "acme"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
}

func TestRunIsRepeatable(t *testing.T) {
	a := newAnalyzer(exampleCatalog())
	first, err := a.Run(context.Background(), pricing.FilterRequest{Brand: "acme"})
	if err != nil {
		t.Fatal(err)
	}
	second, err := a.Run(context.Background(), pricing.FilterRequest{Brand: "acme"})
	if err != nil {
		t.Fatal(err)
	}
	for i := range first.Results {
		if first.Results[i].ID != second.Results[i].ID {
			t.Fatalf("order differs at %d", i)
		}
	}
}

func TestDetail(t *testing.T) {
	src := exampleCatalog()
	a := newAnalyzer(src)

	d, err := a.Detail(context.Background(), "SKU-P", pricing.FilterRequest{})
	if err != nil {
		t.Fatalf("Detail error: %v", err)
	}
	if d.Product.ID != 1 || !d.OwnPrice.Equal(pricingtest.Price("100")) {
		t.Fatalf("product = %+v own %s", d.Product, d.OwnPrice)
	}
	if len(d.Rows) != 3 || d.Rows[0].Store != "A" || d.Rows[2].Store != "C" {
		t.Fatalf("rows = %+v", d.Rows)
	}
	if d.Rows[2].Label != pricing.LabelMoreExpensiveThanYou {
		t.Fatalf("C label = %s", d.Rows[2].Label)
	}

	s, err := a.Detail(context.Background(), "SKU-S", pricing.FilterRequest{})
	if err != nil {
		t.Fatalf("Detail error: %v", err)
	}
	if len(s.Rows) != 0 {
		t.Fatalf("zero priced competitors must be hidden, got %+v", s.Rows)
	}

	if _, err := a.Detail(context.Background(), "missing", pricing.FilterRequest{}); !errors.Is(err, pricing.ErrProductNotFound) {
		t.Fatalf("got %v, want ErrProductNotFound", err)
	}
	if _, err := a.Detail(context.Background(), "SKU-P", pricing.FilterRequest{EndDate: "bad"}); !pricing.IsValidation(err) {
		t.Fatalf("got %v, want validation error", err)
	}
}

func TestDetailSourceFailureNamesStage(t *testing.T) {
	for _, method := range []string{"FindRetailerProductBySKU", "FindAssociations", "FindPriceEvents"} {
		t.Run(method, func(t *testing.T) {
			src := exampleCatalog()
			src.Fail = map[string]error{method: errors.New("db gone")}

			_, err := newAnalyzer(src).Detail(context.Background(), "SKU-P", pricing.FilterRequest{})
			var stageErr *pricing.StageError
			if !errors.As(err, &stageErr) {
				t.Fatalf("got %v, want StageError", err)
			}
			if stageErr.Stage != pricing.StageDetail {
				t.Fatalf("stage = %s, want %s", stageErr.Stage, pricing.StageDetail)
			}
		})
	}
}
