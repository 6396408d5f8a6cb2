package pricing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/GTDGit/pricing_api/internal/models"
)

// Stage names reported in run metadata and StageError.
const (
	StagePreparation    = "preparation"
	StageAggregation    = "aggregation"
	StageClassification = "classification"
	StageSequencing     = "sequencing"
	StageDetail         = "detail"
)

// CatalogSource is the read-only data path used by the analyzer. All methods
// must honour ctx cancellation.
type CatalogSource interface {
	// FindRetailerProducts returns the retailer products of retailerStore
	// matching the catalog filters of f (category levels, brand, search).
	FindRetailerProducts(ctx context.Context, f Filter, retailerStore string) ([]models.RetailerProduct, error)
	// FindRetailerProductBySKU returns sql.ErrNoRows when the SKU is unknown.
	FindRetailerProductBySKU(ctx context.Context, sku, retailerStore string) (*models.RetailerProduct, error)
	FindAssociations(ctx context.Context, retailerIDs []int64) ([]models.ProductAssociation, error)
	FindCompetitorProducts(ctx context.Context, ids []int64) ([]models.CompetitorProduct, error)
	// FindPriceEvents returns events of the given origin for productIDs inside w.
	// Returning only the latest event per (product, store) is allowed.
	FindPriceEvents(ctx context.Context, origin models.PriceOrigin, productIDs []int64, w Window) ([]models.PriceEvent, error)
}

// AnalyzerConfig configures an Analyzer.
type AnalyzerConfig struct {
	// RetailerStore is the store tag of the retailer's own catalog.
	RetailerStore string
	// Location decides where calendar days start. Defaults to UTC.
	Location *time.Location
	// Now defaults to time.Now.
	Now func() time.Time
}

// Analyzer runs the pricing pipeline. It holds no per-request state and is
// safe for concurrent use.
type Analyzer struct {
	source        CatalogSource
	retailerStore string
	loc           *time.Location
	now           func() time.Time
}

// NewAnalyzer constructs an Analyzer over source.
func NewAnalyzer(source CatalogSource, cfg AnalyzerConfig) *Analyzer {
	a := &Analyzer{
		source:        source,
		retailerStore: cfg.RetailerStore,
		loc:           cfg.Location,
		now:           cfg.Now,
	}
	if a.loc == nil {
		a.loc = time.UTC
	}
	if a.now == nil {
		a.now = time.Now
	}
	return a
}

// StageStat records the outcome of one pipeline stage.
type StageStat struct {
	Name      string `json:"name"`
	Rows      int    `json:"rows"`
	ElapsedMs int64  `json:"elapsedMs"`
	Status    string `json:"status"`
}

// RunMetadata describes a pipeline run. It is filled in as stages complete,
// so after a failure it reflects only the stages that ran.
type RunMetadata struct {
	Stages            []StageStat     `json:"stages"`
	RawRows           int             `json:"rawRows"`
	Snapshots         int             `json:"snapshots"`
	TotalProducts     int             `json:"totalProducts"`
	DeduplicationRate decimal.Decimal `json:"deduplicationRatePct"`
	StatusCounts      map[Status]int  `json:"statusCounts"`
	ElapsedMs         int64           `json:"elapsedMs"`
	Filter            Filter          `json:"filter"`
	ExecutedAt        time.Time       `json:"executedAt"`
}

// Report is the outcome of a pipeline run.
type Report struct {
	Results  []ClassificationResult `json:"items"`
	Metadata *RunMetadata           `json:"metadata"`
}

// Run executes the full pipeline for req. Validation failures are returned
// with a nil report. Stage failures return a *StageError together with a
// report carrying metadata and no results.
func (a *Analyzer) Run(ctx context.Context, req FilterRequest) (*Report, error) {
	began := time.Now()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	now := a.now()
	filter, err := ResolveFilter(req, now, a.loc)
	if err != nil {
		return nil, err
	}

	meta := &RunMetadata{
		Stages:            make([]StageStat, 0, 4),
		DeduplicationRate: decimal.Zero,
		StatusCounts:      CountByStatus(nil),
		Filter:            filter,
		ExecutedAt:        now,
	}
	report := &Report{Results: []ClassificationResult{}, Metadata: meta}
	defer func() { meta.ElapsedMs = time.Since(began).Milliseconds() }()

	log.Debug().
		Str("period", filter.Period).
		Time("window_start", filter.Window.Start).
		Time("window_end", filter.Window.End).
		Msg("pricing run started")

	var rows []CombinationRow
	err = track(ctx, meta, StagePreparation, func() (int, error) {
		var err error
		rows, err = a.prepare(ctx, filter)
		return len(rows), err
	})
	if err != nil {
		return report, err
	}
	meta.RawRows = len(rows)

	var snapshots []CompetitiveSnapshot
	err = track(ctx, meta, StageAggregation, func() (int, error) {
		snapshots = Aggregate(rows)
		return len(snapshots), nil
	})
	if err != nil {
		return report, err
	}
	meta.Snapshots = len(snapshots)
	meta.DeduplicationRate = dedupRate(len(rows), len(snapshots))

	var results []ClassificationResult
	err = track(ctx, meta, StageClassification, func() (int, error) {
		results = ClassifyAll(snapshots, now)
		return len(results), nil
	})
	if err != nil {
		return report, err
	}

	err = track(ctx, meta, StageSequencing, func() (int, error) {
		Sequence(results)
		return len(results), nil
	})
	if err != nil {
		return report, err
	}

	report.Results = results
	meta.TotalProducts = len(results)
	meta.StatusCounts = CountByStatus(results)
	return report, nil
}

// DetailReport is the competitor breakdown of a single retailer product.
type DetailReport struct {
	Product    models.RetailerProduct `json:"product"`
	OwnPrice   decimal.Decimal        `json:"ownPrice"`
	OwnPriceAt *time.Time             `json:"ownPriceAt"`
	Window     Window                 `json:"window"`
	Rows       []DetailRow            `json:"competitors"`
}

// Detail resolves one row per active competitor of the product with the
// given SKU. Period and dates of req select the price window; its other
// filters are ignored.
func (a *Analyzer) Detail(ctx context.Context, sku string, req FilterRequest) (*DetailReport, error) {
	filter, err := ResolveFilter(FilterRequest{
		Period:    req.Period,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	}, a.now(), a.loc)
	if err != nil {
		return nil, err
	}

	product, err := a.source.FindRetailerProductBySKU(ctx, sku, a.retailerStore)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, detailFailed(fmt.Errorf("load product %s: %w", sku, err))
	}

	rows, err := a.combine(ctx, filter, []models.RetailerProduct{*product})
	if err != nil {
		return nil, detailFailed(err)
	}

	report := &DetailReport{
		Product:  *product,
		OwnPrice: product.Price,
		Window:   filter.Window,
		Rows:     ResolveDetail(rows),
	}
	if len(rows) > 0 {
		report.OwnPrice = rows[0].OwnPrice
		report.OwnPriceAt = rows[0].OwnPriceAt
	}
	return report, nil
}

func (a *Analyzer) prepare(ctx context.Context, filter Filter) ([]CombinationRow, error) {
	products, err := a.source.FindRetailerProducts(ctx, filter, a.retailerStore)
	if err != nil {
		return nil, fmt.Errorf("load retailer products: %w", err)
	}
	if len(products) == 0 {
		return nil, nil
	}
	return a.combine(ctx, filter, products)
}

// combine loads the competition of products and resolves combination rows.
// The three lookups that depend only on the association set run concurrently.
func (a *Analyzer) combine(ctx context.Context, filter Filter, products []models.RetailerProduct) ([]CombinationRow, error) {
	ids := productIDs(products)
	assocs, err := a.source.FindAssociations(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load associations: %w", err)
	}
	competitorIDs := linkedCompetitorIDs(assocs)

	var (
		competitors      []models.CompetitorProduct
		ownEvents        []models.PriceEvent
		competitorEvents []models.PriceEvent
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		evs, err := a.source.FindPriceEvents(gctx, models.PriceOriginRetailer, ids, filter.Window)
		if err != nil {
			return fmt.Errorf("load retailer price history: %w", err)
		}
		ownEvents = evs
		return nil
	})
	if len(competitorIDs) > 0 {
		g.Go(func() error {
			cps, err := a.source.FindCompetitorProducts(gctx, competitorIDs)
			if err != nil {
				return fmt.Errorf("load competitor products: %w", err)
			}
			competitors = cps
			return nil
		})
		g.Go(func() error {
			evs, err := a.source.FindPriceEvents(gctx, models.PriceOriginCompetitor, competitorIDs, filter.Window)
			if err != nil {
				return fmt.Errorf("load competitor price history: %w", err)
			}
			competitorEvents = evs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ownPrices := NewPriceBook(filter.Window, ownEvents)
	competitorPrices := NewPriceBook(filter.Window, competitorEvents)
	log.Debug().
		Int("products", len(products)).
		Int("associations", len(assocs)).
		Int("retailer_prices", ownPrices.Len()).
		Int("competitor_prices", competitorPrices.Len()).
		Msg("price history indexed")

	return ResolveCombinations(CombinationInput{
		Filter:           filter,
		RetailerStore:    a.retailerStore,
		Products:         products,
		Associations:     assocs,
		Competitors:      competitors,
		RetailerPrices:   ownPrices,
		CompetitorPrices: competitorPrices,
	}), nil
}

func detailFailed(err error) error {
	log.Error().Err(err).Str("stage", StageDetail).Msg("pricing stage failed")
	return &StageError{Stage: StageDetail, Err: err}
}

// track runs one stage and appends its statistics to meta. A context that is
// already done fails the stage without running it.
func track(ctx context.Context, meta *RunMetadata, stage string, fn func() (int, error)) error {
	start := time.Now()
	stat := StageStat{Name: stage, Status: "completed"}

	n, err := 0, ctx.Err()
	if err == nil {
		n, err = fn()
	}
	stat.Rows = n
	stat.ElapsedMs = time.Since(start).Milliseconds()
	if err != nil {
		stat.Status = "failed"
		meta.Stages = append(meta.Stages, stat)
		log.Error().Err(err).Str("stage", stage).Msg("pricing stage failed")
		return &StageError{Stage: stage, Err: err}
	}

	meta.Stages = append(meta.Stages, stat)
	log.Debug().Str("stage", stage).Int("rows", n).Int64("elapsed_ms", stat.ElapsedMs).Msg("pricing stage completed")
	return nil
}

func dedupRate(raw, unique int) decimal.Decimal {
	if raw == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(raw - unique)).Mul(hundred).DivRound(decimal.NewFromInt(int64(raw)), 2)
}
