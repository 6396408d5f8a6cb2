package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/GTDGit/pricing_api/internal/cache"
	"github.com/GTDGit/pricing_api/internal/models"
	"github.com/GTDGit/pricing_api/internal/pricing"
)

// FilterOptionsLoader reads filter options from the catalog.
type FilterOptionsLoader interface {
	FindFilterOptions(ctx context.Context, retailerStore string) (*models.FilterOptions, error)
}

// FilterOptionsStore caches filter options. Get returns cache.ErrMiss when empty.
type FilterOptionsStore interface {
	Get(ctx context.Context) (*models.FilterOptions, error)
	Set(ctx context.Context, opts *models.FilterOptions) error
	Invalidate(ctx context.Context) error
}

// PricingService exposes the pricing analysis to the HTTP layer.
type PricingService struct {
	analyzer      *pricing.Analyzer
	options       FilterOptionsLoader
	cache         FilterOptionsStore
	retailerStore string
	now           func() time.Time
}

// NewPricingService constructs a PricingService. optionsCache may be nil when
// Redis is disabled; filter options are then read from the catalog every time.
func NewPricingService(analyzer *pricing.Analyzer, options FilterOptionsLoader, optionsCache FilterOptionsStore, retailerStore string) *PricingService {
	return &PricingService{
		analyzer:      analyzer,
		options:       options,
		cache:         optionsCache,
		retailerStore: retailerStore,
		now:           time.Now,
	}
}

// Analyze runs the pricing pipeline.
func (s *PricingService) Analyze(ctx context.Context, req pricing.FilterRequest) (*pricing.Report, error) {
	return s.analyzer.Run(ctx, req)
}

// Detail returns the competitor breakdown of one SKU.
func (s *PricingService) Detail(ctx context.Context, sku string, req pricing.FilterRequest) (*pricing.DetailReport, error) {
	return s.analyzer.Detail(ctx, sku, req)
}

// StatusStat is the share of one status in a run.
type StatusStat struct {
	Status   pricing.Status  `json:"status"`
	Count    int             `json:"count"`
	SharePct decimal.Decimal `json:"sharePct"`
}

// StatsSummary condenses a run into per-status totals.
type StatsSummary struct {
	Statuses        []StatusStat           `json:"statuses"`
	Counts          map[pricing.Status]int `json:"statusCounts"`
	TotalProducts   int                    `json:"totalProducts"`
	WithCompetition int                    `json:"withCompetition"`
	AverageDeltaPct decimal.NullDecimal    `json:"averageDeltaPct"`
	ElapsedMs       int64                  `json:"elapsedMs"`
	Filter          pricing.Filter         `json:"filter"`
}

var hundred = decimal.NewFromInt(100)

// Summarize builds the stats view of a successful report. Shares and the
// average delta are rounded to two decimals.
func Summarize(report *pricing.Report) *StatsSummary {
	meta := report.Metadata
	total := len(report.Results)
	sum := &StatsSummary{
		Statuses:      make([]StatusStat, 0, len(pricing.Statuses)),
		Counts:        meta.StatusCounts,
		TotalProducts: total,
		ElapsedMs:     meta.ElapsedMs,
		Filter:        meta.Filter,
	}

	for _, st := range pricing.Statuses {
		n := meta.StatusCounts[st]
		share := decimal.Zero
		if total > 0 {
			share = decimal.NewFromInt(int64(n)).Mul(hundred).DivRound(decimal.NewFromInt(int64(total)), 2)
		}
		sum.Statuses = append(sum.Statuses, StatusStat{Status: st, Count: n, SharePct: share})
	}

	deltas := decimal.Zero
	withDelta := 0
	for _, r := range report.Results {
		if r.CompetitorCount > 0 {
			sum.WithCompetition++
		}
		if r.DeltaPct.Valid {
			deltas = deltas.Add(r.DeltaPct.Decimal)
			withDelta++
		}
	}
	if withDelta > 0 {
		sum.AverageDeltaPct = decimal.NewNullDecimal(deltas.DivRound(decimal.NewFromInt(int64(withDelta)), 2))
	}
	return sum
}

// FilterOptions returns the selectable filter values, served from the cache
// when possible. Cache failures fall back to the catalog and drop the entry
// that could not be read.
func (s *PricingService) FilterOptions(ctx context.Context) (*models.FilterOptions, error) {
	if s.cache != nil {
		opts, err := s.cache.Get(ctx)
		if err == nil {
			return opts, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			log.Warn().Err(err).Msg("filter options cache read failed")
			if err := s.cache.Invalidate(ctx); err != nil {
				log.Warn().Err(err).Msg("filter options cache invalidation failed")
			}
		}
	}
	return s.RefreshFilterOptions(ctx)
}

// RefreshFilterOptions reloads the filter options from the catalog and
// stores them in the cache.
func (s *PricingService) RefreshFilterOptions(ctx context.Context) (*models.FilterOptions, error) {
	opts, err := s.options.FindFilterOptions(ctx, s.retailerStore)
	if err != nil {
		return nil, fmt.Errorf("load filter options: %w", err)
	}
	opts.Periods = pricing.Periods()
	opts.RefreshedAt = s.now().UTC()

	if s.cache != nil {
		if err := s.cache.Set(ctx, opts); err != nil {
			log.Warn().Err(err).Msg("filter options cache write failed")
		}
	}
	return opts, nil
}
