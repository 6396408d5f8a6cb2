// Package pricingtest provides an in-memory pricing.CatalogSource for tests.
package pricingtest

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"

	"github.com/GTDGit/pricing_api/internal/models"
	"github.com/GTDGit/pricing_api/internal/pricing"
)

// Catalog is an in-memory CatalogSource. Populate the exported slices before
// use; Fail makes the named method return the given error.
type Catalog struct {
	Products     []models.RetailerProduct
	Associations []models.ProductAssociation
	Competitors  []models.CompetitorProduct
	Events       []models.PriceEvent

	Fail map[string]error

	mu    sync.Mutex
	calls map[string]int
}

var _ pricing.CatalogSource = (*Catalog)(nil)

// Calls returns how many times method was invoked.
func (c *Catalog) Calls(method string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[method]
}

func (c *Catalog) enter(ctx context.Context, method string) error {
	c.mu.Lock()
	if c.calls == nil {
		c.calls = make(map[string]int)
	}
	c.calls[method]++
	c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	return c.Fail[method]
}

func (c *Catalog) FindRetailerProducts(ctx context.Context, f pricing.Filter, retailerStore string) ([]models.RetailerProduct, error) {
	if err := c.enter(ctx, "FindRetailerProducts"); err != nil {
		return nil, err
	}
	var out []models.RetailerProduct
	for _, p := range c.Products {
		if retailerStore != "" && !strings.EqualFold(p.Store, retailerStore) {
			continue
		}
		if f.MatchesRetailer(p) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (c *Catalog) FindRetailerProductBySKU(ctx context.Context, sku, retailerStore string) (*models.RetailerProduct, error) {
	if err := c.enter(ctx, "FindRetailerProductBySKU"); err != nil {
		return nil, err
	}
	for _, p := range c.Products {
		if p.SKU == sku && (retailerStore == "" || strings.EqualFold(p.Store, retailerStore)) {
			p := p
			return &p, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (c *Catalog) FindAssociations(ctx context.Context, retailerIDs []int64) ([]models.ProductAssociation, error) {
	if err := c.enter(ctx, "FindAssociations"); err != nil {
		return nil, err
	}
	want := idSet(retailerIDs)
	var out []models.ProductAssociation
	for _, a := range c.Associations {
		if !a.RetailerProductID.Valid {
			continue
		}
		if _, ok := want[a.RetailerProductID.Int64]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (c *Catalog) FindCompetitorProducts(ctx context.Context, ids []int64) ([]models.CompetitorProduct, error) {
	if err := c.enter(ctx, "FindCompetitorProducts"); err != nil {
		return nil, err
	}
	want := idSet(ids)
	var out []models.CompetitorProduct
	for _, cp := range c.Competitors {
		if _, ok := want[cp.ID]; ok {
			out = append(out, cp)
		}
	}
	return out, nil
}

func (c *Catalog) FindPriceEvents(ctx context.Context, origin models.PriceOrigin, productIDs []int64, w pricing.Window) ([]models.PriceEvent, error) {
	if err := c.enter(ctx, "FindPriceEvents"); err != nil {
		return nil, err
	}
	want := idSet(productIDs)
	var out []models.PriceEvent
	for _, ev := range c.Events {
		if ev.Origin != origin || !w.Contains(ev.ChangedAt) {
			continue
		}
		if _, ok := want[ev.ProductID]; ok {
			out = append(out, ev)
		}
	}
	return out, nil
}

// FindFilterOptions mirrors the repository query of the same name.
func (c *Catalog) FindFilterOptions(ctx context.Context, retailerStore string) (*models.FilterOptions, error) {
	if err := c.enter(ctx, "FindFilterOptions"); err != nil {
		return nil, err
	}
	categories, brands, stores := map[string]bool{}, map[string]bool{}, map[string]bool{}
	for _, p := range c.Products {
		if !strings.EqualFold(p.Store, retailerStore) {
			continue
		}
		if p.Category != "" {
			categories[p.Category] = true
		}
		if p.Brand != "" {
			brands[p.Brand] = true
		}
	}
	for _, cp := range c.Competitors {
		if s := strings.TrimSpace(cp.Store); s != "" && cp.Active() {
			stores[s] = true
		}
	}
	return &models.FilterOptions{
		Categories: setKeys(categories),
		Brands:     setKeys(brands),
		Stores:     setKeys(stores),
	}, nil
}

func setKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func idSet(ids []int64) map[int64]struct{} {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
