package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/GTDGit/pricing_api/internal/models"
	"github.com/GTDGit/pricing_api/internal/pricing"
)

// CatalogRepository reads the retailer catalog, competitor listings,
// associations and price history. It never writes.
type CatalogRepository struct {
	db *sqlx.DB
}

var _ pricing.CatalogSource = (*CatalogRepository)(nil)

// NewCatalogRepository creates a new CatalogRepository.
func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

const retailerColumns = `id, store, sku, name,
	COALESCE(brand, '') AS brand,
	COALESCE(category, '') AS category,
	COALESCE(category_l2, '') AS category_l2,
	COALESCE(category_l3, '') AS category_l3,
	price,
	COALESCE(url, '') AS url,
	COALESCE(image_url, '') AS image_url,
	COALESCE(marketplace, '') AS marketplace`

// FindRetailerProducts returns the products of retailerStore matching the
// catalog filters. Text filters are case-insensitive substring matches.
func (r *CatalogRepository) FindRetailerProducts(ctx context.Context, f pricing.Filter, retailerStore string) ([]models.RetailerProduct, error) {
	const q = `SELECT ` + retailerColumns + `
		FROM retailer_products
		WHERE UPPER(TRIM(store)) = UPPER(TRIM($1))
		AND ($2 = '' OR category ILIKE '%' || $2 || '%')
		AND ($3 = '' OR category_l2 ILIKE '%' || $3 || '%')
		AND ($4 = '' OR category_l3 ILIKE '%' || $4 || '%')
		AND ($5 = '' OR brand ILIKE '%' || $5 || '%')
		AND ($6 = '' OR sku ILIKE '%' || $6 || '%' OR name ILIKE '%' || $6 || '%')
		ORDER BY id`

	var products []models.RetailerProduct
	err := r.db.SelectContext(ctx, &products, q,
		retailerStore,
		escapeLike(f.Category),
		escapeLike(f.CategoryL2),
		escapeLike(f.CategoryL3),
		escapeLike(f.Brand),
		escapeLike(f.Search),
	)
	if err != nil {
		return nil, err
	}
	return products, nil
}

// FindRetailerProductBySKU returns sql.ErrNoRows when the SKU is unknown.
func (r *CatalogRepository) FindRetailerProductBySKU(ctx context.Context, sku, retailerStore string) (*models.RetailerProduct, error) {
	const q = `SELECT ` + retailerColumns + `
		FROM retailer_products
		WHERE sku = $1 AND UPPER(TRIM(store)) = UPPER(TRIM($2))
		ORDER BY id LIMIT 1`

	var p models.RetailerProduct
	if err := r.db.GetContext(ctx, &p, q, strings.TrimSpace(sku), retailerStore); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, err
	}
	return &p, nil
}

// FindAssociations returns the complete associations of the given retailer products.
func (r *CatalogRepository) FindAssociations(ctx context.Context, retailerIDs []int64) ([]models.ProductAssociation, error) {
	if len(retailerIDs) == 0 {
		return nil, nil
	}
	const q = `SELECT id, retailer_product_id, competitor_product_id
		FROM product_associations
		WHERE retailer_product_id = ANY($1) AND competitor_product_id IS NOT NULL
		ORDER BY id`

	var assocs []models.ProductAssociation
	if err := r.db.SelectContext(ctx, &assocs, q, pq.Array(retailerIDs)); err != nil {
		return nil, err
	}
	return assocs, nil
}

// FindCompetitorProducts loads competitor listings by id, active or not.
func (r *CatalogRepository) FindCompetitorProducts(ctx context.Context, ids []int64) ([]models.CompetitorProduct, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	const q = `SELECT id, store,
		COALESCE(sku, '') AS sku,
		COALESCE(name, '') AS name,
		COALESCE(brand, '') AS brand,
		price,
		COALESCE(url, '') AS url,
		COALESCE(image_url, '') AS image_url,
		COALESCE(marketplace, '') AS marketplace,
		stock, is_active, updated_at
		FROM competitor_products
		WHERE id = ANY($1)
		ORDER BY id`

	var products []models.CompetitorProduct
	if err := r.db.SelectContext(ctx, &products, q, pq.Array(ids)); err != nil {
		return nil, err
	}
	return products, nil
}

// FindPriceEvents returns, per product and store, the most recent event of
// the given origin that falls inside w.
func (r *CatalogRepository) FindPriceEvents(ctx context.Context, origin models.PriceOrigin, productIDs []int64, w pricing.Window) ([]models.PriceEvent, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}
	const q = `SELECT DISTINCT ON (product_id, UPPER(TRIM(store)))
		id, product_id, origin, store, price, previous_price, changed_at
		FROM price_events
		WHERE origin = $1
		AND product_id = ANY($2)
		AND changed_at >= $3 AND changed_at < $4
		ORDER BY product_id, UPPER(TRIM(store)), changed_at DESC, id DESC`

	var events []models.PriceEvent
	if err := r.db.SelectContext(ctx, &events, q, string(origin), pq.Array(productIDs), w.Start, w.Until()); err != nil {
		return nil, err
	}
	return events, nil
}

// FindFilterOptions returns the distinct categories and brands of the
// retailer catalog and the stores with active competitor listings.
func (r *CatalogRepository) FindFilterOptions(ctx context.Context, retailerStore string) (*models.FilterOptions, error) {
	opts := &models.FilterOptions{}

	const categoriesQ = `SELECT DISTINCT category FROM retailer_products
		WHERE UPPER(TRIM(store)) = UPPER(TRIM($1)) AND COALESCE(category, '') != ''
		ORDER BY category`
	if err := r.db.SelectContext(ctx, &opts.Categories, categoriesQ, retailerStore); err != nil {
		return nil, err
	}

	const brandsQ = `SELECT DISTINCT brand FROM retailer_products
		WHERE UPPER(TRIM(store)) = UPPER(TRIM($1)) AND COALESCE(brand, '') != ''
		ORDER BY brand`
	if err := r.db.SelectContext(ctx, &opts.Brands, brandsQ, retailerStore); err != nil {
		return nil, err
	}

	const storesQ = `SELECT DISTINCT TRIM(store) FROM competitor_products
		WHERE COALESCE(is_active, true) AND TRIM(store) != ''
		ORDER BY TRIM(store)`
	if err := r.db.SelectContext(ctx, &opts.Stores, storesQ); err != nil {
		return nil, err
	}
	return opts, nil
}

// Ping checks database connectivity.
func (r *CatalogRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// escapeLike neutralizes LIKE wildcards in user input.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
