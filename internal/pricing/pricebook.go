package pricing

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/GTDGit/pricing_api/internal/models"
)

type priceKey struct {
	productID int64
	store     string
}

// PriceBook keeps the most recent in-window price event per (product, store).
// A nil *PriceBook behaves as an empty book.
type PriceBook struct {
	latest map[priceKey]models.PriceEvent
}

// NewPriceBook indexes events, ignoring any that fall outside w. When two
// events share a timestamp the one with the higher ID wins.
func NewPriceBook(w Window, events []models.PriceEvent) *PriceBook {
	b := &PriceBook{latest: make(map[priceKey]models.PriceEvent, len(events))}
	for _, ev := range events {
		if !w.Contains(ev.ChangedAt) {
			continue
		}
		key := priceKey{productID: ev.ProductID, store: storeKey(ev.Store)}
		cur, ok := b.latest[key]
		if !ok || ev.ChangedAt.After(cur.ChangedAt) || (ev.ChangedAt.Equal(cur.ChangedAt) && ev.ID > cur.ID) {
			b.latest[key] = ev
		}
	}
	return b
}

// Latest returns the retained event for a product in a store.
func (b *PriceBook) Latest(productID int64, store string) (models.PriceEvent, bool) {
	if b == nil {
		return models.PriceEvent{}, false
	}
	ev, ok := b.latest[priceKey{productID: productID, store: storeKey(store)}]
	return ev, ok
}

// Resolve applies the retained-price rule: the latest in-window event if any,
// otherwise the catalog fallback. The returned time is set only when the price
// came from an event.
func (b *PriceBook) Resolve(productID int64, store string, fallback decimal.NullDecimal) (decimal.NullDecimal, *time.Time) {
	if ev, ok := b.Latest(productID, store); ok {
		at := ev.ChangedAt
		return decimal.NewNullDecimal(ev.Price), &at
	}
	return fallback, nil
}

// Len returns the number of retained events.
func (b *PriceBook) Len() int {
	if b == nil {
		return 0
	}
	return len(b.latest)
}

func storeKey(store string) string {
	return strings.ToUpper(strings.TrimSpace(store))
}
