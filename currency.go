package tiramisu

import (
	"context"

	"github.com/eko/gocache/store"
	gocache "github.com/patrickmn/go-cache"
)

// catalogueLimit is the page size used to load the asset catalogue.
const catalogueLimit = 2000

type currencyCache struct {
	store *store.GoCacheStore
}

func newCurrencyCache() *currencyCache {
	return &currencyCache{
		store: store.NewGoCache(gocache.New(gocache.NoExpiration, 0), nil),
	}
}

func currencyKey(acronym string) string {
	return "currency:" + acronym
}

func (cc *currencyCache) get(acronym string) (int64, bool) {
	v, err := cc.store.Get(currencyKey(acronym))
	if err != nil {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

func (cc *currencyCache) set(acronym string, id int64) error {
	return cc.store.Set(currencyKey(acronym), id, &store.Options{Expiration: gocache.NoExpiration})
}

// CurrencyID resolves an asset acronym to its backend identifier. The asset
// catalogue is loaded on a cache miss and every entry of it is cached for the
// lifetime of the session.
func (c *Client) CurrencyID(ctx context.Context, acronym string) (int64, error) {
	if id, ok := c.currencies.get(acronym); ok {
		return id, nil
	}
	page, err := c.Assets(ctx, Pagination{Limit: catalogueLimit})
	if err != nil {
		return 0, err
	}
	var (
		id    int64
		found bool
	)
	for _, asset := range page.Results {
		if err := c.currencies.set(asset.Acronym, asset.ID); err != nil {
			return 0, err
		}
		if asset.Acronym == acronym {
			id, found = asset.ID, true
		}
	}
	c.log.Debugf("[Tiramisu] Loaded %d assets into the currency cache", len(page.Results))
	if !found {
		return 0, newConfigurationError("no asset with acronym %q in the catalogue", acronym)
	}
	return id, nil
}
