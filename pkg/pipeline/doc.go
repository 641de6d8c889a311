// Package pipeline implements the fetch-cache-paginate lifecycle of one
// tabular dataset.
//
// A Pipeline reads its dataset from the cache when the cached copy is
// younger than the TTL and otherwise calls its FetchFunc, writing the
// result back as one cache entry. Filters and pagination are applied in
// memory over the resident dataset and never touch the network or storage.
//
// Lifecycle:
//
//	idle -> loading -> ready | error
//	ready -> loading -> ready | error   (Refresh, RefreshIfStale)
//
// SetFilter and SetPage keep a ready pipeline ready. There is no automatic
// retry out of the error state; a caller must Refresh.
//
// Every fetch is tagged with a request id. A result whose id is no longer
// the latest issued is dropped without touching the dataset or the cache.
//
// Example usage:
//
//	p, err := pipeline.New(pipeline.Config{
//		DatasetKey:   "landings",
//		Fetch:        fetchLandings,
//		FilterFields: []string{"species", "port", "date"},
//		PageSize:     10,
//		TTL:          time.Hour,
//	}, pipeline.WithStore(store))
//	if err := p.Initialize(ctx); err != nil { ... }
//	p.SetFilter("species", "Cod")
//	view := p.View()
package pipeline
