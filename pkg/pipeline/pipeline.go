package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/seafoodai/seafood-terminal/pkg/cache"
	"github.com/seafoodai/seafood-terminal/pkg/dataset"
	"github.com/seafoodai/seafood-terminal/pkg/logging"
	"github.com/seafoodai/seafood-terminal/pkg/storage"
)

// DefaultPageSize is used when Config.PageSize is zero.
const DefaultPageSize = 10

// ErrStaleResponse is returned by Initialize and Refresh when their result
// was discarded because a newer fetch had been issued.
var ErrStaleResponse = errors.New("stale response discarded")

// State is the lifecycle state of a pipeline.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateError   State = "error"
)

// FetchFunc loads the full dataset from its source.
type FetchFunc func(ctx context.Context) ([]dataset.Record, error)

// Config parameterizes a pipeline.
type Config struct {
	// DatasetKey names the dataset; cache keys derive from it.
	DatasetKey string

	// Fetch loads the dataset when the cache cannot serve it.
	Fetch FetchFunc

	// FilterFields are the fields offered as filters.
	FilterFields []string

	// PageSize is the number of records per page (default 10).
	PageSize int

	// TTL is how long a cached or fetched dataset stays fresh. Zero means
	// the cache is never read.
	TTL time.Duration
}

func (c Config) validate() error {
	if c.DatasetKey == "" {
		return fmt.Errorf("dataset key is required")
	}
	if c.Fetch == nil {
		return fmt.Errorf("fetch function is required")
	}
	if c.PageSize < 0 {
		return fmt.Errorf("page size must be >= 0 (got %d)", c.PageSize)
	}
	if c.TTL < 0 {
		return fmt.Errorf("ttl must be >= 0 (got %s)", c.TTL)
	}
	return nil
}

// Option customizes a pipeline.
type Option func(*Pipeline)

// WithStore persists cache entries in store. Without it the pipeline
// caches in a private in-memory store.
func WithStore(store storage.Store) Option {
	return func(p *Pipeline) {
		p.cache = cache.NewManager(store)
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
	}
}

// WithLogger sets the pipeline logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// Pipeline owns one dataset: its fetch, cache entry, filters and page.
// It is safe for concurrent use.
type Pipeline struct {
	mu     sync.Mutex
	cfg    Config
	cache  *cache.Manager
	now    func() time.Time
	logger zerolog.Logger

	state     State
	err       error
	data      dataset.Dataset
	storedAt  time.Time
	fromCache bool
	options   map[string][]string
	filters   dataset.FilterSet
	page      int

	// lastRequest is the id of the most recently issued load; adopted is
	// the id whose result is currently active.
	lastRequest uint64
	adopted     uint64

	// writeMu orders cache writes so an older result never overwrites a
	// newer one.
	writeMu sync.Mutex
}

// New creates a pipeline in the idle state.
func New(cfg Config, opts ...Option) (*Pipeline, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.PageSize == 0 {
		cfg.PageSize = DefaultPageSize
	}
	cfg.FilterFields = append([]string(nil), cfg.FilterFields...)

	p := &Pipeline{
		cfg:     cfg,
		now:     time.Now,
		logger:  logging.NewLogger(logging.ComponentPipeline),
		state:   StateIdle,
		data:    dataset.New(cfg.DatasetKey, nil, time.Time{}),
		options: dataset.FilterOptions(nil, cfg.FilterFields),
		filters: dataset.FilterSet{},
		page:    1,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.cache == nil {
		p.cache = cache.NewManager(storage.NewMemoryStore())
	}
	p.logger = p.logger.With().Str("dataset", cfg.DatasetKey).Logger()
	p.cache = p.cache.WithLogger(p.logger)

	return p, nil
}

// Key returns the dataset key.
func (p *Pipeline) Key() string {
	return p.cfg.DatasetKey
}

// State returns the current lifecycle state.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Initialize activates the pipeline: a cache entry younger than the TTL is
// adopted without network I/O, otherwise the dataset is fetched and cached.
func (p *Pipeline) Initialize(ctx context.Context) error {
	id := p.begin()

	if p.cfg.TTL > 0 {
		now := p.now()
		if entry, ok := p.cache.Lookup(ctx, p.cfg.DatasetKey, p.cfg.TTL, now); ok {
			p.mu.Lock()
			defer p.mu.Unlock()
			if id != p.lastRequest {
				p.discardLocked(id)
				return ErrStaleResponse
			}
			p.adoptLocked(id, entry.Payload, entry.StoredAt, true)
			FetchesTotal.WithLabelValues(p.cfg.DatasetKey, resultCacheHit).Inc()
			p.logger.Info().
				Uint64("request_id", id).
				Int("records", entry.Payload.Len()).
				Bool("cache_hit", true).
				Msg("Dataset loaded from cache")
			return nil
		}
	}

	return p.load(ctx, id)
}

// Refresh refetches the dataset, ignoring the cache. On failure the last
// known dataset stays active and the pipeline enters the error state.
func (p *Pipeline) Refresh(ctx context.Context) error {
	return p.load(ctx, p.begin())
}

// RefreshIfStale refetches when the active dataset is at least TTL old.
// An idle pipeline is initialized instead. Pipelines in the error or
// loading state are left alone. It reports whether a load was started.
func (p *Pipeline) RefreshIfStale(ctx context.Context) (bool, error) {
	p.mu.Lock()
	state := p.state
	stale := p.cfg.TTL <= 0 || !p.now().Before(p.storedAt.Add(p.cfg.TTL))
	p.mu.Unlock()

	switch {
	case state == StateIdle:
		return true, p.Initialize(ctx)
	case state == StateReady && stale:
		p.logger.Debug().Msg("Dataset expired, refreshing")
		return true, p.Refresh(ctx)
	default:
		return false, nil
	}
}

// begin issues a new request id and enters the loading state.
func (p *Pipeline) begin() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastRequest++
	p.state = StateLoading
	return p.lastRequest
}

// load runs the fetch for request id and applies its result if id is
// still the latest request.
func (p *Pipeline) load(ctx context.Context, id uint64) error {
	start := time.Now()
	records, err := p.cfg.Fetch(ctx)
	FetchDuration.WithLabelValues(p.cfg.DatasetKey).Observe(time.Since(start).Seconds())
	now := p.now()

	p.mu.Lock()
	if id != p.lastRequest {
		p.discardLocked(id)
		p.mu.Unlock()
		return ErrStaleResponse
	}

	if err != nil {
		p.state = StateError
		p.err = err
		p.mu.Unlock()

		FetchesTotal.WithLabelValues(p.cfg.DatasetKey, resultError).Inc()
		p.logger.Error().
			Err(err).
			Uint64("request_id", id).
			Msg("Dataset fetch failed")
		return fmt.Errorf("fetch %s: %w", p.cfg.DatasetKey, err)
	}

	ds := dataset.New(p.cfg.DatasetKey, records, now)
	p.adoptLocked(id, ds, now, false)
	p.mu.Unlock()

	FetchesTotal.WithLabelValues(p.cfg.DatasetKey, resultOK).Inc()
	p.logger.Info().
		Uint64("request_id", id).
		Int("records", ds.Len()).
		Dur("duration", time.Since(start)).
		Msg("Dataset fetched")

	p.save(ctx, id, ds, now)
	return nil
}

// save writes ds to the cache unless a newer result has been adopted
// since.
func (p *Pipeline) save(ctx context.Context, id uint64, ds dataset.Dataset, now time.Time) {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	p.mu.Lock()
	current := p.adopted == id
	p.mu.Unlock()
	if !current {
		p.logger.Debug().Uint64("request_id", id).Msg("Skipping cache write for superseded result")
		return
	}

	p.cache.Save(ctx, p.cfg.DatasetKey, ds, now)
}

func (p *Pipeline) discardLocked(id uint64) {
	StaleResponsesTotal.WithLabelValues(p.cfg.DatasetKey).Inc()
	p.logger.Debug().
		Err(ErrStaleResponse).
		Uint64("request_id", id).
		Uint64("latest_request_id", p.lastRequest).
		Msg("Discarding superseded response")
}

// adoptLocked makes ds the active dataset. Filter options are recomputed
// here and nowhere else.
func (p *Pipeline) adoptLocked(id uint64, ds dataset.Dataset, storedAt time.Time, fromCache bool) {
	p.adopted = id
	p.data = ds
	p.storedAt = storedAt
	p.fromCache = fromCache
	p.options = dataset.FilterOptions(ds.Records, p.cfg.FilterFields)
	p.state = StateReady
	p.err = nil

	if p.page > p.totalPagesLocked() {
		p.page = 1
	}
	DatasetRecords.WithLabelValues(p.cfg.DatasetKey).Set(float64(ds.Len()))
}

func (p *Pipeline) filteredLocked() []dataset.Record {
	return dataset.ApplyFilters(p.data.Records, p.filters)
}

func (p *Pipeline) totalPagesLocked() int {
	return dataset.TotalPages(len(p.filteredLocked()), p.cfg.PageSize)
}

// SetFilter sets the filter on field ("" clears it) and returns to page 1.
func (p *Pipeline) SetFilter(field, value string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if value == "" {
		delete(p.filters, field)
	} else {
		p.filters[field] = value
	}
	p.page = 1
}

// ClearFilters removes every filter and returns to page 1.
func (p *Pipeline) ClearFilters() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.filters = dataset.FilterSet{}
	p.page = 1
}

// SetPage moves to page n when 1 <= n <= total pages. Other values are
// ignored and reported as false.
func (p *Pipeline) SetPage(n int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if n < 1 || n > p.totalPagesLocked() {
		return false
	}
	p.page = n
	return true
}

// SetPageSize changes the page size and returns to page 1.
func (p *Pipeline) SetPageSize(n int) error {
	if n <= 0 {
		return fmt.Errorf("page size must be > 0 (got %d)", n)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cfg.PageSize = n
	p.page = 1
	return nil
}

// SetTTL changes the freshness window used by later loads.
func (p *Pipeline) SetTTL(ttl time.Duration) error {
	if ttl < 0 {
		return fmt.Errorf("ttl must be >= 0 (got %s)", ttl)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cfg.TTL = ttl
	return nil
}

// View is a snapshot of the pipeline's visible state.
type View struct {
	Dataset       string              `json:"dataset"`
	State         State               `json:"state"`
	Err           error               `json:"-"`
	Error         string              `json:"error,omitempty"`
	Page          dataset.Page        `json:"page"`
	Filters       dataset.FilterSet   `json:"filters"`
	FilterOptions map[string][]string `json:"filter_options"`
	Labels        []string            `json:"labels"`
	FetchedAt     time.Time           `json:"fetched_at"`
	FromCache     bool                `json:"from_cache"`
}

// View returns the current page of filtered records along with the state
// needed to render filters and page navigation.
func (p *Pipeline) View() View {
	p.mu.Lock()
	defer p.mu.Unlock()

	page := dataset.Paginate(p.filteredLocked(), p.page, p.cfg.PageSize)

	options := make(map[string][]string, len(p.options))
	for field, values := range p.options {
		options[field] = append([]string(nil), values...)
	}

	v := View{
		Dataset:       p.cfg.DatasetKey,
		State:         p.state,
		Err:           p.err,
		Page:          page,
		Filters:       p.filters.Clone(),
		FilterOptions: options,
		Labels:        dataset.LabelStrings(dataset.PageLabels(page.Page, page.TotalPages)),
		FetchedAt:     p.storedAt,
		FromCache:     p.fromCache,
	}
	if p.err != nil {
		v.Error = p.err.Error()
	}
	return v
}

// Query renders a view of the active dataset with its own filters, page
// and page size, leaving the pipeline's filters and page untouched. A
// page outside the filtered range falls back to page 1; pageSize <= 0
// uses the configured page size.
func (p *Pipeline) Query(filters dataset.FilterSet, page, pageSize int) View {
	p.mu.Lock()
	defer p.mu.Unlock()

	if pageSize <= 0 {
		pageSize = p.cfg.PageSize
	}
	active := filters.Active()
	filtered := dataset.ApplyFilters(p.data.Records, active)
	if page < 1 || page > dataset.TotalPages(len(filtered), pageSize) {
		page = 1
	}
	window := dataset.Paginate(filtered, page, pageSize)

	options := make(map[string][]string, len(p.options))
	for field, values := range p.options {
		options[field] = append([]string(nil), values...)
	}

	v := View{
		Dataset:       p.cfg.DatasetKey,
		State:         p.state,
		Err:           p.err,
		Page:          window,
		Filters:       active,
		FilterOptions: options,
		Labels:        dataset.LabelStrings(dataset.PageLabels(window.Page, window.TotalPages)),
		FetchedAt:     p.storedAt,
		FromCache:     p.fromCache,
	}
	if p.err != nil {
		v.Error = p.err.Error()
	}
	return v
}
