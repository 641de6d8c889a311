// Package dashboard wires the dashboard widgets to fetch-cache-paginate
// pipelines.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/seafoodai/seafood-terminal/pkg/client"
	"github.com/seafoodai/seafood-terminal/pkg/config"
	"github.com/seafoodai/seafood-terminal/pkg/dataset"
	"github.com/seafoodai/seafood-terminal/pkg/logging"
	"github.com/seafoodai/seafood-terminal/pkg/pagination"
	"github.com/seafoodai/seafood-terminal/pkg/pipeline"
	"github.com/seafoodai/seafood-terminal/pkg/storage"
)

// ErrUnknownDataset is returned for dataset names the board does not serve.
var ErrUnknownDataset = errors.New("unknown dataset")

// maxParallelLoads bounds how many datasets load at once.
const maxParallelLoads = 4

// Board owns one pipeline per configured dataset.
type Board struct {
	api    *client.Client
	store  storage.Store
	clock  func() time.Time
	logger zerolog.Logger

	mu        sync.RWMutex
	names     []string
	widgets   map[string]Widget
	pipelines map[string]*pipeline.Pipeline
}

// Option customizes a Board.
type Option func(*Board)

// WithClock replaces time.Now in every pipeline.
func WithClock(now func() time.Time) Option {
	return func(b *Board) {
		b.clock = now
	}
}

// WithLogger sets the board logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(b *Board) {
		b.logger = logger
	}
}

// NewBoard builds a pipeline for every dataset in cfg. Datasets named after
// a built-in widget inherit its transform and defaults; other names become
// plain widgets over their endpoint.
func NewBoard(cfg *config.Config, api *client.Client, store storage.Store, opts ...Option) (*Board, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}

	b := &Board{
		api:       api,
		store:     store,
		clock:     time.Now,
		logger:    logging.NewLogger(logging.ComponentDashboard),
		widgets:   make(map[string]Widget),
		pipelines: make(map[string]*pipeline.Pipeline),
	}
	for _, opt := range opts {
		opt(b)
	}

	builtins := Builtins()
	for _, name := range cfg.DatasetNames() {
		w := applyDatasetConfig(baseWidget(builtins, name), cfg.Datasets[name], cfg.DatasetPageSize(name))

		if !w.IsStatic() {
			if w.Endpoint == "" {
				return nil, fmt.Errorf("dataset %q: endpoint is required", name)
			}
			if api == nil {
				return nil, fmt.Errorf("dataset %q: api client is required", name)
			}
		}

		p, err := pipeline.New(pipeline.Config{
			DatasetKey:   name,
			Fetch:        b.fetchFunc(w),
			FilterFields: w.FilterFields,
			PageSize:     w.PageSize,
			TTL:          w.TTL,
		},
			pipeline.WithStore(store),
			pipeline.WithClock(b.clock),
			pipeline.WithLogger(b.logger),
		)
		if err != nil {
			return nil, fmt.Errorf("dataset %q: %w", name, err)
		}

		b.names = append(b.names, name)
		b.widgets[name] = w
		b.pipelines[name] = p
	}

	b.logger.Info().Strs("datasets", b.names).Msg("Dashboard ready")
	return b, nil
}

// baseWidget returns the built-in widget for name, or a plain widget for
// names without one.
func baseWidget(builtins map[string]Widget, name string) Widget {
	if w, ok := builtins[name]; ok {
		return w
	}
	return Widget{Name: name, Title: name}
}

func applyDatasetConfig(w Widget, ds config.Dataset, pageSize int) Widget {
	if ds.Endpoint != "" {
		w.Endpoint = ds.Endpoint
	}
	if ds.TTL != "" {
		w.TTL = ds.TTLDuration()
	}
	if ds.Auth != nil {
		w.Authenticated = *ds.Auth
	}
	if ds.Paged != nil {
		w.Paged = *ds.Paged
	}
	if ds.FilterFields != nil {
		w.FilterFields = ds.FilterFields
	}
	if pageSize > 0 {
		w.PageSize = pageSize
	}
	if w.FetchPageSize <= 0 {
		w.FetchPageSize = DefaultFetchPageSize
	}
	return w
}

// fetchFunc returns the loader for w: static rows, every page of a paged
// endpoint, or a single GET.
func (b *Board) fetchFunc(w Widget) pipeline.FetchFunc {
	if w.IsStatic() {
		return func(context.Context) ([]dataset.Record, error) {
			return cloneRecords(w.Static), nil
		}
	}

	if w.Paged {
		fetcher := pagination.NewBatchFetcher(b.api.PageSource(w.FetchPageSize, w.Authenticated), pagination.DefaultConfig())
		return func(ctx context.Context) ([]dataset.Record, error) {
			records, err := fetcher.FetchAll(ctx, w.Endpoint)
			if err != nil {
				return nil, err
			}
			return transformAll(records, w.Transform), nil
		}
	}

	return func(ctx context.Context) ([]dataset.Record, error) {
		result, err := b.api.GetRecords(ctx, w.Endpoint, nil, w.Authenticated)
		if err != nil {
			return nil, err
		}
		return transformAll(result.Records, w.Transform), nil
	}
}

// Names returns the dataset names in sorted order.
func (b *Board) Names() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]string(nil), b.names...)
}

// Widget returns the widget definition for name.
func (b *Board) Widget(name string) (Widget, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	w, ok := b.widgets[name]
	return w, ok
}

// Pipeline returns the pipeline for name.
func (b *Board) Pipeline(name string) (*pipeline.Pipeline, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	p, ok := b.pipelines[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDataset, name)
	}
	return p, nil
}

// Initialize loads the named datasets, or every dataset when names is
// empty, in parallel. A failing dataset does not stop the others; all
// failures are returned joined.
func (b *Board) Initialize(ctx context.Context, names ...string) error {
	return b.each(ctx, names, func(ctx context.Context, p *pipeline.Pipeline) error {
		return p.Initialize(ctx)
	})
}

// RefreshStale refetches every dataset whose data outlived its TTL.
func (b *Board) RefreshStale(ctx context.Context) error {
	return b.each(ctx, nil, func(ctx context.Context, p *pipeline.Pipeline) error {
		_, err := p.RefreshIfStale(ctx)
		return err
	})
}

// Refresh refetches name ignoring its cache.
func (b *Board) Refresh(ctx context.Context, name string) error {
	p, err := b.Pipeline(name)
	if err != nil {
		return err
	}
	return p.Refresh(ctx)
}

func (b *Board) each(ctx context.Context, names []string, fn func(context.Context, *pipeline.Pipeline) error) error {
	if len(names) == 0 {
		names = b.Names()
	}

	targets := make([]*pipeline.Pipeline, 0, len(names))
	for _, name := range names {
		p, err := b.Pipeline(name)
		if err != nil {
			return err
		}
		targets = append(targets, p)
	}

	var (
		g      errgroup.Group
		mu     sync.Mutex
		failed []error
	)
	g.SetLimit(maxParallelLoads)
	for _, p := range targets {
		g.Go(func() error {
			if err := fn(ctx, p); err != nil && !errors.Is(err, pipeline.ErrStaleResponse) {
				mu.Lock()
				failed = append(failed, fmt.Errorf("%s: %w", p.Key(), err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	return errors.Join(failed...)
}

// ApplyConfig updates TTLs and page sizes of existing datasets from a
// reloaded config. A setting dropped from the file falls back to the
// widget default. Datasets added or removed by the reload are ignored
// until restart.
func (b *Board) ApplyConfig(cfg *config.Config) {
	b.mu.Lock()
	defer b.mu.Unlock()

	builtins := Builtins()
	for _, name := range b.names {
		ds, ok := cfg.Datasets[name]
		if !ok {
			continue
		}
		reloaded := applyDatasetConfig(baseWidget(builtins, name), ds, cfg.DatasetPageSize(name))
		w := b.widgets[name]
		w.TTL = reloaded.TTL
		w.PageSize = reloaded.PageSize
		p := b.pipelines[name]

		if err := p.SetTTL(w.TTL); err != nil {
			b.logger.Warn().Err(err).Str("dataset", name).Msg("Ignoring invalid ttl")
			continue
		}
		if w.PageSize != b.widgets[name].PageSize {
			if err := p.SetPageSize(w.PageSize); err != nil {
				b.logger.Warn().Err(err).Str("dataset", name).Msg("Ignoring invalid page size")
				continue
			}
		}
		b.widgets[name] = w
	}
	b.logger.Info().Msg("Applied reloaded config")
}

// Run refreshes stale datasets every interval until ctx is done.
func (b *Board) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := b.RefreshStale(ctx); err != nil {
				b.logger.Warn().Err(err).Msg("Background refresh failed")
			}
		}
	}
}
