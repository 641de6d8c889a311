package pagination

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/seafoodai/seafood-terminal/pkg/dataset"
)

var (
	pagesFetchedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "seafood_pages_fetched_total",
		Help: "Total pages fetched by the batch fetcher by endpoint and result",
	}, []string{"endpoint", "result"})

	batchFetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "seafood_batch_fetch_duration_seconds",
		Help:    "Duration of fetching every page of an endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	}, []string{"endpoint"})
)

// Config holds batch fetcher configuration.
type Config struct {
	// MaxConcurrency is the maximum number of parallel page requests.
	MaxConcurrency int

	// Timeout per page fetch.
	Timeout time.Duration

	// MaxPages guards against a runaway total_pages value.
	MaxPages int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 4,
		Timeout:        15 * time.Second,
		MaxPages:       1000,
	}
}

// PageFetcher fetches a single page and reports the total page count.
type PageFetcher interface {
	FetchPage(ctx context.Context, endpoint string, pageNum int) (records []dataset.Record, totalPages int, err error)
}

// BatchFetcher fetches all pages of an endpoint in parallel.
type BatchFetcher struct {
	fetcher PageFetcher
	config  Config
}

// NewBatchFetcher creates a new batch fetcher.
func NewBatchFetcher(fetcher PageFetcher, config Config) *BatchFetcher {
	if fetcher == nil {
		panic("pagination: NewBatchFetcher requires a non-nil PageFetcher")
	}
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 4
	}
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}
	if config.MaxPages <= 0 {
		config.MaxPages = 1000
	}

	return &BatchFetcher{
		fetcher: fetcher,
		config:  config,
	}
}

// FetchAll fetches every page of endpoint and returns the records of all
// pages concatenated in page order. It fails if any page fails.
func (bf *BatchFetcher) FetchAll(ctx context.Context, endpoint string) ([]dataset.Record, error) {
	start := time.Now()
	defer func() {
		batchFetchDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}()

	first, totalPages, err := bf.fetchPage(ctx, endpoint, 1)
	if err != nil {
		return nil, fmt.Errorf("fetch first page: %w", err)
	}

	if totalPages <= 1 {
		log.Debug().
			Str("endpoint", endpoint).
			Int("records", len(first)).
			Dur("duration", time.Since(start)).
			Msg("Fetch complete (single page)")
		return nonNil(first), nil
	}
	if totalPages > bf.config.MaxPages {
		return nil, fmt.Errorf("endpoint %s reports %d pages (max %d)", endpoint, totalPages, bf.config.MaxPages)
	}

	log.Info().
		Str("endpoint", endpoint).
		Int("total_pages", totalPages).
		Msg("Starting parallel page fetch")

	// Each worker writes only its own slot, so no lock is needed.
	pages := make([][]dataset.Record, totalPages)
	pages[0] = first

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bf.config.MaxConcurrency)
	for pageNum := 2; pageNum <= totalPages; pageNum++ {
		g.Go(func() error {
			records, _, err := bf.fetchPage(gctx, endpoint, pageNum)
			if err != nil {
				log.Warn().
					Err(err).
					Str("endpoint", endpoint).
					Int("page", pageNum).
					Msg("Page fetch failed")
				return fmt.Errorf("fetch page %d: %w", pageNum, err)
			}
			pages[pageNum-1] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, p := range pages {
		total += len(p)
	}
	all := make([]dataset.Record, 0, total)
	for _, p := range pages {
		all = append(all, p...)
	}

	log.Info().
		Str("endpoint", endpoint).
		Int("pages", totalPages).
		Int("records", len(all)).
		Dur("duration", time.Since(start)).
		Msg("Fetch complete")

	return all, nil
}

func (bf *BatchFetcher) fetchPage(ctx context.Context, endpoint string, pageNum int) ([]dataset.Record, int, error) {
	pageCtx, cancel := context.WithTimeout(ctx, bf.config.Timeout)
	defer cancel()

	records, totalPages, err := bf.fetcher.FetchPage(pageCtx, endpoint, pageNum)
	if err != nil {
		pagesFetchedTotal.WithLabelValues(endpoint, "error").Inc()
		return nil, 0, err
	}
	pagesFetchedTotal.WithLabelValues(endpoint, "ok").Inc()
	return records, totalPages, nil
}

func nonNil(records []dataset.Record) []dataset.Record {
	if records == nil {
		return []dataset.Record{}
	}
	return records
}
