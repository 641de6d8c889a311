//go:build integration

package integration

import (
	"context"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/seafoodai/seafood-terminal/internal/testutil"
	"github.com/seafoodai/seafood-terminal/pkg/auth"
	"github.com/seafoodai/seafood-terminal/pkg/cache"
	"github.com/seafoodai/seafood-terminal/pkg/client"
	"github.com/seafoodai/seafood-terminal/pkg/config"
	"github.com/seafoodai/seafood-terminal/pkg/dashboard"
	"github.com/seafoodai/seafood-terminal/pkg/dataset"
	"github.com/seafoodai/seafood-terminal/pkg/pipeline"
	"github.com/seafoodai/seafood-terminal/pkg/ratelimit"
	"github.com/seafoodai/seafood-terminal/pkg/storage"
)

// setupRedis creates a Redis container for integration testing.
func setupRedis(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: host + ":" + port.Port(),
	})

	cleanup := func() {
		redisClient.Close()
		container.Terminate(ctx)
	}

	return redisClient, cleanup
}

func newClient(t *testing.T, mock *testutil.MockAPI, tokens auth.TokenProvider, tracker *ratelimit.Tracker) *client.Client {
	t.Helper()
	cfg := client.DefaultConfig(mock.URL())
	cfg.Tokens = tokens
	cfg.RateLimiter = tracker
	c, err := client.New(cfg)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func priceRecords(n int) []map[string]any {
	out := make([]map[string]any, n)
	for i := range out {
		out[i] = map[string]any{
			"species_sku":  "SKU-" + strconv.Itoa(i),
			"origin":       []string{"Norway", "Chile", "Ecuador"}[i%3],
			"price":        4.5 + float64(i),
			"price_unit":   "kg",
			"weekly_trend": 1.0,
			"yoy":          -2.0,
		}
	}
	return out
}

// TestFullPipelineFlow covers fetch, cache write, and a second pipeline
// served from the shared Redis cache without touching the API.
func TestFullPipelineFlow(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockAPI()
	defer mock.Close()
	mock.SetRecords("/market_prices", priceRecords(25))

	store := storage.NewRedisStore(redisClient, "seafood-it")
	api := newClient(t, mock, auth.Static(""), nil)

	newPipeline := func() *pipeline.Pipeline {
		p, err := pipeline.New(pipeline.Config{
			DatasetKey: "market_prices",
			Fetch: func(ctx context.Context) ([]dataset.Record, error) {
				res, err := api.GetRecords(ctx, "market_prices", nil, false)
				return res.Records, err
			},
			FilterFields: []string{"origin"},
			PageSize:     10,
			TTL:          time.Hour,
		}, pipeline.WithStore(store), pipeline.WithLogger(zerolog.Nop()))
		if err != nil {
			t.Fatalf("pipeline.New() error = %v", err)
		}
		return p
	}

	ctx := context.Background()

	first := newPipeline()
	if err := first.Initialize(ctx); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if got := mock.GetPathCount("/market_prices"); got != 1 {
		t.Fatalf("API requests = %d, want 1", got)
	}

	exists, err := redisClient.Exists(ctx, "seafood-it:market_prices_cache", "seafood-it:market_prices_cache_time").Result()
	if err != nil {
		t.Fatalf("EXISTS error = %v", err)
	}
	if exists != 2 {
		t.Errorf("cache keys present = %d, want 2", exists)
	}

	second := newPipeline()
	if err := second.Initialize(ctx); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if got := mock.GetPathCount("/market_prices"); got != 1 {
		t.Errorf("API requests after cached load = %d, want 1", got)
	}

	view := second.View()
	if !view.FromCache {
		t.Error("second pipeline should load from cache")
	}
	if view.Page.TotalCount != 25 || view.Page.TotalPages != 3 {
		t.Errorf("page = %d records / %d pages, want 25 / 3", view.Page.TotalCount, view.Page.TotalPages)
	}

	second.SetFilter("origin", "Chile")
	view = second.View()
	if view.Page.TotalCount != 8 {
		t.Errorf("filtered count = %d, want 8", view.Page.TotalCount)
	}
}

// TestCacheExpiry verifies the TTL boundary against entries stored in Redis.
func TestCacheExpiry(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	store := storage.NewRedisStore(redisClient, "seafood-it")
	mgr := cache.NewManager(store)
	ctx := context.Background()

	storedAt := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)
	ds := dataset.New("landings", []dataset.Record{{"species": "Snow Crab", "volume": "453.6"}}, storedAt)
	if !mgr.Save(ctx, "landings", ds, storedAt) {
		t.Fatal("Save() = false, want true")
	}

	tests := []struct {
		name    string
		elapsed time.Duration
		fresh   bool
	}{
		{"just stored", 0, true},
		{"one second before expiry", time.Hour - time.Second, true},
		{"at expiry", time.Hour, false},
		{"long expired", 48 * time.Hour, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := mgr.Lookup(ctx, "landings", time.Hour, storedAt.Add(tt.elapsed))
			if ok != tt.fresh {
				t.Errorf("Lookup() fresh = %v, want %v", ok, tt.fresh)
			}
		})
	}
}

// TestRateLimitStateShared checks that the budget recorded by one client
// blocks another client sharing the same store.
func TestRateLimitStateShared(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockAPI()
	defer mock.Close()
	mock.SetResponse("/market_prices", testutil.NewRateLimitResponse())

	store := storage.NewRedisStore(redisClient, "seafood-it")
	first := newClient(t, mock, auth.Static(""), ratelimit.NewTracker(store, zerolog.Nop()))
	second := newClient(t, mock, auth.Static(""), ratelimit.NewTracker(store, zerolog.Nop()))

	ctx := context.Background()
	if _, err := first.GetRecords(ctx, "market_prices", nil, false); err == nil {
		t.Fatal("expected 429 error from first client")
	}
	requests := mock.GetRequestCount()

	_, err := second.GetRecords(ctx, "market_prices", nil, false)
	if err == nil {
		t.Fatal("expected second client to be blocked")
	}
	if got := mock.GetRequestCount(); got != requests {
		t.Errorf("blocked client reached the API (%d requests, want %d)", got, requests)
	}
}

// TestBoardWithRedis loads the whole dashboard over Redis, including an
// authenticated dataset using a token kept in the same store.
func TestBoardWithRedis(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockAPI()
	defer mock.Close()
	mock.SetRecords("/market_prices", priceRecords(3))
	mock.SetRecords("/landings", []map[string]any{
		{"year": 2024, "region": "Alaska", "nmfs_name": "CRAB, SNOW", "pounds": 1000, "dollars": 2500, "metric_tons": 453.6},
	})

	token := testutil.SignedToken(t, time.Now().Add(time.Hour))
	mock.SetHandler("/signals", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+token {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error": "Unauthorized"}`))
			return
		}
		w.Write([]byte(`[{"title": "Cod quota cut", "published_date": "2025-09-01"}]`))
	})

	store := storage.NewRedisStore(redisClient, "seafood-it")
	tokens := auth.NewTokenStore(store)
	if err := tokens.SetToken(context.Background(), token); err != nil {
		t.Fatalf("SetToken() error = %v", err)
	}

	cfg, err := config.Default()
	if err != nil {
		t.Fatalf("config.Default() error = %v", err)
	}
	cfg.APIURL = mock.URL()

	board, err := dashboard.NewBoard(cfg, newClient(t, mock, tokens, nil), store, dashboard.WithLogger(zerolog.Nop()))
	if err != nil {
		t.Fatalf("NewBoard() error = %v", err)
	}
	if err := board.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	for _, name := range board.Names() {
		p, err := board.Pipeline(name)
		if err != nil {
			t.Fatalf("Pipeline(%s) error = %v", name, err)
		}
		if state := p.State(); state != pipeline.StateReady {
			t.Errorf("%s state = %s, want ready", name, state)
		}
	}

	n, err := redisClient.Exists(context.Background(), "seafood-it:market_signals_cache").Result()
	if err != nil || n != 1 {
		t.Errorf("market_signals cache missing (n=%d, err=%v)", n, err)
	}
}
