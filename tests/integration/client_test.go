package integration

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/stocktide/inventory-client/internal/testutil"
	"github.com/stocktide/inventory-client/pkg/client"
	"github.com/stocktide/inventory-client/pkg/pagination"
	"github.com/stocktide/inventory-client/pkg/ratelimit"
)

// setupRedis starts a Redis container for integration testing.
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
		t.Skipf("Failed to start Redis container: %v", err)
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

func newClient(t *testing.T, baseURL string, redisClient *redis.Client) *client.Client {
	t.Helper()

	cfg := client.DefaultConfig("test-token", "tenant-1")
	cfg.BaseURL = baseURL
	cfg.Redis = redisClient
	cfg.Throttle = ratelimit.Config{MinSpacing: time.Millisecond}
	cfg.Retry = client.RetryPolicy{MaxRetries: 3, DefaultDelay: 10 * time.Millisecond}

	c, err := client.New(cfg)
	if err != nil {
		t.Fatalf("client.New: %v", err)
	}
	return c
}

func TestIntegration_CachedFetchRevalidates(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockInventory()
	defer mock.Close()

	const body = `{"value":[{"assetId":"a-1"},{"assetId":"a-2"}]}`
	conditionalHits := 0
	mock.Handle("/v1/assets", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") == `"v1"` {
			conditionalHits++
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		w.Header().Set("Expires", time.Now().Add(time.Minute).UTC().Format(http.TimeFormat))
		w.Write([]byte(body))
	})

	c := newClient(t, mock.URL(), redisClient)
	ctx := context.Background()

	first, err := c.Get(ctx, "/v1/assets", nil)
	if err != nil {
		t.Fatalf("first Get: %v", err)
	}
	second, err := c.Get(ctx, "/v1/assets", nil)
	if err != nil {
		t.Fatalf("second Get: %v", err)
	}

	if string(first) != body || string(second) != body {
		t.Errorf("bodies differ from served payload")
	}
	if conditionalHits != 1 {
		t.Errorf("conditional revalidations = %d, want 1", conditionalHits)
	}
	if mock.RequestCount != 2 {
		t.Errorf("server requests = %d, want 2", mock.RequestCount)
	}
}

func TestIntegration_PaginatedWalk(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockInventory()
	defer mock.Close()

	mock.ServeCollection("/v1/assets", []string{
		`{"assetId":"a-1"}`,
		`{"assetId":"a-2"}`,
		`{"assetId":"a-3"}`,
		`{"assetId":"a-4"}`,
		`{"assetId":"a-5"}`,
	})
	mock.SetUsage(100, 1000)

	c := newClient(t, mock.URL(), redisClient)
	walker := pagination.NewWalker(c, 2, zerolog.Nop())

	items, err := walker.FetchAll(context.Background(), "/v1/assets", nil)
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}

	if len(items) != 5 {
		t.Errorf("items = %d, want 5", len(items))
	}
	// Pages of 2,2,1 then the empty page that terminates the walk.
	if mock.RequestCount != 4 {
		t.Errorf("page fetches = %d, want 4", mock.RequestCount)
	}
}

func TestIntegration_RejectionRetry(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockInventory()
	defer mock.Close()

	mock.ServeRejections("/v1/locations", 2, "0", `{"value":[]}`)

	c := newClient(t, mock.URL(), redisClient)

	if _, err := c.Get(context.Background(), "/v1/locations", nil); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if mock.RequestCount != 3 {
		t.Errorf("server requests = %d, want 3 (two rejections then success)", mock.RequestCount)
	}
}
