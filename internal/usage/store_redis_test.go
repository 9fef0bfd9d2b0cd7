package usage_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"openlabel-backend/internal/usage"
)

func setupRedis(t *testing.T) *usage.RedisStore {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, container.Terminate(ctx)) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	store, err := usage.NewRedisStore("redis://" + host + ":" + port.Port())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Ping(ctx))
	return store
}

func TestRedisStore_IncrementAndReset(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	store := setupRedis(t)
	ctx := context.Background()

	n, err := store.Get(ctx, usage.CategoryLLM, "2026-03-01")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	for i := 1; i <= 3; i++ {
		n, err = store.Increment(ctx, usage.CategoryLLM, "2026-03-01")
		require.NoError(t, err)
		assert.Equal(t, i, n)
	}

	other, err := store.Get(ctx, usage.CategoryLLM, "2026-03-02")
	require.NoError(t, err)
	assert.Equal(t, 0, other, "a new date starts a new counter")

	require.NoError(t, store.Reset(ctx, usage.CategoryLLM, "2026-03-01"))
	n, err = store.Get(ctx, usage.CategoryLLM, "2026-03-01")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestRedisStore_GatesService(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	store := setupRedis(t)
	svc := usage.NewService(store, map[string]int{usage.CategoryOCR: 1}, time.UTC)
	ctx := context.Background()

	require.NoError(t, svc.Allow(ctx, usage.CategoryOCR))
	_, err := svc.Record(ctx, usage.CategoryOCR)
	require.NoError(t, err)
	assert.ErrorIs(t, svc.Allow(ctx, usage.CategoryOCR), usage.ErrLimitReached)
}
