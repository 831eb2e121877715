//go:build integration

package infra

// Integration tests for the fail-soft cache against real Redis via
// testcontainers. Run with: go test -tags integration ./internal/infra/... -v

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
)

type cachedConductor struct {
	DNI    string `json:"dni"`
	Nombre string `json:"nombre"`
}

func setupCache(t *testing.T) *Cache {
	t.Helper()
	ctx := context.Background()

	rdC, err := tcRedis.RunContainer(ctx,
		testcontainers.WithImage("redis:7-alpine"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	url, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	rdb, err := NewRedis(url)
	require.NoError(t, err)

	return NewCache(rdb)
}

func TestCache_SetGetRoundtrip(t *testing.T) {
	cache := setupCache(t)
	ctx := context.Background()

	cache.Set(ctx, "conductor:e1:12345678Z", &cachedConductor{DNI: "12345678Z", Nombre: "Juan"}, time.Minute)

	var got cachedConductor
	require.True(t, cache.Get(ctx, "conductor:e1:12345678Z", &got))
	assert.Equal(t, "Juan", got.Nombre)

	assert.False(t, cache.Get(ctx, "conductor:e1:missing", &got), "absent key is a miss")
}

func TestCache_TTLExpiry(t *testing.T) {
	cache := setupCache(t)
	ctx := context.Background()

	cache.Set(ctx, "conductor:e1:fugaz", &cachedConductor{DNI: "X"}, time.Second)

	var got cachedConductor
	require.True(t, cache.Get(ctx, "conductor:e1:fugaz", &got))

	time.Sleep(1500 * time.Millisecond)
	assert.False(t, cache.Get(ctx, "conductor:e1:fugaz", &got), "entry must expire with its TTL")
}

func TestCache_DeleteByPattern(t *testing.T) {
	cache := setupCache(t)
	ctx := context.Background()

	cache.Set(ctx, "conductor:e1:a", &cachedConductor{DNI: "A"}, time.Minute)
	cache.Set(ctx, "conductor:e1:b", &cachedConductor{DNI: "B"}, time.Minute)
	cache.Set(ctx, "conductor:e2:c", &cachedConductor{DNI: "C"}, time.Minute)

	cache.DeleteByPattern(ctx, "conductor:e1:*")

	var got cachedConductor
	assert.False(t, cache.Get(ctx, "conductor:e1:a", &got))
	assert.False(t, cache.Get(ctx, "conductor:e1:b", &got))
	assert.True(t, cache.Get(ctx, "conductor:e2:c", &got), "other empresas' entries survive")
}
