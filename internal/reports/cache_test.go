package reports

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func testCache(t *testing.T) *Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute)
}

func TestCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	cache := testCache(t)

	_, ok := cache.GetTrialBalance(ctx, 1, "2026-06-30:")
	require.False(t, ok)

	report := BuildTrialBalance(time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC), sampleBalances())
	cache.SetTrialBalance(ctx, 1, "2026-06-30:", report)

	cached, ok := cache.GetTrialBalance(ctx, 1, "2026-06-30:")
	require.True(t, ok)
	require.True(t, cached.IsBalanced)
	require.Len(t, cached.Groups, 3)
	require.Equal(t, report.TotalDebit.StringFixed(2), cached.TotalDebit.StringFixed(2))
}

func TestCacheIsTenantScoped(t *testing.T) {
	ctx := context.Background()
	cache := testCache(t)

	report := BuildTrialBalance(time.Now(), sampleBalances())
	cache.SetTrialBalance(ctx, 1, "x", report)

	_, ok := cache.GetTrialBalance(ctx, 2, "x")
	require.False(t, ok)
}

func TestJournalPostedInvalidates(t *testing.T) {
	ctx := context.Background()
	cache := testCache(t)

	report := BuildTrialBalance(time.Now(), sampleBalances())
	cache.SetTrialBalance(ctx, 1, "x", report)
	cache.SetTrialBalance(ctx, 2, "x", report)

	cache.JournalPosted(ctx, 1)

	_, ok := cache.GetTrialBalance(ctx, 1, "x")
	require.False(t, ok)

	// Other tenants keep their cached reports.
	_, ok = cache.GetTrialBalance(ctx, 2, "x")
	require.True(t, ok)
}
