package reports

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache keeps trial balance reports in redis for a short window. Keys
// embed a per-tenant version counter; bumping the version on journal
// posting orphans every cached report for that tenant at once.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) versionKey(tenantID int64) string {
	return fmt.Sprintf("reports:tb:ver:%d", tenantID)
}

func (c *Cache) key(ctx context.Context, tenantID int64, suffix string) string {
	version, err := c.client.Get(ctx, c.versionKey(tenantID)).Int64()
	if err != nil {
		version = 0
	}
	return fmt.Sprintf("reports:tb:%d:%d:%s", tenantID, version, suffix)
}

// GetTrialBalance returns the cached report and whether it was present.
// Cache failures read as misses.
func (c *Cache) GetTrialBalance(ctx context.Context, tenantID int64, suffix string) (TrialBalance, bool) {
	raw, err := c.client.Get(ctx, c.key(ctx, tenantID, suffix)).Bytes()
	if err != nil {
		return TrialBalance{}, false
	}
	var report TrialBalance
	if err := json.Unmarshal(raw, &report); err != nil {
		return TrialBalance{}, false
	}
	return report, true
}

func (c *Cache) SetTrialBalance(ctx context.Context, tenantID int64, suffix string, report TrialBalance) {
	raw, err := json.Marshal(report)
	if err != nil {
		return
	}
	c.client.Set(ctx, c.key(ctx, tenantID, suffix), raw, c.ttl)
}

// JournalPosted invalidates the tenant's cached reports. Implements the
// journal engine's post listener.
func (c *Cache) JournalPosted(ctx context.Context, tenantID int64) {
	c.client.Incr(ctx, c.versionKey(tenantID))
}
