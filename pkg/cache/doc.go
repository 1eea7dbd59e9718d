// Package cache provides a read-through cache for catalog page responses
// with an in-memory LRU tier in front of an optional Redis backend.
//
// The catalog API sends no cache-control headers, so entries expire after
// a fixed TTL instead of honoring server-driven freshness. Keys are
// deterministic over the page request parameters (category, page,
// per-page, sort), so repeated runs within the TTL reuse responses
// instead of hitting the network.
//
// Example usage:
//
//	manager := cache.NewManager(cache.Config{Redis: redisClient})
//	entry, err := manager.Get(ctx, key)
//	if err == cache.ErrCacheMiss {
//		// fetch from network, then manager.Set(ctx, key, body)
//	}
package cache
