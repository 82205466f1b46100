// Package cache provides a generic LRU cache with optional per-entry expiry.
//
// The API client keeps fetched location option lists here so that moving back
// and forth between dropdowns does not refetch the same directory page:
//
//	c := cache.NewLRUCache[string, []Option](256, cache.WithTTL(10*time.Minute))
//	c.Put("districts:12", opts)
//	opts, ok := c.Get("districts:12")
//
// Expired entries are dropped lazily on Get.
package cache
