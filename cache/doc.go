// Package cache provides versioned cache invalidation with stampede
// protection and adaptive hot-key promotion.
//
// Each cacheable domain owns a Namespace whose version counter lives in the
// shared kv store. Read keys embed the version; a write bumps the counter
// once and every previously cached key becomes unaddressable, expiring on
// its own TTL. There is no pattern enumeration on the write path.
//
// The Loader is the read path: it checks the cache, guards recomputation
// with a short-TTL soft lock, caches not-found results as negative markers,
// and extends the TTL of keys accessed frequently within a window.
package cache
