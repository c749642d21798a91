// Package cache provides a bounded in-memory cache for decoded audio
// buffers with playback-aware eviction. It deduplicates concurrent load
// requests per item, supports cancellation of in-flight reads, and evicts
// entries under byte and item-count budgets while protecting buffers
// needed for imminent playback.
package cache
