// Package source provides cache.Source implementations for the places
// audio actually comes from: local files (optionally zstd-compressed),
// HTTP endpoints, and fixed in-memory buffers for demos and tests.
package source
