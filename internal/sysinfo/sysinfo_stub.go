//go:build !linux
// +build !linux

package sysinfo

import "github.com/dgnsrekt/audiocache/pkg/cache"

func totalMemory() uint64 {
	return 0
}

// System returns a probe that samples host-wide memory figures. This
// platform has no such interface; callers should fall back to Runtime.
func System() (cache.MemoryProbe, error) {
	return nil, ErrUnsupported
}
