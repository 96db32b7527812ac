// Package cache wraps a DeviceDirectory with an in-memory LRU.
// golang-lru evicts the least recently used devices once the cache is full.
package cache

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru"

	"github.com/xcity-lab/telemetry/internal/core/storage"
	"github.com/xcity-lab/telemetry/internal/metrics"
)

// Directory caches successful lookups. Misses and failures are not cached, so a
// device registered after a miss is visible on the next lookup.
type Directory struct {
	next  storage.DeviceDirectory
	cache *lru.Cache
}

func NewDirectory(next storage.DeviceDirectory, size int) (*Directory, error) {
	c, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("device cache: %w", err)
	}
	return &Directory{next: next, cache: c}, nil
}

func (d *Directory) Lookup(ctx context.Context, id string) (storage.Device, error) {
	if v, ok := d.cache.Get(id); ok {
		metrics.DeviceCacheLookups.WithLabelValues("hit").Inc()
		return v.(storage.Device), nil
	}
	metrics.DeviceCacheLookups.WithLabelValues("miss").Inc()

	dev, err := d.next.Lookup(ctx, id)
	if err != nil {
		return storage.Device{}, err
	}

	d.cache.Add(id, dev)
	return dev, nil
}

// Purge drops every cached device.
func (d *Directory) Purge() {
	d.cache.Purge()
}

// Len returns the number of cached devices.
func (d *Directory) Len() int {
	return d.cache.Len()
}
