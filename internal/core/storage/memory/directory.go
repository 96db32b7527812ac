package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/xcity-lab/telemetry/internal/core/storage"
)

// Directory is a map-backed storage.DeviceDirectory.
type Directory struct {
	mu      sync.RWMutex
	devices map[string]storage.Device
}

func NewDirectory(devices ...storage.Device) *Directory {
	d := &Directory{devices: make(map[string]storage.Device, len(devices))}
	for _, dev := range devices {
		d.devices[dev.ID] = dev
	}
	return d
}

func (d *Directory) Lookup(ctx context.Context, id string) (storage.Device, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	dev, ok := d.devices[id]
	if !ok {
		return storage.Device{}, fmt.Errorf("%w: %q", storage.ErrDeviceNotFound, id)
	}
	return dev, nil
}

// Register adds or replaces a device.
func (d *Directory) Register(ctx context.Context, dev storage.Device) error {
	d.mu.Lock()
	d.devices[dev.ID] = dev
	d.mu.Unlock()
	return nil
}
