package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/xcity-lab/telemetry/internal/core/storage"
)

// DeviceAdapter implements storage.DeviceDirectory over the devices table.
// It shares the *sql.DB owned by Adapter.
type DeviceAdapter struct {
	db *sql.DB
}

func NewDeviceAdapter(db *sql.DB) *DeviceAdapter {
	return &DeviceAdapter{db: db}
}

// Lookup returns storage.ErrDeviceNotFound for unknown ids.
func (a *DeviceAdapter) Lookup(ctx context.Context, id string) (storage.Device, error) {
	var d storage.Device
	err := a.db.QueryRowContext(ctx, queryLookupDevice, id).Scan(&d.ID, &d.Name, &d.Class, &d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Device{}, fmt.Errorf("%w: %q", storage.ErrDeviceNotFound, id)
	}
	if err != nil {
		return storage.Device{}, storage.Unavailable("lookup device", err)
	}
	d.CreatedAt = d.CreatedAt.UTC()
	return d, nil
}

// Register inserts or renames a device. Device management lives outside this
// service; Register exists for seeding and tests.
func (a *DeviceAdapter) Register(ctx context.Context, d storage.Device) error {
	if _, err := a.db.ExecContext(ctx, queryUpsertDevice, d.ID, d.Name, d.Class, d.CreatedAt.UTC()); err != nil {
		return storage.Unavailable("register device", err)
	}
	return nil
}
