package ingestion

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	v1 "github.com/xcity-lab/telemetry/internal/api/v1"
	"github.com/xcity-lab/telemetry/internal/core/aggregation"
	coreerr "github.com/xcity-lab/telemetry/internal/core/errors"
	"github.com/xcity-lab/telemetry/internal/core/storage"
	"github.com/xcity-lab/telemetry/internal/metrics"
	"github.com/xcity-lab/telemetry/internal/publish"
)

const defaultPublishTimeout = 2 * time.Second

type Service struct {
	catalog          *aggregation.Catalog
	store            storage.ReadingStore
	devices          storage.DeviceDirectory
	publisher        publish.Publisher
	publishTimeout   time.Duration
	maxBodySizeBytes int

	now   func() time.Time
	newID func() string
}

// NewService wires the write path. devices may be nil when no class requires
// device metadata; readings are then published without a device name.
func NewService(
	catalog *aggregation.Catalog,
	store storage.ReadingStore,
	devices storage.DeviceDirectory,
	pub publish.Publisher,
	publishTimeout time.Duration,
	maxBodySizeMB int,
) *Service {
	if catalog == nil {
		panic("ingestion: catalog must not be nil")
	}
	if store == nil {
		panic("ingestion: store must not be nil")
	}
	if pub == nil {
		panic("ingestion: publisher must not be nil")
	}
	if publishTimeout <= 0 {
		publishTimeout = defaultPublishTimeout
	}
	if maxBodySizeMB <= 0 {
		maxBodySizeMB = 1 // default to 1MB
	}
	return &Service{
		catalog:          catalog,
		store:            store,
		devices:          devices,
		publisher:        pub,
		publishTimeout:   publishTimeout,
		maxBodySizeBytes: maxBodySizeMB * 1024 * 1024,
		now:              func() time.Time { return time.Now().UTC() },
		newID:            uuid.NewString,
	}
}

// RegisterRoutes registers one notify endpoint per sensor class.
// mw runs before the handler (rate limiting).
func (s *Service) RegisterRoutes(r gin.IRouter, mw ...gin.HandlerFunc) {
	for _, class := range s.catalog.All() {
		handlers := append(append([]gin.HandlerFunc{}, mw...), s.NotifyHandler(class))
		r.POST("/"+class.Route+"/notify", handlers...)
	}
}

// Ingest normalizes, stores and publishes one notification.
//
// Nothing is written when normalization or the device check fails. Once the
// reading is stored the call succeeds: publish failures are only logged.
func (s *Service) Ingest(ctx context.Context, class aggregation.SensorClass, n *v1.Notification) (*v1.SensorReading, error) {
	reading, err := Normalize(class, n)
	if err != nil {
		metrics.NotificationsRejected.WithLabelValues(class.Name, "invalid").Inc()
		return nil, err
	}

	if err := s.resolveDevice(ctx, class, reading); err != nil {
		metrics.NotificationsRejected.WithLabelValues(class.Name, "unknown_device").Inc()
		return nil, err
	}

	reading.ID = s.newID()
	reading.ReceivedAt = s.now()

	if err := s.store.Append(ctx, reading); err != nil {
		metrics.StoreErrors.WithLabelValues("append").Inc()
		if !errors.Is(err, coreerr.ErrStoreUnavailable) {
			err = storage.Unavailable("append reading", err)
		}
		return nil, err
	}
	metrics.ReadingsIngested.WithLabelValues(class.Name).Inc()

	s.publish(ctx, class, reading)
	return reading, nil
}

// resolveDevice attaches the device name. Lookup failures only matter for
// classes that require registered devices.
func (s *Service) resolveDevice(ctx context.Context, class aggregation.SensorClass, reading *v1.SensorReading) error {
	if s.devices == nil {
		if class.RequiresDevice {
			return storage.ErrDeviceNotFound
		}
		return nil
	}

	dev, err := s.devices.Lookup(ctx, reading.SensorID)
	if err != nil {
		if class.RequiresDevice {
			return err
		}
		if !errors.Is(err, coreerr.ErrNotFound) {
			slog.Warn("Device lookup failed, publishing without device name",
				"sensor_id", reading.SensorID,
				"error", err)
		}
		return nil
	}
	reading.DeviceName = dev.Name
	return nil
}

func (s *Service) publish(ctx context.Context, class aggregation.SensorClass, reading *v1.SensorReading) {
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.publishTimeout)
	defer cancel()

	if err := s.publisher.Publish(pubCtx, class.Topic, reading); err != nil {
		slog.Warn("Live publish failed; reading already stored",
			"sensor_id", reading.SensorID,
			"reading_id", reading.ID,
			"topic", class.Topic,
			"error", err)
	}
}
