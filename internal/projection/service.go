package projection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/xcity-lab/telemetry/internal/core/aggregation"
	coreerr "github.com/xcity-lab/telemetry/internal/core/errors"
	"github.com/xcity-lab/telemetry/internal/core/storage"
	"github.com/xcity-lab/telemetry/internal/metrics"
)

const (
	defaultMaxDownloadDevices = 50
	downloadConcurrency       = 8
)

var ErrInvalidQuery = aggregation.ErrInvalidQuery

type Service struct {
	catalog            *aggregation.Catalog
	store              storage.ReadingStore
	devices            storage.DeviceDirectory
	defaultLoc         *time.Location
	maxDownloadDevices int

	nowFn func() time.Time
}

// NewService wires the read path. defaultLoc is used when a query carries no tz.
func NewService(
	catalog *aggregation.Catalog,
	store storage.ReadingStore,
	devices storage.DeviceDirectory,
	defaultLoc *time.Location,
	maxDownloadDevices int,
) *Service {
	if catalog == nil {
		panic("projection: catalog must not be nil")
	}
	if store == nil {
		panic("projection: store must not be nil")
	}
	if defaultLoc == nil {
		defaultLoc = time.UTC
	}
	if maxDownloadDevices <= 0 {
		maxDownloadDevices = defaultMaxDownloadDevices
	}
	return &Service{
		catalog:            catalog,
		store:              store,
		devices:            devices,
		defaultLoc:         defaultLoc,
		maxDownloadDevices: maxDownloadDevices,
		nowFn:              time.Now,
	}
}

// GetStatistics returns the dense series for one sensor: the calendar for the
// period with store aggregates laid over it. Buckets without readings are null.
func (s *Service) GetStatistics(ctx context.Context, class aggregation.SensorClass, req StatisticsRequest) (*StatisticsResult, error) {
	start := s.nowFn()

	sensorID := strings.TrimSpace(req.SensorID)
	if sensorID == "" {
		return nil, invalidQueryf("sensorId is required")
	}
	loc := req.Location
	if loc == nil {
		loc = s.defaultLoc
	}

	cal, err := aggregation.Generate(req.Period, req.Granularity, loc)
	if err != nil {
		return nil, err
	}

	if err := s.checkDevice(ctx, class, sensorID); err != nil {
		return nil, err
	}

	rows, err := s.store.Aggregate(ctx, storage.AggregateQuery{
		SensorID:    sensorID,
		Class:       class.Name,
		Start:       cal.Start,
		End:         cal.End,
		Granularity: cal.Granularity,
		Location:    loc,
		Fields:      class.Fields,
	})
	if err != nil {
		metrics.StoreErrors.WithLabelValues("aggregate").Inc()
		if !errors.Is(err, coreerr.ErrStoreUnavailable) {
			err = storage.Unavailable("aggregate readings", err)
		}
		return nil, err
	}

	buckets, unmatched := aggregation.Merge(cal, rows)
	if unmatched > 0 {
		metrics.UnmatchedRows.WithLabelValues(class.Name).Add(float64(unmatched))
		slog.Warn("Store returned rows outside the calendar",
			"class", class.Name,
			"sensor_id", sensorID,
			"period", req.Period.String(),
			"unmatched", unmatched)
	}

	metrics.StatisticsQueries.WithLabelValues(class.Name, string(cal.Granularity)).Inc()
	metrics.StatisticsLatency.WithLabelValues(string(cal.Granularity)).Observe(s.nowFn().Sub(start).Seconds())

	return &StatisticsResult{
		SensorID: sensorID,
		Class:    class,
		Calendar: cal,
		Buckets:  buckets,
	}, nil
}

// MonthlyStatistics returns one bucket per day of the month.
func (s *Service) MonthlyStatistics(ctx context.Context, class aggregation.SensorClass, sensorID string, year, month int, loc *time.Location) (*StatisticsResult, error) {
	p, err := aggregation.MonthPeriod(year, month)
	if err != nil {
		return nil, err
	}
	return s.GetStatistics(ctx, class, StatisticsRequest{
		SensorID:    sensorID,
		Period:      p,
		Granularity: aggregation.GranularityDay,
		Location:    loc,
	})
}

// DailyStatistics returns the 24 hourly buckets of one date.
func (s *Service) DailyStatistics(ctx context.Context, class aggregation.SensorClass, sensorID, date string, loc *time.Location) (*StatisticsResult, error) {
	p, err := aggregation.DayPeriod(date)
	if err != nil {
		return nil, err
	}
	return s.GetStatistics(ctx, class, StatisticsRequest{
		SensorID:    sensorID,
		Period:      p,
		Granularity: aggregation.GranularityHour,
		Location:    loc,
	})
}

// DownloadStatistics computes daily statistics for several devices concurrently.
// Results keep the request order; any failure fails the whole download.
func (s *Service) DownloadStatistics(ctx context.Context, class aggregation.SensorClass, req DownloadRequest, loc *time.Location) ([]*StatisticsResult, error) {
	if len(req.RefDevices) == 0 {
		return nil, invalidQueryf("refDevices is required")
	}
	if len(req.RefDevices) > s.maxDownloadDevices {
		return nil, invalidQueryf("refDevices has %d entries, at most %d allowed", len(req.RefDevices), s.maxDownloadDevices)
	}
	if req.Date == "" {
		return nil, invalidQueryf("date is required")
	}
	if _, err := aggregation.DayPeriod(req.Date); err != nil {
		return nil, err
	}

	results := make([]*StatisticsResult, len(req.RefDevices))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(downloadConcurrency)
	for i, id := range req.RefDevices {
		g.Go(func() error {
			res, err := s.DailyStatistics(gctx, class, id, req.Date, loc)
			if err != nil {
				return fmt.Errorf("device %s: %w", id, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// ParsePeriod accepts YYYY-MM (whole month) or YYYY-MM-DD (single day).
func ParsePeriod(s string) (aggregation.Period, error) {
	if len(s) == len("2006-01") {
		t, err := time.Parse("2006-01", s)
		if err != nil {
			return aggregation.Period{}, invalidQueryf("period %q must be YYYY-MM or YYYY-MM-DD", s)
		}
		return aggregation.MonthPeriod(t.Year(), int(t.Month()))
	}
	return aggregation.DayPeriod(s)
}

func (s *Service) checkDevice(ctx context.Context, class aggregation.SensorClass, sensorID string) error {
	if !class.RequiresDevice {
		return nil
	}
	if s.devices == nil {
		return storage.ErrDeviceNotFound
	}
	if _, err := s.devices.Lookup(ctx, sensorID); err != nil {
		return err
	}
	return nil
}

func invalidQueryf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidQuery, fmt.Sprintf(format, args...))
}
