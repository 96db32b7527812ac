package projection

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xcity-lab/telemetry/internal/core/aggregation"
	httperr "github.com/xcity-lab/telemetry/internal/core/errors"
)

// RegisterRoutes registers the statistics endpoints of every class.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	for _, class := range s.catalog.All() {
		base := "/" + class.Route

		r.GET(base+"/statistics", s.HandleStatistics(class))
		r.GET(base+"/monthly-statistics", s.HandleMonthly(class))
		r.GET(base+"/daily-statistics", s.HandleDaily(class))
		r.GET(base+"/daily-statistics/:sensorId", s.HandleDaily(class))
		r.POST(base+"/download-statistics", s.HandleDownload(class))

		// Backward-compatible aliases. Can be removed after dashboards migrate.
		r.GET(base+"/monthly-statics", s.HandleMonthly(class))
		r.GET(base+"/daily-statics", s.HandleDaily(class))
		r.GET(base+"/daily-statics/:sensorId", s.HandleDaily(class))
		r.POST(base+"/download-statics", s.HandleDownload(class))
	}
}

// HandleStatistics handles GET /{class}/statistics
// Query parameters: sensorId, period (YYYY-MM or YYYY-MM-DD), granularity, tz
func (s *Service) HandleStatistics(class aggregation.SensorClass) gin.HandlerFunc {
	return func(c *gin.Context) {
		var query statisticsQuery
		if !bindQuery(c, &query) {
			return
		}
		loc, err := s.location(query.TZ)
		if err != nil {
			writeQueryError(c, class, err)
			return
		}
		period, err := ParsePeriod(query.Period)
		if err != nil {
			writeQueryError(c, class, err)
			return
		}
		granularity := aggregation.GranularityDay
		if period.Day != 0 {
			granularity = aggregation.GranularityHour
		}
		if query.Granularity != "" {
			if granularity, err = aggregation.ParseGranularity(query.Granularity); err != nil {
				writeQueryError(c, class, err)
				return
			}
		}

		res, err := s.GetStatistics(c.Request.Context(), class, StatisticsRequest{
			SensorID:    sensorID(c, class, query.SensorID),
			Period:      period,
			Granularity: granularity,
			Location:    loc,
		})
		if err != nil {
			writeQueryError(c, class, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

// HandleMonthly handles GET /{class}/monthly-statistics
// Query parameters: sensorId, year, month, tz
func (s *Service) HandleMonthly(class aggregation.SensorClass) gin.HandlerFunc {
	return func(c *gin.Context) {
		var query monthlyQuery
		if !bindQuery(c, &query) {
			return
		}
		loc, err := s.location(query.TZ)
		if err != nil {
			writeQueryError(c, class, err)
			return
		}
		year, err := strconv.Atoi(query.Year)
		if err != nil {
			writeQueryError(c, class, invalidQueryf("year %q must be an integer", query.Year))
			return
		}
		month, err := strconv.Atoi(query.Month)
		if err != nil {
			writeQueryError(c, class, invalidQueryf("month %q must be an integer", query.Month))
			return
		}

		res, err := s.MonthlyStatistics(c.Request.Context(), class, sensorID(c, class, query.SensorID), year, month, loc)
		if err != nil {
			writeQueryError(c, class, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

// HandleDaily handles GET /{class}/daily-statistics[/:sensorId]
// Query parameters: sensorId (when not in the path), date, tz
func (s *Service) HandleDaily(class aggregation.SensorClass) gin.HandlerFunc {
	return func(c *gin.Context) {
		var query dailyQuery
		if !bindQuery(c, &query) {
			return
		}
		loc, err := s.location(query.TZ)
		if err != nil {
			writeQueryError(c, class, err)
			return
		}
		if query.Date == "" {
			writeQueryError(c, class, invalidQueryf("date is required"))
			return
		}

		res, err := s.DailyStatistics(c.Request.Context(), class, sensorID(c, class, query.SensorID), query.Date, loc)
		if err != nil {
			writeQueryError(c, class, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

// HandleDownload handles POST /{class}/download-statistics
// Body: {"refDevices": [...], "date": "YYYY-MM-DD"}; query parameter tz.
func (s *Service) HandleDownload(class aggregation.SensorClass) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req DownloadRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
				ErrorType: httperr.HttpInvalidPayloadError,
				Message:   "Invalid download request",
				Details:   err.Error(),
			})
			return
		}
		loc, err := s.location(c.Query("tz"))
		if err != nil {
			writeQueryError(c, class, err)
			return
		}

		res, err := s.DownloadStatistics(c.Request.Context(), class, req, loc)
		if err != nil {
			writeQueryError(c, class, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

// location resolves the tz parameter, falling back to the service default.
func (s *Service) location(tz string) (*time.Location, error) {
	if tz == "" {
		return s.defaultLoc, nil
	}
	return aggregation.ParseTimezone(tz)
}

// sensorID prefers the path parameter, then sensorId, then the class result key
// (refDevice for traffic), then deviceId.
func sensorID(c *gin.Context, class aggregation.SensorClass, fromQuery string) string {
	if id := c.Param("sensorId"); id != "" {
		return id
	}
	if fromQuery != "" {
		return fromQuery
	}
	if id := c.Query(class.ResultIDKey); id != "" {
		return id
	}
	return c.Query("deviceId")
}

func bindQuery(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindQuery(dst); err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidQueryError,
			Message:   "Invalid query parameters",
			Details:   err.Error(),
		})
		return false
	}
	return true
}

func writeQueryError(c *gin.Context, class aggregation.SensorClass, err error) {
	status, errorType := httperr.Classify(err, httperr.HttpInvalidQueryError)
	message := "Invalid statistics query"
	switch {
	case status == http.StatusNotFound:
		message = "Unknown device"
	case status >= http.StatusInternalServerError:
		slog.Error("Failed to query statistics", "class", class.Name, "error", err)
		message = "Failed to query statistics"
	}
	c.JSON(status, httperr.ErrorResponse{
		ErrorType: errorType,
		Message:   message,
		Details:   err.Error(),
	})
}
