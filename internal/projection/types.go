package projection

import (
	"math"
	"time"

	"github.com/guregu/null"

	v1 "github.com/xcity-lab/telemetry/internal/api/v1"
	"github.com/xcity-lab/telemetry/internal/core/aggregation"
)

// StatisticsRequest selects one sensor's dense series for a calendar period.
type StatisticsRequest struct {
	SensorID    string
	Period      aggregation.Period
	Granularity aggregation.Granularity
	Location    *time.Location
}

// StatisticsResult holds exactly one bucket per calendar key, in calendar order.
type StatisticsResult struct {
	SensorID string
	Class    aggregation.SensorClass
	Calendar aggregation.Calendar
	Buckets  []aggregation.AggregateBucket
}

// MarshalJSON renders {<resultIdKey>: id, dataPoints: [{day|hour: label, <output>: value}]}.
// Buckets without data carry explicit nulls for every output key.
func (r StatisticsResult) MarshalJSON() ([]byte, error) {
	labelKey := "day"
	if r.Calendar.Granularity == aggregation.GranularityHour {
		labelKey = "hour"
	}

	points := make([]dataPoint, len(r.Buckets))
	for i, b := range r.Buckets {
		points[i] = dataPoint{labelKey: labelKey, label: r.Calendar.Label(b.Key), bucket: b, fields: r.Class.Fields}
	}

	obj := v1.NewObjectWriter()
	obj.Field(r.Class.ResultIDKey, r.SensorID)
	obj.Field("dataPoints", points)
	return obj.Bytes()
}

type dataPoint struct {
	labelKey string
	label    string
	bucket   aggregation.AggregateBucket
	fields   []aggregation.FieldSpec
}

func (p dataPoint) MarshalJSON() ([]byte, error) {
	obj := v1.NewObjectWriter()
	obj.Field(p.labelKey, p.label)
	for _, f := range p.fields {
		v := p.bucket.Value(f.Name)
		if f.Integer {
			obj.Field(f.Output, roundInt(v))
			continue
		}
		obj.Field(f.Output, v)
	}
	return obj.Bytes()
}

func roundInt(v null.Float) null.Int {
	if !v.Valid {
		return null.Int{}
	}
	return null.IntFrom(int64(math.Round(v.Float64)))
}

// DownloadRequest is the body of the multi-device download endpoint.
type DownloadRequest struct {
	RefDevices []string `json:"refDevices"`
	Date       string   `json:"date"`
}

// monthlyQuery binds the monthly statistics query string.
type monthlyQuery struct {
	SensorID string `form:"sensorId"`
	Year     string `form:"year"`
	Month    string `form:"month"`
	TZ       string `form:"tz"`
}

// dailyQuery binds the daily statistics query string.
type dailyQuery struct {
	SensorID string `form:"sensorId"`
	Date     string `form:"date"`
	TZ       string `form:"tz"`
}

// statisticsQuery binds the generic statistics query string.
type statisticsQuery struct {
	SensorID    string `form:"sensorId"`
	Period      string `form:"period"`
	Granularity string `form:"granularity"`
	TZ          string `form:"tz"`
}
