package aggregation

// Merge lays sparse store rows over the dense calendar. Rows are matched by the
// exact bucket instant, so a row whose BucketStart is not a calendar key is never
// placed; the count of such rows is returned for logging. The result always has
// exactly cal.Len() buckets in calendar order.
func Merge(cal Calendar, rows []AggregateRow) ([]AggregateBucket, int) {
	byInstant := make(map[int64]AggregateRow, len(rows))
	for _, row := range rows {
		byInstant[row.BucketStart.UnixNano()] = row
	}

	out := make([]AggregateBucket, len(cal.Keys))
	matched := 0
	for i, key := range cal.Keys {
		out[i] = AggregateBucket{Key: key}
		if row, ok := byInstant[key.UnixNano()]; ok {
			out[i].Fields = row.Fields
			matched++
		}
	}
	return out, len(byInstant) - matched
}
