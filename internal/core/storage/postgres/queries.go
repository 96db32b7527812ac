package postgres

// SQL for reading and device storage.

const (
	// queryAppendReading inserts one reading. No conflict clause: duplicate
	// notifications for the same instant are stored as separate rows.
	queryAppendReading = `
		INSERT INTO readings (
			id, sensor_id, class, observed_at, received_at, fields
		)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	// queryAggregateTemplate groups one sensor's readings by local-time truncation.
	// date_trunc(unit, timestamptz, zone) returns the UTC instant of the local
	// bucket start, the same mapping as aggregation.BucketFor.
	// %s is the generated list of per-field reducers.
	queryAggregateTemplate = `
		SELECT
			date_trunc($1, observed_at, $2) AS bucket_start%s
		FROM readings
		WHERE sensor_id = $3
		  AND class = $4
		  AND observed_at >= $5
		  AND observed_at < $6
		GROUP BY bucket_start
		ORDER BY bucket_start ASC
	`

	queryLookupDevice = `
		SELECT id, name, class, created_at
		FROM devices
		WHERE id = $1
	`

	queryUpsertDevice = `
		INSERT INTO devices (id, name, class, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			name  = EXCLUDED.name,
			class = EXCLUDED.class
	`

	querySchemaTableExists = `
		SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_name = $1
		)
	`
)
