package migrations

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	src, err := Source()
	require.NoError(t, err)
	defer src.Close()

	first, err := src.First()
	require.NoError(t, err)
	require.Equal(t, uint(1), first)

	versions := []uint{first}
	for v := first; ; {
		next, err := src.Next(v)
		if errors.Is(err, fs.ErrNotExist) {
			break
		}
		require.NoError(t, err)
		versions = append(versions, next)
		v = next
	}
	require.Equal(t, []uint{1, 2}, versions)

	for _, v := range versions {
		up, _, err := src.ReadUp(v)
		require.NoError(t, err, "up migration %d", v)
		up.Close()
		down, _, err := src.ReadDown(v)
		require.NoError(t, err, "down migration %d", v)
		down.Close()
	}
}

func TestReadingsMigrationDefinesAggregateIndex(t *testing.T) {
	data, err := MigrationFiles.ReadFile("000001_create_readings.up.sql")
	require.NoError(t, err)
	require.Contains(t, string(data), "ON readings (sensor_id, class, observed_at)")
	require.Contains(t, string(data), "fields      JSONB")
}
