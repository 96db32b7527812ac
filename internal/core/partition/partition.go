package partition

import "hash/fnv"

// Count is the fixed number of partitions sensor series are spread over.
const Count = 32

// For returns the partition of a sensor id. The same id always maps to the
// same partition, so all readings of one series share it.
func For(sensorID string) int {
	h := fnv.New32a()
	h.Write([]byte(sensorID))
	return int(h.Sum32() % Count)
}
