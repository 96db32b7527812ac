package partition

import (
	"strconv"
	"testing"
)

func TestFor_Determinism(t *testing.T) {
	id := For("urn:ngsi-ld:AirQualityObserved:hcm-01")
	for i := 0; i < 100; i++ {
		if got := For("urn:ngsi-ld:AirQualityObserved:hcm-01"); got != id {
			t.Fatalf("For() = %d on iteration %d, want %d", got, i, id)
		}
	}
}

func TestFor_Range(t *testing.T) {
	inputs := []string{"", "a", "cam-7", "urn:ngsi-ld:TrafficFlowObserved:cam-7", "https://smartdatamodels.org/very/long/sensor/id"}
	for _, s := range inputs {
		p := For(s)
		if p < 0 || p >= Count {
			t.Errorf("For(%q) = %d, want [0, %d)", s, p, Count)
		}
	}
}

func TestFor_Distribution(t *testing.T) {
	// 1000 sensors over 32 partitions should touch nearly all of them.
	seen := make(map[int]struct{})
	for i := 0; i < 1000; i++ {
		seen[For("sensor-"+strconv.Itoa(i))] = struct{}{}
	}
	if len(seen) < Count-2 {
		t.Errorf("only %d distinct partitions from 1000 inputs, want >= %d", len(seen), Count-2)
	}
}
