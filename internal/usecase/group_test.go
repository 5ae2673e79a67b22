package usecase

import (
	"math"
	"testing"

	"github.com/timur-ship-it/marketdata-dashboard/internal/domain/models"
)

func recordSet(records ...models.Record) *models.RecordSet {
	return models.NewRecordSet("test", "id", records)
}

func TestGroupMean(t *testing.T) {
	rs := recordSet(
		models.Record{"loc": "Downtown", "ppsf": "1000"},
		models.Record{"loc": "Downtown", "ppsf": "1400"},
		models.Record{"loc": "Marina", "ppsf": 900.0},
	)

	got := GroupMean(rs, "loc", "ppsf")
	if len(got) != 2 {
		t.Fatalf("groups = %d, want 2", len(got))
	}
	if math.Abs(got["Downtown"]-1200) > 1e-9 {
		t.Fatalf("Downtown mean = %v, want 1200", got["Downtown"])
	}
	if math.Abs(got["Marina"]-900) > 1e-9 {
		t.Fatalf("Marina mean = %v, want 900", got["Marina"])
	}
}

func TestGroupMeanOrderIndependent(t *testing.T) {
	forward := recordSet(
		models.Record{"loc": "A", "v": 1.0},
		models.Record{"loc": "A", "v": 3.0},
		models.Record{"loc": "B", "v": 5.0},
	)
	reversed := recordSet(
		models.Record{"loc": "B", "v": 5.0},
		models.Record{"loc": "A", "v": 3.0},
		models.Record{"loc": "A", "v": 1.0},
	)

	a := GroupMean(forward, "loc", "v")
	b := GroupMean(reversed, "loc", "v")
	if len(a) != len(b) {
		t.Fatalf("group counts differ: %d vs %d", len(a), len(b))
	}
	for g, v := range a {
		if math.Abs(v-b[g]) > 1e-9 {
			t.Fatalf("group %s differs by order: %v vs %v", g, v, b[g])
		}
	}
}

func TestGroupMeanDropsMalformed(t *testing.T) {
	rs := recordSet(
		models.Record{"loc": "Downtown", "v": 10.0},
		models.Record{"v": 999.0},                      // no group
		models.Record{"loc": "Downtown"},               // no value
		models.Record{"loc": "Downtown", "v": "junk"},  // unparseable
		models.Record{"loc": "", "v": 5.0},             // blank group
	)

	got := GroupMean(rs, "loc", "v")
	if len(got) != 1 {
		t.Fatalf("groups = %d, want 1", len(got))
	}
	if math.Abs(got["Downtown"]-10) > 1e-9 {
		t.Fatalf("Downtown mean = %v, want 10", got["Downtown"])
	}
}

func TestGroupMeanRatio(t *testing.T) {
	rs := recordSet(
		models.Record{"loc": "Downtown", "price": "1000000", "area": "1000"},
		models.Record{"loc": "Downtown", "price": "700000", "area": "500"},
		models.Record{"loc": "Downtown", "price": "100", "area": "0"}, // dropped
	)

	got := GroupMeanRatio(rs, "loc", "price", "area")
	// (1000 + 1400) / 2
	if math.Abs(got["Downtown"]-1200) > 1e-9 {
		t.Fatalf("Downtown ratio mean = %v, want 1200", got["Downtown"])
	}
}

func TestAggregatedMetricKeysSorted(t *testing.T) {
	m := models.AggregatedMetric{"b": 1, "a": 2, "c": 3}
	keys := m.Keys()
	if len(keys) != 3 || keys[0] != "a" || keys[1] != "b" || keys[2] != "c" {
		t.Fatalf("Keys() = %v, want sorted", keys)
	}
}
