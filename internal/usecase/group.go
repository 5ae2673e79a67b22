package usecase

import (
	"github.com/timur-ship-it/marketdata-dashboard/internal/domain/models"
)

// GroupMean groups records by groupField and returns the arithmetic mean of
// valueField per group. Records with a blank group or a missing/NaN value
// are dropped, not zeroed, so one malformed record never skews or aborts the
// aggregation. Output is independent of input order.
func GroupMean(rs *models.RecordSet, groupField, valueField string) models.AggregatedMetric {
	sums := make(map[string]float64)
	counts := make(map[string]int)

	for _, rec := range rs.Records {
		group := rec.String(groupField)
		if group == "" {
			continue
		}
		v, ok := rec.Float(valueField)
		if !ok {
			continue
		}
		sums[group] += v
		counts[group]++
	}

	out := make(models.AggregatedMetric, len(sums))
	for g, sum := range sums {
		out[g] = sum / float64(counts[g])
	}
	return out
}

// GroupMeanRatio is GroupMean over the per-record ratio numField/denomField,
// the shape used for price-per-area. Records with a non-positive denominator
// are dropped.
func GroupMeanRatio(rs *models.RecordSet, groupField, numField, denomField string) models.AggregatedMetric {
	sums := make(map[string]float64)
	counts := make(map[string]int)

	for _, rec := range rs.Records {
		group := rec.String(groupField)
		if group == "" {
			continue
		}
		num, ok := rec.Float(numField)
		if !ok {
			continue
		}
		denom, ok := rec.Float(denomField)
		if !ok || denom <= 0 {
			continue
		}
		sums[group] += num / denom
		counts[group]++
	}

	out := make(models.AggregatedMetric, len(sums))
	for g, sum := range sums {
		out[g] = sum / float64(counts[g])
	}
	return out
}
