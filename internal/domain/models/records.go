package models

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Record is one row of an upstream response page, field name to value.
// Values are strings, numbers or dates depending on the source.
type Record map[string]any

// RecordSet is an ordered page of records fetched for one query key.
// Every record carries the query key under KeyField even when the upstream
// payload omits it, so downstream joins stay correct.
type RecordSet struct {
	QueryKey string   `json:"query_key"`
	KeyField string   `json:"key_field"`
	Records  []Record `json:"records"`
}

// NewRecordSet builds a RecordSet and stamps each record with the query key
// when the key field is missing or blank.
func NewRecordSet(queryKey, keyField string, records []Record) *RecordSet {
	for _, r := range records {
		if v, ok := r[keyField]; !ok || fmt.Sprintf("%v", v) == "" {
			r[keyField] = queryKey
		}
	}
	return &RecordSet{QueryKey: queryKey, KeyField: keyField, Records: records}
}

// Len returns the number of records.
func (rs *RecordSet) Len() int { return len(rs.Records) }

// Empty reports whether the set has no records.
func (rs *RecordSet) Empty() bool { return len(rs.Records) == 0 }

// String extracts a trimmed string field; missing fields come back empty,
// never as a panic.
func (r Record) String(field string) string {
	v, ok := r[field]
	if !ok || v == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprintf("%v", v))
}

// Float extracts a numeric field. Returns false for missing, blank or
// unparseable values so callers can drop them instead of treating them as 0.
func (r Record) Float(field string) (float64, bool) {
	v, ok := r[field]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// AggregatedMetric maps a group key to one derived statistic. Only groups
// with at least one valid underlying value are present.
type AggregatedMetric map[string]float64

// Keys returns group keys in ascending order, for deterministic iteration.
func (m AggregatedMetric) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
