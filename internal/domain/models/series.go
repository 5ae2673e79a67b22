package models

import (
	"math"
	"sort"
	"time"
)

// Point is a single dated observation.
type Point struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// TimeSeries is an ordered run of (date, value) pairs for one series id.
// Dates are strictly increasing, normalized to UTC midnight; NaN values and
// duplicate dates are dropped at construction and the series is never
// mutated afterwards.
type TimeSeries struct {
	ID     string  `json:"id"`
	Points []Point `json:"points"`
}

// Day truncates t to its UTC calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NewTimeSeries builds a normalized series: points sorted by date, NaN/Inf
// dropped, first occurrence wins on duplicate dates.
func NewTimeSeries(id string, points []Point) *TimeSeries {
	cleaned := make([]Point, 0, len(points))
	for _, p := range points {
		if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
			continue
		}
		cleaned = append(cleaned, Point{Date: Day(p.Date), Value: p.Value})
	}
	sort.SliceStable(cleaned, func(i, j int) bool { return cleaned[i].Date.Before(cleaned[j].Date) })

	out := make([]Point, 0, len(cleaned))
	for _, p := range cleaned {
		if len(out) > 0 && out[len(out)-1].Date.Equal(p.Date) {
			continue
		}
		out = append(out, p)
	}
	return &TimeSeries{ID: id, Points: out}
}

// Len returns the number of points.
func (s *TimeSeries) Len() int { return len(s.Points) }

// Empty reports whether the series has no points.
func (s *TimeSeries) Empty() bool { return len(s.Points) == 0 }

// Latest returns the most recent point.
func (s *TimeSeries) Latest() (Point, bool) {
	if len(s.Points) == 0 {
		return Point{}, false
	}
	return s.Points[len(s.Points)-1], true
}

// At returns the value for a calendar day.
func (s *TimeSeries) At(d time.Time) (float64, bool) {
	d = Day(d)
	i := sort.Search(len(s.Points), func(i int) bool { return !s.Points[i].Date.Before(d) })
	if i < len(s.Points) && s.Points[i].Date.Equal(d) {
		return s.Points[i].Value, true
	}
	return 0, false
}
