package usecase

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/timur-ship-it/marketdata-dashboard/internal/domain/models"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("parse day %q: %v", s, err)
	}
	return d.UTC()
}

func series(t *testing.T, id string, points map[string]float64) *models.TimeSeries {
	t.Helper()
	ps := make([]models.Point, 0, len(points))
	for d, v := range points {
		ps = append(ps, models.Point{Date: day(t, d), Value: v})
	}
	return models.NewTimeSeries(id, ps)
}

func TestJoinAndSpreadIntersection(t *testing.T) {
	long := series(t, "DGS10", map[string]float64{
		"2024-01-02": 4.0,
		"2024-01-03": 4.1,
		"2024-01-04": 4.2,
	})
	short := series(t, "DGS1MO", map[string]float64{
		"2024-01-03": 5.4,
		"2024-01-04": 5.3,
		"2024-01-05": 5.2,
	})

	spread := JoinAndSpread(long, short)
	if spread.ID != "DGS10-DGS1MO" {
		t.Fatalf("spread id = %q", spread.ID)
	}
	if spread.Len() != 2 {
		t.Fatalf("spread len = %d, want 2 (intersection only)", spread.Len())
	}
	if got := spread.Points[0].Value; math.Abs(got-(4.1-5.4)) > 1e-9 {
		t.Fatalf("spread[0] = %v, want %v", got, 4.1-5.4)
	}
	if got := spread.Points[1].Value; math.Abs(got-(4.2-5.3)) > 1e-9 {
		t.Fatalf("spread[1] = %v, want %v", got, 4.2-5.3)
	}
	if !spread.Points[0].Date.Before(spread.Points[1].Date) {
		t.Fatalf("spread dates not increasing")
	}
}

func TestJoinAndSpreadEmptyInput(t *testing.T) {
	a := series(t, "A", map[string]float64{"2024-01-02": 1})
	b := models.NewTimeSeries("B", nil)

	if got := JoinAndSpread(a, b); got.Len() != 0 {
		t.Fatalf("spread of empty input has %d points", got.Len())
	}
}

func TestPctChange(t *testing.T) {
	s := series(t, "SP500", map[string]float64{
		"2024-01-02": 100,
		"2024-01-03": 110,
	})

	got, err := PctChange(s, 1)
	if err != nil {
		t.Fatalf("PctChange: %v", err)
	}
	if math.Abs(got-10.0) > 1e-9 {
		t.Fatalf("PctChange = %v, want 10.0", got)
	}
}

func TestPctChangeInsufficientData(t *testing.T) {
	s := series(t, "SP500", map[string]float64{"2024-01-02": 100})

	if _, err := PctChange(s, 1); !errors.Is(err, models.ErrInsufficientData) {
		t.Fatalf("single point: err = %v, want ErrInsufficientData", err)
	}
	if _, err := PctChange(nil, 1); !errors.Is(err, models.ErrInsufficientData) {
		t.Fatalf("nil series: err = %v, want ErrInsufficientData", err)
	}
}

func TestPctChangeZeroBase(t *testing.T) {
	s := series(t, "X", map[string]float64{
		"2024-01-02": 0,
		"2024-01-03": 5,
	})

	if _, err := PctChange(s, 1); !errors.Is(err, models.ErrZeroBase) {
		t.Fatalf("zero base: err = %v, want ErrZeroBase", err)
	}
	if _, err := PctChange(s, 1); errors.Is(err, models.ErrInsufficientData) {
		t.Fatalf("zero base misreported as insufficient data: %v", err)
	}
}
