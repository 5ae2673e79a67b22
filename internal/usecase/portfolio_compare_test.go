package usecase

import (
	"errors"
	"math"
	"testing"

	"github.com/timur-ship-it/marketdata-dashboard/internal/domain/models"
)

func TestComparePortfolio(t *testing.T) {
	entries := []models.PortfolioEntry{
		{Location: "Downtown", Price: 1_000_000, Area: 1000},
	}
	means := models.AggregatedMetric{"Downtown": 1200}

	rows := ComparePortfolio(entries, means, means.Keys())
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}

	r := rows[0]
	if math.Abs(r.YourValue-1000) > 1e-9 {
		t.Fatalf("your ppsf = %v, want 1000", r.YourValue)
	}
	if r.MarketValue == nil || math.Abs(*r.MarketValue-1200) > 1e-9 {
		t.Fatalf("market ppsf = %v, want 1200", r.MarketValue)
	}
	if r.ChangePct == nil || math.Abs(*r.ChangePct-20.0) > 1e-9 {
		t.Fatalf("change = %v, want +20.0", r.ChangePct)
	}
	if r.Resolved != "Downtown" {
		t.Fatalf("resolved = %q", r.Resolved)
	}
}

func TestComparePortfolioFuzzyResolution(t *testing.T) {
	entries := []models.PortfolioEntry{
		{Location: "Dwntwn", Price: 500_000, Area: 500},
	}
	means := models.AggregatedMetric{"Downtown": 1100, "Dubai Marina": 900}

	rows := ComparePortfolio(entries, means, means.Keys())
	if rows[0].Resolved != "Downtown" {
		t.Fatalf("resolved = %q, want Downtown", rows[0].Resolved)
	}
	if rows[0].ChangePct == nil || math.Abs(*rows[0].ChangePct-10.0) > 1e-9 {
		t.Fatalf("change = %v, want +10.0", rows[0].ChangePct)
	}
}

func TestComparePortfolioUnresolved(t *testing.T) {
	entries := []models.PortfolioEntry{
		{Location: "Zzzzz", Price: 100_000, Area: 100},
	}
	means := models.AggregatedMetric{"Downtown": 1200}

	rows := ComparePortfolio(entries, means, means.Keys())
	r := rows[0]
	if r.MarketValue != nil || r.ChangePct != nil {
		t.Fatalf("unresolved row has market fields: %+v", r)
	}
	if r.YourValue == 0 {
		t.Fatal("unresolved row lost its own ppsf")
	}
}

func TestAverageChange(t *testing.T) {
	ten, thirty := 10.0, 30.0
	rows := []models.ComparisonRow{
		{ChangePct: &ten},
		{ChangePct: nil}, // unresolved, excluded
		{ChangePct: &thirty},
	}

	got, err := AverageChange(rows)
	if err != nil {
		t.Fatalf("AverageChange: %v", err)
	}
	if math.Abs(got-20.0) > 1e-9 {
		t.Fatalf("avg = %v, want 20.0", got)
	}
}

func TestAverageChangeNoResolvedRows(t *testing.T) {
	rows := []models.ComparisonRow{{ChangePct: nil}}

	if _, err := AverageChange(rows); !errors.Is(err, models.ErrInsufficientData) {
		t.Fatalf("err = %v, want ErrInsufficientData", err)
	}
	if _, err := AverageChange(nil); !errors.Is(err, models.ErrInsufficientData) {
		t.Fatalf("empty: err = %v, want ErrInsufficientData", err)
	}
}

func TestPortfolioEntryValidate(t *testing.T) {
	good := models.PortfolioEntry{Location: "Downtown", Price: 1, Area: 1}
	if err := good.Validate(); err != nil {
		t.Fatalf("valid entry rejected: %v", err)
	}

	bad := []models.PortfolioEntry{
		{Price: 1, Area: 1},
		{Location: "X", Price: 0, Area: 1},
		{Location: "X", Price: 1, Area: -2},
	}
	for _, e := range bad {
		if err := e.Validate(); err == nil {
			t.Fatalf("invalid entry accepted: %+v", e)
		}
	}
}
