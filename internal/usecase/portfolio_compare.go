package usecase

import (
	"github.com/timur-ship-it/marketdata-dashboard/internal/domain/models"
)

// ComparePortfolio augments each portfolio entry with market-derived fields:
// your price-per-sqft, the resolved market group and its mean, and the
// percent gap between them. Entries whose location cannot be resolved keep
// nil market fields and are skipped by AverageChange; they are never zeroed.
// Inputs are read-only; candidates fixes the resolution order.
func ComparePortfolio(entries []models.PortfolioEntry, means models.AggregatedMetric, candidates []string) []models.ComparisonRow {
	rows := make([]models.ComparisonRow, 0, len(entries))
	for _, e := range entries {
		row := models.ComparisonRow{
			Location: e.Location,
			Price:    e.Price,
			Area:     e.Area,
		}
		if e.Area > 0 {
			row.YourValue = e.Price / e.Area
		}

		group, ok := ResolveLocation(e.Location, candidates)
		if ok {
			if market, found := means[group]; found && row.YourValue > 0 {
				change := (market/row.YourValue - 1) * 100
				row.Resolved = group
				row.MarketValue = &market
				row.ChangePct = &change
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// AverageChange averages change over resolved rows only. No resolved rows
// yields ErrInsufficientData so callers show a placeholder, not +0.00%.
func AverageChange(rows []models.ComparisonRow) (float64, error) {
	sum, n := 0.0, 0
	for _, r := range rows {
		if r.ChangePct == nil {
			continue
		}
		sum += *r.ChangePct
		n++
	}
	if n == 0 {
		return 0, models.ErrInsufficientData
	}
	return sum / float64(n), nil
}
