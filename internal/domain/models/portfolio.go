package models

import "fmt"

// PortfolioEntry is one user-owned property holding. Location is free text
// and may not exactly match any market group key.
type PortfolioEntry struct {
	Location string  `json:"location"`
	Price    float64 `json:"price"`
	Area     float64 `json:"area"` // square feet
}

// Validate enforces the creation invariants.
func (e PortfolioEntry) Validate() error {
	if e.Location == "" {
		return fmt.Errorf("location is required")
	}
	if e.Price <= 0 {
		return fmt.Errorf("price must be positive, got %v", e.Price)
	}
	if e.Area <= 0 {
		return fmt.Errorf("area must be positive, got %v", e.Area)
	}
	return nil
}

// ComparisonRow is one portfolio entry augmented with market-derived fields.
// MarketValue and ChangePct stay nil when the location cannot be resolved;
// such rows are excluded from portfolio averages.
type ComparisonRow struct {
	Location    string   `json:"location"`
	Resolved    string   `json:"resolved_location,omitempty"`
	Price       float64  `json:"price"`
	Area        float64  `json:"area"`
	YourValue   float64  `json:"your_ppsf"`
	MarketValue *float64 `json:"market_ppsf,omitempty"`
	ChangePct   *float64 `json:"change_pct,omitempty"`
}

// Observation is one persisted series point, the unit written to the
// csv/clickhouse/kafka backends.
type Observation struct {
	Series string  `json:"series"`
	Date   string  `json:"date"` // YYYY-MM-DD
	Value  float64 `json:"value"`
	Source string  `json:"source"`
}
