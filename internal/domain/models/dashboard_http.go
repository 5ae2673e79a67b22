package models

// Requests and views for the dashboard HTTP endpoints. Defined in domain for consistency and reuse.

type SpreadRequest struct {
	Long  string `query:"long" json:"long" default:"DGS10" validate:"required"`
	Short string `query:"short" json:"short" default:"DGS1MO" validate:"required"`
	Years int    `query:"years" json:"years" default:"5" validate:"gte=1,lte=30"`
}

type BondsRequest struct {
	ISIN string `query:"isin" json:"isin"` // empty means all configured ISINs
}

type AddPortfolioRequest struct {
	Location string  `json:"location" validate:"required"`
	Price    float64 `json:"price" validate:"required,gt=0"`
	Area     float64 `json:"area" validate:"required,gt=0"`
}

// SpreadView is the joined long/short yield view.
type SpreadView struct {
	Long   *TimeSeries `json:"long"`
	Short  *TimeSeries `json:"short"`
	Spread *TimeSeries `json:"spread"`
}

// IndexQuote is the latest close plus period-over-period change for one symbol.
type IndexQuote struct {
	Name      string   `json:"name"`
	Symbol    string   `json:"symbol"`
	Close     float64  `json:"close"`
	ChangePct *float64 `json:"change_pct,omitempty"`
}

// BondRow is one emission summary.
type BondRow struct {
	ISIN     string `json:"isin"`
	Issuer   string `json:"issuer"`
	Coupon   string `json:"coupon"`
	Maturity string `json:"maturity"`
	Currency string `json:"currency"`
}

// PortfolioView is the comparison table plus the average over resolved rows.
type PortfolioView struct {
	Rows       []ComparisonRow `json:"rows"`
	AvgChange  *float64        `json:"avg_change_pct,omitempty"`
	MarketSize int             `json:"market_groups"`
}
