package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/timur-ship-it/marketdata-dashboard/internal/domain/models"
	drepo "github.com/timur-ship-it/marketdata-dashboard/internal/domain/repository"
	xhttp "github.com/timur-ship-it/marketdata-dashboard/pkg/http"
)

// closeFields is the ordered list of accepted close-price fields. Resolution
// order is fixed here instead of scanning the payload for anything that
// looks like a close column.
var closeFields = []string{"close", "adjclose"}

// Client implements a SeriesSource backed by the Yahoo chart API.
type Client struct {
	baseURL  string
	rng      string
	interval string
	http     *xhttp.Client
}

// New creates a new Yahoo SeriesSource for daily close series.
func New(baseURL, rng, interval string, timeout time.Duration) drepo.SeriesSource {
	if rng == "" {
		rng = "5y"
	}
	if interval == "" {
		interval = "1d"
	}
	return &Client{
		baseURL:  baseURL,
		rng:      rng,
		interval: interval,
		http:     xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []map[string][]*float64 `json:"quote"`
				Adj   []struct {
					Adjclose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// FetchSeries fetches the close series for one ticker. Null quotes are
// dropped; start/end are ignored because the chart API takes a range.
func (c *Client) FetchSeries(ctx context.Context, symbol string, _, _ time.Time) (*models.TimeSeries, error) {
	url := fmt.Sprintf("%s/v8/finance/chart/%s", c.baseURL, symbol)
	query := map[string][]string{
		"range":    {c.rng},
		"interval": {c.interval},
		"events":   {"div,splits"},
	}

	body, err := c.http.GetBytes(ctx, url, query)
	if err != nil {
		return nil, fmt.Errorf("yahoo %s: %w: %v", symbol, models.ErrTransport, err)
	}
	if len(body) == 0 {
		return models.NewTimeSeries(symbol, nil), nil
	}

	var resp chartResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("yahoo %s: %w: %v", symbol, models.ErrDecode, err)
	}
	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo %s: %w: %s", symbol, models.ErrTransport, resp.Chart.Error.Code)
	}
	if len(resp.Chart.Result) == 0 {
		return models.NewTimeSeries(symbol, nil), nil
	}

	res := resp.Chart.Result[0]
	closes := c.resolveCloses(res.Indicators.Quote, func() []*float64 {
		if len(res.Indicators.Adj) > 0 {
			return res.Indicators.Adj[0].Adjclose
		}
		return nil
	})

	points := make([]models.Point, 0, len(res.Timestamp))
	for i, ts := range res.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		points = append(points, models.Point{Date: time.Unix(ts, 0).UTC(), Value: *closes[i]})
	}
	return models.NewTimeSeries(symbol, points), nil
}

// resolveCloses walks the accepted field list in order and returns the first
// populated column.
func (c *Client) resolveCloses(quote []map[string][]*float64, adj func() []*float64) []*float64 {
	for _, field := range closeFields {
		if field == "adjclose" {
			if col := adj(); len(col) > 0 {
				return col
			}
			continue
		}
		for _, q := range quote {
			if col, ok := q[field]; ok && len(col) > 0 {
				return col
			}
		}
	}
	return nil
}
