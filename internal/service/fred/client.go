package fred

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/timur-ship-it/marketdata-dashboard/internal/domain/models"
	drepo "github.com/timur-ship-it/marketdata-dashboard/internal/domain/repository"
	xhttp "github.com/timur-ship-it/marketdata-dashboard/pkg/http"
	"github.com/timur-ship-it/marketdata-dashboard/pkg/util"
)

const observationsPath = "/fred/series/observations"

// Client implements a SeriesSource backed by the FRED observations API.
// It serves both the treasury yield curve (DGS*) and the FRED index mirrors
// (SP500, NASDAQCOM, DJIA) through the same normalization path.
type Client struct {
	apiKey  string
	baseURL string
	http    *xhttp.Client
}

// New creates a new FRED SeriesSource.
func New(apiKey, baseURL string, timeout time.Duration) drepo.SeriesSource {
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		http:    xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

type observation struct {
	Date  string `json:"date"`
	Value string `json:"value"`
}

type observationsResponse struct {
	Observations []observation `json:"observations"`
}

// FetchSeries fetches one series as (date, value) pairs. FRED reports
// missing values as "." — those points are dropped, never coerced to zero.
func (c *Client) FetchSeries(ctx context.Context, id string, start, end time.Time) (*models.TimeSeries, error) {
	query := map[string][]string{
		"series_id": {id},
		"api_key":   {c.apiKey},
		"file_type": {"json"},
	}
	if !start.IsZero() {
		query["observation_start"] = []string{util.FormatDay(start)}
	}
	if !end.IsZero() {
		query["observation_end"] = []string{util.FormatDay(end)}
	}

	body, err := c.http.GetBytes(ctx, c.baseURL+observationsPath, query)
	if err != nil {
		return nil, fmt.Errorf("fred %s: %w: %v", id, models.ErrTransport, err)
	}
	if len(body) == 0 {
		return models.NewTimeSeries(id, nil), nil
	}

	var resp observationsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("fred %s: %w: %v", id, models.ErrDecode, err)
	}

	points := make([]models.Point, 0, len(resp.Observations))
	for _, o := range resp.Observations {
		d, ok := util.ParseDay(o.Date)
		if !ok {
			continue
		}
		v, err := strconv.ParseFloat(o.Value, 64)
		if err != nil {
			continue // "." marks a market holiday
		}
		points = append(points, models.Point{Date: d, Value: v})
	}
	return models.NewTimeSeries(id, points), nil
}
