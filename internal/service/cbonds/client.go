package cbonds

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/timur-ship-it/marketdata-dashboard/internal/domain/models"
	drepo "github.com/timur-ship-it/marketdata-dashboard/internal/domain/repository"
	xhttp "github.com/timur-ship-it/marketdata-dashboard/pkg/http"
)

// keyField is the identifying field stamped onto every record so joins stay
// correct even when the payload omits it.
const keyField = "isin"

// Client implements a RecordSource backed by the Cbonds JSON services.
// Login/password Test/Test selects the provider's demo sandbox, which often
// answers with an empty body; that is "no data", not a failure.
type Client struct {
	baseURL  string
	login    string
	password string
	http     *xhttp.Client
}

// New creates a new Cbonds RecordSource.
func New(baseURL, login, password string, timeout time.Duration) drepo.RecordSource {
	return &Client{
		baseURL:  baseURL,
		login:    login,
		password: password,
		http:     xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

type auth struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type request struct {
	Auth     auth          `json:"auth"`
	Filters  []drepo.Filter `json:"filters"`
	Quantity drepo.Page    `json:"quantity"`
}

// FetchRecords fetches one endpoint page for one query key. When filters are
// empty the query defaults to an isin equality filter on the query key.
func (c *Client) FetchRecords(ctx context.Context, queryKey, endpoint string, filters []drepo.Filter, page drepo.Page) (*models.RecordSet, error) {
	if len(filters) == 0 {
		filters = []drepo.Filter{{Field: keyField, Operator: "eq", Value: queryKey}}
	}
	if page.Limit <= 0 {
		page.Limit = 20
	}

	payload := request{
		Auth:     auth{Login: c.login, Password: c.password},
		Filters:  filters,
		Quantity: page,
	}

	url := fmt.Sprintf("%s/%s", strings.TrimRight(c.baseURL, "/"), endpoint)
	body, err := c.http.PostBytes(ctx, url, payload)
	if err != nil {
		return nil, fmt.Errorf("cbonds %s %s: %w: %v", endpoint, queryKey, models.ErrTransport, err)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return models.NewRecordSet(queryKey, keyField, nil), nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("cbonds %s %s: %w: %v", endpoint, queryKey, models.ErrDecode, err)
	}

	items, err := extractItems(raw)
	if err != nil {
		return nil, fmt.Errorf("cbonds %s %s: %w: %v", endpoint, queryKey, models.ErrDecode, err)
	}
	return models.NewRecordSet(queryKey, keyField, items), nil
}

// extractItems pulls the record list out of the two response shapes the
// service uses: a top-level "items" array, or a method-named object wrapping
// a "data" array (the shape the demo endpoint returns).
func extractItems(raw map[string]json.RawMessage) ([]models.Record, error) {
	if itemsRaw, ok := raw["items"]; ok {
		var items []models.Record
		if err := json.Unmarshal(itemsRaw, &items); err != nil {
			return nil, err
		}
		return items, nil
	}

	for _, v := range raw {
		var wrapper struct {
			Data []models.Record `json:"data"`
		}
		if err := json.Unmarshal(v, &wrapper); err != nil {
			continue
		}
		if wrapper.Data != nil {
			return wrapper.Data, nil
		}
	}
	// No recognizable list: treat as empty rather than failing the key.
	return nil, nil
}
