package cbonds

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	drepo "github.com/timur-ship-it/marketdata-dashboard/internal/domain/repository"
)

func TestFetchRecordsRequestShape(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/get_emissions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte(`{"items":[{"issuer_name_eng":"Test Issuer","coupon":"5.5"}]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "Test", "Test", time.Second)
	rs, err := c.FetchRecords(context.Background(), "XS0975256683", "get_emissions", nil, drepo.Page{Limit: 10})
	if err != nil {
		t.Fatalf("FetchRecords: %v", err)
	}

	auth, _ := got["auth"].(map[string]any)
	if auth["login"] != "Test" || auth["password"] != "Test" {
		t.Fatalf("auth = %v", auth)
	}
	filters, _ := got["filters"].([]any)
	if len(filters) != 1 {
		t.Fatalf("filters = %v, want default isin filter", got["filters"])
	}
	f, _ := filters[0].(map[string]any)
	if f["field"] != "isin" || f["operator"] != "eq" || f["value"] != "XS0975256683" {
		t.Fatalf("default filter = %v", f)
	}
	quantity, _ := got["quantity"].(map[string]any)
	if quantity["limit"] != float64(10) {
		t.Fatalf("quantity = %v", quantity)
	}

	if rs.Len() != 1 {
		t.Fatalf("records = %d, want 1", rs.Len())
	}
	if rs.Records[0].String("issuer_name_eng") != "Test Issuer" {
		t.Fatalf("issuer = %q", rs.Records[0].String("issuer_name_eng"))
	}
	// The key field is stamped onto records that omit it.
	if rs.Records[0].String("isin") != "XS0975256683" {
		t.Fatalf("isin = %q, want stamped query key", rs.Records[0].String("isin"))
	}
}

func TestFetchRecordsEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The demo sandbox frequently answers with nothing at all.
	}))
	defer srv.Close()

	c := New(srv.URL, "Test", "Test", time.Second)
	rs, err := c.FetchRecords(context.Background(), "XS0975256683", "get_emissions", nil, drepo.Page{})
	if err != nil {
		t.Fatalf("empty body should be no data, got %v", err)
	}
	if !rs.Empty() {
		t.Fatalf("records = %d, want 0", rs.Len())
	}
}

func TestFetchRecordsWrappedShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"get_flow_new":{"count":1,"data":[{"isin":"XS1","date":"2024-06-01"}]}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "Test", "Test", time.Second)
	rs, err := c.FetchRecords(context.Background(), "XS1", "get_flow_new", nil, drepo.Page{})
	if err != nil {
		t.Fatalf("FetchRecords: %v", err)
	}
	if rs.Len() != 1 {
		t.Fatalf("records = %d, want 1", rs.Len())
	}
	if rs.Records[0].String("date") != "2024-06-01" {
		t.Fatalf("date = %q", rs.Records[0].String("date"))
	}
}

func TestFetchRecordsUnknownShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"meta":{"total":0}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "Test", "Test", time.Second)
	rs, err := c.FetchRecords(context.Background(), "XS1", "get_emissions", nil, drepo.Page{})
	if err != nil {
		t.Fatalf("unrecognized list should be empty, got %v", err)
	}
	if !rs.Empty() {
		t.Fatalf("records = %d, want 0", rs.Len())
	}
}
