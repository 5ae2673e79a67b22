package yahoo

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/timur-ship-it/marketdata-dashboard/internal/domain/models"
)

func TestFetchSeries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v8/finance/chart/^GSPC" {
			t.Errorf("path = %q", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("range") != "5y" || q.Get("interval") != "1d" {
			t.Errorf("query = %v", q)
		}
		w.Write([]byte(`{"chart":{"result":[{
			"timestamp":[1704153600,1704240000,1704326400],
			"indicators":{"quote":[{"close":[4700.1,null,4750.5]}]}
		}],"error":null}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "", "", time.Second)
	s, err := c.FetchSeries(context.Background(), "^GSPC", time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("FetchSeries: %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("points = %d, want 2 (null close dropped)", s.Len())
	}
	latest, ok := s.Latest()
	if !ok || math.Abs(latest.Value-4750.5) > 1e-9 {
		t.Fatalf("latest = %+v", latest)
	}
}

func TestFetchSeriesAdjCloseFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":[{
			"timestamp":[1704153600],
			"indicators":{"quote":[{}],"adjclose":[{"adjclose":[4711.0]}]}
		}],"error":null}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "", "", time.Second)
	s, err := c.FetchSeries(context.Background(), "^GSPC", time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("FetchSeries: %v", err)
	}
	if s.Len() != 1 || s.Points[0].Value != 4711.0 {
		t.Fatalf("adjclose fallback failed: %+v", s.Points)
	}
}

func TestFetchSeriesUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "", "", time.Second)
	_, err := c.FetchSeries(context.Background(), "NOPE", time.Time{}, time.Time{})
	if !errors.Is(err, models.ErrTransport) {
		t.Fatalf("err = %v, want ErrTransport", err)
	}
}

func TestFetchSeriesEmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":[],"error":null}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "", "", time.Second)
	s, err := c.FetchSeries(context.Background(), "^GSPC", time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("FetchSeries: %v", err)
	}
	if !s.Empty() {
		t.Fatalf("points = %d, want 0", s.Len())
	}
}
