package repository

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"github.com/timur-ship-it/marketdata-dashboard/internal/domain/models"
	"github.com/timur-ship-it/marketdata-dashboard/internal/domain/repository"
)

var portfolioHeader = []string{"Location", "Price", "Area"}

const lockRetryDelay = 50 * time.Millisecond

// CSVPortfolioStore keeps portfolio entries in a single CSV file. Every
// mutation takes a sibling flock and rewrites the file whole, so concurrent
// API calls and a dashboard process editing the same file stay consistent.
type CSVPortfolioStore struct {
	path string
	lock *flock.Flock
}

// NewCSVPortfolioStore creates a file-backed portfolio store at path.
func NewCSVPortfolioStore(path string) repository.PortfolioStore {
	return &CSVPortfolioStore{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

// Load reads all entries. A missing file is an empty portfolio, not an
// error. Malformed rows are skipped so one bad line never hides the rest.
func (s *CSVPortfolioStore) Load(ctx context.Context) ([]models.PortfolioEntry, error) {
	locked, err := s.lock.TryRLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("lock portfolio: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("lock portfolio: not acquired")
	}
	defer s.lock.Unlock()

	return s.read()
}

// Add appends one entry.
func (s *CSVPortfolioStore) Add(ctx context.Context, e models.PortfolioEntry) error {
	locked, err := s.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("lock portfolio: %w", err)
	}
	if !locked {
		return fmt.Errorf("lock portfolio: not acquired")
	}
	defer s.lock.Unlock()

	entries, err := s.read()
	if err != nil {
		return err
	}
	return s.write(append(entries, e))
}

// Remove drops every entry whose location matches, case-insensitively, and
// reports how many went.
func (s *CSVPortfolioStore) Remove(ctx context.Context, location string) (int, error) {
	locked, err := s.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return 0, fmt.Errorf("lock portfolio: %w", err)
	}
	if !locked {
		return 0, fmt.Errorf("lock portfolio: not acquired")
	}
	defer s.lock.Unlock()

	entries, err := s.read()
	if err != nil {
		return 0, err
	}

	target := strings.ToLower(strings.TrimSpace(location))
	kept := entries[:0]
	removed := 0
	for _, e := range entries {
		if strings.ToLower(e.Location) == target {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	if removed == 0 {
		return 0, models.ErrNotFound
	}
	if err := s.write(kept); err != nil {
		return 0, err
	}
	return removed, nil
}

func (s *CSVPortfolioStore) read() ([]models.PortfolioEntry, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open portfolio: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: read portfolio: %v", models.ErrDecode, err)
	}

	entries := make([]models.PortfolioEntry, 0, len(rows))
	for i, row := range rows {
		if i == 0 && isPortfolioHeader(row) {
			continue
		}
		if len(row) < 3 {
			continue
		}
		price, err1 := strconv.ParseFloat(strings.TrimSpace(row[1]), 64)
		area, err2 := strconv.ParseFloat(strings.TrimSpace(row[2]), 64)
		if err1 != nil || err2 != nil {
			continue
		}
		entries = append(entries, models.PortfolioEntry{
			Location: strings.TrimSpace(row[0]),
			Price:    price,
			Area:     area,
		})
	}
	return entries, nil
}

func (s *CSVPortfolioStore) write(entries []models.PortfolioEntry) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create portfolio dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(portfolioHeader); err != nil {
		tmp.Close()
		return err
	}
	for _, e := range entries {
		row := []string{
			e.Location,
			strconv.FormatFloat(e.Price, 'f', -1, 64),
			strconv.FormatFloat(e.Area, 'f', -1, 64),
		}
		if err := w.Write(row); err != nil {
			tmp.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

func isPortfolioHeader(row []string) bool {
	if len(row) < 3 {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(row[0]), "location")
}
