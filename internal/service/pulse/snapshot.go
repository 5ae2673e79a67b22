package pulse

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/timur-ship-it/marketdata-dashboard/internal/domain/models"
	drepo "github.com/timur-ship-it/marketdata-dashboard/internal/domain/repository"
)

// sqmToSqft converts metric-variant areas; price-per-area comparisons are
// always done in square feet.
const sqmToSqft = 10.7639

// Canonical snapshot fields.
const (
	FieldLocation = "location"
	FieldPrice    = "price"
	FieldArea     = "area"
)

// Schema maps canonical fields to the ordered list of accepted source column
// names. There is exactly one normalization path; source variants differ
// only in this table.
type Schema struct {
	Location []string
	Price    []string
	Area     []string
	// AreaInSqm marks variants that record areas in square meters.
	AreaInSqm bool
}

// DefaultSchema describes the transaction dumps: location columns in
// fallback order, transaction worth, procedure area in square feet.
func DefaultSchema() Schema {
	return Schema{
		Location: []string{"area_name_en", "community_name_en", "project_name_en"},
		Price:    []string{"actual_worth", "trans_value"},
		Area:     []string{"procedure_area", "actual_area"},
	}
}

// MetricSchema is the square-meter variant of the same dumps.
func MetricSchema() Schema {
	s := DefaultSchema()
	s.AreaInSqm = true
	return s
}

// Reader implements a SnapshotSource over a directory of ingestion-run CSV
// files, always reading the most recently modified one.
type Reader struct {
	dir    string
	schema Schema
}

// NewReader creates a snapshot Reader.
func NewReader(dir string, schema Schema) drepo.SnapshotSource {
	return &Reader{dir: dir, schema: schema}
}

// ReadSnapshot loads the newest snapshot. An absent or empty directory is a
// defined no-data result, not an error; a present file with an unusable
// header is a decode failure.
func (r *Reader) ReadSnapshot(ctx context.Context) (*models.RecordSet, error) {
	path, ok, err := r.newestFile()
	if err != nil {
		return nil, err
	}
	if !ok {
		return models.NewRecordSet("", FieldLocation, nil), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w: %v", filepath.Base(path), models.ErrDecode, err)
	}

	cols, err := r.resolveColumns(header)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", filepath.Base(path), err)
	}

	name := filepath.Base(path)
	records := make([]models.Record, 0, 256)
	for {
		row, err := cr.Read()
		if err != nil {
			break // EOF or a torn trailing line; keep what parsed
		}
		rec := r.normalizeRow(row, cols)
		if rec != nil {
			records = append(records, rec)
		}
	}
	return models.NewRecordSet(name, "snapshot", records), nil
}

type columns struct {
	location int
	price    int
	area     int
}

// resolveColumns resolves each canonical field against the header through
// the schema's ordered candidates, failing fast when none match.
func (r *Reader) resolveColumns(header []string) (columns, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}

	resolve := func(canonical string, candidates []string) (int, error) {
		for _, c := range candidates {
			if i, ok := idx[c]; ok {
				return i, nil
			}
		}
		return 0, fmt.Errorf("%w: no %s column among %v", models.ErrDecode, canonical, candidates)
	}

	var cols columns
	var err error
	if cols.location, err = resolve(FieldLocation, r.schema.Location); err != nil {
		return cols, err
	}
	if cols.price, err = resolve(FieldPrice, r.schema.Price); err != nil {
		return cols, err
	}
	if cols.area, err = resolve(FieldArea, r.schema.Area); err != nil {
		return cols, err
	}
	return cols, nil
}

// normalizeRow maps one source row onto canonical fields. Rows with a blank
// location or unparseable numerics are kept as records with the fields
// absent; the aggregation layer drops them per group.
func (r *Reader) normalizeRow(row []string, cols columns) models.Record {
	get := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	rec := models.Record{}
	if loc := get(cols.location); loc != "" {
		rec[FieldLocation] = loc
	}
	if p := get(cols.price); p != "" {
		rec[FieldPrice] = p
	}
	if a := get(cols.area); a != "" {
		if r.schema.AreaInSqm {
			probe := models.Record{FieldArea: a}
			if v, ok := probe.Float(FieldArea); ok {
				rec[FieldArea] = v * sqmToSqft
				return rec
			}
		}
		rec[FieldArea] = a
	}
	return rec
}

// newestFile returns the most recently modified CSV in the directory.
func (r *Reader) newestFile() (string, bool, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read snapshot dir: %w", err)
	}

	var newest string
	var newestMod time.Time
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".csv") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().After(newestMod) {
			newest = e.Name()
			newestMod = info.ModTime()
		}
	}
	if newest == "" {
		return "", false, nil
	}
	return filepath.Join(r.dir, newest), true, nil
}
