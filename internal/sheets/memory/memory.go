package memory

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"myfinances/internal/sheets"
)

// Store keeps both datasets in memory. It is the default backend and the
// one used by tests.
type Store struct {
	mu   sync.Mutex
	rows map[sheets.Dataset][][]string
}

var _ sheets.Store = (*Store)(nil)

// New creates a store whose datasets start with the given header rows.
func New(headers map[sheets.Dataset][]string) *Store {
	s := &Store{rows: map[sheets.Dataset][][]string{}}
	for _, d := range sheets.Datasets() {
		s.rows[d] = [][]string{append([]string(nil), headers[d]...)}
	}
	return s
}

// NewFromFiles creates a store and seeds it from <base>/income.csv and
// <base>/expenses.csv when present. A seed file's first line replaces the
// header. A missing file is fine; an unreadable or malformed one is an error.
func NewFromFiles(base string, headers map[sheets.Dataset][]string) (*Store, error) {
	s := New(headers)
	for _, d := range sheets.Datasets() {
		records, err := readCSV(filepath.Join(base, string(d)+".csv"))
		if err != nil {
			return nil, err
		}
		if len(records) == 0 {
			continue
		}
		s.rows[d] = records
	}
	return s, nil
}

// GetAllRows returns a copy of every row, header first.
func (s *Store) GetAllRows(_ context.Context, dataset sheets.Dataset) ([][]string, error) {
	if !dataset.Valid() {
		return nil, fmt.Errorf("unknown dataset %q", dataset)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]string, len(s.rows[dataset]))
	for i, r := range s.rows[dataset] {
		out[i] = append([]string(nil), r...)
	}
	return out, nil
}

// AppendRow stores the row and returns a synthetic row reference.
func (s *Store) AppendRow(_ context.Context, dataset sheets.Dataset, fields []any) (string, error) {
	if !dataset.Valid() {
		return "", fmt.Errorf("unknown dataset %q", dataset)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[dataset] = append(s.rows[dataset], sheets.FieldsToStrings(fields))
	return fmt.Sprintf("mem:%s:%d", dataset, len(s.rows[dataset])), nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.Comment = '#'
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	out := records[:0]
	for _, rec := range records {
		if len(rec) == 0 || strings.TrimSpace(strings.Join(rec, "")) == "" {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}
