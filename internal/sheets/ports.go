package sheets

import (
	"context"
	"fmt"
)

// Dataset names one of the two persisted row collections.
type Dataset string

const (
	Income   Dataset = "income"
	Expenses Dataset = "expenses"
)

// Datasets lists every dataset in display order.
func Datasets() []Dataset {
	return []Dataset{Income, Expenses}
}

// Valid reports whether d is a known dataset.
func (d Dataset) Valid() bool {
	return d == Income || d == Expenses
}

func (d Dataset) String() string {
	return string(d)
}

// ParseDataset converts a stored dataset name back into a Dataset.
func ParseDataset(s string) (Dataset, error) {
	d := Dataset(s)
	if !d.Valid() {
		return "", fmt.Errorf("unknown dataset %q", s)
	}
	return d, nil
}

// Ports for outbound adapters.
type (
	// RowReader returns every row of a dataset. Row 0 is the header and each
	// field is plain text, amounts included.
	RowReader interface {
		GetAllRows(ctx context.Context, dataset Dataset) ([][]string, error)
	}

	// RowAppender appends one row at the end of a dataset. Fields are strings
	// or numbers; no validation happens at this level.
	RowAppender interface {
		AppendRow(ctx context.Context, dataset Dataset, fields []any) (rowRef string, err error)
	}

	// Store is the full row-level contract of a backend.
	Store interface {
		RowReader
		RowAppender
	}
)
