package sheets

import (
	"fmt"
	"strings"

	"myfinances/internal/core"
)

// Expense sheet layouts.
const (
	LayoutStandard = "standard"
	LayoutDated    = "dated"
)

// Schema describes where each field lives in a positional row. A column
// index of -1 means the layout has no such column.
type Schema struct {
	Dataset        Dataset
	Headers        []string
	MonthCol       int
	SourceCol      int
	DateCol        int
	CategoryCol    int
	DescriptionCol int
	AmountCol      int
}

// Entry is a stored row with its fields named. Amount is kept as the raw
// stored text; parsing it is the caller's job.
type Entry struct {
	Month       string
	Source      string
	Date        string
	Category    string
	Description string
	Amount      string
}

// IncomeSchema is the [Month, Source, Amount] layout.
func IncomeSchema() Schema {
	return Schema{
		Dataset:        Income,
		Headers:        []string{"Month", "Source", "Amount"},
		MonthCol:       0,
		SourceCol:      1,
		DateCol:        -1,
		CategoryCol:    -1,
		DescriptionCol: -1,
		AmountCol:      2,
	}
}

// ExpenseSchema is the [Month, Category, Description, Amount] layout.
func ExpenseSchema() Schema {
	return Schema{
		Dataset:        Expenses,
		Headers:        []string{"Month", "Category", "Description", "Amount"},
		MonthCol:       0,
		SourceCol:      -1,
		DateCol:        -1,
		CategoryCol:    1,
		DescriptionCol: 2,
		AmountCol:      3,
	}
}

// DatedExpenseSchema is the older [Month, Date, Category, Description, Amount]
// layout.
func DatedExpenseSchema() Schema {
	return Schema{
		Dataset:        Expenses,
		Headers:        []string{"Month", "Date", "Category", "Description", "Amount"},
		MonthCol:       0,
		SourceCol:      -1,
		DateCol:        1,
		CategoryCol:    2,
		DescriptionCol: 3,
		AmountCol:      4,
	}
}

// ExpenseSchemaFor returns the expense schema for a configured layout name.
func ExpenseSchemaFor(layout string) (Schema, error) {
	switch strings.ToLower(strings.TrimSpace(layout)) {
	case "", LayoutStandard:
		return ExpenseSchema(), nil
	case LayoutDated:
		return DatedExpenseSchema(), nil
	default:
		return Schema{}, fmt.Errorf("unknown expense layout %q: must be %q or %q", layout, LayoutStandard, LayoutDated)
	}
}

// HasDate reports whether the layout stores an expense date.
func (s Schema) HasDate() bool {
	return s.DateCol >= 0
}

// Width is the number of columns in a complete row.
func (s Schema) Width() int {
	return len(s.Headers)
}

// Entry maps a positional row to named fields. Rows shorter than the amount
// column are rejected; other missing columns come back empty.
func (s Schema) Entry(row []string) (Entry, error) {
	if s.AmountCol >= len(row) || s.MonthCol >= len(row) {
		return Entry{}, fmt.Errorf("row has %d fields, %s layout needs %d", len(row), s.Dataset, s.Width())
	}
	return Entry{
		Month:       field(row, s.MonthCol),
		Source:      field(row, s.SourceCol),
		Date:        field(row, s.DateCol),
		Category:    field(row, s.CategoryCol),
		Description: field(row, s.DescriptionCol),
		Amount:      field(row, s.AmountCol),
	}, nil
}

// EncodeIncome returns the fields to append for r. The amount is written in
// the display format so the sheet stays human readable.
func (s Schema) EncodeIncome(r core.IncomeRecord) []any {
	out := make([]any, s.Width())
	put(out, s.MonthCol, string(r.Month))
	put(out, s.SourceCol, r.Source)
	put(out, s.AmountCol, core.FormatAmount(r.Amount))
	return out
}

// EncodeExpense returns the fields to append for e.
func (s Schema) EncodeExpense(e core.ExpenseRecord) []any {
	out := make([]any, s.Width())
	put(out, s.MonthCol, string(e.Month))
	put(out, s.DateCol, e.Date)
	put(out, s.CategoryCol, string(e.Category))
	put(out, s.DescriptionCol, e.Description)
	put(out, s.AmountCol, core.FormatAmount(e.Amount))
	return out
}

// FieldsToStrings renders appended fields the way a spreadsheet would show
// them.
func FieldsToStrings(fields []any) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		if f == nil {
			continue
		}
		out[i] = strings.TrimSpace(fmt.Sprint(f))
	}
	return out
}

func field(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func put(out []any, idx int, v any) {
	if idx < 0 || idx >= len(out) {
		return
	}
	out[idx] = v
}
