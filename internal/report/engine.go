package report

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"myfinances/internal/core"
	"myfinances/internal/log"
	"myfinances/internal/sheets"
)

// RowWarning describes a stored row that was left out of an aggregate.
// Row is the 0-based index into the rows passed in (row 0 is the header).
type RowWarning struct {
	Dataset sheets.Dataset
	Row     int
	Fields  []string
	Reason  string
}

func (w RowWarning) String() string {
	return fmt.Sprintf("%s row %d [%s]: %s", w.Dataset, w.Row, strings.Join(w.Fields, " | "), w.Reason)
}

// CategoryTotals holds per-category expense sums in the order each category
// was first seen.
type CategoryTotals []core.CategoryAmount

// Get returns the total for c.
func (ct CategoryTotals) Get(c core.Category) (decimal.Decimal, bool) {
	for _, v := range ct {
		if v.Name == c {
			return v.Amount, true
		}
	}
	return decimal.Zero, false
}

// Engine aggregates stored rows for one month at a time. It holds no state
// between calls.
type Engine struct {
	categories    core.Categories
	expenseSchema sheets.Schema
	logger        *log.Logger
}

// NewEngine creates an Engine. A nil logger discards warnings.
func NewEngine(categories core.Categories, expenseSchema sheets.Schema, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.Discard()
	}
	return &Engine{
		categories:    categories,
		expenseSchema: expenseSchema,
		logger:        logger.WithComponent(log.ComponentReport),
	}
}

// HasDataForMonth reports whether any row's first field names month.
func (e *Engine) HasDataForMonth(rows [][]string, month core.Month) bool {
	for _, row := range rows {
		if len(row) > 0 && month.Matches(row[0]) {
			return true
		}
	}
	return false
}

// SumColumnForMonth adds up the amounts in column col of every row for
// month. Rows whose amount cannot be parsed, or that are too short, are
// skipped and reported as warnings.
func (e *Engine) SumColumnForMonth(rows [][]string, month core.Month, col int) (decimal.Decimal, []RowWarning) {
	total, warnings := e.sumColumn("", rows, month, col)
	e.logWarnings(warnings)
	return total, warnings
}

func (e *Engine) sumColumn(dataset sheets.Dataset, rows [][]string, month core.Month, col int) (decimal.Decimal, []RowWarning) {
	total := decimal.Zero
	var warnings []RowWarning
	for i, row := range rows {
		if len(row) == 0 || !month.Matches(row[0]) {
			continue
		}
		if col < 0 || col >= len(row) {
			warnings = append(warnings, e.warn(dataset, i, row, fmt.Sprintf("missing amount column %d", col)))
			continue
		}
		amount, err := core.ParseAmount(row[col])
		if err != nil {
			warnings = append(warnings, e.warn(dataset, i, row, err.Error()))
			continue
		}
		total = total.Add(amount)
	}
	return total, warnings
}

// SumByCategoryForMonth groups the month's expense rows by title-cased
// category. Categories without rows are absent from the result.
func (e *Engine) SumByCategoryForMonth(rows [][]string, month core.Month) (CategoryTotals, []RowWarning) {
	totals, warnings := e.sumByCategory(rows, month)
	e.logWarnings(warnings)
	return totals, warnings
}

func (e *Engine) sumByCategory(rows [][]string, month core.Month) (CategoryTotals, []RowWarning) {
	var (
		totals   CategoryTotals
		index    = map[core.Category]int{}
		warnings []RowWarning
	)
	for i, row := range rows {
		if len(row) == 0 || !month.Matches(row[0]) {
			continue
		}
		entry, err := e.expenseSchema.Entry(row)
		if err != nil {
			warnings = append(warnings, e.warn(sheets.Expenses, i, row, err.Error()))
			continue
		}
		amount, err := core.ParseAmount(entry.Amount)
		if err != nil {
			warnings = append(warnings, e.warn(sheets.Expenses, i, row, err.Error()))
			continue
		}
		category := core.NormalizeCategory(entry.Category)
		if !e.categories.Contains(category) {
			e.logger.Debug("Aggregating unknown category",
				log.FieldCategory, string(category), log.FieldRow, i)
		}
		if pos, ok := index[category]; ok {
			totals[pos].Amount = totals[pos].Amount.Add(amount)
			continue
		}
		index[category] = len(totals)
		totals = append(totals, core.CategoryAmount{Name: category, Amount: amount})
	}
	return totals, warnings
}

// MaxCategory returns the category with the greatest total. On a tie the
// category seen first wins. ok is false when totals is empty.
func (e *Engine) MaxCategory(totals CategoryTotals) (core.Category, decimal.Decimal, bool) {
	if len(totals) == 0 {
		return "", decimal.Zero, false
	}
	best := totals[0]
	for _, t := range totals[1:] {
		if t.Amount.GreaterThan(best.Amount) {
			best = t
		}
	}
	return best.Name, best.Amount, true
}

func (e *Engine) warn(dataset sheets.Dataset, row int, fields []string, reason string) RowWarning {
	return RowWarning{
		Dataset: dataset,
		Row:     row,
		Fields:  append([]string(nil), fields...),
		Reason:  reason,
	}
}

func (e *Engine) logWarnings(warnings []RowWarning) {
	for _, w := range warnings {
		e.logger.Warn("Skipping row",
			log.FieldDataset, string(w.Dataset),
			log.FieldRow, w.Row,
			"fields", strings.Join(w.Fields, " | "),
			log.FieldReason, w.Reason)
	}
}
