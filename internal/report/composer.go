package report

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"myfinances/internal/core"
	"myfinances/internal/log"
	"myfinances/internal/sheets"
)

// ErrNoDataForMonth is returned when neither dataset has a row for the
// requested month. It is an expected outcome, not a store failure.
var ErrNoDataForMonth = errors.New("no data for month")

// BalanceSign tells whether the month closed in surplus or deficit.
type BalanceSign string

const (
	BalancePositive BalanceSign = "positive"
	BalanceNegative BalanceSign = "negative"
)

// Report is the set of figures computed for one month.
type Report struct {
	Month              core.Month
	TotalIncome        decimal.Decimal
	TotalExpenses      decimal.Decimal
	Balance            decimal.Decimal
	BalanceSign        BalanceSign
	ExpensesByCategory CategoryTotals
	NoIncome           bool
	NoExpenses         bool
	MaxCategory        core.Category
	MaxAmount          decimal.Decimal
	HasMax             bool
	Display            Display
	Warnings           []RowWarning
}

// Display holds every monetary figure of a Report already formatted.
type Display struct {
	TotalIncome        string
	TotalExpenses      string
	Balance            string
	MaxAmount          string
	ExpensesByCategory []CategoryLine
}

// CategoryLine is one formatted category total.
type CategoryLine struct {
	Category core.Category
	Amount   string
}

// Composer builds monthly reports from the store.
type Composer struct {
	store        sheets.RowReader
	engine       *Engine
	incomeSchema sheets.Schema
	logger       *log.Logger
}

// NewComposer builds a Composer. Expense rows are read through the engine's
// expense schema.
func NewComposer(store sheets.RowReader, engine *Engine, incomeSchema sheets.Schema, logger *log.Logger) *Composer {
	if logger == nil {
		logger = log.Discard()
	}
	return &Composer{
		store:        store,
		engine:       engine,
		incomeSchema: incomeSchema,
		logger:       logger.WithComponent(log.ComponentReport),
	}
}

// BuildMonthlyReport reads both datasets and aggregates them for month.
// Rows are fetched fresh on every call.
func (c *Composer) BuildMonthlyReport(ctx context.Context, month core.Month) (*Report, error) {
	incomeRows, err := c.store.GetAllRows(ctx, sheets.Income)
	if err != nil {
		return nil, fmt.Errorf("read income: %w", err)
	}
	expenseRows, err := c.store.GetAllRows(ctx, sheets.Expenses)
	if err != nil {
		return nil, fmt.Errorf("read expenses: %w", err)
	}

	hasIncome := c.engine.HasDataForMonth(incomeRows, month)
	hasExpenses := c.engine.HasDataForMonth(expenseRows, month)
	if !hasIncome && !hasExpenses {
		return nil, fmt.Errorf("%w: %s", ErrNoDataForMonth, month)
	}

	r := &Report{
		Month:         month,
		TotalIncome:   decimal.Zero,
		TotalExpenses: decimal.Zero,
		NoIncome:      !hasIncome,
		NoExpenses:    !hasExpenses,
	}

	if hasIncome {
		total, warnings := c.engine.sumColumn(sheets.Income, incomeRows, month, c.incomeSchema.AmountCol)
		r.TotalIncome = total
		r.Warnings = append(r.Warnings, warnings...)
	}

	if hasExpenses {
		total, warnings := c.engine.sumColumn(sheets.Expenses, expenseRows, month, c.engine.expenseSchema.AmountCol)
		r.TotalExpenses = total
		r.Warnings = append(r.Warnings, warnings...)

		// Both passes skip the same rows; keep the column pass warnings only.
		r.ExpensesByCategory, _ = c.engine.sumByCategory(expenseRows, month)
	}
	if len(r.ExpensesByCategory) == 0 {
		r.NoExpenses = true
	}

	r.Balance = r.TotalIncome.Sub(r.TotalExpenses)
	r.BalanceSign = BalancePositive
	if r.Balance.IsNegative() {
		r.BalanceSign = BalanceNegative
	}

	r.MaxCategory, r.MaxAmount, r.HasMax = c.engine.MaxCategory(r.ExpensesByCategory)
	r.Display = display(r)
	c.engine.logWarnings(r.Warnings)

	c.logger.InfoContext(ctx, "Monthly report built",
		log.FieldMonth, string(month),
		"total_income", r.TotalIncome.StringFixed(2),
		"total_expenses", r.TotalExpenses.StringFixed(2),
		"warnings", len(r.Warnings))
	return r, nil
}

func display(r *Report) Display {
	d := Display{
		TotalIncome:   core.FormatAmount(r.TotalIncome),
		TotalExpenses: core.FormatAmount(r.TotalExpenses),
		Balance:       core.FormatAmount(r.Balance),
	}
	if r.HasMax {
		d.MaxAmount = core.FormatAmount(r.MaxAmount)
	}
	for _, ca := range r.ExpensesByCategory {
		d.ExpensesByCategory = append(d.ExpensesByCategory, CategoryLine{
			Category: ca.Name,
			Amount:   core.FormatAmount(ca.Amount),
		})
	}
	return d
}
