package menu

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"myfinances/internal/core"
	"myfinances/internal/report"
	"myfinances/internal/sheets"
	"myfinances/internal/sheets/memory"
)

type stubRecords struct {
	incomes  []core.IncomeRecord
	expenses []core.ExpenseRecord
	err      error
}

func (s *stubRecords) AddIncome(_ context.Context, r core.IncomeRecord) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.incomes = append(s.incomes, r)
	return "1", nil
}

func (s *stubRecords) AddExpense(_ context.Context, e core.ExpenseRecord) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.expenses = append(s.expenses, e)
	return "1", nil
}

type stubReports struct {
	report *report.Report
	err    error
	months []core.Month
}

func (s *stubReports) BuildMonthlyReport(_ context.Context, month core.Month) (*report.Report, error) {
	s.months = append(s.months, month)
	return s.report, s.err
}

type fixture struct {
	out     *bytes.Buffer
	records *stubRecords
	store   *memory.Store
	menu    *Menu
}

func newFixture(input string, schema sheets.Schema, reports ReportBuilder) *fixture {
	store := memory.New(map[sheets.Dataset][]string{
		sheets.Income:   sheets.IncomeSchema().Headers,
		sheets.Expenses: schema.Headers,
	})
	if reports == nil {
		engine := report.NewEngine(core.DefaultCategories(), schema, nil)
		reports = report.NewComposer(store, engine, sheets.IncomeSchema(), nil)
	}
	f := &fixture{out: &bytes.Buffer{}, records: &stubRecords{}, store: store}
	f.menu = New(Options{
		In:            strings.NewReader(input),
		Out:           f.out,
		Records:       f.records,
		Reports:       reports,
		Rows:          store,
		ExpenseSchema: schema,
	})
	return f
}

func (f *fixture) seed(t *testing.T, dataset sheets.Dataset, rows ...[]any) {
	t.Helper()
	for _, r := range rows {
		_, err := f.store.AppendRow(context.Background(), dataset, r)
		require.NoError(t, err)
	}
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		in      string
		want    Choice
		wantErr bool
	}{
		{"0", ChoiceExit, false},
		{"1", ChoiceInstructions, false},
		{" 5 ", ChoiceReport, false},
		{"03", ChoiceAddExpense, false},
		{"6", 0, true},
		{"-1", 0, true},
		{"1.0", 0, true},
		{"two", 0, true},
		{"", 0, true},
		{"٣", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseChoice(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidChoice)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestErrorText(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{ErrInvalidChoice, "Invalid choice! Please enter a number between 0 and 5."},
		{ErrInvalidMonth, "Invalid month name!"},
		{core.ErrNegativeAmount, "Invalid amount: amount cannot be negative."},
		{core.ErrInvalidAmountFormat, "Invalid amount: invalid amount format. Try e.g. 1.234,56 or 1234.56."},
		{core.ErrTextNumeric, "text cannot be only numbers"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, errorText(tt.err))
	}
	assert.Equal(t, "invalid choice: must be a number between 0 and 5", ErrInvalidChoice.Error())
	assert.Equal(t, "invalid month name", ErrInvalidMonth.Error())
}

func TestRun_ExitAndEOF(t *testing.T) {
	for name, input := range map[string]string{"exit": "0\n", "eof": ""} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(input, sheets.ExpenseSchema(), nil)
			require.NoError(t, f.menu.Run(context.Background()))
			out := f.out.String()
			assert.Contains(t, out, "WELCOME TO MyFinances APP!")
			assert.Contains(t, out, "Please select an option:")
			assert.Contains(t, out, "Goodbye and See you next time!")
		})
	}
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f := newFixture("1\n", sheets.ExpenseSchema(), nil)
	assert.ErrorIs(t, f.menu.Run(ctx), context.Canceled)
}

func TestRun_InvalidChoiceRetries(t *testing.T) {
	f := newFixture("9\nabc\n1\n0\n", sheets.ExpenseSchema(), nil)
	require.NoError(t, f.menu.Run(context.Background()))

	out := f.out.String()
	assert.Equal(t, 2, strings.Count(out, "Invalid choice! Please enter a number between 0 and 5."))
	assert.Contains(t, out, "HOW TO USE MyFinances")
	assert.Contains(t, out, "Personal Care")
	assert.NotContains(t, out, "YYYY-MM-DD")
	assert.Contains(t, out, "What would you like to do next?")
}

func TestAddIncome(t *testing.T) {
	f := newFixture("2\nsomemonth\n march \n12\nSalary\n-5\n1,500.5\n0\n", sheets.ExpenseSchema(), nil)
	require.NoError(t, f.menu.Run(context.Background()))

	require.Len(t, f.records.incomes, 1)
	got := f.records.incomes[0]
	assert.Equal(t, core.Month("March"), got.Month)
	assert.Equal(t, "Salary", got.Source)
	assert.True(t, got.Amount.Equal(decimal.RequireFromString("1500.5")))

	out := f.out.String()
	assert.Contains(t, out, "Invalid month name!")
	assert.Contains(t, out, core.ErrTextTooShort.Error())
	assert.Contains(t, out, "amount cannot be negative")
	assert.Contains(t, out, "New income for March from Salary (EUR 1.500,50) added successfully!")
	assert.Contains(t, out, "Getting your income data...")
}

func TestAddIncome_StoreFailureContinues(t *testing.T) {
	f := newFixture("2\nmarch\nSalary\n100\n1\n0\n", sheets.ExpenseSchema(), nil)
	f.records.err = errors.New("sheet unavailable")
	require.NoError(t, f.menu.Run(context.Background()))

	out := f.out.String()
	assert.Contains(t, out, "Could not save the income: sheet unavailable")
	assert.NotContains(t, out, "added successfully")
	assert.Contains(t, out, "HOW TO USE MyFinances")
}

func TestAddExpense_StandardLayout(t *testing.T) {
	f := newFixture("3\nmarch\nfuel\nfood\nGroceries\n12,50\n0\n", sheets.ExpenseSchema(), nil)
	require.NoError(t, f.menu.Run(context.Background()))

	require.Len(t, f.records.expenses, 1)
	got := f.records.expenses[0]
	assert.Equal(t, core.Food, got.Category)
	assert.Empty(t, got.Date)
	assert.True(t, got.Amount.Equal(decimal.RequireFromString("12.5")))

	out := f.out.String()
	assert.NotContains(t, out, "Enter expense date")
	assert.Contains(t, out, core.ErrInvalidCategory.Error())
	assert.Contains(t, out, "New expense for March (Food, EUR 12,50) added successfully!")
}

func TestAddExpense_DatedLayout(t *testing.T) {
	input := "3\nmarch\n2024-04-01\n2024-03-05\nHealthcare\nDentist visit\n80\n0\n"
	f := newFixture(input, sheets.DatedExpenseSchema(), nil)
	require.NoError(t, f.menu.Run(context.Background()))

	require.Len(t, f.records.expenses, 1)
	assert.Equal(t, "2024-03-05", f.records.expenses[0].Date)

	out := f.out.String()
	assert.Contains(t, out, "Enter expense date (YYYY-MM-DD):")
	assert.Contains(t, out, core.ErrDateMonthMismatch.Error())
	assert.Contains(t, out, "New expense for March on 2024-03-05 (Healthcare, EUR 80,00) added successfully!")
}

func TestAddExpense_EOFMidway(t *testing.T) {
	f := newFixture("3\nmarch\n", sheets.ExpenseSchema(), nil)
	require.NoError(t, f.menu.Run(context.Background()))

	assert.Empty(t, f.records.expenses)
	assert.Contains(t, f.out.String(), "Goodbye and See you next time!")
}

func TestDisplayAll(t *testing.T) {
	f := newFixture("4\n0\n", sheets.ExpenseSchema(), nil)
	f.seed(t, sheets.Income, []any{"March", "Salary", "2.000,00"})
	require.NoError(t, f.menu.Run(context.Background()))

	out := f.out.String()
	assert.Contains(t, out, "**Income Data**")
	assert.Contains(t, out, "Month | Source | Amount\n"+strings.Repeat("-", 27)+"\n")
	assert.Contains(t, out, "March | Salary | 2.000,00\n")
	assert.Contains(t, out, "**Expense Data**")
	assert.Contains(t, out, "Month | Category | Description | Amount\n"+strings.Repeat("-", 36)+"\n")
	assert.Contains(t, out, "No expenses recorded yet.")
}

func TestMonthlyReport(t *testing.T) {
	f := newFixture("5\nMARCH\n0\n", sheets.ExpenseSchema(), nil)
	f.seed(t, sheets.Income, []any{"March", "Salary", "2.000,00"})
	f.seed(t, sheets.Expenses,
		[]any{"March", "Food", "Groceries", "300,00"},
		[]any{"March", "Housing", "Rent", "700,00"},
		[]any{"March", "Food", "Broken", "abc"},
		[]any{"April", "Travel", "Flight", "900,00"},
	)
	require.NoError(t, f.menu.Run(context.Background()))

	out := f.out.String()
	assert.Contains(t, out, "MY MONTHLY FINANCE REPORT")
	assert.Contains(t, out, "✅ TOTAL INCOME: EUR 2.000,00")
	assert.Contains(t, out, "✅ TOTAL EXPENSES: EUR 1.000,00")
	assert.Contains(t, out, "Congratulations! Positive cash balance!: EUR 1.000,00")
	assert.Contains(t, out, "→ Food: EUR 300,00")
	assert.Contains(t, out, "→ Housing: EUR 700,00")
	assert.NotContains(t, out, "Travel")
	assert.Contains(t, out, "🎯 HIGHEST EXPENSE: HOUSING (EUR 700,00)")
	assert.Contains(t, out, "1 row(s) could not be read and were skipped:")
	assert.Contains(t, out, "March | Food | Broken | abc")
}

func TestMonthlyReport_NegativeBalance(t *testing.T) {
	f := newFixture("5\nmarch\n0\n", sheets.ExpenseSchema(), nil)
	f.seed(t, sheets.Expenses, []any{"March", "Travel", "Flight", "850,00"})
	require.NoError(t, f.menu.Run(context.Background()))

	out := f.out.String()
	assert.Contains(t, out, "No income recorded for March.")
	assert.Contains(t, out, "Attention! Negative cash balance!: EUR -850,00")
	assert.Contains(t, out, "HIGHEST EXPENSE: TRAVEL (EUR 850,00)")
}

func TestMonthlyReport_NoData(t *testing.T) {
	f := newFixture("5\njuly\n0\n", sheets.ExpenseSchema(), nil)
	require.NoError(t, f.menu.Run(context.Background()))

	out := f.out.String()
	assert.Contains(t, out, "There is no data for July yet...")
	assert.NotContains(t, out, "MY MONTHLY FINANCE REPORT")
}

func TestMonthlyReport_BuildError(t *testing.T) {
	reports := &stubReports{err: errors.New("quota exceeded")}
	f := newFixture("5\nmay\n0\n", sheets.ExpenseSchema(), reports)
	require.NoError(t, f.menu.Run(context.Background()))

	assert.Equal(t, []core.Month{"May"}, reports.months)
	assert.Contains(t, f.out.String(), "Could not build the report: quota exceeded")
}
