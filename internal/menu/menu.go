// Package menu implements the interactive terminal front end: a numbered
// menu that collects records, prints the stored rows and shows monthly
// reports.
package menu

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"myfinances/internal/core"
	"myfinances/internal/log"
	"myfinances/internal/report"
	"myfinances/internal/sheets"
)

// Choice is a main menu entry.
type Choice int

const (
	ChoiceExit Choice = iota
	ChoiceInstructions
	ChoiceAddIncome
	ChoiceAddExpense
	ChoiceDisplayAll
	ChoiceReport
)

const maxChoice = ChoiceReport

var (
	ErrInvalidChoice = fmt.Errorf("invalid choice: must be a number between 0 and %d", maxChoice)
	ErrInvalidMonth  = errors.New("invalid month name")
)

// RecordAdder stores validated records.
type RecordAdder interface {
	AddIncome(ctx context.Context, r core.IncomeRecord) (string, error)
	AddExpense(ctx context.Context, e core.ExpenseRecord) (string, error)
}

// ReportBuilder produces the monthly report.
type ReportBuilder interface {
	BuildMonthlyReport(ctx context.Context, month core.Month) (*report.Report, error)
}

// Options wires a Menu.
type Options struct {
	In            io.Reader
	Out           io.Writer
	Records       RecordAdder
	Reports       ReportBuilder
	Rows          sheets.RowReader
	Validator     *core.RecordValidator
	ExpenseSchema sheets.Schema
	Logger        *log.Logger
}

// Menu is the interactive loop. It is not safe for concurrent use.
type Menu struct {
	in            *bufio.Scanner
	out           io.Writer
	records       RecordAdder
	reports       ReportBuilder
	rows          sheets.RowReader
	validator     *core.RecordValidator
	expenseSchema sheets.Schema
	styles        styles
	logger        *log.Logger
}

func New(opts Options) *Menu {
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	validator := opts.Validator
	if validator == nil {
		validator = core.NewRecordValidator(nil)
	}
	schema := opts.ExpenseSchema
	if schema.Headers == nil {
		schema = sheets.ExpenseSchema()
	}
	return &Menu{
		in:            bufio.NewScanner(opts.In),
		out:           opts.Out,
		records:       opts.Records,
		reports:       opts.Reports,
		rows:          opts.Rows,
		validator:     validator,
		expenseSchema: schema,
		styles:        newStyles(opts.Out),
		logger:        logger.WithComponent(log.ComponentMenu),
	}
}

// ParseChoice accepts digits only, within the menu range.
func ParseChoice(raw string) (Choice, error) {
	s := strings.TrimSpace(raw)
	if s == "" || strings.ContainsFunc(s, func(r rune) bool { return r < '0' || r > '9' }) {
		return 0, ErrInvalidChoice
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < int(ChoiceExit) || n > int(maxChoice) {
		return 0, ErrInvalidChoice
	}
	return Choice(n), nil
}

// Run shows the welcome banner and serves the menu until the user exits,
// input ends or ctx is cancelled.
func (m *Menu) Run(ctx context.Context) error {
	m.welcome()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		choice, ok := ask(m, m.menuText(), ParseChoice)
		if !ok || choice == ChoiceExit {
			m.goodbye()
			return nil
		}

		m.logger.DebugContext(ctx, "Menu choice", "choice", int(choice))
		if !m.dispatch(ctx, choice) {
			m.goodbye()
			return nil
		}
		m.println(m.styles.prompt.Render("\nWhat would you like to do next?"))
	}
}

// dispatch runs one menu action. It returns false when input ended midway.
func (m *Menu) dispatch(ctx context.Context, choice Choice) bool {
	switch choice {
	case ChoiceInstructions:
		m.instructions()
		return true
	case ChoiceAddIncome:
		return m.addIncome(ctx)
	case ChoiceAddExpense:
		return m.addExpense(ctx)
	case ChoiceDisplayAll:
		m.displayAll(ctx)
		return true
	case ChoiceReport:
		return m.monthlyReport(ctx)
	}
	return true
}

func (m *Menu) welcome() {
	m.println(m.styles.banner.Render(strings.Join([]string{
		"WELCOME TO MyFinances APP!",
		"",
		"This expense tracker will help you monitor your income",
		"and expenses to understand your spending habits!",
		"",
		"Ready to start? Let's go! 🚀",
	}, "\n")))
}

func (m *Menu) goodbye() {
	m.println(m.styles.success.Render("\n✨ Your finances are in good hands ✨ Goodbye and See you next time!"))
}

func (m *Menu) menuText() string {
	lines := []string{
		m.styles.prompt.Render("Please select an option:"),
		"",
		m.styles.option.Render("1. Read the Instructions."),
		m.styles.option.Render("2. Add New Income."),
		m.styles.option.Render("3. Add New Expense."),
		m.styles.option.Render("4. Display All My Income and Expenses."),
		m.styles.option.Render("5. Check My Monthly Finance Report!"),
		m.styles.option.Render("0. Exit Program."),
		"",
		fmt.Sprintf("Enter your choice (0-%d):", maxChoice),
	}
	return strings.Join(lines, "\n")
}

func (m *Menu) instructions() {
	m.println(m.styles.title.Render("\nHOW TO USE MyFinances"))
	m.println(strings.Join([]string{
		"• Add an income with its month, source and amount.",
		"• Add an expense with its month, category, description and amount.",
		"• Months are full English names, e.g. january.",
		"• Amounts may be typed as 1.234,56 or 1,234.56 and are stored as 1.234,56.",
		"• Sources and descriptions need at least 4 characters and a letter.",
		"• Categories: " + strings.Join(m.validator.Categories().Strings(), ", ") + ".",
		"• The monthly report sums your income and expenses, shows the balance",
		"  and points out the category you spent the most on.",
	}, "\n"))
	if m.expenseSchema.HasDate() {
		m.println("• Expenses also take a date (YYYY-MM-DD) inside the chosen month.")
	}
}

func (m *Menu) addIncome(ctx context.Context) bool {
	m.println(m.styles.title.Render("\nTO ADD A NEW INCOME:"))

	month, ok := ask(m, "Please enter the month name (e.g., january):", parseMonth)
	if !ok {
		return false
	}
	source, ok := ask(m, "Enter income source:", m.validator.ValidateFreeText)
	if !ok {
		return false
	}
	amount, ok := ask(m, "Enter income amount:", core.ParseAmount)
	if !ok {
		return false
	}

	if _, err := m.records.AddIncome(ctx, core.IncomeRecord{Month: month, Source: source, Amount: amount}); err != nil {
		m.failed(ctx, "Could not save the income", err)
		return true
	}
	m.println(m.styles.success.Render(fmt.Sprintf("\nNew income for %s from %s (EUR %s) added successfully!",
		month, source, core.FormatAmount(amount))))
	m.printDataset(ctx, sheets.Income)
	return true
}

func (m *Menu) addExpense(ctx context.Context) bool {
	m.println(m.styles.title.Render("\nTO ADD A NEW EXPENSE:"))

	month, ok := ask(m, "Please enter the month name (e.g., january):", parseMonth)
	if !ok {
		return false
	}

	var date string
	if m.expenseSchema.HasDate() {
		date, ok = ask(m, "Enter expense date (YYYY-MM-DD):", func(raw string) (string, error) {
			if _, err := m.validator.ValidateExpenseDate(raw, month); err != nil {
				return "", err
			}
			return strings.TrimSpace(raw), nil
		})
		if !ok {
			return false
		}
	}

	categoryPrompt := "Enter expense category (" + strings.Join(m.validator.Categories().Strings(), ", ") + "):"
	category, ok := ask(m, categoryPrompt, m.validator.ValidateCategory)
	if !ok {
		return false
	}
	description, ok := ask(m, "Enter expense description:", m.validator.ValidateFreeText)
	if !ok {
		return false
	}
	amount, ok := ask(m, "Enter expense amount:", core.ParseAmount)
	if !ok {
		return false
	}

	e := core.ExpenseRecord{
		Month:       month,
		Date:        date,
		Category:    category,
		Description: description,
		Amount:      amount,
	}
	if _, err := m.records.AddExpense(ctx, e); err != nil {
		m.failed(ctx, "Could not save the expense", err)
		return true
	}

	msg := fmt.Sprintf("\nNew expense for %s (%s, EUR %s) added successfully!", month, category, core.FormatAmount(amount))
	if date != "" {
		msg = fmt.Sprintf("\nNew expense for %s on %s (%s, EUR %s) added successfully!", month, date, category, core.FormatAmount(amount))
	}
	m.println(m.styles.success.Render(msg))
	m.printDataset(ctx, sheets.Expenses)
	return true
}

func (m *Menu) displayAll(ctx context.Context) {
	m.println(m.styles.title.Render("\n**Income Data**"))
	m.printDataset(ctx, sheets.Income)
	m.println(m.styles.title.Render("\n**Expense Data**"))
	m.printDataset(ctx, sheets.Expenses)
}

// printDataset lists every stored row, header included, one per line with a
// dashed separator under each.
func (m *Menu) printDataset(ctx context.Context, dataset sheets.Dataset) {
	m.println(m.styles.muted.Render(fmt.Sprintf("Getting your %s data...\n", dataset)))
	rows, err := m.rows.GetAllRows(ctx, dataset)
	if err != nil {
		m.failed(ctx, fmt.Sprintf("Could not read the %s data", dataset), err)
		return
	}
	if len(rows) <= 1 {
		m.println(m.styles.muted.Render(fmt.Sprintf("No %s recorded yet.", dataset)))
	}
	for _, row := range rows {
		m.println(strings.Join(row, " | "))
		m.println(strings.Repeat("-", len(row)*9))
	}
}

func (m *Menu) monthlyReport(ctx context.Context) bool {
	month, ok := ask(m, "Please enter the month name (e.g., january):", parseMonth)
	if !ok {
		return false
	}

	r, err := m.reports.BuildMonthlyReport(ctx, month)
	switch {
	case errors.Is(err, report.ErrNoDataForMonth):
		m.println(m.styles.warn.Render(fmt.Sprintf("\nThere is no data for %s yet...", month)))
		return true
	case err != nil:
		m.failed(ctx, "Could not build the report", err)
		return true
	}

	m.printReport(r)
	return true
}

func (m *Menu) printReport(r *report.Report) {
	m.println(m.styles.title.Render("\n✨✨✨✨  MY MONTHLY FINANCE REPORT  ✨✨✨✨"))

	m.println(m.styles.muted.Render(fmt.Sprintf("\nCalculating your %s income and expenses...", r.Month)))
	if r.NoIncome {
		m.println(m.styles.warn.Render(fmt.Sprintf("No income recorded for %s.", r.Month)))
	}
	m.println(fmt.Sprintf("✅ TOTAL INCOME: EUR %s", r.Display.TotalIncome))
	m.println(fmt.Sprintf("✅ TOTAL EXPENSES: EUR %s", r.Display.TotalExpenses))

	m.println(m.styles.muted.Render(fmt.Sprintf("\nCalculating your %s cash balance...", r.Month)))
	if r.BalanceSign == report.BalanceNegative {
		m.println(m.styles.err.Render(fmt.Sprintf("🚨🚨 Attention! Negative cash balance!: EUR %s", r.Display.Balance)))
	} else {
		m.println(m.styles.success.Render(fmt.Sprintf("🎉🎉 Congratulations! Positive cash balance!: EUR %s", r.Display.Balance)))
	}

	m.println(m.styles.muted.Render(fmt.Sprintf("\nCalculating your %s detailed expense report...", r.Month)))
	if r.NoExpenses {
		m.println(m.styles.warn.Render(fmt.Sprintf("No expenses recorded for %s.", r.Month)))
	}
	for _, line := range r.Display.ExpensesByCategory {
		m.println(fmt.Sprintf("→ %s: EUR %s", line.Category, line.Amount))
	}
	if r.HasMax {
		m.println(m.styles.success.Render(fmt.Sprintf("\n🎯 HIGHEST EXPENSE: %s (EUR %s)",
			strings.ToUpper(string(r.MaxCategory)), r.Display.MaxAmount)))
	}

	if len(r.Warnings) > 0 {
		m.println(m.styles.warn.Render(fmt.Sprintf("\n%d row(s) could not be read and were skipped:", len(r.Warnings))))
		for _, w := range r.Warnings {
			m.println(m.styles.warn.Render("  ⚠ " + w.String()))
		}
	}
}

func (m *Menu) failed(ctx context.Context, what string, err error) {
	m.logger.ErrorContext(ctx, what, log.FieldError, err)
	m.println(m.styles.err.Render(fmt.Sprintf("%s: %v", what, err)))
}

func (m *Menu) readLine() (string, bool) {
	if !m.in.Scan() {
		return "", false
	}
	return m.in.Text(), true
}

func (m *Menu) println(s string) {
	fmt.Fprintln(m.out, s)
}

// ask prompts until parse accepts the answer. ok is false once input ends.
func ask[T any](m *Menu, prompt string, parse func(string) (T, error)) (T, bool) {
	for {
		m.println(prompt)
		line, ok := m.readLine()
		if !ok {
			var zero T
			return zero, false
		}
		v, err := parse(line)
		if err == nil {
			return v, true
		}
		m.println(m.styles.err.Render(errorText(err)))
	}
}

func parseMonth(raw string) (core.Month, error) {
	month, err := core.ParseMonth(raw)
	if err != nil {
		return "", ErrInvalidMonth
	}
	return month, nil
}

// errorText is the message shown under a prompt that rejected its input.
func errorText(err error) string {
	switch {
	case errors.Is(err, ErrInvalidChoice):
		return fmt.Sprintf("Invalid choice! Please enter a number between 0 and %d.", maxChoice)
	case errors.Is(err, ErrInvalidMonth):
		return "Invalid month name!"
	case errors.Is(err, core.ErrEmptyAmount), errors.Is(err, core.ErrInvalidAmountFormat):
		return fmt.Sprintf("Invalid amount: %v. Try e.g. 1.234,56 or 1234.56.", err)
	case errors.Is(err, core.ErrNegativeAmount):
		return "Invalid amount: amount cannot be negative."
	}
	return err.Error()
}
