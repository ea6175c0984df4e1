package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// RecordValidator checks user input before it is appended to a dataset.
// The accepted categories are injected so tests and alternative sheets can
// use their own set.
type RecordValidator struct {
	validate   *validator.Validate
	categories Categories
}

// NewRecordValidator creates a validator for the given category set.
// An empty set falls back to DefaultCategories.
func NewRecordValidator(categories Categories) *RecordValidator {
	if len(categories) == 0 {
		categories = DefaultCategories()
	}
	rv := &RecordValidator{
		validate:   validator.New(),
		categories: categories,
	}

	rules := []rule{
		{"month", func(fl validator.FieldLevel) bool {
			_, err := ParseMonth(fl.Field().String())
			return err == nil
		}},
		{"category", func(fl validator.FieldLevel) bool {
			_, err := rv.ValidateCategory(fl.Field().String())
			return err == nil
		}},
		{"freetext", func(fl validator.FieldLevel) bool {
			_, err := ValidateFreeText(fl.Field().String(), MinTextLength)
			return err == nil
		}},
		{"isodate", func(fl validator.FieldLevel) bool {
			_, err := time.Parse(time.DateOnly, strings.TrimSpace(fl.Field().String()))
			return err == nil
		}},
	}
	// The rules are fixed at compile time; a failure here is a programming error.
	if err := registerRules(rv.validate, rules); err != nil {
		panic(err)
	}

	return rv
}

type rule struct {
	tag string
	fn  validator.Func
}

func registerRules(v *validator.Validate, rules []rule) error {
	for _, r := range rules {
		if err := v.RegisterValidation(r.tag, r.fn); err != nil {
			return fmt.Errorf("register %q validation: %w", r.tag, err)
		}
	}
	return nil
}

// Categories returns the accepted category set.
func (rv *RecordValidator) Categories() Categories {
	return rv.categories
}

// ParseMonth interprets raw as a full English month name, ignoring case and
// surrounding whitespace, and returns it title-cased.
func ParseMonth(raw string) (Month, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return "", ErrInvalidMonth
	}
	for _, m := range Months() {
		if strings.ToLower(string(m)) == s {
			return m, nil
		}
	}
	return "", ErrInvalidMonth
}

// ValidateMonth is ParseMonth exposed on the validator for symmetry with the
// other field checks.
func (rv *RecordValidator) ValidateMonth(raw string) (Month, error) {
	return ParseMonth(raw)
}

// ValidateFreeText trims raw and checks it is long enough, not purely
// numeric and contains at least one letter.
func ValidateFreeText(raw string, minLength int) (string, error) {
	s := strings.TrimSpace(raw)
	if len([]rune(s)) < minLength {
		return "", fmt.Errorf("%w: minimum %d characters", ErrTextTooShort, minLength)
	}
	if isNumeric(s) {
		return "", ErrTextNumeric
	}
	if !strings.ContainsFunc(s, unicode.IsLetter) {
		return "", ErrTextNotAlphabetic
	}
	return s, nil
}

// ValidateFreeText uses MinTextLength.
func (rv *RecordValidator) ValidateFreeText(raw string) (string, error) {
	return ValidateFreeText(raw, MinTextLength)
}

// ValidateCategory title-cases raw and accepts it only if it belongs to the
// configured set.
func (rv *RecordValidator) ValidateCategory(raw string) (Category, error) {
	c := NormalizeCategory(raw)
	if c == "" || !rv.categories.Contains(c) {
		return "", fmt.Errorf("%w: choose one of %s", ErrInvalidCategory, strings.Join(rv.categories.Strings(), ", "))
	}
	return c, nil
}

// NormalizeCategory trims and title-cases a category field.
func NormalizeCategory(raw string) Category {
	// Casers keep state, so a fresh one is used per call.
	return Category(cases.Title(language.English).String(strings.ToLower(strings.TrimSpace(raw))))
}

// ValidateExpenseDate parses a YYYY-MM-DD date and checks that it falls in
// month.
func (rv *RecordValidator) ValidateExpenseDate(raw string, month Month) (time.Time, error) {
	s := strings.TrimSpace(raw)
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	if int(t.Month()) != month.Number() {
		return time.Time{}, fmt.Errorf("%w: '%s' is not in %s", ErrDateMonthMismatch, s, month)
	}
	return t, nil
}

// ValidateIncome checks every field of r and returns it normalized.
func (rv *RecordValidator) ValidateIncome(r IncomeRecord) (IncomeRecord, error) {
	if err := rv.validate.Struct(r); err != nil {
		return IncomeRecord{}, rv.translate(err, r.Source)
	}
	if r.Amount.IsNegative() {
		return IncomeRecord{}, ErrNegativeAmount
	}
	r.Month, _ = ParseMonth(string(r.Month))
	r.Source = strings.TrimSpace(r.Source)
	return r, nil
}

// ValidateExpense checks every field of e and returns it normalized.
func (rv *RecordValidator) ValidateExpense(e ExpenseRecord) (ExpenseRecord, error) {
	if err := rv.validate.Struct(e); err != nil {
		return ExpenseRecord{}, rv.translate(err, e.Description)
	}
	if e.Amount.IsNegative() {
		return ExpenseRecord{}, ErrNegativeAmount
	}
	e.Month, _ = ParseMonth(string(e.Month))
	if e.Date != "" {
		if _, err := rv.ValidateExpenseDate(e.Date, e.Month); err != nil {
			return ExpenseRecord{}, err
		}
		e.Date = strings.TrimSpace(e.Date)
	}
	e.Category = NormalizeCategory(string(e.Category))
	e.Description = strings.TrimSpace(e.Description)
	return e, nil
}

// translate maps the first validator failure back to the package sentinel
// errors so callers can use errors.Is.
func (rv *RecordValidator) translate(err error, text string) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	switch fe.StructField() {
	case "Month":
		return ErrInvalidMonth
	case "Category":
		_, cerr := rv.ValidateCategory(fmt.Sprint(fe.Value()))
		if cerr == nil {
			cerr = ErrInvalidCategory
		}
		return cerr
	case "Date":
		return ErrInvalidDate
	case "Source", "Description":
		_, terr := ValidateFreeText(text, MinTextLength)
		if terr == nil {
			return fmt.Errorf("invalid %s", strings.ToLower(fe.StructField()))
		}
		return fmt.Errorf("%s: %w", strings.ToLower(fe.StructField()), terr)
	}
	return fmt.Errorf("invalid %s", strings.ToLower(fe.StructField()))
}

func isNumeric(s string) bool {
	digits := 0
	for _, r := range s {
		switch {
		case unicode.IsDigit(r):
			digits++
		case r == '.' || r == ',' || r == ' ' || r == '-' || r == '+':
		default:
			return false
		}
	}
	return digits > 0
}
