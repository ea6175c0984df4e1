package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type (
	// Month is a title-cased English month name such as "January".
	// There is no year component; the tracker covers a single year.
	Month string

	// Category is one entry of the closed expense category set.
	Category string

	// Categories is the ordered set of accepted expense categories.
	Categories []Category

	IncomeRecord struct {
		Month  Month           `validate:"required,month"`
		Source string          `validate:"freetext"`
		Amount decimal.Decimal `validate:"-"`
	}

	ExpenseRecord struct {
		Month Month `validate:"required,month"`
		// Date is only collected for the dated sheet layout.
		Date        string          `validate:"omitempty,isodate"`
		Category    Category        `validate:"required,category"`
		Description string          `validate:"freetext"`
		Amount      decimal.Decimal `validate:"-"`
	}
)

const (
	Housing        Category = "Housing"
	Transportation Category = "Transportation"
	Food           Category = "Food"
	PersonalCare   Category = "Personal Care"
	Healthcare     Category = "Healthcare"
	Entertainment  Category = "Entertainment"
	Shopping       Category = "Shopping"
	Education      Category = "Education"
	Travel         Category = "Travel"
	Gifts          Category = "Gifts"
	Other          Category = "Other"
)

// MinTextLength is the shortest accepted source or description.
const MinTextLength = 4

var (
	ErrEmptyAmount         = errors.New("amount cannot be empty")
	ErrNegativeAmount      = errors.New("amount cannot be negative")
	ErrInvalidAmountFormat = errors.New("invalid amount format")
	ErrInvalidMonth        = errors.New("invalid month name")
	ErrInvalidCategory     = errors.New("invalid category")
	ErrTextTooShort        = errors.New("text is too short")
	ErrTextNumeric         = errors.New("text cannot be only numbers")
	ErrTextNotAlphabetic   = errors.New("text must contain at least one letter")
	ErrInvalidDate         = errors.New("invalid date, expected YYYY-MM-DD")
	ErrDateMonthMismatch   = errors.New("date does not match the month")
)

// DefaultCategories returns the built-in expense categories.
func DefaultCategories() Categories {
	return Categories{
		Housing, Transportation, Food, PersonalCare, Healthcare,
		Entertainment, Shopping, Education, Travel, Gifts, Other,
	}
}

// Contains reports whether c is in the set. The comparison is exact; callers
// title-case input first.
func (cs Categories) Contains(c Category) bool {
	for _, v := range cs {
		if v == c {
			return true
		}
	}
	return false
}

// Strings returns the category names in order.
func (cs Categories) Strings() []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = string(c)
	}
	return out
}

// Months returns the twelve month names in calendar order.
func Months() []Month {
	out := make([]Month, 0, 12)
	for m := time.January; m <= time.December; m++ {
		out = append(out, Month(m.String()))
	}
	return out
}

// Number returns the calendar month (1-12), or 0 when m is not a month name.
func (m Month) Number() int {
	for i, name := range Months() {
		if strings.EqualFold(string(name), strings.TrimSpace(string(m))) {
			return i + 1
		}
	}
	return 0
}

// Matches reports whether a stored month field refers to m.
func (m Month) Matches(field string) bool {
	return strings.EqualFold(strings.TrimSpace(field), string(m))
}

func (m Month) String() string {
	return string(m)
}
