package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	TypeExpense    TxType = "expense"
	TypeIncome     TxType = "income"
	TypeInvestment TxType = "investment"
)

// CategoryOther is the reserved label that must be replaced by free text
// before a transaction is accepted.
const CategoryOther = "Other"

type (
	TxType string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Transaction struct {
		ID       string
		Title    string
		Amount   Money
		Date     Date
		Category string
		Type     TxType
		Notes    string
	}
)

// ErrValidation is the base of every validation failure. Callers check it
// with errors.Is and report the concrete message to the user.
var (
	ErrValidation    = errors.New("validation failed")
	ErrEmptyTitle    = fmt.Errorf("%w: title required", ErrValidation)
	ErrInvalidAmount = fmt.Errorf("%w: amount must be positive", ErrValidation)
	ErrInvalidDate   = fmt.Errorf("%w: invalid date", ErrValidation)
	ErrFutureDate    = fmt.Errorf("%w: date cannot be in the future", ErrValidation)
	ErrEmptyCategory = fmt.Errorf("%w: category required", ErrValidation)
	ErrCategoryOther = fmt.Errorf("%w: custom category text required when Other is selected", ErrValidation)
	ErrInvalidType   = fmt.Errorf("%w: invalid transaction type", ErrValidation)
	ErrTitleTooLong  = fmt.Errorf("%w: title too long (max 200 characters)", ErrValidation)
)

// Categories is the fixed taxonomy; "Other" unlocks free-text input.
func Categories() []string {
	return []string{
		"Food",
		"Transport",
		"Housing",
		"Utilities",
		"Entertainment",
		"Health",
		"Shopping",
		"Education",
		"Salary",
		"Stocks",
		CategoryOther,
	}
}

func (t TxType) IsValid() bool {
	switch t {
	case TypeExpense, TypeIncome, TypeInvestment:
		return true
	default:
		return false
	}
}

// ParseDate parses an ISO calendar date (YYYY-MM-DD) in UTC.
func ParseDate(s string) (Date, error) {
	parsed, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: parsed.UTC()}, nil
}

// NewDate creates a Date from year, month, day in UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ISO renders the date as YYYY-MM-DD. Zero dates render as "".
func (d Date) ISO() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006-01-02")
}

// MonthKey returns the YYYY-MM bucket key used by monthly aggregates.
// Zero (missing or malformed) dates have no bucket.
func (d Date) MonthKey() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006-01")
}

// AfterDay reports whether d falls on a later calendar day than other.
// Comparison is on UTC calendar dates, never on raw date strings.
func (d Date) AfterDay(other time.Time) bool {
	if d.IsZero() {
		return false
	}
	y1, m1, d1 := d.Date()
	y2, m2, d2 := other.UTC().Date()
	if y1 != y2 {
		return y1 > y2
	}
	if m1 != m2 {
		return m1 > m2
	}
	return d1 > d2
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Validate checks the entry invariants against the current clock.
func (t Transaction) Validate() error {
	return t.ValidateAt(time.Now())
}

// ValidateAt checks the entry invariants with an explicit "now", so the
// future-date rule stays testable.
func (t Transaction) ValidateAt(now time.Time) error {
	title := strings.TrimSpace(t.Title)
	if title == "" {
		return ErrEmptyTitle
	}
	if len(title) > 200 {
		return ErrTitleTooLong
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	if t.Date.AfterDay(now) {
		return ErrFutureDate
	}
	category := strings.TrimSpace(t.Category)
	if category == "" {
		return ErrEmptyCategory
	}
	if category == CategoryOther {
		return ErrCategoryOther
	}
	if !t.Type.IsValid() {
		return ErrInvalidType
	}
	return nil
}
