package ast

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Date wraps time.Time so directive dates compare and format the way the
// rest of the domain expects (day granularity, ISO rendering), while still
// giving callers the full time.Time API.
type Date struct {
	time.Time
}

// NewDate builds a Date from a y/m/d triple, truncated to UTC midnight so
// date comparisons never trip over a stray time-of-day component.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses an ISO (2006-01-02) date string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{t}, nil
}

func (d Date) String() string {
	return d.Format("2006-01-02")
}

// IsZero is nil-safe so code can range over *Date pointers without guards.
func (d *Date) IsZero() bool {
	if d == nil {
		return true
	}
	return d.Time.IsZero()
}

// Before/After/Equal delegate to time.Time but accept the Date wrapper
// directly, matching how the rest of the codebase compares dates.
func (d Date) Before(other Date) bool { return d.Time.Before(other.Time) }
func (d Date) After(other Date) bool { return d.Time.After(other.Time) }
func (d Date) Equal(other Date) bool { return d.Time.Equal(other.Time) }

// Compare returns -1, 0, or 1 the way sort.Slice comparators expect.
func (d Date) Compare(other Date) int {
	switch {
	case d.Before(other):
		return -1
	case d.After(other):
		return 1
	default:
		return 0
	}
}

// Commodity is an interned, case-sensitive identifier such as "USD" or
// "AAPL". It is a plain string type rather than a pooled interner because
// Go string comparisons are already O(1)-amortized via the runtime's
// string interning of identical literals; a custom interner would only
// add bookkeeping without a measurable benefit for typical ledger sizes.
type Commodity string

// Account is a hierarchical "Type:Seg1:Seg2:..." name. Type must be one
// of the AccountType roots (Assets, Liabilities, Equity, Income, Expenses).
type Account string

// AccountType enumerates the five top-level account roots.
type AccountType int

const (
	AccountTypeUnknown AccountType = iota
	AccountTypeAssets
	AccountTypeLiabilities
	AccountTypeEquity
	AccountTypeIncome
	AccountTypeExpenses
)

func (t AccountType) String() string {
	switch t {
	case AccountTypeAssets:
		return "Assets"
	case AccountTypeLiabilities:
		return "Liabilities"
	case AccountTypeEquity:
		return "Equity"
	case AccountTypeIncome:
		return "Income"
	case AccountTypeExpenses:
		return "Expenses"
	default:
		return "Unknown"
	}
}

// Amount pairs a decimal quantity with the commodity it is denominated
// in. Operations across Amounts are only defined when commodities match;
// everything else routes through a PriceGrip conversion or a multi-
// commodity container (see ledger.Inventory).
type Amount struct {
	Number   decimal.Decimal
	Currency Commodity
}

func NewAmount(number decimal.Decimal, currency Commodity) Amount {
	return Amount{Number: number, Currency: currency}
}

func (a Amount) String() string {
	return fmt.Sprintf("%s %s", a.Number.String(), a.Currency)
}

func (a Amount) IsZero() bool { return a.Number.IsZero() }

func (a Amount) Neg() Amount {
	return Amount{Number: a.Number.Neg(), Currency: a.Currency}
}

// CostSpec captures the "{cost per-unit CUR}" clause of a posting.
// Only per-unit cost is modeled; there is no total-cost form.
type CostSpec struct {
	PerUnit *Amount
	Date    *Date
	Label   string
}

// PriceSpec captures the "@ price-per-unit CUR" or "@@ total-price CUR"
// clause of a posting, used to convert that posting's contribution into
// the transaction's balancing currency.
type PriceSpec struct {
	Amount  Amount
	IsTotal bool // true for "@@", false for "@"
}

// Metadata is a freeform key/value map attached to directives and
// postings (e.g. "category: \"groceries\"").
type Metadata map[string]string
