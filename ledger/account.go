package ledger

import (
	"strings"

	"github.com/avaro-team/avaro/ast"
)

// AccountStatus mirrors the state machine from spec.md §4's "State
// machine for an account": Unknown -> Open <-> Close.
type AccountStatus int

const (
	AccountUnknown AccountStatus = iota
	AccountOpen
	AccountClosed
)

// AccountInfo is the declarative half of an account: everything the
// Open/Close directives establish, independent of its running balance
// (which lives in Ledger.snapshot, keyed by the same account name).
type AccountInfo struct {
	Name        ast.Account
	Status      AccountStatus
	Commodities map[ast.Commodity]bool // empty/nil set == unrestricted
	Meta        ast.Metadata
	OpenDate    *ast.Date
	CloseDate   *ast.Date
}

// AllowsCommodity reports whether c is permitted in this account,
// per spec.md §3: "allowed commodities (possibly empty = unrestricted)".
func (a *AccountInfo) AllowsCommodity(c ast.Commodity) bool {
	if len(a.Commodities) == 0 {
		return true
	}
	return a.Commodities[c]
}

// Type returns the account's root type segment (e.g. Assets from
// "Assets:Cash:Checking").
func (a *AccountInfo) Type() ast.AccountType {
	root := string(a.Name)
	if idx := strings.IndexByte(root, ':'); idx >= 0 {
		root = root[:idx]
	}
	switch root {
	case "Assets":
		return ast.AccountTypeAssets
	case "Liabilities":
		return ast.AccountTypeLiabilities
	case "Equity":
		return ast.AccountTypeEquity
	case "Income":
		return ast.AccountTypeIncome
	case "Expenses":
		return ast.AccountTypeExpenses
	default:
		return ast.AccountTypeUnknown
	}
}

// CurrencyInfo is the declared-commodity half of spec.md §3's
// CurrencyInfo: a declared commodity plus the prices observed against
// it, keyed by target commodity then indexed by date.
type CurrencyInfo struct {
	Currency ast.Commodity
	Meta     ast.Metadata
	// Prices[quote] is every (date, rate) observation for Currency-per-quote,
	// kept in insertion order (the grip itself is the source of truth for
	// lookups; this is the denormalized view spec.md's CurrencyInfo asks for).
	Prices map[ast.Commodity][]PriceObservation

	// declaredExplicitly distinguishes a Commodity directive from a
	// currency that only became known implicitly (through a Price
	// directive's base commodity); only an explicit re-declaration
	// trips CommodityRedefined.
	declaredExplicitly bool
}

// PriceObservation is one recorded Price directive's (date, rate) pair.
type PriceObservation struct {
	Date ast.Date
	Rate ast.Amount
}

func newCurrencyInfo(c ast.Commodity) *CurrencyInfo {
	return &CurrencyInfo{Currency: c, Meta: ast.Metadata{}, Prices: make(map[ast.Commodity][]PriceObservation)}
}

// DocumentRecord is spec.md §3's per-path document entry.
type DocumentRecord struct {
	Account  ast.Account
	Filename string
	Date     ast.Date
	Meta     ast.Metadata
}
