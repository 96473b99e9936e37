package ledger

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/avaro-team/avaro/ast"
)

// The accumulated error kinds enumerated by spec.md §7. Each carries the
// offending directive's source span (via Pos) and implements error, the
// same one-struct-per-kind shape as the teacher's ledger/errors.go.
// These are "accumulated" errors: Ledger.processDirective appends them
// to errors and keeps going (see ledger.go), never aborting the build.

type AccountBalanceCheckError struct {
	Pos      ast.Position
	Date     ast.Date
	Account  ast.Account
	Target   decimal.Decimal
	Current  decimal.Decimal
	Distance decimal.Decimal
	Currency ast.Commodity
}

func (e *AccountBalanceCheckError) Error() string {
	return fmt.Sprintf("%s: balance assertion failed for %s: expected %s %s, got %s %s (distance %s)",
		e.Date, e.Account, e.Target, e.Currency, e.Current, e.Currency, e.Distance)
}

type TransactionNotBalanced struct {
	Pos       ast.Position
	Date      ast.Date
	Narration string
	Residuals map[ast.Commodity]decimal.Decimal
}

func (e *TransactionNotBalanced) Error() string {
	return fmt.Sprintf("%s: transaction %q does not balance: %s", e.Date, e.Narration, formatResiduals(e.Residuals))
}

func formatResiduals(residuals map[ast.Commodity]decimal.Decimal) string {
	if len(residuals) == 0 {
		return "()"
	}
	currencies := make([]ast.Commodity, 0, len(residuals))
	for c := range residuals {
		currencies = append(currencies, c)
	}
	sort.Slice(currencies, func(i, j int) bool { return currencies[i] < currencies[j] })
	out := "("
	for i, c := range currencies {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%s %s", residuals[c], c)
	}
	return out + ")"
}

type AccountCommodityNotDefined struct {
	Pos      ast.Position
	Date     ast.Date
	Account  ast.Account
	Currency ast.Commodity
}

func (e *AccountCommodityNotDefined) Error() string {
	return fmt.Sprintf("%s: account %s does not allow commodity %s", e.Date, e.Account, e.Currency)
}

type TransactionHasAccountAlreadyClosed struct {
	Pos     ast.Position
	Date    ast.Date
	Account ast.Account
}

func (e *TransactionHasAccountAlreadyClosed) Error() string {
	return fmt.Sprintf("%s: posting to account %s which is already closed", e.Date, e.Account)
}

type AccountClosedWithBalance struct {
	Pos     ast.Position
	Date    ast.Date
	Account ast.Account
}

func (e *AccountClosedWithBalance) Error() string {
	return fmt.Sprintf("%s: account %s closed with non-zero balance", e.Date, e.Account)
}

type CommodityRedefined struct {
	Pos      ast.Position
	Date     ast.Date
	Currency ast.Commodity
}

func (e *CommodityRedefined) Error() string {
	return fmt.Sprintf("%s: commodity %s redefined", e.Date, e.Currency)
}

type UnknownAccount struct {
	Pos     ast.Position
	Date    ast.Date
	Account ast.Account
}

func (e *UnknownAccount) Error() string {
	return fmt.Sprintf("%s: reference to account %s which was never opened", e.Date, e.Account)
}
