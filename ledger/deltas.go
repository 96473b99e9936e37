package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/avaro-team/avaro/ast"
)

// Deltas are the "what to mutate" half of the Handler's Validate/Apply
// split (see handlers.go): Validate computes one of these without
// touching Ledger state, Apply then performs the mutation. This keeps
// the balance-checking/inference math (which can fail) entirely
// separate from the side effects (which, once reached, cannot),
// mirroring the teacher's ledger/deltas.go split.

// openDelta carries nothing beyond the directive itself today, but
// exists so OpenHandler follows the same two-step shape as every other
// handler (and so a future validation rule has somewhere to attach
// inferred state without changing Apply's signature).
type openDelta struct {
	open *ast.Open
}

type closeDelta struct {
	close *ast.Close
}

type commodityDelta struct {
	decl *ast.CommodityDecl
}

type priceDelta struct {
	price *ast.Price
}

// postingContribution is one posting's fully-resolved, already-priced
// contribution to its transaction's balance check, plus the exact
// amount that should be added to the account's inventory.
type postingContribution struct {
	posting    *ast.Posting
	account    ast.Account
	applyUnits ast.Amount // what Apply adds to the account's snapshot
	weight     ast.Amount // what counts toward the balance residual
	inferred   bool
}

type transactionDelta struct {
	txn           *ast.Transaction
	contributions []postingContribution
	residuals     map[ast.Commodity]decimal.Decimal
	unbalanced    bool
}

type balanceDelta struct {
	balance       *ast.Balance
	current       decimal.Decimal
	distance      decimal.Decimal
	padAdjustment *ast.Amount // set only for BalancePad: the amount added to Account
}

type documentDelta struct {
	doc *ast.Document
}
