package ledger

import (
	"github.com/shopspring/decimal"
	"github.com/sourcegraph/conc/pool"

	"github.com/avaro-team/avaro/ast"
)

// BalanceQuery is one (account, commodity) pair to resolve concurrently
// against a Ledger, as used by QueryBalances.
type BalanceQuery struct {
	Account  ast.Account
	Currency ast.Commodity
}

// BalanceResult is the outcome of one BalanceQuery.
type BalanceResult struct {
	BalanceQuery
	Amount decimal.Decimal
}

// QueryBalances resolves many balance queries concurrently against l,
// bounded by maxGoroutines, the pack's go-to worker-pool shape for
// fan-out read work (sourcegraph/conc/pool.WithMaxGoroutines). Every
// query only takes Ledger's RLock (via Balance), so this is purely a
// throughput optimization over spec.md §5's "concurrent readers"
// guarantee: an arbitrary number of goroutines may call query methods
// while no Process is in flight.
func (l *Ledger) QueryBalances(queries []BalanceQuery, maxGoroutines int) []BalanceResult {
	if maxGoroutines <= 0 {
		maxGoroutines = 1
	}

	results := make([]BalanceResult, len(queries))
	p := pool.New().WithMaxGoroutines(maxGoroutines)
	for i, q := range queries {
		i, q := i, q
		p.Go(func() {
			results[i] = BalanceResult{BalanceQuery: q, Amount: l.Balance(q.Account, q.Currency)}
		})
	}
	p.Wait()

	return results
}
