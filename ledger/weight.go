package ledger

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/avaro-team/avaro/ast"
)

// postingWeight computes a posting's contribution toward its
// transaction's balance check (spec.md §4.3 step 2: "its contribution
// is units, optionally after price conversion if a per-posting price
// or cost is given"). This is distinct from what gets added to the
// account's inventory (always the raw Units, see transactionHandler.Apply
// in handlers.go) — the weight only governs whether the transaction nets to
// zero, the teacher's same cost-vs-price split (ledger/weight.go).
func postingWeight(units ast.Amount, p *ast.Posting) ast.Amount {
	switch {
	case p.Cost != nil && p.Cost.PerUnit != nil:
		total := units.Number.Mul(p.Cost.PerUnit.Number)
		return ast.NewAmount(total, p.Cost.PerUnit.Currency)

	case p.Price != nil:
		if p.Price.IsTotal {
			total := p.Price.Amount.Number
			if units.Number.IsNegative() {
				total = total.Neg()
			}
			return ast.NewAmount(total, p.Price.Amount.Currency)
		}
		total := units.Number.Mul(p.Price.Amount.Number)
		return ast.NewAmount(total, p.Price.Amount.Currency)

	default:
		return units
	}
}

// addResidual accumulates a weight into the per-commodity residual map.
func addResidual(residuals map[ast.Commodity]decimal.Decimal, a ast.Amount) {
	residuals[a.Currency] = residuals[a.Currency].Add(a.Number)
}

// nonZeroEntries returns the residual currencies whose magnitude
// exceeds tolerance, sorted for deterministic iteration.
func nonZeroEntries(residuals map[ast.Commodity]decimal.Decimal, tolerance decimal.Decimal) []ast.Commodity {
	var out []ast.Commodity
	for c, v := range residuals {
		if v.Abs().GreaterThan(tolerance) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
