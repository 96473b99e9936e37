package ledger

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/avaro-team/avaro/ast"
)

// Inventory is a mapping commodity -> decimal with additive semantics,
// used to represent an account's balance in one or more commodities
// (spec.md §3 "Inventory"). Unlike the teacher's lot-based Inventory
// (which tracks per-lot cost basis for booking methods), this module's
// Inventory is the plain additive container spec.md actually asks for:
// a single running total per commodity. Cost/price handling still
// happens (see weight.go's weight computation) but it only decides
// whether a transaction balances; the inventory always receives the
// posting's raw units, and the total is never partitioned by lot.
type Inventory struct {
	balances map[ast.Commodity]decimal.Decimal
}

// NewInventory returns an empty inventory.
func NewInventory() *Inventory {
	return &Inventory{balances: make(map[ast.Commodity]decimal.Decimal)}
}

// Add mutates the inventory in place, creating the key if absent. A
// zero-valued entry is permitted (spec.md §3 invariant) so callers that
// want to observe "this account has ever touched commodity C" can do so
// via Currencies(), even when the net effect was zero.
func (inv *Inventory) Add(a ast.Amount) {
	inv.balances[a.Currency] = inv.balances[a.Currency].Add(a.Number)
}

// Get returns the stored value for a commodity, or zero if absent.
func (inv *Inventory) Get(c ast.Commodity) decimal.Decimal {
	if v, ok := inv.balances[c]; ok {
		return v
	}
	return decimal.Zero
}

// Currencies returns the commodities with an entry in this inventory,
// sorted for deterministic iteration.
func (inv *Inventory) Currencies() []ast.Commodity {
	out := make([]ast.Commodity, 0, len(inv.balances))
	for c := range inv.balances {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Clone deep-copies the balances map; used by the daily snapshot store
// to freeze a point-in-time copy that won't be mutated by later
// processing (spec.md §4.2 "Clone semantics").
func (inv *Inventory) Clone() *Inventory {
	out := NewInventory()
	for c, v := range inv.balances {
		out.balances[c] = v
	}
	return out
}

// IsEmpty reports whether every stored balance is exactly zero.
func (inv *Inventory) IsEmpty() bool {
	for _, v := range inv.balances {
		if !v.IsZero() {
			return false
		}
	}
	return true
}
