package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/avaro-team/avaro/ast"
)

// AccountSnapshot wraps an Inventory with a reference to the ledger's
// shared Price Grip, giving it commodity-aware arithmetic (spec.md
// §4.2). The grip reference is shared across every snapshot (including
// frozen daily copies) so conversions always consult live price data,
// even when asked about a historical day's balances.
type AccountSnapshot struct {
	Inventory *Inventory
	grip      *PriceGrip
}

// newAccountSnapshot creates an empty snapshot bound to grip.
func newAccountSnapshot(grip *PriceGrip) *AccountSnapshot {
	return &AccountSnapshot{Inventory: NewInventory(), grip: grip}
}

// AddAmount adds a to the underlying inventory.
func (s *AccountSnapshot) AddAmount(a ast.Amount) {
	s.Inventory.Add(a)
}

// Get returns the stored value for c, or zero if absent.
func (s *AccountSnapshot) Get(c ast.Commodity) decimal.Decimal {
	return s.Inventory.Get(c)
}

// TotalIn sums all holdings converted into c via the grip as of date.
// A commodity with no conversion path to c is skipped rather than
// aborting the whole total, since spec.md only specifies the
// single-commodity Get/add_amount contract precisely; TotalIn is an
// aggregate convenience for reporting and degrades gracefully.
func (s *AccountSnapshot) TotalIn(c ast.Commodity, date ast.Date) decimal.Decimal {
	total := decimal.Zero
	for _, cur := range s.Inventory.Currencies() {
		amt := ast.NewAmount(s.Inventory.Get(cur), cur)
		converted, err := s.grip.Convert(date, amt, c)
		if err != nil {
			continue
		}
		total = total.Add(converted.Number)
	}
	return total
}

// Clone performs the "deep copy of the inventory map; grip reference is
// shared" semantics spec.md §4.2 requires for daily snapshotting.
func (s *AccountSnapshot) Clone() *AccountSnapshot {
	return &AccountSnapshot{Inventory: s.Inventory.Clone(), grip: s.grip}
}
