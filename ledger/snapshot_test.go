package ledger

import (
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"

	"github.com/avaro-team/avaro/ast"
)

func TestAccountSnapshot_AddAmountAndGet(t *testing.T) {
	grip := NewPriceGrip()
	snap := newAccountSnapshot(grip)

	snap.AddAmount(ast.NewAmount(decimal.NewFromInt(10), "USD"))
	snap.AddAmount(ast.NewAmount(decimal.NewFromInt(5), "USD"))

	assert.True(t, snap.Get("USD").Equal(decimal.NewFromInt(15)))
	assert.True(t, snap.Get("EUR").IsZero())
}

func TestAccountSnapshot_Clone_IsIndependentButSharesGrip(t *testing.T) {
	grip := NewPriceGrip()
	snap := newAccountSnapshot(grip)
	snap.AddAmount(ast.NewAmount(decimal.NewFromInt(10), "USD"))

	clone := snap.Clone()
	clone.AddAmount(ast.NewAmount(decimal.NewFromInt(5), "USD"))

	assert.True(t, snap.Get("USD").Equal(decimal.NewFromInt(10)), "cloning must not mutate the original inventory")
	assert.True(t, clone.Get("USD").Equal(decimal.NewFromInt(15)))
	assert.Equal(t, snap.grip, clone.grip, "the price grip reference must be shared, not cloned")
}

// TestAccountSnapshot_TotalIn covers spec.md §4.2's AccountSnapshot
// operation total_in(c, date): sum all holdings converted into c via
// the grip as of date.
func TestAccountSnapshot_TotalIn(t *testing.T) {
	date := ast.NewDate(2024, time.January, 15)
	grip := NewPriceGrip()
	grip.Insert(date, "USD", "CNY", decimal.RequireFromString("7.00"))

	snap := newAccountSnapshot(grip)
	snap.AddAmount(ast.NewAmount(decimal.NewFromInt(100), "USD"))
	snap.AddAmount(ast.NewAmount(decimal.NewFromInt(350), "CNY"))

	total := snap.TotalIn("CNY", date)
	want := decimal.NewFromInt(100).Mul(decimal.RequireFromString("7.00")).Add(decimal.NewFromInt(350))
	assert.True(t, total.Equal(want))
}

// TestAccountSnapshot_TotalIn_SkipsUnconvertibleHoldings covers the
// degrade-gracefully behavior documented on TotalIn: a commodity with
// no conversion path to the target is skipped rather than aborting the
// whole total.
func TestAccountSnapshot_TotalIn_SkipsUnconvertibleHoldings(t *testing.T) {
	date := ast.NewDate(2024, time.January, 15)
	grip := NewPriceGrip()
	grip.Insert(date, "USD", "CNY", decimal.RequireFromString("7.00"))

	snap := newAccountSnapshot(grip)
	snap.AddAmount(ast.NewAmount(decimal.NewFromInt(100), "USD"))
	snap.AddAmount(ast.NewAmount(decimal.NewFromInt(10), "AAPL")) // no price path to CNY

	total := snap.TotalIn("CNY", date)
	want := decimal.NewFromInt(100).Mul(decimal.RequireFromString("7.00"))
	assert.True(t, total.Equal(want))
}

func TestAccountSnapshot_TotalIn_EmptyIsZero(t *testing.T) {
	grip := NewPriceGrip()
	snap := newAccountSnapshot(grip)

	total := snap.TotalIn("USD", ast.NewDate(2024, time.January, 1))
	assert.True(t, total.IsZero())
}
