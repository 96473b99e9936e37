package ledger

import (
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"

	"github.com/avaro-team/avaro/ast"
)

func d(day int) ast.Date {
	return ast.NewDate(2024, time.January, day)
}

func TestPriceGrip_DirectLookup(t *testing.T) {
	g := NewPriceGrip()
	g.Insert(d(1), "USD", "CNY", decimal.RequireFromString("7.00"))

	rate, ok := g.Rate(d(1), "USD", "CNY")
	assert.True(t, ok)
	assert.True(t, rate.Equal(decimal.RequireFromString("7.00")))
}

func TestPriceGrip_ReciprocalEdgeInsertedAutomatically(t *testing.T) {
	g := NewPriceGrip()
	g.Insert(d(1), "USD", "CNY", decimal.RequireFromString("7.00"))

	rate, ok := g.Rate(d(1), "CNY", "USD")
	assert.True(t, ok)
	assert.True(t, rate.Equal(decimal.NewFromInt(1).Div(decimal.RequireFromString("7.00"))))
}

func TestPriceGrip_ForwardFillsByDate(t *testing.T) {
	g := NewPriceGrip()
	g.Insert(d(1), "USD", "CNY", decimal.RequireFromString("7.00"))
	g.Insert(d(10), "USD", "CNY", decimal.RequireFromString("7.20"))

	rate, ok := g.Rate(d(5), "USD", "CNY")
	assert.True(t, ok)
	assert.True(t, rate.Equal(decimal.RequireFromString("7.00")), "should use the latest observation on or before the asked date")

	rate, ok = g.Rate(d(10), "USD", "CNY")
	assert.True(t, ok)
	assert.True(t, rate.Equal(decimal.RequireFromString("7.20")))
}

func TestPriceGrip_NoObservationBeforeDateMissesLookup(t *testing.T) {
	g := NewPriceGrip()
	g.Insert(d(10), "USD", "CNY", decimal.RequireFromString("7.20"))

	_, ok := g.Rate(d(1), "USD", "CNY")
	assert.False(t, ok)
}

func TestPriceGrip_InsertingOlderObservationDoesNotAffectEarlierQueries(t *testing.T) {
	// spec.md §8 invariant 6: inserting an older observation never
	// changes results for dates earlier than the new observation's date.
	g := NewPriceGrip()
	g.Insert(d(10), "USD", "CNY", decimal.RequireFromString("7.20"))

	_, ok := g.Rate(d(3), "USD", "CNY")
	assert.False(t, ok)

	g.Insert(d(5), "USD", "CNY", decimal.RequireFromString("7.00"))

	_, ok = g.Rate(d(3), "USD", "CNY")
	assert.False(t, ok, "a query dated before the new observation must be unaffected")

	after, ok := g.Rate(d(5), "USD", "CNY")
	assert.True(t, ok)
	assert.True(t, after.Equal(decimal.RequireFromString("7.00")))
}

func TestPriceGrip_OneHopRouting(t *testing.T) {
	g := NewPriceGrip()
	g.Insert(d(1), "USD", "EUR", decimal.RequireFromString("0.90"))
	g.Insert(d(1), "EUR", "GBP", decimal.RequireFromString("0.85"))

	amt, err := g.Convert(d(1), ast.NewAmount(decimal.NewFromInt(100), "USD"), "GBP")
	assert.NoError(t, err)
	want := decimal.NewFromInt(100).Mul(decimal.RequireFromString("0.90")).Mul(decimal.RequireFromString("0.85"))
	assert.True(t, amt.Number.Equal(want))
	assert.Equal(t, ast.Commodity("GBP"), amt.Currency)
}

func TestPriceGrip_ConvertSameCommodityIsIdentity(t *testing.T) {
	g := NewPriceGrip()
	amt, err := g.Convert(d(1), ast.NewAmount(decimal.NewFromInt(5), "USD"), "USD")
	assert.NoError(t, err)
	assert.True(t, amt.Number.Equal(decimal.NewFromInt(5)))
}

func TestPriceGrip_NoRouteReturnsNoPriceAvailable(t *testing.T) {
	g := NewPriceGrip()
	g.Insert(d(1), "USD", "CNY", decimal.RequireFromString("7.00"))

	_, err := g.Convert(d(1), ast.NewAmount(decimal.NewFromInt(5), "USD"), "GBP")
	assert.Error(t, err)
	_, ok := err.(*NoPriceAvailable)
	assert.True(t, ok)
}

func TestPriceGrip_RateSameCommodityIsOne(t *testing.T) {
	g := NewPriceGrip()
	rate, ok := g.Rate(d(1), "USD", "USD")
	assert.True(t, ok)
	assert.True(t, rate.Equal(decimal.NewFromInt(1)))
}
