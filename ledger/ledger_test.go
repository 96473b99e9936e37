package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"

	"github.com/avaro-team/avaro/ast"
)

func txn(date ast.Date, narration string, postings ...*ast.Posting) *ast.Transaction {
	return ast.NewTransaction(date, narration, postings...)
}

// S1 — simple transaction + balance check.
func TestLedger_S1_SimpleTransactionAndBalanceCheck(t *testing.T) {
	d1 := ast.NewDate(2023, time.January, 1)
	d2 := ast.NewDate(2023, time.January, 2)
	d3 := ast.NewDate(2023, time.January, 3)

	tree := &ast.AST{}
	tree.Add(ast.NewOpen(d1, "Assets:Cash", "USD"))
	tree.Add(ast.NewOpen(d1, "Expenses:Food", "USD"))
	tree.Add(txn(d2, "lunch",
		&ast.Posting{Account: "Assets:Cash", Units: amt("-10.00", "USD")},
		&ast.Posting{Account: "Expenses:Food"},
	))
	tree.Add(ast.NewBalanceCheck(d3, "Assets:Cash", ast.NewAmount(decimal.RequireFromString("-10.00"), "USD")))

	l := New()
	err := l.Process(context.Background(), tree)
	assert.NoError(t, err)
	assert.Equal(t, 0, len(l.Errors()))

	assert.True(t, l.Balance("Assets:Cash", "USD").Equal(decimal.RequireFromString("-10.00")))
	assert.True(t, l.Balance("Expenses:Food", "USD").Equal(decimal.RequireFromString("10.00")))

	snap, ok := l.DailySnapshot(d2)
	assert.True(t, ok, "2023-01-02 should be frozen before the 01-03 balance directive")
	assert.True(t, snap["Assets:Cash"].Get("USD").Equal(decimal.RequireFromString("-10.00")))
}

// S2 — failing balance check.
func TestLedger_S2_FailingBalanceCheck(t *testing.T) {
	d1 := ast.NewDate(2023, time.January, 1)
	d2 := ast.NewDate(2023, time.January, 2)
	d3 := ast.NewDate(2023, time.January, 3)

	tree := &ast.AST{}
	tree.Add(ast.NewOpen(d1, "Assets:Cash", "USD"))
	tree.Add(ast.NewOpen(d1, "Expenses:Food", "USD"))
	tree.Add(txn(d2, "lunch",
		&ast.Posting{Account: "Assets:Cash", Units: amt("-10.00", "USD")},
		&ast.Posting{Account: "Expenses:Food"},
	))
	tree.Add(ast.NewBalanceCheck(d3, "Assets:Cash", ast.NewAmount(decimal.RequireFromString("-9.00"), "USD")))

	l := New()
	assert.NoError(t, l.Process(context.Background(), tree))

	errs := l.Errors()
	assert.Equal(t, 1, len(errs))
	bce, ok := errs[0].(*AccountBalanceCheckError)
	assert.True(t, ok, "expected AccountBalanceCheckError")
	assert.True(t, bce.Target.Equal(decimal.RequireFromString("-9.00")))
	assert.True(t, bce.Current.Equal(decimal.RequireFromString("-10.00")))
	assert.True(t, bce.Distance.Equal(decimal.RequireFromString("1.00")))

	assert.True(t, l.Balance("Assets:Cash", "USD").Equal(decimal.RequireFromString("-10.00")))
}

// S3 — pad.
func TestLedger_S3_Pad(t *testing.T) {
	d1 := ast.NewDate(2023, time.January, 1)
	d2 := ast.NewDate(2023, time.January, 2)

	tree := &ast.AST{}
	tree.Add(ast.NewOpen(d1, "Assets:Cash", "USD"))
	tree.Add(ast.NewOpen(d1, "Equity:Pad", "USD"))
	tree.Add(ast.NewBalancePad(d2, "Assets:Cash", ast.NewAmount(decimal.RequireFromString("500.00"), "USD"), "Equity:Pad"))

	l := New()
	assert.NoError(t, l.Process(context.Background(), tree))
	assert.Equal(t, 0, len(l.Errors()))

	assert.True(t, l.Balance("Assets:Cash", "USD").Equal(decimal.RequireFromString("500.00")))
	assert.True(t, l.Balance("Equity:Pad", "USD").Equal(decimal.RequireFromString("-500.00")))
}

// S4 — multi-commodity transaction with price.
func TestLedger_S4_MultiCommodityWithPrice(t *testing.T) {
	d1 := ast.NewDate(2023, time.February, 1)
	d2 := ast.NewDate(2023, time.February, 2)

	tree := &ast.AST{}
	tree.Add(ast.NewOpen(d1, "Assets:Wallet"))
	tree.Add(ast.NewOpen(d1, "Income:Salary", "CNY"))
	tree.Add(ast.NewPrice(d2, "USD", "CNY", "7.00"))
	tree.Add(txn(d2, "paid",
		&ast.Posting{Account: "Assets:Wallet", Units: amt("100.00", "USD"), Price: &ast.PriceSpec{Amount: ast.NewAmount(decimal.RequireFromString("7.00"), "CNY")}},
		&ast.Posting{Account: "Income:Salary", Units: amt("-700.00", "CNY")},
	))

	l := New()
	assert.NoError(t, l.Process(context.Background(), tree))
	assert.Equal(t, 0, len(l.Errors()))

	assert.True(t, l.Balance("Assets:Wallet", "USD").Equal(decimal.RequireFromString("100")))
	assert.True(t, l.Balance("Income:Salary", "CNY").Equal(decimal.RequireFromString("-700")))

	rate, ok := l.PriceLookup(d2, "USD", "CNY")
	assert.True(t, ok)
	assert.True(t, rate.Equal(decimal.RequireFromString("7.00")))
}

// S5 — unbalanced transaction.
func TestLedger_S5_UnbalancedTransaction(t *testing.T) {
	d1 := ast.NewDate(2023, time.March, 1)
	d2 := ast.NewDate(2023, time.March, 2)

	tree := &ast.AST{}
	tree.Add(ast.NewOpen(d1, "Assets:A", "USD"))
	tree.Add(ast.NewOpen(d1, "Assets:B", "USD"))
	tree.Add(txn(d2, "bad",
		&ast.Posting{Account: "Assets:A", Units: amt("10.00", "USD")},
		&ast.Posting{Account: "Assets:B", Units: amt("5.00", "USD")},
	))

	l := New()
	assert.NoError(t, l.Process(context.Background(), tree))

	errs := l.Errors()
	assert.Equal(t, 1, len(errs))
	_, ok := errs[0].(*TransactionNotBalanced)
	assert.True(t, ok, "expected TransactionNotBalanced")

	assert.True(t, l.Balance("Assets:A", "USD").Equal(decimal.RequireFromString("10.00")))
	assert.True(t, l.Balance("Assets:B", "USD").Equal(decimal.RequireFromString("5.00")))
}

// S6 — close with remaining balance.
func TestLedger_S6_CloseWithRemainingBalance(t *testing.T) {
	d1 := ast.NewDate(2023, time.April, 1)

	tree := &ast.AST{}
	tree.Add(ast.NewOpen(d1, "Assets:Cash", "USD"))
	tree.Add(ast.NewOpen(d1, "Equity:Opening", "USD"))
	tree.Add(txn(d1, "seed",
		&ast.Posting{Account: "Assets:Cash", Units: amt("5.00", "USD")},
		&ast.Posting{Account: "Equity:Opening", Units: amt("-5.00", "USD")},
	))
	tree.Add(ast.NewClose(d1, "Assets:Cash"))

	l := New()
	assert.NoError(t, l.Process(context.Background(), tree))

	errs := l.Errors()
	assert.Equal(t, 1, len(errs))
	_, ok := errs[0].(*AccountClosedWithBalance)
	assert.True(t, ok, "expected AccountClosedWithBalance")

	acc, ok := l.Account("Assets:Cash")
	assert.True(t, ok)
	assert.Equal(t, AccountClosed, acc.Status)
}

func TestLedger_UnknownAccountAutoCreatesAndWarns(t *testing.T) {
	d1 := ast.NewDate(2023, time.May, 1)

	tree := &ast.AST{}
	tree.Add(txn(d1, "surprise",
		&ast.Posting{Account: "Assets:Ghost", Units: amt("1.00", "USD")},
		&ast.Posting{Account: "Expenses:Ghost", Units: amt("-1.00", "USD")},
	))

	l := New()
	assert.NoError(t, l.Process(context.Background(), tree))

	var unknown int
	for _, e := range l.Errors() {
		if _, ok := e.(*UnknownAccount); ok {
			unknown++
		}
	}
	assert.Equal(t, 2, unknown)

	acc, ok := l.Account("Assets:Ghost")
	assert.True(t, ok, "account should have been implicitly created")
	assert.Equal(t, AccountOpen, acc.Status)
}

func TestLedger_Journal_RecordsPostings(t *testing.T) {
	d1 := ast.NewDate(2023, time.January, 1)
	d2 := ast.NewDate(2023, time.January, 2)

	tree := &ast.AST{}
	tree.Add(ast.NewOpen(d1, "Assets:Cash", "USD"))
	tree.Add(ast.NewOpen(d1, "Expenses:Food", "USD"))
	tree.Add(txn(d2, "lunch",
		&ast.Posting{Account: "Assets:Cash", Units: amt("-10.00", "USD")},
		&ast.Posting{Account: "Expenses:Food"},
	))

	l := New()
	assert.NoError(t, l.Process(context.Background(), tree))

	entries := l.Journal("Assets:Cash", nil, nil)
	assert.Equal(t, 1, len(entries))
	assert.Equal(t, "lunch", entries[0].Narration)
	assert.True(t, entries[0].Balance.Equal(decimal.RequireFromString("-10.00")))
}

func amt(number string, currency ast.Commodity) *ast.Amount {
	a := ast.NewAmount(decimal.RequireFromString(number), currency)
	return &a
}
