// Package ledger implements the deterministic, accumulate-and-continue
// directive processor and the in-memory Ledger aggregate described by
// spec.md: account open/close state, per-account multi-commodity
// balances, balance-check/pad resolution, price observations, and
// per-day historical snapshots.
//
// The processor never aborts on a semantic inconsistency (a failed
// balance check, an unbalanced transaction, a posting against a closed
// account); it records a LedgerError and keeps going, exactly as
// spec.md §7 requires. Only a caller-supplied context cancellation
// stops Process early.
package ledger

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/avaro-team/avaro/ast"
	"github.com/avaro-team/avaro/telemetry"
)

// Ledger is the aggregate described by spec.md §3: accounts,
// currencies, options, documents, the shared price grip, the current
// running snapshot, the frozen daily snapshots, and the accumulated
// error log. Zero value is not useful; construct with New().
type Ledger struct {
	mu sync.RWMutex

	accounts   map[ast.Account]*AccountInfo
	currencies map[ast.Commodity]*CurrencyInfo
	options    map[string]string
	documents  map[string]DocumentRecord
	prices     *PriceGrip
	snapshot   map[ast.Account]*AccountSnapshot
	daily      *DailySnapshotStore
	errors     []error

	notes   []*ast.Note
	events  map[string]string
	custom  []*ast.Custom
	journal map[ast.Account][]JournalEntry

	config *Config

	haveTargetDay bool
	targetDay     ast.Date
}

// New returns an empty Ledger ready for Process.
func New() *Ledger {
	return &Ledger{
		accounts:   make(map[ast.Account]*AccountInfo),
		currencies: make(map[ast.Commodity]*CurrencyInfo),
		options:    make(map[string]string),
		documents:  make(map[string]DocumentRecord),
		prices:     NewPriceGrip(),
		snapshot:   make(map[ast.Account]*AccountSnapshot),
		daily:      newDailySnapshotStore(),
		events:     make(map[string]string),
		journal:    make(map[ast.Account][]JournalEntry),
		config:     DefaultConfig(),
	}
}

// Process drives tree's directives through the per-type state
// transition rules in ascending (date, source position) order
// (spec.md §4.3). It never returns an error for semantic
// inconsistencies — those accumulate in Errors() — only for context
// cancellation, matching the teacher's Process(ctx, tree) signature
// and select-on-ctx.Done() cancellation check.
func (l *Ledger) Process(ctx context.Context, tree *ast.AST) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	collector := telemetry.FromContext(ctx)

	options := make(map[string]string)
	for _, opt := range tree.Options {
		options[opt.Key] = opt.Value
	}
	l.config = configFromOptions(options)
	ctx = l.config.WithContext(ctx)

	tree.SortDirectives()

	txnCount := 0
	for _, d := range tree.Directives {
		if _, ok := d.(*ast.Transaction); ok {
			txnCount++
		}
	}

	processTimer := collector.StartStructured(telemetry.TimerConfig{Name: "ledger.processing", Count: len(tree.Directives), Unit: "directives"})
	defer processTimer.End()

	var txnTimer telemetry.Timer
	if txnCount > 0 {
		txnTimer = collector.StartStructured(telemetry.TimerConfig{Name: "ledger.transactions", Count: txnCount, Unit: "transactions"})
		defer txnTimer.End()
	}

	var maxDate ast.Date
	for _, d := range tree.Directives {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		l.processDirective(ctx, d)
		if d.Date().After(maxDate) || maxDate.IsZero() {
			maxDate = d.Date()
		}
	}

	if l.haveTargetDay {
		sentinel := ast.Date{Time: maxDate.AddDate(0, 0, 1)}
		l.recordDailySnapshot(sentinel)
	}

	return nil
}

func (l *Ledger) processDirective(ctx context.Context, d ast.Directive) {
	h := GetHandler(d.Kind())
	if h == nil {
		return
	}

	errs, delta := h.Validate(ctx, l, d)
	l.errors = append(l.errors, errs...)
	h.Apply(ctx, l, d, delta)
}

// recordDailySnapshot implements spec.md §4.3's helper of the same
// name: the first call for a build just records the starting day;
// every subsequent call that sees a new date freezes the snapshot as
// of the *previous* target day before advancing.
func (l *Ledger) recordDailySnapshot(date ast.Date) {
	if !l.haveTargetDay {
		l.targetDay = date
		l.haveTargetDay = true
		return
	}
	if !date.Equal(l.targetDay) {
		l.daily.freeze(l.targetDay, l.snapshot)
		l.targetDay = date
	}
}

// Errors returns every accumulated LedgerError, in the order they were
// recorded (spec.md §7 "the final Ledger exposes them in original
// order").
func (l *Ledger) Errors() []error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]error, len(l.errors))
	copy(out, l.errors)
	return out
}

// Err combines Errors() into a single error via go.uber.org/multierr,
// for callers that just want an `if err != nil` check over the whole
// accumulated log rather than iterating it themselves.
func (l *Ledger) Err() error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var combined error
	for _, e := range l.errors {
		combined = multierr.Append(combined, e)
	}
	return combined
}

// --- Query surface (spec.md §6 "Query API surface") -----------------------

// Accounts returns every known account, keyed by name.
func (l *Ledger) Accounts() map[ast.Account]*AccountInfo {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[ast.Account]*AccountInfo, len(l.accounts))
	for k, v := range l.accounts {
		out[k] = v
	}
	return out
}

// Account returns a single account's declarative info.
func (l *Ledger) Account(name ast.Account) (*AccountInfo, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	info, ok := l.accounts[name]
	return info, ok
}

// Balance returns the current running balance of commodity c in
// account, or zero if the account or commodity is unknown.
func (l *Ledger) Balance(account ast.Account, c ast.Commodity) decimal.Decimal {
	l.mu.RLock()
	defer l.mu.RUnlock()
	snap, ok := l.snapshot[account]
	if !ok {
		return decimal.Decimal{}
	}
	return snap.Get(c)
}

// BalanceAsOf returns account's balance in commodity c as observed at
// the end of date, using the frozen daily snapshot store. Returns
// (zero, false) if that day was never recorded (e.g. it is in the
// future relative to the last processed directive).
func (l *Ledger) BalanceAsOf(date ast.Date, account ast.Account, c ast.Commodity) (decimal.Decimal, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	perAccount, ok := l.daily.At(date)
	if !ok {
		return decimal.Decimal{}, false
	}
	snap, ok := perAccount[account]
	if !ok {
		return decimal.Decimal{}, false
	}
	return snap.Get(c), true
}

// PriceLookup returns the exchange rate base->quote as of date.
func (l *Ledger) PriceLookup(date ast.Date, base, quote ast.Commodity) (decimal.Decimal, bool) {
	return l.prices.Rate(date, base, quote)
}

// Documents returns every recorded document, keyed by filename.
func (l *Ledger) Documents() map[string]DocumentRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[string]DocumentRecord, len(l.documents))
	for k, v := range l.documents {
		out[k] = v
	}
	return out
}

// Commodities returns every known currency's declaration and observed
// price history.
func (l *Ledger) Commodities() map[ast.Commodity]*CurrencyInfo {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[ast.Commodity]*CurrencyInfo, len(l.currencies))
	for k, v := range l.currencies {
		out[k] = v
	}
	return out
}

// Options returns the ledger-wide Option directives processed so far.
func (l *Ledger) Options() map[string]string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[string]string, len(l.options))
	for k, v := range l.options {
		out[k] = v
	}
	return out
}

// DailySnapshot returns the frozen per-account balances observed as of
// date, or (nil, false) if that date was never recorded.
func (l *Ledger) DailySnapshot(date ast.Date) (map[ast.Account]*AccountSnapshot, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.daily.At(date)
}

// ObservedDates returns every day a daily snapshot was recorded for,
// in chronological order.
func (l *Ledger) ObservedDates() []ast.Date {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.daily.Dates()
}

// Prices exposes the shared PriceGrip for advanced queries (one-hop
// conversion, raw Convert calls) beyond the PriceLookup convenience
// method above.
func (l *Ledger) Prices() *PriceGrip {
	return l.prices
}

// Notes returns every processed Note directive, in application order.
func (l *Ledger) Notes() []*ast.Note {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*ast.Note, len(l.notes))
	copy(out, l.notes)
	return out
}

// Events returns the current value of every named Event, keyed by name.
func (l *Ledger) Events() map[string]string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[string]string, len(l.events))
	for k, v := range l.events {
		out[k] = v
	}
	return out
}

// CustomEntries returns every processed Custom directive, in application order.
func (l *Ledger) CustomEntries() []*ast.Custom {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*ast.Custom, len(l.custom))
	copy(out, l.custom)
	return out
}

// JournalEntry is one posting's effect on a single account, in the
// order it was applied, with the account's running balance in that
// posting's commodity immediately afterward.
type JournalEntry struct {
	Date      ast.Date
	Narration string
	Payee     string
	Amount    ast.Amount
	Balance   decimal.Decimal
}

func (l *Ledger) appendJournal(account ast.Account, entry JournalEntry) {
	l.journal[account] = append(l.journal[account], entry)
}

// Journal returns account's posting history within [from, to] inclusive
// (either bound nil means unbounded), in chronological application
// order.
func (l *Ledger) Journal(account ast.Account, from, to *ast.Date) []JournalEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	entries := l.journal[account]
	out := make([]JournalEntry, 0, len(entries))
	for _, e := range entries {
		if from != nil && e.Date.Before(*from) {
			continue
		}
		if to != nil && e.Date.After(*to) {
			continue
		}
		out = append(out, e)
	}
	return out
}
