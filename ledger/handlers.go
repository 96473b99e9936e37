package ledger

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/avaro-team/avaro/ast"
)

// Handler is the per-directive-kind processing rule spec.md §4.3 calls
// "process(ledger, context)", split into Validate (pure: compute errors
// and a mutation delta without touching Ledger state) and Apply (mutate
// Ledger state from a delta that Validate already produced) — the same
// split as the teacher's ledger/handlers.go, chosen for the same
// reason: it keeps the fallible balance/inference math entirely
// separate from the mutation, which can then never fail.
//
// Unlike the teacher (which skips Apply when Validate reports errors),
// this processor's errors are accumulated observations, not aborts —
// spec.md §4.3 has every directive rule "record an error and continue"
// rather than reject, so Apply always runs when a non-nil delta comes
// back. See Ledger.processDirective.
type Handler interface {
	Validate(ctx context.Context, l *Ledger, d ast.Directive) ([]error, any)
	Apply(ctx context.Context, l *Ledger, d ast.Directive, delta any)
}

var handlers = map[ast.Kind]Handler{
	ast.KindOpen:        openHandler{},
	ast.KindClose:       closeHandler{},
	ast.KindCommodity:   commodityHandler{},
	ast.KindPrice:       priceHandler{},
	ast.KindTransaction: transactionHandler{},
	ast.KindBalance:     balanceHandler{},
	ast.KindDocument:    documentHandler{},
	ast.KindOption:      optionHandler{},
	ast.KindNote:        noteHandler{},
	ast.KindEvent:       eventHandler{},
	ast.KindCustom:      customHandler{},
}

// GetHandler returns the registered Handler for kind, or nil if the
// directive kind is otherwise handled (Include, resolved by the
// loader before the processor ever sees it) or unrecognized.
func GetHandler(kind ast.Kind) Handler {
	return handlers[kind]
}

// --- Open -------------------------------------------------------------

type openHandler struct{}

func (openHandler) Validate(_ context.Context, l *Ledger, d ast.Directive) ([]error, any) {
	return nil, &openDelta{open: d.(*ast.Open)}
}

func (openHandler) Apply(_ context.Context, l *Ledger, _ ast.Directive, delta any) {
	open := delta.(*openDelta).open

	info, exists := l.accounts[open.Account]
	if !exists {
		info = &AccountInfo{Name: open.Account, Commodities: make(map[ast.Commodity]bool), Meta: ast.Metadata{}}
		l.accounts[open.Account] = info
	}
	info.Status = AccountOpen
	d := open.Date()
	info.OpenDate = &d
	for k, v := range open.Meta {
		if info.Meta == nil {
			info.Meta = ast.Metadata{}
		}
		info.Meta[k] = v
	}
	for _, c := range open.Commodities {
		info.Commodities[c] = true
	}

	if _, ok := l.snapshot[open.Account]; !ok {
		l.snapshot[open.Account] = newAccountSnapshot(l.prices)
	}
}

// --- Close --------------------------------------------------------------

type closeHandler struct{}

func (closeHandler) Validate(_ context.Context, l *Ledger, d ast.Directive) ([]error, any) {
	close := d.(*ast.Close)

	var errs []error
	if snap, ok := l.snapshot[close.Account]; ok && !snap.Inventory.IsEmpty() {
		errs = append(errs, &AccountClosedWithBalance{Pos: close.Pos(), Date: close.Date(), Account: close.Account})
	}

	return errs, &closeDelta{close: close}
}

func (closeHandler) Apply(_ context.Context, l *Ledger, _ ast.Directive, delta any) {
	close := delta.(*closeDelta).close

	info, exists := l.accounts[close.Account]
	if !exists {
		info = &AccountInfo{Name: close.Account, Commodities: make(map[ast.Commodity]bool), Meta: ast.Metadata{}}
		l.accounts[close.Account] = info
	}
	info.Status = AccountClosed
	d := close.Date()
	info.CloseDate = &d
	for k, v := range close.Meta {
		if info.Meta == nil {
			info.Meta = ast.Metadata{}
		}
		info.Meta[k] = v
	}
}

// --- Commodity ------------------------------------------------------------

type commodityHandler struct{}

func (commodityHandler) Validate(_ context.Context, l *Ledger, d ast.Directive) ([]error, any) {
	decl := d.(*ast.CommodityDecl)

	var errs []error
	if existing, ok := l.currencies[decl.Currency]; ok && existing.declaredExplicitly {
		errs = append(errs, &CommodityRedefined{Pos: decl.Pos(), Date: decl.Date(), Currency: decl.Currency})
	}

	return errs, &commodityDelta{decl: decl}
}

func (commodityHandler) Apply(_ context.Context, l *Ledger, _ ast.Directive, delta any) {
	decl := delta.(*commodityDelta).decl

	info, exists := l.currencies[decl.Currency]
	if !exists {
		info = newCurrencyInfo(decl.Currency)
		l.currencies[decl.Currency] = info
	}
	info.declaredExplicitly = true
	for k, v := range decl.Meta {
		info.Meta[k] = v
	}
}

// --- Price ------------------------------------------------------------

type priceHandler struct{}

func (priceHandler) Validate(_ context.Context, l *Ledger, d ast.Directive) ([]error, any) {
	return nil, &priceDelta{price: d.(*ast.Price)}
}

func (priceHandler) Apply(_ context.Context, l *Ledger, _ ast.Directive, delta any) {
	price := delta.(*priceDelta).price

	l.prices.Insert(price.Date(), price.Base, price.Quote, price.Rate.Number)

	info, exists := l.currencies[price.Base]
	if !exists {
		info = newCurrencyInfo(price.Base)
		l.currencies[price.Base] = info
	}
	info.Prices[price.Quote] = append(info.Prices[price.Quote], PriceObservation{Date: price.Date(), Rate: price.Rate})
}

// --- Transaction ------------------------------------------------------------

type transactionHandler struct{}

func (transactionHandler) Validate(ctx context.Context, l *Ledger, d ast.Directive) ([]error, any) {
	txn := d.(*ast.Transaction)
	tolerance := ConfigFromContext(ctx).Tolerance()

	var missing []*ast.Posting
	residuals := make(map[ast.Commodity]decimal.Decimal)
	contributions := make([]postingContribution, 0, len(txn.Postings))

	for _, p := range txn.Postings {
		if p.Units == nil {
			missing = append(missing, p)
			continue
		}
		w := postingWeight(*p.Units, p)
		addResidual(residuals, w)
		contributions = append(contributions, postingContribution{posting: p, account: p.Account, applyUnits: *p.Units, weight: w})
	}

	unbalanced := false
	if len(missing) >= 1 {
		nz := nonZeroEntries(residuals, tolerance)
		if len(nz) == 1 && len(missing) == 1 {
			cur := nz[0]
			inferred := ast.NewAmount(residuals[cur].Neg(), cur)
			residuals[cur] = decimal.Zero
			contributions = append(contributions, postingContribution{
				posting: missing[0], account: missing[0].Account, applyUnits: inferred, weight: inferred, inferred: true,
			})
			missing = missing[1:]
		}
		// Any posting(s) still missing units (couldn't be inferred, or
		// extras beyond the first) contribute nothing and are applied
		// as zero, per spec.md §4.3 step 2.
		for _, p := range missing {
			contributions = append(contributions, postingContribution{posting: p, account: p.Account, applyUnits: ast.Amount{}, weight: ast.Amount{}})
		}
	}

	if nz := nonZeroEntries(residuals, tolerance); len(nz) > 0 {
		unbalanced = true
	}

	var errs []error
	if unbalanced {
		errs = append(errs, &TransactionNotBalanced{
			Pos: txn.Pos(), Date: txn.Date(), Narration: txn.Narration,
			Residuals: filterNonZero(residuals, tolerance),
		})
	}

	for _, c := range contributions {
		info := l.accounts[c.account]
		if info == nil {
			errs = append(errs, &UnknownAccount{Pos: txn.Pos(), Date: txn.Date(), Account: c.account})
		} else if info.Status == AccountClosed {
			errs = append(errs, &TransactionHasAccountAlreadyClosed{Pos: txn.Pos(), Date: txn.Date(), Account: c.account})
		}

		if info != nil && c.applyUnits.Currency != "" && !info.AllowsCommodity(c.applyUnits.Currency) {
			errs = append(errs, &AccountCommodityNotDefined{Pos: txn.Pos(), Date: txn.Date(), Account: c.account, Currency: c.applyUnits.Currency})
		}
	}

	return errs, &transactionDelta{txn: txn, contributions: contributions, residuals: residuals, unbalanced: unbalanced}
}

func filterNonZero(residuals map[ast.Commodity]decimal.Decimal, tolerance decimal.Decimal) map[ast.Commodity]decimal.Decimal {
	out := make(map[ast.Commodity]decimal.Decimal)
	for c, v := range residuals {
		if v.Abs().GreaterThan(tolerance) {
			out[c] = v
		}
	}
	return out
}

func (transactionHandler) Apply(_ context.Context, l *Ledger, _ ast.Directive, delta any) {
	txnDelta := delta.(*transactionDelta)

	l.recordDailySnapshot(txnDelta.txn.Date())

	for _, c := range txnDelta.contributions {
		// An account never explicitly opened is implicitly created as
		// Open with a warning already recorded by Validate
		// (UnknownAccount) — spec.md §4's "Open questions (a)" decision,
		// see DESIGN.md.
		if _, ok := l.accounts[c.account]; !ok {
			l.accounts[c.account] = &AccountInfo{Name: c.account, Status: AccountOpen, Commodities: make(map[ast.Commodity]bool), Meta: ast.Metadata{}}
		}

		if c.applyUnits.Currency == "" {
			continue
		}
		snap, ok := l.snapshot[c.account]
		if !ok {
			snap = newAccountSnapshot(l.prices)
			l.snapshot[c.account] = snap
		}
		snap.AddAmount(c.applyUnits)
		l.appendJournal(c.account, JournalEntry{
			Date: txnDelta.txn.Date(), Narration: txnDelta.txn.Narration, Payee: txnDelta.txn.Payee,
			Amount: c.applyUnits, Balance: snap.Get(c.applyUnits.Currency),
		})
	}
}

// --- Balance ------------------------------------------------------------

type balanceHandler struct{}

func (balanceHandler) Validate(ctx context.Context, l *Ledger, d ast.Directive) ([]error, any) {
	bal := d.(*ast.Balance)
	tolerance := ConfigFromContext(ctx).Tolerance()

	current := decimal.Zero
	if snap, ok := l.snapshot[bal.Account]; ok {
		current = snap.Get(bal.Amount.Currency)
	}

	switch bal.Variant {
	case ast.BalancePad:
		distance := bal.Amount.Number.Sub(current)
		return nil, &balanceDelta{balance: bal, current: current, distance: distance, padAdjustment: &ast.Amount{Number: distance, Currency: bal.Amount.Currency}}

	default: // ast.BalanceCheck
		distance := bal.Amount.Number.Sub(current)
		var errs []error
		if distance.Abs().GreaterThan(tolerance) {
			errs = append(errs, &AccountBalanceCheckError{
				Pos: bal.Pos(), Date: bal.Date(), Account: bal.Account,
				Target: bal.Amount.Number, Current: current, Distance: distance, Currency: bal.Amount.Currency,
			})
		}
		return errs, &balanceDelta{balance: bal, current: current, distance: distance}
	}
}

func (balanceHandler) Apply(_ context.Context, l *Ledger, _ ast.Directive, delta any) {
	bd := delta.(*balanceDelta)

	l.recordDailySnapshot(bd.balance.Date())

	current := bd.current
	distance := bd.distance
	bd.balance.CurrentAmount = &ast.Amount{Number: current, Currency: bd.balance.Amount.Currency}
	bd.balance.Distance = &ast.Amount{Number: distance, Currency: bd.balance.Amount.Currency}

	if bd.balance.Variant != ast.BalancePad {
		return // BalanceCheck never mutates the snapshot (spec.md §4.3).
	}

	acctSnap, ok := l.snapshot[bd.balance.Account]
	if !ok {
		acctSnap = newAccountSnapshot(l.prices)
		l.snapshot[bd.balance.Account] = acctSnap
	}
	padSnap, ok := l.snapshot[bd.balance.PadAccount]
	if !ok {
		padSnap = newAccountSnapshot(l.prices)
		l.snapshot[bd.balance.PadAccount] = padSnap
	}

	acctSnap.AddAmount(*bd.padAdjustment)
	padSnap.AddAmount(bd.padAdjustment.Neg())

	l.appendJournal(bd.balance.Account, JournalEntry{
		Date: bd.balance.Date(), Narration: "(pad)", Amount: *bd.padAdjustment, Balance: acctSnap.Get(bd.padAdjustment.Currency),
	})
	l.appendJournal(bd.balance.PadAccount, JournalEntry{
		Date: bd.balance.Date(), Narration: "(pad)", Amount: bd.padAdjustment.Neg(), Balance: padSnap.Get(bd.padAdjustment.Currency),
	})
}

// --- Document ------------------------------------------------------------

type documentHandler struct{}

func (documentHandler) Validate(_ context.Context, l *Ledger, d ast.Directive) ([]error, any) {
	return nil, &documentDelta{doc: d.(*ast.Document)}
}

func (documentHandler) Apply(_ context.Context, l *Ledger, _ ast.Directive, delta any) {
	doc := delta.(*documentDelta).doc
	l.documents[doc.Filename] = DocumentRecord{Account: doc.Account, Filename: doc.Filename, Date: doc.Date(), Meta: doc.Meta}
}

// --- Option ------------------------------------------------------------

type optionHandler struct{}

func (optionHandler) Validate(_ context.Context, l *Ledger, d ast.Directive) ([]error, any) {
	return nil, d.(*ast.Option)
}

func (optionHandler) Apply(_ context.Context, l *Ledger, _ ast.Directive, delta any) {
	opt := delta.(*ast.Option)
	l.options[opt.Key] = opt.Value
}

// --- Note / Event / Custom: stored for query surface, no balance impact ---

type noteHandler struct{}

func (noteHandler) Validate(_ context.Context, l *Ledger, d ast.Directive) ([]error, any) {
	return nil, d.(*ast.Note)
}
func (noteHandler) Apply(_ context.Context, l *Ledger, _ ast.Directive, delta any) {
	l.notes = append(l.notes, delta.(*ast.Note))
}

type eventHandler struct{}

func (eventHandler) Validate(_ context.Context, l *Ledger, d ast.Directive) ([]error, any) {
	return nil, d.(*ast.Event)
}
func (eventHandler) Apply(_ context.Context, l *Ledger, _ ast.Directive, delta any) {
	l.events[delta.(*ast.Event).Name] = delta.(*ast.Event).Value
}

type customHandler struct{}

func (customHandler) Validate(_ context.Context, l *Ledger, d ast.Directive) ([]error, any) {
	return nil, d.(*ast.Custom)
}
func (customHandler) Apply(_ context.Context, l *Ledger, _ ast.Directive, delta any) {
	l.custom = append(l.custom, delta.(*ast.Custom))
}
