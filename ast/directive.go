package ast

import "github.com/shopspring/decimal"

// Kind identifies a directive's variant for the processor's dispatch
// table (see ledger.GetHandler), mirroring the teacher's ast.Directive
// tagged-union-plus-total-match design: adding a new directive kind
// means adding a case, not touching every existing handler.
type Kind string

const (
	KindOpen        Kind = "open"
	KindClose       Kind = "close"
	KindCommodity   Kind = "commodity"
	KindPrice       Kind = "price"
	KindTransaction Kind = "transaction"
	KindBalance     Kind = "balance"
	KindDocument    Kind = "document"
	KindOption      Kind = "option"
	KindInclude     Kind = "include"
	KindNote        Kind = "note"
	KindEvent       Kind = "event"
	KindCustom      Kind = "custom"
)

// Directive is the tagged union of everything that can appear in a
// ledger source file. Every variant carries its own Date() and Kind()
// so the processor can sort and dispatch without type switches outside
// of the handler table itself.
type Directive interface {
	Kind() Kind
	Date() Date
	Pos() Position
}

// base is embedded by every concrete directive to supply Date/Pos
// without repeating the same two fields and methods on each type.
type base struct {
	At       Date
	Position Position
}

func (b base) Date() Date { return b.At }
func (b base) Pos() Position { return b.Position }

// Open declares that an account may be used from this date forward,
// optionally restricted to a set of commodities.
type Open struct {
	base
	Account     Account
	Commodities []Commodity
	Meta        Metadata
}

func (*Open) Kind() Kind { return KindOpen }

// Close retires an account; postings against a closed account are
// still accepted but flagged (see ledger.TransactionHasAccountAlreadyClosed).
type Close struct {
	base
	Account Account
	Meta    Metadata
}

func (*Close) Kind() Kind { return KindClose }

// CommodityDecl declares a commodity explicitly (named CommodityDecl,
// not Commodity, to avoid colliding with the Commodity string type).
type CommodityDecl struct {
	base
	Currency Commodity
	Meta     Metadata
}

func (*CommodityDecl) Kind() Kind { return KindCommodity }

// Price records an observed exchange rate: one unit of Base equals
// Rate units of Quote, as of this directive's date.
type Price struct {
	base
	Base  Commodity
	Quote Commodity
	Rate  Amount // Amount.Currency == Quote; Amount.Number == Rate
}

func (*Price) Kind() Kind { return KindPrice }

// Flag is a transaction's completion marker.
type Flag byte

const (
	FlagCompleted Flag = '*'
	FlagPending   Flag = '!'
)

// Posting is one leg of a Transaction. Units is nil for at most one
// posting per transaction (the residual posting, inferred by the
// processor). Cost and Price are mutually meaningful only when Units
// is present.
type Posting struct {
	Account Account
	Units   *Amount
	Cost    *CostSpec
	Price   *PriceSpec
	Meta    Metadata
}

// Transaction is an ordered set of postings that must balance to zero
// per commodity (within tolerance) once prices/costs are applied.
type Transaction struct {
	base
	Flag      Flag
	Payee     string
	Narration string
	Tags      []string
	Links     []string
	Postings  []*Posting
	Meta      Metadata
}

func (*Transaction) Kind() Kind { return KindTransaction }

// BalanceVariant distinguishes a plain assertion from a pad-and-assert.
type BalanceVariant int

const (
	BalanceCheck BalanceVariant = iota
	BalancePad
)

// Balance is either a BalanceCheck (assert current balance equals
// Amount) or a BalancePad (first pad Account against PadAccount so the
// assertion holds, then assert). After processing, CurrentAmount and
// Distance are filled in by the processor for callers to inspect.
type Balance struct {
	base
	Variant    BalanceVariant
	Account    Account
	Amount     Amount
	PadAccount Account // only set when Variant == BalancePad

	// Populated by the processor after Process() returns.
	CurrentAmount *Amount
	Distance      *Amount
}

func (*Balance) Kind() Kind { return KindBalance }

// Document attaches a filename to an account as of a date.
type Document struct {
	base
	Account  Account
	Filename string
	Meta     Metadata
}

func (*Document) Kind() Kind { return KindDocument }

// Option sets a ledger-wide key/value configuration pair.
type Option struct {
	base
	Key   string
	Value string
}

func (*Option) Kind() Kind { return KindOption }

// Include references another source file to splice in at this point,
// resolved by loader.Load (see loader package) rather than the
// processor itself.
type Include struct {
	base
	Path string
}

func (*Include) Kind() Kind { return KindInclude }

// Note attaches a freeform remark to an account on a date.
type Note struct {
	base
	Account     Account
	Description string
}

func (*Note) Kind() Kind { return KindNote }

// Event records a named state change (e.g. "location" -> "Berlin").
type Event struct {
	base
	Name  string
	Value string
}

func (*Event) Kind() Kind { return KindEvent }

// Custom is an escape hatch for directive kinds this module doesn't
// model explicitly; it is accepted, stored, and otherwise ignored by
// the processor.
type Custom struct {
	base
	Type   string
	Values []string
}

func (*Custom) Kind() Kind { return KindCustom }

// NewOpen, NewClose, ... are convenience constructors used by tests and
// by callers building directives in-memory (the normal path, since the
// text parser is an external collaborator).
func NewOpen(date Date, account Account, commodities ...Commodity) *Open {
	return &Open{base: base{At: date}, Account: account, Commodities: commodities, Meta: Metadata{}}
}

func NewClose(date Date, account Account) *Close {
	return &Close{base: base{At: date}, Account: account, Meta: Metadata{}}
}

func NewPrice(date Date, base_ Commodity, quote Commodity, rate string) *Price {
	n, err := decimal.NewFromString(rate)
	if err != nil {
		panic("ast.NewPrice: invalid rate " + rate)
	}
	return &Price{base: base{At: date}, Base: base_, Quote: quote, Rate: NewAmount(n, quote)}
}

func NewBalanceCheck(date Date, account Account, amount Amount) *Balance {
	return &Balance{base: base{At: date}, Variant: BalanceCheck, Account: account, Amount: amount}
}

func NewBalancePad(date Date, account Account, amount Amount, padAccount Account) *Balance {
	return &Balance{base: base{At: date}, Variant: BalancePad, Account: account, Amount: amount, PadAccount: padAccount}
}

func NewDocument(date Date, account Account, filename string) *Document {
	return &Document{base: base{At: date}, Account: account, Filename: filename, Meta: Metadata{}}
}

func NewTransaction(date Date, narration string, postings ...*Posting) *Transaction {
	return &Transaction{base: base{At: date}, Flag: FlagCompleted, Narration: narration, Postings: postings, Meta: Metadata{}}
}

func NewOption(key, value string) *Option {
	return &Option{Key: key, Value: value}
}
