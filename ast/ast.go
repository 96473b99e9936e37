package ast

import "sort"

// AST is the full directive stream produced by parsing (and, after
// loader.Load runs, with all Include directives spliced in). It is the
// boundary artifact between the external parser and this module's
// processor.
type AST struct {
	Directives []Directive
	Options    []*Option
}

// SortDirectives stably sorts Directives by (Date, source Position),
// matching spec.md §4's "ascending datetime order; ties broken by
// source position". Stability matters: directives sharing a position
// (e.g. directives built in memory, which carry a zero Position) must
// keep their relative insertion order.
func (t *AST) SortDirectives() {
	sort.SliceStable(t.Directives, func(i, j int) bool {
		di, dj := t.Directives[i], t.Directives[j]
		if !di.Date().Equal(dj.Date()) {
			return di.Date().Before(dj.Date())
		}
		return di.Pos().Less(dj.Pos())
	})
}

// Add appends a directive, keeping the Options slice in sync so config
// parsing doesn't need a second pass over Directives.
func (t *AST) Add(d Directive) {
	t.Directives = append(t.Directives, d)
	if opt, ok := d.(*Option); ok {
		t.Options = append(t.Options, opt)
	}
}
