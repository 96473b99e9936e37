package ledger

import (
	"sort"

	"github.com/avaro-team/avaro/ast"
)

// DailySnapshotStore is the append-only mapping date -> (account ->
// snapshot) described by spec.md §4.3's record_daily_snapshot helper.
// For every observed day D, store[D] equals the ledger state
// immediately before the first directive dated after D.
type DailySnapshotStore struct {
	byDate map[string]map[ast.Account]*AccountSnapshot
	dates  []ast.Date // insertion order == chronological, since freezing only happens forward
}

func newDailySnapshotStore() *DailySnapshotStore {
	return &DailySnapshotStore{byDate: make(map[string]map[ast.Account]*AccountSnapshot)}
}

// freeze stores a deep clone of current as the state observed at date.
// Overwriting the same date is a no-op safeguard; the processor never
// calls freeze twice for the same date by construction.
func (s *DailySnapshotStore) freeze(date ast.Date, current map[ast.Account]*AccountSnapshot) {
	key := date.String()
	if _, exists := s.byDate[key]; exists {
		return
	}

	frozen := make(map[ast.Account]*AccountSnapshot, len(current))
	for acct, snap := range current {
		frozen[acct] = snap.Clone()
	}
	s.byDate[key] = frozen
	s.dates = append(s.dates, date)
}

// At returns the frozen per-account snapshot map observed as of date,
// or (nil, false) if that day was never recorded.
func (s *DailySnapshotStore) At(date ast.Date) (map[ast.Account]*AccountSnapshot, bool) {
	m, ok := s.byDate[date.String()]
	return m, ok
}

// Dates returns every observed day in chronological order.
func (s *DailySnapshotStore) Dates() []ast.Date {
	out := make([]ast.Date, len(s.dates))
	copy(out, s.dates)
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}
