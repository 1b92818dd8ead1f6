package reward

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// PrizeEntry is one row of the prize table.
type PrizeEntry struct {
	Label  string          `json:"label"`
	Value  decimal.Decimal `json:"value"`
	Weight int64           `json:"weight"`
}

// Table is a static ordered prize table.
//
// A zero weight soft-disables an entry: it stays in the table (the UI renders
// the full wheel) but can never be selected. A table whose weights are all
// zero is invalid configuration and must be rejected loudly, never silently
// resolved to entry 0.
type Table struct {
	entries []PrizeEntry
	total   int64
}

// NewTable validates entries and builds a Table.
func NewTable(entries []PrizeEntry) (*Table, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("prize table is empty")
	}
	for i, e := range entries {
		if e.Weight < 0 {
			return nil, fmt.Errorf("prize table entry %d (%s): negative weight %d", i, e.Label, e.Weight)
		}
		if e.Value.IsNegative() {
			return nil, fmt.Errorf("prize table entry %d (%s): negative value %s", i, e.Label, e.Value)
		}
	}
	total := lo.SumBy(entries, func(e PrizeEntry) int64 { return e.Weight })
	if total <= 0 {
		return nil, fmt.Errorf("prize table weights sum to zero")
	}
	return &Table{
		entries: append([]PrizeEntry(nil), entries...),
		total:   total,
	}, nil
}

// Len returns the number of entries, including zero-weight ones.
func (t *Table) Len() int {
	return len(t.entries)
}

// Entry returns the entry at index i.
func (t *Table) Entry(i int) (PrizeEntry, bool) {
	if i < 0 || i >= len(t.entries) {
		return PrizeEntry{}, false
	}
	return t.entries[i], true
}

// Entries returns a copy of all entries.
func (t *Table) Entries() []PrizeEntry {
	return append([]PrizeEntry(nil), t.entries...)
}

// TotalWeight returns the sum of all entry weights.
func (t *Table) TotalWeight() int64 {
	return t.total
}
