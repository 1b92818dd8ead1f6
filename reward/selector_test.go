package reward

import (
	"testing"

	"github.com/shopspring/decimal"
)

// seqRand replays a fixed sequence of draws.
type seqRand struct {
	values []int64
	pos    int
}

func (r *seqRand) Int63n(n int64) int64 {
	v := r.values[r.pos%len(r.values)]
	r.pos++
	return v % n
}

func testTable(t *testing.T, weights ...int64) *Table {
	t.Helper()
	entries := make([]PrizeEntry, 0, len(weights))
	for _, w := range weights {
		entries = append(entries, PrizeEntry{
			Label:  "prize",
			Value:  decimal.NewFromInt(10),
			Weight: w,
		})
	}
	table, err := NewTable(entries)
	if err != nil {
		t.Fatalf("unexpected table error: %v", err)
	}
	return table
}

func TestSelectorWalksCumulativeWeights(t *testing.T) {
	tests := []struct {
		name    string
		weights []int64
		draw    int64
		want    int
	}{
		{
			name:    "draw inside first band",
			weights: []int64{30, 0, 70},
			draw:    29,
			want:    0,
		},
		{
			name:    "draw past disabled middle entry",
			weights: []int64{30, 0, 70},
			draw:    45,
			want:    2,
		},
		{
			name:    "draw exactly on threshold goes to next entry",
			weights: []int64{30, 0, 70},
			draw:    30,
			want:    2,
		},
		{
			name:    "first possible draw",
			weights: []int64{30, 0, 70},
			draw:    0,
			want:    0,
		},
		{
			name:    "last possible draw",
			weights: []int64{30, 0, 70},
			draw:    99,
			want:    2,
		},
		{
			name:    "single entry",
			weights: []int64{5},
			draw:    4,
			want:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := testTable(t, tt.weights...)
			sel := NewSelector(&seqRand{values: []int64{tt.draw}})

			got, err := sel.Select(table)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected index %d, got %d", tt.want, got)
			}
		})
	}
}

func TestSelectorDeterministicForSameDraws(t *testing.T) {
	table := testTable(t, 10, 20, 30, 40)
	draws := []int64{0, 9, 10, 29, 30, 59, 60, 99}

	first := make([]int, 0, len(draws))
	selA := NewSelector(&seqRand{values: draws})
	for range draws {
		idx, err := selA.Select(table)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		first = append(first, idx)
	}

	selB := NewSelector(&seqRand{values: draws})
	for i := range draws {
		idx, err := selB.Select(table)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if idx != first[i] {
			t.Errorf("draw %d: expected index %d, got %d", draws[i], first[i], idx)
		}
	}
}

func TestSelectorNeverPicksZeroWeightEntry(t *testing.T) {
	table := testTable(t, 0, 1, 0, 1, 0)
	for draw := int64(0); draw < table.TotalWeight(); draw++ {
		sel := NewSelector(&seqRand{values: []int64{draw}})
		idx, err := sel.Select(table)
		if err != nil {
			t.Fatalf("draw %d: unexpected error: %v", draw, err)
		}
		entry, ok := table.Entry(idx)
		if !ok {
			t.Fatalf("draw %d: index %d out of range", draw, idx)
		}
		if entry.Weight == 0 {
			t.Errorf("draw %d selected zero-weight entry %d", draw, idx)
		}
	}
}

func TestSelectorRejectsNilTable(t *testing.T) {
	sel := NewSelector(&seqRand{values: []int64{0}})
	if _, err := sel.Select(nil); err == nil {
		t.Error("expected error for nil table")
	}
}

func TestCryptoRandStaysInRange(t *testing.T) {
	rng := CryptoRand()
	for i := 0; i < 100; i++ {
		v := rng.Int63n(7)
		if v < 0 || v >= 7 {
			t.Fatalf("draw %d out of range [0, 7)", v)
		}
	}
}
