package reward

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestNewTableValidation(t *testing.T) {
	tests := []struct {
		name    string
		entries []PrizeEntry
		wantErr bool
	}{
		{
			name:    "empty table",
			entries: nil,
			wantErr: true,
		},
		{
			name: "negative weight",
			entries: []PrizeEntry{
				{Label: "a", Value: decimal.NewFromInt(1), Weight: -1},
			},
			wantErr: true,
		},
		{
			name: "negative value",
			entries: []PrizeEntry{
				{Label: "a", Value: decimal.NewFromInt(-5), Weight: 10},
			},
			wantErr: true,
		},
		{
			name: "all weights zero",
			entries: []PrizeEntry{
				{Label: "a", Value: decimal.NewFromInt(1), Weight: 0},
				{Label: "b", Value: decimal.NewFromInt(2), Weight: 0},
			},
			wantErr: true,
		},
		{
			name: "valid with one disabled entry",
			entries: []PrizeEntry{
				{Label: "a", Value: decimal.NewFromInt(30), Weight: 30},
				{Label: "b", Value: decimal.NewFromInt(100), Weight: 0},
				{Label: "c", Value: decimal.NewFromInt(5), Weight: 70},
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := NewTable(tt.entries)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if table.Len() != len(tt.entries) {
				t.Errorf("expected %d entries, got %d", len(tt.entries), table.Len())
			}
		})
	}
}

func TestTableTotalWeightCountsAllEntries(t *testing.T) {
	table := testTable(t, 30, 0, 70)
	if table.TotalWeight() != 100 {
		t.Errorf("expected total weight 100, got %d", table.TotalWeight())
	}
}

func TestTableEntriesReturnsCopy(t *testing.T) {
	table := testTable(t, 1, 2, 3)
	entries := table.Entries()
	entries[0].Weight = 999

	entry, ok := table.Entry(0)
	if !ok {
		t.Fatal("expected entry 0")
	}
	if entry.Weight != 1 {
		t.Errorf("table entry mutated through Entries copy: weight %d", entry.Weight)
	}
}

func TestParseTable(t *testing.T) {
	tests := []struct {
		name    string
		rows    []EntryConfig
		wantErr bool
	}{
		{
			name: "valid rows",
			rows: []EntryConfig{
				{Label: "30", Value: "30", Weight: 30},
				{Label: "jackpot", Value: "1000.5", Weight: 1},
			},
			wantErr: false,
		},
		{
			name: "invalid decimal value",
			rows: []EntryConfig{
				{Label: "bad", Value: "not-a-number", Weight: 10},
			},
			wantErr: true,
		},
		{
			name:    "no rows",
			rows:    nil,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := ParseTable(tt.rows)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if table.Len() != len(tt.rows) {
				t.Errorf("expected %d entries, got %d", len(tt.rows), table.Len())
			}
		})
	}
}
