package dashboard

import (
	"testing"

	"dashboard-sync/internal/domain"
)

func sampleRows() []Row {
	return []Row{
		{"Symbol", "Name", "Price"},
		{"BTC", "Bitcoin", "49,000"},
		{" ETH ", "Ethereum", "3000.0004"},
		{"SOL", "Solana", ""},
		{"XRP", "Ripple"},
		{"DOGE", "Dogecoin", "0.1"},
	}
}

func samplePrices() map[string]domain.PriceEntry {
	return map[string]domain.PriceEntry{
		"Symbol": {Price: 1},
		"BTC":    {Price: 50000},
		"ETH":    {Price: 3000},
		"SOL":    {Price: 142.25},
		"XRP":    {Price: 0.5},
	}
}

func TestPatchFindsStaleCells(t *testing.T) {
	changes := Patch(sampleRows(), samplePrices())
	if len(changes) != 2 {
		t.Fatalf("expected 2 changes, got %+v", changes)
	}
	if changes[0].Row != 1 || changes[0].Symbol != "BTC" || changes[0].New != "50000" {
		t.Fatalf("unexpected BTC change: %+v", changes[0])
	}
	if changes[1].Row != 3 || changes[1].New != "142.25" {
		t.Fatalf("unexpected SOL change: %+v", changes[1])
	}
}

func TestPatchSkipsHeaderRow(t *testing.T) {
	rows := []Row{{"Symbol", "Name", "999"}}
	if changes := Patch(rows, samplePrices()); len(changes) != 0 {
		t.Fatalf("header row must be ignored, got %+v", changes)
	}
}

func TestPatchIsIdempotentAfterApply(t *testing.T) {
	rows := sampleRows()
	prices := samplePrices()

	first := Patch(rows, prices)
	if len(first) == 0 {
		t.Fatal("expected changes on first run")
	}
	Apply(rows, first)

	if second := Patch(rows, prices); len(second) != 0 {
		t.Fatalf("expected no changes on second run, got %+v", second)
	}
}

func TestPatchDoesNotMutateRows(t *testing.T) {
	rows := sampleRows()
	Patch(rows, samplePrices())
	if rows[1][PriceColumn] != "49,000" {
		t.Fatalf("Patch must not write cells, got %q", rows[1][PriceColumn])
	}
}

func TestApplyIgnoresOutOfRange(t *testing.T) {
	rows := []Row{{"h", "h", "h"}, {"BTC", "x"}}
	Apply(rows, []Change{{Row: 1, New: "1"}, {Row: 9, New: "2"}})
	if len(rows[1]) != 2 {
		t.Fatal("short row must not grow")
	}
}

func TestParseDisplayedPrice(t *testing.T) {
	tests := map[string]struct {
		want float64
		ok   bool
	}{
		"1,234.5": {1234.5, true},
		" 42 ":    {42, true},
		"":        {0, false},
		"n/a":     {0, false},
		"NaN":     {0, false},
	}
	for in, tc := range tests {
		got, ok := ParseDisplayedPrice(in)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("%q: expected %v/%v, got %v/%v", in, tc.want, tc.ok, got, ok)
		}
	}
}

func TestFormatPrice(t *testing.T) {
	if got := FormatPrice(0.00012); got != "0.00012" {
		t.Fatalf("unexpected format: %s", got)
	}
	if got := FormatPrice(50000); got != "50000" {
		t.Fatalf("unexpected format: %s", got)
	}
}
