package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestSnapshotMarshalEmpty(t *testing.T) {
	data, err := json.Marshal(Snapshot{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != `{"prices":{},"lastUpdate":null}` {
		t.Fatalf("unexpected json: %s", data)
	}
}

func TestSnapshotMarshalRoundTrip(t *testing.T) {
	score := 7.5
	ts := time.Date(2025, 3, 1, 12, 30, 0, 250*int(time.Millisecond), time.UTC)
	snap := Snapshot{
		Prices: map[string]PriceEntry{
			"BTC": {Price: 50000, Name: "Bitcoin", Pair: "BTC/USDT", LastUpdate: "x", TechnicalIndicatorScore: &score},
		},
		LastUpdate: ts,
	}

	data, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded Snapshot
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !decoded.LastUpdate.Equal(ts) {
		t.Fatalf("expected %v, got %v", ts, decoded.LastUpdate)
	}
	btc := decoded.Prices["BTC"]
	if btc.Price != 50000 || btc.TechnicalIndicatorScore == nil || *btc.TechnicalIndicatorScore != 7.5 {
		t.Fatalf("unexpected entry: %+v", btc)
	}
	if btc.LiquidationDataScore != nil {
		t.Fatalf("absent score should stay nil")
	}
}

func TestFormatTimestamp(t *testing.T) {
	loc := time.FixedZone("X", 3600)
	got := FormatTimestamp(time.Date(2025, 1, 2, 4, 5, 6, 0, loc))
	if got != "2025-01-02T03:05:06.000Z" {
		t.Fatalf("unexpected timestamp: %s", got)
	}
}

func TestSnapshotRecordCount(t *testing.T) {
	snap := Snapshot{Prices: map[string]PriceEntry{"A": {}, "B": {}}}
	if snap.RecordCount() != 2 {
		t.Fatalf("expected 2, got %d", snap.RecordCount())
	}
	if snap.LastUpdateISO() != nil {
		t.Fatal("expected nil timestamp before first refresh")
	}
}
