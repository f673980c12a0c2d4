package domain

import (
	"encoding/json"
	"time"
)

// TimestampLayout is the ISO-8601 form used for every timestamp the API emits.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Airtable field names read from the price table.
const (
	FieldSymbol                  = "Symbol"
	FieldPrice                   = "Price"
	FieldName                    = "Name"
	FieldPair                    = "PAIR"
	FieldLastUpdate              = "Last_Update"
	FieldTechnicalIndicatorScore = "TechnicalIndicatorScore"
	FieldTimeframeAlignmentScore = "TimeframeAlignmentScore"
	FieldLiquidationDataScore    = "LiquidationDataScore"
)

// PriceEntry is one flattened row of the price table.
type PriceEntry struct {
	Price                   float64  `json:"price"`
	Name                    string   `json:"name"`
	Pair                    string   `json:"pair"`
	LastUpdate              string   `json:"lastUpdate"`
	TechnicalIndicatorScore *float64 `json:"technicalIndicatorScore,omitempty"`
	TimeframeAlignmentScore *float64 `json:"timeframeAlignmentScore,omitempty"`
	LiquidationDataScore    *float64 `json:"liquidationDataScore,omitempty"`
}

// Snapshot is the full price mapping plus the time it was fetched.
// A zero LastUpdate means no refresh has succeeded yet.
type Snapshot struct {
	Prices     map[string]PriceEntry
	LastUpdate time.Time
}

// LastUpdateISO returns the formatted update time, or nil before the first refresh.
func (s Snapshot) LastUpdateISO() *string {
	if s.LastUpdate.IsZero() {
		return nil
	}
	ts := FormatTimestamp(s.LastUpdate)
	return &ts
}

// RecordCount is the number of symbols in the mapping.
func (s Snapshot) RecordCount() int {
	return len(s.Prices)
}

func (s Snapshot) MarshalJSON() ([]byte, error) {
	prices := s.Prices
	if prices == nil {
		prices = map[string]PriceEntry{}
	}
	return json.Marshal(struct {
		Prices     map[string]PriceEntry `json:"prices"`
		LastUpdate *string               `json:"lastUpdate"`
	}{
		Prices:     prices,
		LastUpdate: s.LastUpdateISO(),
	})
}

func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var raw struct {
		Prices     map[string]PriceEntry `json:"prices"`
		LastUpdate *string               `json:"lastUpdate"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.Prices = raw.Prices
	s.LastUpdate = time.Time{}
	if raw.LastUpdate != nil && *raw.LastUpdate != "" {
		t, err := time.Parse(time.RFC3339Nano, *raw.LastUpdate)
		if err != nil {
			return err
		}
		s.LastUpdate = t
	}
	return nil
}

// FormatTimestamp renders t in UTC with millisecond precision.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
