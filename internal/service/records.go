package service

import (
	"math"
	"strconv"
	"strings"
	"time"

	"dashboard-sync/internal/domain"

	"github.com/tidwall/gjson"
)

// BuildPriceEntries flattens Airtable records into the price mapping.
// Records without a Symbol or a numeric Price are skipped; a repeated
// symbol keeps the last record seen.
func BuildPriceEntries(records []gjson.Result, now time.Time) map[string]domain.PriceEntry {
	prices := make(map[string]domain.PriceEntry, len(records))
	for _, record := range records {
		symbol, entry, ok := entryFromRecord(record.Get("fields"), now)
		if !ok {
			continue
		}
		prices[symbol] = entry
	}
	return prices
}

func entryFromRecord(fields gjson.Result, now time.Time) (string, domain.PriceEntry, bool) {
	symbolField := fields.Get(domain.FieldSymbol)
	if symbolField.Type != gjson.String || symbolField.Str == "" {
		return "", domain.PriceEntry{}, false
	}

	price, ok := numberField(fields.Get(domain.FieldPrice))
	if !ok {
		return "", domain.PriceEntry{}, false
	}

	entry := domain.PriceEntry{
		Price:                   price,
		Name:                    fields.Get(domain.FieldName).String(),
		Pair:                    fields.Get(domain.FieldPair).String(),
		LastUpdate:              fields.Get(domain.FieldLastUpdate).String(),
		TechnicalIndicatorScore: optionalNumber(fields.Get(domain.FieldTechnicalIndicatorScore)),
		TimeframeAlignmentScore: optionalNumber(fields.Get(domain.FieldTimeframeAlignmentScore)),
		LiquidationDataScore:    optionalNumber(fields.Get(domain.FieldLiquidationDataScore)),
	}
	if entry.LastUpdate == "" {
		entry.LastUpdate = domain.FormatTimestamp(now)
	}
	return symbolField.Str, entry, true
}

// numberField accepts JSON numbers and finite numeric strings. ParseFloat
// also reads "NaN" and "Inf", which encoding/json refuses to marshal.
func numberField(v gjson.Result) (float64, bool) {
	switch v.Type {
	case gjson.Number:
		return v.Float(), true
	case gjson.String:
		n, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

func optionalNumber(v gjson.Result) *float64 {
	if v.Type != gjson.Number {
		return nil
	}
	n := v.Float()
	return &n
}
