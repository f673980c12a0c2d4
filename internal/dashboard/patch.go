// Package dashboard computes which rendered price cells are stale.
//
// The browser script served at /dashboard-sync.js applies the same rules to
// DOM table rows; the SSH dashboard uses this package directly.
package dashboard

import (
	"math"
	"strconv"
	"strings"

	"dashboard-sync/internal/domain"
)

const (
	// PriceTolerance is the largest difference treated as "unchanged".
	PriceTolerance = 0.001

	SymbolColumn = 0
	PriceColumn  = 2
)

// Row holds the text of each cell in one rendered table row.
type Row []string

// Change is one price cell that should be overwritten.
type Change struct {
	Row    int
	Symbol string
	Old    string
	New    string
	Price  float64
}

// Patch compares rendered rows against the price mapping. Row 0 is the
// header and rows with fewer than three cells are ignored. It never
// modifies rows.
func Patch(rows []Row, prices map[string]domain.PriceEntry) []Change {
	var changes []Change
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if len(row) <= PriceColumn {
			continue
		}

		symbol := strings.TrimSpace(row[SymbolColumn])
		entry, ok := prices[symbol]
		if !ok {
			continue
		}

		shown, ok := ParseDisplayedPrice(row[PriceColumn])
		if ok && math.Abs(shown-entry.Price) <= PriceTolerance {
			continue
		}

		changes = append(changes, Change{
			Row:    i,
			Symbol: symbol,
			Old:    row[PriceColumn],
			New:    FormatPrice(entry.Price),
			Price:  entry.Price,
		})
	}
	return changes
}

// Apply writes changes into rows in place.
func Apply(rows []Row, changes []Change) {
	for _, ch := range changes {
		if ch.Row < len(rows) && PriceColumn < len(rows[ch.Row]) {
			rows[ch.Row][PriceColumn] = ch.New
		}
	}
}

// ParseDisplayedPrice reads a rendered price, ignoring thousands separators.
func ParseDisplayedPrice(text string) (float64, bool) {
	cleaned := strings.TrimSpace(strings.ReplaceAll(text, ",", ""))
	if cleaned == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// FormatPrice renders a price with the shortest exact representation.
func FormatPrice(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}
