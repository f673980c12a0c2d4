package bot

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"dashboard-sync/internal/domain"

	tele "gopkg.in/telebot.v3"
)

type SnapshotReader interface {
	GetSnapshot(ctx context.Context) domain.Snapshot
}

var newBot = tele.NewBot

// StartTelegramBot answers price lookups from the cached snapshot. It does
// nothing when token is empty.
func StartTelegramBot(token string, prices SnapshotReader) {
	if token == "" {
		log.Println("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return
	}
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	b, err := newBot(pref)
	if err != nil {
		log.Fatalf("failed to create Telegram bot: %v", err)
	}

	b.Handle("/ping", func(c tele.Context) error {
		return c.Send("pong")
	})

	b.Handle("/price", func(c tele.Context) error {
		snap := prices.GetSnapshot(context.Background())
		args := c.Args()
		if len(args) == 0 {
			return c.Send("Usage: /price BTC\nTracked: " + strings.Join(sortedSymbols(snap), ", "))
		}
		return c.Send(priceMessage(snap, strings.ToUpper(args[0])))
	})

	b.Handle("/prices", func(c tele.Context) error {
		return c.Send(priceListMessage(prices.GetSnapshot(context.Background())))
	})

	log.Println("Telegram bot started")
	go b.Start()
}

func priceMessage(snap domain.Snapshot, symbol string) string {
	entry, ok := snap.Prices[symbol]
	if !ok {
		return fmt.Sprintf("Unknown symbol: %s\nTracked: %s", symbol, strings.Join(sortedSymbols(snap), ", "))
	}

	var sb strings.Builder
	title := symbol
	if entry.Name != "" {
		title = fmt.Sprintf("%s (%s)", symbol, entry.Name)
	}
	fmt.Fprintf(&sb, "%s\nPrice: %s", title, formatAmount(entry.Price))
	if entry.Pair != "" {
		fmt.Fprintf(&sb, "\nPair: %s", entry.Pair)
	}
	writeScore(&sb, "Technical", entry.TechnicalIndicatorScore)
	writeScore(&sb, "Timeframe", entry.TimeframeAlignmentScore)
	writeScore(&sb, "Liquidation", entry.LiquidationDataScore)
	fmt.Fprintf(&sb, "\nUpdated: %s", entry.LastUpdate)
	return sb.String()
}

func priceListMessage(snap domain.Snapshot) string {
	if len(snap.Prices) == 0 {
		return "No prices cached yet"
	}
	lines := make([]string, 0, len(snap.Prices)+1)
	for _, symbol := range sortedSymbols(snap) {
		lines = append(lines, fmt.Sprintf("%s: %s", symbol, formatAmount(snap.Prices[symbol].Price)))
	}
	if ts := snap.LastUpdateISO(); ts != nil {
		lines = append(lines, "Last update: "+*ts)
	}
	return strings.Join(lines, "\n")
}

func writeScore(sb *strings.Builder, label string, score *float64) {
	if score != nil {
		fmt.Fprintf(sb, "\n%s score: %.2f", label, *score)
	}
}

func formatAmount(p float64) string {
	if p != 0 && p < 1 && p > -1 {
		return fmt.Sprintf("$%.6f", p)
	}
	return fmt.Sprintf("$%.2f", p)
}

func sortedSymbols(snap domain.Snapshot) []string {
	symbols := make([]string, 0, len(snap.Prices))
	for s := range snap.Prices {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}
