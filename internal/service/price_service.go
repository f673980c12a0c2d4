package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"dashboard-sync/internal/domain"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

// ErrPriceTableNotConfigured means the price table name has no Airtable id.
var ErrPriceTableNotConfigured = errors.New("price table is not configured")

type RecordLister interface {
	ListRecords(ctx context.Context, tableID string) ([]gjson.Result, error)
}

type SnapshotStore interface {
	Get() domain.Snapshot
	Replace(snap domain.Snapshot)
}

// SnapshotWriter persists a snapshot after it has been installed.
type SnapshotWriter interface {
	SaveSnapshot(ctx context.Context, snap domain.Snapshot) error
}

// PriceService keeps the price snapshot in sync with the Airtable price table.
type PriceService struct {
	tracer  trace.Tracer
	lister  RecordLister
	tableID string
	store   SnapshotStore
	writers []SnapshotWriter
	timeout time.Duration
	now     func() time.Time

	inflight singleflight.Group
}

func NewPriceService(
	tracer trace.Tracer,
	lister RecordLister,
	tableID string,
	store SnapshotStore,
	timeout time.Duration,
	writers ...SnapshotWriter,
) *PriceService {
	return &PriceService{
		tracer:  tracer,
		lister:  lister,
		tableID: tableID,
		store:   store,
		writers: writers,
		timeout: timeout,
		now:     time.Now,
	}
}

// GetSnapshot returns the current snapshot without touching Airtable.
func (s *PriceService) GetSnapshot(ctx context.Context) domain.Snapshot {
	_, span := s.tracer.Start(ctx, "price-service.get-snapshot")
	defer span.End()

	return s.store.Get()
}

// RefreshPrices fetches the price table and replaces the snapshot.
// Callers that arrive while a refresh is running wait for it and share its result.
func (s *PriceService) RefreshPrices(ctx context.Context) error {
	_, err, shared := s.inflight.Do("refresh", func() (interface{}, error) {
		return nil, s.refresh(ctx)
	})
	if shared {
		log.Println("Joined in-flight price refresh")
	}
	return err
}

func (s *PriceService) refresh(ctx context.Context) error {
	// The fetch is shared by every waiting caller, so it must not die with the first one.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	ctx, span := s.tracer.Start(ctx, "price-service.refresh-prices")
	defer span.End()

	if s.tableID == "" {
		return ErrPriceTableNotConfigured
	}

	log.Println("Fetching price table from Airtable...")
	records, err := s.lister.ListRecords(ctx, s.tableID)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("fetch price records: %w", err)
	}

	now := s.now()
	snap := domain.Snapshot{
		Prices:     BuildPriceEntries(records, now),
		LastUpdate: now,
	}
	s.store.Replace(snap)
	span.SetAttributes(
		attribute.Int("records.fetched", len(records)),
		attribute.Int("prices.count", len(snap.Prices)),
	)

	for _, w := range s.writers {
		if err := w.SaveSnapshot(ctx, snap); err != nil {
			log.Printf("snapshot persist error: %v", err)
		}
	}

	log.Printf("Refreshed prices for %d symbols (%d records)", len(snap.Prices), len(records))
	return nil
}
