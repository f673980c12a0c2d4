package store

import (
	"sync/atomic"

	"dashboard-sync/internal/domain"
)

// SnapshotStore owns the current price snapshot. Readers always see a whole
// snapshot; Replace swaps it in a single atomic store.
type SnapshotStore struct {
	current atomic.Pointer[domain.Snapshot]
}

func NewSnapshotStore() *SnapshotStore {
	s := &SnapshotStore{}
	s.current.Store(&domain.Snapshot{Prices: map[string]domain.PriceEntry{}})
	return s
}

// Get returns the current snapshot. Callers must treat the Prices map as read-only.
func (s *SnapshotStore) Get() domain.Snapshot {
	return *s.current.Load()
}

// Replace installs snap as the current snapshot.
func (s *SnapshotStore) Replace(snap domain.Snapshot) {
	if snap.Prices == nil {
		snap.Prices = map[string]domain.PriceEntry{}
	}
	s.current.Store(&snap)
}
