package storage

import (
	"context"
	"sync"
)

// MemoryStore keeps everything in process memory. It is used when no
// database is configured and in tests.
type MemoryStore struct {
	mu        sync.RWMutex
	records   []PlateRecord
	blacklist []BlacklistEntry
	nextRec   int64
	nextEntry int64
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextRec: 1, nextEntry: 1}
}

// SaveRecord appends rec with the next ID.
func (m *MemoryStore) SaveRecord(ctx context.Context, rec PlateRecord) (PlateRecord, error) {
	if err := ctx.Err(); err != nil {
		return PlateRecord{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	rec.ID = m.nextRec
	m.nextRec++
	rec.Timestamp = rec.Timestamp.UTC()
	m.records = append(m.records, rec)
	return rec, nil
}

// RecentRecords returns up to limit records, newest first.
func (m *MemoryStore) RecentRecords(ctx context.Context, limit int) ([]PlateRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	if limit <= 0 || limit > len(m.records) {
		limit = len(m.records)
	}
	out := make([]PlateRecord, 0, limit)
	for i := len(m.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.records[i])
	}
	return out, nil
}

// ListBlacklist returns a copy of the entries in insertion order.
func (m *MemoryStore) ListBlacklist(ctx context.Context) ([]BlacklistEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]BlacklistEntry(nil), m.blacklist...), nil
}

// AddBlacklist adds text unless an identical entry exists.
func (m *MemoryStore) AddBlacklist(ctx context.Context, text string) (BlacklistEntry, bool, error) {
	if err := ctx.Err(); err != nil {
		return BlacklistEntry{}, false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range m.blacklist {
		if e.PlateText == text {
			return e, false, nil
		}
	}
	e := BlacklistEntry{ID: m.nextEntry, PlateText: text}
	m.nextEntry++
	m.blacklist = append(m.blacklist, e)
	return e, true, nil
}

// RemoveBlacklist deletes the entry with id, or returns ErrNotFound.
func (m *MemoryStore) RemoveBlacklist(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, e := range m.blacklist {
		if e.ID == id {
			m.blacklist = append(m.blacklist[:i], m.blacklist[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// Close is a no-op.
func (m *MemoryStore) Close() error { return nil }
