// Package storage persists recognized plates and the disallow list.
package storage

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrNotFound is returned when a record addressed by ID does not exist.
var ErrNotFound = errors.New("not found")

// PlateRecord is one recognition kept in the history.
type PlateRecord struct {
	ID        int64     `json:"id"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	Allowed   bool      `json:"is_allowed"`
	ImageName string    `json:"image_name"`
}

// BlacklistEntry is a plate text that is refused access.
type BlacklistEntry struct {
	ID        int64  `json:"id"`
	PlateText string `json:"plate_text"`
}

// Store is the persistence used by the plate service.
type Store interface {
	// SaveRecord stores rec and returns it with its ID assigned.
	SaveRecord(ctx context.Context, rec PlateRecord) (PlateRecord, error)
	// RecentRecords returns at most limit records, newest first.
	RecentRecords(ctx context.Context, limit int) ([]PlateRecord, error)
	// ListBlacklist returns every entry in insertion order.
	ListBlacklist(ctx context.Context) ([]BlacklistEntry, error)
	// AddBlacklist adds text unless already present. created reports
	// whether a new entry was made; the existing entry is returned otherwise.
	AddBlacklist(ctx context.Context, text string) (entry BlacklistEntry, created bool, err error)
	// RemoveBlacklist deletes the entry with id, or returns ErrNotFound.
	RemoveBlacklist(ctx context.Context, id int64) error
	Close() error
}

// IsAllowed reports whether text passes the disallow list: it is refused
// when any non-empty entry occurs in it as a substring.
func IsAllowed(text string, entries []BlacklistEntry) bool {
	for _, e := range entries {
		if e.PlateText != "" && strings.Contains(text, e.PlateText) {
			return false
		}
	}
	return true
}
