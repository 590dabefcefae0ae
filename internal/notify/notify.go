// Package notify publishes recognition events to other systems.
package notify

import (
	"context"
	"time"
)

// Event describes one recognized plate.
type Event struct {
	Plate     string    `json:"plate"`
	Allowed   bool      `json:"allowed"`
	Votes     int       `json:"votes"`
	Image     string    `json:"image"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }
