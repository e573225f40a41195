// Package events announces user changes to other systems. Publishing is best
// effort: callers log failures and carry on.
package events

import (
	"context"
	"time"
)

const (
	TypeUserCreated      = "user.created"
	TypeUserUpdated      = "user.updated"
	TypeUserDeleted      = "user.deleted"
	TypeUsersBulkDeleted = "users.bulk_deleted"
	TypeImportCompleted  = "users.import_completed"
)

type Event struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurredAt"`
	Data       any       `json:"data"`
}

func New(typ string, data any) Event {
	return Event{Type: typ, OccurredAt: time.Now().UTC(), Data: data}
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }
