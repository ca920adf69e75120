// Package notify posts bug lifecycle events to chat platforms (Slack, Discord).
package notify

import (
	"context"
	"errors"

	"github.com/zulandar/bugyard/internal/models"
)

// Event kinds.
const (
	KindCreated       = "bug.created"
	KindStatusChanged = "bug.status_changed"
)

// Event is a single bug lifecycle change.
type Event struct {
	Kind string
	Bug  *models.Bug
	// PrevStatus is set for KindStatusChanged.
	PrevStatus string
}

// Notifier delivers events to one destination.
type Notifier interface {
	Notify(ctx context.Context, e Event) error
}

// Nop discards every event.
type Nop struct{}

// Notify implements Notifier.
func (Nop) Notify(context.Context, Event) error { return nil }

// Multi fans an event out to every notifier, returning all failures joined.
type Multi []Notifier

// Notify implements Notifier.
func (m Multi) Notify(ctx context.Context, e Event) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// PriorityFilter drops creation events below MinPriority. Status changes
// always pass.
type PriorityFilter struct {
	MinPriority string
	Next        Notifier
}

// Notify implements Notifier.
func (f PriorityFilter) Notify(ctx context.Context, e Event) error {
	if e.Bug == nil {
		return nil
	}
	if e.Kind == KindCreated && models.LevelRank(e.Bug.Priority) < models.LevelRank(f.MinPriority) {
		return nil
	}
	return f.Next.Notify(ctx, e)
}
