// Package notify publishes material change events to an external view layer.
//
// The engine mutates a host document synchronously and has no view of its
// own. Whatever renders the material list (a panel inside the host, a web
// dashboard) learns about changes through a Notifier. Publication is best
// effort: the engine logs a failed publish and carries on.
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Kind names what changed.
type Kind string

const (
	MaterialCreated    Kind = "material.created"
	MaterialRenamed    Kind = "material.renamed"
	MaterialDuplicated Kind = "material.duplicated"
	MaterialRemoved    Kind = "material.removed"
	ElementCreated     Kind = "element.created"
	ElementRemoved     Kind = "element.removed"
	OrderChanged       Kind = "order.changed"
	VisibilityChanged  Kind = "visibility.changed"
	BaseColorChanged   Kind = "basecolor.changed"
)

// Event is one change notification.
type Event struct {
	ID       string
	Kind     Kind
	Material string
	// From is the previous or source name for renames and duplicates.
	From    string
	Element string
	Order   []string
	At      time.Time
}

// NewEvent stamps an event with a fresh id and the current time.
func NewEvent(kind Kind, material string) Event {
	return Event{
		ID:       uuid.NewString(),
		Kind:     kind,
		Material: material,
		At:       time.Now().UTC(),
	}
}

// Payload renders the event as a JSON-friendly map.
func (e Event) Payload() map[string]any {
	p := map[string]any{
		"id":   e.ID,
		"kind": string(e.Kind),
		"at":   e.At.Format(time.RFC3339Nano),
	}
	if e.Material != "" {
		p["material"] = e.Material
	}
	if e.From != "" {
		p["from"] = e.From
	}
	if e.Element != "" {
		p["element"] = e.Element
	}
	if e.Order != nil {
		p["order"] = e.Order
	}
	return p
}

// Notifier delivers events.
type Notifier interface {
	Publish(ctx context.Context, ev Event) error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
