// Package notifytest provides a notify.Notifier that records events for
// assertions in tests.
package notifytest

import (
	"context"

	"github.com/specialistvlad/materialmgr/internal/notify"
)

// Recorder keeps published events in memory. Not safe for concurrent use.
type Recorder struct {
	Events []notify.Event
}

func (r *Recorder) Publish(_ context.Context, ev notify.Event) error {
	r.Events = append(r.Events, ev)
	return nil
}

// Kinds returns the kinds of the recorded events in order.
func (r *Recorder) Kinds() []notify.Kind {
	out := make([]notify.Kind, len(r.Events))
	for i, ev := range r.Events {
		out[i] = ev.Kind
	}
	return out
}
