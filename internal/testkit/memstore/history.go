package memstore

import (
	"context"

	historymodels "statecraft/internal/history/models"
)

// History implements the history log. Events roll back with the
// transaction that appended them.
type History struct {
	s *Store
}

// Append records an event
func (v *History) Append(ctx context.Context, event historymodels.Event) error {
	defer v.s.lock()()
	v.s.data.events = append(v.s.data.events, event)
	return nil
}

// Events returns a copy of every recorded event in order
func (v *History) Events() []historymodels.Event {
	defer v.s.lock()()
	return append([]historymodels.Event(nil), v.s.data.events...)
}

// OfType returns the recorded events of one type
func (v *History) OfType(eventType historymodels.EventType) []historymodels.Event {
	var out []historymodels.Event
	for _, e := range v.Events() {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}
