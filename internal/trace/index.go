package trace

import (
	"errors"
	"fmt"
)

var ErrEventNotFound = errors.New("log not found")

// EventNotFoundError reports the id or type that is missing from a trace.
type EventNotFoundError struct {
	ID   int
	Type EventType
}

func (e *EventNotFoundError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("log not found: no event of type %s", e.Type)
	}
	return fmt.Sprintf("log not found: no event with id %d", e.ID)
}

func (e *EventNotFoundError) Unwrap() error {
	return ErrEventNotFound
}

// Index answers id and type lookups over one repetition's events.
//
// Ids are usually dense and 1-based, so events[id-1] is tried first; page
// order from the provider is not guaranteed, so a map built once at
// construction covers the rest.
type Index struct {
	events []*Event
	byID   map[int]*Event
}

func NewIndex(events []*Event) *Index {
	byID := make(map[int]*Event, len(events))
	for _, ev := range events {
		if _, dup := byID[ev.ID]; !dup {
			byID[ev.ID] = ev
		}
	}
	return &Index{events: events, byID: byID}
}

func (ix *Index) Len() int {
	return len(ix.events)
}

// ByID returns the event carrying id.
func (ix *Index) ByID(id int) (*Event, error) {
	if id >= 1 && id <= len(ix.events) {
		if ev := ix.events[id-1]; ev.ID == id {
			return ev, nil
		}
	}
	if ev, ok := ix.byID[id]; ok {
		return ev, nil
	}
	return nil, &EventNotFoundError{ID: id}
}

// ByType returns the first event of type t.
func (ix *Index) ByType(t EventType) (*Event, error) {
	for _, ev := range ix.events {
		if ev.Type == t {
			return ev, nil
		}
	}
	return nil, &EventNotFoundError{Type: t}
}

// LastByType returns the last event of type t.
func (ix *Index) LastByType(t EventType) (*Event, error) {
	for i := len(ix.events) - 1; i >= 0; i-- {
		if ix.events[i].Type == t {
			return ix.events[i], nil
		}
	}
	return nil, &EventNotFoundError{Type: t}
}

// OfType returns every event of type t in trace order.
func (ix *Index) OfType(t EventType) []*Event {
	var out []*Event
	for _, ev := range ix.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}
