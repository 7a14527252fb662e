// Package lifecycle holds the explicit transition tables for sessions and
// seances. A table maps (from-state, event) to the next state; guards and
// side effects live with the caller.
package lifecycle

import (
	"github.com/dalemusser/coursehub/internal/domain/errs"
	"github.com/dalemusser/coursehub/internal/domain/models"
)

// Event names a workflow trigger.
type Event string

const (
	EventOpen               Event = "open"
	EventConfirm            Event = "confirm"
	EventCloseSubscriptions Event = "close_subscriptions"
	EventStart              Event = "start"
	EventClose              Event = "close"
	EventDone               Event = "done"
	EventCancel             Event = "cancel"
)

// Transition is one row of a table.
type Transition[S ~string] struct {
	From  S
	Event Event
	To    S
}

type key[S ~string] struct {
	from  S
	event Event
}

// Table is an immutable transition table for one entity kind.
type Table[S ~string] struct {
	entity string
	rules  map[key[S]]S
	events map[Event]struct{}
	order  []Transition[S]
}

// NewTable builds a table. A duplicate (from, event) pair panics; tables are
// package-level values built at init.
func NewTable[S ~string](entity string, ts []Transition[S]) *Table[S] {
	t := &Table[S]{
		entity: entity,
		rules:  make(map[key[S]]S, len(ts)),
		events: map[Event]struct{}{},
		order:  ts,
	}
	for _, tr := range ts {
		k := key[S]{tr.From, tr.Event}
		if _, dup := t.rules[k]; dup {
			panic("lifecycle: duplicate transition " + entity + " " + string(tr.From) + "/" + string(tr.Event))
		}
		t.rules[k] = tr.To
		t.events[tr.Event] = struct{}{}
	}
	return t
}

// Entity returns the entity name the table governs.
func (t *Table[S]) Entity() string { return t.entity }

// Can reports whether ev applies to from.
func (t *Table[S]) Can(from S, ev Event) bool {
	_, ok := t.rules[key[S]{from, ev}]
	return ok
}

// Next returns the target state for ev fired in from. Unknown events are
// unsupported; known events that do not apply to from are precondition
// failures.
func (t *Table[S]) Next(from S, ev Event) (S, error) {
	if _, known := t.events[ev]; !known {
		return from, errs.Unsupported("unknown %s event %q", t.entity, ev)
	}
	to, ok := t.rules[key[S]{from, ev}]
	if !ok {
		return from, errs.Precondition("cannot %s a %s in state %s", ev, t.entity, from)
	}
	return to, nil
}

// Events lists the events accepted from the given state, in table order.
func (t *Table[S]) Events(from S) []Event {
	var out []Event
	for _, tr := range t.order {
		if tr.From == from {
			out = append(out, tr.Event)
		}
	}
	return out
}

// Sessions is the session lifecycle.
//
//	draft -> opened -> opened_confirmed -> closed_confirmed -> in_progress -> closed
//
// cancel is accepted from every non-terminal state.
var Sessions = NewTable("session", []Transition[models.SessionState]{
	{models.SessionDraft, EventOpen, models.SessionOpened},
	{models.SessionOpened, EventConfirm, models.SessionOpenedConfirmed},
	{models.SessionOpenedConfirmed, EventCloseSubscriptions, models.SessionClosedConfirmed},
	{models.SessionClosedConfirmed, EventStart, models.SessionInProgress},
	{models.SessionInProgress, EventClose, models.SessionClosed},

	{models.SessionDraft, EventCancel, models.SessionCancelled},
	{models.SessionOpened, EventCancel, models.SessionCancelled},
	{models.SessionOpenedConfirmed, EventCancel, models.SessionCancelled},
	{models.SessionClosedConfirmed, EventCancel, models.SessionCancelled},
	{models.SessionInProgress, EventCancel, models.SessionCancelled},
})

// Seances is the seance lifecycle.
//
//	opened -> confirmed -> in_progress -> closed -> done
//
// close is accepted from any open state, done from in_progress or closed,
// and cancel from every non-terminal state. draft only exists on imported
// data and can be opened or cancelled.
var Seances = NewTable("seance", []Transition[models.SeanceState]{
	{models.SeanceDraft, EventOpen, models.SeanceOpened},
	{models.SeanceOpened, EventConfirm, models.SeanceConfirmed},
	{models.SeanceConfirmed, EventStart, models.SeanceInProgress},

	{models.SeanceOpened, EventClose, models.SeanceClosed},
	{models.SeanceConfirmed, EventClose, models.SeanceClosed},
	{models.SeanceInProgress, EventClose, models.SeanceClosed},

	{models.SeanceInProgress, EventDone, models.SeanceDone},
	{models.SeanceClosed, EventDone, models.SeanceDone},

	{models.SeanceDraft, EventCancel, models.SeanceCancelled},
	{models.SeanceOpened, EventCancel, models.SeanceCancelled},
	{models.SeanceConfirmed, EventCancel, models.SeanceCancelled},
	{models.SeanceInProgress, EventCancel, models.SeanceCancelled},
	{models.SeanceClosed, EventCancel, models.SeanceCancelled},
})
