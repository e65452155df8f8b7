package agent

import (
	"context"
	"time"
)

// EventKind distinguishes what the page reported.
type EventKind int

const (
	// EventClick is a press of the injected button.
	EventClick EventKind = iota
	// EventMutation is one batch of child-list mutations under body.
	EventMutation
)

func (k EventKind) String() string {
	switch k {
	case EventClick:
		return "click"
	case EventMutation:
		return "mutation"
	default:
		return "unknown"
	}
}

// Event is delivered by the page in FIFO order.
type Event struct {
	Kind EventKind
	// Records is the number of mutation records in the batch.
	Records int
}

// ButtonSpec describes the trigger button.
type ButtonSpec struct {
	ID    string
	Label string
}

// Page is the host document the agent drives. Implementations map each
// call onto the live DOM.
type Page interface {
	// Exists reports whether document.querySelector(selector) matches.
	Exists(ctx context.Context, selector string) (bool, error)
	// DocumentHTML returns the serialized document.
	DocumentHTML(ctx context.Context) (string, error)
	// AppendButton appends the trigger button to document.body.
	AppendButton(ctx context.Context, spec ButtonSpec) error
	// AppendNotification appends a transient message element to body.
	AppendNotification(ctx context.Context, id, text string) error
	// RemoveElement detaches the element if it still has a parent.
	RemoveElement(ctx context.Context, id string) error
	// Alert shows a blocking alert.
	Alert(ctx context.Context, msg string) error
	// ConsoleError writes to the page console.
	ConsoleError(ctx context.Context, msg string) error
	// Events yields clicks and mutation batches. It is closed when the
	// page goes away.
	Events() <-chan Event
}

// Clipboard commits text to the system clipboard.
type Clipboard interface {
	WriteText(text string) error
}

// Timer is a pending one-shot callback.
type Timer interface {
	Stop() bool
}

// Clock schedules one-shot callbacks.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// SystemClock uses the runtime timers.
type SystemClock struct{}

func (SystemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
