// Package protocol defines the client-facing collaborator of the isolate
// coordinator: a sender of typed Debug Adapter Protocol events.
//
// Message framing, sequence numbering and request handling belong to the
// embedder's transport; the coordinator only emits event records.
package protocol

import (
	"sync"

	"github.com/google/go-dap"
)

// Sender delivers DAP events to the connected client. Implementations must
// be safe for concurrent use; the coordinator emits events from multiple
// goroutines.
type Sender interface {
	SendEvent(event dap.EventMessage)
}

// NewEvent builds the common event envelope. The transport owns sequence
// numbering, so Seq is left zero.
func NewEvent(name string) dap.Event {
	return dap.Event{
		ProtocolMessage: dap.ProtocolMessage{Type: "event"},
		Event:           name,
	}
}

// Recorder is a Sender that records every event, for tests and for
// embedders that buffer events before the client completes initialization.
type Recorder struct {
	mu     sync.Mutex
	events []dap.EventMessage
}

func (r *Recorder) SendEvent(event dap.EventMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

// Events returns a snapshot of everything sent so far, in send order.
func (r *Recorder) Events() []dap.EventMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]dap.EventMessage, len(r.events))
	copy(out, r.events)
	return out
}
