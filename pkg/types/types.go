// Package types defines the VM-service data model shared between the
// isolate coordinator and its embedders.
//
// This package provides type definitions for:
//   - EventKind: the closed set of VM debug-stream event kinds
//   - IsolateRef, Isolate, LibraryRef, ScriptRef: isolate-side references
//   - Breakpoint, SourceLocation: VM-assigned breakpoints and their locations
//   - InstanceRef, Object: value references returned by evaluation and lookup
//   - Event: a single typed record from the VM debug stream
//   - StepKind, ExceptionPauseMode: resume stepping and exception pause options
//
// These types are deliberately VM-agnostic: they model only what the
// coordinator consumes, not the full wire schema of any particular runtime.
package types

// EventKind identifies a VM debug-stream event.
type EventKind string

const (
	EventIsolateStart    EventKind = "IsolateStart"
	EventIsolateRunnable EventKind = "IsolateRunnable"
	EventIsolateExit     EventKind = "IsolateExit"

	EventPauseStart       EventKind = "PauseStart"
	EventPauseExit        EventKind = "PauseExit"
	EventPauseBreakpoint  EventKind = "PauseBreakpoint"
	EventPauseInterrupted EventKind = "PauseInterrupted"
	EventPauseException   EventKind = "PauseException"
	EventPausePostRequest EventKind = "PausePostRequest"

	EventResume  EventKind = "Resume"
	EventInspect EventKind = "Inspect"

	EventBreakpointAdded    EventKind = "BreakpointAdded"
	EventBreakpointResolved EventKind = "BreakpointResolved"
	EventBreakpointRemoved  EventKind = "BreakpointRemoved"

	EventNone EventKind = "None"
)

// IsPauseKind reports whether the event kind indicates the isolate paused.
func (k EventKind) IsPauseKind() bool {
	switch k {
	case EventPauseStart, EventPauseExit, EventPauseBreakpoint,
		EventPauseInterrupted, EventPauseException, EventPausePostRequest:
		return true
	}
	return false
}

// StepKind selects the stepping behavior of a resume request.
type StepKind string

const (
	// StepNone resumes without stepping.
	StepNone StepKind = ""

	StepInto                StepKind = "Into"
	StepOver                StepKind = "Over"
	StepOverAsyncSuspension StepKind = "OverAsyncSuspension"
	StepOut                 StepKind = "Out"
	StepRewind              StepKind = "Rewind"
)

// ExceptionPauseMode controls which thrown exceptions pause an isolate.
type ExceptionPauseMode string

const (
	ExceptionPauseNone      ExceptionPauseMode = "None"
	ExceptionPauseUnhandled ExceptionPauseMode = "Unhandled"
	ExceptionPauseAll       ExceptionPauseMode = "All"
)

// InstanceKind values the coordinator cares about when judging truthiness
// of evaluated breakpoint conditions.
const (
	InstanceKindBool   = "Bool"
	InstanceKindInt    = "Int"
	InstanceKindDouble = "Double"
	InstanceKindString = "String"
	InstanceKindNull   = "Null"
)

// IsolateRef identifies an isolate within the VM.
type IsolateRef struct {
	// ID is the opaque VM-assigned isolate id.
	ID string `json:"id"`
	// Number is the VM-assigned isolate number, exposed to clients as the
	// protocol thread id. Zero means the VM did not supply one.
	Number int `json:"number,omitempty"`
	// Name is a human-readable isolate name.
	Name string `json:"name,omitempty"`
}

// LibraryRef identifies a library loaded into an isolate.
type LibraryRef struct {
	ID  string `json:"id"`
	URI string `json:"uri"`
}

// Isolate is the full isolate object returned by a get-isolate RPC.
type Isolate struct {
	ID        string        `json:"id"`
	Number    int           `json:"number,omitempty"`
	Name      string        `json:"name,omitempty"`
	Libraries []*LibraryRef `json:"libraries,omitempty"`
}

// ScriptRef identifies a script loaded into an isolate.
type ScriptRef struct {
	ID  string `json:"id"`
	URI string `json:"uri"`
}

// SourceLocation is a resolved position within a script.
type SourceLocation struct {
	Script *ScriptRef `json:"script,omitempty"`
	Line   int        `json:"line,omitempty"`
	Column int        `json:"column,omitempty"`
}

// Breakpoint is a VM-assigned breakpoint. The VM deduplicates identical
// resolved locations, so several client breakpoints may map to one of these.
type Breakpoint struct {
	ID       string          `json:"id"`
	Resolved bool            `json:"resolved"`
	Location *SourceLocation `json:"location,omitempty"`
}

// InstanceRef is a reference to a value held by the VM, such as the result
// of an evaluation or a raised exception.
type InstanceRef struct {
	ID            string `json:"id"`
	Kind          string `json:"kind,omitempty"`
	ValueAsString string `json:"valueAsString,omitempty"`
	// ValueTruncated reports that ValueAsString was cut short and the full
	// value must be fetched with a get-object RPC.
	ValueTruncated bool `json:"valueAsStringIsTruncated,omitempty"`
}

// Object is the full form of a VM object returned by a get-object RPC.
type Object struct {
	ID            string `json:"id"`
	Kind          string `json:"kind,omitempty"`
	ValueAsString string `json:"valueAsString,omitempty"`
	// URI is set when the object is a script.
	URI string `json:"uri,omitempty"`
}

// Frame identifies a stack frame for in-frame evaluation.
type Frame struct {
	Index int `json:"index"`
}

// Event is a single typed record from the VM debug stream.
type Event struct {
	Kind    EventKind   `json:"kind"`
	Isolate *IsolateRef `json:"isolate,omitempty"`

	// Breakpoint is set on breakpoint-added/resolved/removed events.
	Breakpoint *Breakpoint `json:"breakpoint,omitempty"`
	// PauseBreakpoints lists the VM breakpoints hit by a pause-breakpoint
	// event. Empty on a plain breakpoint pause, which is treated as a step.
	PauseBreakpoints []*Breakpoint `json:"pauseBreakpoints,omitempty"`

	// Exception is the raised value on a pause-exception event.
	Exception *InstanceRef `json:"exception,omitempty"`
	// Inspectee is the inspected value on an inspect event.
	Inspectee *InstanceRef `json:"inspectee,omitempty"`

	// TopFrame is the top stack frame, when the VM supplies one.
	TopFrame *Frame `json:"topFrame,omitempty"`

	AtAsyncSuspension bool `json:"atAsyncSuspension,omitempty"`
}
