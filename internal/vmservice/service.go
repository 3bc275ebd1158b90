// Package vmservice defines the abstract VM-service collaborator consumed by
// the isolate coordinator.
//
// The real connection (event subscription, RPC transport) lives in the
// embedder; the coordinator only depends on the Service interface and on the
// distinguished failure signals in this package.
package vmservice

import (
	"context"

	"github.com/jnschulze/isodap/pkg/types"
)

// Service is the set of VM RPCs the coordinator invokes. Every method takes
// a context because each call suspends on the underlying connection.
type Service interface {
	// GetObject fetches the full form of a VM object. A non-zero count
	// requests a partial fetch of count elements starting at offset; zero
	// for both fetches the whole object. Implementations return
	// ErrCollected when the object has been collected or expired.
	GetObject(ctx context.Context, isolateID, objectID string, offset, count int) (*types.Object, error)

	// Resume resumes a paused isolate, optionally stepping.
	Resume(ctx context.Context, isolateID string, step types.StepKind) error

	// Pause interrupts a running isolate.
	Pause(ctx context.Context, isolateID string) error

	// EvaluateInFrame evaluates an expression in the given stack frame.
	// disableBreakpoints prevents the evaluation itself from re-triggering
	// breakpoints while the isolate is paused at one.
	EvaluateInFrame(ctx context.Context, isolateID string, frameIndex int, expression string, disableBreakpoints bool) (*types.InstanceRef, error)

	// AddBreakpointWithScriptURI creates a VM breakpoint at a script URI and
	// line. A zero column means "any column".
	AddBreakpointWithScriptURI(ctx context.Context, isolateID, scriptURI string, line, column int) (*types.Breakpoint, error)

	// RemoveBreakpoint deletes a VM breakpoint by id.
	RemoveBreakpoint(ctx context.Context, isolateID, breakpointID string) error

	// SetIsolatePauseMode sets the exception pause mode for one isolate.
	SetIsolatePauseMode(ctx context.Context, isolateID string, mode types.ExceptionPauseMode) error

	// SetLibraryDebuggable toggles whether the debugger may step into a
	// library. Backends without this capability fail with a method-not-found
	// error, which callers treat as expected-absent.
	SetLibraryDebuggable(ctx context.Context, isolateID, libraryID string, debuggable bool) error

	// GetIsolate fetches the full isolate object, including its libraries.
	GetIsolate(ctx context.Context, isolateID string) (*types.Isolate, error)

	// LookupResolvedPackageURIs maps package-scheme URIs to file URIs. The
	// returned slice is positional; an empty string marks an unresolvable
	// entry.
	LookupResolvedPackageURIs(ctx context.Context, isolateID string, uris []string) ([]string, error)

	// ReloadSources asks the isolate to hot-reload its sources.
	ReloadSources(ctx context.Context, isolateID string) error
}
