package isolates

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/jnschulze/isodap/internal/vmservice"
	"github.com/jnschulze/isodap/pkg/types"
)

// URIConverter translates between client-side paths and VM-addressable
// URIs. The heuristics are project-convention specific, so the conversion
// is a narrow, swappable collaborator.
type URIConverter interface {
	// PathToURI converts a client path to a VM-addressable URI. ok is false
	// when the path cannot be expressed as a URI the VM understands.
	PathToURI(path string) (uri string, ok bool)
	// URIToPath converts a (resolved) VM URI to a client path.
	URIToPath(uri string) (path string, ok bool)
}

// FileURIConverter maps file paths to file:// URIs and back, passing
// anything else through unchanged.
type FileURIConverter struct{}

func (FileURIConverter) PathToURI(path string) (string, bool) {
	if path == "" {
		return "", false
	}
	if len(path) > 0 && path[0] == '/' {
		return "file://" + path, true
	}
	return path, true
}

func (FileURIConverter) URIToPath(uri string) (string, bool) {
	if uri == "" {
		return "", false
	}
	const prefix = "file://"
	if len(uri) >= len(prefix) && uri[:len(prefix)] == prefix {
		return uri[len(prefix):], true
	}
	return "", false
}

// uriResolution is an in-flight or completed URI lookup. Concurrent callers
// asking for the same URI share one entry, so exactly one underlying lookup
// happens per key.
type uriResolution struct {
	done chan struct{}
	path string
	err  error
}

// Thread is the per-isolate record. It exists from the first observed
// start/runnable event until the exit event is processed; its number stays
// known to the session forever after.
//
// The coordinator owns and mutates the record; other components read it and
// populate its caches only through its methods.
type Thread struct {
	// ID is the opaque VM-assigned isolate id.
	ID string
	// Number is exposed to the client as the protocol thread id.
	Number int
	// Ref is the isolate reference from the registering event.
	Ref *types.IsolateRef

	vm        vmservice.Service
	converter URIConverter

	// registered is closed once the isolate has completed startup
	// configuration. Handlers needing a configured isolate wait on it.
	registered   chan struct{}
	registerOnce sync.Once

	// tasks serializes event handling for this isolate.
	tasks *ActionQueue

	mu                sync.Mutex
	runnable          bool
	paused            bool
	atAsyncSuspension bool
	startupHandled    bool
	hasPendingResume  bool
	pauseEvent        *types.Event
	exception         *types.InstanceRef

	scriptGroup singleflight.Group
	scriptMu    sync.Mutex
	scripts     map[string]*types.Object

	resolveMu sync.Mutex
	resolved  map[string]*uriResolution

	debuggableMu sync.Mutex
	// libraryOverrides stores only verdicts differing from the computed
	// default, bounding memory on isolates with many libraries.
	libraryOverrides map[string]bool
}

func newThread(ref *types.IsolateRef, number int, vm vmservice.Service, converter URIConverter) *Thread {
	return &Thread{
		ID:               ref.ID,
		Number:           number,
		Ref:              ref,
		vm:               vm,
		converter:        converter,
		registered:       make(chan struct{}),
		tasks:            NewActionQueue(nil),
		scripts:          make(map[string]*types.Object),
		resolved:         make(map[string]*uriResolution),
		libraryOverrides: make(map[string]bool),
	}
}

// Registered returns the registration gate, closed once the isolate has
// been configured.
func (t *Thread) Registered() <-chan struct{} {
	return t.registered
}

func (t *Thread) completeRegistration() {
	t.registerOnce.Do(func() { close(t.registered) })
}

// markRunnable flips the runnable flag and reports whether this call made
// the transition.
func (t *Thread) markRunnable() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.runnable {
		return false
	}
	t.runnable = true
	return true
}

// Runnable reports whether the isolate has completed startup configuration.
func (t *Thread) Runnable() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.runnable
}

// Paused reports whether the isolate is currently paused.
func (t *Thread) Paused() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.paused
}

// AtAsyncSuspension reports whether the current pause is at an async
// suspension point.
func (t *Thread) AtAsyncSuspension() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.atAsyncSuspension
}

// PauseEvent returns the last pause event processed for this isolate.
func (t *Thread) PauseEvent() *types.Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pauseEvent
}

// Exception returns the raised value if the isolate is stopped on an
// exception.
func (t *Thread) Exception() *types.InstanceRef {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.exception
}

func (t *Thread) recordPause(event *types.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.paused = true
	t.atAsyncSuspension = event.AtAsyncSuspension
	t.pauseEvent = event
	if event.Kind == types.EventPauseException {
		t.exception = event.Exception
	}
}

func (t *Thread) clearPause() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.paused = false
	t.atAsyncSuspension = false
	t.pauseEvent = nil
	t.exception = nil
}

// markStartupHandled reports whether this call was the first to handle the
// start pause, guarding against double auto-resume.
func (t *Thread) markStartupHandled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.startupHandled {
		return false
	}
	t.startupHandled = true
	return true
}

// beginResume claims the right to issue a resume call. It fails when the
// isolate is not paused or a resume is already in flight. stepUpgrade is
// applied to the requested step before the claim is judged.
func (t *Thread) beginResume(step types.StepKind) (types.StepKind, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.paused || t.hasPendingResume {
		return step, false
	}
	if step == types.StepOver && t.atAsyncSuspension {
		step = types.StepOverAsyncSuspension
	}
	t.hasPendingResume = true
	return step, true
}

func (t *Thread) endResume() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.hasPendingResume = false
}

// Script fetches a script object by id, deduplicating concurrent requests
// and memoizing the result for the life of the isolate.
func (t *Thread) Script(ctx context.Context, scriptID string) (*types.Object, error) {
	t.scriptMu.Lock()
	if obj, ok := t.scripts[scriptID]; ok {
		t.scriptMu.Unlock()
		return obj, nil
	}
	t.scriptMu.Unlock()

	v, err, _ := t.scriptGroup.Do(scriptID, func() (interface{}, error) {
		obj, err := t.vm.GetObject(ctx, t.ID, scriptID, 0, 0)
		if err != nil {
			return nil, err
		}
		t.scriptMu.Lock()
		t.scripts[scriptID] = obj
		t.scriptMu.Unlock()
		return obj, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*types.Object), nil
}

// ResolvePathToVMURI converts a client path to a VM-addressable URI.
func (t *Thread) ResolvePathToVMURI(path string) (string, bool) {
	return t.converter.PathToURI(path)
}

// ResolveVMURIToPath resolves a single VM URI to a client path. An empty
// path with nil error means the URI is not addressable on the client.
func (t *Thread) ResolveVMURIToPath(ctx context.Context, uri string) (string, error) {
	paths, err := t.ResolveVMURIsToPaths(ctx, []string{uri})
	if err != nil {
		return "", err
	}
	return paths[0], nil
}

// ResolveVMURIsToPaths resolves VM URIs to client paths in one batch. The
// cache is shared with the single-URI form: concurrent callers asking for
// the same URI trigger exactly one underlying lookup.
func (t *Thread) ResolveVMURIsToPaths(ctx context.Context, uris []string) ([]string, error) {
	entries := make([]*uriResolution, len(uris))
	var missing []string
	var missingEntries []*uriResolution

	t.resolveMu.Lock()
	for i, uri := range uris {
		if r, ok := t.resolved[uri]; ok {
			entries[i] = r
			continue
		}
		r := &uriResolution{done: make(chan struct{})}
		t.resolved[uri] = r
		entries[i] = r
		missing = append(missing, uri)
		missingEntries = append(missingEntries, r)
	}
	t.resolveMu.Unlock()

	if len(missing) > 0 {
		resolvedURIs, err := t.vm.LookupResolvedPackageURIs(ctx, t.ID, missing)
		for i, r := range missingEntries {
			if err != nil {
				r.err = err
			} else {
				uri := missing[i]
				if i < len(resolvedURIs) && resolvedURIs[i] != "" {
					uri = resolvedURIs[i]
				}
				if path, ok := t.converter.URIToPath(uri); ok {
					r.path = path
				}
			}
			close(r.done)
		}
		if err != nil {
			// Drop failed entries so a later call can retry the lookup.
			t.resolveMu.Lock()
			for i, uri := range missing {
				if t.resolved[uri] == missingEntries[i] {
					delete(t.resolved, uri)
				}
			}
			t.resolveMu.Unlock()
		}
	}

	out := make([]string, len(uris))
	for i, r := range entries {
		select {
		case <-r.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if r.err != nil {
			return nil, r.err
		}
		out[i] = r.path
	}
	return out, nil
}

// LibraryDebuggable returns the last-applied debuggable verdict for a
// library, falling back to the computed default.
func (t *Thread) LibraryDebuggable(libraryID string, def bool) bool {
	t.debuggableMu.Lock()
	defer t.debuggableMu.Unlock()
	if v, ok := t.libraryOverrides[libraryID]; ok {
		return v
	}
	return def
}

// StoreLibraryDebuggable records an applied verdict, storing an override
// only when it differs from the computed default.
func (t *Thread) StoreLibraryDebuggable(libraryID string, value, def bool) {
	t.debuggableMu.Lock()
	defer t.debuggableMu.Unlock()
	if value == def {
		delete(t.libraryOverrides, libraryID)
	} else {
		t.libraryOverrides[libraryID] = value
	}
}
