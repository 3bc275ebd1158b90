package isolates

import (
	"context"
	"fmt"
	"sync"

	"github.com/jnschulze/isodap/pkg/types"
)

type resumeCall struct {
	isolateID string
	step      types.StepKind
}

type addBreakpointCall struct {
	isolateID string
	scriptURI string
	line      int
	column    int
}

type removeBreakpointCall struct {
	isolateID    string
	breakpointID string
}

type libraryDebuggableCall struct {
	isolateID  string
	libraryID  string
	debuggable bool
}

type getObjectCall struct {
	objectID string
	offset   int
	count    int
}

// fakeVM is a scriptable vmservice.Service. Zero value behaves like a VM
// with one library-less isolate that accepts every call.
type fakeVM struct {
	mu sync.Mutex

	resumeCalls  []resumeCall
	pauseCalls   []string
	addCalls     []addBreakpointCall
	removeCalls  []removeBreakpointCall
	libraryCalls []libraryDebuggableCall
	pauseModes   []types.ExceptionPauseMode
	lookupCalls  int
	reloadCalls  []string
	objectCalls  []getObjectCall

	nextVMBreakpoint int

	// Hooks override default behavior when set.
	evaluate      func(expression string) (*types.InstanceRef, error)
	addBreakpoint func(isolateID, scriptURI string, line, column int) (*types.Breakpoint, error)
	getIsolate    func(isolateID string) (*types.Isolate, error)
	getObject     func(isolateID, objectID string) (*types.Object, error)
	lookup        func(uris []string) ([]string, error)
	resumeErr     error
	removeErr     error
}

func (f *fakeVM) GetObject(ctx context.Context, isolateID, objectID string, offset, count int) (*types.Object, error) {
	f.mu.Lock()
	f.objectCalls = append(f.objectCalls, getObjectCall{objectID, offset, count})
	hook := f.getObject
	f.mu.Unlock()
	if hook != nil {
		return hook(isolateID, objectID)
	}
	return &types.Object{ID: objectID}, nil
}

func (f *fakeVM) Resume(ctx context.Context, isolateID string, step types.StepKind) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resumeCalls = append(f.resumeCalls, resumeCall{isolateID, step})
	return f.resumeErr
}

func (f *fakeVM) Pause(ctx context.Context, isolateID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pauseCalls = append(f.pauseCalls, isolateID)
	return nil
}

func (f *fakeVM) EvaluateInFrame(ctx context.Context, isolateID string, frameIndex int, expression string, disableBreakpoints bool) (*types.InstanceRef, error) {
	f.mu.Lock()
	hook := f.evaluate
	f.mu.Unlock()
	if hook != nil {
		return hook(expression)
	}
	return &types.InstanceRef{Kind: types.InstanceKindNull, ValueAsString: "null"}, nil
}

func (f *fakeVM) AddBreakpointWithScriptURI(ctx context.Context, isolateID, scriptURI string, line, column int) (*types.Breakpoint, error) {
	f.mu.Lock()
	f.addCalls = append(f.addCalls, addBreakpointCall{isolateID, scriptURI, line, column})
	hook := f.addBreakpoint
	f.nextVMBreakpoint++
	id := fmt.Sprintf("breakpoints/%d", f.nextVMBreakpoint)
	f.mu.Unlock()
	if hook != nil {
		return hook(isolateID, scriptURI, line, column)
	}
	return &types.Breakpoint{ID: id, Location: &types.SourceLocation{Line: line, Column: column}}, nil
}

func (f *fakeVM) RemoveBreakpoint(ctx context.Context, isolateID, breakpointID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removeCalls = append(f.removeCalls, removeBreakpointCall{isolateID, breakpointID})
	return f.removeErr
}

func (f *fakeVM) SetIsolatePauseMode(ctx context.Context, isolateID string, mode types.ExceptionPauseMode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pauseModes = append(f.pauseModes, mode)
	return nil
}

func (f *fakeVM) SetLibraryDebuggable(ctx context.Context, isolateID, libraryID string, debuggable bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.libraryCalls = append(f.libraryCalls, libraryDebuggableCall{isolateID, libraryID, debuggable})
	return nil
}

func (f *fakeVM) GetIsolate(ctx context.Context, isolateID string) (*types.Isolate, error) {
	f.mu.Lock()
	hook := f.getIsolate
	f.mu.Unlock()
	if hook != nil {
		return hook(isolateID)
	}
	return &types.Isolate{ID: isolateID}, nil
}

func (f *fakeVM) LookupResolvedPackageURIs(ctx context.Context, isolateID string, uris []string) ([]string, error) {
	f.mu.Lock()
	f.lookupCalls++
	hook := f.lookup
	f.mu.Unlock()
	if hook != nil {
		return hook(uris)
	}
	return make([]string, len(uris)), nil
}

func (f *fakeVM) ReloadSources(ctx context.Context, isolateID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reloadCalls = append(f.reloadCalls, isolateID)
	return nil
}

func (f *fakeVM) resumes() []resumeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]resumeCall(nil), f.resumeCalls...)
}

func (f *fakeVM) adds() []addBreakpointCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]addBreakpointCall(nil), f.addCalls...)
}

func (f *fakeVM) removes() []removeBreakpointCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]removeBreakpointCall(nil), f.removeCalls...)
}

func (f *fakeVM) libraries() []libraryDebuggableCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]libraryDebuggableCall(nil), f.libraryCalls...)
}

func (f *fakeVM) lookups() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lookupCalls
}

func (f *fakeVM) objects() []getObjectCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]getObjectCall(nil), f.objectCalls...)
}
