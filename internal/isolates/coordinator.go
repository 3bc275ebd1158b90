// Package isolates implements the isolate/session coordination core of the
// debug adapter: it consumes the VM debug event stream, maintains per-isolate
// thread records and breakpoint state, and emits protocol-level thread,
// stopped, breakpoint and output events.
//
// The central hazard is ordering: isolate lifecycle, pause and breakpoint
// events race against each other and against client commands, and isolate
// configuration is itself a multi-step asynchronous sequence. The coordinator
// defends with a per-isolate registration gate, snapshot-then-clear before
// destructive breakpoint work, and flag-guarded idempotent entry points for
// resume and startup handling.
package isolates

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/google/go-dap"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/jnschulze/isodap/internal/config"
	debugerr "github.com/jnschulze/isodap/internal/errors"
	"github.com/jnschulze/isodap/internal/protocol"
	"github.com/jnschulze/isodap/internal/vmservice"
	"github.com/jnschulze/isodap/pkg/types"
)

// Coordinator owns the set of thread records for a session, consumes the VM
// event stream and exposes the client-facing commands: resume, pause, set
// breakpoints, set exception pause mode, stored-data lookup.
type Coordinator struct {
	vm        vmservice.Service
	sender    protocol.Sender
	log       *log.Logger
	sessionID string

	converter    URIConverter
	isDebuggable func(resolvedURI string) bool

	mu              sync.Mutex
	cfg             config.Config
	threadsByID     map[string]*Thread
	threadsByNumber map[int]*Thread
	// knownNumbers grows monotonically: a number seen once stays known for
	// the life of the session, distinguishing "invalid id" from "exited id".
	knownNumbers map[int]bool
	nextNumber   int

	exceptionMode types.ExceptionPauseMode

	// autoResume flips true on the first client resume, marking the
	// transition from attach-time hold to normal operation. Isolates pausing
	// at startup afterwards are resumed without client involvement.
	autoResume bool

	breakpoints *BreakpointStore
	stored      *StoredData
}

// NewCoordinator creates a coordinator for one debug session. A nil config
// uses defaults; a nil logger logs to stderr.
func NewCoordinator(vm vmservice.Service, sender protocol.Sender, cfg *config.Config, logger *log.Logger) *Coordinator {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = log.New(os.Stderr, "", log.LstdFlags)
	}
	mode := cfg.ExceptionPauseMode
	if mode == "" {
		mode = types.ExceptionPauseUnhandled
	}
	c := &Coordinator{
		vm:              vm,
		sender:          sender,
		log:             logger,
		sessionID:       uuid.New().String(),
		converter:       FileURIConverter{},
		cfg:             *cfg,
		threadsByID:     make(map[string]*Thread),
		threadsByNumber: make(map[int]*Thread),
		knownNumbers:    make(map[int]bool),
		exceptionMode:   mode,
		breakpoints:     NewBreakpointStore(),
		stored:          NewStoredData(),
	}
	c.isDebuggable = c.cfg.LibraryFilter()
	return c
}

// SessionID returns the session identifier used in logs.
func (c *Coordinator) SessionID() string {
	return c.sessionID
}

// SetURIConverter swaps the path/URI conversion collaborator. Threads
// created before the call keep the previous converter.
func (c *Coordinator) SetURIConverter(converter URIConverter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.converter = converter
}

// SetLibraryFilter swaps the library-debuggable verdict collaborator.
func (c *Coordinator) SetLibraryFilter(filter func(resolvedURI string) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.isDebuggable = filter
}

// Breakpoints exposes the client breakpoint registry.
func (c *Coordinator) Breakpoints() *BreakpointStore {
	return c.breakpoints
}

// Run consumes the VM event stream until the channel closes or the context
// is cancelled. Events are serialized per isolate and processed concurrently
// across isolates; no cross-isolate ordering is guaranteed or required.
func (c *Coordinator) Run(ctx context.Context, events <-chan *types.Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-events:
			if !ok {
				return nil
			}
			c.dispatchEvent(ctx, event)
		}
	}
}

func (c *Coordinator) dispatchEvent(ctx context.Context, event *types.Event) {
	if event == nil || event.Isolate == nil {
		return
	}

	var thread *Thread
	switch event.Kind {
	case types.EventIsolateStart, types.EventIsolateRunnable:
		var created bool
		thread, created = c.ensureThread(event.Isolate)
		if created {
			c.sendThreadStarted(thread)
		}
	default:
		thread = c.threadByID(event.Isolate.ID)
	}
	if thread == nil {
		return
	}

	thread.tasks.Enqueue(func() {
		if err := c.processEvent(ctx, thread, event); err != nil {
			c.log.Printf("isolate %s: handling %s failed: %v", thread.ID, event.Kind, err)
		}
	})
}

func (c *Coordinator) processEvent(ctx context.Context, thread *Thread, event *types.Event) error {
	switch event.Kind {
	case types.EventIsolateStart:
		return nil
	case types.EventIsolateRunnable:
		return c.makeRunnable(ctx, thread)
	default:
		return c.handleThreadEvent(ctx, thread, event)
	}
}

// HandleEvent processes one VM event synchronously. It is safe for
// concurrent use: handlers for events that arrive before their isolate
// becomes runnable block on the registration gate until a concurrent
// handler processes the runnable event (or the context is cancelled).
//
// Embedders driving events through Run do not call this directly.
func (c *Coordinator) HandleEvent(ctx context.Context, event *types.Event) error {
	if event == nil || event.Isolate == nil {
		return nil
	}

	switch event.Kind {
	case types.EventIsolateStart, types.EventIsolateRunnable:
		_, err := c.RegisterIsolate(ctx, event.Isolate, event.Kind)
		return err
	}

	thread := c.threadByID(event.Isolate.ID)
	if thread == nil {
		return nil
	}
	select {
	case <-thread.Registered():
	case <-ctx.Done():
		return ctx.Err()
	}
	return c.handleThreadEvent(ctx, thread, event)
}

// RegisterIsolate is idempotent: the first call for an isolate id creates
// its thread record and emits thread-started exactly once. When the event
// kind indicates the isolate became runnable, the isolate is configured and
// the registration gate released; later calls are no-ops beyond returning
// the cached record.
func (c *Coordinator) RegisterIsolate(ctx context.Context, ref *types.IsolateRef, kind types.EventKind) (*Thread, error) {
	thread, created := c.ensureThread(ref)
	if created {
		c.sendThreadStarted(thread)
	}
	if kind == types.EventIsolateRunnable {
		if err := c.makeRunnable(ctx, thread); err != nil {
			return thread, err
		}
	}
	return thread, nil
}

// ensureThread returns the record for an isolate, creating it (and its
// registration gate) before any asynchronous work can begin. The isolate
// number joins the known set forever.
func (c *Coordinator) ensureThread(ref *types.IsolateRef) (*Thread, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if thread, ok := c.threadsByID[ref.ID]; ok {
		return thread, false
	}

	number := ref.Number
	if number == 0 {
		c.nextNumber++
		number = c.nextNumber
	} else if number > c.nextNumber {
		c.nextNumber = number
	}

	thread := newThread(ref, number, c.vm, c.converter)
	c.threadsByID[ref.ID] = thread
	c.threadsByNumber[number] = thread
	c.knownNumbers[number] = true
	return thread, true
}

func (c *Coordinator) makeRunnable(ctx context.Context, thread *Thread) error {
	if !thread.markRunnable() {
		return nil
	}
	// Release the gate even on a failed configuration; a stuck gate would
	// wedge every later event for this isolate.
	defer thread.completeRegistration()
	return c.configureIsolate(ctx, thread)
}

func (c *Coordinator) handleThreadEvent(ctx context.Context, thread *Thread, event *types.Event) error {
	switch {
	case event.Kind == types.EventIsolateExit:
		c.handleExit(thread)
	case event.Kind.IsPauseKind():
		return c.handlePause(ctx, thread, event)
	case event.Kind == types.EventResume:
		thread.clearPause()
	case event.Kind == types.EventInspect:
		c.handleInspect(ctx, thread, event)
	case event.Kind == types.EventBreakpointAdded, event.Kind == types.EventBreakpointResolved:
		c.handleBreakpointResolution(event)
	}
	// Unknown kinds are ignored.
	return nil
}

func (c *Coordinator) handleExit(thread *Thread) {
	c.mu.Lock()
	delete(c.threadsByID, thread.ID)
	delete(c.threadsByNumber, thread.Number)
	// thread.Number stays in knownNumbers.
	c.mu.Unlock()

	c.breakpoints.RemoveIsolate(thread.ID)
	c.stored.ReleaseThread(thread)
	c.sendThreadExited(thread)
}

// handlePause applies the pause protocol: record the pause, then branch on
// the specific kind.
func (c *Coordinator) handlePause(ctx context.Context, thread *Thread, event *types.Event) error {
	thread.recordPause(event)

	switch event.Kind {
	case types.EventPausePostRequest:
		// Restart wiped the isolate's debug state; reconfigure before any
		// resume so breakpoints and debuggable flags are in place again.
		if err := c.configureIsolate(ctx, thread); err != nil {
			return err
		}
		if c.autoResuming() {
			return c.resumeInternal(ctx, thread, types.StepNone)
		}
	case types.EventPauseStart:
		if thread.markStartupHandled() {
			if c.autoResuming() {
				return c.resumeInternal(ctx, thread, types.StepNone)
			}
			c.sendStopped(thread, "entry", "", nil)
		}
	case types.EventPauseBreakpoint:
		return c.handleBreakpointPause(ctx, thread, event)
	case types.EventPauseException:
		text := c.displayText(ctx, thread, event.Exception)
		c.sendStopped(thread, "exception", text, nil)
	default:
		c.sendStopped(thread, "pause", "", nil)
	}
	return nil
}

func (c *Coordinator) handleBreakpointPause(ctx context.Context, thread *Thread, event *types.Event) error {
	if len(event.PauseBreakpoints) == 0 {
		// A breakpoint pause with no location info is a step completion.
		c.sendStopped(thread, "step", "", nil)
		return nil
	}

	// Map the hit VM breakpoint ids to client breakpoints. When several
	// client breakpoints share a VM id, the first registered one wins for
	// condition and log-message evaluation. Unmapped ids contribute nothing.
	var hit []*ClientBreakpoint
	seen := make(map[int]bool)
	for _, vmBp := range event.PauseBreakpoints {
		clients := c.breakpoints.ClientsForVMID(vmBp.ID)
		if len(clients) == 0 {
			continue
		}
		bp := clients[0]
		if !seen[bp.ID] {
			seen[bp.ID] = true
			hit = append(hit, bp)
		}
	}

	var logPoints, real []*ClientBreakpoint
	for _, bp := range hit {
		if bp.IsLogPoint() {
			logPoints = append(logPoints, bp)
		} else {
			real = append(real, bp)
		}
	}

	// Log points print without halting; a condition, when present, gates
	// the print the same way it gates a stop.
	for _, bp := range logPoints {
		if bp.Source.Condition != "" && !c.evaluateCondition(ctx, thread, bp.Source.Condition) {
			continue
		}
		message := c.formatLogMessage(ctx, thread, bp.Source.LogMessage)
		c.sendOutput(message+"\n", 0)
	}

	var hitIDs []int
	for _, bp := range real {
		if bp.Source.Condition == "" || c.evaluateCondition(ctx, thread, bp.Source.Condition) {
			hitIDs = append(hitIDs, bp.ID)
		}
	}
	if len(hitIDs) == 0 {
		// Nothing wants to stop here; resume silently.
		return c.resumeInternal(ctx, thread, types.StepNone)
	}

	c.sendStopped(thread, "breakpoint", "", hitIDs)
	return nil
}

// evaluateCondition evaluates a breakpoint condition in the top frame.
// Truthy means boolean true or a non-zero number; every other outcome,
// including an evaluation failure, counts as not truthy.
func (c *Coordinator) evaluateCondition(ctx context.Context, thread *Thread, condition string) bool {
	result, err := c.vm.EvaluateInFrame(ctx, thread.ID, 0, condition, true)
	if err != nil {
		c.sendOutput(fmt.Sprintf("Debugger failed to evaluate breakpoint condition %q: %v\n", condition, err), 0)
		return false
	}
	return isTruthy(result)
}

func isTruthy(ref *types.InstanceRef) bool {
	if ref == nil {
		return false
	}
	switch ref.Kind {
	case types.InstanceKindBool:
		return ref.ValueAsString == "true"
	case types.InstanceKindInt:
		n, err := strconv.ParseInt(ref.ValueAsString, 10, 64)
		return err == nil && n != 0
	case types.InstanceKindDouble:
		f, err := strconv.ParseFloat(ref.ValueAsString, 64)
		return err == nil && f != 0
	}
	return false
}

// formatLogMessage interpolates a log-point message, evaluating {expr}
// placeholders in the top frame. Per-expression failures become inline
// error text carrying the original expression; they never abort siblings.
func (c *Coordinator) formatLogMessage(ctx context.Context, thread *Thread, message string) string {
	var sb strings.Builder
	for _, seg := range parseLogMessage(message) {
		if !seg.expr {
			sb.WriteString(seg.text)
			continue
		}
		result, err := c.vm.EvaluateInFrame(ctx, thread.ID, 0, seg.text, true)
		if err != nil {
			sb.WriteString(fmt.Sprintf("<error evaluating %q: %v>", seg.text, err))
			continue
		}
		sb.WriteString(c.displayText(ctx, thread, result))
	}
	return sb.String()
}

// displayText resolves a value reference to display text, fetching the full
// object when the inline string was truncated. Lookup failures fall back to
// whatever the reference carried.
func (c *Coordinator) displayText(ctx context.Context, thread *Thread, ref *types.InstanceRef) string {
	if ref == nil {
		return ""
	}
	if !ref.ValueTruncated {
		return ref.ValueAsString
	}
	obj, err := c.vm.GetObject(ctx, thread.ID, ref.ID, 0, 0)
	if err != nil {
		if !vmservice.IsCollected(err) {
			c.log.Printf("isolate %s: fetching %s failed: %v", thread.ID, ref.ID, err)
		}
		return ref.ValueAsString
	}
	return obj.ValueAsString
}

func (c *Coordinator) handleInspect(ctx context.Context, thread *Thread, event *types.Event) {
	ref := event.Inspectee
	if ref == nil {
		return
	}
	handle := c.stored.Store(thread, ref)
	c.sendOutput(c.displayText(ctx, thread, ref)+"\n", handle)
}

// handleBreakpointResolution reacts to a resolved VM breakpoint: remember
// the event by VM id forever (ids can be reused for later client
// breakpoints resolving to the same location) and queue a resolution notice
// onto each mapped client breakpoint, so the client never hears about a
// resolution before the breakpoint's own id.
func (c *Coordinator) handleBreakpointResolution(event *types.Event) {
	bp := event.Breakpoint
	if bp == nil || !bp.Resolved {
		return
	}
	c.breakpoints.RecordResolution(bp.ID, event)
	for _, client := range c.breakpoints.ClientsForVMID(bp.ID) {
		c.queueResolutionNotice(client, event)
	}
}

func (c *Coordinator) queueResolutionNotice(client *ClientBreakpoint, event *types.Event) {
	var line, column int
	if loc := event.Breakpoint.Location; loc != nil {
		line, column = loc.Line, loc.Column
	}
	client.Enqueue(func() {
		c.sender.SendEvent(&dap.BreakpointEvent{
			Event: protocol.NewEvent("breakpoint"),
			Body: dap.BreakpointEventBody{
				Reason: "changed",
				Breakpoint: dap.Breakpoint{
					Id:       client.ID,
					Verified: true,
					Line:     line,
					Column:   column,
				},
			},
		})
	})
}

// configureIsolate applies debuggable flags and the exception pause mode in
// parallel, both strictly before breakpoints: breakpoints in library-scoped
// sources fail to attach while their library is non-debuggable.
func (c *Coordinator) configureIsolate(ctx context.Context, thread *Thread) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.sendLibraryDebuggables(gctx, thread) })
	g.Go(func() error { return c.applyExceptionPauseMode(gctx, thread) })
	if err := g.Wait(); err != nil {
		return err
	}

	for _, uri := range c.breakpoints.URIs() {
		c.sendBreakpointsForURI(ctx, thread, uri)
	}
	return nil
}

// sendLibraryDebuggables batch-resolves the isolate's library URIs,
// computes each library's debuggable verdict, and tells the VM only when
// the verdict changed from the last applied one.
func (c *Coordinator) sendLibraryDebuggables(ctx context.Context, thread *Thread) error {
	isolate, err := c.vm.GetIsolate(ctx, thread.ID)
	if err != nil {
		if vmservice.IsCollected(err) {
			return nil
		}
		return debugerr.VMServiceFailed("getIsolate", err)
	}

	uris := make([]string, len(isolate.Libraries))
	for i, lib := range isolate.Libraries {
		uris[i] = lib.URI
	}
	resolved, err := thread.ResolveVMURIsToPaths(ctx, uris)
	if err != nil {
		if vmservice.IsCollected(err) {
			return nil
		}
		return debugerr.VMServiceFailed("lookupResolvedPackageUris", err)
	}

	c.mu.Lock()
	isDebuggable := c.isDebuggable
	c.mu.Unlock()

	for i, lib := range isolate.Libraries {
		def := !config.IsSDKLibrary(lib.URI)
		target := resolved[i]
		if target == "" {
			target = lib.URI
		}
		want := isDebuggable(target)
		if want == thread.LibraryDebuggable(lib.ID, def) {
			continue
		}
		if err := c.vm.SetLibraryDebuggable(ctx, thread.ID, lib.ID, want); err != nil {
			if vmservice.IsMethodNotFound(err) {
				c.log.Printf("isolate %s: setLibraryDebuggable not supported by this VM backend", thread.ID)
				return nil
			}
			if vmservice.IsCollected(err) {
				return nil
			}
			return debugerr.VMServiceFailed("setLibraryDebuggable", err)
		}
		thread.StoreLibraryDebuggable(lib.ID, want, def)
	}
	return nil
}

func (c *Coordinator) applyExceptionPauseMode(ctx context.Context, thread *Thread) error {
	c.mu.Lock()
	mode := c.exceptionMode
	c.mu.Unlock()

	if err := c.vm.SetIsolatePauseMode(ctx, thread.ID, mode); err != nil {
		if vmservice.IsCollected(err) {
			return nil
		}
		return debugerr.VMServiceFailed("setIsolatePauseMode", err)
	}
	return nil
}

// SetBreakpoints replaces the full breakpoint list for a source URI and
// pushes it to every live isolate. The returned client breakpoints carry
// their assigned ids; the caller must MarkPublished each one after the ids
// have been returned to the client, releasing queued resolution notices.
func (c *Coordinator) SetBreakpoints(ctx context.Context, uri string, sources []dap.SourceBreakpoint) []*ClientBreakpoint {
	bps := c.breakpoints.SetForURI(uri, sources)
	for _, thread := range c.liveThreads() {
		c.sendBreakpointsForURI(ctx, thread, uri)
	}
	return bps
}

// ClearAllBreakpoints empties every URI's list, keeping the URI keys so
// future isolates still receive an empty push, and pushes to all isolates.
func (c *Coordinator) ClearAllBreakpoints(ctx context.Context) {
	c.breakpoints.ClearAll()
	for _, thread := range c.liveThreads() {
		for _, uri := range c.breakpoints.URIs() {
			c.sendBreakpointsForURI(ctx, thread, uri)
		}
	}
}

// sendBreakpointsForURI pushes the current breakpoint list for one URI to
// one isolate. The existing VM record is snapshotted and cleared before any
// removal call, so a concurrent duplicate push cannot double-remove; both
// removal and addition are best-effort, since the isolate may exit at any
// point during the sequence.
func (c *Coordinator) sendBreakpointsForURI(ctx context.Context, thread *Thread, uri string) {
	existing := c.breakpoints.SnapshotAndClearVM(thread.ID, uri)
	for vmID := range existing {
		if err := c.vm.RemoveBreakpoint(ctx, thread.ID, vmID); err != nil {
			c.log.Printf("isolate %s: removing breakpoint %s failed: %v", thread.ID, vmID, err)
		}
	}

	for _, client := range c.breakpoints.ForURI(uri) {
		vmURI, ok := c.vmURIFor(thread, client.URI)
		if !ok {
			continue
		}
		vmBp, err := c.vm.AddBreakpointWithScriptURI(ctx, thread.ID, vmURI, client.Source.Line, client.Source.Column)
		if err != nil {
			c.log.Printf("isolate %s: adding breakpoint at %s:%d failed: %v", thread.ID, uri, client.Source.Line, err)
			continue
		}
		c.breakpoints.RecordVM(thread.ID, uri, vmBp, client)
		// A resolution for this VM id may predate this client breakpoint;
		// replay it so the client still hears about it, in order.
		if resolution := c.breakpoints.ResolutionFor(vmBp.ID); resolution != nil {
			c.queueResolutionNotice(client, resolution)
		}
	}
}

// vmURIFor converts a client-side source identifier (path or URI) to a
// VM-addressable URI.
func (c *Coordinator) vmURIFor(thread *Thread, clientURI string) (string, bool) {
	if strings.Contains(clientURI, "://") || strings.HasPrefix(clientURI, "dart:") {
		return clientURI, true
	}
	return thread.ResolvePathToVMURI(clientURI)
}

// ResumeThread resumes a paused thread, optionally stepping. The first call
// of the session flips the auto-resume flag for isolates that pause at
// startup afterwards. Unknown-but-previously-exited threads are a silent
// no-op; never-seen thread ids are a client-facing error.
func (c *Coordinator) ResumeThread(ctx context.Context, threadID int, step types.StepKind) error {
	c.mu.Lock()
	c.autoResume = true
	thread := c.threadsByNumber[threadID]
	known := c.knownNumbers[threadID]
	c.mu.Unlock()

	if thread == nil {
		if known {
			return nil
		}
		return debugerr.ThreadNotFound(threadID)
	}
	return c.resumeInternal(ctx, thread, step)
}

// resumeInternal issues the resume RPC. It no-ops when the thread is not
// paused or already has a resume in flight. A step-over at an async
// suspension point is upgraded to step-over-async-suspension. All
// stored-data handles owned by the thread are invalidated before the call.
func (c *Coordinator) resumeInternal(ctx context.Context, thread *Thread, step types.StepKind) error {
	step, ok := thread.beginResume(step)
	if !ok {
		return nil
	}
	defer thread.endResume()

	c.stored.ReleaseThread(thread)

	if err := c.vm.Resume(ctx, thread.ID, step); err != nil {
		// Already resumed by someone else, or the isolate is gone; its exit
		// event will clean up.
		if vmservice.IsCannotResume(err) || vmservice.IsIsolateMustBePaused(err) || vmservice.IsCollected(err) {
			return nil
		}
		return debugerr.VMServiceFailed("resume", err)
	}
	return nil
}

// PauseThread interrupts a running thread.
func (c *Coordinator) PauseThread(ctx context.Context, threadID int) error {
	thread, err := c.threadForCommand(threadID)
	if err != nil || thread == nil {
		return err
	}
	if err := c.vm.Pause(ctx, thread.ID); err != nil {
		if vmservice.IsCollected(err) {
			return nil
		}
		return debugerr.VMServiceFailed("pause", err)
	}
	return nil
}

// ReloadSources asks a thread's isolate to hot-reload its sources.
func (c *Coordinator) ReloadSources(ctx context.Context, threadID int) error {
	thread, err := c.threadForCommand(threadID)
	if err != nil || thread == nil {
		return err
	}
	if err := c.vm.ReloadSources(ctx, thread.ID); err != nil {
		if vmservice.IsCollected(err) {
			return nil
		}
		return debugerr.VMServiceFailed("reloadSources", err)
	}
	return nil
}

// threadForCommand resolves a client thread id: (nil, nil) means the thread
// previously exited and the command is a silent no-op.
func (c *Coordinator) threadForCommand(threadID int) (*Thread, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if thread, ok := c.threadsByNumber[threadID]; ok {
		return thread, nil
	}
	if c.knownNumbers[threadID] {
		return nil, nil
	}
	return nil, debugerr.ThreadNotFound(threadID)
}

// SetExceptionPauseMode sets the mode for the session and applies it to
// every live isolate.
func (c *Coordinator) SetExceptionPauseMode(ctx context.Context, mode types.ExceptionPauseMode) error {
	c.mu.Lock()
	c.exceptionMode = mode
	c.mu.Unlock()

	var result *multierror.Error
	for _, thread := range c.liveThreads() {
		if err := c.applyExceptionPauseMode(ctx, thread); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// ApplyDebugOptions replaces the session's debug options and re-applies
// library debuggable verdicts to every live isolate.
func (c *Coordinator) ApplyDebugOptions(ctx context.Context, opts config.DebugOptions) error {
	c.mu.Lock()
	c.cfg.DebugOptions = opts
	c.isDebuggable = c.cfg.LibraryFilter()
	c.mu.Unlock()

	var result *multierror.Error
	for _, thread := range c.liveThreads() {
		if err := c.sendLibraryDebuggables(ctx, thread); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// GetStoredData returns a stored value by handle. Absent means the handle
// was never issued or its owning thread has resumed or exited since.
func (c *Coordinator) GetStoredData(handle int) (interface{}, bool) {
	return c.stored.Get(handle)
}

// StoreData stores a thread-scoped value and returns its handle.
func (c *Coordinator) StoreData(thread *Thread, value interface{}) int {
	return c.stored.Store(thread, value)
}

// ThreadByNumber returns the live thread for a client thread id.
func (c *Coordinator) ThreadByNumber(threadID int) *Thread {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.threadsByNumber[threadID]
}

// IsInvalidThreadID reports whether a thread id was never observed in this
// session. Previously-seen numbers stay valid forever, even after exit.
func (c *Coordinator) IsInvalidThreadID(threadID int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.knownNumbers[threadID]
}

func (c *Coordinator) threadByID(isolateID string) *Thread {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.threadsByID[isolateID]
}

func (c *Coordinator) liveThreads() []*Thread {
	c.mu.Lock()
	defer c.mu.Unlock()
	threads := make([]*Thread, 0, len(c.threadsByID))
	for _, thread := range c.threadsByID {
		threads = append(threads, thread)
	}
	return threads
}

func (c *Coordinator) autoResuming() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.autoResume
}

func (c *Coordinator) sendThreadStarted(thread *Thread) {
	c.sender.SendEvent(&dap.ThreadEvent{
		Event: protocol.NewEvent("thread"),
		Body:  dap.ThreadEventBody{Reason: "started", ThreadId: thread.Number},
	})
}

func (c *Coordinator) sendThreadExited(thread *Thread) {
	c.sender.SendEvent(&dap.ThreadEvent{
		Event: protocol.NewEvent("thread"),
		Body:  dap.ThreadEventBody{Reason: "exited", ThreadId: thread.Number},
	})
}

func (c *Coordinator) sendStopped(thread *Thread, reason, text string, hitBreakpointIDs []int) {
	c.sender.SendEvent(&dap.StoppedEvent{
		Event: protocol.NewEvent("stopped"),
		Body: dap.StoppedEventBody{
			Reason:           reason,
			ThreadId:         thread.Number,
			Text:             text,
			HitBreakpointIds: hitBreakpointIDs,
		},
	})
}

func (c *Coordinator) sendOutput(output string, variablesReference int) {
	c.sender.SendEvent(&dap.OutputEvent{
		Event: protocol.NewEvent("output"),
		Body: dap.OutputEventBody{
			Category:           "console",
			Output:             output,
			VariablesReference: variablesReference,
		},
	})
}
