package isolates

import (
	"sync"

	"github.com/google/go-dap"

	"github.com/jnschulze/isodap/pkg/types"
)

// firstClientBreakpointID is the base for coordinator-assigned breakpoint
// ids. Starting high keeps them visually distinct from the small ids the VM
// assigns.
const firstClientBreakpointID = 100000

// ClientBreakpoint is a breakpoint as declared by the client, identified by
// a coordinator-assigned id. It may map to zero or more VM breakpoints
// across isolates.
type ClientBreakpoint struct {
	ID     int
	URI    string
	Source dap.SourceBreakpoint

	published   chan struct{}
	publishOnce sync.Once
	queue       *ActionQueue
}

func newClientBreakpoint(id int, uri string, source dap.SourceBreakpoint) *ClientBreakpoint {
	published := make(chan struct{})
	return &ClientBreakpoint{
		ID:        id,
		URI:       uri,
		Source:    source,
		published: published,
		queue:     NewActionQueue(published),
	}
}

// MarkPublished records that the assigned id has been returned to the
// client, releasing any queued notifications about this breakpoint.
func (b *ClientBreakpoint) MarkPublished() {
	b.publishOnce.Do(func() { close(b.published) })
}

// Enqueue appends a client-visible notification about this breakpoint.
// Notifications run strictly in enqueue order and strictly after
// MarkPublished.
func (b *ClientBreakpoint) Enqueue(action func()) {
	b.queue.Enqueue(action)
}

// Drain blocks until every notification enqueued before the call has been
// delivered. It only returns after MarkPublished.
func (b *ClientBreakpoint) Drain() {
	b.queue.Drain()
}

// IsLogPoint reports whether this breakpoint carries a log message instead
// of halting semantics.
func (b *ClientBreakpoint) IsLogPoint() bool {
	return b.Source.LogMessage != ""
}

// BreakpointStore tracks client breakpoints by URI, the VM breakpoints
// created for them per isolate, the reverse mapping from VM breakpoint id
// to client breakpoints, and resolution events already seen.
type BreakpointStore struct {
	mu     sync.Mutex
	nextID int

	// byURI holds the full client-declared list per source URI. Setting
	// breakpoints for a URI replaces the list wholesale; URI keys persist
	// even when their list becomes empty so new isolates still get a push.
	byURI map[string][]*ClientBreakpoint

	// vmByIsolate indexes VM breakpoints: isolate id -> URI -> VM bp id.
	vmByIsolate map[string]map[string]map[string]*types.Breakpoint

	// clientsByVMID is the reverse mapping, in registration order.
	clientsByVMID map[string][]*ClientBreakpoint

	// resolution remembers resolved-breakpoint events by VM id forever: the
	// VM may reuse an id for a new client breakpoint resolving to the same
	// location, and a resolution can arrive before the client breakpoint
	// that will map to it exists.
	resolution map[string]*types.Event
}

// NewBreakpointStore creates an empty store.
func NewBreakpointStore() *BreakpointStore {
	return &BreakpointStore{
		nextID:        firstClientBreakpointID,
		byURI:         make(map[string][]*ClientBreakpoint),
		vmByIsolate:   make(map[string]map[string]map[string]*types.Breakpoint),
		clientsByVMID: make(map[string][]*ClientBreakpoint),
		resolution:    make(map[string]*types.Event),
	}
}

// SetForURI replaces the remembered breakpoint list for a URI and returns
// the new client breakpoints with their assigned ids. Superseded
// breakpoints keep whatever is in their queues but receive nothing further.
func (s *BreakpointStore) SetForURI(uri string, sources []dap.SourceBreakpoint) []*ClientBreakpoint {
	s.mu.Lock()
	defer s.mu.Unlock()

	bps := make([]*ClientBreakpoint, 0, len(sources))
	for _, src := range sources {
		bp := newClientBreakpoint(s.nextID, uri, src)
		s.nextID++
		bps = append(bps, bp)
	}
	s.byURI[uri] = bps
	return bps
}

// ClearAll empties every URI's list while keeping the URI keys, so future
// isolates still receive an (empty) push for each known URI.
func (s *BreakpointStore) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for uri := range s.byURI {
		s.byURI[uri] = nil
	}
}

// URIs returns every URI the store has ever tracked.
func (s *BreakpointStore) URIs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	uris := make([]string, 0, len(s.byURI))
	for uri := range s.byURI {
		uris = append(uris, uri)
	}
	return uris
}

// ForURI returns the current client breakpoints for a URI, in declaration
// order.
func (s *BreakpointStore) ForURI(uri string) []*ClientBreakpoint {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]*ClientBreakpoint(nil), s.byURI[uri]...)
}

// SnapshotAndClearVM atomically removes and returns the VM breakpoint
// records for an isolate+URI. Clearing before the asynchronous removal
// calls start prevents a concurrent duplicate push from double-removing.
func (s *BreakpointStore) SnapshotAndClearVM(isolateID, uri string) map[string]*types.Breakpoint {
	s.mu.Lock()
	defer s.mu.Unlock()

	byURI := s.vmByIsolate[isolateID]
	if byURI == nil {
		return nil
	}
	existing := byURI[uri]
	delete(byURI, uri)
	for vmID := range existing {
		delete(s.clientsByVMID, vmID)
	}
	return existing
}

// RecordVM indexes a newly created VM breakpoint for an isolate+URI and
// registers the client breakpoint it serves in the reverse mapping.
func (s *BreakpointStore) RecordVM(isolateID, uri string, vmBp *types.Breakpoint, client *ClientBreakpoint) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byURI := s.vmByIsolate[isolateID]
	if byURI == nil {
		byURI = make(map[string]map[string]*types.Breakpoint)
		s.vmByIsolate[isolateID] = byURI
	}
	byID := byURI[uri]
	if byID == nil {
		byID = make(map[string]*types.Breakpoint)
		byURI[uri] = byID
	}
	byID[vmBp.ID] = vmBp
	s.clientsByVMID[vmBp.ID] = append(s.clientsByVMID[vmBp.ID], client)
}

// ClientsForVMID returns the client breakpoints mapped to a VM breakpoint
// id, in registration order.
func (s *BreakpointStore) ClientsForVMID(vmID string) []*ClientBreakpoint {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]*ClientBreakpoint(nil), s.clientsByVMID[vmID]...)
}

// RemoveIsolate drops all VM breakpoint records for an exited isolate.
func (s *BreakpointStore) RemoveIsolate(isolateID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, byID := range s.vmByIsolate[isolateID] {
		for vmID := range byID {
			delete(s.clientsByVMID, vmID)
		}
	}
	delete(s.vmByIsolate, isolateID)
}

// RecordResolution remembers a resolved-breakpoint event by VM id.
func (s *BreakpointStore) RecordResolution(vmID string, event *types.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.resolution[vmID] = event
}

// ResolutionFor returns the remembered resolution event for a VM id, if any.
func (s *BreakpointStore) ResolutionFor(vmID string) *types.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.resolution[vmID]
}
