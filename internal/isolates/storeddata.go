package isolates

import "sync"

type storedEntry struct {
	thread *Thread
	value  interface{}
}

// StoredData maps opaque integer handles to thread-scoped values so they can
// round-trip through the client. Handles issued for a thread become invalid
// in bulk when that thread resumes or exits; any reference the client held
// is meaningless once execution moves on.
type StoredData struct {
	mu         sync.Mutex
	nextHandle int
	entries    map[int]storedEntry
}

// NewStoredData creates an empty table. Handles start at 1 so zero is never
// a valid reference.
func NewStoredData() *StoredData {
	return &StoredData{
		nextHandle: 1,
		entries:    make(map[int]storedEntry),
	}
}

// Store saves a value owned by the given thread and returns its handle.
func (s *StoredData) Store(thread *Thread, value interface{}) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	handle := s.nextHandle
	s.nextHandle++
	s.entries[handle] = storedEntry{thread: thread, value: value}
	return handle
}

// Get returns the value for a handle, or false if the handle was never
// issued or has been invalidated.
func (s *StoredData) Get(handle int) (interface{}, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[handle]
	if !ok {
		return nil, false
	}
	return entry.value, true
}

// ReleaseThread invalidates every handle owned by the given thread.
func (s *StoredData) ReleaseThread(thread *Thread) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for handle, entry := range s.entries {
		if entry.thread == thread {
			delete(s.entries, handle)
		}
	}
}
