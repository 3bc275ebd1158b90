package isolates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jnschulze/isodap/pkg/types"
)

func testThread(id string, number int) *Thread {
	return newThread(&types.IsolateRef{ID: id, Number: number}, number, &fakeVM{}, FileURIConverter{})
}

func TestStoredData_RoundTrip(t *testing.T) {
	s := NewStoredData()
	thread := testThread("isolates/1", 1)

	h1 := s.Store(thread, "first")
	h2 := s.Store(thread, "second")
	assert.NotZero(t, h1, "zero is never a valid handle")
	assert.NotEqual(t, h1, h2)

	v, ok := s.Get(h1)
	require.True(t, ok)
	assert.Equal(t, "first", v)
}

func TestStoredData_GetUnknownHandle(t *testing.T) {
	s := NewStoredData()
	_, ok := s.Get(0)
	assert.False(t, ok)
	_, ok = s.Get(99)
	assert.False(t, ok)
}

func TestStoredData_ReleaseThreadIsScoped(t *testing.T) {
	s := NewStoredData()
	t1 := testThread("isolates/1", 1)
	t2 := testThread("isolates/2", 2)

	h1 := s.Store(t1, "one")
	h2 := s.Store(t2, "two")

	s.ReleaseThread(t1)

	_, ok := s.Get(h1)
	assert.False(t, ok, "released thread's handles must be invalid")
	v, ok := s.Get(h2)
	require.True(t, ok, "other threads' handles survive")
	assert.Equal(t, "two", v)
}

func TestStoredData_HandlesNotReusedAfterRelease(t *testing.T) {
	s := NewStoredData()
	thread := testThread("isolates/1", 1)

	h1 := s.Store(thread, "old")
	s.ReleaseThread(thread)
	h2 := s.Store(thread, "new")

	assert.NotEqual(t, h1, h2, "a stale client handle must never alias a new value")
}
