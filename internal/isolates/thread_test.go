package isolates

import (
	"context"
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jnschulze/isodap/pkg/types"
)

func TestFileURIConverter(t *testing.T) {
	var c FileURIConverter

	uri, ok := c.PathToURI("/work/lib/main.dart")
	require.True(t, ok)
	assert.Equal(t, "file:///work/lib/main.dart", uri)

	path, ok := c.URIToPath("file:///work/lib/main.dart")
	require.True(t, ok)
	assert.Equal(t, "/work/lib/main.dart", path)

	_, ok = c.URIToPath("dart:core")
	assert.False(t, ok, "non-file URIs have no client path")

	_, ok = c.PathToURI("")
	assert.False(t, ok)
}

func TestThread_ResolveVMURIsToPaths_BatchesMissing(t *testing.T) {
	vm := &fakeVM{
		lookup: func(uris []string) ([]string, error) {
			out := make([]string, len(uris))
			for i, uri := range uris {
				if uri == "package:foo/foo.dart" {
					out[i] = "file:///work/foo/foo.dart"
				}
			}
			return out, nil
		},
	}
	thread := newThread(&types.IsolateRef{ID: "isolates/1", Number: 1}, 1, vm, FileURIConverter{})

	paths, err := thread.ResolveVMURIsToPaths(context.Background(), []string{
		"package:foo/foo.dart",
		"dart:core",
		"file:///work/lib/main.dart",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"/work/foo/foo.dart", "", "/work/lib/main.dart"}, paths)
	assert.Equal(t, 1, vm.lookups(), "one batch lookup for all missing URIs")

	// Every URI is now cached; a repeat resolves without another lookup.
	path, err := thread.ResolveVMURIToPath(context.Background(), "package:foo/foo.dart")
	require.NoError(t, err)
	assert.Equal(t, "/work/foo/foo.dart", path)
	assert.Equal(t, 1, vm.lookups())
}

func TestThread_ResolveVMURIToPath_ConcurrentCallersShareLookup(t *testing.T) {
	release := make(chan struct{})
	vm := &fakeVM{
		lookup: func(uris []string) ([]string, error) {
			<-release
			out := make([]string, len(uris))
			for i := range uris {
				out[i] = "file:///resolved.dart"
			}
			return out, nil
		},
	}
	thread := newThread(&types.IsolateRef{ID: "isolates/1", Number: 1}, 1, vm, FileURIConverter{})

	const callers = 5
	var wg sync.WaitGroup
	paths := make([]string, callers)
	errs := make([]error, callers)

	wg.Add(1)
	go func() {
		defer wg.Done()
		paths[0], errs[0] = thread.ResolveVMURIToPath(context.Background(), "package:a/a.dart")
	}()
	// Let the first caller claim the in-flight entry before the others join.
	for vm.lookups() == 0 {
		runtime.Gosched()
	}
	for i := 1; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			paths[i], errs[i] = thread.ResolveVMURIToPath(context.Background(), "package:a/a.dart")
		}(i)
	}
	close(release)
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "/resolved.dart", paths[i])
	}
	assert.Equal(t, 1, vm.lookups(), "concurrent callers must share one lookup")
}

func TestThread_ResolveVMURIsToPaths_FailureAllowsRetry(t *testing.T) {
	fail := true
	vm := &fakeVM{
		lookup: func(uris []string) ([]string, error) {
			if fail {
				return nil, assert.AnError
			}
			out := make([]string, len(uris))
			for i := range uris {
				out[i] = "file:///ok.dart"
			}
			return out, nil
		},
	}
	thread := newThread(&types.IsolateRef{ID: "isolates/1", Number: 1}, 1, vm, FileURIConverter{})

	_, err := thread.ResolveVMURIToPath(context.Background(), "package:a/a.dart")
	require.Error(t, err)

	fail = false
	path, err := thread.ResolveVMURIToPath(context.Background(), "package:a/a.dart")
	require.NoError(t, err)
	assert.Equal(t, "/ok.dart", path)
	assert.Equal(t, 2, vm.lookups(), "a failed lookup must not be cached")
}

func TestThread_Script_Memoized(t *testing.T) {
	calls := 0
	vm := &fakeVM{
		getObject: func(isolateID, objectID string) (*types.Object, error) {
			calls++
			return &types.Object{ID: objectID, URI: "file:///main.dart"}, nil
		},
	}
	thread := newThread(&types.IsolateRef{ID: "isolates/1", Number: 1}, 1, vm, FileURIConverter{})

	first, err := thread.Script(context.Background(), "scripts/1")
	require.NoError(t, err)
	second, err := thread.Script(context.Background(), "scripts/1")
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, calls)
}

func TestThread_LibraryDebuggable_DefaultOmitted(t *testing.T) {
	thread := testThread("isolates/1", 1)

	assert.True(t, thread.LibraryDebuggable("libraries/1", true))
	assert.False(t, thread.LibraryDebuggable("libraries/1", false))

	thread.StoreLibraryDebuggable("libraries/1", false, true)
	assert.False(t, thread.LibraryDebuggable("libraries/1", true), "override wins over default")

	// Storing the default again removes the override.
	thread.StoreLibraryDebuggable("libraries/1", true, true)
	assert.True(t, thread.LibraryDebuggable("libraries/1", true))
	assert.False(t, thread.LibraryDebuggable("libraries/1", false))
}

func TestThread_BeginResumeGuards(t *testing.T) {
	thread := testThread("isolates/1", 1)

	_, ok := thread.beginResume(types.StepNone)
	assert.False(t, ok, "not paused")

	thread.recordPause(&types.Event{Kind: types.EventPauseInterrupted})
	step, ok := thread.beginResume(types.StepInto)
	require.True(t, ok)
	assert.Equal(t, types.StepInto, step)

	_, ok = thread.beginResume(types.StepNone)
	assert.False(t, ok, "resume already in flight")

	thread.endResume()
	thread.clearPause()
	_, ok = thread.beginResume(types.StepNone)
	assert.False(t, ok, "no longer paused")
}

func TestThread_BeginResume_StepOverUpgrade(t *testing.T) {
	thread := testThread("isolates/1", 1)
	thread.recordPause(&types.Event{Kind: types.EventPauseInterrupted, AtAsyncSuspension: true})

	step, ok := thread.beginResume(types.StepOver)
	require.True(t, ok)
	assert.Equal(t, types.StepOverAsyncSuspension, step)
	thread.endResume()

	// Other step kinds pass through unchanged.
	step, ok = thread.beginResume(types.StepInto)
	require.True(t, ok)
	assert.Equal(t, types.StepInto, step)
}
