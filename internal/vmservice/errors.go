package vmservice

import (
	"errors"
	"fmt"
)

// ErrCollected is returned by lookups whose target object no longer exists:
// the VM reported a collected/expired sentinel, or the isolate itself is
// gone. The coordinator swallows this class and lets the isolate's exit
// event perform cleanup.
var ErrCollected = errors.New("referenced object no longer exists")

// RPC error codes distinguished by the coordinator. Method-not-found follows
// the JSON-RPC convention; the rest mirror common VM-service codes.
const (
	CodeMethodNotFound      = -32601
	CodeIsolateMustBePaused = 106
	CodeCannotResume        = 107
	CodeServiceDisappeared  = 112
)

// RPCError is a failure reported by the VM service with a numeric code.
type RPCError struct {
	Code    int
	Message string
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("vm service error %d: %s", e.Code, e.Message)
}

func hasCode(err error, code int) bool {
	var rpcErr *RPCError
	return errors.As(err, &rpcErr) && rpcErr.Code == code
}

// IsMethodNotFound reports whether the VM backend lacks the invoked RPC.
func IsMethodNotFound(err error) bool {
	return hasCode(err, CodeMethodNotFound)
}

// IsIsolateMustBePaused reports a precondition failure meaning another actor
// already resumed (or never paused) the isolate.
func IsIsolateMustBePaused(err error) bool {
	return hasCode(err, CodeIsolateMustBePaused)
}

// IsCannotResume reports that the isolate was already resumed by someone
// else, or cannot be resumed in its current state.
func IsCannotResume(err error) bool {
	return hasCode(err, CodeCannotResume)
}

// IsServiceDisappeared reports that the service connection for the isolate
// went away, typically because the isolate exited.
func IsServiceDisappeared(err error) bool {
	return hasCode(err, CodeServiceDisappeared)
}

// IsCollected reports a collected/expired object or a vanished isolate.
func IsCollected(err error) bool {
	return errors.Is(err, ErrCollected) || IsServiceDisappeared(err)
}
