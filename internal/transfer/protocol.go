package transfer

import (
	"errors"
	"fmt"
)

// State is where a session is in the protocol. Failed is terminal.
type State int

const (
	StateIdle State = iota
	StateConnected
	StateManifestSent
	StateManifestReceived
	StateStreaming
	StateComplete
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnected:
		return "connected"
	case StateManifestSent:
		return "manifest_sent"
	case StateManifestReceived:
		return "manifest_received"
	case StateStreaming:
		return "streaming"
	case StateComplete:
		return "complete"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

var (
	// ErrStalled marks a zero-length read. It is the only transient
	// condition in the protocol and is retried inside a single file.
	ErrStalled = errors.New("zero-length read")

	// ErrTruncatedStream means the peer closed the connection before the
	// announced size of the current file arrived.
	ErrTruncatedStream = errors.New("stream ended before announced size")

	// ErrSourceChanged means a local file no longer has the size it was
	// announced with.
	ErrSourceChanged = errors.New("source file size changed since scan")

	ErrAlreadyListening = errors.New("sender already listening")
	ErrNotListening     = errors.New("sender is not listening")
)

// ConnectionError is a bind, accept, connect, read or write failure.
type ConnectionError struct {
	Op   string
	Addr string
	Err  error
}

func (e *ConnectionError) Error() string {
	if e.Addr == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Addr, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// IsFatal reports whether err ends a session. Everything but a stall does.
func IsFatal(err error) bool {
	return err != nil && !errors.Is(err, ErrStalled)
}
