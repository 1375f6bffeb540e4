package lavalink

import "fmt"

// DecodeError reports malformed binary track data. The offending operation
// fails; the connection and player state are untouched.
type DecodeError struct {
	Reason string
}

func (e *DecodeError) Error() string {
	return "lavalink: decode track: " + e.Reason
}

// ValidationError reports an out-of-range or wrong-shape argument to a
// public command. It is returned before any remote call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("lavalink: invalid %s: %s", e.Field, e.Reason)
}

// TransportError reports a socket or REST failure. Socket failures drive
// the node's reconnect path; REST failures surface to the caller of the
// triggering command without altering node state.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("lavalink: transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError reports an unexpected payload shape from the remote node.
// The payload is dropped and the connection stays open.
type ProtocolError struct {
	Op     string
	Reason string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("lavalink: protocol %s: %s", e.Op, e.Reason)
}
