package rcon

import (
	"errors"
	"fmt"
)

// ErrPeerClosed indicates the server closed the stream before a full
// frame was received. It is always wrapped in an IOError.
var ErrPeerClosed = errors.New("connection closed by remote host")

// ConnectionError reports a failure to establish the TCP connection.
type ConnectionError struct {
	Host string
	Port int
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("rcon: failed to connect to %s:%d: %v", e.Host, e.Port, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// IOError reports a read or write failure on an established connection.
// A peer close mid-read wraps ErrPeerClosed.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("rcon: %s failed: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// ProtocolError reports a structural violation: an empty or undecodable
// XOR key, a missing auth token, a message-id mismatch, or a malformed
// JSON body. The session must be discarded once one occurs.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string {
	return "rcon: protocol error: " + e.Reason
}

// CommandError reports a well-formed exchange that returned a non-200
// status. The command name and the server's status line are preserved
// for the caller.
type CommandError struct {
	Command       string
	StatusCode    int
	StatusMessage string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("rcon: %s failed with status %d: %s", e.Command, e.StatusCode, e.StatusMessage)
}

// IsConnectionClosed reports whether err was caused by the peer closing
// the stream mid-read.
func IsConnectionClosed(err error) bool {
	return errors.Is(err, ErrPeerClosed)
}
