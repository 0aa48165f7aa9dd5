package citeproc

import (
	"errors"
	"fmt"
)

// Errors returned by the resolution service.
var (
	// ErrUnknownCommand indicates an envelope with an unsupported command.
	ErrUnknownCommand = errors.New("unknown citeproc command")

	// ErrInvalidEnvelope indicates a malformed envelope or payload.
	ErrInvalidEnvelope = errors.New("invalid citeproc envelope")

	// ErrShutdown indicates the transport has been closed.
	ErrShutdown = errors.New("citeproc transport shut down")

	// ErrProviderCrashed indicates the provider process exited.
	ErrProviderCrashed = errors.New("citeproc provider exited")

	// ErrUnsupportedFormat indicates a bibliography file of unknown type.
	ErrUnsupportedFormat = errors.New("unsupported bibliography format")
)

// RPCError is a JSON-RPC error returned by a provider.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// JSON-RPC error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// LoadError reports a bibliography file that could not be read.
type LoadError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *LoadError) Unwrap() error {
	return e.Err
}
