package uniprot

import (
	"errors"
	"fmt"
)

// ErrRetriesExhausted is returned (wrapped) when every attempt of a request
// failed. The result of such a call must not be used.
var ErrRetriesExhausted = errors.New("retries exhausted")

// StatusError is a non-2xx answer from the service. It is one kind of
// transient failure and is retried like a network error.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.Code)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// MalformedResponseError means the service answered but the payload is not
// what was asked for. Never retried.
type MalformedResponseError struct {
	Msg string
	Err error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed response: %s: %v", e.Msg, e.Err)
	}
	return fmt.Sprintf("malformed response: %s", e.Msg)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// FilesystemError covers destination files that cannot be removed, created
// or written. Never retried.
type FilesystemError struct {
	Path string
	Err  error
}

func (e *FilesystemError) Error() string {
	return fmt.Sprintf("filesystem error on %s: %v", e.Path, e.Err)
}

func (e *FilesystemError) Unwrap() error { return e.Err }
