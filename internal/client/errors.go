package client

import (
	"fmt"
	"strings"
)

// FetchError means the hierarchy could not be retrieved. Callers show a
// blocking error state instead of any older tree.
type FetchError struct {
	Status int
	Detail string
	Err    error
}

func (e *FetchError) Error() string {
	switch {
	case e.Err != nil && e.Status != 0:
		return fmt.Sprintf("fetch tree: status %d: %v", e.Status, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("fetch tree: %v", e.Err)
	case strings.TrimSpace(e.Detail) != "":
		return fmt.Sprintf("fetch tree: status %d: %s", e.Status, e.Detail)
	default:
		return fmt.Sprintf("fetch tree: status %d", e.Status)
	}
}

func (e *FetchError) Unwrap() error { return e.Err }

// RequestError means the store rejected or failed to process a reparent
// request. Detail is the store's message verbatim, or a transport-level
// message when there was no usable response.
type RequestError struct {
	Status int
	Detail string
	Err    error
}

// Error returns Detail unchanged so it can be shown to the user as is.
func (e *RequestError) Error() string { return e.Detail }

func (e *RequestError) Unwrap() error { return e.Err }

// Transport reports whether the request failed before any response arrived.
func (e *RequestError) Transport() bool { return e.Status == 0 }
