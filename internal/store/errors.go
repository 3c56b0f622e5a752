package store

import "net/http"

// Error is a rule violation reported by the store. Detail is the message shown
// to the user as-is; Status is the HTTP status the API answers with.
type Error struct {
	Status int
	Detail string
}

func (e *Error) Error() string { return e.Detail }

var (
	ErrEmployeeNotFound = &Error{Status: http.StatusNotFound, Detail: "Employee not found"}
	ErrManagerNotFound  = &Error{Status: http.StatusNotFound, Detail: "Manager not found"}
	ErrNoRoot           = &Error{Status: http.StatusNotFound, Detail: "No root manager found"}
	ErrTopLevelExists   = &Error{Status: http.StatusBadRequest, Detail: "There is already a top-level manager. Demote them first."}
	ErrCycle            = &Error{Status: http.StatusBadRequest, Detail: "This change would create a cycle in the hierarchy"}
)
