package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type notFoundError struct {
	kind string
	id   int64
}

func (e notFoundError) Error() string {
	return fmt.Sprintf("%s not found: %d", e.kind, e.id)
}

func errNotFound(kind string, id int64) error {
	return notFoundError{kind: kind, id: id}
}

type invalidIDError struct {
	arg string
}

func (e invalidIDError) Error() string {
	return fmt.Sprintf("invalid employee id: %q (expected a positive integer)", e.arg)
}

func parseEmployeeID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, invalidIDError{arg: s}
	}
	return id, nil
}

// reportedError marks an error that a command already wrote to stderr.
type reportedError struct {
	err error
}

func (e reportedError) Error() string { return e.err.Error() }

func (e reportedError) Unwrap() error { return e.err }

// Reported reports whether err was already printed by the command that
// returned it. Flag and argument errors from cobra are not.
func Reported(err error) bool {
	var r reportedError
	return errors.As(err, &r)
}
