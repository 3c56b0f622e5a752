package tui

import (
	"orgtree/internal/dnd"
	"orgtree/internal/model"
	"orgtree/internal/syncctl"
)

type toastKind int

const (
	toastInfo toastKind = iota
	toastSuccess
	toastError
)

// treeFetchedMsg carries the result of a tree read. seq guards against a slow
// read landing after a newer one.
type treeFetchedMsg struct {
	seq  int
	tree *model.Tree
	err  error
}

type reparentDoneMsg struct {
	req    dnd.Request
	result syncctl.Result
	err    error
}

type notifyMsg struct {
	n syncctl.Notification
}

type toastDoneMsg struct {
	seq int
}

// row is one rendered card in the flattened tree.
type row struct {
	emp    model.Employee
	depth  int
	prefix string
}
