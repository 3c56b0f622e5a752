// Package syncctl sends reparent requests to the hierarchy store and keeps the
// displayed tree consistent with the outcome.
//
// On success the cached tree is invalidated so the next read refetches it. On
// failure nothing is touched: the displayed tree stays exactly as it was and
// the store's detail message is shown instead.
package syncctl

import (
	"context"
	"errors"

	"orgtree/internal/client"
	"orgtree/internal/dnd"
	"orgtree/internal/treecache"

	"go.uber.org/zap"
)

// Updater is the write side of the hierarchy store.
type Updater interface {
	UpdateManager(ctx context.Context, employeeID int64, managerID *int64) (string, error)
}

// Invalidator marks cached snapshots stale. It is the only cache operation
// the controller may perform.
type Invalidator interface {
	Invalidate(key string)
}

// Result describes an accepted reparent.
type Result struct {
	EmployeeID int64
	ManagerID  int64
	Message    string
}

// Controller issues reparent requests. Requests are not queued or
// deduplicated; concurrent calls race and the refetch after each success
// reconciles the view.
type Controller struct {
	store  Updater
	cache  Invalidator
	notify Notifier
	log    *zap.Logger
}

// New returns a controller. A nil notifier or logger is replaced by a no-op.
func New(store Updater, cache Invalidator, notify Notifier, log *zap.Logger) *Controller {
	if notify == nil {
		notify = &Recorder{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{store: store, cache: cache, notify: notify, log: log}
}

// Submit sends a request emitted by a drop.
func (c *Controller) Submit(ctx context.Context, req dnd.Request) (Result, error) {
	return c.SubmitReparent(ctx, req.EmployeeID, req.ManagerID)
}

// SubmitReparent asks the store to make managerID the manager of employeeID.
//
// Errors are always *client.RequestError and have already been reported
// through the notifier when SubmitReparent returns.
func (c *Controller) SubmitReparent(ctx context.Context, employeeID, managerID int64) (Result, error) {
	log := c.log.With(zap.Int64("employee_id", employeeID), zap.Int64("manager_id", managerID))

	mgr := managerID
	msg, err := c.store.UpdateManager(ctx, employeeID, &mgr)
	if err != nil {
		re := asRequestError(err)
		log.Info("reparent rejected", zap.Int("status", re.Status), zap.String("detail", re.Detail))
		c.notify.Error(re.Detail)
		return Result{}, re
	}

	// Invalidate before reporting success so whoever reacts to the result
	// reads a stale entry and refetches.
	c.cache.Invalidate(treecache.KeyEmployeeTree)
	log.Info("reparent accepted", zap.String("message", msg))
	c.notify.Success(msg)
	return Result{EmployeeID: employeeID, ManagerID: managerID, Message: msg}, nil
}

func asRequestError(err error) *client.RequestError {
	var re *client.RequestError
	if errors.As(err, &re) {
		return re
	}
	return &client.RequestError{Detail: err.Error(), Err: err}
}
