package cli

import (
	"strings"

	"orgtree/internal/reparent"
	"orgtree/internal/syncctl"
	"orgtree/internal/treecache"

	"github.com/spf13/cobra"
)

func newMoveCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "move <employee-id> <manager-id>",
		Short: "Make one employee report to another",
		Long: strings.TrimSpace(`
Make <manager-id> the manager of <employee-id>, exactly like dropping the
employee's card onto the manager's card in the interactive chart.

Moves onto the employee itself or onto the current manager are not sent
(the output says "sent": false). Everything else goes to the store, which
rejects moves that would create a cycle.
`),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			empID, err := parseEmployeeID(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			mgrID, err := parseEmployeeID(args[1])
			if err != nil {
				return writeErr(cmd, err)
			}

			log, closeLog, err := app.interactiveLogger()
			if err != nil {
				return writeErr(cmd, err)
			}
			defer func() { _ = closeLog() }()

			c, err := app.client(log)
			if err != nil {
				return writeErr(cmd, err)
			}
			cache := newTreeCache(c, log)
			defer func() { _ = cache.Close() }()

			ctx := cmd.Context()
			before, err := cache.Get(ctx, treecache.KeyEmployeeTree)
			if err != nil {
				return writeErr(cmd, err)
			}
			verdict, ok := reparent.CheckInTree(before, empID, mgrID)
			if !ok {
				return writeErr(cmd, errNotFound("employee", empID))
			}
			if verdict.Rejected() {
				return writeOut(cmd, app, map[string]any{"data": map[string]any{
					"employee_id": empID,
					"manager_id":  mgrID,
					"sent":        false,
					"verdict":     verdict.String(),
				}})
			}

			notes := &syncctl.Recorder{}
			res, err := syncctl.New(c, cache, notes, log).SubmitReparent(ctx, empID, mgrID)
			if err != nil {
				return writeErr(cmd, err)
			}

			// The entry was invalidated on success, so this reads the store again.
			after, err := cache.Get(ctx, treecache.KeyEmployeeTree)
			if err != nil {
				return writeErr(cmd, err)
			}
			out := map[string]any{
				"employee_id": res.EmployeeID,
				"manager_id":  res.ManagerID,
				"sent":        true,
				"message":     res.Message,
			}
			if e, ok := after.Find(empID); ok && e.ManagerID != nil {
				out["reports_to"] = *e.ManagerID
			}
			return writeOut(cmd, app, map[string]any{"data": out})
		},
	}
	return cmd
}
