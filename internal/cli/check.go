package cli

import (
	"orgtree/internal/model"

	"github.com/spf13/cobra"
)

func newCheckCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Fetch the org chart and verify it is a well-formed tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, closeLog, err := app.interactiveLogger()
			if err != nil {
				return writeErr(cmd, err)
			}
			defer func() { _ = closeLog() }()

			c, err := app.client(log)
			if err != nil {
				return writeErr(cmd, err)
			}
			root, err := c.FetchTree(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			tr, err := model.NewTree(root)
			if err != nil {
				return writeErr(cmd, err)
			}

			depth := 0
			managers := 0
			tr.Walk(func(e model.Employee, d int) bool {
				if d > depth {
					depth = d
				}
				if len(e.Subordinates) > 0 {
					managers++
				}
				return true
			})
			return writeOut(cmd, app, map[string]any{"data": map[string]any{
				"ok":        true,
				"root_id":   tr.Root().ID,
				"employees": tr.Len(),
				"managers":  managers,
				"depth":     depth,
			}})
		},
	}
	return cmd
}
