package cli

import (
	"strings"

	"orgtree/internal/format"
	"orgtree/internal/model"

	"github.com/spf13/cobra"
)

func newTreeCmd(app *App) *cobra.Command {
	var ascii bool

	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Print the whole org chart",
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
			return writeChart(cmd, app, root, ascii)
		},
	}

	cmd.Flags().BoolVar(&ascii, "ascii", false, "Draw text output with ASCII connectors")
	return cmd
}

func newShowCmd(app *App) *cobra.Command {
	var ascii bool

	cmd := &cobra.Command{
		Use:   "show <employee-id>",
		Short: "Print one employee and everyone below them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseEmployeeID(args[0])
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
			root, err := c.FetchSubtree(cmd.Context(), id)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeChart(cmd, app, root, ascii)
		},
	}

	cmd.Flags().BoolVar(&ascii, "ascii", false, "Draw text output with ASCII connectors")
	return cmd
}

// writeChart prints a tree as a drawing for --format text and inside the
// usual envelope otherwise.
func writeChart(cmd *cobra.Command, app *App, root model.Employee, ascii bool) error {
	if strings.EqualFold(strings.TrimSpace(app.Format), "text") {
		cfg, err := app.config()
		if err != nil {
			return writeErr(cmd, err)
		}
		return format.WriteTree(cmd.OutOrStdout(), root, format.TreeOptions{
			ASCII: ascii || cfg.TUI.Glyphs == "ascii",
			IDs:   true,
		})
	}
	return writeOut(cmd, app, map[string]any{"data": root})
}
