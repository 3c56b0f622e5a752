package cli

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"orgtree/internal/logging"
	"orgtree/internal/store"
	"orgtree/internal/web"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd(app *App) *cobra.Command {
	var addr string
	var driver string
	var sqlitePath string
	var noSeed bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the hierarchy store HTTP API",
		Long: strings.TrimSpace(`
Serve the employee hierarchy over HTTP:

  GET  /api/employees/tree
  GET  /api/employees/{id}/tree
  PUT  /api/employees/update-manager

An empty store is seeded with a sample org chart unless --no-seed is given
or store.seed is false in the config.
`),
		Example: strings.TrimSpace(`
# SQLite in ~/.orgtree, default address
orgtree serve

# Postgres
ORGTREE_POSTGRES_DSN=postgres://localhost/orgtree orgtree serve --driver postgres
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.config()
			if err != nil {
				return writeErr(cmd, err)
			}
			if v := strings.TrimSpace(addr); v != "" {
				cfg.Server.ListenAddr = v
			}
			if v := strings.TrimSpace(driver); v != "" {
				cfg.Store.Driver = v
			}
			if v := strings.TrimSpace(sqlitePath); v != "" {
				cfg.Store.SQLitePath = v
			}

			log, err := logging.New(cfg.Log.Level, cmd.ErrOrStderr())
			if err != nil {
				return writeErr(cmd, err)
			}
			defer func() { _ = log.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			st, err := store.Open(ctx, store.Options{
				Driver:      cfg.Store.Driver,
				SQLitePath:  cfg.Store.SQLitePath,
				PostgresDSN: cfg.Store.PostgresDSN,
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			defer func() { _ = st.Close() }()

			if cfg.Store.SeedEnabled() && !noSeed {
				if err := st.Seed(ctx); err != nil {
					return writeErr(cmd, err)
				}
			}

			srv, err := web.NewServer(web.ServerConfig{
				Addr:            cfg.Server.ListenAddr,
				Store:           st,
				Logger:          log,
				ShutdownTimeout: cfg.Server.ShutdownTimeout,
			})
			if err != nil {
				return writeErr(cmd, err)
			}

			var lc net.ListenConfig
			ln, err := lc.Listen(ctx, "tcp", srv.Addr())
			if err != nil {
				return writeErr(cmd, err)
			}

			actualAddr := ln.Addr().String()
			_ = writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"addr":      actualAddr,
					"api":       "http://" + actualAddr + "/api",
					"driver":    cfg.Store.Driver,
					"startedAt": time.Now().UTC().Format(time.RFC3339Nano),
				},
			})
			log.Info("serving", zap.String("addr", actualAddr), zap.String("driver", cfg.Store.Driver))

			if err := srv.Run(ctx, ln); err != nil && ctx.Err() == nil {
				return writeErr(cmd, fmt.Errorf("serve: %w", err))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Bind address (default: server.listen_addr)")
	cmd.Flags().StringVar(&driver, "driver", "", "Store driver (sqlite|postgres)")
	cmd.Flags().StringVar(&sqlitePath, "sqlite-path", "", "SQLite database file")
	cmd.Flags().BoolVar(&noSeed, "no-seed", false, "Do not seed an empty store")
	return cmd
}
