package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"coursebuilder/internal/logger"
	"coursebuilder/internal/server"
	"coursebuilder/internal/store"
)

func newServeCmd(app *App) *cobra.Command {
	var (
		addr    string
		driver  string
		dsn     string
		origins []string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the course builder HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := logger.New(app.LogMode)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer log.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			db, err := store.Open(ctx, store.DBConfig{Driver: driver, DSN: dsn}, log)
			if err != nil {
				return writeErr(cmd, fmt.Errorf("open store: %w", err))
			}
			srv := server.NewServer(server.RouterConfig{
				Store:          store.NewService(db, log),
				Log:            log,
				AllowedOrigins: origins,
				AuthorToken:    app.Token,
			})
			runErr := srv.Run(ctx, addr)
			if err := multierr.Append(runErr, store.Close(db)); err != nil {
				return writeErr(cmd, err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", envOr("COURSEBUILDER_ADDR", ":8080"), "Listen address")
	cmd.Flags().StringVar(&driver, "db-driver", envOr("COURSEBUILDER_DB_DRIVER", store.DriverSQLite), "Database driver (sqlite|postgres)")
	cmd.Flags().StringVar(&dsn, "dsn", envOr("COURSEBUILDER_DSN", ""), "Database DSN (sqlite file path or postgres connection string)")
	cmd.Flags().StringSliceVar(&origins, "allow-origin", nil, "CORS allowed origin (repeatable; default: any)")
	return cmd
}
