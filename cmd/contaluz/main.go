package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/contaluz/contaluz/internal/api"
	"github.com/contaluz/contaluz/internal/config"
	"github.com/contaluz/contaluz/internal/cron"
	"github.com/contaluz/contaluz/internal/migrate"
	"github.com/contaluz/contaluz/internal/tariff"
)

func main() {
	root := &cobra.Command{
		Use:   "contaluz",
		Short: "Residential electricity tariff and bill estimation service",
	}

	root.AddCommand(serveCmd(), workerCmd(), migrateCmd(), fetchCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromEnv()
			mux := api.NewMux(cfg)

			addr := ":" + cfg.Port
			log.Printf("contaluz listening on %s", addr)
			return http.ListenAndServe(addr, mux)
		},
	}
}

func workerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run the background tariff refresh worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return cron.Run(ctx, config.FromEnv())
		},
	}
}

func migrateCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database schema migrations",
	}

	run := func(fn func(context.Context, string, string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			cfg := config.FromEnv()
			return fn(cmd.Context(), cfg.DBDriver, cfg.DSN)
		}
	}

	c.AddCommand(
		&cobra.Command{Use: "up", Short: "Apply pending migrations", RunE: run(migrate.Up)},
		&cobra.Command{Use: "down", Short: "Roll back the last migration", RunE: run(migrate.Down)},
		&cobra.Command{Use: "status", Short: "Show migration status", RunE: run(migrate.Status)},
	)
	return c
}

func fetchCmd() *cobra.Command {
	var state string
	c := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch the current tariff list and print it as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromEnv()
			svc := tariff.NewService(tariff.Config{
				BaseURL:    cfg.ANEELBaseURL,
				ResourceID: cfg.ANEELResourceID,
				Limit:      cfg.ANEELLimit,
			})

			resp, err := svc.List(cmd.Context(), state)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		},
	}
	c.Flags().StringVar(&state, "state", "", "filter by two-letter state code")
	return c
}
