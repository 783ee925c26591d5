package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wellesley-hci/lexi-api/internal/api"
	"github.com/wellesley-hci/lexi-api/internal/sched"
	"github.com/wellesley-hci/lexi-api/internal/schema"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "lexi",
	Short: "Crowdsourced data-collection task scheduler",
	Long: `lexi manages the lifecycle of crowdsourced data-collection tasks:
a daily pool of tasks balanced toward each workspace's least-visited areas,
fair assignment to participants under a daily cap, and expiry of tasks that
stall for too long. Workspaces store responses in their own dynamically
provisioned tables.`,
	SilenceUsage: true,
}

func main() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to config file")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(poolCmd())
	rootCmd.AddCommand(assignCmd())
	rootCmd.AddCommand(sweepCmd())
	rootCmd.AddCommand(statusCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the API server and the background scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(configFile)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()

			if err := schema.Migrate(ctx, a.db); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
			if err := a.registrar.EnsureAll(ctx, a.workspaces); err != nil {
				return fmt.Errorf("failed to provision response tables: %w", err)
			}

			scheduler := sched.NewScheduler(a.pool, a.assigner, a.sweeper, a.cfg.Scheduler, a.logger)
			scheduler.Start()
			defer scheduler.Stop()

			router := api.NewRouter(api.Handlers{
				Workspaces: api.NewWorkspaceHandler(a.workspaces, a.registrar, a.logger),
				Users:      api.NewUserHandler(a.users, a.workspaces, a.logger),
				Tasks:      api.NewTaskHandler(a.workspaces, a.responses, a.columns, a.cfg.Scheduler.AreaQuestion, a.logger),
				Admin:      api.NewAdminHandler(a.pool, a.assigner, a.sweeper, a.logger),
			})

			srv := &http.Server{
				Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				a.logger.Info("server starting", "port", a.cfg.Server.Port)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case sig := <-stop:
				a.logger.Info("shutting down", "signal", sig.String())
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations and provision response tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(configFile)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := schema.Migrate(cmd.Context(), a.db); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
			return a.registrar.EnsureAll(cmd.Context(), a.workspaces)
		},
	}
}

func poolCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pool",
		Short: "Run one pool-generation pass",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(configFile)
			if err != nil {
				return err
			}
			defer a.Close()

			created, err := a.pool.Run(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("created %d tasks\n", created)
			return nil
		},
	}
}

func assignCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "assign",
		Short: "Run one assignment pass",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(configFile)
			if err != nil {
				return err
			}
			defer a.Close()

			assigned, err := a.assigner.Run(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("assigned %d tasks\n", assigned)
			return nil
		},
	}
}

func sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Run one expiry sweep",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(configFile)
			if err != nil {
				return err
			}
			defer a.Close()

			expired, err := a.sweeper.Run(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("expired %d tasks\n", expired)
			return nil
		},
	}
}
