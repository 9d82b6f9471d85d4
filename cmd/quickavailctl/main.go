// Command quickavailctl runs maintenance tasks against the configured
// schedule store: schema migrations, cleanup and the usage report. It reads
// the same environment (and .env file) as the API server.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/quickavail/backend/internal/config"
	"github.com/quickavail/backend/internal/service"
	"github.com/quickavail/backend/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app holds what the subcommands share. The store is opened lazily by the
// root's pre-run hook so that --help works without a database.
type app struct {
	cfg    config.Config
	log    *slog.Logger
	store  *store.Store
	stderr io.Writer
}

func (a *app) open(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	a.log = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level}))

	st, err := store.Open(cmd.Context(), cfg, a.log)
	if err != nil {
		return err
	}
	a.store = st
	return nil
}

func (a *app) close() error {
	if a.store == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return a.store.Close(ctx)
}

func (a *app) adminService() *service.AdminService {
	return service.NewAdminService(a.store.Schedules, a.cfg.AdminCleanupKey, a.log)
}

// run builds the command tree, executes args and releases the store.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	a := &app{stderr: stderr}
	root := &cobra.Command{
		Use:   "quickavailctl",
		Short: "QuickAvail maintenance CLI",
		Long: `quickavailctl migrates the schedule store and runs the admin
cleanup and usage report without going through the HTTP API.
Configuration comes from the environment and an optional .env file.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.open,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(args)

	root.AddCommand(newMigrateCmd(a))
	root.AddCommand(newCleanupCmd(a))
	root.AddCommand(newReportCmd(a))

	err := root.ExecuteContext(ctx)
	if cerr := a.close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}
