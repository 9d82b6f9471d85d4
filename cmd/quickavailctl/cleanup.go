package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/quickavail/backend/internal/domain"
)

func newCleanupCmd(a *app) *cobra.Command {
	var (
		action  string
		execute bool
		daysOld int
	)
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Count, or with --execute delete, schedules selected by a cleanup policy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			act, err := domain.ParseCleanupAction(action)
			if err != nil {
				return err
			}
			report, err := a.adminService().Cleanup(cmd.Context(), a.cfg.AdminCleanupKey, domain.CleanupRequest{
				Action:  act,
				DryRun:  !execute,
				DaysOld: daysOld,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd, report)
		},
	}
	cmd.Flags().StringVar(&action, "action", string(domain.CleanupExpired), "Policy: expired, old, unused or stats")
	cmd.Flags().BoolVar(&execute, "execute", false, "Delete the matching schedules instead of a dry run")
	cmd.Flags().IntVar(&daysOld, "days-old", domain.DefaultDaysOld, "Age threshold in days for the old policy")
	return cmd
}

func newReportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Print the usage analytics report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			report, err := a.adminService().Report(cmd.Context(), a.cfg.AdminCleanupKey)
			if err != nil {
				return err
			}
			return printJSON(cmd, report)
		},
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
