package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/newswatch/internal/bootstrap"
)

func runCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run crawl cycles until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return bootstrap.Start(cmd.Context(), options())
		},
	}
}

func onceCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "once",
		Short: "Run a single crawl cycle and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			report, err := bootstrap.RunOnce(cmd.Context(), options())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "collected %d, new %d, notified %d in %s\n",
				report.Collected, report.New, report.Notified, report.Duration)
			return nil
		},
	}
}
