// Package cmd implements the newswatch command-line interface.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/newswatch/internal/bootstrap"
)

var (
	// cfgFile holds the path to the configuration file.
	cfgFile string

	// Debug forces the debug log level for all commands.
	Debug bool

	rootCmd = &cobra.Command{
		Use:   "newswatch",
		Short: "Watches news listings and announces new articles",
		Long: `newswatch periodically fetches the listing pages of the configured news
sources, stores every article it has not seen before and sends one
notification per new article.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"",
		"config file (default is $CONFIG_PATH or ./config.yml)",
	)
	rootCmd.PersistentFlags().BoolVar(&Debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(runCommand())
	rootCmd.AddCommand(onceCommand())
	rootCmd.AddCommand(recentCommand())
	rootCmd.AddCommand(sourcesCommand())
	rootCmd.AddCommand(discoverCommand())
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "newswatch version %s\n", bootstrap.Version)
		},
	})
}

func options() bootstrap.Options {
	return bootstrap.Options{ConfigPath: cfgFile, Debug: Debug}
}
