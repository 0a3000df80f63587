package cmd

import (
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/newswatch/internal/config"
	"github.com/jonesrussell/north-cloud/newswatch/internal/sources"
)

func sourcesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List the configured sources",
		Long:  "List the configured sources. Supported kinds: " + strings.Join(sources.Kinds(), ", "),
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}

			renderSources(cmd.OutOrStdout(), cfg.Sources)
			return nil
		},
	}
}

func renderSources(out io.Writer, srcs []config.SourceConfig) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)

	t.AppendHeader(table.Row{"Name", "Kind", "URL", "Pages", "Enabled"})
	for _, src := range srcs {
		location := src.BaseURL
		if src.Kind == config.KindSelector {
			location = src.Selectors.PageURL
		}

		t.AppendRow(table.Row{
			src.Name,
			src.Kind,
			location,
			src.PageCount,
			src.IsEnabled(),
		})
	}

	t.Render()
}
