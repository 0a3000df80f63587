package cmd

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/newswatch/internal/bootstrap"
	"github.com/jonesrussell/north-cloud/newswatch/internal/domain"
)

const (
	defaultRecentLimit = 10
	maxTitleWidth      = 70
)

func recentCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "recent",
		Short: "Print the most recently stored articles",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := bootstrap.OpenStore(cmd.Context(), options())
			if err != nil {
				return err
			}
			defer store.DB.Close()

			articles, err := store.Articles.RecentN(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("load recent articles: %w", err)
			}

			renderArticles(cmd.OutOrStdout(), articles)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", defaultRecentLimit, "number of articles to show")

	return cmd
}

func renderArticles(out io.Writer, articles []domain.Article) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleRounded)
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, WidthMax: maxTitleWidth},
	})

	t.AppendHeader(table.Row{"ID", "Source", "Title", "Link", "Discovered"})
	for _, a := range articles {
		t.AppendRow(table.Row{
			a.ID,
			a.Source,
			a.Title,
			a.Link,
			a.DiscoveredAt.Local().Format("2006-01-02 15:04"),
		})
	}
	t.AppendFooter(table.Row{"Total", len(articles)})

	t.Render()
}
