package cmd

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/newswatch/internal/bootstrap"
	"github.com/jonesrussell/north-cloud/newswatch/internal/generator"
)

func discoverCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "discover <listing-url>",
		Short: "Suggest selectors for a listing page",
		Long: `Fetch a listing page, look for repeated article cards and print the
candidate selectors together with a "selector" source ready to paste into
the configuration file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := bootstrap.NewCommandDeps(options())
			if err != nil {
				return err
			}

			pageURL := args[0]
			page, err := bootstrap.SetupFetcher(deps.Config.Crawler, deps.Logger).Fetch(cmd.Context(), pageURL)
			if err != nil {
				return fmt.Errorf("fetch %s: %w", pageURL, err)
			}

			doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
			if err != nil {
				return fmt.Errorf("parse %s: %w", pageURL, err)
			}

			candidates, err := generator.DiscoverListing(doc)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			renderCandidates(out, candidates)

			snippet, err := generator.GenerateSourceYAML(pageURL, candidates[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(out)
			fmt.Fprint(out, snippet)

			return nil
		},
	}
}

func renderCandidates(out io.Writer, candidates []generator.ListingCandidate) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)

	t.AppendHeader(table.Row{"#", "Card", "Title", "Link", "Cards", "Confidence", "Sample"})
	for i, c := range candidates {
		t.AppendRow(table.Row{
			i + 1,
			c.Card,
			c.Title,
			c.Link,
			c.Matches,
			fmt.Sprintf("%.2f", c.Confidence),
			strings.Join(c.Samples, " | "),
		})
	}

	t.Render()
}
