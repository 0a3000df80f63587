//nolint:testpackage // Testing unexported renderers
package cmd

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jonesrussell/north-cloud/newswatch/internal/config"
	"github.com/jonesrussell/north-cloud/newswatch/internal/domain"
	"github.com/jonesrussell/north-cloud/newswatch/internal/generator"
)

func TestRenderArticles(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	renderArticles(&buf, []domain.Article{
		{ID: 2, Source: "CM7", Title: "Operação prende suspeito", Link: "https://cm7brasil.com/a", DiscoveredAt: time.Now()},
		{ID: 1, Source: "PortalHolanda", Title: "Acidente na BR-174", Link: "https://www.portaldoholanda.com.br/b", DiscoveredAt: time.Now()},
	})

	out := buf.String()
	assert.Contains(t, out, "Operação prende suspeito")
	assert.Contains(t, out, "https://www.portaldoholanda.com.br/b")
	assert.Contains(t, strings.ToUpper(out), "TOTAL")
}

func TestRenderSources(t *testing.T) {
	t.Parallel()

	disabled := false
	var buf bytes.Buffer
	renderSources(&buf, []config.SourceConfig{
		{Name: "CM7", Kind: config.KindCM7, BaseURL: "https://cm7brasil.com/noticias/policia", PageCount: 2},
		{Name: "Custom", Kind: config.KindSelector, PageCount: 1, Enabled: &disabled,
			Selectors: config.SelectorsConfig{PageURL: "https://example.com/news?page={page}"}},
	})

	out := buf.String()
	assert.Contains(t, out, "cm7brasil.com/noticias/policia")
	assert.Contains(t, out, "https://example.com/news?page={page}")
	assert.Contains(t, out, "false")
}

func TestRenderCandidates(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	renderCandidates(&buf, []generator.ListingCandidate{
		{Card: "article.cm7-card", Title: "h2", Link: "a[href]", Matches: 4, Confidence: 0.9, Samples: []string{"Primeira"}},
	})

	out := buf.String()
	assert.Contains(t, out, "article.cm7-card")
	assert.Contains(t, out, "0.90")
	assert.Contains(t, out, "Primeira")
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
	})

	assert.NoError(t, rootCmd.Execute())
	assert.Contains(t, buf.String(), "newswatch version")
}
