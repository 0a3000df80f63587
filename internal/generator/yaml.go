package generator

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jonesrussell/north-cloud/newswatch/internal/config"
)

const yamlIndent = 2

type sourcesDocument struct {
	Sources []sourceEntry `yaml:"sources"`
}

type sourceEntry struct {
	Name      string          `yaml:"name"`
	Kind      string          `yaml:"kind"`
	PageCount int             `yaml:"page_count"`
	Selectors selectorsConfig `yaml:"selectors"`
}

type selectorsConfig struct {
	PageURL string `yaml:"page_url"`
	Card    string `yaml:"card"`
	Title   string `yaml:"title"`
	Link    string `yaml:"link"`
}

// GenerateSourceYAML renders a selector source for pageURL as a config
// fragment. Confidence and sample titles are emitted as comments.
func GenerateSourceYAML(pageURL string, c ListingCandidate) (string, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse URL: %w", err)
	}

	doc := sourcesDocument{Sources: []sourceEntry{{
		Name:      generateSourceName(parsed.Hostname()),
		Kind:      config.KindSelector,
		PageCount: 1,
		Selectors: selectorsConfig{
			PageURL: pageURL,
			Card:    c.Card,
			Title:   c.Title,
			Link:    c.Link,
		},
	}}}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# Confidence: %.2f, %d cards matched\n", c.Confidence, c.Matches)
	for _, sample := range c.Samples {
		fmt.Fprintf(&buf, "# Sample: %s\n", strings.ReplaceAll(sample, "\n", " "))
	}

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(yamlIndent)
	if err = enc.Encode(doc); err != nil {
		return "", fmt.Errorf("encode source yaml: %w", err)
	}
	if err = enc.Close(); err != nil {
		return "", fmt.Errorf("encode source yaml: %w", err)
	}

	return buf.String(), nil
}

// generateSourceName converts a hostname to a source name.
// Example: "www.portaldoholanda.com.br" -> "Portaldoholanda"
func generateSourceName(hostname string) string {
	hostname = strings.TrimPrefix(hostname, "www.")

	parts := strings.Split(hostname, ".")
	main := parts[0]
	if main == "" {
		return hostname
	}

	return strings.ToUpper(main[:1]) + strings.ToLower(main[1:])
}
