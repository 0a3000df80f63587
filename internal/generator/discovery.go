package generator

import (
	"errors"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/north-cloud/newswatch/internal/domain"
)

// ErrNoCandidates is returned when no repeated card layout is found.
var ErrNoCandidates = errors.New("no repeated article cards found")

const (
	// minCards is how many matching cards a layout needs to count as a listing.
	minCards      = 3
	maxSamples    = 3
	sampleMaxLen  = 100
	maxCandidates = 5

	semanticConfidence = 0.90
	classConfidence    = 0.80
	genericConfidence  = 0.65
	manyCardsBonus     = 0.05
	manyCardsThreshold = 8
)

// containerTags are the elements that commonly wrap one article card.
var containerTags = []string{"article", "li", "div", "section"}

// titlePatterns are tried in order inside a card. The first that yields
// text wins.
var titlePatterns = []string{"h2 a", "h3 a", "h4 a", "h1 a", "h2", "h3", "h4", "a[title]"}

// cardHints are class fragments that suggest an article card.
var cardHints = []string{"card", "post", "news", "noticia", "article", "item", "entry", "destaque"}

type tally struct {
	title   string
	matches int
	samples []string
}

// DiscoverListing scans a listing document for repeated article cards and
// returns the best candidates, most likely first.
func DiscoverListing(doc *goquery.Document) ([]ListingCandidate, error) {
	tallies := make(map[string]map[string]*tally)

	for _, tag := range containerTags {
		doc.Find(tag).Each(func(_ int, card *goquery.Selection) {
			key := cardSelector(card)
			if key == "" {
				return
			}

			title, text := findTitle(card)
			if title == "" {
				return
			}

			byTitle, ok := tallies[key]
			if !ok {
				byTitle = make(map[string]*tally)
				tallies[key] = byTitle
			}

			t, ok := byTitle[title]
			if !ok {
				t = &tally{title: title}
				byTitle[title] = t
			}
			t.matches++
			if len(t.samples) < maxSamples {
				t.samples = append(t.samples, truncateText(text, sampleMaxLen))
			}
		})
	}

	var candidates []ListingCandidate
	for card, byTitle := range tallies {
		for _, t := range byTitle {
			if t.matches < minCards {
				continue
			}
			candidates = append(candidates, ListingCandidate{
				Card:       card,
				Title:      t.title,
				Link:       linkFor(t.title),
				Matches:    t.matches,
				Confidence: confidenceFor(card, t.matches),
				Samples:    t.samples,
			})
		}
	}

	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		if a.Matches != b.Matches {
			return a.Matches > b.Matches
		}
		return a.Card+a.Title < b.Card+b.Title
	})

	if len(candidates) > maxCandidates {
		candidates = candidates[:maxCandidates]
	}

	return candidates, nil
}

// cardSelector builds "tag.class" for a container, or "article" for a bare
// article element. Other unclassed containers are too generic to use.
func cardSelector(s *goquery.Selection) string {
	tag := goquery.NodeName(s)

	class, _ := s.Attr("class")
	classes := strings.Fields(class)
	if len(classes) == 0 {
		if tag == "article" {
			return tag
		}
		return ""
	}

	for _, c := range classes {
		if isCardClass(c) {
			return tag + "." + c
		}
	}

	return tag + "." + classes[0]
}

func isCardClass(className string) bool {
	lower := strings.ToLower(className)
	for _, hint := range cardHints {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}

// findTitle returns the first title pattern producing text and a link
// inside the card.
func findTitle(card *goquery.Selection) (pattern, text string) {
	for _, p := range titlePatterns {
		sel := card.Find(p).First()
		if sel.Length() == 0 {
			continue
		}

		text = domain.CleanText(sel.Text())
		if text == "" {
			if title, ok := sel.Attr("title"); ok {
				text = domain.CleanText(title)
			}
		}
		if text == "" {
			continue
		}

		if !hasLink(card, sel, p) {
			continue
		}

		return p, text
	}

	return "", ""
}

func hasLink(card, title *goquery.Selection, pattern string) bool {
	if strings.HasSuffix(pattern, " a") || strings.HasPrefix(pattern, "a[") {
		href, ok := title.Attr("href")
		return ok && strings.TrimSpace(href) != ""
	}
	href, ok := card.Find("a[href]").First().Attr("href")
	return ok && strings.TrimSpace(href) != ""
}

// linkFor returns the link selector matching a title pattern. Anchored
// titles carry the link themselves.
func linkFor(title string) string {
	if strings.HasSuffix(title, " a") || strings.HasPrefix(title, "a[") {
		return title
	}
	return "a[href]"
}

func confidenceFor(card string, matches int) float64 {
	var confidence float64
	switch {
	case strings.HasPrefix(card, "article"):
		confidence = semanticConfidence
	case isCardClass(card[strings.Index(card, ".")+1:]):
		confidence = classConfidence
	default:
		confidence = genericConfidence
	}

	if matches >= manyCardsThreshold {
		confidence += manyCardsBonus
	}

	return confidence
}

func truncateText(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	return string(runes[:maxLen]) + "..."
}
