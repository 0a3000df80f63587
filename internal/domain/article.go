// Package domain provides domain models used across the application.
package domain

import (
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Article is a listing entry discovered on a news source.
type Article struct {
	// ID is assigned by the store on first insertion.
	ID int64 `db:"id" json:"id"`
	// Title is the trimmed headline text.
	Title string `db:"title" json:"title"`
	// Link is the absolute article URL and the dedup key.
	Link string `db:"link" json:"link"`
	// Source names the adapter that produced the entry.
	Source string `db:"source" json:"source"`
	// DiscoveredAt is set when the article is first stored.
	DiscoveredAt time.Time `db:"created_at" json:"discovered_at"`
}

// NewArticle builds a listing entry with normalized whitespace.
// ok is false when title or link is empty after trimming.
func NewArticle(source, title, link string) (article Article, ok bool) {
	title = CleanText(title)
	link = strings.TrimSpace(link)
	if title == "" || link == "" {
		return Article{}, false
	}
	return Article{Title: title, Link: link, Source: source}, true
}

// CleanText trims s, collapses inner runs of whitespace to one space and
// puts the result in Unicode NFC form.
func CleanText(s string) string {
	return norm.NFC.String(strings.Join(strings.Fields(s), " "))
}

// IsStored reports whether the article has been assigned an ID.
func (a Article) IsStored() bool {
	return a.ID > 0
}
