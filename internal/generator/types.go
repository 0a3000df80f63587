// Package generator discovers CSS selectors for listing pages and renders
// them as a ready-to-paste source configuration.
package generator

// ListingCandidate is a guess at the selectors of one listing layout.
type ListingCandidate struct {
	// Card matches one article card on the listing page.
	Card string `json:"card"`
	// Title matches the headline inside a card.
	Title string `json:"title"`
	// Link matches the anchor inside a card whose href is the article URL.
	Link string `json:"link"`
	// Matches is the number of cards yielding both a title and a link.
	Matches int `json:"matches"`
	// Confidence is a score from 0.0 to 1.0.
	Confidence float64 `json:"confidence"`
	// Samples holds a few extracted titles for verification.
	Samples []string `json:"samples"`
}
