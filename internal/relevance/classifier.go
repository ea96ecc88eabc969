package relevance

import (
	"strings"

	"github.com/KaushikeeBhatt/Hackathon-web-scrapper/internal/models"
)

// Classifier scores listings for design-domain relevance using keyword
// matching over the listing's text fields.
type Classifier struct {
	keywords []string
}

// NewClassifier creates a classifier with the default design vocabulary.
func NewClassifier() *Classifier {
	return &Classifier{keywords: designKeywords}
}

// NewClassifierWithKeywords creates a classifier with a custom vocabulary.
func NewClassifierWithKeywords(keywords []string) *Classifier {
	return &Classifier{keywords: keywords}
}

// IsDesignRelated reports whether any keyword appears in the listing's
// text bag.
func (c *Classifier) IsDesignRelated(h models.Hackathon) bool {
	text := c.textBag(h)
	for _, keyword := range c.keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}

// Score returns the fraction of keywords matched, in [0, 1].
func (c *Classifier) Score(h models.Hackathon) float64 {
	if len(c.keywords) == 0 {
		return 0
	}
	text := c.textBag(h)
	matches := 0
	for _, keyword := range c.keywords {
		if strings.Contains(text, keyword) {
			matches++
		}
	}
	return float64(matches) / float64(len(c.keywords))
}

func (c *Classifier) textBag(h models.Hackathon) string {
	parts := []string{h.Title, h.Description, strings.Join(h.Tags, " "), h.Host}
	return strings.ToLower(strings.Join(parts, " "))
}
