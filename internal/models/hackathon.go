package models

import (
	"strings"
	"time"
)

// Hackathon is one scraped hackathon/competition listing.
//
// Title and Link form the listing's identity; the raw deadline-like fields
// (RawDeadline, ApplyBy, RegistrationDeadline, EndDate) are kept verbatim as
// the sources reported them, while Deadline holds the normalized timestamp
// derived from them.
type Hackathon struct {
	Title                string     `json:"title"`
	Link                 string     `json:"link"`
	Description          string     `json:"description,omitempty"`
	Host                 string     `json:"host,omitempty"`
	Prize                string     `json:"prize,omitempty"`
	Image                string     `json:"image,omitempty"`
	Tags                 []string   `json:"tags,omitempty"`
	Source               string     `json:"source"`
	DesignRelevanceScore float64    `json:"designRelevanceScore"`
	RawDeadline          string     `json:"rawDeadline,omitempty"`
	ApplyBy              string     `json:"applyBy,omitempty"`
	RegistrationDeadline string     `json:"registrationDeadline,omitempty"`
	EndDate              string     `json:"endDate,omitempty"`
	Deadline             *time.Time `json:"deadline,omitempty"`
	Status               string     `json:"status"`
	LastUpdated          time.Time  `json:"lastUpdated"`
	ScrapedAt            *time.Time `json:"scrapedAt,omitempty"`
}

// Listing status values
const (
	StatusActive  = "active"
	StatusExpired = "expired"
)

// Identity returns the stable key recognizing the same real-world listing
// across runs and sources: lowercased, trimmed title and link.
func (h Hackathon) Identity() string {
	title := strings.ToLower(strings.TrimSpace(h.Title))
	link := strings.ToLower(strings.TrimSpace(h.Link))
	return title + "|" + link
}

// HasIdentity reports whether the listing carries a usable identity. A
// listing with an empty title and an empty link can never be matched across
// runs and must not be stored.
func (h Hackathon) HasIdentity() bool {
	return strings.TrimSpace(h.Title) != "" || strings.TrimSpace(h.Link) != ""
}

// RawDeadlineValue returns the first non-empty deadline-like field in
// priority order. This is the value the reconciler diffs and the status
// engine parses.
func (h Hackathon) RawDeadlineValue() string {
	for _, v := range []string{h.RawDeadline, h.ApplyBy, h.RegistrationDeadline, h.EndDate} {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// JoinedTags returns the listing's tags joined for cheap field-level
// comparison.
func (h Hackathon) JoinedTags() string {
	return strings.Join(h.Tags, ",")
}
