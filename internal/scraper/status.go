package scraper

import (
	"strings"
	"time"

	"github.com/KaushikeeBhatt/Hackathon-web-scrapper/internal/models"
)

// deadlineLayouts are the date formats sources are known to emit, tried in
// order by parseDeadline.
var deadlineLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"02 Jan 2006",
	"Jan 2 2006",
	"01/02/2006",
	"2006/01/02",
}

// deadlineExtractor names one raw deadline-like field and how to read it.
type deadlineExtractor struct {
	field string
	value func(models.Hackathon) string
}

// deadlineExtractors is the ordered fallback chain used to resolve a
// listing's deadline: first non-empty wins.
var deadlineExtractors = []deadlineExtractor{
	{"deadline", func(h models.Hackathon) string { return h.RawDeadline }},
	{"applyBy", func(h models.Hackathon) string { return h.ApplyBy }},
	{"registrationDeadline", func(h models.Hackathon) string { return h.RegistrationDeadline }},
	{"endDate", func(h models.Hackathon) string { return h.EndDate }},
}

// StatusCounts summarizes one status pass for logging.
type StatusCounts struct {
	Active  int
	Expired int
}

// ResolveDeadline walks the extractor chain and parses the first non-empty
// raw field. A missing or unparsable value yields nil; a malformed date is
// treated identically to no deadline.
func ResolveDeadline(h models.Hackathon) *time.Time {
	for _, ex := range deadlineExtractors {
		raw := strings.TrimSpace(ex.value(h))
		if raw == "" {
			continue
		}
		if ts, ok := parseDeadline(raw); ok {
			return &ts
		}
		return nil
	}
	return nil
}

func parseDeadline(raw string) (time.Time, bool) {
	for _, layout := range deadlineLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// UpdateStatuses derives each listing's status from its best-available
// deadline and stamps lastUpdated. A listing with no known deadline is
// assumed open; a deadline strictly before now means expired. Status is
// recomputed on every pass, so a source correcting a deadline to a future
// date moves the listing back to active. This is a bulk touch: every
// processed listing gets lastUpdated = now, change or not.
func UpdateStatuses(hackathons []models.Hackathon, now time.Time) ([]models.Hackathon, StatusCounts) {
	var counts StatusCounts
	updated := make([]models.Hackathon, len(hackathons))

	for i, h := range hackathons {
		h.Deadline = ResolveDeadline(h)
		if h.Deadline != nil && h.Deadline.Before(now) {
			h.Status = models.StatusExpired
			counts.Expired++
		} else {
			h.Status = models.StatusActive
			counts.Active++
		}
		h.LastUpdated = now
		updated[i] = h
	}

	return updated, counts
}
