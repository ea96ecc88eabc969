package models

import "time"

// Dataset is the full persisted collection of listings plus metadata. It is
// fully replaced on every save; the saved form is the sole source of truth
// at rest. The storage key for the collection stays "hackathons" for
// compatibility with external consumers of the persisted file.
type Dataset struct {
	Timestamp  time.Time   `json:"timestamp"`
	TotalCount int         `json:"totalCount"`
	Hackathons []Hackathon `json:"hackathons"`
}

// NewDataset stamps a dataset from a reconciled listing collection.
func NewDataset(hackathons []Hackathon, now time.Time) *Dataset {
	return &Dataset{
		Timestamp:  now,
		TotalCount: len(hackathons),
		Hackathons: hackathons,
	}
}

// RunLogEntry records the outcome counts of one scrape-and-save cycle. The
// run log is append-only and used for statistics only; it is never read back
// into the dataset.
type RunLogEntry struct {
	ID                string         `json:"id"`
	Timestamp         time.Time      `json:"timestamp"`
	TotalListings     int            `json:"totalHackathons"`
	OriginalCount     int            `json:"originalCount"`
	DuplicatesRemoved int            `json:"duplicatesRemoved"`
	Sources           map[string]int `json:"sources"`
}
