package scraper

import (
	"crypto/md5"
	"fmt"

	"github.com/KaushikeeBhatt/Hackathon-web-scrapper/internal/models"
)

// Deduplicator collapses duplicate listings based on their (title, link)
// identity.
type Deduplicator struct{}

// NewDeduplicator creates a new deduplicator.
func NewDeduplicator() *Deduplicator {
	return &Deduplicator{}
}

// RemoveDuplicates returns the input with exactly one listing per identity,
// preserving the first occurrence's position and field values, plus the
// number of listings dropped. Listings without a valid identity are dropped
// and counted alongside duplicates. Each call considers only its own input,
// so deduplicating an already-deduplicated collection returns it unchanged.
func (d *Deduplicator) RemoveDuplicates(hackathons []models.Hackathon) ([]models.Hackathon, int) {
	seen := make(map[string]bool, len(hackathons))
	unique := make([]models.Hackathon, 0, len(hackathons))
	removed := 0

	for _, h := range hackathons {
		if !h.HasIdentity() {
			removed++
			continue
		}

		hash := d.identityHash(h)
		if seen[hash] {
			removed++
			continue
		}
		seen[hash] = true
		unique = append(unique, h)
	}

	return unique, removed
}

// IsDuplicate reports whether candidate shares an identity with any listing
// already in hackathons.
func (d *Deduplicator) IsDuplicate(candidate models.Hackathon, hackathons []models.Hackathon) bool {
	if !candidate.HasIdentity() {
		return false
	}
	hash := d.identityHash(candidate)
	for _, h := range hackathons {
		if h.HasIdentity() && d.identityHash(h) == hash {
			return true
		}
	}
	return false
}

// identityHash creates a hash over the normalized identity key.
func (d *Deduplicator) identityHash(h models.Hackathon) string {
	hash := md5.Sum([]byte(h.Identity()))
	return fmt.Sprintf("%x", hash)
}
