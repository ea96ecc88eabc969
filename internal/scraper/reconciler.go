package scraper

import (
	"time"

	"github.com/KaushikeeBhatt/Hackathon-web-scrapper/internal/models"
)

// ReconcileStats summarizes one reconciliation for logging and the run log.
type ReconcileStats struct {
	Added             int
	Updated           int
	DuplicatesRemoved int
}

// Reconciler combines a freshly fetched batch with the previously persisted
// collection while preserving each listing's historical identity.
type Reconciler struct {
	dedup *Deduplicator
}

// NewReconciler creates a new reconciler.
func NewReconciler() *Reconciler {
	return &Reconciler{dedup: NewDeduplicator()}
}

// Reconcile merges fresh into existing:
//
//   - identities only in existing are retained unchanged;
//   - identities only in fresh are added with scrapedAt = now;
//   - identities in both get their display fields overwritten from fresh,
//     but only when the cheap field diff detects a change, keeping the
//     existing status and stamping lastUpdated = now on change.
//
// An empty fresh batch (all fetchers failed) degrades to a no-op: existing
// is returned unchanged, never lost. The result is passed through
// deduplication as a final safety net.
func (r *Reconciler) Reconcile(existing, fresh []models.Hackathon, now time.Time) ([]models.Hackathon, ReconcileStats) {
	var stats ReconcileStats

	if len(fresh) == 0 {
		return existing, stats
	}

	merged := make([]models.Hackathon, len(existing))
	copy(merged, existing)

	index := make(map[string]int, len(existing))
	for i, h := range merged {
		if h.HasIdentity() {
			index[h.Identity()] = i
		}
	}

	for _, f := range fresh {
		if !f.HasIdentity() {
			continue
		}

		i, exists := index[f.Identity()]
		if !exists {
			scrapedAt := now
			f.ScrapedAt = &scrapedAt
			merged = append(merged, f)
			index[f.Identity()] = len(merged) - 1
			stats.Added++
			continue
		}

		if !fieldsChanged(merged[i], f) {
			continue
		}

		updated := f
		updated.Status = merged[i].Status // status survives refreshes
		updated.Deadline = merged[i].Deadline
		updated.ScrapedAt = merged[i].ScrapedAt
		updated.LastUpdated = now
		merged[i] = updated
		stats.Updated++
	}

	merged, stats.DuplicatesRemoved = r.dedup.RemoveDuplicates(merged)
	return merged, stats
}

// fieldsChanged is the cheap field-level diff deciding whether a refresh is
// worth a write: prize, the raw deadline field, description, or joined tags.
func fieldsChanged(existing, fresh models.Hackathon) bool {
	return existing.Prize != fresh.Prize ||
		existing.RawDeadlineValue() != fresh.RawDeadlineValue() ||
		existing.Description != fresh.Description ||
		existing.JoinedTags() != fresh.JoinedTags()
}
