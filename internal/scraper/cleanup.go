package scraper

import (
	"time"

	"github.com/KaushikeeBhatt/Hackathon-web-scrapper/internal/models"
)

// RetentionConfig holds the day-count windows after which old listings are
// purged.
type RetentionConfig struct {
	ExpiredRetentionDays  int `json:"expired_retention_days"`
	InactiveRetentionDays int `json:"inactive_retention_days"`
}

// DefaultRetentionConfig returns the default retention windows.
func DefaultRetentionConfig() RetentionConfig {
	return RetentionConfig{
		ExpiredRetentionDays:  30,
		InactiveRetentionDays: 90,
	}
}

// Cleanup removes listings that have aged out of their retention window:
// expired listings whose deadline is older than the expired window, and
// no-deadline listings whose lastUpdated is older than the inactive window.
// Active listings with a deadline are never removed here. The pass is
// idempotent: a second run with the same now removes nothing further.
func Cleanup(hackathons []models.Hackathon, cfg RetentionConfig, now time.Time) ([]models.Hackathon, int) {
	expiredCutoff := now.AddDate(0, 0, -cfg.ExpiredRetentionDays)
	inactiveCutoff := now.AddDate(0, 0, -cfg.InactiveRetentionDays)

	survivors := make([]models.Hackathon, 0, len(hackathons))
	removed := 0

	for _, h := range hackathons {
		if shouldRemove(h, expiredCutoff, inactiveCutoff) {
			removed++
			continue
		}
		survivors = append(survivors, h)
	}

	return survivors, removed
}

func shouldRemove(h models.Hackathon, expiredCutoff, inactiveCutoff time.Time) bool {
	if h.Status == models.StatusExpired && h.Deadline != nil && h.Deadline.Before(expiredCutoff) {
		return true
	}
	if h.Deadline == nil && !h.LastUpdated.IsZero() && h.LastUpdated.Before(inactiveCutoff) {
		return true
	}
	return false
}
