package scraper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/KaushikeeBhatt/Hackathon-web-scrapper/internal/models"
)

func TestCleanupRemovesExpiredPastRetention(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	cfg := RetentionConfig{ExpiredRetentionDays: 30, InactiveRetentionDays: 90}

	fortyDaysAgo := now.AddDate(0, 0, -40)
	tenDaysAgo := now.AddDate(0, 0, -10)

	hackathons := []models.Hackathon{
		{Title: "Old", Link: "old", Status: models.StatusExpired, Deadline: &fortyDaysAgo},
		{Title: "Recent", Link: "recent", Status: models.StatusExpired, Deadline: &tenDaysAgo},
	}

	survivors, removed := Cleanup(hackathons, cfg, now)

	assert.Equal(t, 1, removed)
	assert.Len(t, survivors, 1)
	assert.Equal(t, "Recent", survivors[0].Title)
}

func TestCleanupRemovesInactivePastRetention(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	cfg := DefaultRetentionConfig()

	hackathons := []models.Hackathon{
		{Title: "Stale", Link: "stale", Status: models.StatusActive, LastUpdated: now.AddDate(0, 0, -120)},
		{Title: "Fresh", Link: "fresh", Status: models.StatusActive, LastUpdated: now.AddDate(0, 0, -5)},
	}

	survivors, removed := Cleanup(hackathons, cfg, now)

	assert.Equal(t, 1, removed)
	assert.Len(t, survivors, 1)
	assert.Equal(t, "Fresh", survivors[0].Title)
}

func TestCleanupNeverRemovesActiveWithDeadline(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	cfg := DefaultRetentionConfig()

	longAgo := now.AddDate(-1, 0, 0)
	future := now.AddDate(0, 1, 0)

	hackathons := []models.Hackathon{
		{Title: "Upcoming", Link: "u", Status: models.StatusActive, Deadline: &future, LastUpdated: longAgo},
	}

	survivors, removed := Cleanup(hackathons, cfg, now)

	assert.Equal(t, 0, removed)
	assert.Len(t, survivors, 1)
}

func TestCleanupIdempotent(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	cfg := DefaultRetentionConfig()

	old := now.AddDate(0, 0, -45)
	hackathons := []models.Hackathon{
		{Title: "Gone", Link: "g", Status: models.StatusExpired, Deadline: &old},
		{Title: "Kept", Link: "k", Status: models.StatusActive, LastUpdated: now},
	}

	once, removedFirst := Cleanup(hackathons, cfg, now)
	twice, removedSecond := Cleanup(once, cfg, now)

	assert.Equal(t, 1, removedFirst)
	assert.Equal(t, 0, removedSecond)
	assert.Equal(t, once, twice)
}

func TestCleanupZeroLastUpdatedIsNotInactive(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	cfg := DefaultRetentionConfig()

	// Never-touched listings are not retired on their first pass.
	hackathons := []models.Hackathon{{Title: "New", Link: "n"}}

	survivors, removed := Cleanup(hackathons, cfg, now)

	assert.Equal(t, 0, removed)
	assert.Len(t, survivors, 1)
}
