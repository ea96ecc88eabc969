package scraper

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaushikeeBhatt/Hackathon-web-scrapper/internal/models"
	"github.com/KaushikeeBhatt/Hackathon-web-scrapper/internal/scraper/sources"
	"github.com/KaushikeeBhatt/Hackathon-web-scrapper/internal/storage"
)

// stubSource yields a canned batch or a canned error.
type stubSource struct {
	name       string
	hackathons []models.Hackathon
	err        error
}

func (s *stubSource) Name() string    { return s.name }
func (s *stubSource) RateLimit() int  { return 600 }
func (s *stubSource) BaseURL() string { return "https://example.com/" + s.name }

func (s *stubSource) FetchHackathons(ctx context.Context) ([]models.Hackathon, error) {
	return s.hackathons, s.err
}

// memStore is an in-memory record store.
type memStore struct {
	dataset *models.Dataset
	runLog  []models.RunLogEntry
	saveErr error
	logErr  error
	saveCnt int
}

func (m *memStore) LoadDataset() (*models.Dataset, error) {
	if m.dataset == nil {
		return nil, storage.ErrNoDataset
	}
	return m.dataset, nil
}

func (m *memStore) SaveDataset(dataset *models.Dataset) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.dataset = dataset
	m.saveCnt++
	return nil
}

func (m *memStore) AppendRunLog(entry models.RunLogEntry) error {
	if m.logErr != nil {
		return m.logErr
	}
	m.runLog = append(m.runLog, entry)
	return nil
}

func (m *memStore) LoadRunLog() ([]models.RunLogEntry, error) {
	return m.runLog, nil
}

func newTestPipeline(store storage.Store, srcs ...sources.Source) *Pipeline {
	registry := sources.NewRegistry()
	for _, src := range srcs {
		registry.Register(src, sources.SourceConfig{Enabled: true, RateLimit: 600})
	}

	p := NewPipeline(registry, store, DefaultRetentionConfig(), log.New(io.Discard, "", 0))
	p.SetRetryConfig(RetryConfig{MaxRetries: 0})
	return p
}

func TestScrapeAndSaveEndToEnd(t *testing.T) {
	store := &memStore{}
	src := &stubSource{name: "Stub", hackathons: []models.Hackathon{
		{Title: "UI Design Sprint", Link: "https://example.com/1"},
		{Title: "Figma Hackday", Link: "https://example.com/2"},
		{Title: "Creative Poster Jam", Link: "https://example.com/3"},
		{Title: "Quantum Cryptography Workshop", Link: "https://example.com/4"},
		{Title: "Blockchain Summit", Link: "https://example.com/5"},
	}}

	p := newTestPipeline(store, src)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return now }

	dataset, err := p.ScrapeAndSave(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, dataset.TotalCount)
	for _, h := range dataset.Hackathons {
		assert.Equal(t, models.StatusActive, h.Status)
		assert.Greater(t, h.DesignRelevanceScore, 0.0)
		require.NotNil(t, h.ScrapedAt)
	}

	require.Len(t, store.runLog, 1)
	entry := store.runLog[0]
	assert.Equal(t, 3, entry.TotalListings)
	assert.Equal(t, 3, entry.OriginalCount)
	assert.Equal(t, 0, entry.DuplicatesRemoved)
	assert.Equal(t, 3, entry.Sources["Stub"])
	assert.NotEmpty(t, entry.ID)
}

func TestScrapeAndSaveAllSourcesFailKeepsExisting(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	existing := models.NewDataset([]models.Hackathon{
		{Title: "Survivor", Link: "s", Status: models.StatusActive, LastUpdated: now.AddDate(0, 0, -1)},
	}, now.AddDate(0, 0, -1))
	store := &memStore{dataset: existing}

	failing := &stubSource{name: "Broken", err: errors.New("site unreachable")}

	p := newTestPipeline(store, failing)
	p.now = func() time.Time { return now }

	dataset, err := p.ScrapeAndSave(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, dataset.TotalCount)
	assert.Equal(t, "Survivor", dataset.Hackathons[0].Title)
}

func TestScrapeAndSaveIsolatesFailingSource(t *testing.T) {
	store := &memStore{}
	good := &stubSource{name: "Good", hackathons: []models.Hackathon{
		{Title: "Design Derby", Link: "https://example.com/derby"},
	}}
	bad := &stubSource{name: "Bad", err: errors.New("boom")}

	p := newTestPipeline(store, good, bad)

	dataset, err := p.ScrapeAndSave(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, dataset.TotalCount)
	require.Len(t, store.runLog, 1)
	assert.Equal(t, 1, store.runLog[0].Sources["Good"])
	assert.Equal(t, 0, store.runLog[0].Sources["Bad"])
}

func TestScrapeAndSaveMergesWithExisting(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	scrapedAt := now.AddDate(0, -1, 0)

	store := &memStore{dataset: models.NewDataset([]models.Hackathon{
		{
			Title:       "UI Design Sprint",
			Link:        "https://example.com/1",
			Prize:       "$100",
			Status:      models.StatusExpired,
			ScrapedAt:   &scrapedAt,
			LastUpdated: scrapedAt,
		},
	}, scrapedAt)}

	src := &stubSource{name: "Stub", hackathons: []models.Hackathon{
		{Title: "UI Design Sprint", Link: "https://example.com/1", Prize: "$500"},
	}}

	p := newTestPipeline(store, src)
	p.now = func() time.Time { return now }

	dataset, err := p.ScrapeAndSave(context.Background())
	require.NoError(t, err)

	require.Equal(t, 1, dataset.TotalCount)
	assert.Equal(t, "$500", dataset.Hackathons[0].Prize)
	require.NotNil(t, dataset.Hackathons[0].ScrapedAt)
	assert.Equal(t, scrapedAt, *dataset.Hackathons[0].ScrapedAt)
}

func TestScrapeAndSaveFailedSaveSurfaces(t *testing.T) {
	store := &memStore{saveErr: errors.New("disk full")}
	src := &stubSource{name: "Stub", hackathons: []models.Hackathon{
		{Title: "Design Derby", Link: "https://example.com/derby"},
	}}

	p := newTestPipeline(store, src)

	_, err := p.ScrapeAndSave(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to save dataset")
	assert.Empty(t, store.runLog, "run log must not be appended when the save fails")
}

func TestScrapeAndSaveRunLogFailureIsNotFatal(t *testing.T) {
	store := &memStore{logErr: errors.New("log unwritable")}
	src := &stubSource{name: "Stub", hackathons: []models.Hackathon{
		{Title: "Design Derby", Link: "https://example.com/derby"},
	}}

	p := newTestPipeline(store, src)

	dataset, err := p.ScrapeAndSave(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, dataset.TotalCount)
}

func TestScrapeAndSaveRejectsConcurrentRun(t *testing.T) {
	store := &memStore{}
	p := newTestPipeline(store)

	p.inFlight.Store(true)
	_, err := p.ScrapeAndSave(context.Background())
	assert.ErrorIs(t, err, ErrScrapeInFlight)
}

func TestUpdateExistingWithoutDatasetFails(t *testing.T) {
	store := &memStore{}
	p := newTestPipeline(store)

	_, err := p.UpdateExisting(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrNoDataset)
}

func TestUpdateExistingRefreshesAndPreservesData(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	store := &memStore{dataset: models.NewDataset([]models.Hackathon{
		{Title: "Design Derby", Link: "https://example.com/derby", Prize: "$1k", LastUpdated: now.AddDate(0, 0, -3)},
	}, now.AddDate(0, 0, -3))}

	src := &stubSource{name: "Stub", hackathons: []models.Hackathon{
		{Title: "Design Derby", Link: "https://example.com/derby", Prize: "$2k"},
	}}

	p := newTestPipeline(store, src)
	p.now = func() time.Time { return now }

	dataset, err := p.UpdateExisting(context.Background())
	require.NoError(t, err)

	require.Equal(t, 1, dataset.TotalCount)
	assert.Equal(t, "$2k", dataset.Hackathons[0].Prize)
	assert.Equal(t, 1, store.saveCnt)
}
