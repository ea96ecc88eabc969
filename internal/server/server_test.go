package server

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaushikeeBhatt/Hackathon-web-scrapper/internal/models"
	"github.com/KaushikeeBhatt/Hackathon-web-scrapper/internal/scraper"
	"github.com/KaushikeeBhatt/Hackathon-web-scrapper/internal/scraper/sources"
	"github.com/KaushikeeBhatt/Hackathon-web-scrapper/internal/storage"
)

type fakeStore struct {
	dataset *models.Dataset
	runLog  []models.RunLogEntry
}

func (f *fakeStore) LoadDataset() (*models.Dataset, error) {
	if f.dataset == nil {
		return nil, storage.ErrNoDataset
	}
	return f.dataset, nil
}

func (f *fakeStore) SaveDataset(dataset *models.Dataset) error {
	f.dataset = dataset
	return nil
}

func (f *fakeStore) AppendRunLog(entry models.RunLogEntry) error {
	f.runLog = append(f.runLog, entry)
	return nil
}

func (f *fakeStore) LoadRunLog() ([]models.RunLogEntry, error) {
	return f.runLog, nil
}

type fakeSource struct {
	hackathons []models.Hackathon
	block      chan struct{}
	started    chan struct{}
}

func (f *fakeSource) Name() string    { return "Fake" }
func (f *fakeSource) RateLimit() int  { return 600 }
func (f *fakeSource) BaseURL() string { return "https://example.com" }

func (f *fakeSource) FetchHackathons(ctx context.Context) ([]models.Hackathon, error) {
	if f.started != nil {
		close(f.started)
	}
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.hackathons, nil
}

func newTestServer(store storage.Store, srcs ...sources.Source) *Server {
	registry := sources.NewRegistry()
	for _, src := range srcs {
		registry.Register(src, sources.SourceConfig{Enabled: true, RateLimit: 600})
	}

	logger := log.New(io.Discard, "", 0)
	retention := scraper.DefaultRetentionConfig()
	pipeline := scraper.NewPipeline(registry, store, retention, logger)
	pipeline.SetRetryConfig(scraper.RetryConfig{MaxRetries: 0})
	return NewServer(pipeline, store, retention, logger)
}

func doRequest(handler http.Handler, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealthEndpoint(t *testing.T) {
	handler := newTestServer(&fakeStore{}).Routes()

	rec := doRequest(handler, http.MethodGet, "/api/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	body := decodeBody(t, rec)
	assert.Equal(t, "ok", body["status"])
}

func TestHackathonsEmptyStoreIs404(t *testing.T) {
	handler := newTestServer(&fakeStore{}).Routes()

	rec := doRequest(handler, http.MethodGet, "/api/hackathons")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	body := decodeBody(t, rec)
	assert.Contains(t, body["error"], "No hackathon data")
}

func TestHackathonsReturnsDataset(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := &fakeStore{dataset: models.NewDataset([]models.Hackathon{
		{Title: "UI Design Sprint", Link: "a", Status: models.StatusActive},
	}, now)}
	handler := newTestServer(store).Routes()

	rec := doRequest(handler, http.MethodGet, "/api/hackathons")
	assert.Equal(t, http.StatusOK, rec.Code)

	var dataset models.Dataset
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dataset))
	assert.Equal(t, 1, dataset.TotalCount)
	assert.Equal(t, "UI Design Sprint", dataset.Hackathons[0].Title)
}

func TestScrapeRequiresPost(t *testing.T) {
	handler := newTestServer(&fakeStore{}).Routes()

	rec := doRequest(handler, http.MethodGet, "/api/scrape")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, http.MethodPost, rec.Header().Get("Allow"))
}

func TestScrapeRunsPipeline(t *testing.T) {
	store := &fakeStore{}
	src := &fakeSource{hackathons: []models.Hackathon{
		{Title: "UI Design Sprint", Link: "https://example.com/1"},
	}}
	handler := newTestServer(store, src).Routes()

	rec := doRequest(handler, http.MethodPost, "/api/scrape")
	assert.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "Scraping completed successfully", body["message"])
	require.NotNil(t, store.dataset)
	assert.Equal(t, 1, store.dataset.TotalCount)
}

func TestScrapeWhileInFlightIs409(t *testing.T) {
	store := &fakeStore{}
	src := &fakeSource{
		block:   make(chan struct{}),
		started: make(chan struct{}),
	}
	handler := newTestServer(store, src).Routes()

	firstDone := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		firstDone <- doRequest(handler, http.MethodPost, "/api/scrape")
	}()

	<-src.started
	rec := doRequest(handler, http.MethodPost, "/api/scrape")
	assert.Equal(t, http.StatusConflict, rec.Code)

	close(src.block)
	first := <-firstDone
	assert.Equal(t, http.StatusOK, first.Code)
}

func TestStatsEmpty(t *testing.T) {
	handler := newTestServer(&fakeStore{}).Routes()

	rec := doRequest(handler, http.MethodGet, "/api/stats")
	assert.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, float64(0), body["totalScrapingSessions"])
	assert.Nil(t, body["latestScraping"])
	assert.Nil(t, body["designStats"])
}

func TestStatsAggregatesRunsAndDataset(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := &fakeStore{
		dataset: models.NewDataset([]models.Hackathon{
			{Title: "A", Link: "a", Source: "Devpost", DesignRelevanceScore: 0.4},
			{Title: "B", Link: "b", Source: "Devpost", DesignRelevanceScore: 0.2},
			{Title: "C", Link: "c", DesignRelevanceScore: 0.6},
		}, now),
		runLog: []models.RunLogEntry{
			{ID: "run-1", TotalListings: 10},
			{ID: "run-2", TotalListings: 20},
		},
	}
	handler := newTestServer(store).Routes()

	rec := doRequest(handler, http.MethodGet, "/api/stats")
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp statsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, 2, resp.TotalScrapingSessions)
	assert.Equal(t, 15, resp.AverageHackathonsPerRun)
	require.NotNil(t, resp.LatestScraping)
	assert.Equal(t, "run-2", resp.LatestScraping.ID)

	require.NotNil(t, resp.DesignStats)
	assert.Equal(t, 3, resp.DesignStats.TotalDesignHackathons)
	assert.Equal(t, 2, resp.DesignStats.Sources["Devpost"])
	assert.Equal(t, 1, resp.DesignStats.Sources["Unknown"])
	assert.InDelta(t, 0.4, resp.DesignStats.AverageRelevanceScore, 1e-9)
	require.NotEmpty(t, resp.DesignStats.TopDesignHackathons)
	assert.Equal(t, "C", resp.DesignStats.TopDesignHackathons[0].Title)
}

func TestCleanupRemovesDuplicates(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := &fakeStore{dataset: models.NewDataset([]models.Hackathon{
		{Title: "UI Design Sprint", Link: "a"},
		{Title: "UI Design Sprint", Link: "a"},
		{Title: "Figma Hackday", Link: "b"},
	}, now)}
	handler := newTestServer(store).Routes()

	rec := doRequest(handler, http.MethodPost, "/api/cleanup")
	assert.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, float64(3), body["originalCount"])
	assert.Equal(t, float64(2), body["finalCount"])
	assert.Equal(t, float64(1), body["duplicatesRemoved"])
	assert.Equal(t, 2, store.dataset.TotalCount)
}

func TestCleanupNoDuplicatesLeavesStoreUntouched(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	original := models.NewDataset([]models.Hackathon{
		{Title: "UI Design Sprint", Link: "a"},
	}, now)
	store := &fakeStore{dataset: original}
	handler := newTestServer(store).Routes()

	rec := doRequest(handler, http.MethodPost, "/api/cleanup")
	assert.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "No duplicates found", body["message"])
	assert.Same(t, original, store.dataset)
}

func TestUpdateWithoutDatasetIs404(t *testing.T) {
	handler := newTestServer(&fakeStore{}).Routes()

	rec := doRequest(handler, http.MethodPost, "/api/update")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCleanupOldRemovesStaleRecords(t *testing.T) {
	now := time.Now().UTC()
	oldDeadline := now.AddDate(0, 0, -40)
	store := &fakeStore{dataset: models.NewDataset([]models.Hackathon{
		{Title: "Stale", Link: "a", Status: models.StatusExpired, Deadline: &oldDeadline, LastUpdated: now},
		{Title: "Fresh", Link: "b", Status: models.StatusActive, LastUpdated: now},
	}, now)}
	handler := newTestServer(store).Routes()

	rec := doRequest(handler, http.MethodPost, "/api/cleanup-old")
	assert.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, float64(1), body["removedCount"])
	assert.Equal(t, 1, store.dataset.TotalCount)
	assert.Equal(t, "Fresh", store.dataset.Hackathons[0].Title)
}

func TestShutdownSignalsChannel(t *testing.T) {
	srv := newTestServer(&fakeStore{})
	handler := srv.Routes()

	rec := doRequest(handler, http.MethodPost, "/api/shutdown")
	assert.Equal(t, http.StatusOK, rec.Code)

	select {
	case <-srv.Shutdown():
	default:
		t.Fatal("expected shutdown signal")
	}
}
