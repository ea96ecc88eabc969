package scraper

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/KaushikeeBhatt/Hackathon-web-scrapper/internal/models"
	"github.com/KaushikeeBhatt/Hackathon-web-scrapper/internal/relevance"
	"github.com/KaushikeeBhatt/Hackathon-web-scrapper/internal/scraper/sources"
	"github.com/KaushikeeBhatt/Hackathon-web-scrapper/internal/storage"
)

// ErrScrapeInFlight is returned when a scrape is requested while another is
// still running. The pipeline is a single-writer batch process; callers must
// serialize invocations.
var ErrScrapeInFlight = errors.New("a scrape is already in progress")

// RetryConfig defines per-source retry behavior.
type RetryConfig struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// Pipeline runs the full reconciliation cycle: fetch from all sources,
// classify, dedupe, merge with the persisted dataset, derive statuses,
// retire stale records, and persist the result.
type Pipeline struct {
	registry    *sources.Registry
	store       storage.Store
	classifier  *relevance.Classifier
	rateLimiter *RateLimiter
	dedup       *Deduplicator
	reconciler  *Reconciler
	retention   RetentionConfig
	retryConfig RetryConfig
	concurrency int
	metrics     *PipelineMetrics
	logger      *log.Logger
	inFlight    atomic.Bool
	now         func() time.Time
}

// PipelineMetrics tracks pipeline performance across runs.
type PipelineMetrics struct {
	TotalScraped      int64
	TotalRelevant     int64
	TotalSaved        int64
	TotalDuplicates   int64
	TotalErrors       int64
	LastRunDuration   time.Duration
	SourcePerformance map[string]SourceMetrics
	mu                sync.RWMutex
}

// SourceMetrics tracks performance per source.
type SourceMetrics struct {
	Scraped      int64
	Relevant     int64
	Errors       int64
	ResponseTime time.Duration
	LastScraped  time.Time
}

// NewPipeline creates a pipeline over the given sources and store.
func NewPipeline(registry *sources.Registry, store storage.Store, retention RetentionConfig, logger *log.Logger) *Pipeline {
	return &Pipeline{
		registry:    registry,
		store:       store,
		classifier:  relevance.NewClassifier(),
		rateLimiter: NewRateLimiter(),
		dedup:       NewDeduplicator(),
		reconciler:  NewReconciler(),
		retention:   retention,
		retryConfig: RetryConfig{
			MaxRetries:    3,
			InitialDelay:  1 * time.Second,
			MaxDelay:      30 * time.Second,
			BackoffFactor: 2.0,
		},
		concurrency: 5,
		metrics: &PipelineMetrics{
			SourcePerformance: make(map[string]SourceMetrics),
		},
		logger: logger,
		now:    time.Now,
	}
}

// FetchResult holds the outcome of fetching a single source.
type FetchResult struct {
	Source     string
	Hackathons []models.Hackathon
	Err        error
	Duration   time.Duration
}

// ScrapeAndSave runs one full scrape-and-reconcile cycle and persists the
// result. Per-source failures are isolated; only a failed save is fatal.
// A second call while one is running returns ErrScrapeInFlight.
func (p *Pipeline) ScrapeAndSave(ctx context.Context) (*models.Dataset, error) {
	if !p.inFlight.CompareAndSwap(false, true) {
		return nil, ErrScrapeInFlight
	}
	defer p.inFlight.Store(false)

	startTime := p.now()
	defer func() {
		p.metrics.mu.Lock()
		p.metrics.LastRunDuration = time.Since(startTime)
		p.metrics.mu.Unlock()
	}()

	fresh, perSource := p.fetchAndClassify(ctx)
	originalCount := len(fresh)

	fresh, freshDups := p.dedup.RemoveDuplicates(fresh)
	if freshDups > 0 {
		p.logger.Printf("Removed %d duplicate hackathons from fresh batch", freshDups)
	}

	now := p.now()
	merged, stats := p.reconcileWithStore(fresh, now)
	merged, counts := UpdateStatuses(merged, now)
	p.logger.Printf("Status update: %d active, %d expired", counts.Active, counts.Expired)

	merged, retired := Cleanup(merged, p.retention, now)
	if retired > 0 {
		p.logger.Printf("Cleanup: removed %d old hackathons, %d remaining", retired, len(merged))
	}

	dataset := models.NewDataset(merged, now)
	if err := p.store.SaveDataset(dataset); err != nil {
		return nil, fmt.Errorf("failed to save dataset: %w", err)
	}
	p.logger.Printf("Saved %d unique hackathons", dataset.TotalCount)

	p.metrics.mu.Lock()
	p.metrics.TotalSaved = int64(dataset.TotalCount)
	p.metrics.TotalDuplicates += int64(freshDups + stats.DuplicatesRemoved)
	p.metrics.mu.Unlock()

	entry := models.RunLogEntry{
		ID:                uuid.NewString(),
		Timestamp:         now,
		TotalListings:     dataset.TotalCount,
		OriginalCount:     originalCount,
		DuplicatesRemoved: freshDups + stats.DuplicatesRemoved,
		Sources:           perSource,
	}
	if err := p.store.AppendRunLog(entry); err != nil {
		// statistics are best-effort; the dataset save already succeeded
		p.logger.Printf("Failed to append run log entry: %v", err)
	}

	return dataset, nil
}

// UpdateExisting refreshes the persisted dataset in place: a status pass,
// a fresh fetch merged over it, another status pass, then retention
// cleanup. On a failed fetch the existing data survives unchanged.
func (p *Pipeline) UpdateExisting(ctx context.Context) (*models.Dataset, error) {
	if !p.inFlight.CompareAndSwap(false, true) {
		return nil, ErrScrapeInFlight
	}
	defer p.inFlight.Store(false)

	existing, err := p.store.LoadDataset()
	if err != nil {
		return nil, fmt.Errorf("no dataset to update: %w", err)
	}

	now := p.now()
	updated, _ := UpdateStatuses(existing.Hackathons, now)

	fresh, _ := p.fetchAndClassify(ctx)
	fresh, _ = p.dedup.RemoveDuplicates(fresh)

	merged, stats := p.reconciler.Reconcile(updated, fresh, now)
	p.logger.Printf("Update: %d added, %d refreshed", stats.Added, stats.Updated)

	merged, _ = UpdateStatuses(merged, now)
	merged, retired := Cleanup(merged, p.retention, now)
	if retired > 0 {
		p.logger.Printf("Cleanup: removed %d old hackathons", retired)
	}

	dataset := models.NewDataset(merged, now)
	if err := p.store.SaveDataset(dataset); err != nil {
		return nil, fmt.Errorf("failed to save dataset: %w", err)
	}
	return dataset, nil
}

// reconcileWithStore loads the persisted dataset and merges the fresh batch
// into it. A missing or corrupt dataset degrades to fresh-only; an empty
// fresh batch degrades to the existing data unchanged.
func (p *Pipeline) reconcileWithStore(fresh []models.Hackathon, now time.Time) ([]models.Hackathon, ReconcileStats) {
	existing, err := p.store.LoadDataset()
	if err != nil {
		if !errors.Is(err, storage.ErrNoDataset) {
			p.logger.Printf("Could not load existing dataset, proceeding with fresh data only: %v", err)
		}
		var stats ReconcileStats
		stats.Added = len(fresh)
		for i := range fresh {
			if fresh[i].ScrapedAt == nil {
				scrapedAt := now
				fresh[i].ScrapedAt = &scrapedAt
			}
		}
		return fresh, stats
	}

	p.logger.Printf("Merging %d existing + %d fresh hackathons", len(existing.Hackathons), len(fresh))
	updated, _ := UpdateStatuses(existing.Hackathons, now)
	return p.reconciler.Reconcile(updated, fresh, now)
}

// fetchAndClassify fans out one fetch task per enabled source, waits for all
// of them, and keeps only design-relevant listings from whatever succeeded.
// A failed source is logged and contributes zero listings; it never cancels
// its siblings. Returns the relevant listings and per-source counts.
func (p *Pipeline) fetchAndClassify(ctx context.Context) ([]models.Hackathon, map[string]int) {
	enabled := p.registry.EnabledSources()
	perSource := make(map[string]int, len(enabled))
	if len(enabled) == 0 {
		p.logger.Printf("No enabled sources")
		return nil, perSource
	}

	resultsChan := make(chan FetchResult, len(enabled))
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, p.concurrency)

	for name, source := range enabled {
		wg.Add(1)
		go func(sourceName string, src sources.Source) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			resultsChan <- p.fetchSource(ctx, sourceName, src)
		}(name, source)
	}

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	var relevant []models.Hackathon
	for result := range resultsChan {
		if result.Err != nil {
			p.metrics.mu.Lock()
			p.metrics.TotalErrors++
			p.metrics.mu.Unlock()
			p.logger.Printf("Error scraping %s: %v", result.Source, result.Err)
			perSource[result.Source] = 0
			continue
		}

		kept := 0
		for _, h := range result.Hackathons {
			if !p.classifier.IsDesignRelated(h) {
				continue
			}
			h.DesignRelevanceScore = p.classifier.Score(h)
			if h.Source == "" {
				h.Source = result.Source
			}
			relevant = append(relevant, h)
			kept++
		}
		perSource[result.Source] = kept

		p.metrics.mu.Lock()
		p.metrics.TotalScraped += int64(len(result.Hackathons))
		p.metrics.TotalRelevant += int64(kept)
		sourceMetric := p.metrics.SourcePerformance[result.Source]
		sourceMetric.Scraped = int64(len(result.Hackathons))
		sourceMetric.Relevant = int64(kept)
		sourceMetric.ResponseTime = result.Duration
		sourceMetric.LastScraped = p.now()
		p.metrics.SourcePerformance[result.Source] = sourceMetric
		p.metrics.mu.Unlock()

		p.logger.Printf("Scraped %d hackathons from %s (%d design-relevant) in %v",
			len(result.Hackathons), result.Source, kept, result.Duration)
	}

	return relevant, perSource
}

// fetchSource fetches one source with rate limiting and retries.
func (p *Pipeline) fetchSource(ctx context.Context, sourceName string, source sources.Source) FetchResult {
	startTime := p.now()

	rateLimit := source.RateLimit()
	if config, ok := p.registry.Config(sourceName); ok && config.RateLimit > 0 {
		rateLimit = config.RateLimit
	}
	if err := p.rateLimiter.Wait(ctx, sourceName, rateLimit); err != nil {
		return FetchResult{
			Source:   sourceName,
			Err:      fmt.Errorf("rate limit error: %w", err),
			Duration: time.Since(startTime),
		}
	}

	var hackathons []models.Hackathon
	var lastError error

	for attempt := 0; attempt <= p.retryConfig.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := p.backoffDelay(attempt)
			p.logger.Printf("Retrying %s (attempt %d/%d) after %v",
				sourceName, attempt+1, p.retryConfig.MaxRetries+1, delay)

			select {
			case <-ctx.Done():
				return FetchResult{
					Source:   sourceName,
					Err:      ctx.Err(),
					Duration: time.Since(startTime),
				}
			case <-time.After(delay):
			}
		}

		hackathons, lastError = source.FetchHackathons(ctx)
		if lastError == nil {
			break
		}
		p.logger.Printf("Attempt %d failed for %s: %v", attempt+1, sourceName, lastError)
	}

	if lastError != nil {
		p.metrics.mu.Lock()
		sourceMetric := p.metrics.SourcePerformance[sourceName]
		sourceMetric.Errors++
		p.metrics.SourcePerformance[sourceName] = sourceMetric
		p.metrics.mu.Unlock()
	}

	return FetchResult{
		Source:     sourceName,
		Hackathons: hackathons,
		Err:        lastError,
		Duration:   time.Since(startTime),
	}
}

func (p *Pipeline) backoffDelay(attempt int) time.Duration {
	delay := time.Duration(float64(p.retryConfig.InitialDelay) *
		float64(attempt) * p.retryConfig.BackoffFactor)
	if delay > p.retryConfig.MaxDelay {
		delay = p.retryConfig.MaxDelay
	}
	return delay
}

// SetConcurrency bounds how many sources are fetched at once.
func (p *Pipeline) SetConcurrency(n int) {
	if n > 0 {
		p.concurrency = n
	}
}

// SetRetryConfig overrides the per-source retry behavior.
func (p *Pipeline) SetRetryConfig(cfg RetryConfig) {
	p.retryConfig = cfg
}

// Metrics returns a copy of the current pipeline metrics.
func (p *Pipeline) Metrics() PipelineMetrics {
	p.metrics.mu.RLock()
	defer p.metrics.mu.RUnlock()

	sourcePerformance := make(map[string]SourceMetrics, len(p.metrics.SourcePerformance))
	for k, v := range p.metrics.SourcePerformance {
		sourcePerformance[k] = v
	}

	return PipelineMetrics{
		TotalScraped:      p.metrics.TotalScraped,
		TotalRelevant:     p.metrics.TotalRelevant,
		TotalSaved:        p.metrics.TotalSaved,
		TotalDuplicates:   p.metrics.TotalDuplicates,
		TotalErrors:       p.metrics.TotalErrors,
		LastRunDuration:   p.metrics.LastRunDuration,
		SourcePerformance: sourcePerformance,
	}
}
