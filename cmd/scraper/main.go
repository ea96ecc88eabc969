package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/KaushikeeBhatt/Hackathon-web-scrapper/internal/config"
	"github.com/KaushikeeBhatt/Hackathon-web-scrapper/internal/scraper"
	"github.com/KaushikeeBhatt/Hackathon-web-scrapper/internal/scraper/sources"
	"github.com/KaushikeeBhatt/Hackathon-web-scrapper/internal/server"
	"github.com/KaushikeeBhatt/Hackathon-web-scrapper/internal/storage"
	"github.com/KaushikeeBhatt/Hackathon-web-scrapper/pkg/httpclient"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	cfg, err := config.LoadConfig("config.json")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	logger, logFile, err := setupLogging(cfg.Monitoring.LogFile)
	if err != nil {
		log.Fatalf("Failed to setup logging: %v", err)
	}
	if logFile != nil {
		defer logFile.Close()
	}

	store, err := newStore(cfg)
	if err != nil {
		logger.Fatalf("Failed to initialize storage: %v", err)
	}

	retention := scraper.RetentionConfig{
		ExpiredRetentionDays:  cfg.Retention.ExpiredRetentionDays,
		InactiveRetentionDays: cfg.Retention.InactiveRetentionDays,
	}

	pipeline := scraper.NewPipeline(newRegistry(cfg), store, retention, logger)
	pipeline.SetConcurrency(cfg.Scraper.ConcurrentSources)
	pipeline.SetRetryConfig(scraper.RetryConfig{
		MaxRetries:    cfg.Scraper.RetryAttempts,
		InitialDelay:  cfg.Scraper.RetryDelay,
		MaxDelay:      30 * time.Second,
		BackoffFactor: 2.0,
	})

	apiServer := server.NewServer(pipeline, store, retention, logger)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      apiServer.Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("Design Hackathon API running on http://localhost:%d", cfg.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Initial scraping on startup, non-blocking so the API is reachable
	// immediately.
	initialDone := make(chan struct{})
	go func() {
		defer close(initialDone)
		logger.Println("Performing initial hackathon scraping...")
		if _, err := pipeline.ScrapeAndSave(ctx); err != nil {
			logger.Printf("Initial scraping failed: %v", err)
			return
		}
		logger.Println("Initial scraping completed")
	}()

	var scraperDone chan struct{}
	if cfg.Scraper.ScrapingInterval > 0 {
		scraperDone = make(chan struct{})
		go runPeriodicScraping(ctx, pipeline, cfg.Scraper.ScrapingInterval, logger, scraperDone)
	}

	var metricsDone chan struct{}
	if cfg.Monitoring.MetricsInterval > 0 {
		metricsDone = make(chan struct{})
		go runMetricsReporting(ctx, pipeline, cfg.Monitoring.MetricsInterval, logger, metricsDone)
	}

	var autoShutdown chan time.Time
	if cfg.Monitoring.AutoShutdown {
		autoShutdown = make(chan time.Time, 1)
		go func() {
			<-initialDone
			logger.Printf("Auto-shutdown in %v...", cfg.Monitoring.ShutdownDelay)
			time.Sleep(cfg.Monitoring.ShutdownDelay)
			autoShutdown <- time.Now()
		}()
	}

	select {
	case sig := <-sigChan:
		logger.Printf("Received signal %v, shutting down gracefully...", sig)
	case <-apiServer.Shutdown():
		logger.Println("Shutdown requested via API")
	case <-autoShutdown:
		logger.Println("Auto-shutting down server...")
	case err := <-serverErr:
		logger.Printf("HTTP server error: %v", err)
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Printf("HTTP server shutdown error: %v", err)
	}

	if scraperDone != nil {
		<-scraperDone
		logger.Println("Periodic scraping stopped")
	}
	if metricsDone != nil {
		<-metricsDone
		logger.Println("Metrics reporting stopped")
	}

	logger.Println("Server closed")
}

// newStore builds the configured record store backend.
func newStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage.Backend {
	case "file":
		return storage.NewFileStore(cfg.Storage.DataDir), nil
	case "postgres":
		return storage.NewPostgresStore(cfg.Storage.PostgresDSN)
	case "supabase":
		return storage.NewSupabaseStore(cfg.Storage.SupabaseURL, cfg.Storage.SupabaseKey)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// newRegistry registers every known source with its configuration.
func newRegistry(cfg *config.Config) *sources.Registry {
	client := httpclient.NewHttpClient(cfg.Scraper.RequestTimeout)

	registry := sources.NewRegistry()
	registry.Register(sources.NewDevpostSource(cfg.Sources.Devpost.Pages), sources.SourceConfig{
		Enabled:   cfg.Sources.Devpost.Enabled,
		RateLimit: cfg.Sources.Devpost.RateLimit,
	})
	registry.Register(sources.NewUnstopSource(), sources.SourceConfig{
		Enabled:   cfg.Sources.Unstop.Enabled,
		RateLimit: cfg.Sources.Unstop.RateLimit,
	})
	registry.Register(sources.NewAllHackathonsSource(client), sources.SourceConfig{
		Enabled:   cfg.Sources.AllHackathons.Enabled,
		RateLimit: cfg.Sources.AllHackathons.RateLimit,
	})
	registry.Register(sources.NewCumulusSource(client), sources.SourceConfig{
		Enabled:   cfg.Sources.Cumulus.Enabled,
		RateLimit: cfg.Sources.Cumulus.RateLimit,
	})
	return registry
}

// setupLogging configures logging based on the configuration.
func setupLogging(logFile string) (*log.Logger, *os.File, error) {
	var logOutput *os.File
	var err error

	if logFile != "" {
		if err := os.MkdirAll(filepath.Dir(logFile), 0755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		logOutput, err = os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
	} else {
		logOutput = os.Stdout
	}

	logger := log.New(logOutput, "[SCRAPER] ", log.LstdFlags|log.Lshortfile)
	return logger, logOutput, nil
}

// runPeriodicScraping runs the pipeline at regular intervals.
func runPeriodicScraping(ctx context.Context, pipeline *scraper.Pipeline, interval time.Duration, logger *log.Logger, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Printf("Starting periodic scraping every %v", interval)

	for {
		select {
		case <-ctx.Done():
			logger.Println("Periodic scraping cancelled")
			return
		case <-ticker.C:
			logger.Println("Starting scheduled scraping...")
			start := time.Now()

			if _, err := pipeline.ScrapeAndSave(ctx); err != nil {
				logger.Printf("Scheduled scraping failed: %v", err)
			} else {
				logger.Printf("Scheduled scraping completed in %v", time.Since(start))
			}
		}
	}
}

// runMetricsReporting periodically reports pipeline metrics.
func runMetricsReporting(ctx context.Context, pipeline *scraper.Pipeline, interval time.Duration, logger *log.Logger, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Println("Metrics reporting cancelled")
			return
		case <-ticker.C:
			printMetrics(pipeline, logger)
		}
	}
}

// printMetrics prints current pipeline metrics.
func printMetrics(pipeline *scraper.Pipeline, logger *log.Logger) {
	metrics := pipeline.Metrics()

	logger.Printf("=== Pipeline Metrics ===")
	logger.Printf("Total Scraped: %d", metrics.TotalScraped)
	logger.Printf("Total Design-Relevant: %d", metrics.TotalRelevant)
	logger.Printf("Total Saved: %d", metrics.TotalSaved)
	logger.Printf("Total Duplicates: %d", metrics.TotalDuplicates)
	logger.Printf("Total Errors: %d", metrics.TotalErrors)
	logger.Printf("Last Run Duration: %v", metrics.LastRunDuration)

	for source, perf := range metrics.SourcePerformance {
		logger.Printf("%s: scraped=%d, relevant=%d, errors=%d, response_time=%v, last_scraped=%v",
			source, perf.Scraped, perf.Relevant, perf.Errors,
			perf.ResponseTime, perf.LastScraped.Format("2006-01-02 15:04:05"))
	}
	logger.Printf("========================")
}
