package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/KaushikeeBhatt/Hackathon-web-scrapper/internal/config"
	"github.com/KaushikeeBhatt/Hackathon-web-scrapper/internal/models"
	"github.com/KaushikeeBhatt/Hackathon-web-scrapper/internal/scraper"
	"github.com/KaushikeeBhatt/Hackathon-web-scrapper/internal/scraper/sources"
	"github.com/KaushikeeBhatt/Hackathon-web-scrapper/internal/storage"
	"github.com/KaushikeeBhatt/Hackathon-web-scrapper/pkg/httpclient"
)

func main() {
	var (
		configFile = flag.String("config", "config.json", "Configuration file path")
		command    = flag.String("cmd", "scrape", "Command to run: scrape, update, cleanup, cleanup-old, stats, sources")
		output     = flag.String("output", "console", "Output format: console, json")
		help       = flag.Bool("help", false, "Show help message")
	)
	flag.Parse()

	if *help {
		printUsage()
		os.Exit(0)
	}

	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	switch *command {
	case "scrape":
		runScrapeCommand(cfg, *output, false)
	case "update":
		runScrapeCommand(cfg, *output, true)
	case "cleanup":
		runCleanupCommand(cfg, *output)
	case "cleanup-old":
		runCleanupOldCommand(cfg, *output)
	case "stats":
		runStatsCommand(cfg, *output)
	case "sources":
		runSourcesCommand(cfg, *output)
	default:
		fmt.Printf("Unknown command: %s\n", *command)
		printUsage()
		os.Exit(1)
	}
}

func runScrapeCommand(cfg *config.Config, output string, updateOnly bool) {
	store := mustStore(cfg)
	logger := log.New(os.Stderr, "", log.LstdFlags)

	retention := scraper.RetentionConfig{
		ExpiredRetentionDays:  cfg.Retention.ExpiredRetentionDays,
		InactiveRetentionDays: cfg.Retention.InactiveRetentionDays,
	}
	pipeline := scraper.NewPipeline(buildRegistry(cfg), store, retention, logger)
	pipeline.SetConcurrency(cfg.Scraper.ConcurrentSources)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	var dataset *models.Dataset
	var err error
	if updateOnly {
		fmt.Println("Updating existing hackathons...")
		dataset, err = pipeline.UpdateExisting(ctx)
	} else {
		fmt.Println("Starting hackathon scraping...")
		dataset, err = pipeline.ScrapeAndSave(ctx)
	}
	if err != nil {
		log.Fatalf("Run failed: %v", err)
	}

	if output == "json" {
		printJSON(dataset)
		return
	}
	fmt.Printf("Saved %d unique hackathons (as of %s)\n",
		dataset.TotalCount, dataset.Timestamp.Format(time.RFC3339))
}

func runCleanupCommand(cfg *config.Config, output string) {
	store := mustStore(cfg)

	dataset, err := store.LoadDataset()
	if err != nil {
		log.Fatalf("No hackathon data found to clean up: %v", err)
	}

	originalCount := len(dataset.Hackathons)
	unique, removed := scraper.NewDeduplicator().RemoveDuplicates(dataset.Hackathons)
	if removed == 0 {
		fmt.Printf("No duplicates found (%d hackathons)\n", originalCount)
		return
	}

	cleaned := models.NewDataset(unique, time.Now().UTC())
	if err := store.SaveDataset(cleaned); err != nil {
		log.Fatalf("Failed to save cleaned dataset: %v", err)
	}

	if output == "json" {
		printJSON(map[string]int{
			"originalCount":     originalCount,
			"finalCount":        cleaned.TotalCount,
			"duplicatesRemoved": removed,
		})
		return
	}
	fmt.Printf("Removed %d duplicates, %d hackathons remaining\n", removed, cleaned.TotalCount)
}

func runCleanupOldCommand(cfg *config.Config, output string) {
	store := mustStore(cfg)

	dataset, err := store.LoadDataset()
	if err != nil {
		log.Fatalf("No hackathon data found to clean up: %v", err)
	}

	retention := scraper.RetentionConfig{
		ExpiredRetentionDays:  cfg.Retention.ExpiredRetentionDays,
		InactiveRetentionDays: cfg.Retention.InactiveRetentionDays,
	}
	survivors, removed := scraper.Cleanup(dataset.Hackathons, retention, time.Now().UTC())
	if removed == 0 {
		fmt.Printf("No old hackathons found to clean up (%d hackathons)\n", len(dataset.Hackathons))
		return
	}

	cleaned := models.NewDataset(survivors, time.Now().UTC())
	if err := store.SaveDataset(cleaned); err != nil {
		log.Fatalf("Failed to save cleaned dataset: %v", err)
	}

	if output == "json" {
		printJSON(map[string]int{
			"originalCount": len(dataset.Hackathons),
			"finalCount":    cleaned.TotalCount,
			"removedCount":  removed,
		})
		return
	}
	fmt.Printf("Removed %d old hackathons, %d remaining\n", removed, cleaned.TotalCount)
}

func runStatsCommand(cfg *config.Config, output string) {
	store := mustStore(cfg)

	entries, err := store.LoadRunLog()
	if err != nil {
		log.Fatalf("Failed to load run log: %v", err)
	}

	if output == "json" {
		printJSON(entries)
		return
	}

	fmt.Printf("Scraping sessions: %d\n", len(entries))
	for _, entry := range entries {
		fmt.Printf("  %s — %d hackathons (%d scraped, %d duplicates removed)\n",
			entry.Timestamp.Format(time.RFC3339), entry.TotalListings,
			entry.OriginalCount, entry.DuplicatesRemoved)
	}
}

func runSourcesCommand(cfg *config.Config, output string) {
	registry := buildRegistry(cfg)

	if output == "json" {
		names := make(map[string]bool)
		for name := range registry.Sources() {
			_, enabled := registry.EnabledSources()[name]
			names[name] = enabled
		}
		printJSON(names)
		return
	}

	fmt.Println("Registered sources:")
	for name, source := range registry.Sources() {
		status := "disabled"
		if _, ok := registry.EnabledSources()[name]; ok {
			status = "enabled"
		}
		fmt.Printf("  %-15s %-8s rate=%d/min  %s\n", name, status, source.RateLimit(), source.BaseURL())
	}
}

func mustStore(cfg *config.Config) storage.Store {
	switch cfg.Storage.Backend {
	case "file":
		return storage.NewFileStore(cfg.Storage.DataDir)
	case "postgres":
		store, err := storage.NewPostgresStore(cfg.Storage.PostgresDSN)
		if err != nil {
			log.Fatalf("Failed to initialize storage: %v", err)
		}
		return store
	case "supabase":
		store, err := storage.NewSupabaseStore(cfg.Storage.SupabaseURL, cfg.Storage.SupabaseKey)
		if err != nil {
			log.Fatalf("Failed to initialize storage: %v", err)
		}
		return store
	default:
		log.Fatalf("Unknown storage backend %q", cfg.Storage.Backend)
		return nil
	}
}

func buildRegistry(cfg *config.Config) *sources.Registry {
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

func printJSON(v any) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		log.Fatalf("Failed to encode output: %v", err)
	}
}

func printUsage() {
	fmt.Println(`Design Hackathon Scraper CLI

Usage:
  scraper-cli [flags]

Flags:
  -config string   Configuration file path (default "config.json")
  -cmd string      Command to run: scrape, update, cleanup, cleanup-old, stats, sources (default "scrape")
  -output string   Output format: console, json (default "console")
  -help            Show this message

Commands:
  scrape       Fetch all sources, reconcile with stored data, and save
  update       Refresh stored hackathons with fresh data
  cleanup      Remove duplicate hackathons from stored data
  cleanup-old  Remove expired and inactive hackathons past retention
  stats        Show run log statistics
  sources      List registered sources`)
}
