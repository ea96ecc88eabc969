package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sort"
	"time"

	"github.com/KaushikeeBhatt/Hackathon-web-scrapper/internal/models"
	"github.com/KaushikeeBhatt/Hackathon-web-scrapper/internal/scraper"
	"github.com/KaushikeeBhatt/Hackathon-web-scrapper/internal/storage"
)

// Server exposes the aggregator over a small HTTP API, mirroring the
// endpoints external consumers already rely on.
type Server struct {
	pipeline   *scraper.Pipeline
	store      storage.Store
	retention  scraper.RetentionConfig
	logger     *log.Logger
	shutdownCh chan struct{}
}

// NewServer creates a server around the pipeline and store. Shutdown
// requests are signalled on the returned server's Shutdown channel.
func NewServer(pipeline *scraper.Pipeline, store storage.Store, retention scraper.RetentionConfig, logger *log.Logger) *Server {
	return &Server{
		pipeline:   pipeline,
		store:      store,
		retention:  retention,
		logger:     logger,
		shutdownCh: make(chan struct{}, 1),
	}
}

// Shutdown returns the channel signalled when /api/shutdown is called.
func (s *Server) Shutdown() <-chan struct{} {
	return s.shutdownCh
}

// Routes wires up all endpoints.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/hackathons", s.handleHackathons)
	mux.HandleFunc("/api/scrape", s.handleScrape)
	mux.HandleFunc("/api/stats", s.handleStats)
	mux.HandleFunc("/api/cleanup", s.handleCleanup)
	mux.HandleFunc("/api/update", s.handleUpdate)
	mux.HandleFunc("/api/cleanup-old", s.handleCleanupOld)
	mux.HandleFunc("/api/shutdown", s.handleShutdown)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"message":   "Design Hackathon API is running",
		"timestamp": time.Now().UTC(),
	})
}

func (s *Server) handleHackathons(w http.ResponseWriter, r *http.Request) {
	dataset, err := s.store.LoadDataset()
	if err != nil {
		if errors.Is(err, storage.ErrNoDataset) {
			s.writeError(w, http.StatusNotFound, "No hackathon data found. Run /api/scrape first.")
			return
		}
		s.logger.Printf("Error loading hackathons: %v", err)
		s.writeError(w, http.StatusInternalServerError, "Failed to load hackathons")
		return
	}
	s.writeJSON(w, http.StatusOK, dataset)
}

func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	if !s.requirePost(w, r) {
		return
	}

	s.logger.Printf("Manual scraping triggered via API")
	dataset, err := s.pipeline.ScrapeAndSave(r.Context())
	if err != nil {
		if errors.Is(err, scraper.ErrScrapeInFlight) {
			s.writeError(w, http.StatusConflict, "A scrape is already in progress")
			return
		}
		s.logger.Printf("Error during API scraping: %v", err)
		s.writeError(w, http.StatusInternalServerError, "Failed to scrape hackathons")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"message": "Scraping completed successfully",
		"data":    dataset,
	})
}

// statsResponse is the shape of /api/stats.
type statsResponse struct {
	TotalScrapingSessions   int                 `json:"totalScrapingSessions"`
	LatestScraping          *models.RunLogEntry `json:"latestScraping"`
	AverageHackathonsPerRun int                 `json:"averageHackathonsPerSession"`
	DesignStats             *designStats        `json:"designStats"`
}

type designStats struct {
	TotalDesignHackathons int                  `json:"totalDesignHackathons"`
	Sources               map[string]int       `json:"sources"`
	AverageRelevanceScore float64              `json:"averageRelevanceScore"`
	TopDesignHackathons   []topDesignHackathon `json:"topDesignHackathons"`
}

type topDesignHackathon struct {
	Title  string  `json:"title"`
	Score  float64 `json:"score"`
	Source string  `json:"source"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.LoadRunLog()
	if err != nil {
		s.logger.Printf("Error loading run log: %v", err)
		s.writeError(w, http.StatusInternalServerError, "Failed to load statistics")
		return
	}

	resp := statsResponse{TotalScrapingSessions: len(entries)}
	if len(entries) > 0 {
		latest := entries[len(entries)-1]
		resp.LatestScraping = &latest

		total := 0
		for _, entry := range entries {
			total += entry.TotalListings
		}
		resp.AverageHackathonsPerRun = total / len(entries)
	}

	if dataset, err := s.store.LoadDataset(); err == nil {
		resp.DesignStats = buildDesignStats(dataset)
	}

	s.writeJSON(w, http.StatusOK, resp)
}

func buildDesignStats(dataset *models.Dataset) *designStats {
	stats := &designStats{
		TotalDesignHackathons: len(dataset.Hackathons),
		Sources:               make(map[string]int),
	}

	var scoreSum float64
	for _, h := range dataset.Hackathons {
		source := h.Source
		if source == "" {
			source = "Unknown"
		}
		stats.Sources[source]++
		scoreSum += h.DesignRelevanceScore
	}
	if len(dataset.Hackathons) > 0 {
		stats.AverageRelevanceScore = scoreSum / float64(len(dataset.Hackathons))
	}

	ranked := make([]models.Hackathon, len(dataset.Hackathons))
	copy(ranked, dataset.Hackathons)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].DesignRelevanceScore > ranked[j].DesignRelevanceScore
	})
	if len(ranked) > 5 {
		ranked = ranked[:5]
	}
	for _, h := range ranked {
		stats.TopDesignHackathons = append(stats.TopDesignHackathons, topDesignHackathon{
			Title:  h.Title,
			Score:  h.DesignRelevanceScore,
			Source: h.Source,
		})
	}
	return stats
}

func (s *Server) handleCleanup(w http.ResponseWriter, r *http.Request) {
	if !s.requirePost(w, r) {
		return
	}

	dataset, ok := s.loadDatasetOr404(w, "No hackathon data found to clean up")
	if !ok {
		return
	}

	originalCount := len(dataset.Hackathons)
	dedup := scraper.NewDeduplicator()
	unique, duplicatesRemoved := dedup.RemoveDuplicates(dataset.Hackathons)

	if duplicatesRemoved == 0 {
		s.writeJSON(w, http.StatusOK, map[string]any{
			"message": "No duplicates found",
			"count":   originalCount,
		})
		return
	}

	cleaned := models.NewDataset(unique, time.Now().UTC())
	if err := s.store.SaveDataset(cleaned); err != nil {
		s.logger.Printf("Error during cleanup: %v", err)
		s.writeError(w, http.StatusInternalServerError, "Failed to clean up duplicates")
		return
	}
	s.logger.Printf("Cleaned up %d duplicates", duplicatesRemoved)

	s.writeJSON(w, http.StatusOK, map[string]any{
		"message":           "Cleanup completed successfully",
		"originalCount":     originalCount,
		"finalCount":        cleaned.TotalCount,
		"duplicatesRemoved": duplicatesRemoved,
	})
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if !s.requirePost(w, r) {
		return
	}

	s.logger.Printf("Manual update triggered via API")
	dataset, err := s.pipeline.UpdateExisting(r.Context())
	if err != nil {
		if errors.Is(err, scraper.ErrScrapeInFlight) {
			s.writeError(w, http.StatusConflict, "A scrape is already in progress")
			return
		}
		if errors.Is(err, storage.ErrNoDataset) {
			s.writeError(w, http.StatusNotFound, "No hackathon data found to update")
			return
		}
		s.logger.Printf("Error during update: %v", err)
		s.writeError(w, http.StatusInternalServerError, "Failed to update hackathons")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"message":      "Update completed successfully",
		"updatedCount": dataset.TotalCount,
		"data":         dataset,
	})
}

func (s *Server) handleCleanupOld(w http.ResponseWriter, r *http.Request) {
	if !s.requirePost(w, r) {
		return
	}

	dataset, ok := s.loadDatasetOr404(w, "No hackathon data found to clean up")
	if !ok {
		return
	}

	originalCount := len(dataset.Hackathons)
	survivors, removedCount := scraper.Cleanup(dataset.Hackathons, s.retention, time.Now().UTC())

	settings := map[string]int{
		"expiredAfterDays":  s.retention.ExpiredRetentionDays,
		"inactiveAfterDays": s.retention.InactiveRetentionDays,
	}

	if removedCount == 0 {
		s.writeJSON(w, http.StatusOK, map[string]any{
			"message":         "No old hackathons found to clean up",
			"count":           originalCount,
			"cleanupSettings": settings,
		})
		return
	}

	cleaned := models.NewDataset(survivors, time.Now().UTC())
	if err := s.store.SaveDataset(cleaned); err != nil {
		s.logger.Printf("Error during cleanup: %v", err)
		s.writeError(w, http.StatusInternalServerError, "Failed to clean up old hackathons")
		return
	}
	s.logger.Printf("Cleaned up %d old hackathons", removedCount)

	s.writeJSON(w, http.StatusOK, map[string]any{
		"message":         "Cleanup completed successfully",
		"originalCount":   originalCount,
		"finalCount":      cleaned.TotalCount,
		"removedCount":    removedCount,
		"cleanupSettings": settings,
	})
}

func (s *Server) handleShutdown(w http.ResponseWriter, r *http.Request) {
	if !s.requirePost(w, r) {
		return
	}

	s.logger.Printf("Manual shutdown triggered via API")
	s.writeJSON(w, http.StatusOK, map[string]any{
		"message":   "Shutdown initiated",
		"timestamp": time.Now().UTC(),
	})

	select {
	case s.shutdownCh <- struct{}{}:
	default:
	}
}

func (s *Server) loadDatasetOr404(w http.ResponseWriter, notFoundMsg string) (*models.Dataset, bool) {
	dataset, err := s.store.LoadDataset()
	if err != nil {
		if errors.Is(err, storage.ErrNoDataset) {
			s.writeError(w, http.StatusNotFound, notFoundMsg)
			return nil, false
		}
		s.logger.Printf("Error loading dataset: %v", err)
		s.writeError(w, http.StatusInternalServerError, "Failed to load hackathons")
		return nil, false
	}
	return dataset, true
}

func (s *Server) requirePost(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		// connection likely closed
		s.logger.Printf("Failed to write response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
