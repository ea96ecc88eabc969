package storage

import (
	"fmt"
	"os"
	"time"

	supabase "github.com/nedpals/supabase-go"

	"github.com/KaushikeeBhatt/Hackathon-web-scrapper/internal/models"
)

// SupabaseStore backs the record store with Supabase tables ("hackathons",
// "dataset_info", "scrape_log"). Unlike the Postgres store there is no
// transaction around the snapshot replace; the REST calls run in sequence.
// Acceptable under the single-writer model, but the Postgres or file store
// is the safer default.
type SupabaseStore struct {
	client *supabase.Client
}

// supabaseDatasetInfo is the single metadata row for the snapshot.
type supabaseDatasetInfo struct {
	ID         int       `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	TotalCount int       `json:"total_count"`
}

// NewSupabaseStore creates a SupabaseStore. It reads SUPABASE_URL and
// SUPABASE_KEY from environment variables if empty values are provided.
func NewSupabaseStore(supabaseURL, supabaseKey string) (*SupabaseStore, error) {
	if supabaseURL == "" {
		supabaseURL = os.Getenv("SUPABASE_URL")
	}
	if supabaseKey == "" {
		supabaseKey = os.Getenv("SUPABASE_KEY")
	}
	if supabaseURL == "" || supabaseKey == "" {
		return nil, fmt.Errorf("supabase URL and key must be provided via args or SUPABASE_URL / SUPABASE_KEY env vars")
	}

	client := supabase.CreateClient(supabaseURL, supabaseKey)
	return &SupabaseStore{client: client}, nil
}

// LoadDataset reads the snapshot metadata and all listing rows.
func (s *SupabaseStore) LoadDataset() (*models.Dataset, error) {
	var infos []supabaseDatasetInfo
	if err := s.client.DB.From("dataset_info").Select("*").Execute(&infos); err != nil {
		return nil, fmt.Errorf("supabase: load dataset info: %w", err)
	}
	if len(infos) == 0 {
		return nil, ErrNoDataset
	}

	var hackathons []models.Hackathon
	if err := s.client.DB.From("hackathons").Select("*").Execute(&hackathons); err != nil {
		return nil, fmt.Errorf("supabase: load hackathons: %w", err)
	}

	return &models.Dataset{
		Timestamp:  infos[0].Timestamp,
		TotalCount: infos[0].TotalCount,
		Hackathons: hackathons,
	}, nil
}

// SaveDataset replaces all listing rows and the metadata row.
func (s *SupabaseStore) SaveDataset(dataset *models.Dataset) error {
	// Every row carries a status, so a not-equals filter on an impossible
	// value matches the whole table.
	if err := s.client.DB.From("hackathons").Delete().Neq("status", "__none__").Execute(nil); err != nil {
		return fmt.Errorf("supabase: clear hackathons: %w", err)
	}

	if len(dataset.Hackathons) > 0 {
		var inserted []models.Hackathon
		if err := s.client.DB.From("hackathons").Insert(dataset.Hackathons).Execute(&inserted); err != nil {
			return fmt.Errorf("supabase: insert hackathons: %w", err)
		}
	}

	if err := s.client.DB.From("dataset_info").Delete().Neq("id", "0").Execute(nil); err != nil {
		return fmt.Errorf("supabase: clear dataset info: %w", err)
	}
	info := supabaseDatasetInfo{ID: 1, Timestamp: dataset.Timestamp, TotalCount: dataset.TotalCount}
	var insertedInfo []supabaseDatasetInfo
	if err := s.client.DB.From("dataset_info").Insert(info).Execute(&insertedInfo); err != nil {
		return fmt.Errorf("supabase: save dataset info: %w", err)
	}
	return nil
}

// AppendRunLog inserts one run log row.
func (s *SupabaseStore) AppendRunLog(entry models.RunLogEntry) error {
	var inserted []models.RunLogEntry
	if err := s.client.DB.From("scrape_log").Insert(entry).Execute(&inserted); err != nil {
		return fmt.Errorf("supabase: append run log: %w", err)
	}
	return nil
}

// LoadRunLog reads every run log row.
func (s *SupabaseStore) LoadRunLog() ([]models.RunLogEntry, error) {
	var entries []models.RunLogEntry
	if err := s.client.DB.From("scrape_log").Select("*").Execute(&entries); err != nil {
		return nil, fmt.Errorf("supabase: load run log: %w", err)
	}
	return entries, nil
}
