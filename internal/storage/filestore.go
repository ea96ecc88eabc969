package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/KaushikeeBhatt/Hackathon-web-scrapper/internal/models"
)

// FileStore persists the dataset and the run log as JSON files under a data
// directory. Writes go through a temp file plus rename, so a failed save
// never clobbers the previously saved dataset.
type FileStore struct {
	dataDir     string
	datasetFile string
	runLogFile  string
	filePerm    os.FileMode
}

// NewFileStore creates a FileStore rooted at dataDir. The directory is
// created on first save.
func NewFileStore(dataDir string) *FileStore {
	return &FileStore{
		dataDir:     dataDir,
		datasetFile: filepath.Join(dataDir, "hackathons.json"),
		runLogFile:  filepath.Join(dataDir, "scraping-log.json"),
		filePerm:    0644,
	}
}

// LoadDataset reads the persisted dataset. A missing file yields
// ErrNoDataset; a corrupt file yields a parse error the caller may also
// treat as "no existing dataset".
func (fs *FileStore) LoadDataset() (*models.Dataset, error) {
	data, err := os.ReadFile(fs.datasetFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoDataset
		}
		return nil, fmt.Errorf("failed to read dataset file: %w", err)
	}

	var dataset models.Dataset
	if err := json.Unmarshal(data, &dataset); err != nil {
		return nil, fmt.Errorf("failed to decode dataset file: %w", err)
	}
	return &dataset, nil
}

// SaveDataset atomically replaces the persisted dataset.
func (fs *FileStore) SaveDataset(dataset *models.Dataset) error {
	if err := os.MkdirAll(fs.dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	data, err := json.MarshalIndent(dataset, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode dataset: %w", err)
	}

	return fs.writeAtomic(fs.datasetFile, data)
}

// AppendRunLog appends one entry to the run log file.
func (fs *FileStore) AppendRunLog(entry models.RunLogEntry) error {
	if err := os.MkdirAll(fs.dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	entries, err := fs.LoadRunLog()
	if err != nil {
		return err
	}
	entries = append(entries, entry)

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode run log: %w", err)
	}
	return fs.writeAtomic(fs.runLogFile, data)
}

// LoadRunLog reads the run log. A missing or corrupt file yields an empty
// log: statistics are best-effort and must never fail a scrape.
func (fs *FileStore) LoadRunLog() ([]models.RunLogEntry, error) {
	data, err := os.ReadFile(fs.runLogFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read run log file: %w", err)
	}

	var entries []models.RunLogEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, nil
	}
	return entries, nil
}

// writeAtomic writes data to a sibling temp file and renames it into place.
func (fs *FileStore) writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(fs.dataDir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, fs.filePerm); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", filepath.Base(path), err)
	}
	return nil
}
