package storage

import (
	"errors"

	"github.com/KaushikeeBhatt/Hackathon-web-scrapper/internal/models"
)

// ErrNoDataset is returned by LoadDataset when nothing has been persisted
// yet. Callers treat it as "start from a fresh batch".
var ErrNoDataset = errors.New("no dataset found")

// Store is the durable mapping from a dataset to its listing collection plus
// an append-only run log. SaveDataset fully replaces the persisted dataset
// and must be all-or-nothing: a failed save leaves the prior dataset intact.
type Store interface {
	LoadDataset() (*models.Dataset, error)
	SaveDataset(dataset *models.Dataset) error
	AppendRunLog(entry models.RunLogEntry) error
	LoadRunLog() ([]models.RunLogEntry, error)
}
