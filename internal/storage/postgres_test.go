package storage

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaushikeeBhatt/Hackathon-web-scrapper/internal/models"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresStoreWithDB(db), mock
}

func TestPostgresLoadDatasetEmpty(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT timestamp, total_count FROM dataset_info`).
		WillReturnRows(sqlmock.NewRows([]string{"timestamp", "total_count"}))

	_, err := store.LoadDataset()
	assert.ErrorIs(t, err, ErrNoDataset)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLoadDataset(t *testing.T) {
	store, mock := newMockStore(t)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	deadline := now.AddDate(0, 0, 7)

	mock.ExpectQuery(`SELECT timestamp, total_count FROM dataset_info`).
		WillReturnRows(sqlmock.NewRows([]string{"timestamp", "total_count"}).AddRow(now, 1))

	mock.ExpectQuery(`SELECT title, link, description`).
		WillReturnRows(sqlmock.NewRows([]string{
			"title", "link", "description", "host", "prize", "image", "tags",
			"source", "design_relevance_score", "raw_deadline", "apply_by",
			"registration_deadline", "end_date", "deadline", "status",
			"last_updated", "scraped_at",
		}).AddRow(
			"UI Design Sprint", "https://example.com/1", "desc", "Acme", "$500",
			"", "{design,ui}", "Devpost", 0.05, "2025-06-08", "", "", "",
			deadline, models.StatusActive, now, now,
		))

	dataset, err := store.LoadDataset()
	require.NoError(t, err)

	assert.Equal(t, 1, dataset.TotalCount)
	require.Len(t, dataset.Hackathons, 1)
	h := dataset.Hackathons[0]
	assert.Equal(t, "UI Design Sprint", h.Title)
	assert.Equal(t, []string{"design", "ui"}, h.Tags)
	require.NotNil(t, h.Deadline)
	assert.True(t, h.Deadline.Equal(deadline))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSaveDatasetTransactional(t *testing.T) {
	store, mock := newMockStore(t)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	dataset := models.NewDataset([]models.Hackathon{
		{
			Title:       "UI Design Sprint",
			Link:        "https://example.com/1",
			Tags:        []string{"design"},
			Source:      "Devpost",
			Status:      models.StatusActive,
			LastUpdated: now,
		},
	}, now)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM hackathons`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectPrepare(`INSERT INTO hackathons`)
	mock.ExpectExec(`INSERT INTO hackathons`).
		WithArgs(
			"UI Design Sprint", "https://example.com/1", "", "", "", "",
			pq.Array([]string{"design"}), "Devpost", 0.0, "", "", "", "",
			nil, models.StatusActive, now, nil,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO dataset_info`).
		WithArgs(now, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, store.SaveDataset(dataset))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSaveDatasetRollsBackOnFailure(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM hackathons`).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := store.SaveDataset(models.NewDataset(nil, time.Now()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "clear hackathons")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAppendRunLog(t *testing.T) {
	store, mock := newMockStore(t)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	entry := models.RunLogEntry{
		ID:                "run-1",
		Timestamp:         now,
		TotalListings:     10,
		OriginalCount:     12,
		DuplicatesRemoved: 2,
		Sources:           map[string]int{"Devpost": 7},
	}

	mock.ExpectExec(`INSERT INTO scrape_log`).
		WithArgs("run-1", now, 10, 12, 2, []byte(`{"Devpost":7}`)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, store.AppendRunLog(entry))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLoadRunLog(t *testing.T) {
	store, mock := newMockStore(t)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT id, timestamp, total_listings`).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "timestamp", "total_listings", "original_count",
			"duplicates_removed", "sources",
		}).AddRow("run-1", now, 10, 12, 2, []byte(`{"Devpost":7,"Unstop":3}`)))

	entries, err := store.LoadRunLog()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "run-1", entries[0].ID)
	assert.Equal(t, 10, entries[0].TotalListings)
	assert.Equal(t, map[string]int{"Devpost": 7, "Unstop": 3}, entries[0].Sources)
	assert.NoError(t, mock.ExpectationsWereMet())
}
