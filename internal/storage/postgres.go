package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"

	"github.com/KaushikeeBhatt/Hackathon-web-scrapper/internal/models"
)

// PostgresStore backs the record store with PostgreSQL. The dataset is a
// full snapshot: SaveDataset replaces every row inside one transaction, so a
// failed save rolls back and the prior dataset stays intact.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection, verifies it, and runs schema
// migrations.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	ps := &PostgresStore{db: db}
	if err := ps.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return ps, nil
}

// NewPostgresStoreWithDB wraps an existing connection; migrations are the
// caller's concern. Used by tests.
func NewPostgresStoreWithDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (ps *PostgresStore) migrate() error {
	_, err := ps.db.Exec(`
		CREATE TABLE IF NOT EXISTS dataset_info (
			id          INTEGER PRIMARY KEY CHECK (id = 1),
			timestamp   TIMESTAMPTZ NOT NULL,
			total_count INTEGER     NOT NULL
		);

		CREATE TABLE IF NOT EXISTS hackathons (
			id                     SERIAL PRIMARY KEY,
			title                  TEXT        NOT NULL DEFAULT '',
			link                   TEXT        NOT NULL DEFAULT '',
			description            TEXT        NOT NULL DEFAULT '',
			host                   TEXT        NOT NULL DEFAULT '',
			prize                  TEXT        NOT NULL DEFAULT '',
			image                  TEXT        NOT NULL DEFAULT '',
			tags                   TEXT[]      NOT NULL DEFAULT '{}',
			source                 TEXT        NOT NULL DEFAULT '',
			design_relevance_score NUMERIC     NOT NULL DEFAULT 0,
			raw_deadline           TEXT        NOT NULL DEFAULT '',
			apply_by               TEXT        NOT NULL DEFAULT '',
			registration_deadline  TEXT        NOT NULL DEFAULT '',
			end_date               TEXT        NOT NULL DEFAULT '',
			deadline               TIMESTAMPTZ,
			status                 VARCHAR(10) NOT NULL DEFAULT 'active',
			last_updated           TIMESTAMPTZ NOT NULL,
			scraped_at             TIMESTAMPTZ
		);

		CREATE TABLE IF NOT EXISTS scrape_log (
			id                 TEXT PRIMARY KEY,
			timestamp          TIMESTAMPTZ NOT NULL,
			total_listings     INTEGER     NOT NULL,
			original_count     INTEGER     NOT NULL,
			duplicates_removed INTEGER     NOT NULL,
			sources            JSONB       NOT NULL DEFAULT '{}'
		);

		CREATE INDEX IF NOT EXISTS idx_hackathons_status   ON hackathons(status);
		CREATE INDEX IF NOT EXISTS idx_hackathons_deadline ON hackathons(deadline);
	`)
	return err
}

// LoadDataset reads the current snapshot. No dataset_info row means nothing
// was ever saved.
func (ps *PostgresStore) LoadDataset() (*models.Dataset, error) {
	dataset := &models.Dataset{}
	err := ps.db.QueryRow(`SELECT timestamp, total_count FROM dataset_info WHERE id = 1`).
		Scan(&dataset.Timestamp, &dataset.TotalCount)
	if err == sql.ErrNoRows {
		return nil, ErrNoDataset
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: load dataset info: %w", err)
	}

	rows, err := ps.db.Query(`
		SELECT title, link, description, host, prize, image, tags, source,
		       design_relevance_score, raw_deadline, apply_by,
		       registration_deadline, end_date, deadline, status,
		       last_updated, scraped_at
		FROM hackathons
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: load hackathons: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var h models.Hackathon
		if err := rows.Scan(
			&h.Title, &h.Link, &h.Description, &h.Host, &h.Prize, &h.Image,
			pq.Array(&h.Tags), &h.Source, &h.DesignRelevanceScore,
			&h.RawDeadline, &h.ApplyBy, &h.RegistrationDeadline, &h.EndDate,
			&h.Deadline, &h.Status, &h.LastUpdated, &h.ScrapedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan hackathon: %w", err)
		}
		dataset.Hackathons = append(dataset.Hackathons, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate hackathons: %w", err)
	}
	return dataset, nil
}

// SaveDataset replaces the snapshot in one transaction.
func (ps *PostgresStore) SaveDataset(dataset *models.Dataset) error {
	tx, err := ps.db.Begin()
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM hackathons`); err != nil {
		return fmt.Errorf("postgres: clear hackathons: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO hackathons (title, link, description, host, prize, image,
			tags, source, design_relevance_score, raw_deadline, apply_by,
			registration_deadline, end_date, deadline, status, last_updated,
			scraped_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
	`)
	if err != nil {
		return fmt.Errorf("postgres: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, h := range dataset.Hackathons {
		if _, err := stmt.Exec(
			h.Title, h.Link, h.Description, h.Host, h.Prize, h.Image,
			pq.Array(h.Tags), h.Source, h.DesignRelevanceScore,
			h.RawDeadline, h.ApplyBy, h.RegistrationDeadline, h.EndDate,
			h.Deadline, h.Status, h.LastUpdated, h.ScrapedAt,
		); err != nil {
			return fmt.Errorf("postgres: insert hackathon: %w", err)
		}
	}

	if _, err := tx.Exec(`
		INSERT INTO dataset_info (id, timestamp, total_count)
		VALUES (1, $1, $2)
		ON CONFLICT (id) DO UPDATE SET timestamp = $1, total_count = $2
	`, dataset.Timestamp, dataset.TotalCount); err != nil {
		return fmt.Errorf("postgres: save dataset info: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

// AppendRunLog inserts one run log row.
func (ps *PostgresStore) AppendRunLog(entry models.RunLogEntry) error {
	sources, err := json.Marshal(entry.Sources)
	if err != nil {
		return fmt.Errorf("postgres: encode sources: %w", err)
	}

	_, err = ps.db.Exec(`
		INSERT INTO scrape_log (id, timestamp, total_listings, original_count,
			duplicates_removed, sources)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, entry.ID, entry.Timestamp, entry.TotalListings, entry.OriginalCount,
		entry.DuplicatesRemoved, sources)
	if err != nil {
		return fmt.Errorf("postgres: append run log: %w", err)
	}
	return nil
}

// LoadRunLog reads the run log in chronological order.
func (ps *PostgresStore) LoadRunLog() ([]models.RunLogEntry, error) {
	rows, err := ps.db.Query(`
		SELECT id, timestamp, total_listings, original_count,
		       duplicates_removed, sources
		FROM scrape_log
		ORDER BY timestamp
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: load run log: %w", err)
	}
	defer rows.Close()

	var entries []models.RunLogEntry
	for rows.Next() {
		var entry models.RunLogEntry
		var sources []byte
		if err := rows.Scan(&entry.ID, &entry.Timestamp, &entry.TotalListings,
			&entry.OriginalCount, &entry.DuplicatesRemoved, &sources); err != nil {
			return nil, fmt.Errorf("postgres: scan run log entry: %w", err)
		}
		if err := json.Unmarshal(sources, &entry.Sources); err != nil {
			return nil, fmt.Errorf("postgres: decode sources: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Close closes the underlying connection pool.
func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}
