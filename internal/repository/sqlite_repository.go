package repository

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/InfraSecConsult/ics-threat-classifier/lib/model"
	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteRepository(path string) (*SQLiteRepository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("database path must not be empty: %w", model.ErrInvalidArgument)
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// a single connection keeps ":memory:" databases shared across statements
	db.SetMaxOpenConns(1)
	repo := &SQLiteRepository{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
	if err := repo.createTables(); err != nil {
		db.Close()
		return nil, err
	}
	return repo, nil
}

func (r *SQLiteRepository) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS datasets (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			samples_per_category INTEGER NOT NULL,
			seed INTEGER,
			noise_level REAL NOT NULL,
			sample_count INTEGER NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS dataset_samples (
			dataset_id INTEGER NOT NULL,
			position INTEGER NOT NULL,
			label TEXT NOT NULL,
			features TEXT NOT NULL,
			PRIMARY KEY (dataset_id, position),
			FOREIGN KEY(dataset_id) REFERENCES datasets(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS classifications (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			sensor_id TEXT,
			engine TEXT NOT NULL,
			expected TEXT,
			category TEXT NOT NULL,
			confidence REAL NOT NULL,
			explanation TEXT NOT NULL,
			features TEXT NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_classifications_run_id ON classifications(run_id);`,
		`CREATE TABLE IF NOT EXISTS key_values (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
	}
	for _, q := range queries {
		if _, err := r.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// SaveDataset stores the dataset header and all samples in a single transaction.
func (r *SQLiteRepository) SaveDataset(info *model.DatasetInfo, samples []model.LabeledSample) (int64, error) {
	if err := info.Validate(); err != nil {
		return 0, err
	}
	if info.CreatedAt.IsZero() {
		info.CreatedAt = r.now()
	}
	info.SampleCount = len(samples)

	tx, err := r.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var seed interface{}
	if info.Seed != nil {
		seed = int64(*info.Seed)
	}
	result, err := tx.Exec(
		`INSERT INTO datasets (name, samples_per_category, seed, noise_level, sample_count, created_at) VALUES (?, ?, ?, ?, ?, ?);`,
		info.Name,
		info.SamplesPerCategory,
		seed,
		info.NoiseLevel,
		info.SampleCount,
		info.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		if sqliteErr, ok := err.(sqlite3.Error); ok && sqliteErr.Code == sqlite3.ErrConstraint {
			return 0, fmt.Errorf("dataset %q: %w", info.Name, ErrDuplicate)
		}
		return 0, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.Prepare(`INSERT INTO dataset_samples (dataset_id, position, label, features) VALUES (?, ?, ?, ?);`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for i, sample := range samples {
		if !sample.Label.IsValid() {
			return 0, fmt.Errorf("sample %d label %d: %w", i, int(sample.Label), model.ErrOutOfRange)
		}
		featuresJSON, err := json.Marshal(sample.Features)
		if err != nil {
			return 0, err
		}
		if _, err := stmt.Exec(id, i, sample.Label.String(), string(featuresJSON)); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	info.ID = id
	log.Debug().Int64("id", id).Str("name", info.Name).Int("samples", len(samples)).Msg("Stored dataset")
	return id, nil
}

// LoadDataset returns the dataset header and its samples in their stored order.
func (r *SQLiteRepository) LoadDataset(id int64) (*model.DatasetInfo, []model.LabeledSample, error) {
	row := r.db.QueryRow(`SELECT id, name, samples_per_category, seed, noise_level, sample_count, created_at FROM datasets WHERE id = ?;`, id)
	info, err := scanDataset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("dataset %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, nil, err
	}

	rows, err := r.db.Query(`SELECT label, features FROM dataset_samples WHERE dataset_id = ? ORDER BY position;`, id)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	samples := make([]model.LabeledSample, 0, info.SampleCount)
	for rows.Next() {
		var label, featuresJSON string
		if err := rows.Scan(&label, &featuresJSON); err != nil {
			return nil, nil, err
		}
		category, err := model.ParseThreatCategory(label)
		if err != nil {
			return nil, nil, err
		}
		var features model.FeatureVector
		if err := json.Unmarshal([]byte(featuresJSON), &features); err != nil {
			return nil, nil, fmt.Errorf("decode features of dataset %d: %w", id, err)
		}
		samples = append(samples, model.LabeledSample{Features: features, Label: category})
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return info, samples, nil
}

func (r *SQLiteRepository) ListDatasets() ([]*model.DatasetInfo, error) {
	rows, err := r.db.Query(`SELECT id, name, samples_per_category, seed, noise_level, sample_count, created_at FROM datasets ORDER BY id;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var datasets []*model.DatasetInfo
	for rows.Next() {
		info, err := scanDataset(rows)
		if err != nil {
			return nil, err
		}
		datasets = append(datasets, info)
	}
	return datasets, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDataset(row rowScanner) (*model.DatasetInfo, error) {
	var (
		info      model.DatasetInfo
		seed      sql.NullInt64
		createdAt string
	)
	if err := row.Scan(&info.ID, &info.Name, &info.SamplesPerCategory, &seed, &info.NoiseLevel, &info.SampleCount, &createdAt); err != nil {
		return nil, err
	}
	if seed.Valid {
		s := int32(seed.Int64)
		info.Seed = &s
	}
	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, err
	}
	info.CreatedAt = ts
	return &info, nil
}

func (r *SQLiteRepository) AddClassification(record *model.ClassificationRecord) error {
	return r.AddClassifications([]*model.ClassificationRecord{record})
}

// AddClassifications inserts multiple classification records in a single transaction.
func (r *SQLiteRepository) AddClassifications(records []*model.ClassificationRecord) error {
	for _, record := range records {
		if err := record.Validate(); err != nil {
			return err
		}
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO classifications (run_id, sensor_id, engine, expected, category, confidence, explanation, features, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, record := range records {
		featuresJSON, err := json.Marshal(record.Features)
		if err != nil {
			return err
		}
		var expected interface{}
		if record.Expected != nil {
			expected = record.Expected.String()
		}
		if record.CreatedAt.IsZero() {
			record.CreatedAt = r.now()
		}
		result, err := stmt.Exec(
			record.RunID,
			string(record.SensorID),
			string(record.Engine),
			expected,
			record.Result.Category.String(),
			record.Result.Confidence,
			record.Result.Explanation,
			string(featuresJSON),
			record.CreatedAt.Format(time.RFC3339Nano),
		)
		if err != nil {
			return err
		}
		id, err := result.LastInsertId()
		if err != nil {
			return err
		}
		record.ID = id
	}
	return tx.Commit()
}

// GetClassifications returns the records of one run in insertion order.
func (r *SQLiteRepository) GetClassifications(runID string) ([]*model.ClassificationRecord, error) {
	rows, err := r.db.Query(`SELECT id, run_id, sensor_id, engine, expected, category, confidence, explanation, features, created_at FROM classifications WHERE run_id = ? ORDER BY id;`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*model.ClassificationRecord
	for rows.Next() {
		var (
			record       model.ClassificationRecord
			sensorID     sql.NullString
			engine       string
			expected     sql.NullString
			category     string
			featuresJSON string
			createdAt    string
		)
		if err := rows.Scan(&record.ID, &record.RunID, &sensorID, &engine, &expected, &category,
			&record.Result.Confidence, &record.Result.Explanation, &featuresJSON, &createdAt); err != nil {
			return nil, err
		}
		record.SensorID = model.SensorID(sensorID.String)
		record.Engine = model.Engine(engine)
		if expected.Valid {
			e, err := model.ParseThreatCategory(expected.String)
			if err != nil {
				return nil, err
			}
			record.Expected = &e
		}
		if record.Result.Category, err = model.ParseThreatCategory(category); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(featuresJSON), &record.Features); err != nil {
			return nil, err
		}
		if record.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, err
		}
		records = append(records, &record)
	}
	return records, rows.Err()
}

func (r *SQLiteRepository) SetKeyValue(key, value string) error {
	if key == "" {
		return fmt.Errorf("key must not be empty: %w", model.ErrInvalidArgument)
	}
	_, err := r.db.Exec(`INSERT INTO key_values (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value;`, key, value)
	return err
}

// GetKeyValue reports whether key exists alongside its value.
func (r *SQLiteRepository) GetKeyValue(key string) (string, bool, error) {
	if key == "" {
		return "", false, fmt.Errorf("key must not be empty: %w", model.ErrInvalidArgument)
	}
	var value string
	err := r.db.QueryRow(`SELECT value FROM key_values WHERE key = ?;`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (r *SQLiteRepository) DeleteKeyValue(key string) error {
	if key == "" {
		return fmt.Errorf("key must not be empty: %w", model.ErrInvalidArgument)
	}
	_, err := r.db.Exec(`DELETE FROM key_values WHERE key = ?;`, key)
	return err
}

func (r *SQLiteRepository) GetAllKeyValues() (map[string]string, error) {
	rows, err := r.db.Query(`SELECT key, value FROM key_values;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	kv := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		kv[k] = v
	}
	return kv, rows.Err()
}

func (r *SQLiteRepository) Commit() error {
	// No-op for now (autocommit)
	return nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}
