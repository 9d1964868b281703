package repository

import (
	"errors"

	"github.com/InfraSecConsult/ics-threat-classifier/lib/model"
)

var (
	// ErrNotFound is returned when a requested dataset does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a dataset name is already taken.
	ErrDuplicate = errors.New("already exists")
)

// Repository defines the contract for storing datasets, classification records and metadata.
type Repository interface {
	// Dataset operations
	SaveDataset(info *model.DatasetInfo, samples []model.LabeledSample) (int64, error)
	LoadDataset(id int64) (*model.DatasetInfo, []model.LabeledSample, error)
	ListDatasets() ([]*model.DatasetInfo, error)

	// Classification operations
	AddClassification(record *model.ClassificationRecord) error
	// Batch classification operations for performance
	AddClassifications(records []*model.ClassificationRecord) error
	GetClassifications(runID string) ([]*model.ClassificationRecord, error)

	// Key/value metadata
	SetKeyValue(key, value string) error
	GetKeyValue(key string) (string, bool, error)
	DeleteKeyValue(key string) error
	GetAllKeyValues() (map[string]string, error)

	// Transaction operations
	Commit() error
	Close() error
}
