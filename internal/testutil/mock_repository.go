package testutil

import (
	"fmt"
	"sync"

	"github.com/InfraSecConsult/ics-threat-classifier/internal/repository"
	"github.com/InfraSecConsult/ics-threat-classifier/lib/model"
)

// MockRepository is an in-memory repository.Repository that records calls.
type MockRepository struct {
	repository.Repository

	mu              sync.Mutex
	Datasets        []*model.DatasetInfo
	DatasetSamples  map[int64][]model.LabeledSample
	Classifications []*model.ClassificationRecord
	KeyValues       map[string]string
	CommitCalled    bool
	CloseCalled     bool

	// SaveDatasetErr is returned by SaveDataset when set.
	SaveDatasetErr error
	// AddClassificationsErr is returned by AddClassification(s) when set.
	AddClassificationsErr error
}

func NewMockRepository() *MockRepository {
	return &MockRepository{
		DatasetSamples: make(map[int64][]model.LabeledSample),
		KeyValues:      make(map[string]string),
	}
}

func (m *MockRepository) SaveDataset(info *model.DatasetInfo, samples []model.LabeledSample) (int64, error) {
	if m.SaveDatasetErr != nil {
		return 0, m.SaveDatasetErr
	}
	if err := info.Validate(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DatasetSamples == nil {
		m.DatasetSamples = make(map[int64][]model.LabeledSample)
	}
	info.ID = int64(len(m.Datasets) + 1)
	info.SampleCount = len(samples)
	m.Datasets = append(m.Datasets, info)
	m.DatasetSamples[info.ID] = samples
	return info.ID, nil
}

func (m *MockRepository) LoadDataset(id int64) (*model.DatasetInfo, []model.LabeledSample, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, info := range m.Datasets {
		if info.ID == id {
			return info, m.DatasetSamples[id], nil
		}
	}
	return nil, nil, fmt.Errorf("dataset %d: %w", id, repository.ErrNotFound)
}

func (m *MockRepository) ListDatasets() ([]*model.DatasetInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*model.DatasetInfo(nil), m.Datasets...), nil
}

func (m *MockRepository) AddClassification(record *model.ClassificationRecord) error {
	return m.AddClassifications([]*model.ClassificationRecord{record})
}

func (m *MockRepository) AddClassifications(records []*model.ClassificationRecord) error {
	if m.AddClassificationsErr != nil {
		return m.AddClassificationsErr
	}
	for _, record := range records {
		if err := record.Validate(); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, record := range records {
		record.ID = int64(len(m.Classifications) + 1)
		m.Classifications = append(m.Classifications, record)
	}
	return nil
}

func (m *MockRepository) GetClassifications(runID string) ([]*model.ClassificationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var records []*model.ClassificationRecord
	for _, record := range m.Classifications {
		if record.RunID == runID {
			records = append(records, record)
		}
	}
	return records, nil
}

func (m *MockRepository) SetKeyValue(key, value string) error {
	if key == "" {
		return fmt.Errorf("key must not be empty: %w", model.ErrInvalidArgument)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.KeyValues == nil {
		m.KeyValues = make(map[string]string)
	}
	m.KeyValues[key] = value
	return nil
}

func (m *MockRepository) GetKeyValue(key string) (string, bool, error) {
	if key == "" {
		return "", false, fmt.Errorf("key must not be empty: %w", model.ErrInvalidArgument)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.KeyValues[key]
	return value, ok, nil
}

func (m *MockRepository) DeleteKeyValue(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.KeyValues, key)
	return nil
}

func (m *MockRepository) GetAllKeyValues() (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kv := make(map[string]string, len(m.KeyValues))
	for k, v := range m.KeyValues {
		kv[k] = v
	}
	return kv, nil
}

func (m *MockRepository) Commit() error {
	m.CommitCalled = true
	return nil
}

func (m *MockRepository) Close() error {
	m.CloseCalled = true
	return nil
}
