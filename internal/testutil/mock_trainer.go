package testutil

import (
	"github.com/InfraSecConsult/ics-threat-classifier/internal/mlengine"
	"github.com/InfraSecConsult/ics-threat-classifier/lib/model"
	"github.com/stretchr/testify/mock"
)

// MockTrainer is a mock implementation of the mlengine.Trainer interface
type MockTrainer struct {
	mock.Mock
}

func (m *MockTrainer) IsModelLoaded() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockTrainer) Predict(features model.FeatureVector) (mlengine.Prediction, error) {
	args := m.Called(features)
	return args.Get(0).(mlengine.Prediction), args.Error(1)
}

func (m *MockTrainer) Train(samples []model.LabeledSample, options mlengine.TrainingOptions) (mlengine.TrainingReport, error) {
	args := m.Called(samples, options)
	return args.Get(0).(mlengine.TrainingReport), args.Error(1)
}

func (m *MockTrainer) Save(path string) error {
	args := m.Called(path)
	return args.Error(0)
}

func (m *MockTrainer) Load(path string) error {
	args := m.Called(path)
	return args.Error(0)
}
