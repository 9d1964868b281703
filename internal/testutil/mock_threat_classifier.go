package testutil

import (
	"github.com/InfraSecConsult/ics-threat-classifier/lib/model"
	"github.com/stretchr/testify/mock"
)

// MockThreatClassifier is a mock implementation of the ThreatClassifier interface
type MockThreatClassifier struct {
	mock.Mock
}

// Classify mocks the Classify method
func (m *MockThreatClassifier) Classify(reading *model.SensorReading) (model.ClassificationResult, error) {
	args := m.Called(reading)
	return args.Get(0).(model.ClassificationResult), args.Error(1)
}
