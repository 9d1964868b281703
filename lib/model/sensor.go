package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SensorType describes where in the ICS network a sensor observes traffic.
type SensorType string

const (
	SensorTypeNetworkTap                    SensorType = "NetworkTap"
	SensorTypePlcMonitor                    SensorType = "PlcMonitor"
	SensorTypeHmiMonitor                    SensorType = "HmiMonitor"
	SensorTypeScadaProtocolAnalyzer         SensorType = "ScadaProtocolAnalyzer"
	SensorTypeBoundarySensor                SensorType = "BoundarySensor"
	SensorTypeEngineeringWorkstationMonitor SensorType = "EngineeringWorkstationMonitor"
)

// SensorID identifies a sensor. It is never empty.
type SensorID string

// NewSensorID returns a random identifier.
func NewSensorID() SensorID {
	return SensorID(strings.ReplaceAll(uuid.NewString(), "-", ""))
}

// ParseSensorID validates a caller supplied identifier.
func ParseSensorID(value string) (SensorID, error) {
	if strings.TrimSpace(value) == "" {
		return "", fmt.Errorf("sensor id must not be empty: %w", ErrInvalidArgument)
	}
	return SensorID(value), nil
}

// Sensor is a monitoring point in the control network.
type Sensor struct {
	ID       SensorID   `json:"id"`
	Location string     `json:"location"`
	Type     SensorType `json:"type"`
}

// NewSensor creates a sensor with a fresh identifier.
func NewSensor(location string, sensorType SensorType) (*Sensor, error) {
	s := &Sensor{ID: NewSensorID(), Location: location, Type: sensorType}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate validates the Sensor struct
func (s *Sensor) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("sensor id must not be empty: %w", ErrInvalidArgument)
	}
	if strings.TrimSpace(s.Location) == "" {
		return fmt.Errorf("sensor location must not be empty: %w", ErrInvalidArgument)
	}
	return nil
}

// SensorReading is one observation window reported by a sensor.
type SensorReading struct {
	Timestamp time.Time     `json:"timestamp"`
	SensorID  SensorID      `json:"sensor_id"`
	Features  FeatureVector `json:"features"`
}

// NewSensorReading stamps the features with the current UTC time.
func NewSensorReading(sensorID SensorID, features FeatureVector) *SensorReading {
	return &SensorReading{
		Timestamp: time.Now().UTC(),
		SensorID:  sensorID,
		Features:  features,
	}
}

// Validate validates the SensorReading struct
func (r *SensorReading) Validate() error {
	if r == nil {
		return fmt.Errorf("reading must not be nil: %w", ErrInvalidArgument)
	}
	if r.SensorID == "" {
		return fmt.Errorf("reading sensor id must not be empty: %w", ErrInvalidArgument)
	}
	return nil
}
