package model

import (
	"fmt"
	"strings"
	"time"
)

// Engine names the classification strategy that produced a record.
type Engine string

const (
	EngineRuleBased Engine = "rule-based"
	EngineML        Engine = "ml"
)

// DatasetInfo describes a stored synthetic dataset.
type DatasetInfo struct {
	ID                 int64     `json:"id"`
	Name               string    `json:"name"`
	SamplesPerCategory int       `json:"samples_per_category"`
	Seed               *int32    `json:"seed,omitempty"`
	NoiseLevel         float64   `json:"noise_level"`
	SampleCount        int       `json:"sample_count"`
	CreatedAt          time.Time `json:"created_at"`
}

// Validate validates the DatasetInfo struct
func (d *DatasetInfo) Validate() error {
	if d == nil {
		return fmt.Errorf("dataset info must not be nil: %w", ErrInvalidArgument)
	}
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("dataset name must not be empty: %w", ErrInvalidArgument)
	}
	if d.SamplesPerCategory < 1 {
		return fmt.Errorf("samples per category must be at least 1, got %d: %w", d.SamplesPerCategory, ErrInvalidArgument)
	}
	if d.NoiseLevel < 0 {
		return fmt.Errorf("noise level must not be negative: %w", ErrInvalidArgument)
	}
	return nil
}

// ClassificationRecord is one persisted classification outcome.
type ClassificationRecord struct {
	ID       int64    `json:"id"`
	RunID    string   `json:"run_id"`
	SensorID SensorID `json:"sensor_id"`
	Engine   Engine   `json:"engine"`
	// Expected is set when the reading came from a labelled sample.
	Expected *ThreatCategory      `json:"expected,omitempty"`
	Result   ClassificationResult `json:"result"`
	Features FeatureVector        `json:"features"`
	// CreatedAt defaults to the insertion time when zero.
	CreatedAt time.Time `json:"created_at"`
}

// NewClassificationRecord captures result for reading.
func NewClassificationRecord(runID string, engine Engine, reading *SensorReading, result ClassificationResult) *ClassificationRecord {
	record := &ClassificationRecord{
		RunID:  runID,
		Engine: engine,
		Result: result,
	}
	if reading != nil {
		record.SensorID = reading.SensorID
		record.Features = reading.Features
		record.CreatedAt = reading.Timestamp
	}
	return record
}

// WithExpected labels the record and returns it.
func (r *ClassificationRecord) WithExpected(expected ThreatCategory) *ClassificationRecord {
	r.Expected = &expected
	return r
}

// Matches reports whether the record agrees with its label; unlabelled records never match.
func (r *ClassificationRecord) Matches() bool {
	return r.Expected != nil && *r.Expected == r.Result.Category
}

// Validate validates the ClassificationRecord struct
func (r *ClassificationRecord) Validate() error {
	if r == nil {
		return fmt.Errorf("classification record must not be nil: %w", ErrInvalidArgument)
	}
	if strings.TrimSpace(r.RunID) == "" {
		return fmt.Errorf("run id must not be empty: %w", ErrInvalidArgument)
	}
	if r.Engine == "" {
		return fmt.Errorf("engine must not be empty: %w", ErrInvalidArgument)
	}
	if !r.Result.Category.IsValid() {
		return fmt.Errorf("threat category %d: %w", int(r.Result.Category), ErrOutOfRange)
	}
	if r.Expected != nil && !r.Expected.IsValid() {
		return fmt.Errorf("expected threat category %d: %w", int(*r.Expected), ErrOutOfRange)
	}
	if !(r.Result.Confidence >= 0 && r.Result.Confidence <= 1) {
		return fmt.Errorf("confidence %v must be between 0.0 and 1.0: %w", r.Result.Confidence, ErrOutOfRange)
	}
	return nil
}
