// Package mlengine is the boundary to the statistical threat model: training,
// persistence and inference behind small interfaces, with a reference
// nearest-centroid model as the default implementation.
package mlengine

import (
	"fmt"
	"time"

	"github.com/InfraSecConsult/ics-threat-classifier/internal/validation"
	"github.com/InfraSecConsult/ics-threat-classifier/lib/model"
)

// TrainingOptions controls model fitting.
type TrainingOptions struct {
	// UseGPU requests hardware acceleration when the model supports it.
	UseGPU bool `yaml:"use_gpu"`
	// ValidationFraction of the samples is held out to measure accuracy.
	ValidationFraction float64 `yaml:"validation_fraction" validate:"gte=0,lte=0.9"`
	// Seed fixes the hold-out split; nil seeds from the clock.
	Seed *int32 `yaml:"seed,omitempty"`
}

// DefaultTrainingOptions holds out 20% of the samples and trains on CPU.
func DefaultTrainingOptions() TrainingOptions {
	return TrainingOptions{ValidationFraction: 0.2}
}

// Validate checks the option bounds.
func (o TrainingOptions) Validate() error {
	return validation.Struct(o)
}

// TrainingReport summarises a Train call.
type TrainingReport struct {
	TrainingSamples    int           `json:"training_samples"`
	ValidationSamples  int           `json:"validation_samples"`
	ValidationAccuracy float64       `json:"validation_accuracy"` // 0 without a hold-out set
	Classes            int           `json:"classes"`
	Duration           time.Duration `json:"duration"`
}

// Prediction is the raw model output for one feature vector.
// Scores is indexed by ThreatCategory ordinal and sums to 1.
type Prediction struct {
	Label  model.ThreatCategory `json:"label"`
	Scores []float32            `json:"scores"`
}

// Confidence is the highest class score.
func (p Prediction) Confidence() (float64, error) {
	if len(p.Scores) == 0 {
		return 0, fmt.Errorf("prediction carries no class scores: %w", model.ErrInvalidArgument)
	}
	best := p.Scores[0]
	for _, s := range p.Scores[1:] {
		best = max(best, s)
	}
	return float64(best), nil
}

// Predictor runs inference with a loaded model.
type Predictor interface {
	// IsModelLoaded reports whether a model has been trained or loaded
	IsModelLoaded() bool
	// Predict scores every category for features
	Predict(features model.FeatureVector) (Prediction, error)
}

// Trainer fits, persists and restores models.
type Trainer interface {
	Predictor
	// Train fits a new model on samples, replacing any loaded one
	Train(samples []model.LabeledSample, options TrainingOptions) (TrainingReport, error)
	// Save writes the current model to path, creating parent directories
	Save(path string) error
	// Load replaces the current model with the one stored at path
	Load(path string) error
}
