package mlengine

import (
	"fmt"
	"sync"
	"time"

	"github.com/InfraSecConsult/ics-threat-classifier/internal/dataset"
	"github.com/InfraSecConsult/ics-threat-classifier/lib/model"
	"github.com/rs/zerolog/log"
)

// CentroidTrainer implements Trainer with the reference nearest-centroid model.
// It is safe for concurrent use; Train and Load swap the model atomically.
type CentroidTrainer struct {
	mu    sync.RWMutex
	model *centroidModel
	clock func() time.Time
}

// NewCentroidTrainer creates a trainer without a model.
func NewCentroidTrainer() *CentroidTrainer {
	return &CentroidTrainer{clock: time.Now}
}

// IsModelLoaded reports whether Train or Load succeeded.
func (t *CentroidTrainer) IsModelLoaded() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.model != nil
}

// Train fits the model on a shuffled split of samples and reports hold-out accuracy.
func (t *CentroidTrainer) Train(samples []model.LabeledSample, options TrainingOptions) (TrainingReport, error) {
	if err := options.Validate(); err != nil {
		return TrainingReport{}, err
	}
	if len(samples) == 0 {
		return TrainingReport{}, fmt.Errorf("cannot train on an empty dataset: %w", model.ErrInvalidArgument)
	}
	if options.UseGPU {
		log.Warn().Msg("GPU acceleration is not available for the centroid model, training on CPU")
	}

	started := t.clock()
	seed := int32(started.UnixNano())
	if options.Seed != nil {
		seed = *options.Seed
	}
	train, holdout := splitSamples(samples, options.ValidationFraction, dataset.NewSubtractiveSource(seed))

	fitted, err := fitCentroidModel(train)
	if err != nil {
		return TrainingReport{}, err
	}

	report := TrainingReport{
		TrainingSamples:   len(train),
		ValidationSamples: len(holdout),
	}
	for _, c := range fitted.Centroids {
		if c != nil {
			report.Classes++
		}
	}
	if len(holdout) > 0 {
		correct := 0
		for _, s := range holdout {
			if fitted.predict(s.Features).Label == s.Label {
				correct++
			}
		}
		report.ValidationAccuracy = float64(correct) / float64(len(holdout))
	}
	report.Duration = t.clock().Sub(started)

	t.mu.Lock()
	t.model = fitted
	t.mu.Unlock()

	log.Info().
		Int("training_samples", report.TrainingSamples).
		Int("validation_samples", report.ValidationSamples).
		Float64("validation_accuracy", report.ValidationAccuracy).
		Int("classes", report.Classes).
		Msg("Model training completed")
	return report, nil
}

// Save writes the trained model. Saving before training fails with model.ErrModelNotLoaded.
func (t *CentroidTrainer) Save(path string) error {
	t.mu.RLock()
	m := t.model
	t.mu.RUnlock()
	if m == nil {
		return fmt.Errorf("no trained model available, call Train first: %w", model.ErrModelNotLoaded)
	}
	if err := saveModelFile(path, m); err != nil {
		return err
	}
	log.Debug().Str("path", path).Msg("Model saved")
	return nil
}

// Load replaces the current model. A missing file fails with model.ErrModelNotFound
// and leaves the current model untouched.
func (t *CentroidTrainer) Load(path string) error {
	m, err := loadModelFile(path)
	if err != nil {
		return err
	}
	t.mu.Lock()
	t.model = m
	t.mu.Unlock()
	log.Debug().Str("path", path).Msg("Model loaded")
	return nil
}

// Predict scores features with the current model.
func (t *CentroidTrainer) Predict(features model.FeatureVector) (Prediction, error) {
	t.mu.RLock()
	m := t.model
	t.mu.RUnlock()
	if m == nil {
		return Prediction{}, fmt.Errorf("model is not loaded, train or load a model first: %w", model.ErrModelNotLoaded)
	}
	return m.predict(features), nil
}

// splitSamples shuffles a copy of samples and holds out fraction of them,
// always keeping at least one training sample.
func splitSamples(samples []model.LabeledSample, fraction float64, source dataset.Source) (train, holdout []model.LabeledSample) {
	shuffled := make([]model.LabeledSample, len(samples))
	copy(shuffled, samples)
	for n := len(shuffled); n > 1; {
		n--
		k := source.Next(n + 1)
		shuffled[k], shuffled[n] = shuffled[n], shuffled[k]
	}

	holdoutSize := int(float64(len(shuffled)) * fraction)
	if holdoutSize >= len(shuffled) {
		holdoutSize = len(shuffled) - 1
	}
	return shuffled[holdoutSize:], shuffled[:holdoutSize]
}
