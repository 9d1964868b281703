// Package metrics exposes classifier activity as Prometheus metrics.
package metrics

import (
	"fmt"
	"strings"

	"github.com/InfraSecConsult/ics-threat-classifier/lib/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder holds all metrics for the application
type Recorder struct {
	ClassificationsTotal     *prometheus.CounterVec
	ClassificationConfidence *prometheus.HistogramVec
	ClassificationErrors     *prometheus.CounterVec
	GeneratedSamplesTotal    *prometheus.CounterVec

	TrainingSamples    prometheus.Gauge
	ValidationAccuracy prometheus.Gauge
	TrainingDuration   prometheus.Gauge

	registry *prometheus.Registry
}

// NewRecorder creates a recorder backed by its own registry.
func NewRecorder() *Recorder {
	r := &Recorder{registry: prometheus.NewRegistry()}
	r.initClassificationMetrics()
	r.initDatasetMetrics()
	r.initTrainingMetrics()
	return r
}

func (r *Recorder) initClassificationMetrics() {
	r.ClassificationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "ics_classifications_total",
			Help: "Total number of classified sensor readings",
		},
		[]string{"engine", "category"},
	)

	r.ClassificationConfidence = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ics_classification_confidence",
			Help:    "Confidence of classification results",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		},
		[]string{"engine"},
	)

	r.ClassificationErrors = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "ics_classification_errors_total",
			Help: "Total number of failed classifications",
		},
		[]string{"engine"},
	)
}

func (r *Recorder) initDatasetMetrics() {
	r.GeneratedSamplesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "ics_generated_samples_total",
			Help: "Total number of generated synthetic samples",
		},
		[]string{"category"},
	)
}

func (r *Recorder) initTrainingMetrics() {
	r.TrainingSamples = promauto.With(r.registry).NewGauge(prometheus.GaugeOpts{
		Name: "ics_model_training_samples",
		Help: "Number of samples used by the last training run",
	})
	r.ValidationAccuracy = promauto.With(r.registry).NewGauge(prometheus.GaugeOpts{
		Name: "ics_model_validation_accuracy",
		Help: "Hold-out accuracy of the last training run",
	})
	r.TrainingDuration = promauto.With(r.registry).NewGauge(prometheus.GaugeOpts{
		Name: "ics_model_training_duration_seconds",
		Help: "Duration of the last training run in seconds",
	})
}

// RecordClassification records one classification outcome.
func (r *Recorder) RecordClassification(engine model.Engine, result model.ClassificationResult) {
	r.ClassificationsTotal.WithLabelValues(string(engine), result.Category.String()).Inc()
	r.ClassificationConfidence.WithLabelValues(string(engine)).Observe(result.Confidence)
}

// RecordClassificationError counts a failed classification.
func (r *Recorder) RecordClassificationError(engine model.Engine) {
	r.ClassificationErrors.WithLabelValues(string(engine)).Inc()
}

// RecordDataset counts generated samples per label.
func (r *Recorder) RecordDataset(samples []model.LabeledSample) {
	for category, n := range model.CountByLabel(samples) {
		r.GeneratedSamplesTotal.WithLabelValues(category.String()).Add(float64(n))
	}
}

// RecordTraining records the outcome of a training run.
func (r *Recorder) RecordTraining(trainingSamples int, validationAccuracy float64, seconds float64) {
	r.TrainingSamples.Set(float64(trainingSamples))
	r.ValidationAccuracy.Set(validationAccuracy)
	r.TrainingDuration.Set(seconds)
}

// Gatherer returns the underlying Prometheus registry
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteTextfile writes all metrics in the node exporter textfile format.
func (r *Recorder) WriteTextfile(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("metrics file path must not be empty: %w", model.ErrInvalidArgument)
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics to %s: %w", path, err)
	}
	return nil
}
