package mlengine

import (
	"fmt"
	"math"

	"github.com/InfraSecConsult/ics-threat-classifier/lib/model"
	"github.com/rs/zerolog/log"
)

// Classifier adapts a Predictor to the threat classifier contract.
type Classifier struct {
	predictor Predictor
}

// NewClassifier wraps predictor.
func NewClassifier(predictor Predictor) *Classifier {
	return &Classifier{predictor: predictor}
}

// IsModelLoaded reports whether the underlying model is ready for inference.
func (c *Classifier) IsModelLoaded() bool {
	return c.predictor != nil && c.predictor.IsModelLoaded()
}

// Classify predicts the category of reading. Confidence is the highest class score.
func (c *Classifier) Classify(reading *model.SensorReading) (model.ClassificationResult, error) {
	if reading == nil {
		return model.ClassificationResult{}, fmt.Errorf("reading must not be nil: %w", model.ErrInvalidArgument)
	}
	if !c.IsModelLoaded() {
		return model.ClassificationResult{}, fmt.Errorf("ML model is not loaded, train or load a model first: %w", model.ErrModelNotLoaded)
	}

	prediction, err := c.predictor.Predict(reading.Features)
	if err != nil {
		return model.ClassificationResult{}, err
	}
	confidence, err := prediction.Confidence()
	if err != nil {
		return model.ClassificationResult{}, fmt.Errorf("cannot compute ML confidence: %w", err)
	}

	log.Debug().
		Str("sensor_id", string(reading.SensorID)).
		Stringer("category", prediction.Label).
		Float64("confidence", confidence).
		Msg("ML classification")

	return model.NewClassificationResult(prediction.Label, confidence, explain(prediction.Label, confidence))
}

func confidenceBand(confidence float64) string {
	switch {
	case confidence >= 0.9:
		return "high"
	case confidence >= 0.7:
		return "medium-high"
	case confidence >= 0.5:
		return "medium"
	default:
		return "low"
	}
}

func explain(category model.ThreatCategory, confidence float64) string {
	percent := math.Round(confidence * 100)
	if category == model.ThreatNone {
		return fmt.Sprintf("ML model classification: no threat detected (confidence: %.0f%%).", percent)
	}
	return fmt.Sprintf("ML model classification: detected threat %s with %s confidence (%.0f%%).",
		category, confidenceBand(confidence), percent)
}
