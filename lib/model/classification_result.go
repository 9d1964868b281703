package model

import "fmt"

const defaultNoThreatExplanation = "No threat indicators detected."

// ClassificationResult is the outcome of classifying one reading.
type ClassificationResult struct {
	Category    ThreatCategory `json:"category"`
	Confidence  float64        `json:"confidence"`
	Explanation string         `json:"explanation"`
}

// NewClassificationResult builds a result, rejecting confidences outside [0,1].
func NewClassificationResult(category ThreatCategory, confidence float64, explanation string) (ClassificationResult, error) {
	// NaN fails both comparisons, so check the accepted range instead of the rejected one
	if !(confidence >= 0.0 && confidence <= 1.0) {
		return ClassificationResult{}, fmt.Errorf("confidence %v must be between 0.0 and 1.0: %w", confidence, ErrOutOfRange)
	}
	return ClassificationResult{
		Category:    category,
		Confidence:  confidence,
		Explanation: explanation,
	}, nil
}

// NoThreat returns the baseline result with full confidence.
func NoThreat(explanation string) ClassificationResult {
	if explanation == "" {
		explanation = defaultNoThreatExplanation
	}
	return ClassificationResult{
		Category:    ThreatNone,
		Confidence:  1.0,
		Explanation: explanation,
	}
}

// IsThreatDetected reports whether the result names an actual threat.
func (r ClassificationResult) IsThreatDetected() bool {
	return r.Category != ThreatNone
}
