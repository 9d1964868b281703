// Package classifier assigns threat categories to sensor readings and compares classification engines.
package classifier

import "github.com/InfraSecConsult/ics-threat-classifier/lib/model"

// ThreatClassifier defines the interface shared by all classification engines
type ThreatClassifier interface {
	// Classify returns the detected threat category for a reading together with a confidence and explanation
	Classify(reading *model.SensorReading) (model.ClassificationResult, error)
}
