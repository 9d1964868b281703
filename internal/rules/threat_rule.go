// Package rules encodes ICS threat detection knowledge as weighted indicator rules.
package rules

import (
	"math"

	"github.com/InfraSecConsult/ics-threat-classifier/lib/model"
)

// ThreatRule scores a feature vector for a single threat category.
// Score is always within [0,1]; Indicators lists the triggered indicators
// using the same predicates that contributed to the score.
type ThreatRule struct {
	Category   model.ThreatCategory
	Score      func(features model.FeatureVector) float64
	Indicators func(features model.FeatureVector) []string
}

// indicatorTerm is one weighted contribution to a rule score.
type indicatorTerm struct {
	triggered func(f model.FeatureVector) bool
	weight    func(f model.FeatureVector) float64
	describe  func(f model.FeatureVector) string
}

// newThreatRule derives both rule functions from one term list so the
// reported indicators can never drift from the scored ones.
func newThreatRule(category model.ThreatCategory, terms ...indicatorTerm) ThreatRule {
	return ThreatRule{
		Category: category,
		Score: func(f model.FeatureVector) float64 {
			score := 0.0
			for _, term := range terms {
				if term.triggered(f) {
					score += term.weight(f)
				}
			}
			return clamp01(score)
		},
		Indicators: func(f model.FeatureVector) []string {
			indicators := make([]string, 0, len(terms))
			for _, term := range terms {
				if term.triggered(f) {
					indicators = append(indicators, term.describe(f))
				}
			}
			return indicators
		},
	}
}

func clamp01(v float64) float64 {
	return math.Max(0.0, math.Min(v, 1.0))
}

// saturate scales v by divisor and caps it at 1.
func saturate(v, divisor float64) float64 {
	return math.Min(v/divisor, 1.0)
}
