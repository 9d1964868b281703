package model

// LabeledSample pairs a feature vector with its ground-truth category.
type LabeledSample struct {
	Features FeatureVector  `json:"features"`
	Label    ThreatCategory `json:"label"`
}

// CountByLabel tallies samples per category.
func CountByLabel(samples []LabeledSample) map[ThreatCategory]int {
	counts := make(map[ThreatCategory]int, ThreatCategoryCount)
	for _, s := range samples {
		counts[s.Label]++
	}
	return counts
}
