package classifier

import (
	"fmt"

	"github.com/InfraSecConsult/ics-threat-classifier/lib/model"
)

// ComparisonRow holds both engines' verdicts for one labelled sample.
type ComparisonRow struct {
	Reading   *model.SensorReading       `json:"reading"`
	Expected  model.ThreatCategory       `json:"expected"`
	Rule      model.ClassificationResult `json:"rule"`
	ML        model.ClassificationResult `json:"ml"`
	RuleMatch bool                       `json:"rule_match"`
	MLMatch   bool                       `json:"ml_match"`
}

// BothMatch reports whether both engines agreed with the label.
func (r ComparisonRow) BothMatch() bool {
	return r.RuleMatch && r.MLMatch
}

// ComparisonReport summarises a side-by-side run of two engines.
type ComparisonReport struct {
	Rows      []ComparisonRow `json:"rows"`
	Agreement int             `json:"agreement"`
}

// Total is the number of compared samples.
func (r ComparisonReport) Total() int {
	return len(r.Rows)
}

// AgreementRatio is Agreement/Total, or 0 for an empty report.
func (r ComparisonReport) AgreementRatio() float64 {
	if len(r.Rows) == 0 {
		return 0
	}
	return float64(r.Agreement) / float64(len(r.Rows))
}

// Compare classifies every sample with both engines, in sample order.
func Compare(rule, ml ThreatClassifier, samples []model.LabeledSample) (ComparisonReport, error) {
	if rule == nil || ml == nil {
		return ComparisonReport{}, fmt.Errorf("both classifiers are required: %w", model.ErrInvalidArgument)
	}

	report := ComparisonReport{Rows: make([]ComparisonRow, 0, len(samples))}
	for i, sample := range samples {
		reading := model.NewSensorReading(model.NewSensorID(), sample.Features)

		ruleResult, err := rule.Classify(reading)
		if err != nil {
			return report, fmt.Errorf("rule-based classification of sample %d: %w", i, err)
		}
		mlResult, err := ml.Classify(reading)
		if err != nil {
			return report, fmt.Errorf("ml classification of sample %d: %w", i, err)
		}

		row := ComparisonRow{
			Reading:   reading,
			Expected:  sample.Label,
			Rule:      ruleResult,
			ML:        mlResult,
			RuleMatch: ruleResult.Category == sample.Label,
			MLMatch:   mlResult.Category == sample.Label,
		}
		if row.BothMatch() {
			report.Agreement++
		}
		report.Rows = append(report.Rows, row)
	}
	return report, nil
}

// FirstOfEachCategory picks the first sample of every category in ordinal order,
// skipping categories that have no sample.
func FirstOfEachCategory(samples []model.LabeledSample) []model.LabeledSample {
	var firsts [model.ThreatCategoryCount]*model.LabeledSample
	for i := range samples {
		label := samples[i].Label
		if label.IsValid() && firsts[label] == nil {
			firsts[label] = &samples[i]
		}
	}
	picked := make([]model.LabeledSample, 0, model.ThreatCategoryCount)
	for _, sample := range firsts {
		if sample != nil {
			picked = append(picked, *sample)
		}
	}
	return picked
}
