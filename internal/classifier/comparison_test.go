package classifier

import (
	"errors"
	"testing"

	"github.com/InfraSecConsult/ics-threat-classifier/internal/testutil"
	"github.com/InfraSecConsult/ics-threat-classifier/lib/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func referenceSamples() []model.LabeledSample {
	refs := testutil.ReferenceReadings()
	samples := make([]model.LabeledSample, len(refs))
	for i, ref := range refs {
		samples[i] = model.LabeledSample{Features: ref.Features, Label: ref.Expected}
	}
	return samples
}

func TestCompare_RuleEngineAgainstMock(t *testing.T) {
	samples := referenceSamples()
	ml := new(testutil.MockThreatClassifier)
	// the mock always answers "no threat", so only the None row agrees
	ml.On("Classify", mock.Anything).Return(model.NoThreat(""), nil)

	report, err := Compare(NewRuleBasedClassifier(), ml, samples)
	require.NoError(t, err)

	assert.Equal(t, len(samples), report.Total())
	assert.Equal(t, 1, report.Agreement)
	assert.InDelta(t, 1.0/11.0, report.AgreementRatio(), 1e-9)
	for i, row := range report.Rows {
		assert.Equal(t, samples[i].Label, row.Expected)
		require.NotNil(t, row.Reading)
		assert.Equal(t, samples[i].Features, row.Reading.Features)
		assert.NotEmpty(t, row.Reading.SensorID)
		assert.True(t, row.RuleMatch, row.Expected.String())
		assert.Equal(t, row.Expected == model.ThreatNone, row.BothMatch())
	}
	ml.AssertNumberOfCalls(t, "Classify", len(samples))
}

func TestCompare_PropagatesErrors(t *testing.T) {
	ml := new(testutil.MockThreatClassifier)
	ml.On("Classify", mock.Anything).Return(model.ClassificationResult{}, model.ErrModelNotLoaded)

	_, err := Compare(NewRuleBasedClassifier(), ml, referenceSamples())

	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrModelNotLoaded))
}

func TestCompare_RequiresBothClassifiers(t *testing.T) {
	_, err := Compare(NewRuleBasedClassifier(), nil, referenceSamples())
	assert.ErrorIs(t, err, model.ErrInvalidArgument)
}

func TestCompare_EmptySamples(t *testing.T) {
	report, err := Compare(NewRuleBasedClassifier(), NewRuleBasedClassifier(), nil)
	require.NoError(t, err)
	assert.Zero(t, report.Total())
	assert.Zero(t, report.AgreementRatio())
}

func TestFirstOfEachCategory(t *testing.T) {
	samples := []model.LabeledSample{
		{Label: model.ThreatDenialOfService, Features: model.FeatureVector{ConnectionRate: 1}},
		{Label: model.ThreatNone},
		{Label: model.ThreatDenialOfService, Features: model.FeatureVector{ConnectionRate: 2}},
		{Label: model.ThreatCategory(99)},
	}

	picked := FirstOfEachCategory(samples)

	require.Len(t, picked, 2)
	assert.Equal(t, model.ThreatNone, picked[0].Label)
	assert.Equal(t, model.ThreatDenialOfService, picked[1].Label)
	assert.Equal(t, float32(1), picked[1].Features.ConnectionRate)
}
