package model

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleVector() FeatureVector {
	return FeatureVector{
		AveragePacketSize:                 100,
		SuspiciousCommandCount:            5,
		FailedLoginRate:                   0.1,
		TrafficToEngineeringStationsRatio: 0.2,
		PlcConfigChangeRate:               0.3,
		HmiScreenChangeRate:               0.4,
		EncryptedTrafficRatio:             0.5,
		ExternalConnectionCount:           3,
		BroadcastTrafficRatio:             0.15,
		ProtocolViolationScore:            0.25,
		DataExfiltrationVolume:            10,
		CpuLoadAnomalyScore:               0.35,
		ProcessValueAnomalyScore:          0.45,
		ConnectionRate:                    20,
		DistinctProtocolCount:             4,
	}
}

func TestFeatureVector_ToArray(t *testing.T) {
	array := sampleVector().ToArray()

	require.Len(t, array, FeatureCount)
	assert.Equal(t, float32(100), array[0])
	assert.Equal(t, float32(5), array[1])
	assert.Equal(t, float32(0.1), array[2])
	assert.Equal(t, float32(3), array[7])
	assert.Equal(t, float32(4), array[14])
}

func TestFeatureNames(t *testing.T) {
	names := FeatureNames()
	require.Len(t, names, FeatureCount)
	assert.Equal(t, "AveragePacketSize", names[0])
	assert.Equal(t, "DistinctProtocolCount", names[FeatureCount-1])

	// callers get a copy
	names[0] = "changed"
	assert.Equal(t, "AveragePacketSize", FeatureNames()[0])
}

func TestFeatureVectorFromArray(t *testing.T) {
	original := sampleVector()
	restored, err := FeatureVectorFromArray(original.ToArray())
	require.NoError(t, err)
	assert.Equal(t, original, restored)

	_, err = FeatureVectorFromArray([]float32{1, 2, 3})
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestCountByLabel(t *testing.T) {
	samples := []LabeledSample{
		{Label: ThreatNone},
		{Label: ThreatDenialOfService},
		{Label: ThreatDenialOfService},
	}
	counts := CountByLabel(samples)
	assert.Equal(t, 1, counts[ThreatNone])
	assert.Equal(t, 2, counts[ThreatDenialOfService])
	assert.Equal(t, 0, counts[ThreatProtocolMisuse])
}

func TestFeatureVector_Validate(t *testing.T) {
	require.NoError(t, sampleVector().Validate())

	tests := []struct {
		name   string
		modify func(fv *FeatureVector)
	}{
		{"failed login rate above 1", func(fv *FeatureVector) { fv.FailedLoginRate = 1.5 }},
		{"encrypted ratio above 1", func(fv *FeatureVector) { fv.EncryptedTrafficRatio = 1.01 }},
		{"process anomaly above 1", func(fv *FeatureVector) { fv.ProcessValueAnomalyScore = 2 }},
		{"negative packet size", func(fv *FeatureVector) { fv.AveragePacketSize = -1 }},
		{"negative command count", func(fv *FeatureVector) { fv.SuspiciousCommandCount = -1 }},
		{"negative external connections", func(fv *FeatureVector) { fv.ExternalConnectionCount = -3 }},
		{"negative exfiltration volume", func(fv *FeatureVector) { fv.DataExfiltrationVolume = -0.5 }},
		{"no protocols", func(fv *FeatureVector) { fv.DistinctProtocolCount = 0 }},
		{"NaN connection rate", func(fv *FeatureVector) { fv.ConnectionRate = float32(math.NaN()) }},
		{"infinite packet size", func(fv *FeatureVector) { fv.AveragePacketSize = float32(math.Inf(1)) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fv := sampleVector()
			tt.modify(&fv)
			assert.ErrorIs(t, fv.Validate(), ErrOutOfRange)
		})
	}

	t.Run("boundaries are accepted", func(t *testing.T) {
		fv := sampleVector()
		fv.FailedLoginRate = 1
		fv.CpuLoadAnomalyScore = 0
		fv.DistinctProtocolCount = 1
		fv.ConnectionRate = 500
		assert.NoError(t, fv.Validate())
	})
}
