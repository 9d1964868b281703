package model

import (
	"fmt"
	"math"
)

// FeatureCount is the number of indicators in a FeatureVector.
const FeatureCount = 15

// FeatureVector holds the numeric indicators extracted from one observation window.
// Real-valued indicators are float32 and counts are int so that synthetic data stays
// bit-compatible with models trained on single-precision features.
type FeatureVector struct {
	AveragePacketSize                 float32 `json:"average_packet_size"`
	SuspiciousCommandCount            int     `json:"suspicious_command_count"`
	FailedLoginRate                   float32 `json:"failed_login_rate"`                     // [0,1]
	TrafficToEngineeringStationsRatio float32 `json:"traffic_to_engineering_stations_ratio"` // [0,1]
	PlcConfigChangeRate               float32 `json:"plc_config_change_rate"`
	HmiScreenChangeRate               float32 `json:"hmi_screen_change_rate"`
	EncryptedTrafficRatio             float32 `json:"encrypted_traffic_ratio"` // [0,1]
	ExternalConnectionCount           int     `json:"external_connection_count"`
	BroadcastTrafficRatio             float32 `json:"broadcast_traffic_ratio"`  // [0,1]
	ProtocolViolationScore            float32 `json:"protocol_violation_score"` // [0,1]
	DataExfiltrationVolume            float32 `json:"data_exfiltration_volume"` // MB, >= 0
	CpuLoadAnomalyScore               float32 `json:"cpu_load_anomaly_score"`
	ProcessValueAnomalyScore          float32 `json:"process_value_anomaly_score"`
	ConnectionRate                    float32 `json:"connection_rate"` // connections/s, >= 0
	DistinctProtocolCount             int     `json:"distinct_protocol_count"`
}

var featureNames = [FeatureCount]string{
	"AveragePacketSize",
	"SuspiciousCommandCount",
	"FailedLoginRate",
	"TrafficToEngineeringStationsRatio",
	"PlcConfigChangeRate",
	"HmiScreenChangeRate",
	"EncryptedTrafficRatio",
	"ExternalConnectionCount",
	"BroadcastTrafficRatio",
	"ProtocolViolationScore",
	"DataExfiltrationVolume",
	"CpuLoadAnomalyScore",
	"ProcessValueAnomalyScore",
	"ConnectionRate",
	"DistinctProtocolCount",
}

// FeatureNames returns the indicator names in canonical order.
func FeatureNames() []string {
	names := make([]string, FeatureCount)
	copy(names, featureNames[:])
	return names
}

// ToArray flattens the vector in canonical order.
func (fv FeatureVector) ToArray() []float32 {
	return []float32{
		fv.AveragePacketSize,
		float32(fv.SuspiciousCommandCount),
		fv.FailedLoginRate,
		fv.TrafficToEngineeringStationsRatio,
		fv.PlcConfigChangeRate,
		fv.HmiScreenChangeRate,
		fv.EncryptedTrafficRatio,
		float32(fv.ExternalConnectionCount),
		fv.BroadcastTrafficRatio,
		fv.ProtocolViolationScore,
		fv.DataExfiltrationVolume,
		fv.CpuLoadAnomalyScore,
		fv.ProcessValueAnomalyScore,
		fv.ConnectionRate,
		float32(fv.DistinctProtocolCount),
	}
}

// FeatureVectorFromArray is the inverse of ToArray. Count fields are truncated.
func FeatureVectorFromArray(values []float32) (FeatureVector, error) {
	if len(values) != FeatureCount {
		return FeatureVector{}, fmt.Errorf("expected %d features, got %d: %w", FeatureCount, len(values), ErrInvalidArgument)
	}
	return FeatureVector{
		AveragePacketSize:                 values[0],
		SuspiciousCommandCount:            int(values[1]),
		FailedLoginRate:                   values[2],
		TrafficToEngineeringStationsRatio: values[3],
		PlcConfigChangeRate:               values[4],
		HmiScreenChangeRate:               values[5],
		EncryptedTrafficRatio:             values[6],
		ExternalConnectionCount:           int(values[7]),
		BroadcastTrafficRatio:             values[8],
		ProtocolViolationScore:            values[9],
		DataExfiltrationVolume:            values[10],
		CpuLoadAnomalyScore:               values[11],
		ProcessValueAnomalyScore:          values[12],
		ConnectionRate:                    values[13],
		DistinctProtocolCount:             int(values[14]),
	}, nil
}

// Validate validates the FeatureVector struct: ratios and scores in [0,1],
// counts and volumes non-negative, at least one protocol, no NaN or Inf.
func (fv FeatureVector) Validate() error {
	values := fv.ToArray()
	for i, v := range values {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return fmt.Errorf("%s must be finite: %w", featureNames[i], ErrOutOfRange)
		}
		if v < 0 {
			return fmt.Errorf("%s must not be negative, got %v: %w", featureNames[i], v, ErrOutOfRange)
		}
	}
	for _, i := range unitIntervalFeatures {
		if values[i] > 1 {
			return fmt.Errorf("%s must be within [0,1], got %v: %w", featureNames[i], values[i], ErrOutOfRange)
		}
	}
	if fv.DistinctProtocolCount < 1 {
		return fmt.Errorf("DistinctProtocolCount must be at least 1, got %d: %w", fv.DistinctProtocolCount, ErrOutOfRange)
	}
	return nil
}

// indexes into ToArray of the indicators expressed as ratios or scores
var unitIntervalFeatures = []int{2, 3, 4, 5, 6, 8, 9, 11, 12}
