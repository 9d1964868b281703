package dataset

import (
	"fmt"

	"github.com/InfraSecConsult/ics-threat-classifier/lib/model"
)

// Distribution is a Gaussian (mean, standard deviation) pair.
type Distribution struct {
	Mean   float32 `json:"mean"`
	StdDev float32 `json:"std_dev"`
}

// FeatureProfile describes the typical signature of one threat category, one
// distribution per feature.
type FeatureProfile struct {
	AveragePacketSize                 Distribution
	SuspiciousCommandCount            Distribution
	FailedLoginRate                   Distribution
	TrafficToEngineeringStationsRatio Distribution
	PlcConfigChangeRate               Distribution
	HmiScreenChangeRate               Distribution
	EncryptedTrafficRatio             Distribution
	ExternalConnectionCount           Distribution
	BroadcastTrafficRatio             Distribution
	ProtocolViolationScore            Distribution
	DataExfiltrationVolume            Distribution
	CpuLoadAnomalyScore               Distribution
	ProcessValueAnomalyScore          Distribution
	ConnectionRate                    Distribution
	DistinctProtocolCount             Distribution
}

// ProfileFor returns the profile of category. Unknown categories fail with model.ErrOutOfRange.
func ProfileFor(category model.ThreatCategory) (FeatureProfile, error) {
	profile, ok := profiles[category]
	if !ok {
		return FeatureProfile{}, fmt.Errorf("no feature profile for threat category %s: %w", category, model.ErrOutOfRange)
	}
	return profile, nil
}

func d(mean, stdDev float32) Distribution {
	return Distribution{Mean: mean, StdDev: stdDev}
}

var profiles = map[model.ThreatCategory]FeatureProfile{
	// external sources, encrypted sessions and engineering station targets
	model.ThreatUnauthorizedRemoteAccess: {
		AveragePacketSize:                 d(400, 100),
		SuspiciousCommandCount:            d(1, 1),
		FailedLoginRate:                   d(0.25, 0.1),
		TrafficToEngineeringStationsRatio: d(0.55, 0.15),
		PlcConfigChangeRate:               d(0.1, 0.05),
		HmiScreenChangeRate:               d(0.15, 0.05),
		EncryptedTrafficRatio:             d(0.65, 0.15),
		ExternalConnectionCount:           d(12, 4),
		BroadcastTrafficRatio:             d(0.1, 0.05),
		ProtocolViolationScore:            d(0.15, 0.08),
		DataExfiltrationVolume:            d(5, 3),
		CpuLoadAnomalyScore:               d(0.2, 0.1),
		ProcessValueAnomalyScore:          d(0.1, 0.05),
		ConnectionRate:                    d(15, 8),
		DistinctProtocolCount:             d(4, 1),
	},
	// many out-of-whitelist commands with process side effects
	model.ThreatMaliciousCommandInjection: {
		AveragePacketSize:                 d(180, 50),
		SuspiciousCommandCount:            d(15, 5),
		FailedLoginRate:                   d(0.05, 0.03),
		TrafficToEngineeringStationsRatio: d(0.2, 0.1),
		PlcConfigChangeRate:               d(0.7, 0.15),
		HmiScreenChangeRate:               d(0.25, 0.1),
		EncryptedTrafficRatio:             d(0.1, 0.05),
		ExternalConnectionCount:           d(1, 1),
		BroadcastTrafficRatio:             d(0.05, 0.03),
		ProtocolViolationScore:            d(0.6, 0.15),
		DataExfiltrationVolume:            d(1, 0.5),
		CpuLoadAnomalyScore:               d(0.3, 0.1),
		ProcessValueAnomalyScore:          d(0.65, 0.15),
		ConnectionRate:                    d(8, 4),
		DistinctProtocolCount:             d(3, 1),
	},
	model.ThreatConfigurationTampering: {
		AveragePacketSize:                 d(350, 80),
		SuspiciousCommandCount:            d(3, 2),
		FailedLoginRate:                   d(0.1, 0.05),
		TrafficToEngineeringStationsRatio: d(0.65, 0.12),
		PlcConfigChangeRate:               d(0.85, 0.1),
		HmiScreenChangeRate:               d(0.7, 0.15),
		EncryptedTrafficRatio:             d(0.2, 0.1),
		ExternalConnectionCount:           d(2, 1),
		BroadcastTrafficRatio:             d(0.08, 0.04),
		ProtocolViolationScore:            d(0.35, 0.12),
		DataExfiltrationVolume:            d(3, 2),
		CpuLoadAnomalyScore:               d(0.25, 0.1),
		ProcessValueAnomalyScore:          d(0.4, 0.15),
		ConnectionRate:                    d(12, 5),
		DistinctProtocolCount:             d(4, 1),
	},
	// floods of large packets and broadcasts
	model.ThreatDenialOfService: {
		AveragePacketSize:                 d(1350, 150),
		SuspiciousCommandCount:            d(2, 1),
		FailedLoginRate:                   d(0.15, 0.08),
		TrafficToEngineeringStationsRatio: d(0.1, 0.05),
		PlcConfigChangeRate:               d(0.05, 0.03),
		HmiScreenChangeRate:               d(0.05, 0.03),
		EncryptedTrafficRatio:             d(0.15, 0.08),
		ExternalConnectionCount:           d(5, 3),
		BroadcastTrafficRatio:             d(0.75, 0.12),
		ProtocolViolationScore:            d(0.3, 0.15),
		DataExfiltrationVolume:            d(2, 1),
		CpuLoadAnomalyScore:               d(0.85, 0.1),
		ProcessValueAnomalyScore:          d(0.5, 0.2),
		ConnectionRate:                    d(120, 30),
		DistinctProtocolCount:             d(3, 1),
	},
	model.ThreatRansomwareActivity: {
		AveragePacketSize:                 d(600, 150),
		SuspiciousCommandCount:            d(4, 2),
		FailedLoginRate:                   d(0.08, 0.04),
		TrafficToEngineeringStationsRatio: d(0.25, 0.1),
		PlcConfigChangeRate:               d(0.15, 0.08),
		HmiScreenChangeRate:               d(0.2, 0.1),
		EncryptedTrafficRatio:             d(0.85, 0.08),
		ExternalConnectionCount:           d(8, 3),
		BroadcastTrafficRatio:             d(0.12, 0.06),
		ProtocolViolationScore:            d(0.25, 0.1),
		DataExfiltrationVolume:            d(35, 15),
		CpuLoadAnomalyScore:               d(0.75, 0.12),
		ProcessValueAnomalyScore:          d(0.35, 0.15),
		ConnectionRate:                    d(25, 10),
		DistinctProtocolCount:             d(5, 2),
	},
	model.ThreatDataExfiltration: {
		AveragePacketSize:                 d(1100, 200),
		SuspiciousCommandCount:            d(1, 1),
		FailedLoginRate:                   d(0.05, 0.03),
		TrafficToEngineeringStationsRatio: d(0.15, 0.08),
		PlcConfigChangeRate:               d(0.08, 0.04),
		HmiScreenChangeRate:               d(0.1, 0.05),
		EncryptedTrafficRatio:             d(0.55, 0.15),
		ExternalConnectionCount:           d(9, 3),
		BroadcastTrafficRatio:             d(0.05, 0.03),
		ProtocolViolationScore:            d(0.15, 0.08),
		DataExfiltrationVolume:            d(80, 25),
		CpuLoadAnomalyScore:               d(0.3, 0.12),
		ProcessValueAnomalyScore:          d(0.15, 0.08),
		ConnectionRate:                    d(18, 8),
		DistinctProtocolCount:             d(4, 1),
	},
	// ARP spoofing and relayed protocols
	model.ThreatManInTheMiddle: {
		AveragePacketSize:                 d(280, 80),
		SuspiciousCommandCount:            d(2, 1),
		FailedLoginRate:                   d(0.12, 0.06),
		TrafficToEngineeringStationsRatio: d(0.2, 0.08),
		PlcConfigChangeRate:               d(0.1, 0.05),
		HmiScreenChangeRate:               d(0.12, 0.06),
		EncryptedTrafficRatio:             d(0.3, 0.12),
		ExternalConnectionCount:           d(3, 2),
		BroadcastTrafficRatio:             d(0.65, 0.12),
		ProtocolViolationScore:            d(0.7, 0.12),
		DataExfiltrationVolume:            d(8, 4),
		CpuLoadAnomalyScore:               d(0.2, 0.1),
		ProcessValueAnomalyScore:          d(0.25, 0.1),
		ConnectionRate:                    d(55, 15),
		DistinctProtocolCount:             d(9, 2),
	},
	model.ThreatProtocolMisuse: {
		AveragePacketSize:                 d(35, 15),
		SuspiciousCommandCount:            d(6, 3),
		FailedLoginRate:                   d(0.08, 0.04),
		TrafficToEngineeringStationsRatio: d(0.15, 0.08),
		PlcConfigChangeRate:               d(0.2, 0.1),
		HmiScreenChangeRate:               d(0.15, 0.08),
		EncryptedTrafficRatio:             d(0.08, 0.04),
		ExternalConnectionCount:           d(1, 1),
		BroadcastTrafficRatio:             d(0.2, 0.1),
		ProtocolViolationScore:            d(0.85, 0.08),
		DataExfiltrationVolume:            d(2, 1),
		CpuLoadAnomalyScore:               d(0.15, 0.08),
		ProcessValueAnomalyScore:          d(0.2, 0.1),
		ConnectionRate:                    d(10, 5),
		DistinctProtocolCount:             d(10, 2),
	},
	model.ThreatBruteForceAuthentication: {
		AveragePacketSize:                 d(150, 40),
		SuspiciousCommandCount:            d(1, 1),
		FailedLoginRate:                   d(0.75, 0.12),
		TrafficToEngineeringStationsRatio: d(0.45, 0.15),
		PlcConfigChangeRate:               d(0.05, 0.03),
		HmiScreenChangeRate:               d(0.08, 0.04),
		EncryptedTrafficRatio:             d(0.25, 0.1),
		ExternalConnectionCount:           d(4, 2),
		BroadcastTrafficRatio:             d(0.08, 0.04),
		ProtocolViolationScore:            d(0.1, 0.05),
		DataExfiltrationVolume:            d(1, 0.5),
		CpuLoadAnomalyScore:               d(0.2, 0.1),
		ProcessValueAnomalyScore:          d(0.1, 0.05),
		ConnectionRate:                    d(65, 20),
		DistinctProtocolCount:             d(2, 1),
	},
	model.ThreatSuspiciousEngineeringWorkstationActivity: {
		AveragePacketSize:                 d(450, 100),
		SuspiciousCommandCount:            d(2, 1),
		FailedLoginRate:                   d(0.1, 0.05),
		TrafficToEngineeringStationsRatio: d(0.8, 0.1),
		PlcConfigChangeRate:               d(0.65, 0.15),
		HmiScreenChangeRate:               d(0.7, 0.12),
		EncryptedTrafficRatio:             d(0.35, 0.12),
		ExternalConnectionCount:           d(6, 2),
		BroadcastTrafficRatio:             d(0.1, 0.05),
		ProtocolViolationScore:            d(0.2, 0.1),
		DataExfiltrationVolume:            d(12, 5),
		CpuLoadAnomalyScore:               d(0.35, 0.12),
		ProcessValueAnomalyScore:          d(0.3, 0.12),
		ConnectionRate:                    d(20, 8),
		DistinctProtocolCount:             d(5, 1),
	},
	// baseline: low anomaly scores everywhere
	model.ThreatNone: {
		AveragePacketSize:                 d(250, 50),
		SuspiciousCommandCount:            d(0, 0.5),
		FailedLoginRate:                   d(0.02, 0.01),
		TrafficToEngineeringStationsRatio: d(0.08, 0.03),
		PlcConfigChangeRate:               d(0.05, 0.02),
		HmiScreenChangeRate:               d(0.08, 0.03),
		EncryptedTrafficRatio:             d(0.05, 0.02),
		ExternalConnectionCount:           d(0, 0.5),
		BroadcastTrafficRatio:             d(0.1, 0.03),
		ProtocolViolationScore:            d(0.02, 0.01),
		DataExfiltrationVolume:            d(0.5, 0.3),
		CpuLoadAnomalyScore:               d(0.05, 0.02),
		ProcessValueAnomalyScore:          d(0.05, 0.02),
		ConnectionRate:                    d(5, 2),
		DistinctProtocolCount:             d(3, 1),
	},
}
