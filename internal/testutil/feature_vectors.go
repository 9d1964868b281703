package testutil

import (
	"github.com/InfraSecConsult/ics-threat-classifier/lib/model"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
)

// ReferenceReading is a hand-labelled feature vector with the score the rule engine assigns it.
type ReferenceReading struct {
	Name     string
	Expected model.ThreatCategory
	Score    float64 // winning rule score, 0 for benign traffic
	Features model.FeatureVector
}

// ReferenceReadings returns one typical reading per category.
func ReferenceReadings() []ReferenceReading {
	return []ReferenceReading{
		{"normal traffic", model.ThreatNone, 0, vector(250, 0, 0.01, 0.05, 0.02, 0.03, 0.02, 0, 0.08, 0.01, 0.5, 0.03, 0.02, 5, 3)},
		{"unauthorized remote access", model.ThreatUnauthorizedRemoteAccess, 0.735, vector(400, 1, 0.25, 0.6, 0.1, 0.1, 0.7, 15, 0.1, 0.1, 5, 0.2, 0.1, 15, 4)},
		{"malicious command injection", model.ThreatMaliciousCommandInjection, 0.84, vector(180, 20, 0.05, 0.2, 0.8, 0.2, 0.1, 1, 0.05, 0.7, 1, 0.3, 0.7, 8, 3)},
		{"configuration tampering", model.ThreatConfigurationTampering, 0.75, vector(350, 3, 0.1, 0.7, 0.9, 0.8, 0.2, 2, 0.08, 0.4, 3, 0.25, 0.4, 12, 4)},
		{"denial of service", model.ThreatDenialOfService, 0.8816667, vector(1400, 2, 0.15, 0.1, 0.05, 0.05, 0.15, 5, 0.8, 0.3, 2, 0.9, 0.5, 150, 3)},
		{"ransomware activity", model.ThreatRansomwareActivity, 0.885, vector(600, 4, 0.08, 0.25, 0.15, 0.2, 0.9, 10, 0.12, 0.25, 40, 0.8, 0.35, 25, 5)},
		{"data exfiltration", model.ThreatDataExfiltration, 0.8557143, vector(1200, 1, 0.05, 0.15, 0.08, 0.1, 0.6, 12, 0.05, 0.15, 100, 0.3, 0.15, 18, 4)},
		{"man in the middle", model.ThreatManInTheMiddle, 0.855, vector(280, 2, 0.12, 0.2, 0.1, 0.12, 0.3, 3, 0.7, 0.8, 8, 0.2, 0.25, 60, 10)},
		{"protocol misuse", model.ThreatProtocolMisuse, 0.96, vector(30, 8, 0.08, 0.15, 0.2, 0.15, 0.08, 1, 0.2, 0.9, 2, 0.15, 0.2, 10, 12)},
		{"brute force authentication", model.ThreatBruteForceAuthentication, 0.8325, vector(150, 1, 0.85, 0.5, 0.05, 0.08, 0.25, 5, 0.08, 0.1, 1, 0.2, 0.1, 80, 2)},
		{"suspicious engineering workstation", model.ThreatSuspiciousEngineeringWorkstationActivity, 0.8325, vector(450, 2, 0.1, 0.85, 0.7, 0.8, 0.35, 7, 0.1, 0.2, 15, 0.35, 0.3, 20, 5)},
	}
}

func vector(packetSize float32, commands int, failedLogins, engineering, plcChanges, hmiChanges, encrypted float32,
	external int, broadcast, violations, exfiltration, cpu, process, connections float32, protocols int) model.FeatureVector {
	return model.FeatureVector{
		AveragePacketSize:                 packetSize,
		SuspiciousCommandCount:            commands,
		FailedLoginRate:                   failedLogins,
		TrafficToEngineeringStationsRatio: engineering,
		PlcConfigChangeRate:               plcChanges,
		HmiScreenChangeRate:               hmiChanges,
		EncryptedTrafficRatio:             encrypted,
		ExternalConnectionCount:           external,
		BroadcastTrafficRatio:             broadcast,
		ProtocolViolationScore:            violations,
		DataExfiltrationVolume:            exfiltration,
		CpuLoadAnomalyScore:               cpu,
		ProcessValueAnomalyScore:          process,
		ConnectionRate:                    connections,
		DistinctProtocolCount:             protocols,
	}
}

// GenFeatureVector generates arbitrary vectors within the ranges the generator produces.
func GenFeatureVector() gopter.Gen {
	ratio := gen.Float32Range(0, 1)
	return gopter.CombineGens(
		gen.Float32Range(10, 1500),
		gen.IntRange(0, 50),
		ratio, ratio, ratio, ratio, ratio,
		gen.IntRange(0, 30),
		ratio, ratio,
		gen.Float32Range(0, 200),
		ratio, ratio,
		gen.Float32Range(0, 200),
		gen.IntRange(1, 15),
	).Map(func(values []interface{}) model.FeatureVector {
		return vector(
			values[0].(float32), values[1].(int),
			values[2].(float32), values[3].(float32), values[4].(float32), values[5].(float32), values[6].(float32),
			values[7].(int),
			values[8].(float32), values[9].(float32), values[10].(float32), values[11].(float32), values[12].(float32),
			values[13].(float32), values[14].(int),
		)
	})
}

// QuietFeatureVector is the vector with every indicator at its lowest rule threshold.
func QuietFeatureVector() model.FeatureVector {
	return vector(800, 1, 0.1, 0.2, 0.4, 0.4, 0.3, 1, 0.4, 0.2, 10, 0.5, 0.4, 20, 5)
}

// GenQuietFeatureVector generates vectors with every indicator at or below its
// lowest rule threshold and a packet size inside the normal band.
func GenQuietFeatureVector() gopter.Gen {
	return gopter.CombineGens(
		gen.Float32Range(50, 800),
		gen.IntRange(0, 1),
		gen.Float32Range(0, 0.1),
		gen.Float32Range(0, 0.2),
		gen.Float32Range(0, 0.4),
		gen.Float32Range(0, 0.4),
		gen.Float32Range(0, 0.3),
		gen.IntRange(0, 1),
		gen.Float32Range(0, 0.4),
		gen.Float32Range(0, 0.2),
		gen.Float32Range(0, 10),
		gen.Float32Range(0, 0.5),
		gen.Float32Range(0, 0.4),
		gen.Float32Range(0, 20),
		gen.IntRange(1, 5),
	).Map(func(values []interface{}) model.FeatureVector {
		return vector(
			values[0].(float32), values[1].(int),
			values[2].(float32), values[3].(float32), values[4].(float32), values[5].(float32), values[6].(float32),
			values[7].(int),
			values[8].(float32), values[9].(float32), values[10].(float32), values[11].(float32), values[12].(float32),
			values[13].(float32), values[14].(int),
		)
	})
}
