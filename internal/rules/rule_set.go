package rules

import (
	"fmt"
	"math"

	"github.com/InfraSecConsult/ics-threat-classifier/lib/model"
)

// DefaultRuleSet returns one rule per threat category in canonical evaluation order.
// The order matters: the classifier resolves equal scores in favour of the earlier rule.
func DefaultRuleSet() []ThreatRule {
	return []ThreatRule{
		unauthorizedRemoteAccessRule(),
		maliciousCommandInjectionRule(),
		configurationTamperingRule(),
		denialOfServiceRule(),
		ransomwareActivityRule(),
		dataExfiltrationRule(),
		manInTheMiddleRule(),
		protocolMisuseRule(),
		bruteForceAuthenticationRule(),
		suspiciousEngineeringWorkstationRule(),
	}
}

// percent renders a ratio as a whole percentage, rounding halves away from zero.
func percent(v float32) string {
	return fmt.Sprintf("%.0f%%", math.Round(float64(v)*100))
}

func unauthorizedRemoteAccessRule() ThreatRule {
	return newThreatRule(model.ThreatUnauthorizedRemoteAccess,
		// connections from unusual external sources
		indicatorTerm{
			triggered: func(f model.FeatureVector) bool { return f.ExternalConnectionCount > 5 },
			weight:    func(f model.FeatureVector) float64 { return 0.35 * saturate(float64(f.ExternalConnectionCount), 10) },
			describe: func(f model.FeatureVector) string {
				return fmt.Sprintf("External connections: %d", f.ExternalConnectionCount)
			},
		},
		// encrypted traffic is unusual on OT segments
		indicatorTerm{
			triggered: func(f model.FeatureVector) bool { return float64(f.EncryptedTrafficRatio) > 0.4 },
			weight:    func(f model.FeatureVector) float64 { return 0.30 * float64(f.EncryptedTrafficRatio) },
			describe: func(f model.FeatureVector) string {
				return "Encrypted traffic ratio: " + percent(f.EncryptedTrafficRatio)
			},
		},
		indicatorTerm{
			triggered: func(f model.FeatureVector) bool { return float64(f.TrafficToEngineeringStationsRatio) > 0.3 },
			weight:    func(f model.FeatureVector) float64 { return 0.25 * float64(f.TrafficToEngineeringStationsRatio) },
			describe: func(f model.FeatureVector) string {
				return "Traffic to engineering stations: " + percent(f.TrafficToEngineeringStationsRatio)
			},
		},
		// probing shows up as failed logins
		indicatorTerm{
			triggered: func(f model.FeatureVector) bool { return float64(f.FailedLoginRate) > 0.1 },
			weight:    func(f model.FeatureVector) float64 { return 0.10 * float64(f.FailedLoginRate) },
			describe:  func(f model.FeatureVector) string { return "Failed login rate: " + percent(f.FailedLoginRate) },
		},
	)
}

func maliciousCommandInjectionRule() ThreatRule {
	return newThreatRule(model.ThreatMaliciousCommandInjection,
		// commands outside the whitelist
		indicatorTerm{
			triggered: func(f model.FeatureVector) bool { return f.SuspiciousCommandCount > 2 },
			weight:    func(f model.FeatureVector) float64 { return 0.40 * saturate(float64(f.SuspiciousCommandCount), 10) },
			describe: func(f model.FeatureVector) string {
				return fmt.Sprintf("Suspicious commands: %d", f.SuspiciousCommandCount)
			},
		},
		indicatorTerm{
			triggered: func(f model.FeatureVector) bool { return float64(f.ProtocolViolationScore) > 0.3 },
			weight:    func(f model.FeatureVector) float64 { return 0.30 * float64(f.ProtocolViolationScore) },
			describe: func(f model.FeatureVector) string {
				return fmt.Sprintf("Protocol violations: %.2f", f.ProtocolViolationScore)
			},
		},
		indicatorTerm{
			triggered: func(f model.FeatureVector) bool { return float64(f.PlcConfigChangeRate) > 0.5 },
			weight:    func(f model.FeatureVector) float64 { return 0.20 * float64(f.PlcConfigChangeRate) },
			describe: func(f model.FeatureVector) string {
				return fmt.Sprintf("PLC configuration change rate: %.2f", f.PlcConfigChangeRate)
			},
		},
		// process values drift under injected commands
		indicatorTerm{
			triggered: func(f model.FeatureVector) bool { return float64(f.ProcessValueAnomalyScore) > 0.4 },
			weight:    func(f model.FeatureVector) float64 { return 0.10 * float64(f.ProcessValueAnomalyScore) },
			describe: func(f model.FeatureVector) string {
				return fmt.Sprintf("Process value anomaly: %.2f", f.ProcessValueAnomalyScore)
			},
		},
	)
}

func configurationTamperingRule() ThreatRule {
	return newThreatRule(model.ThreatConfigurationTampering,
		indicatorTerm{
			triggered: func(f model.FeatureVector) bool { return float64(f.PlcConfigChangeRate) > 0.6 },
			weight:    func(f model.FeatureVector) float64 { return 0.35 * float64(f.PlcConfigChangeRate) },
			describe: func(f model.FeatureVector) string {
				return fmt.Sprintf("Configuration change rate: %.2f", f.PlcConfigChangeRate)
			},
		},
		indicatorTerm{
			triggered: func(f model.FeatureVector) bool { return float64(f.HmiScreenChangeRate) > 0.5 },
			weight:    func(f model.FeatureVector) float64 { return 0.25 * float64(f.HmiScreenChangeRate) },
			describe: func(f model.FeatureVector) string {
				return fmt.Sprintf("HMI screen changes: %.2f", f.HmiScreenChangeRate)
			},
		},
		indicatorTerm{
			triggered: func(f model.FeatureVector) bool { return float64(f.TrafficToEngineeringStationsRatio) > 0.4 },
			weight:    func(f model.FeatureVector) float64 { return 0.25 * float64(f.TrafficToEngineeringStationsRatio) },
			describe: func(f model.FeatureVector) string {
				return "Engineering traffic: " + percent(f.TrafficToEngineeringStationsRatio)
			},
		},
		// malformed configuration writes
		indicatorTerm{
			triggered: func(f model.FeatureVector) bool { return float64(f.ProtocolViolationScore) > 0.2 },
			weight:    func(f model.FeatureVector) float64 { return 0.15 * float64(f.ProtocolViolationScore) },
			describe: func(f model.FeatureVector) string {
				return fmt.Sprintf("Protocol violations: %.2f", f.ProtocolViolationScore)
			},
		},
	)
}

func denialOfServiceRule() ThreatRule {
	return newThreatRule(model.ThreatDenialOfService,
		// flooding
		indicatorTerm{
			triggered: func(f model.FeatureVector) bool { return float64(f.ConnectionRate) > 50 },
			weight:    func(f model.FeatureVector) float64 { return 0.35 * saturate(float64(f.ConnectionRate), 100) },
			describe:  func(f model.FeatureVector) string { return fmt.Sprintf("Connection rate: %.0f/s", f.ConnectionRate) },
		},
		// amplification
		indicatorTerm{
			triggered: func(f model.FeatureVector) bool { return float64(f.BroadcastTrafficRatio) > 0.5 },
			weight:    func(f model.FeatureVector) float64 { return 0.30 * float64(f.BroadcastTrafficRatio) },
			describe:  func(f model.FeatureVector) string { return "Broadcast ratio: " + percent(f.BroadcastTrafficRatio) },
		},
		// resource exhaustion
		indicatorTerm{
			triggered: func(f model.FeatureVector) bool { return float64(f.CpuLoadAnomalyScore) > 0.6 },
			weight:    func(f model.FeatureVector) float64 { return 0.25 * float64(f.CpuLoadAnomalyScore) },
			describe:  func(f model.FeatureVector) string { return fmt.Sprintf("CPU anomaly: %.2f", f.CpuLoadAnomalyScore) },
		},
		// oversized packets, fragmentation attacks
		indicatorTerm{
			triggered: func(f model.FeatureVector) bool { return float64(f.AveragePacketSize) > 1200 },
			weight: func(f model.FeatureVector) float64 {
				return 0.10 * saturate(float64(f.AveragePacketSize-1200), 300)
			},
			describe: func(f model.FeatureVector) string {
				return fmt.Sprintf("Average packet size: %.0fB", f.AveragePacketSize)
			},
		},
	)
}

func ransomwareActivityRule() ThreatRule {
	return newThreatRule(model.ThreatRansomwareActivity,
		// bulk encryption of data
		indicatorTerm{
			triggered: func(f model.FeatureVector) bool { return float64(f.EncryptedTrafficRatio) > 0.6 },
			weight:    func(f model.FeatureVector) float64 { return 0.35 * float64(f.EncryptedTrafficRatio) },
			describe:  func(f model.FeatureVector) string { return "Encryption activity: " + percent(f.EncryptedTrafficRatio) },
		},
		indicatorTerm{
			triggered: func(f model.FeatureVector) bool { return float64(f.CpuLoadAnomalyScore) > 0.5 },
			weight:    func(f model.FeatureVector) float64 { return 0.25 * float64(f.CpuLoadAnomalyScore) },
			describe:  func(f model.FeatureVector) string { return fmt.Sprintf("CPU anomaly: %.2f", f.CpuLoadAnomalyScore) },
		},
		// C2 and ransom note delivery
		indicatorTerm{
			triggered: func(f model.FeatureVector) bool { return f.ExternalConnectionCount > 3 },
			weight:    func(f model.FeatureVector) float64 { return 0.25 * saturate(float64(f.ExternalConnectionCount), 8) },
			describe: func(f model.FeatureVector) string {
				return fmt.Sprintf("External connections: %d", f.ExternalConnectionCount)
			},
		},
		indicatorTerm{
			triggered: func(f model.FeatureVector) bool { return float64(f.DataExfiltrationVolume) > 10 },
			weight:    func(f model.FeatureVector) float64 { return 0.15 * saturate(float64(f.DataExfiltrationVolume), 50) },
			describe: func(f model.FeatureVector) string {
				return fmt.Sprintf("Data volume: %.1fMB", f.DataExfiltrationVolume)
			},
		},
	)
}

func dataExfiltrationRule() ThreatRule {
	return newThreatRule(model.ThreatDataExfiltration,
		indicatorTerm{
			triggered: func(f model.FeatureVector) bool { return float64(f.DataExfiltrationVolume) > 20 },
			weight:    func(f model.FeatureVector) float64 { return 0.40 * saturate(float64(f.DataExfiltrationVolume), 100) },
			describe: func(f model.FeatureVector) string {
				return fmt.Sprintf("Outbound data volume: %.1fMB", f.DataExfiltrationVolume)
			},
		},
		indicatorTerm{
			triggered: func(f model.FeatureVector) bool { return f.ExternalConnectionCount > 2 },
			weight:    func(f model.FeatureVector) float64 { return 0.25 * saturate(float64(f.ExternalConnectionCount), 6) },
			describe: func(f model.FeatureVector) string {
				return fmt.Sprintf("External destinations: %d", f.ExternalConnectionCount)
			},
		},
		indicatorTerm{
			triggered: func(f model.FeatureVector) bool { return float64(f.EncryptedTrafficRatio) > 0.3 },
			weight:    func(f model.FeatureVector) float64 { return 0.20 * float64(f.EncryptedTrafficRatio) },
			describe:  func(f model.FeatureVector) string { return "Encrypted share: " + percent(f.EncryptedTrafficRatio) },
		},
		// bulk transfer
		indicatorTerm{
			triggered: func(f model.FeatureVector) bool { return float64(f.AveragePacketSize) > 800 },
			weight: func(f model.FeatureVector) float64 {
				return 0.15 * saturate(float64(f.AveragePacketSize-800), 700)
			},
			describe: func(f model.FeatureVector) string { return fmt.Sprintf("Packet size: %.0fB", f.AveragePacketSize) },
		},
	)
}

func manInTheMiddleRule() ThreatRule {
	return newThreatRule(model.ThreatManInTheMiddle,
		// injected or modified frames
		indicatorTerm{
			triggered: func(f model.FeatureVector) bool { return float64(f.ProtocolViolationScore) > 0.4 },
			weight:    func(f model.FeatureVector) float64 { return 0.35 * float64(f.ProtocolViolationScore) },
			describe: func(f model.FeatureVector) string {
				return fmt.Sprintf("Protocol violations: %.2f", f.ProtocolViolationScore)
			},
		},
		// ARP spoofing
		indicatorTerm{
			triggered: func(f model.FeatureVector) bool { return float64(f.BroadcastTrafficRatio) > 0.4 },
			weight:    func(f model.FeatureVector) float64 { return 0.25 * float64(f.BroadcastTrafficRatio) },
			describe:  func(f model.FeatureVector) string { return "Broadcast traffic: " + percent(f.BroadcastTrafficRatio) },
		},
		// relaying shows many protocols
		indicatorTerm{
			triggered: func(f model.FeatureVector) bool { return f.DistinctProtocolCount > 5 },
			weight: func(f model.FeatureVector) float64 {
				return 0.25 * saturate(float64(f.DistinctProtocolCount-5), 5)
			},
			describe: func(f model.FeatureVector) string {
				return fmt.Sprintf("Protocol diversity: %d", f.DistinctProtocolCount)
			},
		},
		indicatorTerm{
			triggered: func(f model.FeatureVector) bool { return float64(f.ConnectionRate) > 30 },
			weight:    func(f model.FeatureVector) float64 { return 0.15 * saturate(float64(f.ConnectionRate), 60) },
			describe:  func(f model.FeatureVector) string { return fmt.Sprintf("Connection rate: %.0f/s", f.ConnectionRate) },
		},
	)
}

func protocolMisuseRule() ThreatRule {
	unusualPacketSize := func(f model.FeatureVector) bool {
		return float64(f.AveragePacketSize) < 50 || float64(f.AveragePacketSize) > 1000
	}
	return newThreatRule(model.ThreatProtocolMisuse,
		indicatorTerm{
			triggered: func(f model.FeatureVector) bool { return float64(f.ProtocolViolationScore) > 0.5 },
			weight:    func(f model.FeatureVector) float64 { return 0.40 * float64(f.ProtocolViolationScore) },
			describe: func(f model.FeatureVector) string {
				return fmt.Sprintf("Protocol violations: %.2f", f.ProtocolViolationScore)
			},
		},
		indicatorTerm{
			triggered: func(f model.FeatureVector) bool { return f.SuspiciousCommandCount > 1 },
			weight:    func(f model.FeatureVector) float64 { return 0.25 * saturate(float64(f.SuspiciousCommandCount), 5) },
			describe: func(f model.FeatureVector) string {
				return fmt.Sprintf("Suspicious commands: %d", f.SuspiciousCommandCount)
			},
		},
		indicatorTerm{
			triggered: func(f model.FeatureVector) bool { return f.DistinctProtocolCount > 6 },
			weight: func(f model.FeatureVector) float64 {
				return 0.20 * saturate(float64(f.DistinctProtocolCount-6), 4)
			},
			describe: func(f model.FeatureVector) string {
				return fmt.Sprintf("Unusual protocol count: %d", f.DistinctProtocolCount)
			},
		},
		// ICS protocols rarely use tiny or jumbo frames
		indicatorTerm{
			triggered: unusualPacketSize,
			weight:    func(model.FeatureVector) float64 { return 0.15 },
			describe: func(f model.FeatureVector) string {
				return fmt.Sprintf("Anomalous packet size: %.0fB", f.AveragePacketSize)
			},
		},
	)
}

func bruteForceAuthenticationRule() ThreatRule {
	return newThreatRule(model.ThreatBruteForceAuthentication,
		// primary indicator
		indicatorTerm{
			triggered: func(f model.FeatureVector) bool { return float64(f.FailedLoginRate) > 0.3 },
			weight:    func(f model.FeatureVector) float64 { return 0.45 * float64(f.FailedLoginRate) },
			describe:  func(f model.FeatureVector) string { return "Failed logins: " + percent(f.FailedLoginRate) },
		},
		// retries
		indicatorTerm{
			triggered: func(f model.FeatureVector) bool { return float64(f.ConnectionRate) > 20 },
			weight:    func(f model.FeatureVector) float64 { return 0.25 * saturate(float64(f.ConnectionRate), 50) },
			describe:  func(f model.FeatureVector) string { return fmt.Sprintf("Connection rate: %.0f/s", f.ConnectionRate) },
		},
		indicatorTerm{
			triggered: func(f model.FeatureVector) bool { return float64(f.TrafficToEngineeringStationsRatio) > 0.2 },
			weight:    func(f model.FeatureVector) float64 { return 0.20 * float64(f.TrafficToEngineeringStationsRatio) },
			describe: func(f model.FeatureVector) string {
				return "Engineering traffic: " + percent(f.TrafficToEngineeringStationsRatio)
			},
		},
		indicatorTerm{
			triggered: func(f model.FeatureVector) bool { return f.ExternalConnectionCount > 1 },
			weight:    func(f model.FeatureVector) float64 { return 0.10 * saturate(float64(f.ExternalConnectionCount), 5) },
			describe: func(f model.FeatureVector) string {
				return fmt.Sprintf("External sources: %d", f.ExternalConnectionCount)
			},
		},
	)
}

func suspiciousEngineeringWorkstationRule() ThreatRule {
	return newThreatRule(model.ThreatSuspiciousEngineeringWorkstationActivity,
		indicatorTerm{
			triggered: func(f model.FeatureVector) bool { return float64(f.TrafficToEngineeringStationsRatio) > 0.5 },
			weight:    func(f model.FeatureVector) float64 { return 0.35 * float64(f.TrafficToEngineeringStationsRatio) },
			describe: func(f model.FeatureVector) string {
				return "Workstation traffic: " + percent(f.TrafficToEngineeringStationsRatio)
			},
		},
		indicatorTerm{
			triggered: func(f model.FeatureVector) bool { return float64(f.PlcConfigChangeRate) > 0.4 },
			weight:    func(f model.FeatureVector) float64 { return 0.25 * float64(f.PlcConfigChangeRate) },
			describe: func(f model.FeatureVector) string {
				return fmt.Sprintf("Configuration changes: %.2f", f.PlcConfigChangeRate)
			},
		},
		indicatorTerm{
			triggered: func(f model.FeatureVector) bool { return float64(f.HmiScreenChangeRate) > 0.4 },
			weight:    func(f model.FeatureVector) float64 { return 0.20 * float64(f.HmiScreenChangeRate) },
			describe:  func(f model.FeatureVector) string { return fmt.Sprintf("HMI activity: %.2f", f.HmiScreenChangeRate) },
		},
		indicatorTerm{
			triggered: func(f model.FeatureVector) bool { return f.ExternalConnectionCount > 2 },
			weight:    func(f model.FeatureVector) float64 { return 0.20 * saturate(float64(f.ExternalConnectionCount), 5) },
			describe: func(f model.FeatureVector) string {
				return fmt.Sprintf("External connections: %d", f.ExternalConnectionCount)
			},
		},
	)
}
