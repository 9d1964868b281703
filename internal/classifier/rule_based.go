package classifier

import (
	"fmt"
	"strings"

	"github.com/InfraSecConsult/ics-threat-classifier/internal/rules"
	"github.com/InfraSecConsult/ics-threat-classifier/lib/model"
	"github.com/rs/zerolog/log"
)

// DetectionThreshold is the minimum rule score for a category to be considered.
const DetectionThreshold = 0.5

const (
	noThreatExplanation      = "No threats detected. All indicators are within normal operating values."
	weakIndicatorsFallback   = "Several weak indicators combined"
	unknownThreatDescription = "Unknown threat pattern detected."
)

var threatDescriptions = map[model.ThreatCategory]string{
	model.ThreatUnauthorizedRemoteAccess:                 "Unauthorized remote access attempt detected.",
	model.ThreatMaliciousCommandInjection:                "Potential malicious command injection into field devices.",
	model.ThreatConfigurationTampering:                   "Configuration change activity on ICS components detected.",
	model.ThreatDenialOfService:                          "Denial of service attack pattern identified.",
	model.ThreatRansomwareActivity:                       "Ransomware-like behavior detected in the OT segment.",
	model.ThreatDataExfiltration:                         "Data exfiltration attempt detected.",
	model.ThreatManInTheMiddle:                           "Man-in-the-middle attack indicators present.",
	model.ThreatProtocolMisuse:                           "Industrial protocol misuse or malformation detected.",
	model.ThreatBruteForceAuthentication:                 "Brute-force password attack in progress.",
	model.ThreatSuspiciousEngineeringWorkstationActivity: "Suspicious activity from an engineering workstation.",
}

// RuleBasedClassifier scores readings against a fixed, ordered set of threat rules
type RuleBasedClassifier struct {
	rules []rules.ThreatRule
}

// NewRuleBasedClassifier creates a classifier over the default rule set
func NewRuleBasedClassifier() *RuleBasedClassifier {
	return newRuleBasedClassifier(rules.DefaultRuleSet())
}

func newRuleBasedClassifier(ruleSet []rules.ThreatRule) *RuleBasedClassifier {
	return &RuleBasedClassifier{rules: ruleSet}
}

// Classify evaluates every rule and reports the highest scoring category at or above
// DetectionThreshold. Equal scores resolve to the rule evaluated first.
func (c *RuleBasedClassifier) Classify(reading *model.SensorReading) (model.ClassificationResult, error) {
	if reading == nil {
		return model.ClassificationResult{}, fmt.Errorf("reading must not be nil: %w", model.ErrInvalidArgument)
	}

	features := reading.Features
	found := false
	var best rules.ThreatRule
	bestScore := 0.0

	for _, rule := range c.rules {
		score := rule.Score(features)
		if score < DetectionThreshold {
			continue
		}
		// strict comparison keeps the earlier rule on ties
		if !found || score > bestScore {
			best = rule
			bestScore = score
			found = true
		}
	}

	if !found {
		log.Debug().Str("sensor_id", string(reading.SensorID)).Msg("No rule reached detection threshold")
		return model.NoThreat(noThreatExplanation), nil
	}

	log.Debug().
		Str("sensor_id", string(reading.SensorID)).
		Stringer("category", best.Category).
		Float64("score", bestScore).
		Msg("Rule-based classification")

	return model.NewClassificationResult(best.Category, bestScore, buildExplanation(best.Category, best.Indicators(features)))
}

func buildExplanation(category model.ThreatCategory, indicators []string) string {
	description, ok := threatDescriptions[category]
	if !ok {
		description = unknownThreatDescription
	}
	indicatorList := weakIndicatorsFallback
	if len(indicators) > 0 {
		indicatorList = strings.Join(indicators, "; ")
	}
	return fmt.Sprintf("%s Indicators: %s.", description, indicatorList)
}
