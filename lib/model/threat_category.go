package model

import (
	"fmt"
	"strings"
)

// ThreatCategory is the closed set of classification outcomes.
// The zero value None is reserved for the normal baseline.
type ThreatCategory int

const (
	ThreatNone ThreatCategory = iota
	ThreatUnauthorizedRemoteAccess
	ThreatMaliciousCommandInjection
	ThreatConfigurationTampering
	ThreatDenialOfService
	ThreatRansomwareActivity
	ThreatDataExfiltration
	ThreatManInTheMiddle
	ThreatProtocolMisuse
	ThreatBruteForceAuthentication
	ThreatSuspiciousEngineeringWorkstationActivity
)

// ThreatCategoryCount is the number of categories including None.
const ThreatCategoryCount = 11

var threatCategoryNames = [ThreatCategoryCount]string{
	"None",
	"UnauthorizedRemoteAccess",
	"MaliciousCommandInjection",
	"ConfigurationTampering",
	"DenialOfService",
	"RansomwareActivity",
	"DataExfiltration",
	"ManInTheMiddle",
	"ProtocolMisuse",
	"BruteForceAuthentication",
	"SuspiciousEngineeringWorkstationActivity",
}

// AllThreatCategories returns every category in ordinal order, None first.
func AllThreatCategories() []ThreatCategory {
	categories := make([]ThreatCategory, ThreatCategoryCount)
	for i := range categories {
		categories[i] = ThreatCategory(i)
	}
	return categories
}

// IsValid reports whether c is one of the defined categories.
func (c ThreatCategory) IsValid() bool {
	return c >= ThreatNone && int(c) < ThreatCategoryCount
}

func (c ThreatCategory) String() string {
	if !c.IsValid() {
		return fmt.Sprintf("ThreatCategory(%d)", int(c))
	}
	return threatCategoryNames[c]
}

// ParseThreatCategory resolves a category by its name (case-insensitive).
func ParseThreatCategory(name string) (ThreatCategory, error) {
	for i, n := range threatCategoryNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return ThreatCategory(i), nil
		}
	}
	return ThreatNone, fmt.Errorf("unknown threat category %q: %w", name, ErrOutOfRange)
}

// MarshalText implements encoding.TextMarshaler.
func (c ThreatCategory) MarshalText() ([]byte, error) {
	if !c.IsValid() {
		return nil, fmt.Errorf("threat category %d: %w", int(c), ErrOutOfRange)
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *ThreatCategory) UnmarshalText(text []byte) error {
	parsed, err := ParseThreatCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
