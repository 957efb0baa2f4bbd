package format

import "strings"

// Severity levels for the external result shape.
const (
	SeverityHigh   = "high"
	SeverityMedium = "medium"
	SeverityLow    = "low"
)

// Severity keyword tables, version 2. Bump the version and note the change
// here when a dataset review adds or removes keywords.
//
// highSeverityKeywords mark hazards involving death or acute danger.
var highSeverityKeywords = []string{
	"death",
	"fatal",
	"choking",
	"choke",
	"suffocation",
	"strangulation",
	"fire",
	"burn",
	"electrocution",
	"poisoning",
	"laceration",
	"amputation",
	"carbon monoxide",
	"anaphyla",
	"drowning",
}

// lowSeverityKeywords mark labeling and regulatory issues with no direct
// physical hazard.
var lowSeverityKeywords = []string{
	"mislabel",
	"labeling",
	"undeclared color",
	"misbranding",
	"packaging defect",
}

// DeriveSeverity maps free-text hazard and reason descriptions to a severity
// level. Keyword sniffing is best effort; unmatched text defaults to medium.
func DeriveSeverity(hazard, reason string) string {
	text := strings.ToLower(hazard + " " + reason)
	for _, kw := range highSeverityKeywords {
		if strings.Contains(text, kw) {
			return SeverityHigh
		}
	}
	for _, kw := range lowSeverityKeywords {
		if strings.Contains(text, kw) {
			return SeverityLow
		}
	}
	return SeverityMedium
}

// agencyCountries maps source agency codes to the country they report for.
var agencyCountries = map[string]string{
	"FDA":   "US",
	"CPSC":  "US",
	"USDA":  "US",
	"NHTSA": "US",
	"HC":    "CA",
	"CFIA":  "CA",
	"RAPEX": "EU",
	"FSA":   "UK",
	"ACCC":  "AU",
}

// DeriveCountry maps an agency code to its country, or "Unknown".
func DeriveCountry(agency string) string {
	if c, ok := agencyCountries[strings.ToUpper(strings.TrimSpace(agency))]; ok {
		return c
	}
	return "Unknown"
}
