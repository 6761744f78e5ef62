package sds

import "strings"

// RiskLevel is the coarse tier of an assessment. Only High and Medium
// exist; see Classify.
type RiskLevel string

const (
	RiskHigh   RiskLevel = "High"
	RiskMedium RiskLevel = "Medium"
)

// Label is the Japanese display form used on rendered reports.
func (l RiskLevel) Label() string {
	switch l {
	case RiskHigh:
		return "高"
	case RiskMedium:
		return "中"
	}
	return string(l)
}

// Classify maps GHS lines to a tier. Category 1, carcinogenicity and
// reproductive toxicity are High. Everything else, including no lines at
// all, is Medium.
func (r *Rules) Classify(ghs []string) RiskLevel {
	text := strings.Join(ghs, " ")
	for _, re := range r.riskHigh {
		if re.MatchString(text) {
			return RiskHigh
		}
	}
	for _, re := range r.riskMedium {
		if re.MatchString(text) {
			return RiskMedium
		}
	}
	return RiskMedium
}
