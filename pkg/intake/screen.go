// Package intake screens submitted questionnaire answers for injection
// payloads. Answers are stored as opaque JSON and never executed, so a
// finding does not block the submission; it is surfaced to the audit
// log so someone can look at who is probing the intake forms.
package intake

import (
	libinjection "github.com/corazawaf/libinjection-go"
)

// FindingType classifies a detected payload.
type FindingType string

const (
	FindingSQLi FindingType = "sqli"
	FindingXSS  FindingType = "xss"
)

// Finding describes one suspicious answer value.
type Finding struct {
	Type        FindingType
	FieldID     string
	Value       string
	Fingerprint string
}

// CheckFieldValue runs libinjection over a single answer value. Only
// strings are checked; numbers, booleans and dates cannot carry a
// payload. Array answers are checked element by element.
func CheckFieldValue(fieldID string, value any) []*Finding {
	switch v := value.(type) {
	case string:
		return checkString(fieldID, v)
	case []any:
		var findings []*Finding
		for _, item := range v {
			findings = append(findings, CheckFieldValue(fieldID, item)...)
		}
		return findings
	case []string:
		var findings []*Finding
		for _, item := range v {
			findings = append(findings, checkString(fieldID, item)...)
		}
		return findings
	default:
		return nil
	}
}

func checkString(fieldID, value string) []*Finding {
	var findings []*Finding

	if isSQLi, fingerprint := libinjection.IsSQLi(value); isSQLi {
		findings = append(findings, &Finding{
			Type:        FindingSQLi,
			FieldID:     fieldID,
			Value:       value,
			Fingerprint: fingerprint,
		})
	}

	if libinjection.IsXSS(value) {
		findings = append(findings, &Finding{
			Type:    FindingXSS,
			FieldID: fieldID,
			Value:   value,
		})
	}

	return findings
}

// ScreenFields checks every answer in a section's field map. Returns one
// finding per suspicious value, empty when everything is clean.
func ScreenFields(fields map[string]any) []*Finding {
	var findings []*Finding
	for fieldID, value := range fields {
		findings = append(findings, CheckFieldValue(fieldID, value)...)
	}
	return findings
}
