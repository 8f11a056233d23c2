// Package evaluation turns submitted field values into section verdicts using
// the declarative criteria carried by a template snapshot. Everything here is
// a pure function over its inputs: no I/O, no clocks, no logging. That purity
// is what allows historical submissions to be re-evaluated against the
// template version they were pinned to and produce the same verdicts.
package evaluation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/launchgate-inc/launchgate-engine/pkg/models"
)

// EvaluateSection computes the verdict for one section.
//
// Manual criteria (or no criteria at all) always yield pending; the engine
// never auto-passes a section that a human is supposed to review. Automatic
// criteria AND together every rule with no short-circuit so the submitter
// sees every unmet condition at once. Missing field values fail any rule
// that references them.
//
// The returned error does not mean the verdict is unusable: it reports
// genuinely unexpected criteria states (unknown operator, malformed rule
// value). Those rules fail closed in the verdict, and the error exists so
// callers can log the broken template for operator investigation.
func EvaluateSection(sectionID string, fields map[string]any, criteria *models.Criteria, at time.Time) (models.SectionStatus, error) {
	status := models.SectionStatus{
		Result:      models.SectionResultPending,
		EvaluatedAt: at,
	}

	var anomalies []error

	if criteria != nil && criteria.Type == models.CriteriaTypeAutomatic {
		status.Result = models.SectionResultPass
		for _, rule := range criteria.Rules {
			pass, reason, err := evaluateRule(rule, fields)
			if err != nil {
				anomalies = append(anomalies, fmt.Errorf("section %q: %w", sectionID, err))
			}
			if !pass {
				status.Result = models.SectionResultFail
				status.FailureReasons = append(status.FailureReasons, reason)
			}
		}
	}

	if sectionID == models.StrategicSectionID {
		applyStrategicOverride(&status, fields)
	}

	return status, errors.Join(anomalies...)
}

// evaluateRule applies one rule to the submitted fields. reason is set
// whenever pass is false; err marks rules that could not be evaluated at all
// (those fail closed).
func evaluateRule(rule models.Rule, fields map[string]any) (pass bool, reason string, err error) {
	value, present := fields[rule.FieldID]
	if !present || value == nil {
		return false, failureReason(rule, fmt.Sprintf("%s has no submitted value", rule.FieldID)), nil
	}

	switch rule.Operator {
	case models.OperatorEquals:
		pass = looseEqual(value, rule.Value)
	case models.OperatorNotEquals:
		pass = !looseEqual(value, rule.Value)
	case models.OperatorGreaterThan:
		left, lok := toNumber(value)
		right, rok := toNumber(rule.Value)
		pass = lok && rok && left > right
	case models.OperatorLessThan:
		left, lok := toNumber(value)
		right, rok := toNumber(rule.Value)
		pass = lok && rok && left < right
	case models.OperatorContains:
		pass = containsValue(value, rule.Value)
	case models.OperatorNotContains:
		pass = !containsValue(value, rule.Value)
	case models.OperatorIn:
		options, ok := toSlice(rule.Value)
		if !ok {
			return false, failureReason(rule, fmt.Sprintf("%s could not be evaluated", rule.FieldID)),
				fmt.Errorf("rule on %q: operator %q requires an array value, got %T", rule.FieldID, rule.Operator, rule.Value)
		}
		for _, opt := range options {
			if looseEqual(value, opt) {
				pass = true
				break
			}
		}
	default:
		return false, failureReason(rule, fmt.Sprintf("%s could not be evaluated", rule.FieldID)),
			fmt.Errorf("rule on %q: unknown operator %q", rule.FieldID, rule.Operator)
	}

	if pass {
		return true, "", nil
	}
	return false, failureReason(rule, defaultReason(rule)), nil
}

// failureReason prefers the template author's message over the generated one.
func failureReason(rule models.Rule, generated string) string {
	if rule.FailureMessage != "" {
		return rule.FailureMessage
	}
	return generated
}

func defaultReason(rule models.Rule) string {
	switch rule.Operator {
	case models.OperatorEquals:
		return fmt.Sprintf("%s must equal %v", rule.FieldID, rule.Value)
	case models.OperatorNotEquals:
		return fmt.Sprintf("%s must not equal %v", rule.FieldID, rule.Value)
	case models.OperatorGreaterThan:
		return fmt.Sprintf("%s must be greater than %v", rule.FieldID, rule.Value)
	case models.OperatorLessThan:
		return fmt.Sprintf("%s must be less than %v", rule.FieldID, rule.Value)
	case models.OperatorContains:
		return fmt.Sprintf("%s must contain %v", rule.FieldID, rule.Value)
	case models.OperatorNotContains:
		return fmt.Sprintf("%s must not contain %v", rule.FieldID, rule.Value)
	case models.OperatorIn:
		return fmt.Sprintf("%s must be one of %v", rule.FieldID, rule.Value)
	default:
		return fmt.Sprintf("%s failed %s check", rule.FieldID, rule.Operator)
	}
}

// applyStrategicOverride enforces the tier thresholds on the strategic
// classification section after rule evaluation. It composes with rule
// failures rather than replacing them: reasons accumulate, and only tier-0
// and tier-1 shortfalls force the verdict to fail. Tier-2 is surfaced as an
// informational reason without overriding the result.
func applyStrategicOverride(status *models.SectionStatus, fields map[string]any) {
	tier, ok := parseTier(fields["tier"])
	if !ok {
		return
	}

	ccv, _ := toNumber(fields["ccv"])
	lrp, _ := toNumber(fields["lrp"])
	ccvPercentage := 0.0
	if lrp != 0 {
		ccvPercentage = ccv / lrp * 100
	}

	switch tier {
	case models.TierZero:
		if ccv < models.TierZeroMinCCV {
			status.Result = models.SectionResultFail
			status.FailureReasons = append(status.FailureReasons,
				fmt.Sprintf("Tier 0 requires CCV ≥ $50M (submitted CCV is $%.0f)", ccv))
		}
	case models.TierOne:
		if ccvPercentage < models.TierOneMinCCVPercentage {
			status.Result = models.SectionResultFail
			status.FailureReasons = append(status.FailureReasons,
				fmt.Sprintf("Tier 1 requires CCV ≥ 10%% of LRP (submitted CCV is %.1f%% of LRP)", ccvPercentage))
		}
	case models.TierTwo:
		status.FailureReasons = append(status.FailureReasons,
			"Tier 2 classification is flagged for PDM review; gate progression is not blocked by tier thresholds")
	}
}

// parseTier normalizes the many spellings a tier answer arrives in
// ("tier-0", "Tier 0", "TIER_1") to the canonical enum.
func parseTier(value any) (models.Tier, bool) {
	if value == nil {
		return "", false
	}
	s := strings.ToLower(strings.TrimSpace(fmt.Sprintf("%v", value)))
	s = strings.ReplaceAll(s, " ", "-")
	s = strings.ReplaceAll(s, "_", "-")
	tier := models.Tier(s)
	if models.IsValidTier(tier) {
		return tier, true
	}
	return "", false
}

// DeriveOverallStatus folds section verdicts into the submission verdict:
// fail if any section failed, pass only if every section passed, pending when
// nothing has been decided yet, partial for any other mix. An empty
// submission is pending, never an accidental pass.
func DeriveOverallStatus(statuses []models.SectionStatus) models.OverallStatus {
	if len(statuses) == 0 {
		return models.OverallStatusPending
	}

	allPass := true
	allPending := true
	for _, s := range statuses {
		switch s.Result {
		case models.SectionResultFail:
			return models.OverallStatusFail
		case models.SectionResultPass:
			allPending = false
		case models.SectionResultPending:
			allPass = false
		}
	}

	switch {
	case allPass:
		return models.OverallStatusPass
	case allPending:
		return models.OverallStatusPending
	default:
		return models.OverallStatusPartial
	}
}

// EvaluateSubmission computes every section verdict in place against the
// template snapshot the submission is pinned to, and returns the per-section
// status index plus the derived overall verdict. Sections the snapshot does
// not know stay pending (their criteria are unknowable), except that the
// strategic override applies by section id regardless.
//
// The returned error aggregates evaluator anomalies across sections; the
// verdicts remain valid (fail closed) when it is non-nil.
func EvaluateSubmission(sections []models.SectionData, snapshot *models.TemplateVersion, at time.Time) (map[string]models.SectionStatus, models.OverallStatus, error) {
	statuses := make(map[string]models.SectionStatus, len(sections))
	ordered := make([]models.SectionStatus, 0, len(sections))
	var anomalies []error

	for i := range sections {
		var criteria *models.Criteria
		if snapshot != nil {
			if ts := snapshot.Section(sections[i].SectionID); ts != nil {
				criteria = ts.PassFailCriteria
			}
		}

		status, err := EvaluateSection(sections[i].SectionID, sections[i].Fields, criteria, at)
		if err != nil {
			anomalies = append(anomalies, err)
		}

		sections[i].Status = &status
		statuses[sections[i].SectionID] = status
		ordered = append(ordered, status)
	}

	return statuses, DeriveOverallStatus(ordered), errors.Join(anomalies...)
}

// looseEqual compares a submitted value with a rule value the way form data
// wants to be compared: numerically when both sides are numeric, string-wise
// otherwise. "42" equals 42; "Yes" does not equal "yes".
func looseEqual(a, b any) bool {
	if na, ok := toNumber(a); ok {
		if nb, ok := toNumber(b); ok {
			return na == nb
		}
	}
	return stringify(a) == stringify(b)
}

// containsValue tests array membership when the submitted value is an array
// (checkbox answers), substring containment otherwise.
func containsValue(value, needle any) bool {
	if items, ok := toSlice(value); ok {
		for _, item := range items {
			if looseEqual(item, needle) {
				return true
			}
		}
		return false
	}
	return strings.Contains(stringify(value), stringify(needle))
}

// toNumber coerces JSON scalars to float64. It accepts the numeric types the
// JSON decoder and template seeds produce, plus numeric strings.
func toNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// toSlice normalizes the slice shapes that arrive from JSON ([]any) and from
// seeded templates ([]string).
func toSlice(value any) ([]any, bool) {
	switch v := value.(type) {
	case []any:
		return v, true
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out, true
	default:
		return nil, false
	}
}

func stringify(value any) string {
	if value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", value)
}
