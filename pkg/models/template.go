package models

import "time"

// ============================================================================
// Question Fields
// ============================================================================

// FieldType is the input kind of a questionnaire field.
type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeTextarea FieldType = "textarea"
	FieldTypeNumber   FieldType = "number"
	FieldTypeDate     FieldType = "date"
	FieldTypeSelect   FieldType = "select"
	FieldTypeRadio    FieldType = "radio"
	FieldTypeCheckbox FieldType = "checkbox"
)

// ValidFieldTypes contains all valid field type values.
var ValidFieldTypes = []FieldType{
	FieldTypeText,
	FieldTypeTextarea,
	FieldTypeNumber,
	FieldTypeDate,
	FieldTypeSelect,
	FieldTypeRadio,
	FieldTypeCheckbox,
}

// IsValidFieldType checks if the given field type is valid.
func IsValidFieldType(t FieldType) bool {
	for _, v := range ValidFieldTypes {
		if v == t {
			return true
		}
	}
	return false
}

// RequiresOptions returns true for field types that must carry a non-empty
// options list.
func (t FieldType) RequiresOptions() bool {
	return t == FieldTypeSelect || t == FieldTypeRadio || t == FieldTypeCheckbox
}

// QuestionField is one question within a template section. Field ids are
// unique across the whole template, not just within a section, so rules and
// submissions can reference them without section qualification.
type QuestionField struct {
	ID       string    `json:"id" yaml:"id"`
	Label    string    `json:"label" yaml:"label"`
	Type     FieldType `json:"type" yaml:"type"`
	Required bool      `json:"required" yaml:"required"`
	Options  []string  `json:"options,omitempty" yaml:"options,omitempty"`
	HelpText string    `json:"helpText,omitempty" yaml:"helpText,omitempty"`
}

// ============================================================================
// Pass/Fail Criteria
// ============================================================================

// Operator is the comparison applied by a single evaluation rule. The set is
// closed; the evaluator fails closed on anything else.
type Operator string

const (
	OperatorEquals      Operator = "equals"
	OperatorNotEquals   Operator = "notEquals"
	OperatorGreaterThan Operator = "greaterThan"
	OperatorLessThan    Operator = "lessThan"
	OperatorContains    Operator = "contains"
	OperatorNotContains Operator = "notContains"
	OperatorIn          Operator = "in"
)

// ValidOperators contains all valid operator values.
var ValidOperators = []Operator{
	OperatorEquals,
	OperatorNotEquals,
	OperatorGreaterThan,
	OperatorLessThan,
	OperatorContains,
	OperatorNotContains,
	OperatorIn,
}

// IsValidOperator checks if the given operator is valid.
func IsValidOperator(op Operator) bool {
	for _, v := range ValidOperators {
		if v == op {
			return true
		}
	}
	return false
}

// CriteriaType selects between human review and rule evaluation.
type CriteriaType string

const (
	CriteriaTypeManual    CriteriaType = "manual"
	CriteriaTypeAutomatic CriteriaType = "automatic"
)

// IsValidCriteriaType checks if the given criteria type is valid.
func IsValidCriteriaType(t CriteriaType) bool {
	return t == CriteriaTypeManual || t == CriteriaTypeAutomatic
}

// Rule is one declarative pass condition over a submitted field value.
type Rule struct {
	FieldID        string   `json:"fieldId" yaml:"fieldId"`
	Operator       Operator `json:"operator" yaml:"operator"`
	Value          any      `json:"value" yaml:"value"`
	FailureMessage string   `json:"failureMessage,omitempty" yaml:"failureMessage,omitempty"`
}

// Criteria decides how a section verdict is produced. Manual criteria always
// defer to a human reviewer; automatic criteria AND together all rules.
type Criteria struct {
	Type  CriteriaType `json:"type" yaml:"type"`
	Rules []Rule       `json:"rules,omitempty" yaml:"rules,omitempty"`
}

// ============================================================================
// Templates and Versions
// ============================================================================

// TemplateSection groups fields that are evaluated to a single verdict.
type TemplateSection struct {
	ID               string          `json:"id" yaml:"id"`
	Title            string          `json:"title" yaml:"title"`
	Fields           []QuestionField `json:"fields" yaml:"fields"`
	PassFailCriteria *Criteria       `json:"passFailCriteria,omitempty" yaml:"passFailCriteria,omitempty"`
}

// QuestionnaireTemplate is the current editable questionnaire definition for
// one gate. Template ids are gate ids ("gate-0"). Version increments by
// exactly one on every successful admin save; callers never set it directly.
type QuestionnaireTemplate struct {
	ID        string            `json:"id" yaml:"id"`
	Name      string            `json:"name" yaml:"name"`
	Version   int               `json:"version" yaml:"-"`
	Sections  []TemplateSection `json:"sections" yaml:"sections"`
	UpdatedAt time.Time         `json:"updatedAt" yaml:"-"`
	UpdatedBy string            `json:"updatedBy" yaml:"-"`
}

// Fields returns the template's fields flattened in section order.
func (t *QuestionnaireTemplate) Fields() []QuestionField {
	var fields []QuestionField
	for _, s := range t.Sections {
		fields = append(fields, s.Fields...)
	}
	return fields
}

// Section returns the section with the given id, or nil.
func (t *QuestionnaireTemplate) Section(id string) *TemplateSection {
	for i := range t.Sections {
		if t.Sections[i].ID == id {
			return &t.Sections[i]
		}
	}
	return nil
}

// Snapshot builds the immutable version record for the template's current
// content. The current record and its version record always carry the same
// sections, so no store read is needed to evaluate against "latest".
func (t *QuestionnaireTemplate) Snapshot() *TemplateVersion {
	return &TemplateVersion{
		TemplateID: t.ID,
		Version:    t.Version,
		Name:       t.Name,
		Sections:   t.Sections,
		CreatedAt:  t.UpdatedAt,
		CreatedBy:  t.UpdatedBy,
	}
}

// TemplateVersion is an immutable snapshot of a template at one version.
// Version records are written once and never mutated or deleted; they are
// what keeps historical submissions interpretable after later edits.
type TemplateVersion struct {
	TemplateID string            `json:"templateId"`
	Version    int               `json:"version"`
	Name       string            `json:"name"`
	Sections   []TemplateSection `json:"sections"`
	CreatedAt  time.Time         `json:"createdAt"`
	CreatedBy  string            `json:"createdBy"`
}

// Section returns the snapshot section with the given id, or nil.
func (v *TemplateVersion) Section(id string) *TemplateSection {
	for i := range v.Sections {
		if v.Sections[i].ID == id {
			return &v.Sections[i]
		}
	}
	return nil
}
