package models

import (
	"time"

	"github.com/google/uuid"
)

// ContractType classifies the commercial relationship with a partner.
type ContractType string

const (
	ContractTypePPA          ContractType = "PPA"
	ContractTypeDistribution ContractType = "Distribution"
	ContractTypeSalesAgent   ContractType = "Sales-Agent"
	ContractTypeOther        ContractType = "Other"
)

// ValidContractTypes contains all valid contract type values.
var ValidContractTypes = []ContractType{
	ContractTypePPA,
	ContractTypeDistribution,
	ContractTypeSalesAgent,
	ContractTypeOther,
}

// IsValidContractType checks if the given contract type is valid.
func IsValidContractType(t ContractType) bool {
	for _, v := range ValidContractTypes {
		if v == t {
			return true
		}
	}
	return false
}

// Tier is the strategic classification of a partner, derived from contract
// value relative to the country revenue plan.
type Tier string

const (
	TierZero Tier = "tier-0"
	TierOne  Tier = "tier-1"
	TierTwo  Tier = "tier-2"
)

// ValidTiers contains all valid tier values.
var ValidTiers = []Tier{TierZero, TierOne, TierTwo}

// IsValidTier checks if the given tier is valid.
func IsValidTier(t Tier) bool {
	for _, v := range ValidTiers {
		if v == t {
			return true
		}
	}
	return false
}

// Strategic tier thresholds. These drive the strategic-alignment section
// override in the rule evaluator: tier-0 partners must carry at least
// TierZeroMinCCV of committed value, tier-1 partners must carry at least
// TierOneMinCCVPercentage of the country line revenue plan.
const (
	TierZeroMinCCV          = 50_000_000.0
	TierOneMinCCVPercentage = 10.0
)

// StrategicSectionID is the questionnaire section whose verdict is subject to
// the tier threshold override.
const StrategicSectionID = "strategic-alignment"

// PartnerRecord is a partner company tracked through the onboarding pipeline.
// CurrentGate only ever advances forward through GateOrder, one stage at a
// time, and only the gate progression controller mutates CurrentGate/Gates.
type PartnerRecord struct {
	ID                  uuid.UUID                `json:"id"`
	PartnerName         string                   `json:"partnerName"`
	PAMOwner            string                   `json:"pamOwner"`
	PDMOwner            *string                  `json:"pdmOwner,omitempty"`
	TPMOwner            *string                  `json:"tpmOwner,omitempty"`
	PSMOwner            *string                  `json:"psmOwner,omitempty"`
	TAMOwner            *string                  `json:"tamOwner,omitempty"`
	ContractType        ContractType             `json:"contractType"`
	Tier                Tier                     `json:"tier"`
	CCV                 float64                  `json:"ccv"`
	LRP                 float64                  `json:"lrp"`
	ContractSignedDate  *time.Time               `json:"contractSignedDate,omitempty"`
	TargetLaunchDate    *time.Time               `json:"targetLaunchDate,omitempty"`
	ActualLaunchDate    *time.Time               `json:"actualLaunchDate,omitempty"`
	OnboardingStartDate *time.Time               `json:"onboardingStartDate,omitempty"`
	CurrentGate         GateID                   `json:"currentGate"`
	Gates               map[GateID]*GateProgress `json:"gates"`
	CreatedAt           time.Time                `json:"createdAt"`
	UpdatedAt           time.Time                `json:"updatedAt"`
}

// GateProgressFor returns the progress entry for the given gate, creating it
// on the fly for records persisted before the gate map covered every stage.
func (p *PartnerRecord) GateProgressFor(gate GateID) *GateProgress {
	if p.Gates == nil {
		p.Gates = make(map[GateID]*GateProgress, len(GateOrder))
	}
	if gp, ok := p.Gates[gate]; ok && gp != nil {
		return gp
	}
	gp := &GateProgress{Status: GateStatusNotStarted}
	p.Gates[gate] = gp
	return gp
}
