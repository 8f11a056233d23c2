package models

import "time"

// ============================================================================
// Gate Identifiers
// ============================================================================

// GateID identifies a stage in the partner onboarding pipeline.
// The pipeline is a fixed linear ordering:
//
//	pre-contract → gate-0 → gate-1 → gate-2 → gate-3 → post-launch
//
// post-launch is the only terminal state.
type GateID string

const (
	GatePreContract GateID = "pre-contract"
	GateZero        GateID = "gate-0"
	GateOne         GateID = "gate-1"
	GateTwo         GateID = "gate-2"
	GateThree       GateID = "gate-3"
	GatePostLaunch  GateID = "post-launch"
)

// GateOrder is the fixed pipeline ordering. Progression logic indexes into
// this slice; it must never be reordered.
var GateOrder = []GateID{
	GatePreContract,
	GateZero,
	GateOne,
	GateTwo,
	GateThree,
	GatePostLaunch,
}

// IsValidGateID checks if the given gate id is valid.
func IsValidGateID(g GateID) bool {
	for _, v := range GateOrder {
		if v == g {
			return true
		}
	}
	return false
}

// Position returns the gate's index in the fixed ordering, or -1 for an
// unknown gate id.
func (g GateID) Position() int {
	for i, v := range GateOrder {
		if v == g {
			return i
		}
	}
	return -1
}

// Next returns the following gate in the ordering. ok is false when the gate
// is terminal or unknown.
func (g GateID) Next() (next GateID, ok bool) {
	pos := g.Position()
	if pos < 0 || pos >= len(GateOrder)-1 {
		return "", false
	}
	return GateOrder[pos+1], true
}

// IsTerminal returns true if the gate is the final pipeline stage.
func (g GateID) IsTerminal() bool {
	return g == GatePostLaunch
}

// CanAdvanceTo returns true if target is exactly one step forward from this
// gate. Skipping stages or moving backward is never a valid automatic
// transition; those require an explicit admin override.
func (g GateID) CanAdvanceTo(target GateID) bool {
	next, ok := g.Next()
	return ok && target == next
}

// ============================================================================
// Gate Progress
// ============================================================================

// GateStatus represents how far a partner has progressed through one gate.
type GateStatus string

const (
	GateStatusNotStarted GateStatus = "not-started"
	GateStatusInProgress GateStatus = "in-progress"
	GateStatusCompleted  GateStatus = "completed"
)

// ValidGateStatuses contains all valid gate status values.
var ValidGateStatuses = []GateStatus{
	GateStatusNotStarted,
	GateStatusInProgress,
	GateStatusCompleted,
}

// IsValidGateStatus checks if the given status is valid.
func IsValidGateStatus(s GateStatus) bool {
	for _, v := range ValidGateStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// GateProgress records per-gate history on a partner record. The gate
// progression controller is the sole writer of these fields.
type GateProgress struct {
	Status        GateStatus `json:"status"`
	StartedDate   *time.Time `json:"startedDate,omitempty"`
	CompletedDate *time.Time `json:"completedDate,omitempty"`
}

// NewGateProgressMap returns a gates map covering every pipeline stage, with
// the first stage already in progress as of now.
func NewGateProgressMap(now time.Time) map[GateID]*GateProgress {
	gates := make(map[GateID]*GateProgress, len(GateOrder))
	for _, id := range GateOrder {
		gates[id] = &GateProgress{Status: GateStatusNotStarted}
	}
	started := now
	gates[GatePreContract].Status = GateStatusInProgress
	gates[GatePreContract].StartedDate = &started
	return gates
}
