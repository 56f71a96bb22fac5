// Package lifecycle holds the event phase state machine. Every mutating
// handler asks this package once, up front, whether its operation is legal
// in the event's current phase instead of re-checking phase strings ad hoc.
package lifecycle

import (
	"fmt"

	"github.com/eventhorizon-app/backend/internal/models"
)

type Operation string

const (
	OpProposeActivity Operation = "propose activity"
	OpRemoveProposal  Operation = "remove proposed activity"
	OpExcludeActivity Operation = "exclude activity"
	OpIncludeActivity Operation = "include activity"
	OpCreateDate      Operation = "create date option"
	OpDeleteDate      Operation = "delete date option"
	OpRespondToDate   Operation = "respond to date option"
	OpVote            Operation = "vote on activity"
)

// phaseOrder fixes the forward direction of the lifecycle.
var phaseOrder = map[models.EventPhase]int{
	models.PhaseProposal:   0,
	models.PhaseVoting:     1,
	models.PhaseScheduling: 2,
	models.PhaseInfo:       3,
}

// allowedOps is the single source of truth for phase gating. Voting stays
// open in every phase so shared links keep collecting stances late.
var allowedOps = map[models.EventPhase]map[Operation]bool{
	models.PhaseProposal: {
		OpProposeActivity: true,
		OpRemoveProposal:  true,
		OpExcludeActivity: true,
		OpIncludeActivity: true,
		OpVote:            true,
	},
	models.PhaseVoting: {
		OpVote: true,
	},
	models.PhaseScheduling: {
		OpCreateDate:    true,
		OpDeleteDate:    true,
		OpRespondToDate: true,
		OpVote:          true,
	},
	models.PhaseInfo: {
		OpVote: true,
	},
}

// ValidPhase reports whether p names a known phase.
func ValidPhase(p models.EventPhase) bool {
	_, ok := phaseOrder[p]
	return ok
}

// Allowed reports whether op may run while the event sits in phase.
func Allowed(phase models.EventPhase, op Operation) bool {
	ops, ok := allowedOps[phase]
	return ok && ops[op]
}

// Check returns a descriptive error when op is not permitted in phase.
// Handlers map it to a 400.
func Check(phase models.EventPhase, op Operation) error {
	if !Allowed(phase, op) {
		return fmt.Errorf("cannot %s while event is in %s phase", op, phase)
	}
	return nil
}

// CanTransition reports whether a generic phase update from one phase to
// another is legal. Only forward movement is allowed; skipping phases is
// fine (select-activity jumps proposal straight to scheduling), going back
// or standing still is not.
func CanTransition(from, to models.EventPhase) bool {
	fromIdx, ok := phaseOrder[from]
	if !ok {
		return false
	}
	toIdx, ok := phaseOrder[to]
	if !ok {
		return false
	}
	return toIdx > fromIdx
}
