package lifecycle

import (
	"testing"

	"github.com/eventhorizon-app/backend/internal/models"
)

func TestProposalOpsGatedToProposalPhase(t *testing.T) {
	proposalOps := []Operation{OpProposeActivity, OpRemoveProposal, OpExcludeActivity, OpIncludeActivity}

	for _, op := range proposalOps {
		if !Allowed(models.PhaseProposal, op) {
			t.Errorf("%s should be allowed in proposal phase", op)
		}
		for _, phase := range []models.EventPhase{models.PhaseVoting, models.PhaseScheduling, models.PhaseInfo} {
			if Allowed(phase, op) {
				t.Errorf("%s should not be allowed in %s phase", op, phase)
			}
			if err := Check(phase, op); err == nil {
				t.Errorf("Check(%s, %s) should return an error", phase, op)
			}
		}
	}
}

func TestSchedulingOpsGatedToSchedulingPhase(t *testing.T) {
	schedulingOps := []Operation{OpCreateDate, OpDeleteDate, OpRespondToDate}

	for _, op := range schedulingOps {
		if !Allowed(models.PhaseScheduling, op) {
			t.Errorf("%s should be allowed in scheduling phase", op)
		}
		for _, phase := range []models.EventPhase{models.PhaseProposal, models.PhaseVoting, models.PhaseInfo} {
			if Allowed(phase, op) {
				t.Errorf("%s should not be allowed in %s phase", op, phase)
			}
		}
	}
}

func TestVoteAllowedInEveryPhase(t *testing.T) {
	for phase := range phaseOrder {
		if err := Check(phase, OpVote); err != nil {
			t.Errorf("voting should be allowed in %s phase: %v", phase, err)
		}
	}
}

func TestCanTransitionForwardOnly(t *testing.T) {
	cases := []struct {
		from, to models.EventPhase
		want     bool
	}{
		{models.PhaseProposal, models.PhaseVoting, true},
		{models.PhaseProposal, models.PhaseScheduling, true},
		{models.PhaseProposal, models.PhaseInfo, true},
		{models.PhaseVoting, models.PhaseScheduling, true},
		{models.PhaseScheduling, models.PhaseInfo, true},
		{models.PhaseVoting, models.PhaseProposal, false},
		{models.PhaseInfo, models.PhaseScheduling, false},
		{models.PhaseInfo, models.PhaseInfo, false},
		{models.PhaseProposal, models.PhaseProposal, false},
		{models.PhaseProposal, models.EventPhase("archived"), false},
		{models.EventPhase(""), models.PhaseVoting, false},
	}

	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%q, %q) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestInfoIsTerminal(t *testing.T) {
	for phase := range phaseOrder {
		if CanTransition(models.PhaseInfo, phase) {
			t.Errorf("info phase should have no outgoing transition to %s", phase)
		}
	}
}

func TestValidPhase(t *testing.T) {
	for phase := range phaseOrder {
		if !ValidPhase(phase) {
			t.Errorf("%s should be a valid phase", phase)
		}
	}
	if ValidPhase(models.EventPhase("draft")) {
		t.Error("unknown phase should not validate")
	}
}
