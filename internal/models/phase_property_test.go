package models

import (
	"reflect"
	"sort"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// **Property: Phase Action Availability**
// For any phase, the available actions SHALL be exactly:
// - "idle" → ["generate"]
// - "generating", "validating" → []
// - "ready" → ["generate", "validate"]
// - "validated", "deployed" → ["generate", "validate", "deploy"]

func genPhase() gopter.Gen {
	return gen.OneConstOf(
		PhaseIdle,
		PhaseGenerating,
		PhaseReady,
		PhaseValidating,
		PhaseValidated,
		PhaseDeployed,
	)
}

func expectedActionsForPhase(p Phase) []BuilderAction {
	switch p {
	case PhaseIdle:
		return []BuilderAction{BuilderActionGenerate}
	case PhaseReady:
		return []BuilderAction{BuilderActionGenerate, BuilderActionValidate}
	case PhaseValidated, PhaseDeployed:
		return []BuilderAction{BuilderActionGenerate, BuilderActionValidate, BuilderActionDeploy}
	default:
		return []BuilderAction{}
	}
}

func sortActions(actions []BuilderAction) []BuilderAction {
	sorted := make([]BuilderAction, len(actions))
	copy(sorted, actions)
	sort.Slice(sorted, func(i, j int) bool {
		return string(sorted[i]) < string(sorted[j])
	})
	return sorted
}

func TestPhaseActionAvailability(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("available actions match the phase", prop.ForAll(
		func(p Phase) bool {
			return reflect.DeepEqual(sortActions(p.AvailableActions()), sortActions(expectedActionsForPhase(p)))
		},
		genPhase(),
	))

	properties.Property("busy phases offer no actions", prop.ForAll(
		func(p Phase) bool {
			if !p.Busy() {
				return true
			}
			return len(p.AvailableActions()) == 0
		},
		genPhase(),
	))

	properties.Property("HasAction agrees with AvailableActions", prop.ForAll(
		func(p Phase, a BuilderAction) bool {
			found := false
			for _, x := range p.AvailableActions() {
				if x == a {
					found = true
				}
			}
			return p.HasAction(a) == found
		},
		genPhase(),
		gen.OneConstOf(BuilderActionGenerate, BuilderActionValidate, BuilderActionDeploy),
	))

	properties.TestingRun(t)
}

func TestUnknownPhase(t *testing.T) {
	p := Phase("exploded")
	if p.IsValid() {
		t.Error("unknown phase reported valid")
	}
	if len(p.AvailableActions()) != 0 {
		t.Error("unknown phase should offer no actions")
	}
	if len(ValidPhases()) != 6 {
		t.Errorf("ValidPhases() has %d entries, want 6", len(ValidPhases()))
	}
}

func TestBuilderStateInvariants(t *testing.T) {
	tests := []struct {
		name    string
		state   BuilderState
		wantErr bool
	}{
		{"initial", NewBuilderState(), false},
		{"validating without config", BuilderState{Phase: PhaseValidating, ActiveTab: TabYAML, ValidationStatus: ValidationValidating}, true},
		{"ready with config", BuilderState{Phase: PhaseReady, ActiveTab: TabYAML, GeneratedConfig: "name: x"}, false},
		{"ready but validated status", BuilderState{Phase: PhaseReady, ActiveTab: TabYAML, GeneratedConfig: "name: x", ValidationStatus: ValidationSuccess}, true},
		{"deployed without logs", BuilderState{Phase: PhaseDeployed, ActiveTab: TabLogs, GeneratedConfig: "name: x", ValidationStatus: ValidationSuccess}, true},
		{"bad tab", BuilderState{Phase: PhaseIdle, ActiveTab: "settings"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.state.CheckInvariants()
			if (err != nil) != tt.wantErr {
				t.Errorf("CheckInvariants() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCloneDoesNotShareLogs(t *testing.T) {
	s := NewBuilderState()
	s.DeploymentLogs = append(s.DeploymentLogs, DeploymentLogEntry{Time: "00:01", Message: "a", Severity: SeverityInfo})

	c := s.Clone()
	c.DeploymentLogs[0].Message = "changed"

	if s.DeploymentLogs[0].Message != "a" {
		t.Error("Clone shares the log slice with the original")
	}
}
