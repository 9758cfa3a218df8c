// Package models provides data models for the connector builder.
package models

// Phase represents where a builder session is in the generate/validate/deploy workflow.
type Phase string

const (
	// PhaseIdle indicates nothing has been generated yet.
	PhaseIdle Phase = "idle"
	// PhaseGenerating indicates a generation task is in flight.
	PhaseGenerating Phase = "generating"
	// PhaseReady indicates a configuration exists but has not been validated.
	PhaseReady Phase = "ready"
	// PhaseValidating indicates a validation task is in flight.
	PhaseValidating Phase = "validating"
	// PhaseValidated indicates the configuration passed validation.
	PhaseValidated Phase = "validated"
	// PhaseDeployed indicates the validated configuration was deployed at least once.
	PhaseDeployed Phase = "deployed"
)

// BuilderAction represents a workflow action offered to the user.
type BuilderAction string

const (
	// BuilderActionGenerate asks for a configuration from the prompt.
	BuilderActionGenerate BuilderAction = "generate"
	// BuilderActionValidate validates the generated configuration.
	BuilderActionValidate BuilderAction = "validate"
	// BuilderActionDeploy deploys the validated configuration.
	BuilderActionDeploy BuilderAction = "deploy"
)

// AvailableActions returns the workflow actions available in this phase.
// Generate additionally requires a non-blank prompt; that check belongs to the reducer.
func (p Phase) AvailableActions() []BuilderAction {
	switch p {
	case PhaseIdle:
		return []BuilderAction{BuilderActionGenerate}
	case PhaseGenerating, PhaseValidating:
		// Task in flight - nothing can start until it completes
		return []BuilderAction{}
	case PhaseReady:
		return []BuilderAction{BuilderActionGenerate, BuilderActionValidate}
	case PhaseValidated, PhaseDeployed:
		return []BuilderAction{BuilderActionGenerate, BuilderActionValidate, BuilderActionDeploy}
	default:
		return []BuilderAction{}
	}
}

// HasAction returns true if the given action is available in this phase.
func (p Phase) HasAction(action BuilderAction) bool {
	for _, a := range p.AvailableActions() {
		if a == action {
			return true
		}
	}
	return false
}

// Busy reports whether a simulated task is in flight.
func (p Phase) Busy() bool {
	return p == PhaseGenerating || p == PhaseValidating
}

// String returns the string representation of the phase.
func (p Phase) String() string {
	return string(p)
}

// IsValid returns true if the phase is a known phase.
func (p Phase) IsValid() bool {
	switch p {
	case PhaseIdle, PhaseGenerating, PhaseReady, PhaseValidating, PhaseValidated, PhaseDeployed:
		return true
	default:
		return false
	}
}

// ValidPhases returns all valid phases.
func ValidPhases() []Phase {
	return []Phase{
		PhaseIdle,
		PhaseGenerating,
		PhaseReady,
		PhaseValidating,
		PhaseValidated,
		PhaseDeployed,
	}
}
