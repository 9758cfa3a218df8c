package models

import (
	"fmt"
	"strings"
)

// ValidationStatus is the result of validating a generated configuration.
// There is no failure state.
type ValidationStatus string

const (
	ValidationUnset      ValidationStatus = ""
	ValidationValidating ValidationStatus = "validating"
	ValidationSuccess    ValidationStatus = "success"
)

// Tab is the panel the builder screen shows.
type Tab string

const (
	TabBuilder Tab = "builder"
	TabYAML    Tab = "yaml"
	TabLogs    Tab = "logs"
)

// IsValid returns true if the tab is known.
func (t Tab) IsValid() bool {
	switch t {
	case TabBuilder, TabYAML, TabLogs:
		return true
	default:
		return false
	}
}

// BuilderState is the complete state of one builder session.
type BuilderState struct {
	Phase            Phase                `json:"phase"`
	Prompt           string               `json:"prompt"`
	GeneratedConfig  string               `json:"generated_config"`
	ValidationStatus ValidationStatus     `json:"validation_status"`
	DeploymentLogs   []DeploymentLogEntry `json:"deployment_logs"`
	ActiveTab        Tab                  `json:"active_tab"`
	// Run numbers the most recently started task. Completions from older runs are stale.
	Run uint64 `json:"run"`
	// ResumePhase is where an aborted task returns to.
	ResumePhase Phase `json:"resume_phase,omitempty"`
}

// NewBuilderState returns the initial state of a session.
func NewBuilderState() BuilderState {
	return BuilderState{
		Phase:          PhaseIdle,
		ActiveTab:      TabBuilder,
		DeploymentLogs: []DeploymentLogEntry{},
	}
}

// Clone returns a deep copy so callers never share the log slice.
func (s BuilderState) Clone() BuilderState {
	c := s
	c.DeploymentLogs = make([]DeploymentLogEntry, len(s.DeploymentLogs))
	copy(c.DeploymentLogs, s.DeploymentLogs)
	return c
}

// HasConfig reports whether a configuration has been generated.
func (s BuilderState) HasConfig() bool {
	return s.GeneratedConfig != ""
}

// PromptReady reports whether the prompt has non-whitespace content.
func (s BuilderState) PromptReady() bool {
	return strings.TrimSpace(s.Prompt) != ""
}

// CanDeploy reports whether Deploy would be applied.
func (s BuilderState) CanDeploy() bool {
	return s.ValidationStatus == ValidationSuccess && s.Phase.HasAction(BuilderActionDeploy)
}

// CheckInvariants verifies that phase, validation status and configuration agree.
func (s BuilderState) CheckInvariants() error {
	if !s.Phase.IsValid() {
		return fmt.Errorf("unknown phase %q", s.Phase)
	}
	if !s.ActiveTab.IsValid() {
		return fmt.Errorf("unknown tab %q", s.ActiveTab)
	}
	if s.ValidationStatus != ValidationUnset && !s.HasConfig() {
		return fmt.Errorf("validation status %q without a generated configuration", s.ValidationStatus)
	}
	if len(s.DeploymentLogs) > 0 && !s.HasConfig() {
		return fmt.Errorf("deployment logs without a generated configuration")
	}

	var want ValidationStatus
	switch s.Phase {
	case PhaseIdle, PhaseGenerating, PhaseReady:
		want = ValidationUnset
	case PhaseValidating:
		want = ValidationValidating
	case PhaseValidated, PhaseDeployed:
		want = ValidationSuccess
	}
	if s.ValidationStatus != want {
		return fmt.Errorf("phase %q with validation status %q", s.Phase, s.ValidationStatus)
	}

	switch s.Phase {
	case PhaseReady, PhaseValidating, PhaseValidated, PhaseDeployed:
		if !s.HasConfig() {
			return fmt.Errorf("phase %q without a generated configuration", s.Phase)
		}
	}
	if s.Phase == PhaseDeployed && len(s.DeploymentLogs) == 0 {
		return fmt.Errorf("phase %q without deployment logs", s.Phase)
	}
	return nil
}
