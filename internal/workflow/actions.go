// Package workflow implements the builder workflow: a typed state advanced by a pure
// reducer, with simulated generation and validation run as cancellable background tasks.
package workflow

import "github.com/autobridge/autobridge/internal/models"

// ActionKind names an action for logging and events.
type ActionKind string

const (
	KindSetPrompt         ActionKind = "set_prompt"
	KindApplyTemplate     ActionKind = "apply_template"
	KindSelectTab         ActionKind = "select_tab"
	KindGenerate          ActionKind = "generate"
	KindGenerateCompleted ActionKind = "generate_completed"
	KindValidate          ActionKind = "validate"
	KindValidateCompleted ActionKind = "validate_completed"
	KindDeploy            ActionKind = "deploy"
	KindTaskAborted       ActionKind = "task_aborted"
)

// Action is an input to the reducer.
type Action interface {
	Kind() ActionKind
}

// SetPrompt replaces the prompt text.
type SetPrompt struct {
	Prompt string
}

// ApplyTemplate copies a quick template's prompt into the prompt.
type ApplyTemplate struct {
	Index int
}

// SelectTab switches the visible panel.
type SelectTab struct {
	Tab models.Tab
}

// Generate starts a generation task for the current prompt.
type Generate struct{}

// GenerateCompleted delivers the result of generation task Run.
type GenerateCompleted struct {
	Run    uint64
	Config string
}

// Validate starts a validation task for the generated configuration.
type Validate struct{}

// ValidateCompleted delivers the result of validation task Run.
type ValidateCompleted struct {
	Run uint64
}

// Deploy replaces the deployment log with a fresh deployment run.
type Deploy struct{}

// TaskAborted reports that task Run was cancelled before completing.
type TaskAborted struct {
	Run uint64
}

func (SetPrompt) Kind() ActionKind         { return KindSetPrompt }
func (ApplyTemplate) Kind() ActionKind     { return KindApplyTemplate }
func (SelectTab) Kind() ActionKind         { return KindSelectTab }
func (Generate) Kind() ActionKind          { return KindGenerate }
func (GenerateCompleted) Kind() ActionKind { return KindGenerateCompleted }
func (Validate) Kind() ActionKind          { return KindValidate }
func (ValidateCompleted) Kind() ActionKind { return KindValidateCompleted }
func (Deploy) Kind() ActionKind            { return KindDeploy }
func (TaskAborted) Kind() ActionKind       { return KindTaskAborted }
