package workflow

import (
	"errors"
	"fmt"
	"strings"

	"github.com/autobridge/autobridge/internal/catalog"
	"github.com/autobridge/autobridge/internal/models"
)

// Reasons an action is rejected. A rejected action leaves the state untouched.
var (
	ErrBusy            = errors.New("a task is already in flight")
	ErrEmptyPrompt     = errors.New("prompt is empty")
	ErrNoConfig        = errors.New("no configuration has been generated")
	ErrNotValidated    = errors.New("configuration has not been validated")
	ErrStaleRun        = errors.New("completion belongs to a superseded task")
	ErrUnknownTab      = errors.New("unknown tab")
	ErrUnknownTemplate = errors.New("unknown template")
	ErrUnknownAction   = errors.New("unknown action")
)

// EffectKind names work the caller must start after a transition.
type EffectKind string

const (
	EffectNone             EffectKind = ""
	EffectGenerate         EffectKind = "generate"
	EffectValidate         EffectKind = "validate"
	EffectRecordDeployment EffectKind = "record_deployment"
)

// Effect describes work requested by a transition. Run ties the eventual
// completion back to the state that asked for it.
type Effect struct {
	Kind   EffectKind
	Run    uint64
	Prompt string
	Config string
}

// Outcome is the result of reducing one action.
type Outcome struct {
	State   models.BuilderState
	Effect  Effect
	Applied bool
	// Rejected explains why the action was not applied.
	Rejected error
}

// Reducer computes workflow transitions. It has no side effects.
type Reducer struct {
	catalog *catalog.Catalog
}

// NewReducer creates a reducer reading templates and the deployment script from c.
func NewReducer(c *catalog.Catalog) *Reducer {
	return &Reducer{catalog: c}
}

// Reduce applies a to s.
func (r *Reducer) Reduce(s models.BuilderState, a Action) Outcome {
	next := s.Clone()

	switch act := a.(type) {
	case SetPrompt:
		next.Prompt = act.Prompt
		return applied(next, Effect{})

	case ApplyTemplate:
		tpl, err := r.catalog.Template(act.Index)
		if err != nil {
			return rejected(s, fmt.Errorf("%w: %d", ErrUnknownTemplate, act.Index))
		}
		next.Prompt = tpl.Prompt
		return applied(next, Effect{})

	case SelectTab:
		if !act.Tab.IsValid() {
			return rejected(s, fmt.Errorf("%w: %q", ErrUnknownTab, act.Tab))
		}
		next.ActiveTab = act.Tab
		return applied(next, Effect{})

	case Generate:
		if s.Phase.Busy() {
			return rejected(s, ErrBusy)
		}
		if strings.TrimSpace(s.Prompt) == "" {
			return rejected(s, ErrEmptyPrompt)
		}
		next.ResumePhase = s.Phase
		next.Phase = models.PhaseGenerating
		next.ValidationStatus = models.ValidationUnset
		next.Run++
		return applied(next, Effect{Kind: EffectGenerate, Run: next.Run, Prompt: s.Prompt})

	case GenerateCompleted:
		if s.Phase != models.PhaseGenerating || act.Run != s.Run {
			return rejected(s, ErrStaleRun)
		}
		if act.Config == "" {
			// Nothing usable came back; behave as if the task was aborted.
			return applied(resume(next), Effect{})
		}
		next.GeneratedConfig = act.Config
		next.Phase = models.PhaseReady
		next.ValidationStatus = models.ValidationUnset
		next.ActiveTab = models.TabYAML
		next.ResumePhase = ""
		return applied(next, Effect{})

	case Validate:
		if s.Phase.Busy() {
			return rejected(s, ErrBusy)
		}
		if !s.HasConfig() {
			return rejected(s, ErrNoConfig)
		}
		next.ResumePhase = s.Phase
		next.Phase = models.PhaseValidating
		next.ValidationStatus = models.ValidationValidating
		next.Run++
		return applied(next, Effect{Kind: EffectValidate, Run: next.Run, Config: s.GeneratedConfig})

	case ValidateCompleted:
		if s.Phase != models.PhaseValidating || act.Run != s.Run {
			return rejected(s, ErrStaleRun)
		}
		next.Phase = models.PhaseValidated
		next.ValidationStatus = models.ValidationSuccess
		next.ResumePhase = ""
		return applied(next, Effect{})

	case Deploy:
		if s.Phase.Busy() {
			return rejected(s, ErrBusy)
		}
		if s.ValidationStatus != models.ValidationSuccess {
			return rejected(s, ErrNotValidated)
		}
		next.DeploymentLogs = r.catalog.DeploymentLog()
		next.Phase = models.PhaseDeployed
		next.ActiveTab = models.TabLogs
		return applied(next, Effect{Kind: EffectRecordDeployment, Config: s.GeneratedConfig})

	case TaskAborted:
		if !s.Phase.Busy() || act.Run != s.Run {
			return rejected(s, ErrStaleRun)
		}
		return applied(resume(next), Effect{})

	default:
		return rejected(s, fmt.Errorf("%w: %T", ErrUnknownAction, a))
	}
}

// resume returns a busy state to the phase it left, restoring the matching validation status.
func resume(s models.BuilderState) models.BuilderState {
	phase := s.ResumePhase
	if phase == "" || phase.Busy() {
		phase = models.PhaseIdle
		if s.HasConfig() {
			phase = models.PhaseReady
		}
	}
	s.Phase = phase
	s.ResumePhase = ""
	switch phase {
	case models.PhaseValidated, models.PhaseDeployed:
		s.ValidationStatus = models.ValidationSuccess
	default:
		s.ValidationStatus = models.ValidationUnset
	}
	return s
}

func applied(s models.BuilderState, e Effect) Outcome {
	return Outcome{State: s, Effect: e, Applied: true}
}

func rejected(s models.BuilderState, reason error) Outcome {
	return Outcome{State: s, Rejected: reason}
}
