package workflow

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/autobridge/autobridge/internal/catalog"
	"github.com/autobridge/autobridge/internal/models"
)

func testReducer(t *testing.T) (*Reducer, *catalog.Catalog) {
	t.Helper()
	c, err := catalog.Load()
	if err != nil {
		t.Fatalf("loading catalog: %v", err)
	}
	return NewReducer(c), c
}

// step is a generated action. Completions are bound to the state's current
// run when applied, or to an older run when stale is set.
type step struct {
	op     int
	text   string
	index  int
	stale  bool
	config string
}

func (s step) action(state models.BuilderState, c *catalog.Catalog) Action {
	run := state.Run
	if s.stale {
		run--
	}
	switch s.op {
	case 0:
		return SetPrompt{Prompt: s.text}
	case 1:
		return ApplyTemplate{Index: s.index}
	case 2:
		return SelectTab{Tab: []models.Tab{models.TabBuilder, models.TabYAML, models.TabLogs, "bogus"}[s.index%4]}
	case 3:
		return Generate{}
	case 4:
		return GenerateCompleted{Run: run, Config: s.config}
	case 5:
		return Validate{}
	case 6:
		return ValidateCompleted{Run: run}
	case 7:
		return Deploy{}
	default:
		return TaskAborted{Run: run}
	}
}

func genStep() gopter.Gen {
	return gopter.CombineGens(
		gen.IntRange(0, 8),
		gen.OneConstOf("", "   ", "Sync Jira issues to Slack", "notify #ops"),
		gen.IntRange(-1, 4),
		gen.Bool(),
		gen.OneConstOf("", "connector: x"),
	).Map(func(v []interface{}) step {
		return step{
			op:     v[0].(int),
			text:   v[1].(string),
			index:  v[2].(int),
			stale:  v[3].(bool),
			config: v[4].(string),
		}
	})
}

func genSteps() gopter.Gen {
	return gen.SliceOfN(40, genStep())
}

func runSteps(r *Reducer, c *catalog.Catalog, steps []step, each func(before models.BuilderState, a Action, out Outcome) bool) bool {
	s := models.NewBuilderState()
	for _, st := range steps {
		a := st.action(s, c)
		out := r.Reduce(s, a)
		if !each(s, a, out) {
			return false
		}
		s = out.State
	}
	return true
}

// **Property: Invariants hold under any action sequence**
// For any sequence of actions starting from the initial state, every reachable
// state SHALL satisfy the builder state invariants.
func TestReducerPreservesInvariants(t *testing.T) {
	r, c := testReducer(t)

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("every reachable state is consistent", prop.ForAll(
		func(steps []step) bool {
			return runSteps(r, c, steps, func(_ models.BuilderState, _ Action, out Outcome) bool {
				return out.State.CheckInvariants() == nil
			})
		},
		genSteps(),
	))

	properties.Property("rejected actions leave the state unchanged", prop.ForAll(
		func(steps []step) bool {
			return runSteps(r, c, steps, func(before models.BuilderState, _ Action, out Outcome) bool {
				if out.Applied {
					return out.Rejected == nil
				}
				return out.Rejected != nil && reflect.DeepEqual(before, out.State) && out.Effect.Kind == EffectNone
			})
		},
		genSteps(),
	))

	properties.TestingRun(t)
}

// **Property: Generate requires a prompt and clears validation**
// A blank prompt never leaves idle; an applied Generate always resets the
// validation status and requests a generation task for a new run.
func TestReducerGenerate(t *testing.T) {
	r, c := testReducer(t)

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("blank prompts are rejected", prop.ForAll(
		func(n int) bool {
			s := models.NewBuilderState()
			s.Prompt = strings.Repeat(" \t\n", n)
			out := r.Reduce(s, Generate{})
			return !out.Applied && errors.Is(out.Rejected, ErrEmptyPrompt) && out.State.Phase == models.PhaseIdle
		},
		gen.IntRange(0, 10),
	))

	properties.Property("applied generate starts a new run", prop.ForAll(
		func(steps []step) bool {
			return runSteps(r, c, steps, func(before models.BuilderState, a Action, out Outcome) bool {
				if _, ok := a.(Generate); !ok || !out.Applied {
					return true
				}
				return out.State.Phase == models.PhaseGenerating &&
					out.State.ValidationStatus == models.ValidationUnset &&
					out.State.Run == before.Run+1 &&
					out.Effect.Kind == EffectGenerate &&
					out.Effect.Run == out.State.Run &&
					out.Effect.Prompt == before.Prompt
			})
		},
		genSteps(),
	))

	properties.Property("completed generation leaves a configuration and no validation", prop.ForAll(
		func(steps []step) bool {
			return runSteps(r, c, steps, func(_ models.BuilderState, a Action, out Outcome) bool {
				gc, ok := a.(GenerateCompleted)
				if !ok || !out.Applied || gc.Config == "" {
					return true
				}
				return out.State.GeneratedConfig == gc.Config &&
					out.State.Phase == models.PhaseReady &&
					out.State.ValidationStatus == models.ValidationUnset &&
					out.State.ActiveTab == models.TabYAML
			})
		},
		genSteps(),
	))

	properties.TestingRun(t)
}

// **Property: Deploy requires successful validation**
// Deploy is a no-op unless validation succeeded; when applied it replaces the
// log with exactly the fixed deployment script.
func TestReducerDeploy(t *testing.T) {
	r, c := testReducer(t)

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("deploy needs success", prop.ForAll(
		func(steps []step) bool {
			return runSteps(r, c, steps, func(before models.BuilderState, a Action, out Outcome) bool {
				if _, ok := a.(Deploy); !ok {
					return true
				}
				if before.ValidationStatus != models.ValidationSuccess {
					return !out.Applied
				}
				return out.Applied
			})
		},
		genSteps(),
	))

	properties.Property("deploy replaces the log with the fixed script", prop.ForAll(
		func(steps []step) bool {
			return runSteps(r, c, steps, func(_ models.BuilderState, a Action, out Outcome) bool {
				if _, ok := a.(Deploy); !ok || !out.Applied {
					return true
				}
				return reflect.DeepEqual(out.State.DeploymentLogs, c.DeploymentLog()) &&
					out.State.Phase == models.PhaseDeployed &&
					out.State.ActiveTab == models.TabLogs &&
					out.Effect.Kind == EffectRecordDeployment
			})
		},
		genSteps(),
	))

	properties.TestingRun(t)
}

// **Property: Stale completions are ignored**
// A completion or abort carrying a run other than the current one is rejected.
func TestReducerIgnoresStaleRuns(t *testing.T) {
	r, c := testReducer(t)

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("stale completions are no-ops", prop.ForAll(
		func(steps []step) bool {
			return runSteps(r, c, steps, func(before models.BuilderState, a Action, out Outcome) bool {
				var run uint64
				switch act := a.(type) {
				case GenerateCompleted:
					run = act.Run
				case ValidateCompleted:
					run = act.Run
				case TaskAborted:
					run = act.Run
				default:
					return true
				}
				if run == before.Run {
					return true
				}
				return !out.Applied && errors.Is(out.Rejected, ErrStaleRun)
			})
		},
		genSteps(),
	))

	properties.TestingRun(t)
}

func TestReducerHappyPath(t *testing.T) {
	r, c := testReducer(t)
	s := models.NewBuilderState()

	reduce := func(a Action) Outcome {
		t.Helper()
		out := r.Reduce(s, a)
		if !out.Applied {
			t.Fatalf("%s rejected: %v", a.Kind(), out.Rejected)
		}
		s = out.State
		return out
	}

	reduce(ApplyTemplate{Index: 1})
	if s.Prompt != c.Templates[1].Prompt {
		t.Fatalf("Prompt = %q, want template prompt", s.Prompt)
	}

	out := reduce(Generate{})
	reduce(GenerateCompleted{Run: out.Effect.Run, Config: c.Connector.Config})
	if s.Phase != models.PhaseReady {
		t.Fatalf("Phase = %s, want ready", s.Phase)
	}

	if out := r.Reduce(s, Deploy{}); out.Applied || !errors.Is(out.Rejected, ErrNotValidated) {
		t.Fatalf("Deploy before validation: applied=%v rejected=%v", out.Applied, out.Rejected)
	}

	out = reduce(Validate{})
	if s.ValidationStatus != models.ValidationValidating {
		t.Fatalf("ValidationStatus = %q, want validating", s.ValidationStatus)
	}
	reduce(ValidateCompleted{Run: out.Effect.Run})

	reduce(Deploy{})
	first := s.DeploymentLogs
	if len(first) != catalog.DeploymentStepCount {
		t.Fatalf("got %d log entries, want %d", len(first), catalog.DeploymentStepCount)
	}

	// Deploying again replaces rather than appends.
	reduce(Deploy{})
	if len(s.DeploymentLogs) != catalog.DeploymentStepCount {
		t.Fatalf("redeploy produced %d entries", len(s.DeploymentLogs))
	}
	if s.DeploymentLogs[len(s.DeploymentLogs)-1].Severity != models.SeveritySuccess {
		t.Errorf("last entry severity = %s, want success", s.DeploymentLogs[len(s.DeploymentLogs)-1].Severity)
	}

	// Regenerating drops the validation but keeps the deployment history.
	out = reduce(Generate{})
	reduce(GenerateCompleted{Run: out.Effect.Run, Config: "connector: other"})
	if s.ValidationStatus != models.ValidationUnset {
		t.Errorf("ValidationStatus = %q after regenerate", s.ValidationStatus)
	}
	if s.GeneratedConfig != "connector: other" {
		t.Errorf("GeneratedConfig not overwritten: %q", s.GeneratedConfig)
	}
	if len(s.DeploymentLogs) != catalog.DeploymentStepCount {
		t.Errorf("logs cleared by regenerate")
	}
}

func TestReducerRejectsWhileBusy(t *testing.T) {
	r, _ := testReducer(t)
	s := models.NewBuilderState()
	s.Prompt = "sync"

	out := r.Reduce(s, Generate{})
	s = out.State

	for _, a := range []Action{Generate{}, Validate{}, Deploy{}} {
		if out := r.Reduce(s, a); out.Applied || !errors.Is(out.Rejected, ErrBusy) {
			t.Errorf("%s while generating: applied=%v rejected=%v", a.Kind(), out.Applied, out.Rejected)
		}
	}

	// Prompt edits and tab switches stay available.
	if out := r.Reduce(s, SetPrompt{Prompt: "other"}); !out.Applied {
		t.Errorf("SetPrompt while generating rejected: %v", out.Rejected)
	}
	if out := r.Reduce(s, SelectTab{Tab: models.TabLogs}); !out.Applied {
		t.Errorf("SelectTab while generating rejected: %v", out.Rejected)
	}
}

func TestReducerAbortResumesPreviousPhase(t *testing.T) {
	r, c := testReducer(t)
	s := models.NewBuilderState()
	s.Prompt = "sync"

	// Abort from idle.
	out := r.Reduce(s, Generate{})
	out = r.Reduce(out.State, TaskAborted{Run: out.Effect.Run})
	if out.State.Phase != models.PhaseIdle || out.State.ResumePhase != "" {
		t.Fatalf("abort from idle: phase=%s resume=%s", out.State.Phase, out.State.ResumePhase)
	}

	// Abort validation of a validated config keeps the earlier success.
	s = out.State
	s.GeneratedConfig = c.Connector.Config
	s.Phase = models.PhaseValidated
	s.ValidationStatus = models.ValidationSuccess
	out = r.Reduce(s, Validate{})
	out = r.Reduce(out.State, TaskAborted{Run: out.Effect.Run})
	if out.State.Phase != models.PhaseValidated || out.State.ValidationStatus != models.ValidationSuccess {
		t.Fatalf("abort from validated: phase=%s status=%q", out.State.Phase, out.State.ValidationStatus)
	}

	// An empty generation result behaves as an abort.
	out = r.Reduce(out.State, Generate{})
	out = r.Reduce(out.State, GenerateCompleted{Run: out.Effect.Run})
	if out.State.Phase != models.PhaseValidated || out.State.GeneratedConfig != c.Connector.Config {
		t.Fatalf("empty completion: phase=%s config=%q", out.State.Phase, out.State.GeneratedConfig)
	}
}

func TestReducerRejectsUnknownInputs(t *testing.T) {
	r, _ := testReducer(t)
	s := models.NewBuilderState()

	tests := []struct {
		name string
		a    Action
		want error
	}{
		{"template below range", ApplyTemplate{Index: -1}, ErrUnknownTemplate},
		{"template above range", ApplyTemplate{Index: 99}, ErrUnknownTemplate},
		{"tab", SelectTab{Tab: "settings"}, ErrUnknownTab},
		{"validate without config", Validate{}, ErrNoConfig},
		{"nil action", nil, ErrUnknownAction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := r.Reduce(s, tt.a)
			if out.Applied || !errors.Is(out.Rejected, tt.want) {
				t.Errorf("applied=%v rejected=%v, want %v", out.Applied, out.Rejected, tt.want)
			}
		})
	}
}
