package workflow

import (
	"context"
	"time"
)

// Generator turns a prompt into connector configuration text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Validator checks connector configuration text.
type Validator interface {
	Validate(ctx context.Context, config string) error
}

// SimulatedGenerator waits Delay and returns Config regardless of the prompt.
type SimulatedGenerator struct {
	Delay  time.Duration
	Config string
}

// Generate implements Generator.
func (g *SimulatedGenerator) Generate(ctx context.Context, _ string) (string, error) {
	if err := sleep(ctx, g.Delay); err != nil {
		return "", err
	}
	return g.Config, nil
}

// SimulatedValidator waits Delay and accepts everything.
type SimulatedValidator struct {
	Delay time.Duration
}

// Validate implements Validator.
func (v *SimulatedValidator) Validate(ctx context.Context, _ string) error {
	return sleep(ctx, v.Delay)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
