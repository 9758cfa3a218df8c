// Package validation checks user input to the builder before it reaches the workflow.
package validation

import (
	"fmt"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/autobridge/autobridge/internal/models"
)

// MaxPromptLength is the longest prompt accepted, in characters.
const MaxPromptLength = 4000

// ValidatePrompt validates prompt text. Blank prompts are accepted here; the
// workflow refuses to generate from them.
func ValidatePrompt(prompt string) error {
	if !utf8.ValidString(prompt) {
		return &models.ValidationError{
			Field:   "prompt",
			Message: "prompt must be valid UTF-8",
		}
	}

	if utf8.RuneCountInString(prompt) > MaxPromptLength {
		return &models.ValidationError{
			Field:   "prompt",
			Message: fmt.Sprintf("prompt must be %d characters or less", MaxPromptLength),
		}
	}

	return nil
}

// ValidateTab validates a builder tab name.
func ValidateTab(tab string) error {
	if tab == "" {
		return &models.ValidationError{
			Field:   "tab",
			Message: "tab is required",
		}
	}

	if !models.Tab(tab).IsValid() {
		return &models.ValidationError{
			Field:   "tab",
			Message: "tab must be one of: builder, yaml, logs",
		}
	}

	return nil
}

// ValidateTemplateIndex validates a quick template index against the number of templates.
func ValidateTemplateIndex(index, count int) error {
	if index < 0 || index >= count {
		return &models.ValidationError{
			Field:   "index",
			Message: fmt.Sprintf("template index must be between 0 and %d", count-1),
		}
	}

	return nil
}

// ValidateSessionID validates that a session ID is a UUID.
func ValidateSessionID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return &models.ValidationError{
			Field:   "id",
			Message: "session ID must be a UUID",
		}
	}

	return nil
}
