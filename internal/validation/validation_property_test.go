package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/autobridge/autobridge/internal/models"
)

// **Property: Prompt length limit**
// For any prompt, it SHALL be accepted only if it has at most MaxPromptLength
// characters, counting runes rather than bytes.
func TestPromptLengthLimit(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("prompts within the limit are accepted", prop.ForAll(
		func(n int, r rune) bool {
			return ValidatePrompt(strings.Repeat(string(r), n)) == nil
		},
		gen.IntRange(0, MaxPromptLength),
		gen.OneConstOf('a', 'é', '✅', ' '),
	))

	properties.Property("prompts over the limit are rejected", prop.ForAll(
		func(extra int) bool {
			err := ValidatePrompt(strings.Repeat("x", MaxPromptLength+extra))
			var ve *models.ValidationError
			return errors.As(err, &ve) && ve.Field == "prompt"
		},
		gen.IntRange(1, 500),
	))

	properties.TestingRun(t)
}

// **Property: Template index range**
// For any index and template count, the index SHALL be accepted only if
// 0 <= index < count.
func TestTemplateIndexRange(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("index accepted iff in range", prop.ForAll(
		func(index, count int) bool {
			err := ValidateTemplateIndex(index, count)
			return (err == nil) == (index >= 0 && index < count)
		},
		gen.IntRange(-5, 20),
		gen.IntRange(0, 10),
	))

	properties.TestingRun(t)
}

func TestValidateTab(t *testing.T) {
	for _, tab := range []string{"builder", "yaml", "logs"} {
		if err := ValidateTab(tab); err != nil {
			t.Errorf("ValidateTab(%q) error = %v", tab, err)
		}
	}
	for _, tab := range []string{"", "YAML", "settings", "logs "} {
		if err := ValidateTab(tab); err == nil {
			t.Errorf("ValidateTab(%q) accepted", tab)
		}
	}
}

func TestValidatePromptRejectsInvalidUTF8(t *testing.T) {
	if err := ValidatePrompt("sync \xff issues"); err == nil {
		t.Error("invalid UTF-8 accepted")
	}
}

func TestValidateSessionID(t *testing.T) {
	if err := ValidateSessionID(uuid.NewString()); err != nil {
		t.Errorf("ValidateSessionID(uuid) error = %v", err)
	}
	for _, id := range []string{"", "abc", "../etc/passwd"} {
		if err := ValidateSessionID(id); err == nil {
			t.Errorf("ValidateSessionID(%q) accepted", id)
		}
	}
}
