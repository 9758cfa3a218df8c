// Package catalog provides the static content of the connector builder: quick templates,
// the example connector configuration, the deployment script, and the dashboard and
// landing page panels. The content is embedded YAML.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/autobridge/autobridge/internal/models"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// DeploymentStepCount is the number of entries every deployment run produces.
const DeploymentStepCount = 5

// ErrTemplateNotFound is returned when a template index is out of range.
var ErrTemplateNotFound = errors.New("template not found")

// Catalog is the decoded catalog document.
type Catalog struct {
	Brand           string                      `yaml:"brand"`
	Tagline         string                      `yaml:"tagline"`
	Connector       Connector                   `yaml:"connector"`
	Templates       []Template                  `yaml:"templates"`
	DeploymentSteps []models.DeploymentLogEntry `yaml:"deployment_steps"`
	Dashboard       Dashboard                   `yaml:"dashboard"`
	Landing         Landing                     `yaml:"landing"`
}

// Connector is the example connector every generation produces.
type Connector struct {
	Name    string   `yaml:"name"`
	Version string   `yaml:"version"`
	Apps    []string `yaml:"apps"`
	Config  string   `yaml:"config"`
}

// Template is a quick-start prompt.
type Template struct {
	Name   string `yaml:"name" json:"name"`
	Prompt string `yaml:"prompt" json:"prompt"`
	App    string `yaml:"app" json:"app"`
}

// Dashboard holds the dashboard panels.
type Dashboard struct {
	UserName           string              `yaml:"user_name" json:"user_name"`
	Stats              []Stat              `yaml:"stats" json:"stats"`
	RecommendedActions []RecommendedAction `yaml:"recommended_actions" json:"recommended_actions"`
	RecentConnectors   []ConnectorSummary  `yaml:"recent_connectors" json:"recent_connectors"`
}

// Stat is a labelled figure.
type Stat struct {
	Label string `yaml:"label" json:"label"`
	Value string `yaml:"value" json:"value"`
	Color string `yaml:"color,omitempty" json:"color,omitempty"`
}

// RecommendedAction is a suggested next step on the dashboard.
type RecommendedAction struct {
	Title string `yaml:"title" json:"title"`
	App   string `yaml:"app" json:"app"`
}

// ConnectorSummary is a row of the recent connectors panel.
type ConnectorSummary struct {
	Name    string `yaml:"name" json:"name"`
	Status  string `yaml:"status" json:"status"`
	Health  int    `yaml:"health" json:"health"`
	LastRun string `yaml:"last_run" json:"last_run"`
}

// Landing holds the landing page sections.
type Landing struct {
	Headline  string    `yaml:"headline"`
	Highlight string    `yaml:"highlight"`
	Summary   string    `yaml:"summary"`
	Apps      []string  `yaml:"apps"`
	Features  []Feature `yaml:"features"`
	Stats     []Stat    `yaml:"stats"`
	Footer    string    `yaml:"footer"`
}

// Feature is a landing page feature card.
type Feature struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

// Load decodes the embedded catalog.
func Load() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// MustLoad decodes the embedded catalog and panics on error.
func MustLoad() *Catalog {
	c, err := Load()
	if err != nil {
		panic("loading embedded catalog: " + err.Error())
	}
	return c
}

// Parse decodes and validates a catalog document.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks the catalog is usable by the builder workflow.
func (c *Catalog) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Connector.Config) == "" {
		problems = append(problems, "connector.config is empty")
	}
	if c.Connector.Name == "" {
		problems = append(problems, "connector.name is empty")
	}
	if len(c.Templates) == 0 {
		problems = append(problems, "no templates")
	}
	for i, t := range c.Templates {
		if strings.TrimSpace(t.Prompt) == "" {
			problems = append(problems, fmt.Sprintf("templates[%d].prompt is empty", i))
		}
	}
	if len(c.DeploymentSteps) != DeploymentStepCount {
		problems = append(problems, fmt.Sprintf("deployment_steps has %d entries, want %d", len(c.DeploymentSteps), DeploymentStepCount))
	}
	for i, step := range c.DeploymentSteps {
		if !step.Severity.IsValid() {
			problems = append(problems, fmt.Sprintf("deployment_steps[%d].severity %q is unknown", i, step.Severity))
		}
		if step.Message == "" {
			problems = append(problems, fmt.Sprintf("deployment_steps[%d].message is empty", i))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid catalog: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Template returns the template at index i.
func (c *Catalog) Template(i int) (Template, error) {
	if i < 0 || i >= len(c.Templates) {
		return Template{}, fmt.Errorf("%w: index %d", ErrTemplateNotFound, i)
	}
	return c.Templates[i], nil
}

// DeploymentLog returns a fresh copy of the deployment script.
func (c *Catalog) DeploymentLog() []models.DeploymentLogEntry {
	out := make([]models.DeploymentLogEntry, len(c.DeploymentSteps))
	copy(out, c.DeploymentSteps)
	return out
}
