package models

// Severity tags a deployment log entry.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// IsValid returns true if the severity is known.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityInfo, SeveritySuccess, SeverityError:
		return true
	default:
		return false
	}
}

// DeploymentLogEntry represents a single line of a deployment run.
type DeploymentLogEntry struct {
	Time     string   `json:"time" yaml:"time"` // elapsed label, e.g. "00:03"
	Message  string   `json:"message" yaml:"message"`
	Severity Severity `json:"severity" yaml:"severity"`
}
