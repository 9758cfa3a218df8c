package models

import "time"

// DeploymentRecord is written every time a session deploys its configuration.
type DeploymentRecord struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Connector string    `json:"connector"`
	Version   string    `json:"version"`
	Apps      []string  `json:"apps"`
	LogCount  int       `json:"log_count"`
	CreatedAt time.Time `json:"created_at"`
}
