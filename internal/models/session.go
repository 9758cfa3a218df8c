package models

import "time"

// Session is a persisted builder session.
type Session struct {
	ID    string       `json:"id"`
	State BuilderState `json:"state"`
	// Version is incremented on every save and used for optimistic locking.
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ValidationError represents a field-level validation failure.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
