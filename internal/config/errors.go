package config

import "fmt"

// ConfigError reports a malformed or missing configuration field. It is
// raised during setup, before any time-step loop starts.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration %s: %s", e.Field, e.Reason)
}

// NotFoundError reports an explicitly requested id that does not exist.
type NotFoundError struct {
	Kind  string // "instrument", "mode", "spacecraft", ...
	ID    string
	Owner string
}

func (e *NotFoundError) Error() string {
	if e.Owner == "" {
		return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
	}
	return fmt.Sprintf("%s %q not found on %s", e.Kind, e.ID, e.Owner)
}

func invalid(field, format string, args ...any) error {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
