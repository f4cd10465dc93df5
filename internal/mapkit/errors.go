package mapkit

import "fmt"

// ConfigurationError reports an entity that could not be constructed.
// The entity is not registered and its pipeline never starts.
type ConfigurationError struct {
	Entity string // "root", "layer" or "location"
	Name   string
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	msg := fmt.Sprintf("invalid %s", e.Entity)
	if e.Name != "" {
		msg += fmt.Sprintf(" %q", e.Name)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// LoadError reports a remote fetch that failed. The layer stays in
// DataLoading and is never rendered.
type LoadError struct {
	Layer string
	URL   string
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("could not load %s locations from %s: %v", e.Layer, e.URL, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// SelectionError reports a lookup by name or id that matched nothing.
type SelectionError struct {
	Kind string // "layer" or "marker"
	Name string
}

func (e *SelectionError) Error() string {
	return fmt.Sprintf("no %s named %q", e.Kind, e.Name)
}
