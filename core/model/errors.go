package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrPluginNotFound    = errors.New("plugin not found")
	ErrPluginInvalid     = errors.New("plugin invalid")
	ErrConfiguration     = errors.New("configuration error")
	ErrExecutionFailure  = errors.New("execution failure")
	ErrValidationFailure = errors.New("validation failure")
	ErrTopologyDetection = errors.New("topology detection error")
)

// PluginError reports a failed model lookup.
type PluginError struct {
	Kind Kind
	Name string
	Path string
	Err  error
}

func (e *PluginError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("%s: no %s model matches %s", e.Err, e.Kind, e.Path)
	}
	return fmt.Sprintf("%s: %s model %q (%s)", e.Err, e.Kind, e.Name, e.Path)
}

func (e *PluginError) Unwrap() error { return e.Err }

// ExecutionError reports a non-zero aggregate return code at a fatal stage.
type ExecutionError struct {
	Stage      string
	ReturnCode int
	Stderr     string
	Err        error
}

func (e *ExecutionError) Error() string {
	msg := fmt.Sprintf("%s: stage %s returned %d", ErrExecutionFailure, e.Stage, e.ReturnCode)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += "\n" + stderr
	}
	return msg
}

func (e *ExecutionError) Unwrap() error { return ErrExecutionFailure }

// TopologyError reports an introspection command that failed or produced
// output that could not be parsed.
type TopologyError struct {
	Command string
	Err     error
}

func (e *TopologyError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrTopologyDetection, e.Command, e.Err)
}

func (e *TopologyError) Unwrap() []error { return []error{ErrTopologyDetection, e.Err} }

// ConfigError reports a missing or unusable model before flag composition.
func ConfigError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}
