package config

import (
	"fmt"
	"os"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "signals.settle_ms")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Upper bounds for the timing keys.
const (
	maxSettleMs         = 10_000
	maxTerminateGraceMs = 60_000
	maxThrottleMs       = 60_000
)

// ValidLogLevels returns the list of valid diagnostic log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// ValidConfirmInputs returns the list of valid confirmation inputs
func ValidConfirmInputs() []string {
	return []string{"auto", "stdin", "tty"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	// Validate event log config
	errors = append(errors, c.validateLog()...)

	// Validate clock config
	errors = append(errors, c.validateClock()...)

	// Validate signal config
	errors = append(errors, c.validateSignals()...)

	// Validate walk config
	errors = append(errors, c.validateWalk()...)

	// Validate diagnostics config
	errors = append(errors, c.validateDiagnostics()...)

	return errors
}

// validateLog validates the LogConfig
func (c *Config) validateLog() []ValidationError {
	var errors []ValidationError

	if c.Log.Filename == "" {
		return errors
	}
	if info, err := os.Stat(c.Log.Filename); err == nil && info.IsDir() {
		errors = append(errors, ValidationError{
			Field:   "log.filename",
			Value:   c.Log.Filename,
			Message: "must not be a directory",
		})
	}

	return errors
}

// validateClock validates the ClockConfig
func (c *Config) validateClock() []ValidationError {
	var errors []ValidationError

	if c.Clock.BaseMs < 0 {
		errors = append(errors, ValidationError{
			Field:   "clock.base_ms",
			Value:   c.Clock.BaseMs,
			Message: "must be non-negative",
		})
	}

	return errors
}

// validateSignals validates the SignalsConfig
func (c *Config) validateSignals() []ValidationError {
	var errors []ValidationError

	if c.Signals.SettleMs < 0 || c.Signals.SettleMs > maxSettleMs {
		errors = append(errors, ValidationError{
			Field:   "signals.settle_ms",
			Value:   c.Signals.SettleMs,
			Message: fmt.Sprintf("must be between 0 and %d", maxSettleMs),
		})
	}

	if c.Signals.TerminateGraceMs <= 0 || c.Signals.TerminateGraceMs > maxTerminateGraceMs {
		errors = append(errors, ValidationError{
			Field:   "signals.terminate_grace_ms",
			Value:   c.Signals.TerminateGraceMs,
			Message: fmt.Sprintf("must be between 1 and %d", maxTerminateGraceMs),
		})
	}

	if c.Signals.ConfirmInput != "" && !slices.Contains(ValidConfirmInputs(), c.Signals.ConfirmInput) {
		errors = append(errors, ValidationError{
			Field:   "signals.confirm_input",
			Value:   c.Signals.ConfirmInput,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidConfirmInputs(), ", ")),
		})
	}

	return errors
}

// validateWalk validates the WalkConfig
func (c *Config) validateWalk() []ValidationError {
	var errors []ValidationError

	if c.Walk.ThrottleMs < 0 || c.Walk.ThrottleMs > maxThrottleMs {
		errors = append(errors, ValidationError{
			Field:   "walk.throttle_ms",
			Value:   c.Walk.ThrottleMs,
			Message: fmt.Sprintf("must be between 0 and %d", maxThrottleMs),
		})
	}

	return errors
}

// validateDiagnostics validates the DiagnosticsConfig
func (c *Config) validateDiagnostics() []ValidationError {
	var errors []ValidationError

	if c.Diagnostics.Level != "" && !slices.Contains(ValidLogLevels(), c.Diagnostics.Level) {
		errors = append(errors, ValidationError{
			Field:   "diagnostics.level",
			Value:   c.Diagnostics.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	return errors
}
