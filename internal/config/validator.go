package config

import (
	"fmt"
	"net"
	"strings"

	"github.com/venusroot/bootstrap/internal/hook"
)

// Validator is the interface for validating configuration.
type Validator interface {
	Validate() error
}

// ValidationError represents a single validation error.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// MultiValidationError represents multiple validation errors.
type MultiValidationError struct {
	Errors []ValidationError
}

// Error implements the error interface.
func (e *MultiValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "no validation errors"
	}

	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("validation failed with %d errors:\n", len(e.Errors)))
	for i, err := range e.Errors {
		builder.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return builder.String()
}

var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "error": true,
}

// Validate validates BootstrapConfig.
func (c *BootstrapConfig) Validate() error {
	var errors []ValidationError

	// Validate log level
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("unknown level %q (trace, debug, info, warn, error)", c.Logging.Level),
		})
	}

	// Validate debugger address
	if ip := net.ParseIP(c.Debugger.IPAddress); ip == nil || ip.To4() == nil {
		errors = append(errors, ValidationError{
			Field:   "debugger.ip_address",
			Message: fmt.Sprintf("invalid IPv4 address: %q", c.Debugger.IPAddress),
		})
	}

	// Validate hook layering
	if _, err := hook.ParseLayering(c.Hooks.Layering); err != nil {
		errors = append(errors, ValidationError{
			Field:   "hooks.layering",
			Message: err.Error(),
		})
	}

	// Validate managed entry point
	required := []struct{ field, value string }{
		{"entrypoint.assembly", c.Entrypoint.Assembly},
		{"entrypoint.namespace", c.Entrypoint.Namespace},
		{"entrypoint.class", c.Entrypoint.Class},
		{"entrypoint.method", c.Entrypoint.Method},
	}
	for _, r := range required {
		if r.value == "" {
			errors = append(errors, ValidationError{
				Field:   r.field,
				Message: "value is required",
			})
		}
	}

	if c.Runtime.BCLDir == "" {
		errors = append(errors, ValidationError{
			Field:   "runtime.bcl_dir",
			Message: "value is required",
		})
	}

	if len(errors) > 0 {
		return &MultiValidationError{Errors: errors}
	}
	return nil
}
