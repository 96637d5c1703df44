package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Path    string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
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

// HasErrors returns true if there are validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator validates authorizer configuration.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new configuration validator.
func NewValidator() *Validator {
	return &Validator{
		errors: make(ValidationErrors, 0),
	}
}

// ValidateConfig validates an authorizer configuration.
func ValidateConfig(config *Config) error {
	return NewValidator().Validate(config)
}

// Validate validates the configuration and returns any errors.
func (v *Validator) Validate(config *Config) error {
	v.errors = make(ValidationErrors, 0)

	if config == nil {
		v.addError("", "configuration is nil")
		return v.errors
	}

	v.validateServer(&config.Server)
	v.validateACL(&config.ACL)
	v.validateLogging(&config.Logging)

	if v.errors.HasErrors() {
		return v.errors
	}
	return nil
}

// validateServer validates admin server fields.
func (v *Validator) validateServer(server *ServerConfig) {
	if server.Address == "" {
		v.addError("server.address", "address is required")
	}
	if server.ReloadRPS < 0 {
		v.addError("server.reloadRPS", "reloadRPS must not be negative")
	}
	if server.ReloadBurst < 0 {
		v.addError("server.reloadBurst", "reloadBurst must not be negative")
	}
}

// validateACL validates decision engine fields.
func (v *Validator) validateACL(acl *ACLConfig) {
	if acl.RulesFile == "" {
		v.addError("acl.rulesFile", "rulesFile is required")
	}
	if acl.FreshnessWindow < 0 {
		v.addError("acl.freshnessWindow", "freshnessWindow must not be negative")
	}
	if acl.CacheThreshold < 0 {
		v.addError("acl.cacheThreshold", "cacheThreshold must not be negative")
	}
}

// validateLogging validates logging fields.
func (v *Validator) validateLogging(logging *LoggingConfig) {
	switch logging.Level {
	case "debug", "info", "warn", "error":
	default:
		v.addError("logging.level", fmt.Sprintf("invalid level %q: must be debug, info, warn or error", logging.Level))
	}

	switch logging.Format {
	case "json", "console":
	default:
		v.addError("logging.format", fmt.Sprintf("invalid format %q: must be json or console", logging.Format))
	}

	switch logging.Output {
	case "stdout", "stderr":
	default:
		v.addError("logging.output", fmt.Sprintf("invalid output %q: must be stdout or stderr", logging.Output))
	}
}

// addError adds a validation error.
func (v *Validator) addError(path, message string) {
	v.errors = append(v.errors, ValidationError{Path: path, Message: message})
}
