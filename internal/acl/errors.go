package acl

import (
	"errors"
	"fmt"
)

// Common ACL errors.
var (
	// ErrConfigUnreadable indicates the rule file could not be read
	// (missing file, permission denied, I/O error).
	ErrConfigUnreadable = errors.New("acl configuration unreadable")

	// ErrConfigMalformed indicates the rule file could not be parsed,
	// or a rule record is missing a required field.
	ErrConfigMalformed = errors.New("acl configuration malformed")
)

// ConfigError wraps a configuration load failure with the path and the
// failure category. Both reloads and the initial load produce it.
type ConfigError struct {
	// Path is the rule file location.
	Path string

	// Reason is the failure category (ErrConfigUnreadable or
	// ErrConfigMalformed).
	Reason error

	// Err is the underlying error.
	Err error
}

// Error returns the error message.
func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%v: %s: %v", e.Reason, e.Path, e.Err)
	}
	return fmt.Sprintf("%v: %s", e.Reason, e.Path)
}

// Unwrap returns the wrapped errors so errors.Is matches both the
// category sentinel and the underlying error.
func (e *ConfigError) Unwrap() []error {
	return []error{e.Reason, e.Err}
}

// IsConfigUnreadable checks if an error is a read failure.
func IsConfigUnreadable(err error) bool {
	return errors.Is(err, ErrConfigUnreadable)
}

// IsConfigMalformed checks if an error is a parse failure.
func IsConfigMalformed(err error) bool {
	return errors.Is(err, ErrConfigMalformed)
}
