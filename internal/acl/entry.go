package acl

import (
	"errors"
	"fmt"
	"strings"
)

// Wildcard is the sentinel that matches any principal name, operation,
// resource type, or resource name.
const Wildcard = "*"

// PrincipalTypeUser is the principal type for named users. Verdicts are
// cached only for this principal type.
const PrincipalTypeUser = "User"

// Entry is a single ACL rule. An entry grants access when all four of
// its comparisons match a request; there are no deny rules.
//
// Entries are immutable values: they are built during a reload and
// never modified afterwards, so they are safe to share between
// concurrent readers.
type Entry struct {
	// PrincipalType is the type tag of the principal, e.g. "User".
	// Matched exactly; the wildcard is not honored here.
	PrincipalType string `json:"principal_type"`

	// Principal is the principal name, or "*" for any principal of
	// the matching type.
	Principal string `json:"principal"`

	// Operation is the broker operation (Read, Write, Describe,
	// Alter, ...), or "*" for any operation.
	Operation string `json:"operation"`

	// ResourceType is the resource type (Topic, Group, Cluster, ...),
	// or "*" for any type.
	ResourceType string `json:"resource_type"`

	// ResourcePattern selects resource names. Three modes:
	//   "orders"   exact literal match
	//   "orders-*" prefix match (trailing "*")
	//   "*"        any resource name
	ResourcePattern string `json:"resource_pattern"`
}

// Validate checks that all required fields are present. A candidate
// rule set containing an invalid entry is rejected as a whole.
func (e *Entry) Validate() error {
	if e.PrincipalType == "" {
		return errors.New("entry is missing principal_type")
	}
	if e.Principal == "" {
		return errors.New("entry is missing principal")
	}
	if e.Operation == "" {
		return errors.New("entry is missing operation")
	}
	if e.ResourceType == "" {
		return errors.New("entry is missing resource_type")
	}
	if e.ResourcePattern == "" {
		return errors.New("entry is missing resource_pattern")
	}
	return nil
}

// Matches reports whether this entry grants the given request. The
// resource argument is formatted as "<resourceType>:<resourceName>".
// Matching is a pure function with no side effects and is safe to call
// concurrently.
func (e *Entry) Matches(principalType, principalName, operation, resource string) bool {
	if e.PrincipalType != principalType {
		return false
	}
	if e.Principal != Wildcard && e.Principal != principalName {
		return false
	}
	if e.Operation != Wildcard && e.Operation != operation {
		return false
	}

	resourceType, resourceName, ok := splitResource(resource)
	if !ok {
		return false
	}
	if e.ResourceType != Wildcard && e.ResourceType != resourceType {
		return false
	}

	return matchesPattern(resourceName, e.ResourcePattern)
}

// String returns a compact representation for logging.
func (e *Entry) String() string {
	return fmt.Sprintf("%s:%s %s %s:%s",
		e.PrincipalType, e.Principal, e.Operation, e.ResourceType, e.ResourcePattern)
}

// splitResource splits "<resourceType>:<resourceName>" at the first
// colon. Resource names may themselves contain colons.
func splitResource(resource string) (resourceType, resourceName string, ok bool) {
	idx := strings.IndexByte(resource, ':')
	if idx < 0 {
		return "", "", false
	}
	return resource[:idx], resource[idx+1:], true
}

// matchesPattern matches a resource name against a pattern using the
// three supported modes: full wildcard, prefix (trailing "*"), and
// exact literal.
func matchesPattern(name, pattern string) bool {
	if pattern == Wildcard {
		return true
	}
	if strings.HasSuffix(pattern, Wildcard) {
		return strings.HasPrefix(name, pattern[:len(pattern)-1])
	}
	return name == pattern
}
