package acl

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Source supplies the current rule list and a change-detection marker.
// The authorizer treats any Source failure as "no change" and keeps
// serving the last successfully loaded rules.
type Source interface {
	// ModificationMarker returns an opaque comparable value that
	// changes whenever the backing rule set changes.
	ModificationMarker() (time.Time, error)

	// LoadEntries returns the full ordered rule list. Order is
	// preserved from the backing store.
	LoadEntries() ([]Entry, error)
}

// FileSource reads rules from a JSON file: an array of objects with
// principal_type, principal, operation, resource_type and
// resource_pattern keys. The file modification time is the change
// marker.
type FileSource struct {
	path string
}

// NewFileSource creates a file-backed rule source.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Path returns the rule file location.
func (s *FileSource) Path() string {
	return s.path
}

// ModificationMarker returns the file modification time.
func (s *FileSource) ModificationMarker() (time.Time, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return time.Time{}, &ConfigError{Path: s.path, Reason: ErrConfigUnreadable, Err: err}
	}
	return info.ModTime(), nil
}

// LoadEntries reads and parses the full rule file. A parse failure or
// an entry with a missing required field rejects the whole candidate
// set; partial rule sets are never returned.
func (s *FileSource) LoadEntries() ([]Entry, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, &ConfigError{Path: s.path, Reason: ErrConfigUnreadable, Err: err}
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, &ConfigError{Path: s.path, Reason: ErrConfigMalformed, Err: err}
	}

	for i := range entries {
		if err := entries[i].Validate(); err != nil {
			return nil, &ConfigError{
				Path:   s.path,
				Reason: ErrConfigMalformed,
				Err:    fmt.Errorf("entry %d: %w", i, err),
			}
		}
	}

	return entries, nil
}

// Ensure FileSource implements Source.
var _ Source = (*FileSource)(nil)
