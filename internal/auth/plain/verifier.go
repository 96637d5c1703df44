package plain

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/vyrodovalexey/avmqacl/internal/observability"
)

// Common credential errors.
var (
	// ErrCredentialsUnreadable indicates the credentials file could
	// not be read.
	ErrCredentialsUnreadable = errors.New("credentials file unreadable")

	// ErrCredentialsMalformed indicates the credentials file could
	// not be parsed, or a record is missing a required field.
	ErrCredentialsMalformed = errors.New("credentials file malformed")
)

// bcryptPrefixes identify stored passwords that are bcrypt hashes.
var bcryptPrefixes = []string{"$2a$", "$2b$", "$2y$"}

// Record is a single username/password credential as stored in the
// credentials file. Password is either plaintext or a bcrypt hash.
type Record struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Verifier answers whether a username/password pair matches the
// loaded credentials. It is immutable after construction and safe for
// concurrent use.
type Verifier struct {
	passwords map[string]string
	logger    observability.Logger
}

// Option is a functional option for the verifier.
type Option func(*Verifier)

// WithLogger sets the logger.
func WithLogger(logger observability.Logger) Option {
	return func(v *Verifier) {
		v.logger = logger
	}
}

// NewVerifier creates a verifier from in-memory records. Duplicate
// usernames and records with empty fields reject the whole set.
func NewVerifier(records []Record, opts ...Option) (*Verifier, error) {
	v := &Verifier{
		passwords: make(map[string]string, len(records)),
		logger:    observability.NopLogger(),
	}

	for _, opt := range opts {
		opt(v)
	}

	for i, r := range records {
		if r.Username == "" {
			return nil, fmt.Errorf("%w: record %d is missing username", ErrCredentialsMalformed, i)
		}
		if r.Password == "" {
			return nil, fmt.Errorf("%w: record %d is missing password", ErrCredentialsMalformed, i)
		}
		if _, exists := v.passwords[r.Username]; exists {
			return nil, fmt.Errorf("%w: duplicate username %q", ErrCredentialsMalformed, r.Username)
		}
		v.passwords[r.Username] = r.Password
	}

	return v, nil
}

// NewVerifierFromFile loads credentials from a JSON file. Unlike ACL
// rules, credentials are loaded once at startup and never reloaded.
func NewVerifierFromFile(path string, opts ...Option) (*Verifier, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from validated configuration
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCredentialsUnreadable, path, err)
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCredentialsMalformed, path, err)
	}

	return NewVerifier(records, opts...)
}

// Verify reports whether the username/password pair matches a loaded
// credential. It never fails: unknown users and wrong passwords both
// yield false.
func (v *Verifier) Verify(username, password string) bool {
	stored, ok := v.passwords[username]
	if !ok {
		// Burn comparable time for unknown users so the response time
		// does not reveal whether the username exists.
		subtle.ConstantTimeCompare([]byte(password), []byte(password))
		v.logger.Debug("authentication failed: unknown user",
			observability.String("username", username),
		)
		return false
	}

	if isBcryptHash(stored) {
		if err := bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)); err != nil {
			v.logger.Debug("authentication failed: password mismatch",
				observability.String("username", username),
			)
			return false
		}
		return true
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(password)) != 1 {
		v.logger.Debug("authentication failed: password mismatch",
			observability.String("username", username),
		)
		return false
	}
	return true
}

// Users returns the number of loaded credentials.
func (v *Verifier) Users() int {
	return len(v.passwords)
}

// isBcryptHash reports whether a stored password is a bcrypt hash.
func isBcryptHash(stored string) bool {
	for _, prefix := range bcryptPrefixes {
		if strings.HasPrefix(stored, prefix) {
			return true
		}
	}
	return false
}
