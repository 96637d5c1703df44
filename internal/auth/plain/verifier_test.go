package plain

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestVerifier_Verify(t *testing.T) {
	t.Parallel()

	verifier, err := NewVerifier([]Record{
		{Username: "testuser", Password: "testpassword"},
	})
	require.NoError(t, err)

	assert.True(t, verifier.Verify("testuser", "testpassword"))
	assert.False(t, verifier.Verify("testuser", "invalidpassword"))
	assert.False(t, verifier.Verify("invaliduser", "testpassword"))
	assert.Equal(t, 1, verifier.Users())
}

func TestVerifier_Verify_BcryptHash(t *testing.T) {
	t.Parallel()

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	verifier, err := NewVerifier([]Record{
		{Username: "alice", Password: string(hash)},
	})
	require.NoError(t, err)

	assert.True(t, verifier.Verify("alice", "s3cret"))
	assert.False(t, verifier.Verify("alice", "wrong"))
	// The stored hash itself is not a valid password
	assert.False(t, verifier.Verify("alice", string(hash)))
}

func TestNewVerifier_RejectsInvalidRecords(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		records []Record
	}{
		{
			name:    "missing username",
			records: []Record{{Password: "x"}},
		},
		{
			name:    "missing password",
			records: []Record{{Username: "alice"}},
		},
		{
			name: "duplicate username",
			records: []Record{
				{Username: "alice", Password: "a"},
				{Username: "alice", Password: "b"},
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := NewVerifier(tt.records)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrCredentialsMalformed)
		})
	}
}

func TestNewVerifierFromFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "users.json")
	require.NoError(t, os.WriteFile(path,
		[]byte(`[{"username":"testuser","password":"testpassword"}]`), 0o600))

	verifier, err := NewVerifierFromFile(path)
	require.NoError(t, err)
	assert.True(t, verifier.Verify("testuser", "testpassword"))
}

func TestNewVerifierFromFile_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := NewVerifierFromFile(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCredentialsUnreadable)
}

func TestNewVerifierFromFile_MalformedJSON(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "users.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"username":`), 0o600))

	_, err := NewVerifierFromFile(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCredentialsMalformed)
}
