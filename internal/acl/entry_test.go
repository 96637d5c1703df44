package acl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntry_Validate(t *testing.T) {
	t.Parallel()

	valid := Entry{
		PrincipalType:   "User",
		Principal:       "alice",
		Operation:       "Write",
		ResourceType:    "Topic",
		ResourcePattern: "orders",
	}

	tests := []struct {
		name    string
		mutate  func(*Entry)
		wantErr bool
	}{
		{
			name:    "valid entry",
			mutate:  func(e *Entry) {},
			wantErr: false,
		},
		{
			name:    "missing principal type",
			mutate:  func(e *Entry) { e.PrincipalType = "" },
			wantErr: true,
		},
		{
			name:    "missing principal",
			mutate:  func(e *Entry) { e.Principal = "" },
			wantErr: true,
		},
		{
			name:    "missing operation",
			mutate:  func(e *Entry) { e.Operation = "" },
			wantErr: true,
		},
		{
			name:    "missing resource type",
			mutate:  func(e *Entry) { e.ResourceType = "" },
			wantErr: true,
		},
		{
			name:    "missing resource pattern",
			mutate:  func(e *Entry) { e.ResourcePattern = "" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			entry := valid
			tt.mutate(&entry)

			err := entry.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEntry_Matches(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		entry    Entry
		request  [4]string // principalType, principalName, operation, resource
		expected bool
	}{
		{
			name: "exact match on all fields",
			entry: Entry{
				PrincipalType: "User", Principal: "alice",
				Operation: "Write", ResourceType: "Topic", ResourcePattern: "orders",
			},
			request:  [4]string{"User", "alice", "Write", "Topic:orders"},
			expected: true,
		},
		{
			name: "different operation",
			entry: Entry{
				PrincipalType: "User", Principal: "alice",
				Operation: "Write", ResourceType: "Topic", ResourcePattern: "orders",
			},
			request:  [4]string{"User", "alice", "Read", "Topic:orders"},
			expected: false,
		},
		{
			name: "different principal",
			entry: Entry{
				PrincipalType: "User", Principal: "alice",
				Operation: "Write", ResourceType: "Topic", ResourcePattern: "orders",
			},
			request:  [4]string{"User", "bob", "Write", "Topic:orders"},
			expected: false,
		},
		{
			name: "wildcard principal matches any name of the type",
			entry: Entry{
				PrincipalType: "User", Principal: "*",
				Operation: "Read", ResourceType: "Topic", ResourcePattern: "orders",
			},
			request:  [4]string{"User", "carol", "Read", "Topic:orders"},
			expected: true,
		},
		{
			name: "principal type is never wildcarded",
			entry: Entry{
				PrincipalType: "*", Principal: "alice",
				Operation: "Write", ResourceType: "Topic", ResourcePattern: "orders",
			},
			request:  [4]string{"User", "alice", "Write", "Topic:orders"},
			expected: false,
		},
		{
			name: "wildcard operation",
			entry: Entry{
				PrincipalType: "User", Principal: "alice",
				Operation: "*", ResourceType: "Topic", ResourcePattern: "orders",
			},
			request:  [4]string{"User", "alice", "Alter", "Topic:orders"},
			expected: true,
		},
		{
			name: "wildcard resource type",
			entry: Entry{
				PrincipalType: "User", Principal: "alice",
				Operation: "Describe", ResourceType: "*", ResourcePattern: "*",
			},
			request:  [4]string{"User", "alice", "Describe", "Group:consumers"},
			expected: true,
		},
		{
			name: "wildcard resource pattern",
			entry: Entry{
				PrincipalType: "User", Principal: "alice",
				Operation: "Read", ResourceType: "Topic", ResourcePattern: "*",
			},
			request:  [4]string{"User", "alice", "Read", "Topic:anything"},
			expected: true,
		},
		{
			name: "prefix resource pattern matches",
			entry: Entry{
				PrincipalType: "User", Principal: "alice",
				Operation: "Read", ResourceType: "Topic", ResourcePattern: "orders-*",
			},
			request:  [4]string{"User", "alice", "Read", "Topic:orders-eu"},
			expected: true,
		},
		{
			name: "prefix resource pattern does not match other prefix",
			entry: Entry{
				PrincipalType: "User", Principal: "alice",
				Operation: "Read", ResourceType: "Topic", ResourcePattern: "orders-*",
			},
			request:  [4]string{"User", "alice", "Read", "Topic:invoices-eu"},
			expected: false,
		},
		{
			name: "resource name containing colon",
			entry: Entry{
				PrincipalType: "User", Principal: "alice",
				Operation: "Read", ResourceType: "Topic", ResourcePattern: "ns:orders",
			},
			request:  [4]string{"User", "alice", "Read", "Topic:ns:orders"},
			expected: true,
		},
		{
			name: "malformed resource without colon",
			entry: Entry{
				PrincipalType: "User", Principal: "*",
				Operation: "*", ResourceType: "*", ResourcePattern: "*",
			},
			request:  [4]string{"User", "alice", "Read", "orders"},
			expected: false,
		},
		{
			name: "unknown operation simply does not match",
			entry: Entry{
				PrincipalType: "User", Principal: "alice",
				Operation: "Write", ResourceType: "Topic", ResourcePattern: "orders",
			},
			request:  [4]string{"User", "alice", "Frobnicate", "Topic:orders"},
			expected: false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := tt.entry.Matches(tt.request[0], tt.request[1], tt.request[2], tt.request[3])
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestEntry_String(t *testing.T) {
	t.Parallel()

	entry := Entry{
		PrincipalType: "User", Principal: "alice",
		Operation: "Write", ResourceType: "Topic", ResourcePattern: "orders",
	}

	require.Equal(t, "User:alice Write Topic:orders", entry.String())
}

func TestSplitResource(t *testing.T) {
	t.Parallel()

	resourceType, name, ok := splitResource("Topic:orders")
	require.True(t, ok)
	assert.Equal(t, "Topic", resourceType)
	assert.Equal(t, "orders", name)

	_, _, ok = splitResource("no-separator")
	assert.False(t, ok)

	resourceType, name, ok = splitResource("Topic:")
	require.True(t, ok)
	assert.Equal(t, "Topic", resourceType)
	assert.Empty(t, name)
}
