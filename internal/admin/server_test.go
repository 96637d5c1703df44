package admin

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/avmqacl/internal/acl"
	"github.com/vyrodovalexey/avmqacl/internal/auth/plain"
)

const testRules = `[
	{
		"principal_type": "User",
		"principal": "alice",
		"operation": "Write",
		"resource_type": "Topic",
		"resource_pattern": "orders"
	}
]`

func newTestServer(t *testing.T, cfg *ServerConfig) (*Server, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "acl.json")
	require.NoError(t, os.WriteFile(path, []byte(testRules), 0o600))

	registry := prometheus.NewRegistry()
	authorizer, err := acl.New(acl.NewFileSource(path),
		acl.WithMetrics(acl.NewMetricsWithRegisterer("authorizer", registry)),
	)
	require.NoError(t, err)

	return NewServer(cfg, authorizer, WithGatherer(registry)), path
}

func doRequest(server *Server, method, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	server.Engine().ServeHTTP(rec, req)
	return rec
}

func TestServer_Healthz(t *testing.T) {
	server, _ := newTestServer(t, nil)

	rec := doRequest(server, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestServer_Readyz(t *testing.T) {
	server, _ := newTestServer(t, nil)

	rec := doRequest(server, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Status string `json:"status"`
		Rules  int    `json:"rules"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ready", resp.Status)
	assert.Equal(t, 1, resp.Rules)
}

func TestServer_Check(t *testing.T) {
	server, _ := newTestServer(t, nil)

	tests := []struct {
		name    string
		body    string
		allowed bool
	}{
		{
			name:    "granted",
			body:    `{"principal_type":"User","principal":"alice","operation":"Write","resource":"Topic:orders"}`,
			allowed: true,
		},
		{
			name:    "wrong operation",
			body:    `{"principal_type":"User","principal":"alice","operation":"Read","resource":"Topic:orders"}`,
			allowed: false,
		},
		{
			name:    "wrong principal",
			body:    `{"principal_type":"User","principal":"bob","operation":"Write","resource":"Topic:orders"}`,
			allowed: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(server, http.MethodPost, "/v1/check", tt.body)
			assert.Equal(t, http.StatusOK, rec.Code)

			var resp struct {
				Allowed bool `json:"allowed"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.allowed, resp.Allowed)
		})
	}
}

func TestServer_Check_MissingFields(t *testing.T) {
	server, _ := newTestServer(t, nil)

	rec := doRequest(server, http.MethodPost, "/v1/check", `{"principal":"alice"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_Reload(t *testing.T) {
	server, path := newTestServer(t, nil)

	// Unchanged file: reload reports no change
	rec := doRequest(server, http.MethodPost, "/v1/reload", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"changed":false`)

	// Rewrite the rule file and force a reload
	updated := strings.Replace(testRules, `"alice"`, `"bob"`, 1)
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o600))
	bumpMtime(t, path)

	rec = doRequest(server, http.MethodPost, "/v1/reload", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"changed":true`)
}

func TestServer_Reload_RateLimited(t *testing.T) {
	server, _ := newTestServer(t, &ServerConfig{
		Address:     ":0",
		ReloadRPS:   1,
		ReloadBurst: 1,
	})

	rec := doRequest(server, http.MethodPost, "/v1/reload", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(server, http.MethodPost, "/v1/reload", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestServer_Rules(t *testing.T) {
	server, _ := newTestServer(t, nil)

	rec := doRequest(server, http.MethodGet, "/v1/rules", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":1`)
	assert.Contains(t, rec.Body.String(), `"alice"`)
}

func TestServer_Cache(t *testing.T) {
	server, _ := newTestServer(t, nil)

	rec := doRequest(server, http.MethodGet, "/v1/cache", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	// One rule is below the cache threshold, so caching is disabled
	assert.Contains(t, rec.Body.String(), `"enabled":false`)
}

func TestServer_Authenticate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "acl.json")
	require.NoError(t, os.WriteFile(path, []byte(testRules), 0o600))

	registry := prometheus.NewRegistry()
	authorizer, err := acl.New(acl.NewFileSource(path),
		acl.WithMetrics(acl.NewMetricsWithRegisterer("authorizer", registry)),
	)
	require.NoError(t, err)

	verifier, err := plain.NewVerifier([]plain.Record{
		{Username: "alice", Password: "secret"},
	})
	require.NoError(t, err)

	server := NewServer(nil, authorizer, WithVerifier(verifier), WithGatherer(registry))

	rec := doRequest(server, http.MethodPost, "/v1/authenticate",
		`{"username":"alice","password":"secret"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"authenticated":true`)

	rec = doRequest(server, http.MethodPost, "/v1/authenticate",
		`{"username":"alice","password":"wrong"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"authenticated":false`)
}

func TestServer_Authenticate_NotRegisteredWithoutVerifier(t *testing.T) {
	server, _ := newTestServer(t, nil)

	rec := doRequest(server, http.MethodPost, "/v1/authenticate",
		`{"username":"alice","password":"secret"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_Metrics(t *testing.T) {
	server, _ := newTestServer(t, nil)

	// Produce at least one decision so the counters exist
	doRequest(server, http.MethodPost, "/v1/check",
		`{"principal_type":"User","principal":"alice","operation":"Write","resource":"Topic:orders"}`)

	rec := doRequest(server, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "authorizer_acl_decision_total")
}

// bumpMtime pushes a file's modification time forward so a rewrite
// within the same filesystem timestamp granularity is still detected.
func bumpMtime(t *testing.T, path string) {
	t.Helper()

	info, err := os.Stat(path)
	require.NoError(t, err)
	next := info.ModTime().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, next, next))
}
