package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "authorizer.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfigFile(t, `
server:
  address: ":9090"
  readTimeout: "5s"
acl:
  rulesFile: "/etc/broker/acl.json"
  freshnessWindow: "30s"
  cacheThreshold: 20
  watchFile: true
credentials:
  usersFile: "/etc/broker/users.json"
logging:
  level: debug
  format: console
audit:
  enabled: true
  output: stderr
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout.Duration())
	assert.Equal(t, "/etc/broker/acl.json", cfg.ACL.RulesFile)
	assert.Equal(t, 30*time.Second, cfg.ACL.FreshnessWindow.Duration())
	assert.Equal(t, 20, cfg.ACL.CacheThreshold)
	assert.True(t, cfg.ACL.WatchFile)
	assert.Equal(t, "/etc/broker/users.json", cfg.Credentials.UsersFile)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.True(t, cfg.Audit.Enabled)
	assert.Equal(t, "stderr", cfg.Audit.Output)
}

func TestLoadConfig_AppliesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
acl:
  rulesFile: "/etc/broker/acl.json"
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, DefaultServerAddress, cfg.Server.Address)
	assert.Equal(t, DefaultFreshnessWindow, cfg.ACL.FreshnessWindow.Duration())
	assert.Equal(t, DefaultCacheThreshold, cfg.ACL.CacheThreshold)
	assert.Equal(t, DefaultReloadRPS, cfg.Server.ReloadRPS)
	assert.Equal(t, DefaultReloadBurst, cfg.Server.ReloadBurst)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "stdout", cfg.Logging.Output)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_MalformedYAML(t *testing.T) {
	path := writeConfigFile(t, "acl: [broken")

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadConfigFromReader(t *testing.T) {
	cfg, err := LoadConfigFromReader(strings.NewReader(`
acl:
  rulesFile: "acl.json"
`))
	require.NoError(t, err)
	assert.Equal(t, "acl.json", cfg.ACL.RulesFile)
}

func TestLoader_EnvSubstitution(t *testing.T) {
	t.Setenv("ACL_RULES_FILE", "/var/run/acl.json")

	cfg, err := LoadConfigFromReader(strings.NewReader(`
server:
  address: "${ADMIN_ADDRESS:-:8282}"
acl:
  rulesFile: "${ACL_RULES_FILE}"
`))
	require.NoError(t, err)

	assert.Equal(t, "/var/run/acl.json", cfg.ACL.RulesFile)
	// Unset variable falls back to the default
	assert.Equal(t, ":8282", cfg.Server.Address)
}

func TestLoader_EnvSubstitution_EscapedDollar(t *testing.T) {
	cfg, err := LoadConfigFromReader(strings.NewReader(`
acl:
  rulesFile: "$${literal}"
`))
	require.NoError(t, err)
	assert.Equal(t, "${literal}", cfg.ACL.RulesFile)
}

func TestLoader_EnvSubstitution_UnsetWithoutDefault(t *testing.T) {
	cfg, err := LoadConfigFromReader(strings.NewReader(`
acl:
  rulesFile: "${DEFINITELY_NOT_SET_VAR}"
`))
	require.NoError(t, err)
	assert.Equal(t, "", cfg.ACL.RulesFile)
}
