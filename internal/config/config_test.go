package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWhenMissing(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.False(t, Exists())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	cfg := DefaultConfig()
	cfg.Backend.BaseURL = "https://api.example.com"
	cfg.Firebase.ProjectID = "finlens-dev"
	cfg.General.Currency = "$"
	require.NoError(t, Save(cfg))
	assert.True(t, Exists())

	info, err := os.Stat(filepath.Join(dir, "finlens", "config.toml"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, err := Load()
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "finlens"), 0o755))
	require.NoError(t, os.WriteFile(ConfigPath(), []byte("[backend]\nbase_url = \"http://10.0.0.2:9000\"\n"), 0o600))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.2:9000", cfg.Backend.BaseURL)
	assert.Equal(t, 30, cfg.Backend.TimeoutSeconds)
	assert.Equal(t, "flexoki-dark", cfg.Appearance.Theme)
}

func TestLoad_Malformed(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "finlens"), 0o755))
	require.NoError(t, os.WriteFile(ConfigPath(), []byte("[backend\n"), 0o600))

	_, err := Load()
	assert.Error(t, err)
}

func TestApplyOverrides_Env(t *testing.T) {
	t.Setenv("FINLENS_BACKEND_BASE_URL", "http://override:1")
	t.Setenv("FINLENS_BACKEND_TIMEOUT_SECONDS", "0")
	t.Setenv("FINLENS_LOGGING_LEVEL", "debug")

	cfg := DefaultConfig()
	ApplyOverrides(&cfg, NewViper())

	assert.Equal(t, "http://override:1", cfg.Backend.BaseURL)
	assert.Equal(t, 0, cfg.Backend.TimeoutSeconds)
	assert.Equal(t, time.Duration(0), RequestTimeout(cfg))
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "flexoki-dark", cfg.Appearance.Theme, "unset keys keep file values")
}

func TestApplyOverrides_ExplicitValue(t *testing.T) {
	v := NewViper()
	v.Set("firebase.project_id", "from-flag")

	cfg := DefaultConfig()
	cfg.Firebase.ProjectID = "from-file"
	ApplyOverrides(&cfg, v)
	assert.Equal(t, "from-flag", cfg.Firebase.ProjectID)
}

func TestGetters_EnvFirst(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Firebase.APIKey = "file-key"
	cfg.Firebase.ProjectID = "file-project"

	t.Setenv("FIREBASE_API_KEY", "")
	t.Setenv("GOOGLE_CLOUD_PROJECT", "")
	assert.Equal(t, "file-key", GetAPIKey(cfg))
	assert.Equal(t, "file-project", GetProjectID(cfg))

	t.Setenv("FIREBASE_API_KEY", "env-key")
	t.Setenv("GOOGLE_CLOUD_PROJECT", "env-project")
	t.Setenv("FIREBASE_CREDENTIALS_FILE", "/tmp/sa.json")
	assert.Equal(t, "env-key", GetAPIKey(cfg))
	assert.Equal(t, "env-project", GetProjectID(cfg))
	assert.Equal(t, "/tmp/sa.json", GetCredentialsFile(cfg))
}

func TestPaths(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "/var/tmp/state")
	cfg := DefaultConfig()
	assert.Equal(t, "/var/tmp/state/finlens/state.db", StateDBPath(cfg))
	assert.Equal(t, "/var/tmp/state/finlens/finlens.log", LogPath(cfg))

	cfg.General.StateDB = "/x/y.db"
	assert.Equal(t, "/x/y.db", StateDBPath(cfg))
}
