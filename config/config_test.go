package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, ":8000", cfg.Tools.Listen)
	assert.Equal(t, ":8003", cfg.Router.Listen)
	assert.Equal(t, []string{"http://localhost:8001", "http://localhost:8002"}, cfg.Router.Specialists)
	assert.Equal(t, 30*time.Second, cfg.Router.SubTaskDeadline.Std())
	assert.True(t, cfg.Store.Seed)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "supportmesh.yaml")
	body := `
log_level: debug
store:
  path: /tmp/mesh.db
  seed: false
router:
  listen: ":9100"
  specialists:
    - http://data.internal:8001
  subtask_deadline: 5s
  poll_interval: 100ms
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "/tmp/mesh.db", cfg.Store.Path)
	assert.False(t, cfg.Store.Seed)
	assert.Equal(t, ":9100", cfg.Router.Listen)
	assert.Equal(t, []string{"http://data.internal:8001"}, cfg.Router.Specialists)
	assert.Equal(t, 5*time.Second, cfg.Router.SubTaskDeadline.Std())
	assert.Equal(t, 100*time.Millisecond, cfg.Router.PollInterval.Std())
	// Untouched sections keep their defaults.
	assert.Equal(t, ":8000", cfg.Tools.Listen)
}

func TestLoadExpandsEnvVars(t *testing.T) {
	t.Setenv("MESH_DB_DIR", "/var/lib/mesh")

	path := filepath.Join(t.TempDir(), "supportmesh.yaml")
	body := `
store:
  path: ${MESH_DB_DIR}/mesh.db
tools:
  url: http://${UNSET_MESH_HOST}:8000
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/mesh/mesh.db", cfg.Store.Path)
	// Unset variables are left as written.
	assert.Equal(t, "http://${UNSET_MESH_HOST}:8000", cfg.Tools.URL)
}

func TestLoadRejectsBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "supportmesh.yaml")
	require.NoError(t, os.WriteFile(path, []byte("router:\n  subtask_deadline: banana\n"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}
