package commands

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diogo/choicemate/internal/config"
)

// configEnv points the config directory at a temp dir and lets setup load it
func configEnv(t *testing.T) (*testEnv, string) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(config.EnvHome, dir)
	t.Setenv(config.EnvAPIBaseURL, "")

	env := newTestEnv(t)
	env.deps.Config = nil
	return env, dir
}

func TestConfigPath(t *testing.T) {
	env, dir := configEnv(t)

	stdout, _, err := env.run("config", "path")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.json")+"\n", stdout)
}

func TestConfigSetAndShow(t *testing.T) {
	env, _ := configEnv(t)

	stdout, _, err := env.run("config", "show")
	require.NoError(t, err)
	assert.Contains(t, stdout, `"api_base_url": ""`)

	_, _, err = env.run("config", "set", "api_base_url", "http://127.0.0.1:8000/")
	require.NoError(t, err)
	_, _, err = env.run("config", "set", "storage.backend", "sqlite")
	require.NoError(t, err)

	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8000", cfg.APIBaseURL)
	assert.Equal(t, config.BackendSQLite, cfg.Storage.Backend)

	// the running command sees the new value too
	assert.Equal(t, "http://127.0.0.1:8000", env.deps.Config.APIBaseURL)

	stdout, stderr, err := env.run("config", "show")
	require.NoError(t, err)
	assert.Contains(t, stdout, `"backend": "sqlite"`)
	assert.Contains(t, stderr, "Backend: http://127.0.0.1:8000")
}

func TestConfigSet_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unknown key", "colour", "blue"},
		{"bad timeout", "timeout_seconds", "-1"},
		{"bad bool", "copy_to_clipboard", "maybe"},
		{"bad backend", "storage.backend", "postgres"},
		{"bad theme", "tui_theme", "neon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, _ := configEnv(t)
			_, _, err := env.run("config", "set", tt.key, tt.value)
			require.Error(t, err)

			cfg, err := config.LoadConfig()
			require.NoError(t, err)
			assert.Equal(t, config.DefaultConfig(), cfg, "nothing should be saved")
		})
	}
}

func TestConfigThemes(t *testing.T) {
	env, _ := configEnv(t)

	stdout, _, err := env.run("config", "themes")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Markdown styles")
	assert.Contains(t, stdout, "tokyonight")
	assert.Contains(t, stdout, "catppuccin")
}
